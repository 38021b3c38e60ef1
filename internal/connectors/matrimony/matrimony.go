package matrimony

import (
	"context"
	"fmt"
	"strings"
	"time"

	"pastcheck/internal/connectors"
	"pastcheck/internal/search/models"
	"pastcheck/internal/search/ports"
)

// Source simulates matrimonial platform discovery.
type Source struct {
	pace time.Duration
	now  func() time.Time
}

// New creates a matrimonial profile source.
func New(pace time.Duration) *Source {
	return &Source{pace: pace, now: time.Now}
}

var platforms = []string{"Shaadi", "Bharatmatrimony", "Jeevansathi"}

var statuses = []string{"Active", "Hidden", "Deactivated"}

// Search checks each matrimonial platform for the subject. Roughly 40% of
// platforms yield a profile for any given subject.
func (s *Source) Search(ctx context.Context, name string, email *string, report ports.ProgressFunc) ([]models.SocialProfile, error) {
	rng := connectors.Rand("matrimony", name, stringOr(email))
	now := s.now()

	var profiles []models.SocialProfile
	for i, platform := range platforms {
		if err := report(ctx, (i*100)/len(platforms)); err != nil {
			return nil, err
		}
		if err := connectors.Pace(ctx, s.pace); err != nil {
			return nil, err
		}
		if rng.IntN(100) >= 40 {
			continue
		}

		created := connectors.DaysAgo(now, 180+rng.IntN(916))
		lastActive := connectors.DaysAgo(now, 1+rng.IntN(30))

		var history []models.RelationshipChange
		for range rng.IntN(3) {
			history = append(history, models.RelationshipChange{
				Date:           connectors.DaysAgo(now, 30+rng.IntN(336)),
				PreviousStatus: statuses[rng.IntN(len(statuses))],
				NewStatus:      statuses[rng.IntN(len(statuses))],
			})
		}

		profiles = append(profiles, models.SocialProfile{
			Platform:            platform,
			ProfileURL:          fmt.Sprintf("https://www.%s.com/profile/%d", strings.ToLower(platform), 1000000+rng.IntN(9000000)),
			CreatedDate:         &created,
			RelationshipHistory: history,
			Activity: models.ActivityPattern{
				LastActive: &lastActive,
			},
		})
	}

	if err := report(ctx, 100); err != nil {
		return nil, err
	}
	return profiles, nil
}

func stringOr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
