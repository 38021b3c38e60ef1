package dating

import (
	"context"
	"fmt"
	"time"

	"pastcheck/internal/connectors"
	"pastcheck/internal/search/models"
	"pastcheck/internal/search/ports"
)

// Source simulates dating app discovery. Dating platforms hide profile URLs
// from search, so findings carry a placeholder reference instead.
type Source struct {
	pace time.Duration
	now  func() time.Time
}

// New creates a dating profile source.
func New(pace time.Duration) *Source {
	return &Source{pace: pace, now: time.Now}
}

var platforms = []string{"Tinder", "Bumble", "Hinge", "TrulyMadly", "QuackQuack"}

var statuses = []string{"Active", "Paused", "Deleted"}

// Search checks each dating platform for the subject. Roughly a third of
// platforms yield a match.
func (s *Source) Search(ctx context.Context, name string, email *string, report ports.ProgressFunc) ([]models.SocialProfile, error) {
	rng := connectors.Rand("dating", name, stringOr(email))
	now := s.now()

	var profiles []models.SocialProfile
	for i, platform := range platforms {
		if err := report(ctx, (i*100)/len(platforms)); err != nil {
			return nil, err
		}
		if err := connectors.Pace(ctx, s.pace); err != nil {
			return nil, err
		}
		if rng.IntN(100) >= 34 {
			continue
		}

		lastActive := connectors.DaysAgo(now, 1+rng.IntN(60))
		changes := 2 + rng.IntN(9)

		var history []models.RelationshipChange
		for range rng.IntN(3) {
			history = append(history, models.RelationshipChange{
				Date:           connectors.DaysAgo(now, 14+rng.IntN(352)),
				PreviousStatus: statuses[rng.IntN(len(statuses))],
				NewStatus:      statuses[rng.IntN(len(statuses))],
			})
		}

		profiles = append(profiles, models.SocialProfile{
			Platform:            platform,
			ProfileURL:          fmt.Sprintf("Profile found on %s (URL protected)", platform),
			RelationshipHistory: history,
			Activity: models.ActivityPattern{
				LastActive:     &lastActive,
				ProfileChanges: &changes,
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
