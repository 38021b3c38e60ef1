package socialmedia

import (
	"context"
	"fmt"
	"strings"
	"time"

	"pastcheck/internal/connectors"
	"pastcheck/internal/search/models"
	"pastcheck/internal/search/ports"
)

// Source simulates social media discovery across the major platforms.
type Source struct {
	pace time.Duration
	now  func() time.Time
}

// New creates a social media profile source.
func New(pace time.Duration) *Source {
	return &Source{pace: pace, now: time.Now}
}

var platforms = []string{"Facebook", "Instagram", "LinkedIn"}

var statuses = []string{"Single", "In a relationship", "Married", "It's complicated"}

// Search checks each social platform for the subject. About half of the
// platforms yield a profile.
func (s *Source) Search(ctx context.Context, name string, email *string, report ports.ProgressFunc) ([]models.SocialProfile, error) {
	rng := connectors.Rand("socialmedia", name, stringOr(email))
	now := s.now()

	var profiles []models.SocialProfile
	for i, platform := range platforms {
		if err := report(ctx, (i*100)/len(platforms)); err != nil {
			return nil, err
		}
		if err := connectors.Pace(ctx, s.pace); err != nil {
			return nil, err
		}
		if rng.IntN(100) >= 50 {
			continue
		}

		created := connectors.DaysAgo(now, 365+rng.IntN(2191))
		lastActive := connectors.DaysAgo(now, 1+rng.IntN(30))
		posts := 2 + rng.IntN(19)

		var history []models.RelationshipChange
		for range rng.IntN(4) {
			history = append(history, models.RelationshipChange{
				Date:           connectors.DaysAgo(now, 60+rng.IntN(671)),
				PreviousStatus: statuses[rng.IntN(len(statuses))],
				NewStatus:      statuses[rng.IntN(len(statuses))],
			})
		}

		handle := strings.ToLower(strings.ReplaceAll(name, " ", "."))
		profiles = append(profiles, models.SocialProfile{
			Platform:            platform,
			ProfileURL:          fmt.Sprintf("https://www.%s.com/%s", strings.ToLower(platform), handle),
			CreatedDate:         &created,
			RelationshipHistory: history,
			Activity: models.ActivityPattern{
				LastActive:    &lastActive,
				PostsPerMonth: &posts,
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
