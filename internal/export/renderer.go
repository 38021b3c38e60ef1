package export

import (
	"context"
	"fmt"
	"strings"

	"pastcheck/internal/search/models"
)

// TextRenderer is the reference report renderer. Real deployments swap in a
// PDF renderer behind the same port; the core only requires a completed
// result to feed it.
type TextRenderer struct{}

// NewTextRenderer returns the plain-text renderer.
func NewTextRenderer() *TextRenderer {
	return &TextRenderer{}
}

// Render writes a human-readable verification report.
func (r *TextRenderer) Render(ctx context.Context, result *models.SearchResult) ([]byte, string, error) {
	var b strings.Builder

	fmt.Fprintf(&b, "BACKGROUND VERIFICATION REPORT\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", result.GeneratedAt.Format("2006-01-02 15:04:05 MST"))

	fmt.Fprintf(&b, "Subject: %s (DOB %s)\n", result.Subject.Name, result.Subject.DOB)
	if result.Subject.PhotoInfo != nil {
		fmt.Fprintf(&b, "Photo: matched=%t, faces detected=%d\n",
			result.Subject.PhotoMatched, result.Subject.PhotoInfo.FaceCount)
	}

	score := result.RiskScore
	fmt.Fprintf(&b, "\nOverall risk: %d/100 (%s), confidence %d%%\n",
		score.OverallScore, score.RiskCategory, score.ConfidenceLevel)
	fmt.Fprintf(&b, "  Legal: %d  Relationship: %d  Social behavior: %d\n",
		score.Breakdown.LegalScore, score.Breakdown.RelationshipScore, score.Breakdown.SocialBehaviorScore)

	if len(score.ContributingFactors) > 0 {
		fmt.Fprintf(&b, "\nContributing factors:\n")
		for _, factor := range score.ContributingFactors {
			fmt.Fprintf(&b, "  - %s\n", factor)
		}
	}

	if len(result.CourtCases) > 0 {
		fmt.Fprintf(&b, "\nCourt records (%d):\n", len(result.CourtCases))
		for _, c := range result.CourtCases {
			fmt.Fprintf(&b, "  %s  %s  %s  filed %s  severity %d/10\n",
				c.CaseNumber, c.CaseType, c.Status, c.FilingDate.Format("2006-01-02"), c.SeverityScore)
		}
	}

	if len(result.SocialProfiles) > 0 {
		fmt.Fprintf(&b, "\nProfiles (%d):\n", len(result.SocialProfiles))
		for _, p := range result.SocialProfiles {
			fmt.Fprintf(&b, "  %s  %s\n", p.Platform, p.ProfileURL)
		}
	}

	if len(result.RelationshipTimeline) > 0 {
		fmt.Fprintf(&b, "\nRelationship timeline (%d events):\n", len(result.RelationshipTimeline))
		for _, e := range result.RelationshipTimeline {
			fmt.Fprintf(&b, "  %s  %s: %s -> %s\n",
				e.Date.Format("2006-01-02"), e.Platform, e.PreviousStatus, e.NewStatus)
		}
	}

	return []byte(b.String()), "text/plain; charset=utf-8", nil
}
