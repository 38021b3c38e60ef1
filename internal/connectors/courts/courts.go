package courts

import (
	"context"
	"fmt"
	"strings"
	"time"

	"pastcheck/internal/connectors"
	"pastcheck/internal/search/models"
	"pastcheck/internal/search/ports"
	id "pastcheck/pkg/domain"
)

// Source simulates the eCourts record lookup. Real portal access sits behind
// CAPTCHA and session handling; findings here are generated deterministically
// per subject instead.
type Source struct {
	pace time.Duration
	now  func() time.Time
}

// New creates a court-record source. pace throttles the simulated lookup.
func New(pace time.Duration) *Source {
	return &Source{pace: pace, now: time.Now}
}

var caseTypes = []string{"Civil", "Criminal", "Matrimonial", "Property Dispute", "Domestic Violence"}
var caseStatuses = []string{"Pending", "Disposed", "Under Trial", "Judgment Reserved"}

// Search returns 0-3 simulated cases for the subject, reporting progress as
// the lookup advances.
func (s *Source) Search(ctx context.Context, name string, state *id.Jurisdiction, report ports.ProgressFunc) ([]models.CourtCase, error) {
	if err := report(ctx, 10); err != nil {
		return nil, err
	}
	if err := connectors.Pace(ctx, s.pace); err != nil {
		return nil, err
	}

	jurisdiction := "Delhi"
	if state != nil {
		jurisdiction = state.String()
	}

	rng := connectors.Rand("courts", name, jurisdiction)
	now := s.now()

	count := rng.IntN(4)
	cases := make([]models.CourtCase, 0, count)
	for range count {
		caseType := caseTypes[rng.IntN(len(caseTypes))]
		status := caseStatuses[rng.IntN(len(caseStatuses))]
		cases = append(cases, models.CourtCase{
			CaseNumber:    fmt.Sprintf("CC/%d/%d", 100+rng.IntN(900), 2020+rng.IntN(5)),
			CaseType:      caseType,
			CourtName:     jurisdiction + " District Court",
			FilingDate:    connectors.DaysAgo(now, 30+rng.IntN(1066)),
			Status:        status,
			SeverityScore: severityFor(caseType, rng.IntN(3)),
			Summary: fmt.Sprintf("%s case filed against %s. Case is currently %s.",
				caseType, name, strings.ToLower(status)),
		})
	}

	if err := report(ctx, 100); err != nil {
		return nil, err
	}
	return cases, nil
}

// severityFor assigns the source severity for a case type; spread shifts
// within the type's band.
func severityFor(caseType string, spread int) int {
	switch caseType {
	case "Criminal":
		return 8 + spread%3
	case "Domestic Violence":
		return 10
	case "Matrimonial":
		return 5 + spread%3
	case "Civil":
		return 2 + spread%3
	case "Property Dispute":
		return 3 + spread%3
	default:
		return 5
	}
}
