package courts

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "pastcheck/pkg/domain"
)

func TestSearchIsDeterministicPerSubject(t *testing.T) {
	source := New(0)
	ctx := context.Background()
	state, err := id.ParseJurisdiction("Maharashtra")
	require.NoError(t, err)
	report := func(context.Context, int) error { return nil }

	first, err := source.Search(ctx, "Vikram Rao", &state, report)
	require.NoError(t, err)
	second, err := source.Search(ctx, "Vikram Rao", &state, report)
	require.NoError(t, err)

	assert.Equal(t, first, second, "repeated searches for the same subject must agree")
}

func TestSearchVariesAcrossSubjects(t *testing.T) {
	source := New(0)
	ctx := context.Background()
	report := func(context.Context, int) error { return nil }

	// Compare a batch of subjects so a coincidental collision on one pair
	// cannot flake the test.
	fingerprints := make(map[string]bool)
	for _, name := range []string{"Vikram Rao", "Sunita Reddy", "Amit Kulkarni", "Neha Gupta", "Rohit Shah"} {
		cases, err := source.Search(ctx, name, nil, report)
		require.NoError(t, err)
		fp := ""
		for _, c := range cases {
			fp += c.CaseNumber + "|"
		}
		fingerprints[fp] = true
	}

	assert.Greater(t, len(fingerprints), 1, "distinct subjects should not all share one finding profile")
}

func TestSearchReportsProgress(t *testing.T) {
	source := New(0)
	ctx := context.Background()

	var reported []int
	report := func(_ context.Context, percent int) error {
		reported = append(reported, percent)
		return nil
	}

	_, err := source.Search(ctx, "Vikram Rao", nil, report)
	require.NoError(t, err)

	require.NotEmpty(t, reported)
	assert.Equal(t, 100, reported[len(reported)-1], "stage must finish at 100")
	for i := 1; i < len(reported); i++ {
		assert.GreaterOrEqual(t, reported[i], reported[i-1], "progress reports never regress")
	}
}

func TestSearchFindingsAreWellFormed(t *testing.T) {
	source := New(0)
	ctx := context.Background()
	report := func(context.Context, int) error { return nil }

	// Scan a handful of subjects so at least one yields cases.
	names := []string{"Vikram Rao", "Sunita Reddy", "Amit Kulkarni", "Neha Gupta", "Rohit Shah"}
	found := 0
	for _, name := range names {
		cases, err := source.Search(ctx, name, nil, report)
		require.NoError(t, err)
		for _, c := range cases {
			found++
			assert.Regexp(t, `^CC/\d+/\d{4}$`, c.CaseNumber)
			assert.Contains(t, caseTypes, c.CaseType)
			assert.Contains(t, caseStatuses, c.Status)
			assert.GreaterOrEqual(t, c.SeverityScore, 1)
			assert.LessOrEqual(t, c.SeverityScore, 10)
			assert.Equal(t, "Delhi District Court", c.CourtName)
			assert.NotEmpty(t, c.Summary)
		}
	}
	assert.Greater(t, found, 0, "the subject pool should surface at least one case")
}

func TestSearchCancelled(t *testing.T) {
	source := New(0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report := func(ctx context.Context, percent int) error { return ctx.Err() }
	_, err := source.Search(ctx, "Vikram Rao", nil, report)
	assert.ErrorIs(t, err, context.Canceled)
}
