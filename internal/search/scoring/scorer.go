package scoring

import (
	"fmt"
	"math"
	"time"

	"pastcheck/internal/search/models"
)

// Score is pure and deterministic: the same evidence and reference time
// always produce the same RiskScore. It runs once, at job completion; the
// service guarantees every stage reads 100 before calling it.

// Sub-score weights for the overall combination. Legal findings weigh
// highest. They must sum to 1.
const (
	WeightLegal          = 0.40
	WeightRelationship   = 0.35
	WeightSocialBehavior = 0.25
)

// Category thresholds over the overall score. Non-overlapping:
// low < ThresholdModerate <= moderate < ThresholdHigh <= high <
// ThresholdCritical <= critical.
const (
	ThresholdModerate = 25
	ThresholdHigh     = 50
	ThresholdCritical = 75
)

// Legal sub-score constants: each case contributes twice its source-assigned
// severity, with flat additions for pending status and serious case types.
const (
	legalSeverityFactor = 2
	legalPendingBonus   = 3
	legalSeriousBonus   = 10
	legalMatrimonyBonus = 5
)

// Relationship sub-score constants: changes beyond the free allowance add
// volatility, and reversals inside the recency window add more.
const (
	volatilityFreeChanges = 3
	perExtraChange        = 5
	perRecentReversal     = 4
	recencyWindow         = 180 * 24 * time.Hour
)

// Social behavior constants.
const (
	diversePlatformFloor  = 5
	diversityBonus        = 10
	multiMatrimonyFloor   = 1
	multiMatrimonyBonus   = 10
	multiDatingFloor      = 2
	multiDatingBonus      = 15
	churnEditFloor        = 6
	perChurnProfile       = 5
	staleWindow           = 180 * 24 * time.Hour
	perStaleProfile       = 3
)

// Confidence levels by evidence volume, with a bonus when photo matching ran.
const (
	confidenceNone   = 30
	confidenceLow    = 50
	confidenceMedium = 70
	confidenceHigh   = 85
	confidencePhoto  = 5
	confidenceCap    = 95
)

// matrimonialPlatforms and datingPlatforms classify profile sources for the
// multiple-active-profile signals.
var matrimonialPlatforms = map[string]bool{
	"Shaadi":          true,
	"Bharatmatrimony": true,
	"Jeevansathi":     true,
}

var datingPlatforms = map[string]bool{
	"Tinder":     true,
	"Bumble":     true,
	"Hinge":      true,
	"TrulyMadly": true,
	"QuackQuack": true,
}

// CategoryFor maps an overall score to its risk category.
func CategoryFor(score int) models.RiskCategory {
	switch {
	case score < ThresholdModerate:
		return models.RiskLow
	case score < ThresholdHigh:
		return models.RiskModerate
	case score < ThresholdCritical:
		return models.RiskHigh
	default:
		return models.RiskCritical
	}
}

// Score aggregates the collected evidence into a RiskScore. now anchors the
// recency and staleness windows.
func Score(evidence models.Evidence, now time.Time) models.RiskScore {
	var factors []string

	legal := legalScore(evidence.CourtCases, &factors)
	relationship := relationshipScore(evidence.RelationshipTimeline, now, &factors)
	social := socialBehaviorScore(evidence.SocialProfiles, now, &factors)

	weighted := WeightLegal*float64(legal) +
		WeightRelationship*float64(relationship) +
		WeightSocialBehavior*float64(social)
	overall := clamp(int(math.Round(weighted)))

	return models.RiskScore{
		OverallScore: overall,
		RiskCategory: CategoryFor(overall),
		Breakdown: models.Breakdown{
			LegalScore:          legal,
			RelationshipScore:   relationship,
			SocialBehaviorScore: social,
		},
		ContributingFactors: factors,
		ConfidenceLevel:     confidence(evidence),
	}
}

// legalScore aggregates court case severity. Zero cases yields zero.
func legalScore(cases []models.CourtCase, factors *[]string) int {
	if len(cases) == 0 {
		return 0
	}

	score := 0
	pending := 0
	serious := 0
	worst := cases[0]
	for _, c := range cases {
		score += c.SeverityScore * legalSeverityFactor
		if c.Status == "Pending" {
			score += legalPendingBonus
			pending++
		}
		switch c.CaseType {
		case "Criminal", "Domestic Violence":
			score += legalSeriousBonus
			serious++
		case "Matrimonial":
			score += legalMatrimonyBonus
		}
		if c.SeverityScore > worst.SeverityScore {
			worst = c
		}
	}
	score = clamp(score)

	if score > 0 {
		*factors = append(*factors, fmt.Sprintf(
			"%d court case(s) on record, highest severity %d/10 (%s)",
			len(cases), worst.SeverityScore, worst.CaseNumber))
	}
	if pending > 0 {
		*factors = append(*factors, fmt.Sprintf("%d pending court case(s)", pending))
	}
	if serious > 0 {
		*factors = append(*factors, fmt.Sprintf("%d serious criminal/domestic violence case(s)", serious))
	}
	return score
}

// relationshipScore measures timeline volatility: change volume beyond a free
// allowance plus reversals inside the recency window. An empty timeline
// yields zero.
func relationshipScore(timeline []models.TimelineEvent, now time.Time, factors *[]string) int {
	if len(timeline) == 0 {
		return 0
	}

	score := 0
	if extra := len(timeline) - volatilityFreeChanges; extra > 0 {
		score += extra * perExtraChange
		*factors = append(*factors, fmt.Sprintf(
			"Multiple relationship status changes (%d recorded)", len(timeline)))
	}

	recent := 0
	cutoff := now.Add(-recencyWindow)
	for _, event := range timeline {
		if event.PreviousStatus != event.NewStatus && event.Date.After(cutoff) {
			recent++
		}
	}
	if recent > 0 {
		score += recent * perRecentReversal
		*factors = append(*factors, fmt.Sprintf(
			"%d relationship reversal(s) within the last %d days", recent, int(recencyWindow.Hours()/24)))
	}
	return clamp(score)
}

// socialBehaviorScore measures profile count, platform diversity, multiple
// active matrimonial/dating profiles, edit churn and staleness. No profiles
// yields zero.
func socialBehaviorScore(profiles []models.SocialProfile, now time.Time, factors *[]string) int {
	if len(profiles) == 0 {
		return 0
	}

	score := 0

	platforms := make(map[string]bool, len(profiles))
	matrimonial := 0
	dating := 0
	churn := 0
	stale := 0
	cutoff := now.Add(-staleWindow)
	for _, p := range profiles {
		platforms[p.Platform] = true
		if matrimonialPlatforms[p.Platform] {
			matrimonial++
		}
		if datingPlatforms[p.Platform] {
			dating++
		}
		if p.Activity.ProfileChanges != nil && *p.Activity.ProfileChanges > churnEditFloor {
			churn++
		}
		if p.Activity.LastActive != nil && p.Activity.LastActive.Before(cutoff) {
			stale++
		}
	}

	if len(platforms) > diversePlatformFloor {
		score += diversityBonus
		*factors = append(*factors, fmt.Sprintf(
			"Presence on %d different platforms", len(platforms)))
	}
	if matrimonial > multiMatrimonyFloor {
		score += multiMatrimonyBonus
		*factors = append(*factors, fmt.Sprintf(
			"Active on %d matrimonial platforms", matrimonial))
	}
	if dating > multiDatingFloor {
		score += multiDatingBonus
		*factors = append(*factors, fmt.Sprintf(
			"Active on %d dating platforms", dating))
	}
	if churn > 0 {
		score += churn * perChurnProfile
		*factors = append(*factors, fmt.Sprintf(
			"%d profile(s) with frequent profile edits", churn))
	}
	if stale > 0 {
		score += stale * perStaleProfile
		*factors = append(*factors, fmt.Sprintf(
			"%d profile(s) inactive for over %d days", stale, int(staleWindow.Hours()/24)))
	}
	return clamp(score)
}

// confidence reflects evidence volume; photo matching adds a small bonus.
func confidence(evidence models.Evidence) int {
	points := len(evidence.CourtCases) + len(evidence.SocialProfiles)

	level := confidenceNone
	switch {
	case points >= 5:
		level = confidenceHigh
	case points >= 3:
		level = confidenceMedium
	case points >= 1:
		level = confidenceLow
	}
	if evidence.PhotoMatch != nil {
		level += confidencePhoto
	}
	if level > confidenceCap {
		level = confidenceCap
	}
	return level
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
