package models

import "time"

// RiskCategory is the coarse label derived from the overall numeric score.
type RiskCategory string

const (
	RiskLow      RiskCategory = "low"
	RiskModerate RiskCategory = "moderate"
	RiskHigh     RiskCategory = "high"
	RiskCritical RiskCategory = "critical"
)

// Breakdown carries the three sub-scores, each in [0,100].
type Breakdown struct {
	LegalScore          int `json:"legal_score"`
	RelationshipScore   int `json:"relationship_score"`
	SocialBehaviorScore int `json:"social_behavior_score"`
}

// RiskScore is the aggregated assessment computed once at job completion.
type RiskScore struct {
	OverallScore int          `json:"overall_score"`
	RiskCategory RiskCategory `json:"risk_category"`
	Breakdown    Breakdown    `json:"breakdown"`
	// ContributingFactors are ordered explanations, each traceable to a
	// signal that moved the overall score. Empty when nothing contributed.
	ContributingFactors []string `json:"contributing_factors"`
	ConfidenceLevel     int      `json:"confidence_level"`
}

// Clone returns an owned copy.
func (s RiskScore) Clone() RiskScore {
	c := s
	if s.ContributingFactors != nil {
		c.ContributingFactors = make([]string, len(s.ContributingFactors))
		copy(c.ContributingFactors, s.ContributingFactors)
	}
	return c
}

// PhotoInfo surfaces photo-match metadata on the subject when a photo was
// submitted.
type PhotoInfo struct {
	FaceCount int `json:"face_count"`
}

// Subject describes who the result is about.
type Subject struct {
	Name         string     `json:"name"`
	DOB          string     `json:"dob"`
	PhotoMatched bool       `json:"photo_matched"`
	PhotoInfo    *PhotoInfo `json:"photo_info,omitempty"`
}

// SearchResult is the immutable aggregate returned to callers once a job
// completes. Produced exactly once per job; evidence is copied in, never
// aliased, so later store mutation cannot affect a published result.
type SearchResult struct {
	Subject              Subject         `json:"subject"`
	RiskScore            RiskScore       `json:"risk_score"`
	CourtCases           []CourtCase     `json:"court_cases"`
	SocialProfiles       []SocialProfile `json:"social_profiles"`
	RelationshipTimeline []TimelineEvent `json:"relationship_timeline"`
	GeneratedAt          time.Time       `json:"generated_at"`
}

// Clone returns an owned deep copy.
func (r SearchResult) Clone() SearchResult {
	c := r
	c.RiskScore = r.RiskScore.Clone()
	ev := Evidence{
		CourtCases:           r.CourtCases,
		SocialProfiles:       r.SocialProfiles,
		RelationshipTimeline: r.RelationshipTimeline,
	}.Clone()
	c.CourtCases = ev.CourtCases
	c.SocialProfiles = ev.SocialProfiles
	c.RelationshipTimeline = ev.RelationshipTimeline
	if r.Subject.PhotoInfo != nil {
		pi := *r.Subject.PhotoInfo
		c.Subject.PhotoInfo = &pi
	}
	return c
}
