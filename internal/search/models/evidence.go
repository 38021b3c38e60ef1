package models

import (
	"sort"
	"time"
)

// CourtCase is one court record found for the subject.
type CourtCase struct {
	CaseNumber string    `json:"case_number"`
	CaseType   string    `json:"case_type"`
	CourtName  string    `json:"court_name"`
	FilingDate time.Time `json:"filing_date"`
	Status     string    `json:"status"`
	// SeverityScore is assigned by the record source on a 0-10 scale.
	SeverityScore int    `json:"severity_score"`
	Summary       string `json:"summary"`
}

// RelationshipChange is one status transition recorded on a profile.
type RelationshipChange struct {
	Date           time.Time `json:"date"`
	PreviousStatus string    `json:"previous_status"`
	NewStatus      string    `json:"new_status"`
}

// ActivityPattern describes how a profile is used. Fields are nil when the
// platform did not expose them.
type ActivityPattern struct {
	LastActive     *time.Time `json:"last_active,omitempty"`
	ProfileChanges *int       `json:"profile_changes,omitempty"`
	PostsPerMonth  *int       `json:"posts_per_month,omitempty"`
}

// SocialProfile is one social, dating or matrimonial profile found for the
// subject.
type SocialProfile struct {
	Platform    string     `json:"platform"`
	ProfileURL  string     `json:"profile_url"`
	CreatedDate *time.Time `json:"created_date,omitempty"`

	RelationshipHistory []RelationshipChange `json:"relationship_status_history"`
	Activity            ActivityPattern      `json:"activity_pattern"`
}

// TimelineEvent is one relationship status change in the merged chronological
// view across all profiles.
type TimelineEvent struct {
	Date           time.Time `json:"date"`
	Platform       string    `json:"platform"`
	PreviousStatus string    `json:"previous_status"`
	NewStatus      string    `json:"new_status"`
}

// PhotoMatch is the outcome of the photo matching stage.
type PhotoMatch struct {
	Matched   bool `json:"matched"`
	FaceCount int  `json:"face_count"`
}

// Evidence holds the raw findings collected by the stage connectors for one
// job. The relationship timeline is derived from the profiles' status
// histories; BuildTimeline keeps the two views consistent.
type Evidence struct {
	CourtCases           []CourtCase
	SocialProfiles       []SocialProfile
	RelationshipTimeline []TimelineEvent
	PhotoMatch           *PhotoMatch
}

// BuildTimeline flattens every profile's relationship history into one
// chronologically sorted slice, newest first. The sort is stable so events
// sharing a date keep profile order.
func BuildTimeline(profiles []SocialProfile) []TimelineEvent {
	var timeline []TimelineEvent
	for _, profile := range profiles {
		for _, change := range profile.RelationshipHistory {
			timeline = append(timeline, TimelineEvent{
				Date:           change.Date,
				Platform:       profile.Platform,
				PreviousStatus: change.PreviousStatus,
				NewStatus:      change.NewStatus,
			})
		}
	}
	sort.SliceStable(timeline, func(i, k int) bool {
		return timeline[i].Date.After(timeline[k].Date)
	})
	return timeline
}

// Clone returns an owned deep copy of the evidence.
func (e Evidence) Clone() Evidence {
	c := Evidence{}
	if e.CourtCases != nil {
		c.CourtCases = make([]CourtCase, len(e.CourtCases))
		copy(c.CourtCases, e.CourtCases)
	}
	if e.SocialProfiles != nil {
		c.SocialProfiles = make([]SocialProfile, len(e.SocialProfiles))
		for i, p := range e.SocialProfiles {
			c.SocialProfiles[i] = p.clone()
		}
	}
	if e.RelationshipTimeline != nil {
		c.RelationshipTimeline = make([]TimelineEvent, len(e.RelationshipTimeline))
		copy(c.RelationshipTimeline, e.RelationshipTimeline)
	}
	if e.PhotoMatch != nil {
		pm := *e.PhotoMatch
		c.PhotoMatch = &pm
	}
	return c
}

func (p SocialProfile) clone() SocialProfile {
	c := p
	if p.CreatedDate != nil {
		d := *p.CreatedDate
		c.CreatedDate = &d
	}
	if p.RelationshipHistory != nil {
		c.RelationshipHistory = make([]RelationshipChange, len(p.RelationshipHistory))
		copy(c.RelationshipHistory, p.RelationshipHistory)
	}
	c.Activity = p.Activity.clone()
	return c
}

func (a ActivityPattern) clone() ActivityPattern {
	c := a
	if a.LastActive != nil {
		t := *a.LastActive
		c.LastActive = &t
	}
	if a.ProfileChanges != nil {
		n := *a.ProfileChanges
		c.ProfileChanges = &n
	}
	if a.PostsPerMonth != nil {
		n := *a.PostsPerMonth
		c.PostsPerMonth = &n
	}
	return c
}
