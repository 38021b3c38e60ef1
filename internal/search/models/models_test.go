package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "pastcheck/pkg/domain"
)

func day(n int) time.Time {
	return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func TestNewJobStartsProcessing(t *testing.T) {
	req, err := NewSearchRequest("Meera Joshi", "1993-05-09", "", "", "")
	require.NoError(t, err)

	job := NewJob(id.NewJobID(), req, day(0))

	assert.Equal(t, StatusProcessing, job.Status)
	assert.False(t, job.Status.IsTerminal())
	assert.Len(t, job.StageProgress, len(Stages()))
	for _, stage := range Stages() {
		assert.Equal(t, 0, job.StageProgress[stage])
	}
	assert.False(t, job.StageComplete())
	assert.Equal(t, 0, job.Progress().Overall)
}

func TestProgressRoundsToNearest(t *testing.T) {
	job := NewJob(id.NewJobID(), SearchRequest{Name: "x"}, day(0))
	job.StageProgress[StageCourtRecords] = 50
	job.StageProgress[StageSocialProfiles] = 50
	job.StageProgress[StageRelationshipHistory] = 49
	job.StageProgress[StagePhotoMatching] = 49

	assert.Equal(t, 50, job.Progress().Overall)

	job.StageProgress[StageCourtRecords] = 1
	job.StageProgress[StageSocialProfiles] = 0
	job.StageProgress[StageRelationshipHistory] = 0
	job.StageProgress[StagePhotoMatching] = 0
	assert.Equal(t, 0, job.Progress().Overall)
}

func TestBuildTimelineSortsNewestFirst(t *testing.T) {
	profiles := []SocialProfile{
		{
			Platform: "Facebook",
			RelationshipHistory: []RelationshipChange{
				{Date: day(10), PreviousStatus: "Single", NewStatus: "In a relationship"},
				{Date: day(300), PreviousStatus: "In a relationship", NewStatus: "Single"},
			},
		},
		{
			Platform: "Instagram",
			RelationshipHistory: []RelationshipChange{
				{Date: day(150), PreviousStatus: "Single", NewStatus: "Married"},
			},
		},
	}

	timeline := BuildTimeline(profiles)

	require.Len(t, timeline, 3)
	assert.Equal(t, day(300), timeline[0].Date)
	assert.Equal(t, "Facebook", timeline[0].Platform)
	assert.Equal(t, day(150), timeline[1].Date)
	assert.Equal(t, "Instagram", timeline[1].Platform)
	assert.Equal(t, day(10), timeline[2].Date)
}

func TestBuildTimelineStableOnEqualDates(t *testing.T) {
	profiles := []SocialProfile{
		{Platform: "Facebook", RelationshipHistory: []RelationshipChange{{Date: day(5)}}},
		{Platform: "Instagram", RelationshipHistory: []RelationshipChange{{Date: day(5)}}},
	}

	timeline := BuildTimeline(profiles)

	require.Len(t, timeline, 2)
	assert.Equal(t, "Facebook", timeline[0].Platform)
	assert.Equal(t, "Instagram", timeline[1].Platform)
}

func TestJobCloneIsDeep(t *testing.T) {
	edits := 7
	job := NewJob(id.NewJobID(), SearchRequest{Name: "Meera Joshi"}, day(0))
	job.Evidence.SocialProfiles = []SocialProfile{{
		Platform: "Tinder",
		Activity: ActivityPattern{ProfileChanges: &edits},
	}}
	job.Evidence.CourtCases = []CourtCase{{CaseNumber: "CC/5/2022"}}

	clone := job.Clone()
	clone.StageProgress[StageCourtRecords] = 100
	*clone.Evidence.SocialProfiles[0].Activity.ProfileChanges = 99
	clone.Evidence.CourtCases[0].CaseNumber = "tampered"

	assert.Equal(t, 0, job.StageProgress[StageCourtRecords])
	assert.Equal(t, 7, *job.Evidence.SocialProfiles[0].Activity.ProfileChanges)
	assert.Equal(t, "CC/5/2022", job.Evidence.CourtCases[0].CaseNumber)
}

func TestSearchResultCloneIsDeep(t *testing.T) {
	result := SearchResult{
		Subject: Subject{Name: "Meera Joshi", PhotoInfo: &PhotoInfo{FaceCount: 2}},
		RiskScore: RiskScore{
			OverallScore:        40,
			RiskCategory:        RiskModerate,
			ContributingFactors: []string{"factor"},
		},
		CourtCases:  []CourtCase{{CaseNumber: "CC/8/2021"}},
		GeneratedAt: day(0),
	}

	clone := result.Clone()
	clone.RiskScore.ContributingFactors[0] = "tampered"
	clone.CourtCases[0].CaseNumber = "tampered"
	clone.Subject.PhotoInfo.FaceCount = 9

	assert.Equal(t, "factor", result.RiskScore.ContributingFactors[0])
	assert.Equal(t, "CC/8/2021", result.CourtCases[0].CaseNumber)
	assert.Equal(t, 2, result.Subject.PhotoInfo.FaceCount)
}
