package models

import (
	"time"

	id "pastcheck/pkg/domain"
)

// Status is the lifecycle state of a verification job.
// Transitions: processing -> completed | failed. Submission creates the job
// already in processing; there is no externally observable pending state.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// IsTerminal reports whether no further transitions are permitted.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Stage names one unit of evidence-gathering work tracked independently for
// progress purposes.
type Stage string

const (
	StageCourtRecords        Stage = "court_records"
	StageSocialProfiles      Stage = "social_profiles"
	StageRelationshipHistory Stage = "relationship_history"
	StagePhotoMatching       Stage = "photo_matching"
)

// Stages returns the fixed stage set in execution-report order. Every job
// tracks exactly these stages.
func Stages() []Stage {
	return []Stage{
		StageCourtRecords,
		StageSocialProfiles,
		StageRelationshipHistory,
		StagePhotoMatching,
	}
}

// SearchRequest is the immutable submission that triggers a verification job.
// Optional fields are nil when absent.
type SearchRequest struct {
	Name  string
	DOB   time.Time
	State *id.Jurisdiction
	Email *string
	Phone *string

	// PhotoRef points at the stored upload; the raw bytes never live on the
	// request. Empty when no photo was submitted.
	PhotoRef string
}

// Clone returns an owned copy of the request.
func (r SearchRequest) Clone() SearchRequest {
	c := r
	if r.State != nil {
		s := *r.State
		c.State = &s
	}
	if r.Email != nil {
		e := *r.Email
		c.Email = &e
	}
	if r.Phone != nil {
		p := *r.Phone
		c.Phone = &p
	}
	return c
}

// Progress is a consistent snapshot of per-stage completion. Overall is the
// integer-rounded mean of the stage percentages.
type Progress struct {
	Overall int           `json:"overall"`
	Stages  map[Stage]int `json:"stages"`
}

// Job owns one verification search: the request copy, stage progress, the
// evidence collected so far and, once completed, the immutable result.
//
// Jobs are mutated only through the store, which serializes writers per job
// and enforces monotonic progress and the single terminal transition.
type Job struct {
	ID        id.JobID
	Request   SearchRequest
	Status    Status
	CreatedAt time.Time

	// StageProgress holds percent in [0,100] for each name in Stages().
	StageProgress map[Stage]int

	Evidence Evidence

	// Error carries the first unrecoverable stage error, set only when
	// Status is failed.
	Error string

	// Result is set exactly once, when the job transitions to completed.
	Result *SearchResult
}

// NewJob creates a job in processing state with all stages at zero.
func NewJob(jobID id.JobID, req SearchRequest, now time.Time) *Job {
	progress := make(map[Stage]int, len(Stages()))
	for _, stage := range Stages() {
		progress[stage] = 0
	}
	return &Job{
		ID:            jobID,
		Request:       req.Clone(),
		Status:        StatusProcessing,
		CreatedAt:     now,
		StageProgress: progress,
	}
}

// Progress derives the overall/stage progress view from the stage map.
func (j *Job) Progress() Progress {
	stages := make(map[Stage]int, len(j.StageProgress))
	sum := 0
	for stage, pct := range j.StageProgress {
		stages[stage] = pct
		sum += pct
	}
	overall := 0
	if n := len(j.StageProgress); n > 0 {
		// Round to nearest rather than truncate so 50/50/49/49 reads 50.
		overall = (sum + n/2) / n
	}
	return Progress{Overall: overall, Stages: stages}
}

// StageComplete reports whether every stage reads 100.
func (j *Job) StageComplete() bool {
	for _, stage := range Stages() {
		if j.StageProgress[stage] < 100 {
			return false
		}
	}
	return true
}

// Clone returns a deep copy so readers never observe a torn write.
func (j *Job) Clone() *Job {
	c := *j
	c.Request = j.Request.Clone()
	c.StageProgress = make(map[Stage]int, len(j.StageProgress))
	for stage, pct := range j.StageProgress {
		c.StageProgress[stage] = pct
	}
	c.Evidence = j.Evidence.Clone()
	if j.Result != nil {
		r := j.Result.Clone()
		c.Result = &r
	}
	return &c
}
