package store

import (
	"context"
	"sync"

	"pastcheck/internal/search/models"
	id "pastcheck/pkg/domain"
	"pastcheck/pkg/platform/sentinel"
)

// InMemory implements ports.JobStore with a mutex-guarded map. The single
// lock is the per-job synchronization boundary: readers always observe a
// consistent snapshot and writers never interleave within a job.
type InMemory struct {
	mu   sync.RWMutex
	jobs map[id.JobID]*models.Job
}

// NewInMemory creates an empty in-memory job store.
func NewInMemory() *InMemory {
	return &InMemory{jobs: make(map[id.JobID]*models.Job)}
}

// Create stores a new job. Fails with ErrConflict when the ID is taken.
func (s *InMemory) Create(ctx context.Context, job *models.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[job.ID]; exists {
		return sentinel.ErrConflict
	}
	s.jobs[job.ID] = job.Clone()
	return nil
}

// Get returns a deep snapshot of the job.
func (s *InMemory) Get(ctx context.Context, jobID id.JobID) (*models.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return job.Clone(), nil
}

// UpdateStage raises a stage percentage. Out-of-range values clamp to
// [0,100]; a value below the stored one is ignored so progress never moves
// backwards. Returns the stored value after the update.
func (s *InMemory) UpdateStage(ctx context.Context, jobID id.JobID, stage models.Stage, percent int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return 0, sentinel.ErrNotFound
	}
	if job.Status.IsTerminal() {
		return 0, sentinel.ErrInvalidState
	}
	if _, tracked := job.StageProgress[stage]; !tracked {
		return 0, sentinel.ErrInvalidState
	}

	percent = clampPercent(percent)
	if percent > job.StageProgress[stage] {
		job.StageProgress[stage] = percent
	}
	return job.StageProgress[stage], nil
}

// AddCourtCases appends court records to the job's evidence.
func (s *InMemory) AddCourtCases(ctx context.Context, jobID id.JobID, cases []models.CourtCase) error {
	return s.mutate(jobID, func(job *models.Job) {
		job.Evidence.CourtCases = append(job.Evidence.CourtCases, cases...)
	})
}

// AddSocialProfiles appends profiles to the job's evidence.
func (s *InMemory) AddSocialProfiles(ctx context.Context, jobID id.JobID, profiles []models.SocialProfile) error {
	return s.mutate(jobID, func(job *models.Job) {
		job.Evidence.SocialProfiles = append(job.Evidence.SocialProfiles, profiles...)
	})
}

// SetRelationshipTimeline replaces the derived timeline view.
func (s *InMemory) SetRelationshipTimeline(ctx context.Context, jobID id.JobID, timeline []models.TimelineEvent) error {
	return s.mutate(jobID, func(job *models.Job) {
		job.Evidence.RelationshipTimeline = timeline
	})
}

// SetPhotoMatch records the photo matching outcome.
func (s *InMemory) SetPhotoMatch(ctx context.Context, jobID id.JobID, match *models.PhotoMatch) error {
	return s.mutate(jobID, func(job *models.Job) {
		job.Evidence.PhotoMatch = match
	})
}

// Complete commits the completed state. Exactly one caller wins; later
// callers get the winner's stored result back with won=false. Completing a
// failed job returns ErrInvalidState.
func (s *InMemory) Complete(ctx context.Context, jobID id.JobID, result *models.SearchResult) (*models.SearchResult, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return nil, false, sentinel.ErrNotFound
	}
	switch job.Status {
	case models.StatusCompleted:
		cached := job.Result.Clone()
		return &cached, false, nil
	case models.StatusFailed:
		return nil, false, sentinel.ErrInvalidState
	}

	stored := result.Clone()
	job.Result = &stored
	job.Status = models.StatusCompleted

	committed := stored.Clone()
	return &committed, true, nil
}

// Fail commits the failed state with the first error message. Failing an
// already terminal job returns ErrInvalidState and changes nothing.
func (s *InMemory) Fail(ctx context.Context, jobID id.JobID, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if job.Status.IsTerminal() {
		return sentinel.ErrInvalidState
	}
	job.Status = models.StatusFailed
	job.Error = message
	return nil
}

// mutate applies fn to a live, non-terminal job under the write lock.
func (s *InMemory) mutate(jobID id.JobID, fn func(*models.Job)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if job.Status.IsTerminal() {
		return sentinel.ErrInvalidState
	}
	fn(job)
	return nil
}

func clampPercent(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
