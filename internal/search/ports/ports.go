package ports

import (
	"context"

	"pastcheck/internal/search/models"
	id "pastcheck/pkg/domain"
)

// JobStore persists jobs and serializes all mutation per job. Implementations
// must enforce the lifecycle invariants so every backend behaves identically:
//
//   - stage percents clamp to [0,100] and never decrease; regressions are
//     ignored and the stored value returned
//   - mutation of a terminal job returns sentinel.ErrInvalidState
//   - Complete admits exactly one winner; later callers get the cached result
//   - reads return deep snapshots, never aliased internals
type JobStore interface {
	Create(ctx context.Context, job *models.Job) error
	Get(ctx context.Context, jobID id.JobID) (*models.Job, error)

	// UpdateStage raises a stage percentage and returns the stored value.
	UpdateStage(ctx context.Context, jobID id.JobID, stage models.Stage, percent int) (int, error)

	AddCourtCases(ctx context.Context, jobID id.JobID, cases []models.CourtCase) error
	AddSocialProfiles(ctx context.Context, jobID id.JobID, profiles []models.SocialProfile) error
	SetRelationshipTimeline(ctx context.Context, jobID id.JobID, timeline []models.TimelineEvent) error
	SetPhotoMatch(ctx context.Context, jobID id.JobID, match *models.PhotoMatch) error

	// Complete commits the terminal completed state. The boolean reports
	// whether this caller won the transition; losers receive the result the
	// winner stored.
	Complete(ctx context.Context, jobID id.JobID, result *models.SearchResult) (*models.SearchResult, bool, error)

	// Fail commits the terminal failed state with the first error message.
	Fail(ctx context.Context, jobID id.JobID, message string) error
}

// ProgressFunc lets a connector report partial completion for its stage.
// Implementations clamp and keep the value monotonic.
type ProgressFunc func(ctx context.Context, percent int) error

// CourtRecordSource looks up court cases for a subject. External collaborator;
// the core only consumes its output.
type CourtRecordSource interface {
	Search(ctx context.Context, name string, state *id.Jurisdiction, report ProgressFunc) ([]models.CourtCase, error)
}

// ProfileSource finds social, dating or matrimonial profiles for a subject.
type ProfileSource interface {
	Search(ctx context.Context, name string, email *string, report ProgressFunc) ([]models.SocialProfile, error)
}

// PhotoMatcher runs face detection and matching against a stored upload.
type PhotoMatcher interface {
	Match(ctx context.Context, photoRef string, report ProgressFunc) (*models.PhotoMatch, error)
}

// Renderer turns a completed result into an exportable document. Rendering is
// a collaborator concern; the core only requires a completed job.
type Renderer interface {
	Render(ctx context.Context, result *models.SearchResult) (data []byte, contentType string, err error)
}
