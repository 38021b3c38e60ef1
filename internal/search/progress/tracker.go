package progress

import (
	"context"
	"log/slog"

	"pastcheck/internal/search/models"
	"pastcheck/internal/search/ports"
	id "pastcheck/pkg/domain"
)

// Tracker maintains per-stage completion for jobs. It owns no state of its
// own: the store serializes updates per job, so the tracker stays safe under
// one concurrent writer per stage.
type Tracker struct {
	store  ports.JobStore
	logger *slog.Logger
}

// New creates a tracker over the given store.
func New(store ports.JobStore, logger *slog.Logger) *Tracker {
	return &Tracker{store: store, logger: logger}
}

// Update raises a stage percentage and returns the stored value. Values
// outside [0,100] clamp; regressions are ignored, never stored.
func (t *Tracker) Update(ctx context.Context, jobID id.JobID, stage models.Stage, percent int) (int, error) {
	stored, err := t.store.UpdateStage(ctx, jobID, stage, percent)
	if err != nil {
		return 0, err
	}
	t.logger.DebugContext(ctx, "stage progress",
		"job_id", jobID.String(),
		"stage", string(stage),
		"percent", stored,
	)
	return stored, nil
}

// Overall returns the consistent overall/per-stage snapshot for a job. The
// overall value is the integer-rounded mean of all stage percentages.
func (t *Tracker) Overall(ctx context.Context, jobID id.JobID) (models.Progress, error) {
	job, err := t.store.Get(ctx, jobID)
	if err != nil {
		return models.Progress{}, err
	}
	return job.Progress(), nil
}

// StageComplete reports whether every stage reads 100.
func (t *Tracker) StageComplete(ctx context.Context, jobID id.JobID) (bool, error) {
	job, err := t.store.Get(ctx, jobID)
	if err != nil {
		return false, err
	}
	return job.StageComplete(), nil
}

// Reporter binds a ProgressFunc to one job and stage for connector use.
func (t *Tracker) Reporter(jobID id.JobID, stage models.Stage) ports.ProgressFunc {
	return func(ctx context.Context, percent int) error {
		_, err := t.Update(ctx, jobID, stage, percent)
		return err
	}
}
