package stagerunner

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"pastcheck/internal/search/models"
	"pastcheck/internal/search/ports"
	"pastcheck/internal/search/progress"
	id "pastcheck/pkg/domain"
	audit "pastcheck/pkg/platform/audit"
)

// EventSink receives stage-level audit events.
type EventSink interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Runner executes the evidence-gathering stages for one job. Court records,
// profile discovery and photo matching fan out concurrently; the relationship
// history stage runs after profile discovery because it derives its timeline
// from the collected profiles. The caller owns the terminal transition: the
// runner only collects evidence and reports progress, returning the first
// stage error.
type Runner struct {
	store    ports.JobStore
	tracker  *progress.Tracker
	courts   ports.CourtRecordSource
	profiles []ports.ProfileSource
	photos   ports.PhotoMatcher
	logger   *slog.Logger
	tracer   trace.Tracer
	events   EventSink
}

// Option configures the runner.
type Option func(*Runner)

// WithEventSink enables stage-completion audit events.
func WithEventSink(sink EventSink) Option {
	return func(r *Runner) { r.events = sink }
}

// New creates a stage runner. profileSources are queried in order within the
// social profiles stage.
func New(
	store ports.JobStore,
	tracker *progress.Tracker,
	courts ports.CourtRecordSource,
	profileSources []ports.ProfileSource,
	photos ports.PhotoMatcher,
	logger *slog.Logger,
	opts ...Option,
) *Runner {
	r := &Runner{
		store:    store,
		tracker:  tracker,
		courts:   courts,
		profiles: profileSources,
		photos:   photos,
		logger:   logger,
		tracer:   otel.Tracer("pastcheck/stagerunner"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes all stages for the job and returns the first unrecoverable
// stage error, if any. On success every stage reads 100 and the evidence
// store holds the complete findings.
func (r *Runner) Run(ctx context.Context, jobID id.JobID, req models.SearchRequest) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return r.runCourtRecords(gctx, jobID, req) })
	g.Go(func() error { return r.runSocialProfiles(gctx, jobID, req) })
	g.Go(func() error { return r.runPhotoMatching(gctx, jobID, req) })

	if err := g.Wait(); err != nil {
		return err
	}

	return r.runRelationshipHistory(ctx, jobID)
}

func (r *Runner) runCourtRecords(ctx context.Context, jobID id.JobID, req models.SearchRequest) error {
	ctx, span := r.startStage(ctx, jobID, models.StageCourtRecords)
	defer span.End()

	report := r.tracker.Reporter(jobID, models.StageCourtRecords)
	cases, err := r.courts.Search(ctx, req.Name, req.State, report)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if len(cases) > 0 {
		if err := r.store.AddCourtCases(ctx, jobID, cases); err != nil {
			span.RecordError(err)
			return err
		}
	}
	span.SetAttributes(attribute.Int("evidence.court_cases", len(cases)))
	r.stageDone(ctx, jobID, models.StageCourtRecords)
	return nil
}

func (r *Runner) runSocialProfiles(ctx context.Context, jobID id.JobID, req models.SearchRequest) error {
	ctx, span := r.startStage(ctx, jobID, models.StageSocialProfiles)
	defer span.End()

	report := r.tracker.Reporter(jobID, models.StageSocialProfiles)
	total := 0
	for i, source := range r.profiles {
		scoped := scaledReporter(report, i, len(r.profiles))
		profiles, err := source.Search(ctx, req.Name, req.Email, scoped)
		if err != nil {
			span.RecordError(err)
			return err
		}
		if len(profiles) > 0 {
			if err := r.store.AddSocialProfiles(ctx, jobID, profiles); err != nil {
				span.RecordError(err)
				return err
			}
			total += len(profiles)
		}
	}
	if err := report(ctx, 100); err != nil {
		span.RecordError(err)
		return err
	}
	span.SetAttributes(attribute.Int("evidence.social_profiles", total))
	r.stageDone(ctx, jobID, models.StageSocialProfiles)
	return nil
}

func (r *Runner) runPhotoMatching(ctx context.Context, jobID id.JobID, req models.SearchRequest) error {
	ctx, span := r.startStage(ctx, jobID, models.StagePhotoMatching)
	defer span.End()

	report := r.tracker.Reporter(jobID, models.StagePhotoMatching)
	match, err := r.photos.Match(ctx, req.PhotoRef, report)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if match != nil {
		if err := r.store.SetPhotoMatch(ctx, jobID, match); err != nil {
			span.RecordError(err)
			return err
		}
		span.SetAttributes(
			attribute.Bool("evidence.photo_matched", match.Matched),
			attribute.Int("evidence.face_count", match.FaceCount),
		)
	}
	r.stageDone(ctx, jobID, models.StagePhotoMatching)
	return nil
}

// runRelationshipHistory derives the chronological timeline from the
// collected profiles, keeping the two evidence views consistent.
func (r *Runner) runRelationshipHistory(ctx context.Context, jobID id.JobID) error {
	ctx, span := r.startStage(ctx, jobID, models.StageRelationshipHistory)
	defer span.End()

	report := r.tracker.Reporter(jobID, models.StageRelationshipHistory)
	if err := report(ctx, 50); err != nil {
		span.RecordError(err)
		return err
	}

	job, err := r.store.Get(ctx, jobID)
	if err != nil {
		span.RecordError(err)
		return err
	}
	timeline := models.BuildTimeline(job.Evidence.SocialProfiles)
	if len(timeline) > 0 {
		if err := r.store.SetRelationshipTimeline(ctx, jobID, timeline); err != nil {
			span.RecordError(err)
			return err
		}
	}
	if err := report(ctx, 100); err != nil {
		span.RecordError(err)
		return err
	}
	span.SetAttributes(attribute.Int("evidence.timeline_events", len(timeline)))
	r.stageDone(ctx, jobID, models.StageRelationshipHistory)
	return nil
}

// stageDone emits the stage-completion audit event when a sink is wired.
func (r *Runner) stageDone(ctx context.Context, jobID id.JobID, stage models.Stage) {
	if r.events == nil {
		return
	}
	if err := r.events.Emit(ctx, audit.Event{
		JobID:  jobID,
		Action: string(audit.EventStageCompleted),
		Stage:  string(stage),
	}); err != nil {
		r.logger.ErrorContext(ctx, "audit emit failed",
			"job_id", jobID.String(),
			"stage", string(stage),
			"error", err.Error(),
		)
	}
}

func (r *Runner) startStage(ctx context.Context, jobID id.JobID, stage models.Stage) (context.Context, trace.Span) {
	ctx, span := r.tracer.Start(ctx, "stage."+string(stage),
		trace.WithAttributes(attribute.String("job_id", jobID.String())))
	r.logger.InfoContext(ctx, "stage started",
		"job_id", jobID.String(),
		"stage", string(stage),
	)
	return ctx, span
}

// scaledReporter maps a source's 0-100 progress into its slice of the stage.
func scaledReporter(report ports.ProgressFunc, index, count int) ports.ProgressFunc {
	return func(ctx context.Context, percent int) error {
		scaled := (index*100 + percent) / count
		return report(ctx, scaled)
	}
}
