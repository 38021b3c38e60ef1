package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"pastcheck/internal/platform/metrics"
	"pastcheck/internal/search/models"
	"pastcheck/internal/search/ports"
	"pastcheck/internal/search/scoring"
	id "pastcheck/pkg/domain"
	dErrors "pastcheck/pkg/domain-errors"
	audit "pastcheck/pkg/platform/audit"
	"pastcheck/pkg/platform/sentinel"
)

// Pipeline executes the evidence-gathering stages for a job and returns the
// first unrecoverable stage error.
type Pipeline interface {
	Run(ctx context.Context, jobID id.JobID, req models.SearchRequest) error
}

// AuditPublisher records job lifecycle events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service owns the job lifecycle: it creates jobs in processing state, drives
// the pipeline in the background, commits the single terminal transition and
// serves status/result queries. Queries are non-blocking reads with no side
// effects; polling never re-triggers scoring.
type Service struct {
	store    ports.JobStore
	pipeline Pipeline
	renderer ports.Renderer

	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
	logger         *slog.Logger
	now            func() time.Time

	inflight sync.WaitGroup
}

// Option configures the service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.auditPublisher = publisher }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock overrides the time source; tests pin it for deterministic
// generated_at values.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates the search service.
func New(store ports.JobStore, pipeline Pipeline, renderer ports.Renderer, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("job store is required")
	}
	if pipeline == nil {
		return nil, errors.New("pipeline is required")
	}
	if renderer == nil {
		return nil, errors.New("renderer is required")
	}
	svc := &Service{
		store:    store,
		pipeline: pipeline,
		renderer: renderer,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Submit creates a job for the request and schedules its pipeline. The job is
// observable as processing immediately.
func (s *Service) Submit(ctx context.Context, req models.SearchRequest) (id.JobID, error) {
	jobID := id.NewJobID()
	job := models.NewJob(jobID, req, s.now().UTC())

	if err := s.store.Create(ctx, job); err != nil {
		return id.JobID{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create job")
	}

	if s.metrics != nil {
		s.metrics.SearchesCreated.Inc()
	}
	s.emit(ctx, audit.Event{
		JobID:   jobID,
		Action:  string(audit.EventSearchCreated),
		Subject: req.Name,
	})
	s.logger.InfoContext(ctx, "search submitted", "job_id", jobID.String())

	// Detach from the request lifetime but keep context values for
	// correlation in logs.
	bgCtx := context.WithoutCancel(ctx)
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		s.process(bgCtx, jobID, job.Request)
	}()

	return jobID, nil
}

// process runs the pipeline and commits the terminal state. Any stage error
// fails the job with the first error message; internal errors during scoring
// or assembly fail closed rather than publishing a partial result.
func (s *Service) process(ctx context.Context, jobID id.JobID, req models.SearchRequest) {
	if err := s.pipeline.Run(ctx, jobID, req); err != nil {
		s.fail(ctx, jobID, err.Error())
		return
	}
	if _, err := s.Assemble(ctx, jobID); err != nil {
		s.fail(ctx, jobID, dErrors.MessageOf(err))
	}
}

// Assemble computes the risk score and commits the completed result. It is
// idempotent: repeated calls return the cached result, and concurrent callers
// race for a single winning commit. Fails with NotReady when any stage is
// below 100.
func (s *Service) Assemble(ctx context.Context, jobID id.JobID) (*models.SearchResult, error) {
	job, err := s.store.Get(ctx, jobID)
	if err != nil {
		return nil, s.translate(err)
	}

	switch job.Status {
	case models.StatusCompleted:
		result := job.Result.Clone()
		return &result, nil
	case models.StatusFailed:
		return nil, dErrors.New(dErrors.CodeJobFailed, job.Error)
	}

	if !job.StageComplete() {
		return nil, dErrors.New(dErrors.CodeNotReady, "evidence collection still in progress")
	}

	start := s.now()
	score := scoring.Score(job.Evidence, start)
	if s.metrics != nil {
		s.metrics.ScoringDuration.Observe(time.Since(start).Seconds())
	}

	result := s.buildResult(job, score)

	committed, won, err := s.store.Complete(ctx, jobID, result)
	if err != nil {
		if errors.Is(err, sentinel.ErrInvalidState) {
			// Lost the race to a concurrent failure.
			fresh, gerr := s.store.Get(ctx, jobID)
			if gerr == nil && fresh.Status == models.StatusFailed {
				return nil, dErrors.New(dErrors.CodeJobFailed, fresh.Error)
			}
		}
		return nil, s.translate(err)
	}
	if won {
		if s.metrics != nil {
			s.metrics.JobsCompleted.Inc()
		}
		s.emit(ctx, audit.Event{
			JobID:   jobID,
			Action:  string(audit.EventJobCompleted),
			Subject: job.Request.Name,
		})
		s.logger.InfoContext(ctx, "job completed",
			"job_id", jobID.String(),
			"overall_score", score.OverallScore,
			"risk_category", string(score.RiskCategory),
		)
	}
	return committed, nil
}

// buildResult freezes the evidence into an immutable SearchResult. The job
// snapshot is already a deep copy, so the result aliases nothing in the
// store.
func (s *Service) buildResult(job *models.Job, score models.RiskScore) *models.SearchResult {
	subject := models.Subject{
		Name: job.Request.Name,
		DOB:  models.FormatDOB(job.Request.DOB),
	}
	if pm := job.Evidence.PhotoMatch; pm != nil {
		subject.PhotoMatched = pm.Matched
		subject.PhotoInfo = &models.PhotoInfo{FaceCount: pm.FaceCount}
	}
	return &models.SearchResult{
		Subject:              subject,
		RiskScore:            score,
		CourtCases:           job.Evidence.CourtCases,
		SocialProfiles:       job.Evidence.SocialProfiles,
		RelationshipTimeline: job.Evidence.RelationshipTimeline,
		GeneratedAt:          s.now().UTC(),
	}
}

// Status returns the lifecycle snapshot for a job.
func (s *Service) Status(ctx context.Context, jobID id.JobID) (models.StatusResponse, error) {
	job, err := s.store.Get(ctx, jobID)
	if err != nil {
		return models.StatusResponse{}, s.translate(err)
	}

	resp := models.StatusResponse{
		Status:   job.Status,
		Progress: job.Progress(),
	}
	if job.Status == models.StatusCompleted {
		url := "/api/search/" + jobID.String() + "/result"
		resp.ResultURL = &url
	}
	if job.Status == models.StatusFailed {
		msg := job.Error
		resp.Error = &msg
	}
	return resp, nil
}

// Result returns the completed SearchResult. Fails with NotReady while
// processing, JobFailed with the stored error after failure, NotFound for
// unknown jobs.
func (s *Service) Result(ctx context.Context, jobID id.JobID) (*models.SearchResult, error) {
	job, err := s.store.Get(ctx, jobID)
	if err != nil {
		return nil, s.translate(err)
	}
	switch job.Status {
	case models.StatusCompleted:
		return job.Result, nil
	case models.StatusFailed:
		return nil, dErrors.New(dErrors.CodeJobFailed, job.Error)
	default:
		return nil, dErrors.New(dErrors.CodeNotReady, "search not completed yet")
	}
}

// Export renders a completed result through the renderer collaborator.
func (s *Service) Export(ctx context.Context, jobID id.JobID) ([]byte, string, error) {
	result, err := s.Result(ctx, jobID)
	if err != nil {
		return nil, "", err
	}
	data, contentType, err := s.renderer.Render(ctx, result)
	if err != nil {
		return nil, "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to render result")
	}
	if s.metrics != nil {
		s.metrics.ResultsExported.Inc()
	}
	s.emit(ctx, audit.Event{
		JobID:  jobID,
		Action: string(audit.EventResultExported),
	})
	return data, contentType, nil
}

// Drain blocks until all in-flight pipelines finish. Used by shutdown and
// tests.
func (s *Service) Drain() {
	s.inflight.Wait()
}

// fail commits the failed state; the first error wins and later attempts are
// no-ops.
func (s *Service) fail(ctx context.Context, jobID id.JobID, message string) {
	err := s.store.Fail(ctx, jobID, message)
	if errors.Is(err, sentinel.ErrInvalidState) {
		return
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to mark job failed",
			"job_id", jobID.String(),
			"error", err.Error(),
		)
		return
	}
	if s.metrics != nil {
		s.metrics.JobsFailed.Inc()
	}
	s.emit(ctx, audit.Event{
		JobID:  jobID,
		Action: string(audit.EventJobFailed),
		Reason: message,
	})
	s.logger.WarnContext(ctx, "job failed", "job_id", jobID.String(), "error", message)
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.auditPublisher == nil {
		return
	}
	if err := s.auditPublisher.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "audit emit failed", "error", err.Error())
	}
}

// translate maps infrastructure sentinels onto domain errors.
func (s *Service) translate(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "search job not found")
	case errors.Is(err, sentinel.ErrInvalidState):
		return dErrors.Wrap(err, dErrors.CodeInternal, "job in unexpected state")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "job store failure")
	}
}
