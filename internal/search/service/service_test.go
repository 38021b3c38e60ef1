package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pastcheck/internal/search/models"
	"pastcheck/internal/search/store"
	id "pastcheck/pkg/domain"
	dErrors "pastcheck/pkg/domain-errors"
	audit "pastcheck/pkg/platform/audit"
	"pastcheck/pkg/platform/audit/publisher"
	auditmemory "pastcheck/pkg/platform/audit/store/memory"
)

var fixedNow = time.Date(2026, 7, 15, 9, 30, 0, 0, time.UTC)

// pipelineFunc adapts a function to the Pipeline interface.
type pipelineFunc func(ctx context.Context, jobID id.JobID, req models.SearchRequest) error

func (f pipelineFunc) Run(ctx context.Context, jobID id.JobID, req models.SearchRequest) error {
	return f(ctx, jobID, req)
}

// stubRenderer returns a fixed document.
type stubRenderer struct{}

func (stubRenderer) Render(ctx context.Context, result *models.SearchResult) ([]byte, string, error) {
	return []byte("report for " + result.Subject.Name), "text/plain; charset=utf-8", nil
}

// completeAllStages drives every stage to 100 and plants some evidence.
func completeAllStages(t *testing.T, jobStore *store.InMemory, jobID id.JobID) {
	t.Helper()
	ctx := context.Background()
	err := jobStore.AddCourtCases(ctx, jobID, []models.CourtCase{{
		CaseNumber:    "CC/42/2023",
		CaseType:      "Civil",
		Status:        "Disposed",
		SeverityScore: 3,
	}})
	require.NoError(t, err)
	for _, stage := range models.Stages() {
		_, err := jobStore.UpdateStage(ctx, jobID, stage, 100)
		require.NoError(t, err)
	}
}

func newService(t *testing.T, jobStore *store.InMemory, pipeline Pipeline, opts ...Option) *Service {
	t.Helper()
	opts = append(opts, WithClock(func() time.Time { return fixedNow }))
	svc, err := New(jobStore, pipeline, stubRenderer{}, opts...)
	require.NoError(t, err)
	return svc
}

func testRequest(t *testing.T) models.SearchRequest {
	t.Helper()
	req, err := models.NewSearchRequest("Anjali Mehta", "1994-08-21", "Karnataka", "anjali@example.com", "")
	require.NoError(t, err)
	return req
}

func TestSubmitIsObservableImmediately(t *testing.T) {
	jobStore := store.NewInMemory()
	release := make(chan struct{})
	pipeline := pipelineFunc(func(ctx context.Context, jobID id.JobID, req models.SearchRequest) error {
		<-release
		completeAllStages(t, jobStore, jobID)
		return nil
	})
	svc := newService(t, jobStore, pipeline)
	ctx := context.Background()

	jobID, err := svc.Submit(ctx, testRequest(t))
	require.NoError(t, err)

	status, err := svc.Status(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusProcessing, status.Status)
	assert.Equal(t, 0, status.Progress.Overall)
	assert.Nil(t, status.ResultURL)

	_, err = svc.Result(ctx, jobID)
	var de *dErrors.Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, dErrors.CodeNotReady, de.Code)

	close(release)
	svc.Drain()

	status, err = svc.Status(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, status.Status)
	assert.Equal(t, 100, status.Progress.Overall)
	require.NotNil(t, status.ResultURL)
	assert.Equal(t, "/api/search/"+jobID.String()+"/result", *status.ResultURL)
}

func TestAssembleNotReadyBeforeStagesFinish(t *testing.T) {
	jobStore := store.NewInMemory()
	svc := newService(t, jobStore, pipelineFunc(func(context.Context, id.JobID, models.SearchRequest) error {
		return nil
	}))
	ctx := context.Background()

	job := models.NewJob(id.NewJobID(), testRequest(t), fixedNow)
	require.NoError(t, jobStore.Create(ctx, job))
	_, err := jobStore.UpdateStage(ctx, job.ID, models.StageCourtRecords, 70)
	require.NoError(t, err)

	_, err = svc.Assemble(ctx, job.ID)
	var de *dErrors.Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, dErrors.CodeNotReady, de.Code)
}

func TestResultIdempotent(t *testing.T) {
	jobStore := store.NewInMemory()
	pipeline := pipelineFunc(func(ctx context.Context, jobID id.JobID, req models.SearchRequest) error {
		completeAllStages(t, jobStore, jobID)
		return nil
	})
	svc := newService(t, jobStore, pipeline)
	ctx := context.Background()

	jobID, err := svc.Submit(ctx, testRequest(t))
	require.NoError(t, err)
	svc.Drain()

	first, err := svc.Result(ctx, jobID)
	require.NoError(t, err)
	second, err := svc.Result(ctx, jobID)
	require.NoError(t, err)

	firstJSON, err := json.Marshal(first)
	require.NoError(t, err)
	secondJSON, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, firstJSON, secondJSON, "polling must return the identical result")
	assert.Equal(t, fixedNow, first.GeneratedAt)
}

func TestConcurrentAssembleSingleCommit(t *testing.T) {
	jobStore := store.NewInMemory()
	auditStore := auditmemory.NewInMemoryStore()
	pub := publisher.NewPublisher(auditStore)
	svc := newService(t, jobStore,
		pipelineFunc(func(context.Context, id.JobID, models.SearchRequest) error { return nil }),
		WithAuditPublisher(pub),
	)
	ctx := context.Background()

	job := models.NewJob(id.NewJobID(), testRequest(t), fixedNow)
	require.NoError(t, jobStore.Create(ctx, job))
	completeAllStages(t, jobStore, job.ID)

	const racers = 10
	results := make([]*models.SearchResult, racers)
	var wg sync.WaitGroup
	wg.Add(racers)
	for i := 0; i < racers; i++ {
		go func(i int) {
			defer wg.Done()
			result, err := svc.Assemble(ctx, job.ID)
			assert.NoError(t, err)
			results[i] = result
		}(i)
	}
	wg.Wait()

	want, err := json.Marshal(results[0])
	require.NoError(t, err)
	for i := 1; i < racers; i++ {
		got, err := json.Marshal(results[i])
		require.NoError(t, err)
		assert.Equal(t, want, got, "racer %d observed a different result", i)
	}

	events, err := auditStore.ListByJob(ctx, job.ID)
	require.NoError(t, err)
	completions := 0
	for _, e := range events {
		if e.Action == string(audit.EventJobCompleted) {
			completions++
		}
	}
	assert.Equal(t, 1, completions, "only the winning commit emits the completion event")
}

func TestStageFailureKeepsFirstError(t *testing.T) {
	jobStore := store.NewInMemory()
	pipeline := pipelineFunc(func(context.Context, id.JobID, models.SearchRequest) error {
		return errors.New("court records connector timed out")
	})
	svc := newService(t, jobStore, pipeline)
	ctx := context.Background()

	jobID, err := svc.Submit(ctx, testRequest(t))
	require.NoError(t, err)
	svc.Drain()

	status, err := svc.Status(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, status.Status)
	require.NotNil(t, status.Error)
	assert.Equal(t, "court records connector timed out", *status.Error)
	assert.Nil(t, status.ResultURL)

	_, err = svc.Result(ctx, jobID)
	var de *dErrors.Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, dErrors.CodeJobFailed, de.Code)
	assert.Equal(t, "court records connector timed out", de.Message)

	// A late assemble attempt cannot resurrect the job.
	_, err = svc.Assemble(ctx, jobID)
	require.ErrorAs(t, err, &de)
	assert.Equal(t, dErrors.CodeJobFailed, de.Code)
}

func TestStatusAndResultForUnknownJob(t *testing.T) {
	svc := newService(t, store.NewInMemory(),
		pipelineFunc(func(context.Context, id.JobID, models.SearchRequest) error { return nil }))
	ctx := context.Background()

	var de *dErrors.Error

	_, err := svc.Status(ctx, id.NewJobID())
	require.ErrorAs(t, err, &de)
	assert.Equal(t, dErrors.CodeNotFound, de.Code)

	_, err = svc.Result(ctx, id.NewJobID())
	require.ErrorAs(t, err, &de)
	assert.Equal(t, dErrors.CodeNotFound, de.Code)
}

func TestExportRendersCompletedResult(t *testing.T) {
	jobStore := store.NewInMemory()
	pipeline := pipelineFunc(func(ctx context.Context, jobID id.JobID, req models.SearchRequest) error {
		completeAllStages(t, jobStore, jobID)
		return nil
	})
	svc := newService(t, jobStore, pipeline)
	ctx := context.Background()

	jobID, err := svc.Submit(ctx, testRequest(t))
	require.NoError(t, err)
	svc.Drain()

	data, contentType, err := svc.Export(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, "text/plain; charset=utf-8", contentType)
	assert.Equal(t, "report for Anjali Mehta", string(data))

	// Exporting before completion is refused.
	pending := models.NewJob(id.NewJobID(), testRequest(t), fixedNow)
	require.NoError(t, jobStore.Create(ctx, pending))
	_, _, err = svc.Export(ctx, pending.ID)
	var de *dErrors.Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, dErrors.CodeNotReady, de.Code)
}

func TestAuditTrailForLifecycle(t *testing.T) {
	jobStore := store.NewInMemory()
	auditStore := auditmemory.NewInMemoryStore()
	pub := publisher.NewPublisher(auditStore)
	pipeline := pipelineFunc(func(ctx context.Context, jobID id.JobID, req models.SearchRequest) error {
		completeAllStages(t, jobStore, jobID)
		return nil
	})
	svc := newService(t, jobStore, pipeline, WithAuditPublisher(pub))
	ctx := context.Background()

	jobID, err := svc.Submit(ctx, testRequest(t))
	require.NoError(t, err)
	svc.Drain()

	events, err := auditStore.ListByJob(ctx, jobID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, string(audit.EventSearchCreated), events[0].Action)
	assert.Equal(t, "Anjali Mehta", events[0].Subject)
	assert.Equal(t, string(audit.EventJobCompleted), events[1].Action)
}
