package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"pastcheck/internal/search/models"
	id "pastcheck/pkg/domain"
	"pastcheck/pkg/platform/sentinel"
)

// Redis implements ports.JobStore on top of go-redis. Each job lives in one
// JSON value under jobKey; read-modify-write cycles run inside WATCH
// transactions so concurrent writers serialize per job, which preserves the
// monotonicity and single-winner invariants without a process-local lock.
//
// Values carry a TTL equal to the retention period, which implements the
// bounded job/result retention policy at the storage layer.
type Redis struct {
	client    redis.Cmdable
	watcher   watcher
	retention time.Duration
}

// watcher is the subset of *redis.Client needed for transactions.
type watcher interface {
	Watch(ctx context.Context, fn func(*redis.Tx) error, keys ...string) error
}

// maxTxRetries bounds optimistic retry on contended jobs.
const maxTxRetries = 5

// NewRedis creates a Redis-backed job store with the given retention TTL.
func NewRedis(client *redis.Client, retention time.Duration) *Redis {
	return &Redis{client: client, watcher: client, retention: retention}
}

func jobKey(jobID id.JobID) string {
	return "pastcheck:job:" + jobID.String()
}

// redisJob is the persisted form of models.Job.
type redisJob struct {
	ID        string                `json:"id"`
	Name      string                `json:"name"`
	DOB       time.Time             `json:"dob"`
	State     *string               `json:"state,omitempty"`
	Email     *string               `json:"email,omitempty"`
	Phone     *string               `json:"phone,omitempty"`
	PhotoRef  string                `json:"photo_ref,omitempty"`
	Status    models.Status         `json:"status"`
	CreatedAt time.Time             `json:"created_at"`
	Stages    map[models.Stage]int  `json:"stages"`
	Evidence  redisEvidence         `json:"evidence"`
	Error     string                `json:"error,omitempty"`
	Result    *models.SearchResult  `json:"result,omitempty"`
}

type redisEvidence struct {
	CourtCases           []models.CourtCase     `json:"court_cases,omitempty"`
	SocialProfiles       []models.SocialProfile `json:"social_profiles,omitempty"`
	RelationshipTimeline []models.TimelineEvent `json:"relationship_timeline,omitempty"`
	PhotoMatch           *models.PhotoMatch     `json:"photo_match,omitempty"`
}

func encodeJob(job *models.Job) redisJob {
	rj := redisJob{
		ID:        job.ID.String(),
		Name:      job.Request.Name,
		DOB:       job.Request.DOB,
		Email:     job.Request.Email,
		Phone:     job.Request.Phone,
		PhotoRef:  job.Request.PhotoRef,
		Status:    job.Status,
		CreatedAt: job.CreatedAt,
		Stages:    job.StageProgress,
		Evidence: redisEvidence{
			CourtCases:           job.Evidence.CourtCases,
			SocialProfiles:       job.Evidence.SocialProfiles,
			RelationshipTimeline: job.Evidence.RelationshipTimeline,
			PhotoMatch:           job.Evidence.PhotoMatch,
		},
		Error:  job.Error,
		Result: job.Result,
	}
	if job.Request.State != nil {
		s := job.Request.State.String()
		rj.State = &s
	}
	return rj
}

func decodeJob(data []byte) (*models.Job, error) {
	var rj redisJob
	if err := json.Unmarshal(data, &rj); err != nil {
		return nil, fmt.Errorf("decode job: %w", err)
	}
	jobID, err := id.ParseJobID(rj.ID)
	if err != nil {
		return nil, fmt.Errorf("decode job: %w", err)
	}
	job := &models.Job{
		ID: jobID,
		Request: models.SearchRequest{
			Name:     rj.Name,
			DOB:      rj.DOB,
			Email:    rj.Email,
			Phone:    rj.Phone,
			PhotoRef: rj.PhotoRef,
		},
		Status:        rj.Status,
		CreatedAt:     rj.CreatedAt,
		StageProgress: rj.Stages,
		Evidence: models.Evidence{
			CourtCases:           rj.Evidence.CourtCases,
			SocialProfiles:       rj.Evidence.SocialProfiles,
			RelationshipTimeline: rj.Evidence.RelationshipTimeline,
			PhotoMatch:           rj.Evidence.PhotoMatch,
		},
		Error:  rj.Error,
		Result: rj.Result,
	}
	if rj.State != nil {
		j := id.Jurisdiction(*rj.State)
		job.Request.State = &j
	}
	return job, nil
}

// Create stores a new job with the retention TTL.
func (s *Redis) Create(ctx context.Context, job *models.Job) error {
	payload, err := json.Marshal(encodeJob(job))
	if err != nil {
		return fmt.Errorf("encode job: %w", err)
	}
	ok, err := s.client.SetNX(ctx, jobKey(job.ID), payload, s.retention).Result()
	if err != nil {
		return fmt.Errorf("create job: %w", err)
	}
	if !ok {
		return sentinel.ErrConflict
	}
	return nil
}

// Get returns the stored job. Decoded values are already owned copies.
func (s *Redis) Get(ctx context.Context, jobID id.JobID) (*models.Job, error) {
	data, err := s.client.Get(ctx, jobKey(jobID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return decodeJob(data)
}

// UpdateStage raises a stage percentage inside a WATCH transaction.
func (s *Redis) UpdateStage(ctx context.Context, jobID id.JobID, stage models.Stage, percent int) (int, error) {
	stored := 0
	err := s.update(ctx, jobID, func(job *models.Job) error {
		if job.Status.IsTerminal() {
			return sentinel.ErrInvalidState
		}
		if _, tracked := job.StageProgress[stage]; !tracked {
			return sentinel.ErrInvalidState
		}
		percent = clampPercent(percent)
		if percent > job.StageProgress[stage] {
			job.StageProgress[stage] = percent
		}
		stored = job.StageProgress[stage]
		return nil
	})
	return stored, err
}

// AddCourtCases appends court records to the job's evidence.
func (s *Redis) AddCourtCases(ctx context.Context, jobID id.JobID, cases []models.CourtCase) error {
	return s.updateLive(ctx, jobID, func(job *models.Job) {
		job.Evidence.CourtCases = append(job.Evidence.CourtCases, cases...)
	})
}

// AddSocialProfiles appends profiles to the job's evidence.
func (s *Redis) AddSocialProfiles(ctx context.Context, jobID id.JobID, profiles []models.SocialProfile) error {
	return s.updateLive(ctx, jobID, func(job *models.Job) {
		job.Evidence.SocialProfiles = append(job.Evidence.SocialProfiles, profiles...)
	})
}

// SetRelationshipTimeline replaces the derived timeline view.
func (s *Redis) SetRelationshipTimeline(ctx context.Context, jobID id.JobID, timeline []models.TimelineEvent) error {
	return s.updateLive(ctx, jobID, func(job *models.Job) {
		job.Evidence.RelationshipTimeline = timeline
	})
}

// SetPhotoMatch records the photo matching outcome.
func (s *Redis) SetPhotoMatch(ctx context.Context, jobID id.JobID, match *models.PhotoMatch) error {
	return s.updateLive(ctx, jobID, func(job *models.Job) {
		job.Evidence.PhotoMatch = match
	})
}

// Complete commits the completed state; WATCH guarantees one winner.
func (s *Redis) Complete(ctx context.Context, jobID id.JobID, result *models.SearchResult) (*models.SearchResult, bool, error) {
	var (
		committed *models.SearchResult
		won       bool
	)
	err := s.update(ctx, jobID, func(job *models.Job) error {
		switch job.Status {
		case models.StatusCompleted:
			cached := job.Result.Clone()
			committed = &cached
			return nil
		case models.StatusFailed:
			return sentinel.ErrInvalidState
		}
		stored := result.Clone()
		job.Result = &stored
		job.Status = models.StatusCompleted
		out := stored.Clone()
		committed = &out
		won = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return committed, won, nil
}

// Fail commits the failed state with the first error message.
func (s *Redis) Fail(ctx context.Context, jobID id.JobID, message string) error {
	return s.update(ctx, jobID, func(job *models.Job) error {
		if job.Status.IsTerminal() {
			return sentinel.ErrInvalidState
		}
		job.Status = models.StatusFailed
		job.Error = message
		return nil
	})
}

func (s *Redis) updateLive(ctx context.Context, jobID id.JobID, fn func(*models.Job)) error {
	return s.update(ctx, jobID, func(job *models.Job) error {
		if job.Status.IsTerminal() {
			return sentinel.ErrInvalidState
		}
		fn(job)
		return nil
	})
}

// update runs a read-modify-write cycle under WATCH, retrying when another
// writer touches the key mid-transaction. Domain rejections from fn abort
// without a write and are returned as-is.
func (s *Redis) update(ctx context.Context, jobID id.JobID, fn func(*models.Job) error) error {
	key := jobKey(jobID)

	txn := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return sentinel.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get job: %w", err)
		}
		job, err := decodeJob(data)
		if err != nil {
			return err
		}
		if err := fn(job); err != nil {
			return err
		}
		payload, err := json.Marshal(encodeJob(job))
		if err != nil {
			return fmt.Errorf("encode job: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, redis.KeepTTL)
			return nil
		})
		return err
	}

	var err error
	for range maxTxRetries {
		err = s.watcher.Watch(ctx, txn, key)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return fmt.Errorf("%w: job %s contended beyond %d retries", sentinel.ErrUnavailable, jobID, maxTxRetries)
}
