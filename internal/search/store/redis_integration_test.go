//go:build integration

package store_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"pastcheck/internal/search/models"
	"pastcheck/internal/search/store"
	id "pastcheck/pkg/domain"
	"pastcheck/pkg/platform/sentinel"
	"pastcheck/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *store.Redis
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.store = store.NewRedis(s.redis.Client, time.Hour)
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisStoreSuite) newJob() *models.Job {
	req, err := models.NewSearchRequest("Divya Patel", "1991-07-24", "Gujarat", "divya@example.com", "")
	s.Require().NoError(err)
	job := models.NewJob(id.NewJobID(), req, time.Now().UTC().Truncate(time.Second))
	s.Require().NoError(s.store.Create(context.Background(), job))
	return job
}

func (s *RedisStoreSuite) TestRoundtrip() {
	ctx := context.Background()
	job := s.newJob()

	got, err := s.store.Get(ctx, job.ID)
	s.Require().NoError(err)
	s.Equal(job.ID, got.ID)
	s.Equal(models.StatusProcessing, got.Status)
	s.Equal("Divya Patel", got.Request.Name)
	s.Require().NotNil(got.Request.State)
	s.Equal("Gujarat", got.Request.State.String())
	for _, stage := range models.Stages() {
		s.Equal(0, got.StageProgress[stage])
	}
}

func (s *RedisStoreSuite) TestCreateConflict() {
	job := s.newJob()
	s.ErrorIs(s.store.Create(context.Background(), job), sentinel.ErrConflict)
}

func (s *RedisStoreSuite) TestGetMissing() {
	_, err := s.store.Get(context.Background(), id.NewJobID())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisStoreSuite) TestStageMonotonic() {
	ctx := context.Background()
	job := s.newJob()

	stored, err := s.store.UpdateStage(ctx, job.ID, models.StageCourtRecords, 60)
	s.Require().NoError(err)
	s.Equal(60, stored)

	stored, err = s.store.UpdateStage(ctx, job.ID, models.StageCourtRecords, 20)
	s.Require().NoError(err)
	s.Equal(60, stored, "regression must be ignored")

	stored, err = s.store.UpdateStage(ctx, job.ID, models.StageCourtRecords, 400)
	s.Require().NoError(err)
	s.Equal(100, stored, "values clamp to 100")
}

func (s *RedisStoreSuite) TestEvidenceAccumulates() {
	ctx := context.Background()
	job := s.newJob()

	err := s.store.AddCourtCases(ctx, job.ID, []models.CourtCase{{CaseNumber: "CC/11/2024", SeverityScore: 4}})
	s.Require().NoError(err)
	err = s.store.AddSocialProfiles(ctx, job.ID, []models.SocialProfile{{Platform: "Shaadi", ProfileURL: "https://shaadi.com/p/x"}})
	s.Require().NoError(err)
	err = s.store.SetPhotoMatch(ctx, job.ID, &models.PhotoMatch{Matched: true, FaceCount: 1})
	s.Require().NoError(err)

	got, err := s.store.Get(ctx, job.ID)
	s.Require().NoError(err)
	s.Len(got.Evidence.CourtCases, 1)
	s.Len(got.Evidence.SocialProfiles, 1)
	s.Require().NotNil(got.Evidence.PhotoMatch)
	s.True(got.Evidence.PhotoMatch.Matched)
}

func (s *RedisStoreSuite) TestCompleteSingleWinner() {
	ctx := context.Background()
	job := s.newJob()
	result := &models.SearchResult{
		Subject:     models.Subject{Name: job.Request.Name},
		GeneratedAt: time.Now().UTC().Truncate(time.Second),
	}

	const racers = 10
	var wg sync.WaitGroup
	wins := make(chan bool, racers)
	wg.Add(racers)
	for i := 0; i < racers; i++ {
		go func() {
			defer wg.Done()
			committed, won, err := s.store.Complete(ctx, job.ID, result)
			s.NoError(err)
			s.NotNil(committed)
			wins <- won
		}()
	}
	wg.Wait()
	close(wins)

	winners := 0
	for won := range wins {
		if won {
			winners++
		}
	}
	s.Equal(1, winners)

	got, err := s.store.Get(ctx, job.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusCompleted, got.Status)
	s.Require().NotNil(got.Result)
}

func (s *RedisStoreSuite) TestFailThenComplete() {
	ctx := context.Background()
	job := s.newJob()

	s.Require().NoError(s.store.Fail(ctx, job.ID, "social connector unreachable"))
	s.ErrorIs(s.store.Fail(ctx, job.ID, "second"), sentinel.ErrInvalidState)

	_, _, err := s.store.Complete(ctx, job.ID, &models.SearchResult{})
	s.ErrorIs(err, sentinel.ErrInvalidState)

	got, err := s.store.Get(ctx, job.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusFailed, got.Status)
	s.Equal("social connector unreachable", got.Error)
}

func (s *RedisStoreSuite) TestRetentionTTLSet() {
	ctx := context.Background()
	job := s.newJob()

	ttl, err := s.redis.Client.TTL(ctx, "pastcheck:job:"+job.ID.String()).Result()
	s.Require().NoError(err)
	s.Greater(ttl, time.Duration(0), "job keys must expire with the retention policy")

	// Mutation keeps the TTL rather than resetting or clearing it.
	_, err = s.store.UpdateStage(ctx, job.ID, models.StageCourtRecords, 50)
	s.Require().NoError(err)
	ttl, err = s.redis.Client.TTL(ctx, "pastcheck:job:"+job.ID.String()).Result()
	s.Require().NoError(err)
	s.Greater(ttl, time.Duration(0))
}
