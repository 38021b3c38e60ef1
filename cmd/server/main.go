package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pastcheck/internal/connectors/courts"
	"pastcheck/internal/connectors/dating"
	"pastcheck/internal/connectors/matrimony"
	"pastcheck/internal/connectors/photo"
	"pastcheck/internal/connectors/socialmedia"
	"pastcheck/internal/export"
	"pastcheck/internal/platform/config"
	"pastcheck/internal/platform/httpserver"
	"pastcheck/internal/platform/logger"
	"pastcheck/internal/platform/metrics"
	platformredis "pastcheck/internal/platform/redis"
	"pastcheck/internal/search/handler"
	"pastcheck/internal/search/ports"
	"pastcheck/internal/search/progress"
	"pastcheck/internal/search/service"
	"pastcheck/internal/search/store"
	"pastcheck/internal/uploads"
	"pastcheck/internal/workers/stagerunner"
	audit "pastcheck/pkg/platform/audit"
	auditkafka "pastcheck/pkg/platform/audit/kafka"
	"pastcheck/pkg/platform/audit/publisher"
	auditmemory "pastcheck/pkg/platform/audit/store/memory"
	auditpostgres "pastcheck/pkg/platform/audit/store/postgres"
)

// main wires the dependencies and owns the process lifecycle. Business logic
// lives in the internal packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err.Error())
		os.Exit(1)
	}
}

func run(cfg config.Server, log *slog.Logger) error {
	m := metrics.New()

	jobStore, closeStore, err := buildJobStore(cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	auditStore, closeAudit, err := buildAuditStore(cfg, log)
	if err != nil {
		return err
	}
	defer closeAudit()

	auditPublisher := publisher.NewPublisher(auditStore,
		publisher.WithAsyncBuffer(256),
		publisher.WithLogger(log),
	)
	defer auditPublisher.Close()

	uploadStore, err := uploads.New(cfg.UploadDir, cfg.UploadRetention, log)
	if err != nil {
		return err
	}

	tracker := progress.New(jobStore, log)
	runner := stagerunner.New(
		jobStore,
		tracker,
		courts.New(cfg.StagePace),
		[]ports.ProfileSource{
			matrimony.New(cfg.StagePace),
			dating.New(cfg.StagePace),
			socialmedia.New(cfg.StagePace),
		},
		photo.New(uploadStore, cfg.StagePace),
		log,
		stagerunner.WithEventSink(auditPublisher),
	)

	svc, err := service.New(jobStore, runner, export.NewTextRenderer(),
		service.WithLogger(log),
		service.WithMetrics(m),
		service.WithAuditPublisher(auditPublisher),
	)
	if err != nil {
		return err
	}

	janitorCtx, stopJanitor := context.WithCancel(context.Background())
	defer stopJanitor()
	go uploadStore.Janitor(janitorCtx, time.Hour)

	router := chi.NewRouter()
	handler.New(svc, uploadStore, log).Register(router)
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := httpserver.New(cfg.Addr, router)

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting pastcheck server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	// Let in-flight jobs reach a terminal state before the audit pipeline
	// closes underneath them.
	svc.Drain()
	return nil
}

// buildJobStore selects Redis when configured, in-memory otherwise.
func buildJobStore(cfg config.Server, log *slog.Logger) (ports.JobStore, func(), error) {
	if cfg.RedisURL == "" {
		log.Info("using in-memory job store")
		return store.NewInMemory(), func() {}, nil
	}
	client, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	log.Info("using redis job store", "retention", cfg.JobRetention.String())
	return store.NewRedis(client.Client, cfg.JobRetention), func() { _ = client.Close() }, nil
}

// buildAuditStore prefers the Postgres outbox, falls back to the direct Kafka
// sink, then to the in-memory store for local runs.
func buildAuditStore(cfg config.Server, log *slog.Logger) (audit.Store, func(), error) {
	if cfg.PostgresDSN != "" {
		pg, err := auditpostgres.Open(cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		if err := pg.Migrate(context.Background()); err != nil {
			_ = pg.Close()
			return nil, nil, err
		}
		log.Info("audit events go to postgres outbox")
		return pg, func() { _ = pg.Close() }, nil
	}
	if len(cfg.KafkaBrokers) > 0 {
		sink, err := auditkafka.New(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			return nil, nil, err
		}
		log.Info("audit events go to kafka", "topic", cfg.KafkaTopic)
		return sink, sink.Close, nil
	}
	log.Info("audit events kept in memory")
	return auditmemory.NewInMemoryStore(), func() {}, nil
}
