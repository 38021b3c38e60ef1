package config

import (
	"os"
	"strings"
	"time"
)

// Server captures process-level configuration.
type Server struct {
	Addr string

	// RedisURL selects the Redis-backed job store when set; the in-memory
	// store is used otherwise.
	RedisURL string

	// PostgresDSN enables the Postgres audit outbox when set.
	PostgresDSN string

	// KafkaBrokers enables the Kafka audit publisher when non-empty.
	KafkaBrokers []string
	KafkaTopic   string

	// JobRetention bounds how long finished jobs and their results are kept.
	JobRetention time.Duration

	// UploadDir and UploadRetention govern submitted photos. Uploaded images
	// are deleted after UploadRetention regardless of job outcome.
	UploadDir       string
	UploadRetention time.Duration

	// StagePace throttles simulated connectors so progress is observable;
	// set to 0 in tests.
	StagePace time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	cfg := Server{
		Addr:            envOr("PASTCHECK_ADDR", ":8080"),
		RedisURL:        os.Getenv("PASTCHECK_REDIS_URL"),
		PostgresDSN:     os.Getenv("PASTCHECK_POSTGRES_DSN"),
		KafkaTopic:      envOr("PASTCHECK_KAFKA_TOPIC", "pastcheck.audit"),
		JobRetention:    durationOr("PASTCHECK_JOB_RETENTION", 7*24*time.Hour),
		UploadDir:       envOr("PASTCHECK_UPLOAD_DIR", "/var/lib/pastcheck/uploads"),
		UploadRetention: durationOr("PASTCHECK_UPLOAD_RETENTION", 7*24*time.Hour),
		StagePace:       durationOr("PASTCHECK_STAGE_PACE", 150*time.Millisecond),
	}
	if brokers := os.Getenv("PASTCHECK_KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
