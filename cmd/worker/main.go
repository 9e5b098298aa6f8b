package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/medhaven/hospital-api/internal/config"
	"github.com/medhaven/hospital-api/internal/repository/postgres"
	"github.com/medhaven/hospital-api/pkg/logger"
	"github.com/medhaven/hospital-api/pkg/messaging/redis"
	"github.com/medhaven/hospital-api/pkg/metrics"
	"github.com/medhaven/hospital-api/pkg/worker"
)

// Settings tunes the outbox drain; everything has a sane default so the
// worker runs with no environment at all.
type Settings struct {
	BatchSize       int           `envconfig:"WORKER_BATCH_SIZE" default:"100"`
	PollInterval    time.Duration `envconfig:"WORKER_POLL_INTERVAL" default:"5s"`
	RetryAttempts   int           `envconfig:"WORKER_RETRY_ATTEMPTS" default:"3"`
	RetryDelay      time.Duration `envconfig:"WORKER_RETRY_DELAY" default:"1s"`
	RetainFor       time.Duration `envconfig:"WORKER_RETAIN_FOR" default:"168h"`
	HealthPort      int           `envconfig:"WORKER_HEALTH_PORT" default:"8081"`
	RedisPoolSize   int           `envconfig:"WORKER_REDIS_POOL_SIZE" default:"10"`
	RedisMaxRetries int           `envconfig:"WORKER_REDIS_MAX_RETRIES" default:"3"`
}

func setupHealthCheck(port int) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	go func() {
		if err := http.ListenAndServe(fmt.Sprintf(":%d", port), mux); err != nil {
			log.Error().Err(err).Msg("health check server failed")
			os.Exit(1)
		}
	}()
}

func main() {
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	var settings Settings
	if err := envconfig.Process("", &settings); err != nil {
		log.Fatal().Err(err).Msg("failed to process worker settings")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	broker, err := redis.NewRedisBroker(redis.Config{
		URL:          cfg.Redis.URL,
		MaxRetries:   settings.RedisMaxRetries,
		RetryBackoff: 100 * time.Millisecond,
		PoolSize:     settings.RedisPoolSize,
		MinIdleConns: 2,
	}, &log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create redis broker")
	}
	defer broker.Close()

	outboxRepo := postgres.NewOutboxRepository(postgres.NewBaseRepository(db))

	processor := worker.NewOutboxProcessor(
		outboxRepo,
		broker,
		worker.OutboxProcessorConfig{
			BatchSize:     settings.BatchSize,
			PollInterval:  settings.PollInterval,
			RetryAttempts: settings.RetryAttempts,
			RetryDelay:    settings.RetryDelay,
			RetainFor:     settings.RetainFor,
		},
		logger.NewLogger(nil),
		metrics.NewMetrics("hospital_worker"),
	)

	setupHealthCheck(settings.HealthPort)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info().Msg("shutting down")
		cancel()
	}()

	processor.Start(ctx)
}
