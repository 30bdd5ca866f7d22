package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"unichance/internal/api"
	"unichance/internal/common/aws"
	"unichance/internal/common/camunda"
	"unichance/internal/common/config"
	"unichance/internal/common/database"
	"unichance/internal/common/logger"
	"unichance/internal/common/observability"
	"unichance/internal/ratelimit"
	"unichance/internal/repository"
	"unichance/internal/scoring"

	sac "unichance/internal/workers/admission/score-admission-chance"
	ssr "unichance/internal/workers/admission/send-score-report"
	ss "unichance/internal/workers/admission/smart-search"
	qe "unichance/internal/workers/data-access/query-elasticsearch"
	"unichance/internal/workers/data-access/query-elasticsearch/queries"
	qp "unichance/internal/workers/data-access/query-postgresql"
)

// retryWithBackoff runs operation until it succeeds, doubling the delay after each failure.
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.NewWithOptions(logger.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...",
		zap.String("app", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs, err := observability.New(cfg.App.Name, prometheus.DefaultRegisterer)
	if err != nil {
		zapLog.Fatal("observability init failed", zap.Error(err))
	}

	ctx := context.Background()

	// --- Zeebe ---
	var zeebe *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebe, err = camunda.NewClientWithConfig(camunda.ConfigFrom(cfg.Camunda))
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully", zap.String("gateway", cfg.Camunda.BrokerAddress))

	// --- PostgreSQL ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	prometheus.MustRegister(pg.StatsCollector())
	zapLog.Info("PostgreSQL connected successfully")

	// --- Redis ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Elasticsearch (optional) ---
	var es *database.ElasticsearchClient
	if cfg.Database.Elasticsearch.Enabled {
		err = retryWithBackoff(func() error {
			var err error
			es, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return es.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		zapLog.Info("Elasticsearch connected successfully")

		if cfg.Search.EnsureIndex {
			created, err := es.EnsureIndex(ctx, cfg.Search.ProgramsIndex, queries.ProgramsMapping)
			if err != nil {
				zapLog.Fatal("ensure programs index failed", zap.Error(err), zap.String("index", cfg.Search.ProgramsIndex))
			}
			if created {
				zapLog.Info("Programs index created", zap.String("index", cfg.Search.ProgramsIndex))
			}
		}
	}

	// --- Scoring engine and data access ---
	scoringOpts, err := cfg.Scoring.Options()
	if err != nil {
		zapLog.Fatal("invalid scoring config", zap.Error(err))
	}
	scorer, err := scoring.NewScorer(scoringOpts)
	if err != nil {
		zapLog.Fatal("scorer init failed", zap.Error(err))
	}

	store := repository.NewStore(pg.DB, cfg.Scoring.StatsWindowYears)
	cached := repository.NewCachedStore(store, redis,
		config.Seconds(cfg.Cache.ProfileTTL),
		config.Seconds(cfg.Cache.RequirementsTTL),
		log,
	)

	// --- Notification channels ---
	var (
		emailSender ssr.EmailSender
		smsSender   ssr.SMSSender
	)
	if cfg.Notifications.Email.Enabled || cfg.Notifications.SMS.Enabled {
		awsCfg, err := aws.LoadConfig(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Fatal("aws config load failed", zap.Error(err))
		}
		if cfg.Notifications.Email.Enabled {
			emailSender = aws.NewSESClient(awsCfg, cfg.Notifications.Email.FromEmail)
		}
		if cfg.Notifications.SMS.Enabled {
			smsSender = aws.NewSNSClient(awsCfg, cfg.Notifications.SMS.SenderID)
		}
		zapLog.Info("AWS notification clients initialized",
			zap.Bool("email", emailSender != nil),
			zap.Bool("sms", smsSender != nil),
		)
	}

	// --- Workers ---
	pool := camunda.NewPool(zeebe, log)
	register := func(taskType string, handler camunda.JobHandler) {
		if !config.IsWorkerEnabled(cfg, taskType) {
			zapLog.Info("worker disabled", zap.String("taskType", taskType))
			return
		}
		wcfg := config.GetWorkerConfig(cfg, taskType)
		pool.Start(camunda.Registration{
			TaskType:      taskType,
			MaxJobsActive: wcfg.MaxJobsActive,
			Timeout:       config.GetDuration(wcfg.Timeout),
			Handler:       handler,
		})
	}
	workerTimeout := func(taskType string) time.Duration {
		return config.GetDuration(config.GetWorkerConfig(cfg, taskType).Timeout)
	}

	scoreHandler := sac.NewHandler(
		&sac.Config{Timeout: workerTimeout(sac.TaskType)},
		cached, scorer, obs, log,
	)
	register(sac.TaskType, scoreHandler)

	searchHandler, err := ss.NewHandler(
		&ss.Config{Timeout: workerTimeout(ss.TaskType)},
		store, cached, scorer, obs, log,
	)
	if err != nil {
		zapLog.Fatal("smart search handler init failed", zap.Error(err))
	}
	register(ss.TaskType, searchHandler)

	register(ssr.TaskType, ssr.NewHandler(
		&ssr.Config{
			EmailEnabled: cfg.Notifications.Email.Enabled,
			SMSEnabled:   cfg.Notifications.SMS.Enabled,
			Timeout:      workerTimeout(ssr.TaskType),
		},
		store, emailSender, smsSender, obs, log,
	))

	register(qp.TaskType, qp.NewHandler(
		&qp.Config{Timeout: workerTimeout(qp.TaskType)},
		store, obs, log,
	))

	if es != nil {
		register(qe.TaskType, qe.NewHandler(
			&qe.Config{
				Timeout:       workerTimeout(qe.TaskType),
				ProgramsIndex: cfg.Search.ProgramsIndex,
			},
			es.Client, obs, log,
		))
	} else {
		zapLog.Info("elasticsearch disabled, skipping worker", zap.String("taskType", qe.TaskType))
	}

	zapLog.Info("Workers registered", zap.Strings("taskTypes", pool.TaskTypes()))

	// --- HTTP API ---
	var limiterStore ratelimit.Store
	switch cfg.RateLimit.Backend {
	case "redis":
		limiterStore = ratelimit.NewRedisStore(redis.Client, "ratelimit:")
	default:
		limiterStore = ratelimit.NewMemoryStore()
	}
	searchLimiter := ratelimit.SearchLimit(limiterStore)
	searchLimiter.Limit = cfg.RateLimit.Search.Limit
	searchLimiter.Window = config.Seconds(cfg.RateLimit.Search.Window)

	readiness := map[string]api.ReadinessCheck{
		"postgres": pg.Ping,
		"redis":    redis.Ping,
		"zeebe":    zeebe.HealthCheck,
	}
	if es != nil {
		readiness["elasticsearch"] = es.Ping
	}

	server := api.New(api.Options{
		Addr:          cfg.Server.Addr(),
		ReadTimeout:   config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout:  config.GetDuration(cfg.Server.WriteTimeout),
		CORSOrigins:   cfg.Server.CORSOrigins,
		Version:       cfg.App.Version,
		Scorer:        scoreHandler,
		Searcher:      searchHandler,
		SearchLimiter: searchLimiter,
		Readiness:     readiness,
		Logger:        log,
	})

	go func() {
		if err := server.Start(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			zapLog.Error("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down HTTP server", zap.Error(err))
	}

	pool.Stop()

	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}
	if err := obs.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down observability", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}
