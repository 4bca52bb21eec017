// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/joho/godotenv"

	"ai-document-translator/internal/application"
	"ai-document-translator/internal/config"
	"ai-document-translator/internal/domain/model"
	"ai-document-translator/internal/infra/api"
	"ai-document-translator/internal/infra/api/apiv1"
	pg "ai-document-translator/internal/infra/db/postgres"
	"ai-document-translator/internal/infra/logging"
	"ai-document-translator/internal/infra/metrics"
	red "ai-document-translator/internal/infra/redis"
	"ai-document-translator/internal/infra/sched"
	"ai-document-translator/internal/infra/worker"
	"ai-document-translator/internal/usecase"
)

// Set with -ldflags "-X main.version=... -X main.commit=...".
var (
	version = "dev"
	commit  = ""
)

const (
	lockAttempts    = 3
	poolStatsPeriod = 15 * time.Second
	shutdownTimeout = 20 * time.Second
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs)")
	flag.Parse()

	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	// ---- Postgres ----
	pool, err := pg.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()
	go pg.ReportPoolStats(ctx, pool, poolStatsPeriod, logger)

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	defer redisClient.Close()
	locker := red.NewLocker(redisClient, lockAttempts)
	limiter := red.NewRateLimiter(redisClient)

	// ---- Repositories ----
	tm := pg.NewTxManager(pool)
	jobRepo := pg.NewPostgresTranslationJobRepo(pool)
	chatRepo := pg.NewPostgresDocumentChatRepo(pool)
	langRepo := pg.NewLanguageRepoCacheDecorator(pg.NewPostgresLanguageRepo(pool), redisClient, cfg.Redis.TTL, logger)

	// ---- Pipeline ----
	pipeline, err := application.NewPipeline(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("pipeline")
	}

	workers := worker.NewPool(cfg.Jobs.Workers, cfg.Jobs.QueueSize, logger)
	workers.Start(ctx)

	// ---- Use cases ----
	langUC := usecase.NewLanguageUseCase(langRepo, logger)
	jobUC := usecase.NewJobUseCase(jobRepo, tm, cfg.Jobs.TTL, logger)
	chatUC := usecase.NewDocumentChatUseCase(chatRepo, tm, pipeline.Factory, logger)
	suggestUC := usecase.NewSuggestionUseCase(pipeline.AI, pipeline.Prompts, langUC, chatUC, model.AIModel(cfg.AI.SuggestionModel), logger)
	translateUC := usecase.NewTranslationUseCase(usecase.TranslationDeps{
		Factory:     pipeline.Factory,
		AI:          pipeline.AI,
		Prompts:     pipeline.Prompts,
		Verifier:    pipeline.Verifier,
		Suggestions: suggestUC,
		Jobs:        jobUC,
		Chats:       chatUC,
		Languages:   langUC,
		Queue:       workers,
		Logger:      logger,
	}, application.TranslationOptions(cfg.Translation))

	// ---- Schedulers ----
	jobSweep := sched.NewJobSweeper(jobUC, logger).Schedule(cfg.Jobs.SweepInterval, cfg.Jobs.SweepRetryDelay, locker, logger)
	chatSweep := sched.NewChatRetention(chatUC, cfg.Chats.RetentionDays, logger).Schedule(cfg.Chats.SweepInterval, locker, logger)
	jobSweep.Start(ctx)
	chatSweep.Start(ctx)

	// ---- HTTP ----
	v1 := apiv1.NewServer(apiv1.Deps{
		Translations: translateUC,
		Jobs:         jobUC,
		Chats:        chatUC,
		Suggestions:  suggestUC,
		Languages:    langUC,
		Limiter:      limiter,
	}, apiv1.Options{
		UploadRateLimit: cfg.HTTP.UploadRateLimit,
		MaxUploadBytes:  int64(cfg.Translation.MaxUploadMB) << 20,
	}, logger)
	auth := api.NewAuthManager(cfg.HTTP.JWTSecret, cfg.HTTP.CookieName, 0)
	srv := api.NewServer(cfg.HTTP, v1, auth, healthCheck(pool, redisClient), logger)

	go func() {
		if err := srv.Start(); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
			cancel()
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigc:
	case <-ctx.Done():
	}
	logger.Info().Msg("shutdown requested")

	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("http shutdown")
	}
	jobSweep.Stop()
	chatSweep.Stop()
	cancel()
	workers.Stop()
}

func healthCheck(pool *pgxpool.Pool, rc red.RedisClient) api.HealthCheck {
	return func(ctx context.Context) error {
		if err := pool.Ping(ctx); err != nil {
			return err
		}
		return rc.Ping(ctx)
	}
}
