package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"github.com/buildyoursite/buildyoursite-engine/pkg/config"
	"github.com/buildyoursite/buildyoursite-engine/pkg/database"
	"github.com/buildyoursite/buildyoursite-engine/pkg/handlers"
	"github.com/buildyoursite/buildyoursite-engine/pkg/instrumentation"
	"github.com/buildyoursite/buildyoursite-engine/pkg/llm"
	"github.com/buildyoursite/buildyoursite-engine/pkg/logging"
	"github.com/buildyoursite/buildyoursite-engine/pkg/mcp"
	"github.com/buildyoursite/buildyoursite-engine/pkg/middleware"
	"github.com/buildyoursite/buildyoursite-engine/pkg/repositories"
	"github.com/buildyoursite/buildyoursite-engine/pkg/repositories/memory"
	"github.com/buildyoursite/buildyoursite-engine/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		zap.NewExample().Fatal("Failed to load config", zap.Error(err))
	}

	logger := newLogger(cfg)
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("base_url", cfg.BaseURL),
		zap.String("storage", cfg.Storage.Driver),
		zap.String("redis", cfg.Redis.Host),
		zap.String("llm_provider", cfg.LLM.Provider),
		zap.Bool("llm_available", cfg.LLM.IsAvailable()),
		zap.Bool("mcp_enabled", cfg.MCP.Enabled))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

func newLogger(cfg *config.Config) *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)
	if cfg.IsProduction() {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		return zap.NewExample()
	}
	return logger
}

// repositorySet is the storage chosen by configuration plus the request scope
// middleware that goes with it.
type repositorySet struct {
	Projects     repositories.ProjectRepository
	Generations  repositories.GenerationRepository
	Edits        repositories.EditRepository
	Feedback     repositories.FeedbackRepository
	UsageMetrics repositories.UsageMetricRepository

	scope   handlers.ScopeMiddleware
	cleanup func()
}

func openStorage(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*repositorySet, error) {
	if cfg.Storage.Driver == config.StorageDriverMemory {
		logger.Warn("Using in-memory storage; events are lost on restart")
		repos := memory.NewStore().Repositories()
		return &repositorySet{
			Projects:     repos.Projects,
			Generations:  repos.Generations,
			Edits:        repos.Edits,
			Feedback:     repos.Feedback,
			UsageMetrics: repos.UsageMetrics,
			scope:        func(h http.HandlerFunc) http.HandlerFunc { return h },
			cleanup:      func() {},
		}, nil
	}

	logger.Info("Connecting to database",
		zap.String("url", logging.SanitizeConnectionString(cfg.Database.URL())))
	db, err := database.NewConnection(ctx, &database.Config{
		URL:            cfg.Database.URL(),
		MaxConnections: cfg.Database.MaxConnections,
	}, logger)
	if err != nil {
		return nil, err
	}

	sqlDB := stdlib.OpenDBFromPool(db.Pool)
	migrateErr := database.RunMigrations(sqlDB, logger)
	_ = sqlDB.Close()
	if migrateErr != nil {
		db.Close()
		return nil, migrateErr
	}

	return &repositorySet{
		Projects:     repositories.NewProjectRepository(db),
		Generations:  repositories.NewGenerationRepository(db),
		Edits:        repositories.NewEditRepository(db),
		Feedback:     repositories.NewFeedbackRepository(db),
		UsageMetrics: repositories.NewUsageMetricRepository(db),
		scope:        database.WithScope(db, logger),
		cleanup:      db.Close,
	}, nil
}

// openDayLocker returns a Redis lock shared across instances, or a
// process-local lock when Redis is not configured.
func openDayLocker(ctx context.Context, cfg *config.Config, logger *zap.Logger) (database.DayLocker, func(), error) {
	client, err := database.NewRedisClient(ctx, &cfg.Redis)
	if err != nil {
		return nil, nil, err
	}
	if client == nil {
		logger.Info("Redis not configured; daily rollups are serialized in this process only")
		return database.NewLocalDayLocker(), func() {}, nil
	}
	locker := database.NewRedisDayLocker(client, cfg.Analytics.RollupLockTTL, nil, logger)
	return locker, func() { _ = client.Close() }, nil
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	storage, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer storage.cleanup()

	locker, closeLocker, err := openDayLocker(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeLocker()

	metrics := instrumentation.New()

	usage := services.NewUsageAnalytics(services.UsageAnalyticsDeps{
		Projects:     storage.Projects,
		Generations:  storage.Generations,
		Edits:        storage.Edits,
		Feedback:     storage.Feedback,
		UsageMetrics: storage.UsageMetrics,
		Locker:       locker,
		Metrics:      metrics,
		Config:       cfg.Analytics,
	}, logger)
	projectService := services.NewProjectService(storage.Projects, storage.Generations, storage.Edits, storage.Feedback, logger)
	promptLogger := services.NewPromptLogger(storage.Projects, storage.Generations, metrics, logger)
	editTracker := services.NewEditTracker(storage.Projects, storage.Generations, storage.Edits, metrics, logger)
	feedbackCollector := services.NewFeedbackCollector(storage.Projects, storage.Feedback, metrics, logger)

	var generation services.GenerationService
	if cfg.LLM.IsAvailable() {
		gen, err := llm.NewGenerator(&cfg.LLM, logger)
		if err != nil {
			return err
		}
		breaker := llm.NewCircuitBreaker(gen, llm.DefaultCircuitBreakerConfig())
		generation = services.NewGenerationService(storage.Projects, breaker, promptLogger, &cfg.LLM, metrics, logger)
	} else {
		logger.Warn("LLM not configured; website generation endpoints return 503")
	}

	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	mux.Handle("GET /metrics", metrics.Handler())

	handlers.NewProjectsHandler(projectService, usage, logger).RegisterRoutes(mux, storage.scope)
	handlers.NewGenerationsHandler(promptLogger, logger).RegisterRoutes(mux, storage.scope)
	handlers.NewEditsHandler(editTracker, logger).RegisterRoutes(mux, storage.scope)
	handlers.NewFeedbackHandler(feedbackCollector, usage, logger).RegisterRoutes(mux, storage.scope)
	handlers.NewAnalyticsHandler(usage, logger).RegisterRoutes(mux, storage.scope)
	handlers.NewGenerateHandler(generation, logger).RegisterRoutes(mux)

	if cfg.MCP.Enabled {
		mcpServer := mcp.NewServer("buildyoursite-engine", cfg.Version, metrics, logger)
		mcpServer.RegisterAnalyticsTools(usage, cfg.LLM.IsAvailable())
		handlers.NewMCPHandler(mcpServer, logger).RegisterRoutes(mux)
	}

	srv := &http.Server{
		Addr:              cfg.BindAddr + ":" + cfg.Port,
		Handler:           middleware.RequestLogger(logger)(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting buildyoursite-engine",
			zap.String("addr", srv.Addr),
			zap.String("version", cfg.Version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
