package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	httpapi "github.com/explore-with-me/ewm-service/internal/api/http"
	"github.com/explore-with-me/ewm-service/internal/application/audit"
	"github.com/explore-with-me/ewm-service/internal/application/capacity"
	"github.com/explore-with-me/ewm-service/internal/application/category"
	"github.com/explore-with-me/ewm-service/internal/application/compilation"
	"github.com/explore-with-me/ewm-service/internal/application/event"
	"github.com/explore-with-me/ewm-service/internal/application/participation"
	"github.com/explore-with-me/ewm-service/internal/application/rating"
	"github.com/explore-with-me/ewm-service/internal/application/user"
	"github.com/explore-with-me/ewm-service/internal/config"
	domainAudit "github.com/explore-with-me/ewm-service/internal/domain/audit"
	domainCategory "github.com/explore-with-me/ewm-service/internal/domain/category"
	domainCompilation "github.com/explore-with-me/ewm-service/internal/domain/compilation"
	domainEvent "github.com/explore-with-me/ewm-service/internal/domain/event"
	domainRating "github.com/explore-with-me/ewm-service/internal/domain/rating"
	domainRequest "github.com/explore-with-me/ewm-service/internal/domain/request"
	domainUser "github.com/explore-with-me/ewm-service/internal/domain/user"
	"github.com/explore-with-me/ewm-service/internal/infrastructure/memory"
	"github.com/explore-with-me/ewm-service/internal/infrastructure/postgres"
	"github.com/explore-with-me/ewm-service/internal/infrastructure/sse"
	"github.com/explore-with-me/ewm-service/internal/infrastructure/stats"
)

// repositories is the storage backend selected by STORAGE.
type repositories struct {
	events       domainEvent.Repository
	requests     domainRequest.Repository
	users        domainUser.Repository
	categories   domainCategory.Repository
	ratings      domainRating.Repository
	compilations domainCompilation.Repository
	audit        domainAudit.Repository
	locker       domainEvent.Locker
	close        func()
}

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("app", "ewm-service").Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("config error")
	}
	zerolog.SetGlobalLevel(cfg.LogLevel)

	ctx := context.Background()
	repos, err := openStorage(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("storage", cfg.Storage).Msg("storage error")
	}
	defer repos.close()

	// infrastructure
	sseHub := sse.NewHub()
	statsClient := stats.NewClient(cfg.StatsServerURL, cfg.StatsTimeout, logger)
	if len(cfg.AuditSigningKey) == 0 {
		logger.Warn().Msg("AUDIT_SIGNING_KEY is not set, audit entries are stored unsigned")
	}

	// services
	auditSvc := audit.NewService(repos.audit, logger, cfg.AuditSigningKey)
	ledger := capacity.NewLedger(repos.requests)
	eventSvc := event.NewService(repos.events, repos.users, repos.categories, repos.locker, ledger, statsClient, auditSvc, sseHub, logger)
	participationSvc := participation.NewService(repos.events, repos.requests, repos.users, repos.locker, ledger, auditSvc, sseHub, logger)
	userSvc := user.NewService(repos.users, auditSvc, logger)
	categorySvc := category.NewService(repos.categories, auditSvc, logger)
	ratingSvc := rating.NewService(repos.ratings, repos.events, repos.users, auditSvc, logger)
	compilationSvc := compilation.NewService(repos.compilations, eventSvc, auditSvc, logger)

	// API server
	apiServer := httpapi.NewServer(eventSvc, participationSvc, userSvc, categorySvc, ratingSvc, compilationSvc, auditSvc, sseHub, statsClient, logger)

	httpServer := &http.Server{
		Addr:        cfg.ServerAddr,
		Handler:     apiServer.Router(),
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	// start server
	go func() {
		logger.Info().Str("addr", cfg.ServerAddr).Str("storage", cfg.Storage).Msg("http server started")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	// graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down")
	sseHub.Stop()
	ctxShutdown, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(ctxShutdown); err != nil {
		logger.Error().Err(err).Msg("http server shutdown failed")
	}
}

func openStorage(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*repositories, error) {
	if cfg.Storage == config.StorageMemory {
		store := memory.NewStore()
		return &repositories{
			events:       memory.NewEventRepository(store),
			requests:     memory.NewRequestRepository(store),
			users:        memory.NewUserRepository(store),
			categories:   memory.NewCategoryRepository(store),
			ratings:      memory.NewRatingRepository(store),
			compilations: memory.NewCompilationRepository(store),
			audit:        memory.NewAuditRepository(store),
			locker:       memory.NewLocker(store),
			close:        func() {},
		}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	if cfg.MigrateOnStart {
		if err := postgres.RunMigrations(cfg.DatabaseURL, logger); err != nil {
			pool.Close()
			return nil, err
		}
	}
	return &repositories{
		events:       postgres.NewEventRepository(pool),
		requests:     postgres.NewRequestRepository(pool),
		users:        postgres.NewUserRepository(pool),
		categories:   postgres.NewCategoryRepository(pool),
		ratings:      postgres.NewRatingRepository(pool),
		compilations: postgres.NewCompilationRepository(pool),
		audit:        postgres.NewAuditRepository(pool),
		locker:       postgres.NewEventLocker(pool, logger),
		close:        pool.Close,
	}, nil
}
