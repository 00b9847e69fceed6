package app

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/varpulse/config"
	"github.com/guttosm/varpulse/internal/api"
	"github.com/guttosm/varpulse/internal/logger"
	"github.com/guttosm/varpulse/internal/pipeline"
	"github.com/guttosm/varpulse/internal/service"
)

// Run stores for API mode.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// shutdownTimeout bounds how long cleanup waits for an active run to stop.
const shutdownTimeout = 30 * time.Second

// runStore couples a RunStore with its release func.
type runStore struct {
	service.RunStore
	close func() error
}

// runStoreOpener is an indirection used by InitializeApp; overridden in tests to avoid real connections.
var runStoreOpener = openRunStore

func openRunStore(ctx context.Context, cfg config.Config) (runStore, error) {
	switch cfg.Server.RunStore {
	case StoreMemory, "":
		return runStore{RunStore: service.NewMemoryStore(), close: func() error { return nil }}, nil
	case StoreRedis:
		s := service.NewRedisStore(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.RunTTL)
		if err := s.Ping(ctx); err != nil {
			_ = s.Close()
			return runStore{}, fmt.Errorf("ping redis %s: %w", cfg.Redis.Addr, err)
		}
		return runStore{RunStore: s, close: s.Close}, nil
	default:
		return runStore{}, fmt.Errorf("unknown run store %q", cfg.Server.RunStore)
	}
}

// NewRunner returns a service.Runner that applies a run's overrides to cfg
// and executes it with RunGeneration.
func NewRunner(cfg config.Config) service.Runner {
	return func(ctx context.Context, id string, spec service.RunSpec) (pipeline.Summary, error) {
		c := cfg
		c.Generator.TradeCount = spec.TradeCount
		c.Generator.ProductCount = spec.ProductCount
		c.Generator.VectorLength = spec.VectorLength
		c.Output.Mode = spec.Mode
		return RunGeneration(ctx, c, id)
	}
}

// InitializeApp sets up all API mode dependencies and returns
// a fully configured Gin router, a cleanup function for graceful shutdown,
// and any error encountered during initialization.
//
// Responsibilities:
//   - Opens the run store selected by RUN_STORE (memory or redis).
//   - Creates the run service that executes generation runs in the background.
//   - Configures the Gin router with all API routes.
//   - Registers health and readiness probes.
//   - Provides a cleanup function that stops the active run and closes the store.
//
// Returns:
//   - *gin.Engine: the configured Gin HTTP router.
//   - func(): cleanup function to be executed on shutdown.
//   - error: any initialization error that occurred.
func InitializeApp() (*gin.Engine, func(), error) {
	// Load global configuration
	cfg := config.AppConfig

	store, err := runStoreOpener(context.Background(), cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize run store: %w", err)
	}

	// Initialize service layer (run lifecycle)
	svc := service.NewRunService(store, NewRunner(cfg), service.RunSpec{
		TradeCount:   cfg.Generator.TradeCount,
		ProductCount: cfg.Generator.ProductCount,
		VectorLength: cfg.Generator.VectorLength,
		Mode:         cfg.Output.Mode,
	})

	// Initialize HTTP handler layer and router
	router := api.NewRouter(api.NewHandler(svc))

	// Register health and readiness probes
	api.NewHealthHandler(svc.Ping).Register(router)

	// Cleanup resources on shutdown
	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := svc.Shutdown(ctx); err != nil {
			logger.L().Error().Err(err).Msg("active run did not stop in time")
		}
		if err := store.close(); err != nil {
			logger.L().Error().Err(err).Msg("failed to close run store")
		}
	}

	return router, cleanup, nil
}
