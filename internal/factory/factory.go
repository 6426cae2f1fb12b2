package factory

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"honeydash/internal/client"
	"honeydash/internal/config"
	"honeydash/internal/handler"
	"honeydash/internal/metrics"
	"honeydash/internal/repository/eventstore"
	"honeydash/internal/repository/redis"
	"honeydash/internal/service"
	"honeydash/internal/tls"
	"honeydash/internal/util"
)

// Factory manages the lifecycle of all application dependencies
type Factory struct {
	config     *config.Config
	logger     *zap.Logger
	tlsManager *tls.TLSManager
	metrics    *metrics.Metrics

	// Clients
	storeDB     *sql.DB
	redisClient *client.RedisClient

	// Repositories
	store          *eventstore.Store
	repository     eventstore.Repository
	serviceFactory *service.ServiceFactory

	closeOnce sync.Once
	closed    chan struct{}
}

// NewFactory loads configuration, initializes logging and opens every client.
func NewFactory() (*Factory, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	util.Init(cfg.Environment, cfg.Logging.Level, cfg.Logging.Format)

	return NewFactoryWithConfig(cfg, util.Get())
}

// NewFactoryWithConfig builds the dependency graph from an already loaded
// config.
func NewFactoryWithConfig(cfg *config.Config, logger *zap.Logger) (*Factory, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	factory := &Factory{
		config:  cfg,
		logger:  logger,
		metrics: metrics.New(),
		closed:  make(chan struct{}),
	}

	if cfg.Server.EnableTLS {
		factory.tlsManager = tls.NewTLSManager(cfg)
	}

	if err := factory.initializeClients(); err != nil {
		factory.Close()
		return nil, fmt.Errorf("failed to initialize clients: %w", err)
	}

	if err := factory.initializeRepositories(); err != nil {
		factory.Close()
		return nil, err
	}

	logger.Info("Factory initialized successfully",
		util.String("environment", cfg.Environment),
		util.String("store_driver", cfg.Database.Driver),
		util.Bool("tls_enabled", cfg.Server.EnableTLS),
		util.Bool("cache_enabled", factory.redisClient != nil),
	)

	return factory, nil
}

// initializeClients opens the event store and, when configured, Redis. The
// store is required; a Redis failure only disables the cache outside
// production.
func (f *Factory) initializeClients() error {
	db, err := client.NewStoreDB(f.config)
	if err != nil {
		return fmt.Errorf("event store: %w", err)
	}
	f.storeDB = db

	if f.config.Redis.URL == "" {
		f.logger.Info("Redis not configured, query cache disabled")
		return nil
	}

	redisClient, err := client.NewRedisClient(f.config)
	if err != nil {
		if f.config.IsProduction() {
			return fmt.Errorf("redis: %w", err)
		}
		f.logger.Warn("Redis initialization failed - proceeding without query cache", util.ErrorField(err))
		return nil
	}
	f.redisClient = redisClient
	return nil
}

func (f *Factory) initializeRepositories() error {
	dialect, err := eventstore.DialectFor(f.config.Database.Driver)
	if err != nil {
		return err
	}

	f.store = eventstore.New(f.storeDB, dialect,
		eventstore.WithLocation(f.config.StoreLocation()),
		eventstore.WithMetrics(f.metrics),
	)
	f.repository = f.store

	if f.redisClient != nil {
		f.repository = redis.NewQueryCache(
			f.store,
			f.redisClient,
			redis.NewKeyer(dialect.Name),
			f.config.Redis.CacheTTL,
			f.metrics,
		)
	}

	f.logger.Info("Repositories initialized",
		util.String("dialect", dialect.Name),
		util.String("store_timezone", f.config.Database.StoreTimezone),
		util.Duration("cache_ttl", f.config.Redis.CacheTTL),
	)
	return nil
}

// ==============================
// Service Factory
// ==============================
func (f *Factory) ServiceFactory() *service.ServiceFactory {
	if f.serviceFactory == nil {
		f.serviceFactory = service.NewServiceFactory(
			f.repository,
			f.config.DisplayLocation(),
			f.config.Dashboard.DetailTimeUnits,
			f.logger,
		)
	}
	return f.serviceFactory
}

// Router wires the dashboard handler into the chi router.
func (f *Factory) Router() http.Handler {
	dashboardService := f.ServiceFactory().DashboardService()

	checks := map[string]handler.HealthChecker{"store": f.store}
	if f.redisClient != nil {
		checks["redis"] = f.redisClient
	}

	dashboardHandler := handler.NewDashboardHandler(
		dashboardService,
		handler.DashboardDefaults{
			RollupLimit: f.config.Dashboard.RollupLimit,
			TrendHours:  f.config.Dashboard.TrendHours,
		},
		checks,
		f.logger,
	)

	return handler.NewRouter(dashboardHandler, f.metrics, handler.RouterOptions{
		RequireTLS:     f.config.Server.EnableTLS && f.config.IsProduction(),
		StaticDir:      f.config.Dashboard.StaticDir,
		RequestTimeout: f.config.Server.WriteTimeout,
	}, f.logger)
}

// ==============================
// Health Checks
// ==============================

func (f *Factory) HealthCheck(ctx context.Context) map[string]error {
	healthErrors := make(map[string]error)

	if f.store != nil {
		if err := f.store.HealthCheck(ctx); err != nil {
			healthErrors["store"] = err
		}
	} else {
		healthErrors["store"] = fmt.Errorf("event store not initialized")
	}

	if f.redisClient != nil {
		if err := f.redisClient.HealthCheck(ctx); err != nil {
			healthErrors["redis"] = err
		}
	}

	return healthErrors
}

func (f *Factory) IsHealthy(ctx context.Context) bool {
	return len(f.HealthCheck(ctx)) == 0
}

func (f *Factory) Close() error {
	f.closeOnce.Do(func() {
		close(f.closed)
		f.logger.Info("Shutting down factory...")

		if f.redisClient != nil {
			if err := f.redisClient.Close(); err != nil {
				f.logger.Error("Failed to close Redis client", util.ErrorField(err))
			}
		}

		if f.storeDB != nil {
			if err := f.storeDB.Close(); err != nil {
				f.logger.Error("Failed to close event store", util.ErrorField(err))
			} else {
				f.logger.Info("Event store closed")
			}
		}

		f.logger.Info("Factory shutdown completed")
		_ = f.logger.Sync()
	})

	return nil
}

func (f *Factory) WaitForClose() {
	<-f.closed
}

func (f *Factory) Config() *config.Config {
	return f.config
}

func (f *Factory) TLSManager() *tls.TLSManager {
	return f.tlsManager
}

func (f *Factory) Metrics() *metrics.Metrics {
	return f.metrics
}

// StartupTimeout bounds how long main waits for the first health check.
const StartupTimeout = 10 * time.Second
