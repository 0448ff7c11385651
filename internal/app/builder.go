package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/content-sync-server/internal/api"
	"github.com/stacklok/content-sync-server/internal/app/storage"
	"github.com/stacklok/content-sync-server/internal/config"
	"github.com/stacklok/content-sync-server/internal/content"
	"github.com/stacklok/content-sync-server/internal/jobstore"
	pkgsync "github.com/stacklok/content-sync-server/internal/sync"
	"github.com/stacklok/content-sync-server/internal/sync/coordinator"
	"github.com/stacklok/content-sync-server/internal/sync/scheduler"
	"github.com/stacklok/content-sync-server/internal/telemetry"
)

const (
	defaultHTTPAddress    = ":8080"
	defaultRequestTimeout = 10 * time.Second
	defaultReadTimeout    = 10 * time.Second
	defaultWriteTimeout   = 15 * time.Second
	defaultIdleTimeout    = 60 * time.Second
)

// ContentSyncAppOptions is a function that configures the app builder
type ContentSyncAppOptions func(*contentSyncAppConfig) error

// contentSyncAppConfig collects the builder settings. Component overrides
// are primarily for testing.
type contentSyncAppConfig struct {
	config *config.Config

	storageFactory storage.Factory
	syncManager    pkgsync.Manager
	redisClient    redis.UniversalClient

	// HTTP server options
	address        string
	middlewares    []func(http.Handler) http.Handler
	requestTimeout time.Duration
	readTimeout    time.Duration
	writeTimeout   time.Duration
	idleTimeout    time.Duration

	// Telemetry components
	meterProvider  metric.MeterProvider
	tracerProvider trace.TracerProvider
	metricsHandler http.Handler
}

func baseConfig(opts ...ContentSyncAppOptions) (*contentSyncAppConfig, error) {
	cfg := &contentSyncAppConfig{
		address:        defaultHTTPAddress,
		requestTimeout: defaultRequestTimeout,
		readTimeout:    defaultReadTimeout,
		writeTimeout:   defaultWriteTimeout,
		idleTimeout:    defaultIdleTimeout,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	return cfg, nil
}

// NewContentSyncApp builds the application from the configuration
func NewContentSyncApp(
	ctx context.Context,
	opts ...ContentSyncAppOptions,
) (*ContentSyncApp, error) {
	cfg, err := baseConfig(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build base configuration: %w", err)
	}

	// Single decision point for database vs file storage
	if cfg.storageFactory == nil {
		cfg.storageFactory, err = storage.NewStorageFactory(ctx, cfg.config)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage factory: %w", err)
		}
	}

	// A Redis client injected through WithRedisClient is owned by the caller
	ownsRedis := false
	cleanupNeeded := true
	defer func() {
		if !cleanupNeeded {
			return
		}
		cfg.storageFactory.Cleanup()
		if ownsRedis && cfg.redisClient != nil {
			_ = cfg.redisClient.Close()
		}
	}()

	if cfg.redisClient == nil && needsRedis(cfg.config.GetQueue()) {
		cfg.redisClient, err = buildRedisClient(ctx, cfg.config.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to create redis client: %w", err)
		}
		ownsRedis = true
	}

	components, err := buildSyncComponents(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build sync components: %w", err)
	}

	httpServer, err := buildHTTPServer(ctx, cfg, components)
	if err != nil {
		return nil, fmt.Errorf("failed to build HTTP server: %w", err)
	}

	appCtx, cancel := context.WithCancel(ctx)
	cleanupNeeded = false

	cancelFunc := func() {
		cancel()
		cfg.storageFactory.Cleanup()
		if ownsRedis {
			if err := cfg.redisClient.Close(); err != nil {
				slog.Warn("Failed to close redis client", "error", err)
			}
		}
	}

	return &ContentSyncApp{
		config:     cfg.config,
		components: components,
		httpServer: httpServer,
		ctx:        appCtx,
		cancelFunc: cancelFunc,
	}, nil
}

// WithConfig sets the configuration
func WithConfig(c *config.Config) ContentSyncAppOptions {
	return func(cfg *contentSyncAppConfig) error {
		cfg.config = c
		return nil
	}
}

// WithAddress sets the HTTP server address
func WithAddress(addr string) ContentSyncAppOptions {
	return func(cfg *contentSyncAppConfig) error {
		if addr == "" {
			return fmt.Errorf("address cannot be empty")
		}

		host, port, found := strings.Cut(addr, ":")
		if !found || port == "" {
			return fmt.Errorf("address is not a valid port: %s", addr)
		}
		if host == "localhost" {
			host = "127.0.0.1"
		}
		if host == "" {
			host = "0.0.0.0"
		}

		if _, err := netip.ParseAddrPort(host + ":" + port); err != nil {
			return fmt.Errorf("address is not a valid port: %w", err)
		}

		cfg.address = addr
		return nil
	}
}

// WithMiddlewares sets custom HTTP middlewares
func WithMiddlewares(mw ...func(http.Handler) http.Handler) ContentSyncAppOptions {
	return func(cfg *contentSyncAppConfig) error {
		cfg.middlewares = mw
		return nil
	}
}

// WithStorageFactory allows injecting a custom storage factory (for testing)
func WithStorageFactory(f storage.Factory) ContentSyncAppOptions {
	return func(cfg *contentSyncAppConfig) error {
		cfg.storageFactory = f
		return nil
	}
}

// WithSyncManager allows injecting a custom sync manager (for testing)
func WithSyncManager(sm pkgsync.Manager) ContentSyncAppOptions {
	return func(cfg *contentSyncAppConfig) error {
		cfg.syncManager = sm
		return nil
	}
}

// WithRedisClient sets the Redis client used by the redis runner and lock
func WithRedisClient(client redis.UniversalClient) ContentSyncAppOptions {
	return func(cfg *contentSyncAppConfig) error {
		cfg.redisClient = client
		return nil
	}
}

// WithMeterProvider sets the OpenTelemetry meter provider
func WithMeterProvider(mp metric.MeterProvider) ContentSyncAppOptions {
	return func(cfg *contentSyncAppConfig) error {
		cfg.meterProvider = mp
		return nil
	}
}

// WithTracerProvider sets the OpenTelemetry tracer provider
func WithTracerProvider(tp trace.TracerProvider) ContentSyncAppOptions {
	return func(cfg *contentSyncAppConfig) error {
		cfg.tracerProvider = tp
		return nil
	}
}

// WithMetricsHandler exposes a scrape endpoint on /metrics
func WithMetricsHandler(h http.Handler) ContentSyncAppOptions {
	return func(cfg *contentSyncAppConfig) error {
		cfg.metricsHandler = h
		return nil
	}
}

// buildSyncComponents builds the stores, the sync manager, the scheduler and the coordinator
func buildSyncComponents(
	ctx context.Context,
	b *contentSyncAppConfig,
) (*AppComponents, error) {
	slog.Info("Initializing sync components")

	jobs, contents, err := buildStores(ctx, b.storageFactory)
	if err != nil {
		return nil, err
	}

	var (
		syncMetrics  *telemetry.SyncMetrics
		queueMetrics *telemetry.QueueMetrics
	)
	if b.meterProvider != nil {
		if syncMetrics, err = telemetry.NewSyncMetrics(b.meterProvider); err != nil {
			return nil, fmt.Errorf("failed to create sync metrics: %w", err)
		}
		if queueMetrics, err = telemetry.NewQueueMetrics(b.meterProvider); err != nil {
			return nil, fmt.Errorf("failed to create queue metrics: %w", err)
		}
		slog.Info("Sync metrics enabled")
	}

	if b.syncManager == nil {
		b.syncManager, err = buildSyncManager(b.config, contents, b.tracerProvider, syncMetrics)
		if err != nil {
			return nil, fmt.Errorf("failed to create sync manager: %w", err)
		}
	}

	queue, err := buildQueue(b.config, b.redisClient)
	if err != nil {
		return nil, fmt.Errorf("failed to create queue: %w", err)
	}

	schedOpts := []scheduler.Option{scheduler.WithMetrics(syncMetrics)}
	if queue.preferred != nil {
		schedOpts = append(schedOpts, scheduler.WithRunner(queue.preferred))
	}
	if queue.fallback != nil {
		schedOpts = append(schedOpts, scheduler.WithFallbackRunner(queue.fallback))
	}
	sched := scheduler.New(jobs, contents, queue.locker, b.syncManager, schedOpts...)

	var coordOpts []coordinator.Option
	if queueMetrics != nil {
		coordOpts = append(coordOpts, coordinator.WithQueueMetrics(queueMetrics))
	}
	syncCoordinator := coordinator.New(
		sched,
		jobs,
		queue.runners(),
		coordinator.NewConfig(b.config.GetQueue()),
		coordOpts...,
	)

	slog.Info("Sync components initialized successfully")
	return &AppComponents{
		SyncCoordinator: syncCoordinator,
		Scheduler:       sched,
		Jobs:            jobs,
		Contents:        contents,
		StorageFactory:  b.storageFactory,
		Redis:           b.redisClient,
	}, nil
}

// buildStores creates and initializes the job and content stores
func buildStores(ctx context.Context, factory storage.Factory) (jobstore.Store, content.Store, error) {
	jobs, err := factory.CreateJobStore(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create job store: %w", err)
	}
	if err := jobs.Initialize(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize job store: %w", err)
	}

	contents, err := factory.CreateContentStore(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create content store: %w", err)
	}
	return jobs, contents, nil
}

// buildHTTPServer builds the HTTP server with router and middleware
//
//nolint:unparam // we prefer having a similar interface
func buildHTTPServer(
	_ context.Context,
	b *contentSyncAppConfig,
	components *AppComponents,
) (*http.Server, error) {
	slog.Info("Initializing HTTP server")

	if b.middlewares == nil {
		b.middlewares = []func(http.Handler) http.Handler{
			middleware.RequestID,
			middleware.RealIP,
			middleware.Recoverer,
			middleware.Timeout(b.requestTimeout),
			api.LoggingMiddleware,
		}
	}

	// Telemetry middlewares go first so they see every request
	if b.meterProvider != nil {
		metricsMiddleware, err := telemetry.MetricsMiddleware(b.meterProvider)
		if err != nil {
			return nil, fmt.Errorf("failed to create metrics middleware: %w", err)
		}
		if metricsMiddleware != nil {
			b.middlewares = append([]func(http.Handler) http.Handler{metricsMiddleware}, b.middlewares...)
			slog.Info("HTTP metrics middleware enabled")
		}
	}
	if b.tracerProvider != nil {
		b.middlewares = append([]func(http.Handler) http.Handler{telemetry.TracingMiddleware(b.tracerProvider)}, b.middlewares...)
	}

	router := api.NewServer(
		components.Scheduler,
		components.Contents,
		api.WithMiddlewares(b.middlewares...),
		api.WithReadinessCheck("storage", components.StorageFactory.Ping),
		api.WithReadinessCheck("redis", redisPing(components.Redis)),
		api.WithMetricsHandler(b.metricsHandler),
	)

	server := &http.Server{
		Addr:         b.address,
		Handler:      router,
		ReadTimeout:  b.readTimeout,
		WriteTimeout: b.writeTimeout,
		IdleTimeout:  b.idleTimeout,
	}

	slog.Info("HTTP server configured", "address", b.address)
	return server, nil
}

// redisPing is nil without a Redis client, which leaves the check out
func redisPing(client redis.UniversalClient) api.ReadinessCheck {
	if client == nil {
		return nil
	}
	return func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}
}
