package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/utafrali/StoreFinderGo/internal/auth"
	"github.com/utafrali/StoreFinderGo/internal/config"
	"github.com/utafrali/StoreFinderGo/internal/domain"
	"github.com/utafrali/StoreFinderGo/internal/event"
	handler "github.com/utafrali/StoreFinderGo/internal/handler/http"
	"github.com/utafrali/StoreFinderGo/internal/repository"
	"github.com/utafrali/StoreFinderGo/internal/repository/memory"
	"github.com/utafrali/StoreFinderGo/internal/repository/postgres"
	"github.com/utafrali/StoreFinderGo/internal/search"
	"github.com/utafrali/StoreFinderGo/internal/search/elasticsearch"
	"github.com/utafrali/StoreFinderGo/internal/service"
	"github.com/utafrali/StoreFinderGo/migrations"
	"github.com/utafrali/StoreFinderGo/pkg/breaker"
	"github.com/utafrali/StoreFinderGo/pkg/database"
	"github.com/utafrali/StoreFinderGo/pkg/health"
	"github.com/utafrali/StoreFinderGo/pkg/httpclient"
	pkgkafka "github.com/utafrali/StoreFinderGo/pkg/kafka"
	"github.com/utafrali/StoreFinderGo/pkg/middleware"
	"github.com/utafrali/StoreFinderGo/pkg/tracing"
)

const (
	serviceVersion = "0.1.0"
	indexerGroup   = "store-indexer"
	processedTTL   = 24 * time.Hour
)

// App wires together all dependencies and runs the store service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	redis          *redis.Client
	producer       *pkgkafka.Producer
	dlq            *pkgkafka.DLQProducer
	consumers      []*pkgkafka.Consumer
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

type storage struct {
	stores   repository.StoreRepository
	searcher repository.StoreSearcher
	users    repository.UserRepository
	reviews  repository.ReviewRepository
}

// NewApp creates a new application instance, initializing all dependencies.
// Anything opened before a failure is released before returning.
func NewApp(cfg *config.Config, logger *slog.Logger) (_ *App, err error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			a.release()
		}
	}()

	a.tracerShutdown, err = tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    handler.ServiceName,
		ServiceVersion: serviceVersion,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	healthHandler := health.NewHandler()

	st, err := a.openStorage(ctx, reg, healthHandler)
	if err != nil {
		return nil, err
	}

	var engine *elasticsearch.Engine
	if cfg.SearchBackend == config.BackendElasticsearch {
		engine, err = elasticsearch.New(elasticsearch.Config{
			URL:       cfg.ElasticsearchURL,
			IndexName: cfg.ElasticsearchIndex,
			Transport: httpclient.NewTransport(httpclient.DefaultConfig()),
		}, logger)
		if err != nil {
			return nil, err
		}
		if err := engine.EnsureIndex(ctx); err != nil {
			return nil, fmt.Errorf("ensure search index: %w", err)
		}
		b := breaker.New(breaker.DefaultConfig("elasticsearch"), breaker.NewMetrics(reg), logger)
		st.searcher = search.NewGuarded(engine, b)
		healthHandler.RegisterNonCritical("elasticsearch", engine.Ping)
		logger.Info("elasticsearch search backend enabled",
			slog.String("url", cfg.ElasticsearchURL),
			slog.String("index", cfg.ElasticsearchIndex),
		)
	}

	var events service.EventPublisher = event.Nop{}
	if cfg.KafkaEnabled {
		a.producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		events = event.NewProducer(a.producer, logger)
		healthHandler.RegisterNonCritical("kafka", a.producer.Ping)
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

		if engine != nil {
			if err := a.startIndexer(ctx, engine, reg, healthHandler); err != nil {
				return nil, err
			}
		}
	}

	validator, err := auth.NewValidator(cfg.JWTSecret)
	if err != nil {
		return nil, fmt.Errorf("init token validator: %w", err)
	}

	projection, err := domain.NewProjection(cfg.GeoLiteFields)
	if err != nil {
		return nil, fmt.Errorf("lite projection: %w", err)
	}

	svc := service.NewStoreService(service.Deps{
		Stores:   st.stores,
		Searcher: st.searcher,
		Users:    st.users,
		Reviews:  st.reviews,
		Events:   events,
		Metrics:  service.NewMetrics(reg),
		Logger:   logger,
	}, service.Config{
		PageSize:          cfg.PageSize,
		SearchLimit:       cfg.SearchLimit,
		MaxDistanceMeters: cfg.GeoMaxDistanceMeters,
		LiteLimit:         cfg.GeoLiteLimit,
		LiteProjection:    projection,
		StorageTimeout:    cfg.StorageTimeout,
	})

	router := handler.NewRouter(svc, handler.RouterConfig{
		Health:         healthHandler,
		Validator:      validator.Validate,
		Logger:         logger,
		Metrics:        middleware.NewHTTPMetrics(reg, handler.ServiceName),
		Gatherer:       reg,
		CORS:           middleware.DefaultCORSConfig(cfg.CORSAllowedOrigins),
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	})

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      35 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return a, nil
}

func (a *App) openStorage(ctx context.Context, reg prometheus.Registerer, h *health.Handler) (storage, error) {
	if a.cfg.StorageBackend == config.BackendMemory {
		db := memory.New()
		a.logger.Warn("using in-memory storage; data is lost on restart")
		return storage{stores: db.Stores(), searcher: db.Stores(), users: db.Users(), reviews: db.Reviews()}, nil
	}

	pgCfg := a.cfg.Postgres()
	pool, err := database.NewPostgresPool(ctx, &pgCfg, a.logger)
	if err != nil {
		return storage{}, fmt.Errorf("connect to postgres: %w", err)
	}
	a.pool = pool
	a.logger.Info("connected to PostgreSQL",
		slog.String("host", pgCfg.Host),
		slog.Int("port", pgCfg.Port),
		slog.String("database", pgCfg.DBName),
	)
	if err := database.RegisterPoolMetrics(reg, pool, handler.ServiceName); err != nil {
		return storage{}, fmt.Errorf("register pool metrics: %w", err)
	}

	if err := database.RunMigrations(ctx, pool, migrations.FS, a.logger); err != nil {
		return storage{}, fmt.Errorf("run migrations: %w", err)
	}
	a.logger.Info("database migrations completed")

	if a.cfg.SlowQueryThresholdMs > 0 {
		database.SetSlowQueryLogging(time.Duration(a.cfg.SlowQueryThresholdMs)*time.Millisecond, a.logger)
	}

	h.RegisterCritical("postgres", pool.Ping)
	return storage{
		stores:   postgres.NewStoreRepository(pool),
		searcher: postgres.NewSearcher(pool),
		users:    postgres.NewUserRepository(pool),
		reviews:  postgres.NewReviewRepository(pool),
	}, nil
}

// startIndexer builds one consumer per store topic feeding the search
// index. Redis holds the processed-event set when enabled.
func (a *App) startIndexer(ctx context.Context, engine *elasticsearch.Engine, reg prometheus.Registerer, h *health.Handler) error {
	var processed pkgkafka.IdempotencyStore = pkgkafka.NewMemoryIdempotencyStore(processedTTL)
	if a.cfg.RedisEnabled {
		client, err := database.NewRedisClient(ctx, a.cfg.Redis())
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		a.redis = client
		processed = pkgkafka.NewRedisIdempotencyStore(client, indexerGroup, processedTTL)
		h.RegisterNonCritical("redis", func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		})
	}

	indexer := event.NewIndexer(engine, a.logger)
	handle := pkgkafka.IdempotentHandler(processed, indexer.Handle, a.logger)
	a.dlq = pkgkafka.NewDLQProducer(a.cfg.KafkaBrokers, a.logger)
	metrics := pkgkafka.NewConsumerMetrics(reg)

	for _, topic := range indexer.Topics() {
		c := pkgkafka.NewConsumer(pkgkafka.ConsumerConfig{
			Brokers:  a.cfg.KafkaBrokers,
			GroupID:  indexerGroup,
			Topic:    topic,
			MinBytes: 1,
			MaxBytes: 10e6,
		}, handle, a.logger).WithDLQ(a.dlq).WithMetrics(metrics)
		a.consumers = append(a.consumers, c)
	}
	a.logger.Info("search indexer consumers initialized",
		slog.Any("topics", indexer.Topics()),
		slog.String("group", indexerGroup),
	)
	return nil
}

// Handler returns the HTTP handler, for tests.
func (a *App) Handler() http.Handler {
	return a.httpServer.Handler
}

// Run starts the HTTP server and indexer consumers, blocking until the
// context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1+len(a.consumers))

	for _, c := range a.consumers {
		go func() {
			if err := c.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errCh <- fmt.Errorf("kafka consumer: %w", err)
			}
		}()
	}

	go func() {
		a.logger.Info("starting HTTP server", slog.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case runErr = <-errCh:
		a.logger.Error("component failed, shutting down", slog.String("error", runErr.Error()))
	}

	return errors.Join(runErr, a.Shutdown())
}

// Shutdown drains HTTP first, then stops consumers, flushes spans and
// closes the backends.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error
	httpCtx, httpCancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	errs = append(errs, a.release())
	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

// release closes everything except the HTTP server. Nil components are
// skipped.
func (a *App) release() error {
	var errs []error
	note := func(what string, err error) {
		if err != nil {
			a.logger.Error(what+" close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	for _, c := range a.consumers {
		note("kafka consumer", c.Close())
	}
	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		note("tracer", a.tracerShutdown(tracerCtx))
		tracerCancel()
	}
	if a.producer != nil {
		note("kafka producer", a.producer.Close())
	}
	if a.dlq != nil {
		note("kafka dlq producer", a.dlq.Close())
	}
	if a.redis != nil {
		note("redis", a.redis.Close())
	}
	if a.pool != nil {
		a.pool.Close()
	}
	return errors.Join(errs...)
}
