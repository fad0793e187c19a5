package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/StoreFinderGo/internal/service"
	"github.com/utafrali/StoreFinderGo/pkg/health"
	"github.com/utafrali/StoreFinderGo/pkg/middleware"
)

// ServiceName labels metrics and spans.
const ServiceName = "store"

const requestTimeout = 30 * time.Second

// RouterConfig collects what the router needs beyond the service.
type RouterConfig struct {
	Health    *health.Handler
	Validator middleware.TokenValidator
	Logger    *slog.Logger
	// Metrics and Gatherer may be nil; /metrics is only mounted with a
	// gatherer.
	Metrics        *middleware.HTTPMetrics
	Gatherer       prometheus.Gatherer
	CORS           middleware.CORSConfig
	RateLimitRPS   float64
	RateLimitBurst int
}

// NewRouter creates a chi router with all store service routes registered.
func NewRouter(svc *service.StoreService, cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Tracing(ServiceName))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(requestTimeout))
	r.Use(middleware.RequestLogging(logger))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Handler)
	}

	if cfg.Health != nil {
		r.Get("/health/live", cfg.Health.LivenessHandler())
		r.Get("/health/ready", cfg.Health.ReadinessHandler())
	}
	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	stores := NewStoreHandler(svc, logger)
	hearts := NewHeartHandler(svc, logger)
	storeRoute := "/{" + storeParam + "}"

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequestLogger(logger))

			r.Get("/stores", stores.List)
			r.Get("/stores/near", stores.Near)
			r.Get("/stores/top", stores.Top)
			r.Get("/stores"+storeRoute, stores.Get)
			r.Get("/tags", stores.Tags)
			r.Get("/tags/{tag}", stores.Tags)
			r.Get("/search", stores.Search)
			r.Get("/map", stores.Map)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.Validator))
			r.Use(middleware.RequestLogger(logger))

			r.Get("/hearts", hearts.List)
			r.Get("/stores"+storeRoute+"/edit", stores.Edit)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst, logger))

				r.Post("/stores", stores.Create)
				r.Put("/stores"+storeRoute, stores.Update)
				r.Post("/stores"+storeRoute+"/heart", hearts.Toggle)
			})
		})
	})

	return r
}
