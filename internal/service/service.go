package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/utafrali/StoreFinderGo/internal/domain"
	"github.com/utafrali/StoreFinderGo/internal/repository"
	"github.com/utafrali/StoreFinderGo/pkg/pagination"
)

const (
	// TopMinReviews and TopLimit shape the top stores ranking.
	TopMinReviews = 2
	TopLimit      = 10

	defaultStorageTimeout = 5 * time.Second
)

// EventPublisher announces store changes. Publishing is best effort;
// failures are logged by the service and never fail the operation.
type EventPublisher interface {
	PublishStoreCreated(ctx context.Context, store *domain.Store) error
	PublishStoreUpdated(ctx context.Context, store *domain.Store) error
	PublishHeartToggled(ctx context.Context, userID, storeID string, hearts []string, hearted bool) error
}

// Config tunes discovery. Zero values fall back to the defaults.
type Config struct {
	PageSize          int
	SearchLimit       int
	MaxDistanceMeters float64
	LiteLimit         int
	LiteProjection    domain.Projection
	StorageTimeout    time.Duration
}

func DefaultConfig() Config {
	p, _ := domain.NewProjection(domain.DefaultLiteFields)
	return Config{
		PageSize:          pagination.DefaultPageSize,
		SearchLimit:       5,
		MaxDistanceMeters: 10000,
		LiteLimit:         10,
		LiteProjection:    p,
		StorageTimeout:    defaultStorageTimeout,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.PageSize < 1 {
		c.PageSize = d.PageSize
	}
	if c.SearchLimit < 1 {
		c.SearchLimit = d.SearchLimit
	}
	if c.MaxDistanceMeters <= 0 {
		c.MaxDistanceMeters = d.MaxDistanceMeters
	}
	if c.LiteLimit < 1 {
		c.LiteLimit = d.LiteLimit
	}
	if len(c.LiteProjection.Fields()) == 0 {
		c.LiteProjection = d.LiteProjection
	}
	if c.StorageTimeout <= 0 {
		c.StorageTimeout = d.StorageTimeout
	}
	return c
}

// Deps are the collaborators of StoreService. Events and Metrics may be nil.
type Deps struct {
	Stores   repository.StoreRepository
	Searcher repository.StoreSearcher
	Users    repository.UserRepository
	Reviews  repository.ReviewRepository
	Events   EventPublisher
	Metrics  *Metrics
	Logger   *slog.Logger
}

// StoreService is the discovery and engagement engine. It holds no
// per-request state and is safe for concurrent use.
type StoreService struct {
	stores   repository.StoreRepository
	searcher repository.StoreSearcher
	users    repository.UserRepository
	reviews  repository.ReviewRepository
	events   EventPublisher
	metrics  *Metrics
	logger   *slog.Logger
	cfg      Config
}

func NewStoreService(deps Deps, cfg Config) *StoreService {
	s := &StoreService{
		stores:   deps.Stores,
		searcher: deps.Searcher,
		users:    deps.Users,
		reviews:  deps.Reviews,
		events:   deps.Events,
		metrics:  deps.Metrics,
		logger:   deps.Logger,
		cfg:      cfg.withDefaults(),
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Config returns the effective configuration.
func (s *StoreService) Config() Config {
	return s.cfg
}

// within runs one storage call under the storage timeout.
func within[T any](ctx context.Context, d time.Duration, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()
	return fn(ctx)
}

func (s *StoreService) exec(ctx context.Context, fn func(context.Context) error) error {
	_, err := within(ctx, s.cfg.StorageTimeout, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}
