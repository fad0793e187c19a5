package service

import (
	"context"
	"io"
	"log/slog"

	"github.com/stretchr/testify/mock"

	"github.com/utafrali/StoreFinderGo/internal/domain"
)

// --- Mock Repositories ---

type mockStoreRepository struct {
	mock.Mock
}

func (m *mockStoreRepository) Create(ctx context.Context, store *domain.Store) error {
	return m.Called(ctx, store).Error(0)
}

func (m *mockStoreRepository) GetByID(ctx context.Context, id string) (*domain.Store, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Store), args.Error(1)
}

func (m *mockStoreRepository) GetBySlug(ctx context.Context, slug string) (*domain.Store, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Store), args.Error(1)
}

func (m *mockStoreRepository) SlugsLike(ctx context.Context, base string) ([]string, error) {
	args := m.Called(ctx, base)
	slugs, _ := args.Get(0).([]string)
	return slugs, args.Error(1)
}

func (m *mockStoreRepository) Update(ctx context.Context, store *domain.Store) error {
	return m.Called(ctx, store).Error(0)
}

func (m *mockStoreRepository) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *mockStoreRepository) List(ctx context.Context, skip, limit int) ([]domain.Store, error) {
	args := m.Called(ctx, skip, limit)
	stores, _ := args.Get(0).([]domain.Store)
	return stores, args.Error(1)
}

func (m *mockStoreRepository) ListTags(ctx context.Context) ([]domain.TagCount, error) {
	args := m.Called(ctx)
	tags, _ := args.Get(0).([]domain.TagCount)
	return tags, args.Error(1)
}

func (m *mockStoreRepository) ListByTag(ctx context.Context, tag *string) ([]domain.Store, error) {
	args := m.Called(ctx, tag)
	stores, _ := args.Get(0).([]domain.Store)
	return stores, args.Error(1)
}

func (m *mockStoreRepository) ListByIDs(ctx context.Context, ids []string) ([]domain.Store, error) {
	args := m.Called(ctx, ids)
	stores, _ := args.Get(0).([]domain.Store)
	return stores, args.Error(1)
}

func (m *mockStoreRepository) Top(ctx context.Context, minReviews, limit int) ([]domain.TopStore, error) {
	args := m.Called(ctx, minReviews, limit)
	top, _ := args.Get(0).([]domain.TopStore)
	return top, args.Error(1)
}

type mockSearcher struct {
	mock.Mock
}

func (m *mockSearcher) SearchText(ctx context.Context, query string, limit int) ([]domain.ScoredStore, error) {
	args := m.Called(ctx, query, limit)
	hits, _ := args.Get(0).([]domain.ScoredStore)
	return hits, args.Error(1)
}

func (m *mockSearcher) Near(ctx context.Context, p domain.Point, maxMeters float64, limit int) ([]domain.NearbyStore, error) {
	args := m.Called(ctx, p, maxMeters, limit)
	hits, _ := args.Get(0).([]domain.NearbyStore)
	return hits, args.Error(1)
}

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) ToggleHeart(ctx context.Context, userID, storeID string) ([]string, bool, error) {
	args := m.Called(ctx, userID, storeID)
	hearts, _ := args.Get(0).([]string)
	return hearts, args.Bool(1), args.Error(2)
}

type mockReviewRepository struct {
	mock.Mock
}

func (m *mockReviewRepository) ListByStore(ctx context.Context, storeID string, includeAuthor bool) ([]domain.Review, error) {
	args := m.Called(ctx, storeID, includeAuthor)
	reviews, _ := args.Get(0).([]domain.Review)
	return reviews, args.Error(1)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishStoreCreated(ctx context.Context, store *domain.Store) error {
	return m.Called(ctx, store).Error(0)
}

func (m *mockPublisher) PublishStoreUpdated(ctx context.Context, store *domain.Store) error {
	return m.Called(ctx, store).Error(0)
}

func (m *mockPublisher) PublishHeartToggled(ctx context.Context, userID, storeID string, hearts []string, hearted bool) error {
	return m.Called(ctx, userID, storeID, hearts, hearted).Error(0)
}

// --- Test Helpers ---

type fixture struct {
	stores   *mockStoreRepository
	searcher *mockSearcher
	users    *mockUserRepository
	reviews  *mockReviewRepository
	events   *mockPublisher
	svc      *StoreService
}

func newFixture(cfg Config) *fixture {
	f := &fixture{
		stores:   &mockStoreRepository{},
		searcher: &mockSearcher{},
		users:    &mockUserRepository{},
		reviews:  &mockReviewRepository{},
		events:   &mockPublisher{},
	}
	f.svc = NewStoreService(Deps{
		Stores:   f.stores,
		Searcher: f.searcher,
		Users:    f.users,
		Reviews:  f.reviews,
		Events:   f.events,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, cfg)
	return f
}

func (f *fixture) assertExpectations(t mock.TestingT) {
	f.stores.AssertExpectations(t)
	f.searcher.AssertExpectations(t)
	f.users.AssertExpectations(t)
	f.reviews.AssertExpectations(t)
	f.events.AssertExpectations(t)
}

var ctxArg = mock.Anything

func strPtr(s string) *string {
	return &s
}
