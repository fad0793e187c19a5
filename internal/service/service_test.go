package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/StoreFinderGo/internal/domain"
	apperrors "github.com/utafrali/StoreFinderGo/pkg/errors"
)

func stores(ids ...string) []domain.Store {
	out := make([]domain.Store, len(ids))
	for i, id := range ids {
		out[i] = domain.Store{ID: id, Slug: id, Name: id, AuthorID: "owner"}
	}
	return out
}

func ownedStore() *domain.Store {
	return &domain.Store{
		ID:        "s1",
		Slug:      "corner-cafe",
		Name:      "Corner Cafe",
		Tags:      []string{"coffee"},
		AuthorID:  "owner",
		CreatedAt: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

// --- Listing ---

func TestListStores_InRange(t *testing.T) {
	f := newFixture(Config{})
	f.stores.On("Count", ctxArg).Return(9, nil)
	f.stores.On("List", ctxArg, 4, 4).Return(stores("e", "f", "g", "h"), nil)

	listing, err := f.svc.ListStores(context.Background(), 2)
	require.NoError(t, err)

	assert.Equal(t, 9, listing.Count)
	assert.Equal(t, 3, listing.PageCount)
	assert.Equal(t, 2, listing.Page)
	assert.Nil(t, listing.FallbackPage)
	assert.Len(t, listing.Stores, 4)
	f.assertExpectations(t)
}

func TestListStores_FallsBackToLastPageOnce(t *testing.T) {
	f := newFixture(Config{})
	f.stores.On("Count", ctxArg).Return(9, nil)
	f.stores.On("List", ctxArg, 12, 4).Return([]domain.Store{}, nil).Once()
	f.stores.On("List", ctxArg, 8, 4).Return(stores("i"), nil).Once()

	listing, err := f.svc.ListStores(context.Background(), 10)
	require.NoError(t, err)

	require.NotNil(t, listing.FallbackPage)
	assert.Equal(t, 3, *listing.FallbackPage)
	assert.Equal(t, 3, listing.Page)
	assert.Equal(t, 10, listing.RequestedPage)
	assert.Len(t, listing.Stores, 1)
	f.stores.AssertNumberOfCalls(t, "List", 2)
}

func TestListStores_HugePageSkipsInRange(t *testing.T) {
	f := newFixture(Config{})
	f.stores.On("Count", ctxArg).Return(9, nil)
	f.stores.On("List", ctxArg, 12, 4).Return([]domain.Store{}, nil).Once()
	f.stores.On("List", ctxArg, 8, 4).Return(stores("i"), nil).Once()

	listing, err := f.svc.ListStores(context.Background(), math.MaxInt)
	require.NoError(t, err)

	require.NotNil(t, listing.FallbackPage)
	assert.Equal(t, 3, *listing.FallbackPage)
	assert.Equal(t, math.MaxInt, listing.RequestedPage)
	f.stores.AssertNumberOfCalls(t, "List", 2)
}

func TestListStores_FallbackReturningNothingDoesNotRecurse(t *testing.T) {
	f := newFixture(Config{})
	f.stores.On("Count", ctxArg).Return(9, nil)
	f.stores.On("List", ctxArg, 12, 4).Return([]domain.Store{}, nil).Once()
	f.stores.On("List", ctxArg, 8, 4).Return([]domain.Store{}, nil).Once()

	listing, err := f.svc.ListStores(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, listing.Stores)
	f.stores.AssertNumberOfCalls(t, "List", 2)
}

func TestListStores_EmptyCollection(t *testing.T) {
	t.Run("first page has no fallback", func(t *testing.T) {
		f := newFixture(Config{})
		f.stores.On("Count", ctxArg).Return(0, nil)
		f.stores.On("List", ctxArg, 0, 4).Return([]domain.Store{}, nil).Once()

		listing, err := f.svc.ListStores(context.Background(), 1)
		require.NoError(t, err)
		assert.Nil(t, listing.FallbackPage)
		assert.Equal(t, 0, listing.PageCount)
		assert.Empty(t, listing.Stores)
	})

	t.Run("later page falls back to page one", func(t *testing.T) {
		f := newFixture(Config{})
		f.stores.On("Count", ctxArg).Return(0, nil)
		f.stores.On("List", ctxArg, 4, 4).Return([]domain.Store{}, nil).Once()
		f.stores.On("List", ctxArg, 0, 4).Return([]domain.Store{}, nil).Once()

		listing, err := f.svc.ListStores(context.Background(), 5)
		require.NoError(t, err)
		require.NotNil(t, listing.FallbackPage)
		assert.Equal(t, 1, *listing.FallbackPage)
	})
}

func TestListStores_CustomPageSize(t *testing.T) {
	f := newFixture(Config{PageSize: 10})
	f.stores.On("Count", ctxArg).Return(25, nil)
	f.stores.On("List", ctxArg, 20, 10).Return(stores("u", "v", "w", "x", "y"), nil)

	listing, err := f.svc.ListStores(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, 3, listing.PageCount)
	assert.Len(t, listing.Stores, 5)
}

func TestListStores_StorageCallsHaveDeadline(t *testing.T) {
	f := newFixture(Config{StorageTimeout: time.Second})
	hasDeadline := mock.MatchedBy(func(ctx context.Context) bool {
		_, ok := ctx.Deadline()
		return ok
	})
	f.stores.On("Count", hasDeadline).Return(1, nil)
	f.stores.On("List", hasDeadline, 0, 4).Return(stores("a"), nil)

	_, err := f.svc.ListStores(context.Background(), 1)
	require.NoError(t, err)
	f.assertExpectations(t)
}

func TestListStores_TransientError(t *testing.T) {
	f := newFixture(Config{})
	f.stores.On("Count", ctxArg).Return(0, apperrors.Transient("count stores", context.DeadlineExceeded))

	_, err := f.svc.ListStores(context.Background(), 1)
	require.Error(t, err)
	assert.True(t, apperrors.IsTransient(err))
}

// --- Tags ---

func TestListByTag(t *testing.T) {
	facet := []domain.TagCount{{Tag: "coffee", Count: 2}, {Tag: "wifi", Count: 1}}

	t.Run("selected tag", func(t *testing.T) {
		f := newFixture(Config{})
		f.stores.On("ListTags", ctxArg).Return(facet, nil)
		f.stores.On("ListByTag", ctxArg, strPtr("coffee")).Return(stores("a", "b"), nil)

		view, err := f.svc.ListByTag(context.Background(), strPtr(" coffee "))
		require.NoError(t, err)
		assert.Equal(t, facet, view.Tags)
		require.NotNil(t, view.SelectedTag)
		assert.Equal(t, "coffee", *view.SelectedTag)
		assert.Len(t, view.Stores, 2)
	})

	t.Run("blank tag selects all tagged stores", func(t *testing.T) {
		f := newFixture(Config{})
		f.stores.On("ListTags", ctxArg).Return(facet, nil)
		f.stores.On("ListByTag", ctxArg, (*string)(nil)).Return(stores("a", "b", "c"), nil)

		view, err := f.svc.ListByTag(context.Background(), strPtr("  "))
		require.NoError(t, err)
		assert.Nil(t, view.SelectedTag)
		assert.Len(t, view.Stores, 3)
	})

	t.Run("unknown tag", func(t *testing.T) {
		f := newFixture(Config{})
		f.stores.On("ListTags", ctxArg).Return(facet, nil)
		f.stores.On("ListByTag", ctxArg, strPtr("vegan")).Return([]domain.Store{}, nil)

		view, err := f.svc.ListByTag(context.Background(), strPtr("vegan"))
		require.NoError(t, err)
		assert.Empty(t, view.Stores)
	})
}

// --- Search ---

func TestSearchStores(t *testing.T) {
	f := newFixture(Config{})
	hits := []domain.ScoredStore{{Store: stores("a")[0], Score: 2}, {Store: stores("b")[0], Score: 1}}
	f.searcher.On("SearchText", ctxArg, "coffee", 5).Return(hits, nil)

	got, err := f.svc.SearchStores(context.Background(), "  coffee ")
	require.NoError(t, err)
	assert.Equal(t, hits, got)
	f.assertExpectations(t)
}

func TestSearchStores_BlankQuery(t *testing.T) {
	f := newFixture(Config{})

	got, err := f.svc.SearchStores(context.Background(), " \n ")
	require.NoError(t, err)
	assert.Empty(t, got)
	f.searcher.AssertNotCalled(t, "SearchText", mock.Anything, mock.Anything, mock.Anything)
}

func TestStoresNear(t *testing.T) {
	p := domain.Point{Lng: -79.8, Lat: 43.2}
	f := newFixture(Config{})
	hits := []domain.NearbyStore{{Store: stores("a")[0], DistanceMeters: 0}, {Store: stores("b")[0], DistanceMeters: 900}}
	f.searcher.On("Near", ctxArg, p, 10000.0, 0).Return(hits, nil)

	got, err := f.svc.StoresNear(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, hits, got)
}

func TestStoresNear_InvalidPoint(t *testing.T) {
	f := newFixture(Config{})

	got, err := f.svc.StoresNear(context.Background(), domain.ParsePoint("abc", "43.2"))
	require.NoError(t, err)
	assert.Empty(t, got)

	lite, err := f.svc.StoresNearLite(context.Background(), domain.Point{Lng: 0, Lat: 91})
	require.NoError(t, err)
	assert.Empty(t, lite)
	f.searcher.AssertNotCalled(t, "Near", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestStoresNearLite_ProjectsAndCaps(t *testing.T) {
	p := domain.Point{Lng: -79.8, Lat: 43.2}
	f := newFixture(Config{})
	store := *ownedStore()
	store.Location = domain.NewLocation(p, "1 King St")
	f.searcher.On("Near", ctxArg, p, 10000.0, 10).Return([]domain.NearbyStore{{Store: store, DistanceMeters: 5}}, nil)

	got, err := f.svc.StoresNearLite(context.Background(), p)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "corner-cafe", got[0]["slug"])
	assert.Contains(t, got[0], "location")
	assert.NotContains(t, got[0], "tags")
	assert.NotContains(t, got[0], "author")
}

func TestStoresNearLite_CustomProjection(t *testing.T) {
	proj, err := domain.NewProjection([]string{"slug", "distance_meters"})
	require.NoError(t, err)
	p := domain.Point{Lng: 1, Lat: 1}
	f := newFixture(Config{LiteProjection: proj, LiteLimit: 3})
	f.searcher.On("Near", ctxArg, p, 10000.0, 3).Return([]domain.NearbyStore{{Store: *ownedStore(), DistanceMeters: 7}}, nil)

	got, err := f.svc.StoresNearLite(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, []map[string]any{{"slug": "corner-cafe", "distance_meters": 7.0}}, got)
}

// --- Hearts ---

func TestToggleHeart(t *testing.T) {
	f := newFixture(Config{})
	f.stores.On("GetByID", ctxArg, "s1").Return(ownedStore(), nil)
	f.users.On("ToggleHeart", ctxArg, "u1", "s1").Return([]string{"s0", "s1"}, true, nil)
	f.events.On("PublishHeartToggled", ctxArg, "u1", "s1", []string{"s0", "s1"}, true).Return(nil)

	res, err := f.svc.ToggleHeart(context.Background(), "u1", "s1")
	require.NoError(t, err)
	assert.True(t, res.Hearted)
	assert.Equal(t, []string{"s0", "s1"}, res.Hearts)
	f.assertExpectations(t)
}

func TestToggleHeart_PublishFailureDoesNotFail(t *testing.T) {
	f := newFixture(Config{})
	f.stores.On("GetByID", ctxArg, "s1").Return(ownedStore(), nil)
	f.users.On("ToggleHeart", ctxArg, "u1", "s1").Return([]string{}, false, nil)
	f.events.On("PublishHeartToggled", ctxArg, "u1", "s1", []string{}, false).Return(errors.New("broker down"))

	res, err := f.svc.ToggleHeart(context.Background(), "u1", "s1")
	require.NoError(t, err)
	assert.False(t, res.Hearted)
}

func TestToggleHeart_UnknownStore(t *testing.T) {
	f := newFixture(Config{})
	f.stores.On("GetByID", ctxArg, "nope").Return(nil, apperrors.NotFound("store", "nope"))

	_, err := f.svc.ToggleHeart(context.Background(), "u1", "nope")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	f.users.AssertNotCalled(t, "ToggleHeart", mock.Anything, mock.Anything, mock.Anything)
}

func TestToggleHeart_UnknownUser(t *testing.T) {
	f := newFixture(Config{})
	f.stores.On("GetByID", ctxArg, "s1").Return(ownedStore(), nil)
	f.users.On("ToggleHeart", ctxArg, "ghost", "s1").Return(nil, false, apperrors.NotFound("user", "ghost"))

	_, err := f.svc.ToggleHeart(context.Background(), "ghost", "s1")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	f.events.AssertNotCalled(t, "PublishHeartToggled", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestToggleHeart_RequiresUser(t *testing.T) {
	f := newFixture(Config{})
	_, err := f.svc.ToggleHeart(context.Background(), "", "s1")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestListHearts(t *testing.T) {
	f := newFixture(Config{})
	f.users.On("GetByID", ctxArg, "u1").Return(&domain.User{ID: "u1", Hearts: []string{"a", "b"}}, nil)
	f.stores.On("ListByIDs", ctxArg, []string{"a", "b"}).Return(stores("b", "a"), nil)

	got, err := f.svc.ListHearts(context.Background(), "u1")
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

// --- Detail ---

func TestGetStoreBySlug_SoftMiss(t *testing.T) {
	f := newFixture(Config{})
	f.stores.On("GetBySlug", ctxArg, "nope").Return(nil, apperrors.NotFound("store", "nope"))

	detail, found, err := f.svc.GetStoreBySlug(context.Background(), "nope", true)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, detail)
	f.reviews.AssertNotCalled(t, "ListByStore", mock.Anything, mock.Anything, mock.Anything)
}

func TestGetStoreBySlug_StorageErrorIsNotSoftMiss(t *testing.T) {
	f := newFixture(Config{})
	f.stores.On("GetBySlug", ctxArg, "x").Return(nil, apperrors.Transient("get store", context.DeadlineExceeded))

	_, found, err := f.svc.GetStoreBySlug(context.Background(), "x", false)
	require.Error(t, err)
	assert.False(t, found)
	assert.True(t, apperrors.IsTransient(err))
}

func TestGetStoreBySlug_WithAuthor(t *testing.T) {
	f := newFixture(Config{})
	reviews := []domain.Review{{ID: "r1", StoreID: "s1", Rating: 5}}
	f.stores.On("GetBySlug", ctxArg, "corner-cafe").Return(ownedStore(), nil)
	f.reviews.On("ListByStore", ctxArg, "s1", true).Return(reviews, nil)
	f.users.On("GetByID", ctxArg, "owner").Return(&domain.User{ID: "owner", Name: "Wes", Email: "wes@example.com"}, nil)

	detail, found, err := f.svc.GetStoreBySlug(context.Background(), "corner-cafe", true)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, reviews, detail.Reviews)
	require.NotNil(t, detail.Author)
	assert.Equal(t, "Wes", detail.Author.Name)
}

func TestGetStoreBySlug_WithoutAuthor(t *testing.T) {
	f := newFixture(Config{})
	f.stores.On("GetBySlug", ctxArg, "corner-cafe").Return(ownedStore(), nil)
	f.reviews.On("ListByStore", ctxArg, "s1", false).Return([]domain.Review{}, nil)

	detail, found, err := f.svc.GetStoreBySlug(context.Background(), "corner-cafe", false)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Nil(t, detail.Author)
	f.users.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestTopStores(t *testing.T) {
	f := newFixture(Config{})
	top := []domain.TopStore{{Store: *ownedStore(), AverageRating: 4.5, ReviewCount: 2}}
	f.stores.On("Top", ctxArg, TopMinReviews, TopLimit).Return(top, nil)

	got, err := f.svc.TopStores(context.Background())
	require.NoError(t, err)
	assert.Equal(t, top, got)
}

// --- Create / Update ---

func TestCreateStore_SlugSuffix(t *testing.T) {
	f := newFixture(Config{})
	f.stores.On("SlugsLike", ctxArg, "corner-cafe").Return([]string{"corner-cafe", "corner-cafe-2"}, nil)
	f.stores.On("Create", ctxArg, mock.AnythingOfType("*domain.Store")).Return(nil)
	f.events.On("PublishStoreCreated", ctxArg, mock.AnythingOfType("*domain.Store")).Return(nil)

	store, err := f.svc.CreateStore(context.Background(), "owner", domain.CreateStoreInput{
		Name: "  Corner Café ",
		Tags: []string{"coffee", " coffee", ""},
	})
	require.NoError(t, err)
	assert.Equal(t, "corner-cafe-3", store.Slug)
	assert.Equal(t, "Corner Café", store.Name)
	assert.Equal(t, []string{"coffee"}, store.Tags)
	assert.Equal(t, "owner", store.AuthorID)
	assert.NotEmpty(t, store.ID)
	assert.False(t, store.CreatedAt.IsZero())
	f.assertExpectations(t)
}

func TestCreateStore_ReservedSlugGetsSuffix(t *testing.T) {
	for _, tt := range []struct {
		name     string
		existing []string
		want     string
	}{
		{"Near", nil, "near-2"},
		{"TOP", []string{"top-2"}, "top-3"},
		{"Edit", nil, "edit-2"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(Config{})
			f.stores.On("SlugsLike", ctxArg, strings.ToLower(tt.name)).Return(tt.existing, nil)
			f.stores.On("Create", ctxArg, mock.AnythingOfType("*domain.Store")).Return(nil)
			f.events.On("PublishStoreCreated", ctxArg, mock.AnythingOfType("*domain.Store")).Return(nil)

			store, err := f.svc.CreateStore(context.Background(), "owner", domain.CreateStoreInput{Name: tt.name})
			require.NoError(t, err)
			assert.Equal(t, tt.want, store.Slug)
		})
	}
}

func TestCreateStore_RetriesLostSlugRace(t *testing.T) {
	f := newFixture(Config{})
	f.stores.On("SlugsLike", ctxArg, "cafe").Return([]string{}, nil).Once()
	f.stores.On("Create", ctxArg, mock.Anything).Return(apperrors.AlreadyExists("store", "slug", "cafe")).Once()
	f.stores.On("SlugsLike", ctxArg, "cafe").Return([]string{"cafe"}, nil).Once()
	f.stores.On("Create", ctxArg, mock.Anything).Return(nil).Once()
	f.events.On("PublishStoreCreated", ctxArg, mock.Anything).Return(nil)

	store, err := f.svc.CreateStore(context.Background(), "owner", domain.CreateStoreInput{Name: "Cafe"})
	require.NoError(t, err)
	assert.Equal(t, "cafe-2", store.Slug)
}

func TestCreateStore_Invalid(t *testing.T) {
	f := newFixture(Config{})

	_, err := f.svc.CreateStore(context.Background(), "owner", domain.CreateStoreInput{Name: "  "})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = f.svc.CreateStore(context.Background(), "owner", domain.CreateStoreInput{
		Name:     "Cafe",
		Location: &domain.Location{Type: "Point", Coordinates: []float64{-79.8}},
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = f.svc.CreateStore(context.Background(), "", domain.CreateStoreInput{Name: "Cafe"})
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	f.stores.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestUpdateStore_NotOwner(t *testing.T) {
	f := newFixture(Config{})
	f.stores.On("GetByID", ctxArg, "s1").Return(ownedStore(), nil)

	_, err := f.svc.UpdateStore(context.Background(), "s1", domain.UpdateStoreInput{Name: strPtr("Mine now")}, "intruder")
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	assert.Equal(t, 403, apperrors.HTTPStatus(err))
	f.stores.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestUpdateStore_PartialLocationRejected(t *testing.T) {
	f := newFixture(Config{})
	f.stores.On("GetByID", ctxArg, "s1").Return(ownedStore(), nil)

	_, err := f.svc.UpdateStore(context.Background(), "s1", domain.UpdateStoreInput{
		Location: &domain.Location{Type: "Point", Coordinates: []float64{-79.8}},
	}, "owner")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	f.stores.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestUpdateStore_KeepsSlugAndAuthor(t *testing.T) {
	f := newFixture(Config{})
	f.stores.On("GetByID", ctxArg, "s1").Return(ownedStore(), nil)
	f.stores.On("Update", ctxArg, mock.MatchedBy(func(s *domain.Store) bool {
		return s.Slug == "corner-cafe" && s.Name == "Renamed Cafe" && s.AuthorID == "owner"
	})).Return(nil)
	f.events.On("PublishStoreUpdated", ctxArg, mock.Anything).Return(nil)

	loc := domain.NewLocation(domain.Point{Lng: -79.8, Lat: 43.2}, "1 King St")
	store, err := f.svc.UpdateStore(context.Background(), "s1", domain.UpdateStoreInput{
		Name:     strPtr(" Renamed Cafe "),
		Location: loc,
	}, "owner")
	require.NoError(t, err)
	assert.Equal(t, "corner-cafe", store.Slug)
	assert.Equal(t, []string{"coffee"}, store.Tags)
	assert.Equal(t, loc, store.Location)
	f.assertExpectations(t)
}

func TestGetStoreForEdit(t *testing.T) {
	f := newFixture(Config{})
	f.stores.On("GetByID", ctxArg, "s1").Return(ownedStore(), nil)

	got, err := f.svc.GetStoreForEdit(context.Background(), "s1", "owner")
	require.NoError(t, err)
	assert.Equal(t, "s1", got.ID)

	_, err = f.svc.GetStoreForEdit(context.Background(), "s1", "someone")
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestNilEventsAndMetrics(t *testing.T) {
	st := &mockStoreRepository{}
	us := &mockUserRepository{}
	svc := NewStoreService(Deps{Stores: st, Users: us}, Config{})
	st.On("GetByID", ctxArg, "s1").Return(ownedStore(), nil)
	us.On("ToggleHeart", ctxArg, "u1", "s1").Return([]string{"s1"}, true, nil)

	res, err := svc.ToggleHeart(context.Background(), "u1", "s1")
	require.NoError(t, err)
	assert.True(t, res.Hearted)
}
