package repository

import (
	"context"

	"github.com/utafrali/StoreFinderGo/internal/domain"
)

// StoreRepository persists stores. Lookups that miss return an error
// wrapping apperrors.ErrNotFound.
type StoreRepository interface {
	Create(ctx context.Context, store *domain.Store) error
	GetByID(ctx context.Context, id string) (*domain.Store, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Store, error)

	// SlugsLike returns existing slugs equal to base or of the form
	// base-<n>, for collision suffixing.
	SlugsLike(ctx context.Context, base string) ([]string, error)

	// Update writes the mutable fields of store. Slug, author and created
	// time are never written.
	Update(ctx context.Context, store *domain.Store) error

	Count(ctx context.Context) (int, error)

	// List returns stores newest first.
	List(ctx context.Context, skip, limit int) ([]domain.Store, error)

	// ListTags returns every tag in use with its store count, most used
	// first and alphabetical among equals.
	ListTags(ctx context.Context) ([]domain.TagCount, error)

	// ListByTag returns stores carrying tag, or every store with at least
	// one tag when tag is nil.
	ListByTag(ctx context.Context, tag *string) ([]domain.Store, error)

	ListByIDs(ctx context.Context, ids []string) ([]domain.Store, error)

	// Top ranks stores having at least minReviews reviews by average rating.
	Top(ctx context.Context, minReviews, limit int) ([]domain.TopStore, error)
}

// StoreSearcher answers relevance and proximity queries.
type StoreSearcher interface {
	// SearchText returns at most limit stores matching query on name or
	// description, highest score first.
	SearchText(ctx context.Context, query string, limit int) ([]domain.ScoredStore, error)

	// Near returns stores within maxMeters of p, nearest first. limit <= 0
	// means no limit, except that the Elasticsearch searcher caps every
	// query at its result window. An invalid p matches nothing.
	Near(ctx context.Context, p domain.Point, maxMeters float64, limit int) ([]domain.NearbyStore, error)
}

// UserRepository reads users and mutates their hearts set.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// ToggleHeart flips storeID's membership in the user's hearts in one
	// atomic storage operation and returns the resulting set.
	ToggleHeart(ctx context.Context, userID, storeID string) (hearts []string, hearted bool, err error)
}

type ReviewRepository interface {
	// ListByStore returns a store's reviews newest first, with Author set
	// only when includeAuthor is true.
	ListByStore(ctx context.Context, storeID string, includeAuthor bool) ([]domain.Review, error)
}
