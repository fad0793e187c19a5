package memory

import (
	"context"
	"sort"

	"github.com/utafrali/StoreFinderGo/internal/domain"
)

// ReviewRepository implements repository.ReviewRepository.
type ReviewRepository struct {
	db *DB
}

func (r *ReviewRepository) ListByStore(ctx context.Context, storeID string, includeAuthor bool) ([]domain.Review, error) {
	if err := live(ctx, "list reviews"); err != nil {
		return nil, err
	}
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make([]domain.Review, 0, len(r.db.reviews[storeID]))
	for _, rv := range r.db.reviews[storeID] {
		if includeAuthor {
			if u, ok := r.db.users[rv.AuthorID]; ok {
				rv.Author = domain.AuthorOf(u)
			}
		}
		out = append(out, rv)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}
