package memory

import (
	"context"

	"github.com/utafrali/StoreFinderGo/internal/domain"
)

// UserRepository implements repository.UserRepository.
type UserRepository struct {
	db *DB
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if err := live(ctx, "get user"); err != nil {
		return nil, err
	}
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	u, ok := r.db.users[id]
	if !ok {
		return nil, notFound("user", id)
	}
	c := *u
	c.Hearts = append([]string{}, u.Hearts...)
	return &c, nil
}

// ToggleHeart holds the write lock across the read-modify-write.
func (r *UserRepository) ToggleHeart(ctx context.Context, userID, storeID string) ([]string, bool, error) {
	if err := live(ctx, "toggle heart"); err != nil {
		return nil, false, err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	u, ok := r.db.users[userID]
	if !ok {
		return nil, false, notFound("user", userID)
	}

	hearted := true
	next := make([]string, 0, len(u.Hearts)+1)
	for _, id := range u.Hearts {
		if id == storeID {
			hearted = false
			continue
		}
		next = append(next, id)
	}
	if hearted {
		next = append(next, storeID)
	}
	u.Hearts = next

	return append([]string{}, next...), hearted, nil
}
