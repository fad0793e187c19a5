// Package memory holds an in-process implementation of the repository
// interfaces, used for local development and tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/utafrali/StoreFinderGo/internal/domain"
	"github.com/utafrali/StoreFinderGo/pkg/database"
	apperrors "github.com/utafrali/StoreFinderGo/pkg/errors"
)

// DB is the shared state behind the memory repositories. Every operation
// takes the one lock, so a toggle's read-modify-write is atomic.
type DB struct {
	mu      sync.RWMutex
	stores  map[string]*domain.Store
	users   map[string]*domain.User
	reviews map[string][]domain.Review
}

func New() *DB {
	return &DB{
		stores:  make(map[string]*domain.Store),
		users:   make(map[string]*domain.User),
		reviews: make(map[string][]domain.Review),
	}
}

func (db *DB) Stores() *StoreRepository   { return &StoreRepository{db: db} }
func (db *DB) Users() *UserRepository     { return &UserRepository{db: db} }
func (db *DB) Reviews() *ReviewRepository { return &ReviewRepository{db: db} }

// PutUser inserts or replaces a user. Users are provisioned outside this
// service, so there is no repository method for it.
func (db *DB) PutUser(u domain.User) {
	db.mu.Lock()
	defer db.mu.Unlock()
	u.Email = domain.NormalizeEmail(u.Email)
	u.Hearts = append([]string{}, u.Hearts...)
	db.users[u.ID] = &u
}

// PutReview appends a review to its store.
func (db *DB) PutReview(r domain.Review) {
	db.mu.Lock()
	defer db.mu.Unlock()
	r.Author = nil
	db.reviews[r.StoreID] = append(db.reviews[r.StoreID], r)
}

func live(ctx context.Context, op string) error {
	return database.Classify(op, ctx.Err())
}

func cloneStore(s *domain.Store) domain.Store {
	c := *s
	c.Tags = append([]string{}, s.Tags...)
	c.Location = s.Location.Clone()
	if s.Photo != nil {
		p := *s.Photo
		c.Photo = &p
	}
	return c
}

// newestFirst orders by creation time descending, id ascending among equals.
func newestFirst(stores []domain.Store) {
	sort.SliceStable(stores, func(i, j int) bool {
		if !stores[i].CreatedAt.Equal(stores[j].CreatedAt) {
			return stores[i].CreatedAt.After(stores[j].CreatedAt)
		}
		return stores[i].ID < stores[j].ID
	})
}

// terms lowercases s and splits it on anything that is not a letter or digit.
func terms(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func notFound(resource, id string) error {
	return apperrors.NotFound(resource, id)
}
