package postgres

import (
	"context"
	"fmt"

	"github.com/utafrali/StoreFinderGo/internal/domain"
	"github.com/utafrali/StoreFinderGo/pkg/database"
)

// ReviewRepository reads reviews. Writes happen outside this service.
type ReviewRepository struct {
	db database.DBTX
}

func NewReviewRepository(db database.DBTX) *ReviewRepository {
	return &ReviewRepository{db: db}
}

const (
	reviewsByStoreSQL = `
		SELECT r.id::text, r.store_id::text, r.author_id::text, r.text, r.rating, r.created_at
		FROM reviews r
		WHERE r.store_id = $1
		ORDER BY r.created_at DESC, r.id`

	reviewsWithAuthorSQL = `
		SELECT r.id::text, r.store_id::text, r.author_id::text, r.text, r.rating, r.created_at,
			u.name, u.email
		FROM reviews r
		LEFT JOIN users u ON u.id = r.author_id
		WHERE r.store_id = $1
		ORDER BY r.created_at DESC, r.id`
)

// ListByStore returns reviews newest first. The author join only runs
// when includeAuthor is set.
func (r *ReviewRepository) ListByStore(ctx context.Context, storeID string, includeAuthor bool) (_ []domain.Review, err error) {
	query := reviewsByStoreSQL
	if includeAuthor {
		query = reviewsWithAuthorSQL
	}

	ctx, end := database.TraceQuery(ctx, "ListReviewsByStore", query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query, storeID)
	if err != nil {
		return nil, database.Classify("list reviews", fmt.Errorf("query reviews: %w", err))
	}
	defer rows.Close()

	reviews := []domain.Review{}
	for rows.Next() {
		var (
			rv          domain.Review
			name, email *string
		)
		dest := []any{&rv.ID, &rv.StoreID, &rv.AuthorID, &rv.Text, &rv.Rating, &rv.CreatedAt}
		if includeAuthor {
			dest = append(dest, &name, &email)
		}
		if err = rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		if name != nil && email != nil {
			rv.Author = domain.AuthorOf(&domain.User{ID: rv.AuthorID, Name: *name, Email: *email})
		}
		reviews = append(reviews, rv)
	}
	if err = rows.Err(); err != nil {
		return nil, database.Classify("list reviews", fmt.Errorf("iterate reviews: %w", err))
	}
	return reviews, nil
}
