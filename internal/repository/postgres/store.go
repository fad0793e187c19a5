package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/StoreFinderGo/internal/domain"
	"github.com/utafrali/StoreFinderGo/pkg/database"
	apperrors "github.com/utafrali/StoreFinderGo/pkg/errors"
)

// StoreRepository implements repository.StoreRepository using PostgreSQL.
type StoreRepository struct {
	db database.DBTX
}

// NewStoreRepository creates a new PostgreSQL-backed store repository.
func NewStoreRepository(db database.DBTX) *StoreRepository {
	return &StoreRepository{db: db}
}

var (
	insertStoreSQL = `
		INSERT INTO stores (id, slug, name, description, tags, location, address, photo, author_id, created_at)
		VALUES ($1, $2, $3, $4, $5, ` + pointExpr(6, 7) + `, $8, $9, $10, $11)`

	updateStoreSQL = `
		UPDATE stores
		SET name = $2, description = $3, tags = $4, location = ` + pointExpr(5, 6) + `, address = $7, photo = $8
		WHERE id = $1`

	storeByIDSQL   = `SELECT ` + storeColumns("") + ` FROM stores WHERE id = $1`
	storeBySlugSQL = `SELECT ` + storeColumns("") + ` FROM stores WHERE slug = $1`

	slugsLikeSQL = `SELECT slug FROM stores WHERE slug = $1 OR slug ~ ('^' || $1 || '-[0-9]+$')`

	countStoresSQL = `SELECT COUNT(*) FROM stores`

	listStoresSQL = `
		SELECT ` + storeColumns("") + `
		FROM stores
		ORDER BY created_at DESC, id
		LIMIT $1 OFFSET $2`

	listTagsSQL = `
		SELECT tag, COUNT(*) AS count
		FROM stores, unnest(tags) AS tag
		GROUP BY tag
		ORDER BY count DESC, tag ASC`

	storesWithAnyTagSQL = `
		SELECT ` + storeColumns("") + `
		FROM stores
		WHERE cardinality(tags) > 0
		ORDER BY created_at DESC, id`

	storesByTagSQL = `
		SELECT ` + storeColumns("") + `
		FROM stores
		WHERE $1 = ANY(tags)
		ORDER BY created_at DESC, id`

	storesByIDsSQL = `
		SELECT ` + storeColumns("") + `
		FROM stores
		WHERE id = ANY($1::uuid[])
		ORDER BY created_at DESC, id`

	topStoresSQL = `
		SELECT ` + storeColumns("s") + `, AVG(r.rating)::float8 AS average_rating, COUNT(r.id) AS review_count
		FROM stores s
		JOIN reviews r ON r.store_id = s.id
		GROUP BY s.id
		HAVING COUNT(r.id) >= $1
		ORDER BY average_rating DESC, s.created_at DESC
		LIMIT $2`
)

// Create inserts a new store. A slug collision is reported as AlreadyExists.
func (r *StoreRepository) Create(ctx context.Context, s *domain.Store) (err error) {
	ctx, end := database.TraceQuery(ctx, "CreateStore", insertStoreSQL)
	defer func() { end(err) }()

	lng, lat, address := locationArgs(s.Location)
	_, err = r.db.Exec(ctx, insertStoreSQL,
		s.ID,
		s.Slug,
		s.Name,
		s.Description,
		nonNilTags(s.Tags),
		lng,
		lat,
		address,
		s.Photo,
		s.AuthorID,
		s.CreatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return apperrors.AlreadyExists("store", "slug", s.Slug)
		}
		return database.Classify("create store", fmt.Errorf("insert store: %w", err))
	}
	return nil
}

// GetByID retrieves a store by its ID.
func (r *StoreRepository) GetByID(ctx context.Context, id string) (*domain.Store, error) {
	return r.getOne(ctx, "GetStoreByID", storeByIDSQL, id)
}

// GetBySlug retrieves a store by its slug.
func (r *StoreRepository) GetBySlug(ctx context.Context, slug string) (*domain.Store, error) {
	return r.getOne(ctx, "GetStoreBySlug", storeBySlugSQL, slug)
}

func (r *StoreRepository) getOne(ctx context.Context, op, query, key string) (_ *domain.Store, err error) {
	ctx, end := database.TraceQuery(ctx, op, query)
	defer func() { end(err) }()

	s, err := scanStore(r.db.QueryRow(ctx, query, key))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("store", key)
		}
		return nil, database.Classify("get store", fmt.Errorf("query store: %w", err))
	}
	return &s, nil
}

func (r *StoreRepository) SlugsLike(ctx context.Context, base string) (_ []string, err error) {
	ctx, end := database.TraceQuery(ctx, "SlugsLike", slugsLikeSQL)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, slugsLikeSQL, base)
	if err != nil {
		return nil, database.Classify("list slugs", fmt.Errorf("query slugs: %w", err))
	}
	defer rows.Close()

	var slugs []string
	for rows.Next() {
		var s string
		if err = rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scan slug: %w", err)
		}
		slugs = append(slugs, s)
	}
	if err = rows.Err(); err != nil {
		return nil, database.Classify("list slugs", fmt.Errorf("iterate slugs: %w", err))
	}
	return slugs, nil
}

// Update writes the mutable store fields.
func (r *StoreRepository) Update(ctx context.Context, s *domain.Store) (err error) {
	ctx, end := database.TraceQuery(ctx, "UpdateStore", updateStoreSQL)
	defer func() { end(err) }()

	lng, lat, address := locationArgs(s.Location)
	tag, err := r.db.Exec(ctx, updateStoreSQL,
		s.ID,
		s.Name,
		s.Description,
		nonNilTags(s.Tags),
		lng,
		lat,
		address,
		s.Photo,
	)
	if err != nil {
		return database.Classify("update store", fmt.Errorf("update store: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("store", s.ID)
	}
	return nil
}

func (r *StoreRepository) Count(ctx context.Context) (_ int, err error) {
	ctx, end := database.TraceQuery(ctx, "CountStores", countStoresSQL)
	defer func() { end(err) }()

	var n int
	if err = r.db.QueryRow(ctx, countStoresSQL).Scan(&n); err != nil {
		return 0, database.Classify("count stores", fmt.Errorf("count stores: %w", err))
	}
	return n, nil
}

// List returns one page of stores, newest first.
func (r *StoreRepository) List(ctx context.Context, skip, limit int) (_ []domain.Store, err error) {
	ctx, end := database.TraceQuery(ctx, "ListStores", listStoresSQL)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, listStoresSQL, limit, skip)
	if err != nil {
		return nil, database.Classify("list stores", fmt.Errorf("query stores: %w", err))
	}
	stores, err := scanStores(rows)
	return stores, database.Classify("list stores", err)
}

func (r *StoreRepository) ListTags(ctx context.Context) (_ []domain.TagCount, err error) {
	ctx, end := database.TraceQuery(ctx, "ListTags", listTagsSQL)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, listTagsSQL)
	if err != nil {
		return nil, database.Classify("list tags", fmt.Errorf("query tags: %w", err))
	}
	defer rows.Close()

	tags := []domain.TagCount{}
	for rows.Next() {
		var tc domain.TagCount
		if err = rows.Scan(&tc.Tag, &tc.Count); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, tc)
	}
	if err = rows.Err(); err != nil {
		return nil, database.Classify("list tags", fmt.Errorf("iterate tags: %w", err))
	}
	return tags, nil
}

// ListByTag returns stores carrying tag, or all tagged stores when tag is nil.
func (r *StoreRepository) ListByTag(ctx context.Context, tag *string) (_ []domain.Store, err error) {
	query, args := storesWithAnyTagSQL, []any(nil)
	if tag != nil {
		query, args = storesByTagSQL, []any{*tag}
	}

	ctx, end := database.TraceQuery(ctx, "ListStoresByTag", query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, database.Classify("list stores by tag", fmt.Errorf("query stores by tag: %w", err))
	}
	stores, err := scanStores(rows)
	return stores, database.Classify("list stores by tag", err)
}

func (r *StoreRepository) ListByIDs(ctx context.Context, ids []string) (_ []domain.Store, err error) {
	if len(ids) == 0 {
		return []domain.Store{}, nil
	}

	ctx, end := database.TraceQuery(ctx, "ListStoresByIDs", storesByIDsSQL)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, storesByIDsSQL, ids)
	if err != nil {
		return nil, database.Classify("list stores", fmt.Errorf("query stores by ids: %w", err))
	}
	stores, err := scanStores(rows)
	return stores, database.Classify("list stores", err)
}

// Top ranks reviewed stores by average rating.
func (r *StoreRepository) Top(ctx context.Context, minReviews, limit int) (_ []domain.TopStore, err error) {
	ctx, end := database.TraceQuery(ctx, "TopStores", topStoresSQL)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, topStoresSQL, minReviews, limit)
	if err != nil {
		return nil, database.Classify("top stores", fmt.Errorf("query top stores: %w", err))
	}
	defer rows.Close()

	top := []domain.TopStore{}
	for rows.Next() {
		var t domain.TopStore
		t.Store, err = scanStore(rows, &t.AverageRating, &t.ReviewCount)
		if err != nil {
			return nil, fmt.Errorf("scan top store: %w", err)
		}
		top = append(top, t)
	}
	if err = rows.Err(); err != nil {
		return nil, database.Classify("top stores", fmt.Errorf("iterate top stores: %w", err))
	}
	return top, nil
}

func nonNilTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
