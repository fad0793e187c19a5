package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/utafrali/StoreFinderGo/internal/domain"
	"github.com/utafrali/StoreFinderGo/pkg/database"
)

// Searcher implements repository.StoreSearcher with full-text search over
// the generated tsvector column and PostGIS distance queries.
type Searcher struct {
	db database.DBTX
}

func NewSearcher(db database.DBTX) *Searcher {
	return &Searcher{db: db}
}

var (
	searchTextSQL = `
		SELECT ` + storeColumns("") + `, ts_rank(search, q)::float8 AS score
		FROM stores, websearch_to_tsquery('english', $1) AS q
		WHERE search @@ q
		ORDER BY score DESC, created_at ASC, id ASC
		LIMIT $2`

	// LIMIT NULL means no limit.
	nearSQL = `
		SELECT ` + storeColumns("") + `,
			ST_Distance(location, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography) AS distance
		FROM stores
		WHERE location IS NOT NULL
			AND ST_DWithin(location, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography, $3)
		ORDER BY distance ASC, id ASC
		LIMIT $4`
)

// SearchText ranks stores whose name or description matches query.
func (s *Searcher) SearchText(ctx context.Context, query string, limit int) (_ []domain.ScoredStore, err error) {
	query = strings.TrimSpace(query)
	if query == "" || limit <= 0 {
		return []domain.ScoredStore{}, nil
	}

	ctx, end := database.TraceQuery(ctx, "SearchStores", searchTextSQL)
	defer func() { end(err) }()

	rows, err := s.db.Query(ctx, searchTextSQL, query, limit)
	if err != nil {
		return nil, database.Classify("search stores", fmt.Errorf("query search: %w", err))
	}
	defer rows.Close()

	hits := []domain.ScoredStore{}
	for rows.Next() {
		var h domain.ScoredStore
		if h.Store, err = scanStore(rows, &h.Score); err != nil {
			return nil, fmt.Errorf("scan search hit: %w", err)
		}
		hits = append(hits, h)
	}
	if err = rows.Err(); err != nil {
		return nil, database.Classify("search stores", fmt.Errorf("iterate search: %w", err))
	}
	return hits, nil
}

// Near returns stores within maxMeters of p, nearest first.
func (s *Searcher) Near(ctx context.Context, p domain.Point, maxMeters float64, limit int) (_ []domain.NearbyStore, err error) {
	if !p.Valid() {
		return []domain.NearbyStore{}, nil
	}

	ctx, end := database.TraceQuery(ctx, "StoresNear", nearSQL)
	defer func() { end(err) }()

	var lim *int
	if limit > 0 {
		lim = &limit
	}
	rows, err := s.db.Query(ctx, nearSQL, p.Lng, p.Lat, maxMeters, lim)
	if err != nil {
		return nil, database.Classify("stores near", fmt.Errorf("query near: %w", err))
	}
	defer rows.Close()

	hits := []domain.NearbyStore{}
	for rows.Next() {
		var h domain.NearbyStore
		if h.Store, err = scanStore(rows, &h.DistanceMeters); err != nil {
			return nil, fmt.Errorf("scan near hit: %w", err)
		}
		hits = append(hits, h)
	}
	if err = rows.Err(); err != nil {
		return nil, database.Classify("stores near", fmt.Errorf("iterate near: %w", err))
	}
	return hits, nil
}
