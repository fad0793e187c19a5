package postgres

import (
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/StoreFinderGo/internal/domain"
)

// storeFields are selected in this order by every store query; scanStore
// depends on it.
var storeFields = []string{
	"id::text", "slug", "name", "description", "tags",
	"ST_X(location::geometry)", "ST_Y(location::geometry)", "address",
	"photo", "author_id::text", "created_at",
}

// storeColumns renders storeFields qualified with alias, e.g. "s".
func storeColumns(alias string) string {
	if alias == "" {
		return strings.Join(storeFields, ", ")
	}
	cols := make([]string, len(storeFields))
	for i, f := range storeFields {
		switch {
		case strings.HasPrefix(f, "ST_"):
			cols[i] = strings.Replace(f, "(location", "("+alias+".location", 1)
		default:
			cols[i] = alias + "." + f
		}
	}
	return strings.Join(cols, ", ")
}

// pointExpr builds a geography from two nullable float parameters.
func pointExpr(lng, lat int) string {
	return fmt.Sprintf(
		"CASE WHEN $%[1]d::float8 IS NULL OR $%[2]d::float8 IS NULL THEN NULL "+
			"ELSE ST_SetSRID(ST_MakePoint($%[1]d::float8, $%[2]d::float8), 4326)::geography END",
		lng, lat,
	)
}

func locationArgs(l *domain.Location) (lng, lat *float64, address *string) {
	if !l.Valid() {
		return nil, nil, nil
	}
	p := l.Point()
	lng, lat = &p.Lng, &p.Lat
	if l.Address != "" {
		addr := l.Address
		address = &addr
	}
	return lng, lat, address
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanStore reads storeFields followed by any extra destinations.
func scanStore(row rowScanner, extra ...any) (domain.Store, error) {
	var (
		s        domain.Store
		lng, lat *float64
		address  *string
	)
	dest := []any{
		&s.ID, &s.Slug, &s.Name, &s.Description, &s.Tags,
		&lng, &lat, &address, &s.Photo, &s.AuthorID, &s.CreatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return domain.Store{}, err
	}

	if lng != nil && lat != nil {
		addr := ""
		if address != nil {
			addr = *address
		}
		s.Location = domain.NewLocation(domain.Point{Lng: *lng, Lat: *lat}, addr).Sanitize()
	}
	if s.Tags == nil {
		s.Tags = []string{}
	}
	return s, nil
}

func scanStores(rows pgx.Rows) ([]domain.Store, error) {
	defer rows.Close()

	stores := []domain.Store{}
	for rows.Next() {
		s, err := scanStore(rows)
		if err != nil {
			return nil, fmt.Errorf("scan store: %w", err)
		}
		stores = append(stores, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stores: %w", err)
	}
	return stores, nil
}
