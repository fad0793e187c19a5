package elasticsearch

import (
	"time"

	"github.com/utafrali/StoreFinderGo/internal/domain"
)

type geoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// document is the indexed form of a store. Elasticsearch geo_point wants
// lat/lon objects rather than GeoJSON.
type document struct {
	ID          string    `json:"id"`
	Slug        string    `json:"slug"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Tags        []string  `json:"tags"`
	Location    *geoPoint `json:"location,omitempty"`
	Address     string    `json:"address,omitempty"`
	Photo       *string   `json:"photo,omitempty"`
	AuthorID    string    `json:"author"`
	CreatedAt   time.Time `json:"created"`
}

func toDocument(s *domain.Store) document {
	d := document{
		ID:          s.ID,
		Slug:        s.Slug,
		Name:        s.Name,
		Description: s.Description,
		Tags:        s.Tags,
		Photo:       s.Photo,
		AuthorID:    s.AuthorID,
		CreatedAt:   s.CreatedAt,
	}
	if s.Location.Valid() {
		p := s.Location.Point()
		d.Location = &geoPoint{Lat: p.Lat, Lon: p.Lng}
		d.Address = s.Location.Address
	}
	if d.Tags == nil {
		d.Tags = []string{}
	}
	return d
}

func (d document) store() domain.Store {
	s := domain.Store{
		ID:          d.ID,
		Slug:        d.Slug,
		Name:        d.Name,
		Description: d.Description,
		Tags:        d.Tags,
		Photo:       d.Photo,
		AuthorID:    d.AuthorID,
		CreatedAt:   d.CreatedAt,
	}
	if d.Location != nil {
		s.Location = domain.NewLocation(domain.Point{Lng: d.Location.Lon, Lat: d.Location.Lat}, d.Address).Sanitize()
	}
	if s.Tags == nil {
		s.Tags = []string{}
	}
	return s
}
