package domain

import "fmt"

// DefaultLiteFields is the projection served by the lightweight nearby
// endpoint.
var DefaultLiteFields = []string{"slug", "name", "description", "location", "photo"}

// Projection selects which store fields a lightweight response carries.
type Projection struct {
	fields []string
}

var projectable = map[string]func(*NearbyStore) any{
	"id":              func(s *NearbyStore) any { return s.ID },
	"slug":            func(s *NearbyStore) any { return s.Slug },
	"name":            func(s *NearbyStore) any { return s.Name },
	"description":     func(s *NearbyStore) any { return s.Description },
	"tags":            func(s *NearbyStore) any { return s.Tags },
	"location":        func(s *NearbyStore) any { return s.Location },
	"photo":           func(s *NearbyStore) any { return s.Photo },
	"author":          func(s *NearbyStore) any { return s.AuthorID },
	"created":         func(s *NearbyStore) any { return s.CreatedAt },
	"distance_meters": func(s *NearbyStore) any { return s.DistanceMeters },
}

// NewProjection validates fields against the known store fields.
func NewProjection(fields []string) (Projection, error) {
	if len(fields) == 0 {
		fields = DefaultLiteFields
	}
	for _, f := range fields {
		if _, ok := projectable[f]; !ok {
			return Projection{}, fmt.Errorf("unknown projection field %q", f)
		}
	}
	return Projection{fields: append([]string(nil), fields...)}, nil
}

// Fields returns the projected field names.
func (p Projection) Fields() []string {
	return append([]string(nil), p.fields...)
}

// Apply renders s with only the projected fields.
func (p Projection) Apply(s *NearbyStore) map[string]any {
	fields := p.fields
	if len(fields) == 0 {
		fields = DefaultLiteFields
	}
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		out[f] = projectable[f](s)
	}
	return out
}
