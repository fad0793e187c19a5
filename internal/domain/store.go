package domain

import (
	"strings"
	"time"
)

// Store is a discoverable point of interest.
type Store struct {
	ID          string    `json:"id"`
	Slug        string    `json:"slug"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Tags        []string  `json:"tags"`
	Location    *Location `json:"location,omitempty"`
	Photo       *string   `json:"photo,omitempty"`
	AuthorID    string    `json:"author"`
	CreatedAt   time.Time `json:"created"`
}

// HasTag reports whether tag is in s.Tags.
func (s *Store) HasTag(tag string) bool {
	for _, t := range s.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// ScoredStore is a text search hit.
type ScoredStore struct {
	Store
	Score float64 `json:"score"`
}

// NearbyStore is a geo search hit.
type NearbyStore struct {
	Store
	DistanceMeters float64 `json:"distance_meters"`
}

// TagCount is one facet entry.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// TopStore is a store ranked by its review average.
type TopStore struct {
	Store
	AverageRating float64 `json:"average_rating"`
	ReviewCount   int     `json:"review_count"`
}

// CreateStoreInput holds the fields accepted when creating a store.
type CreateStoreInput struct {
	Name        string    `json:"name" validate:"required,max=200"`
	Description string    `json:"description" validate:"max=5000"`
	Tags        []string  `json:"tags" validate:"max=20,dive,required,max=50"`
	Location    *Location `json:"location"`
	Photo       *string   `json:"photo" validate:"omitempty,max=255"`
}

// UpdateStoreInput is a partial update. Nil fields are left unchanged.
// Slug, author and creation time cannot be changed.
type UpdateStoreInput struct {
	Name        *string   `json:"name" validate:"omitempty,min=1,max=200"`
	Description *string   `json:"description" validate:"omitempty,max=5000"`
	Tags        []string  `json:"tags" validate:"omitempty,max=20,dive,required,max=50"`
	Location    *Location `json:"location"`
	Photo       *string   `json:"photo" validate:"omitempty,max=255"`
}

// Apply copies the set fields of in onto s.
func (in UpdateStoreInput) Apply(s *Store) {
	if in.Name != nil {
		s.Name = *in.Name
	}
	if in.Description != nil {
		s.Description = *in.Description
	}
	if in.Tags != nil {
		s.Tags = NormalizeTags(in.Tags)
	}
	if in.Location != nil {
		s.Location = in.Location.Clone()
	}
	if in.Photo != nil {
		s.Photo = in.Photo
	}
}

// NormalizeTags trims tags and drops blanks and duplicates, keeping the
// first occurrence order.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
