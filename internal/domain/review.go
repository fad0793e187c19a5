package domain

import "time"

// Review is read-only here; reviews are authored elsewhere.
type Review struct {
	ID        string    `json:"id"`
	StoreID   string    `json:"store"`
	AuthorID  string    `json:"author_id"`
	Author    *Author   `json:"author,omitempty"`
	Text      string    `json:"text"`
	Rating    int       `json:"rating"`
	CreatedAt time.Time `json:"created"`
}

// MinRating and MaxRating bound Review.Rating.
const (
	MinRating = 1
	MaxRating = 5
)
