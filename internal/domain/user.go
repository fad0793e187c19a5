package domain

import (
	"crypto/md5" // #nosec G501 -- gravatar addresses are md5 by definition
	"encoding/hex"
	"fmt"
	"strings"
)

// User is an account that can author stores and heart them.
type User struct {
	ID     string   `json:"id"`
	Email  string   `json:"email"`
	Name   string   `json:"name"`
	Hearts []string `json:"hearts"`
}

// NormalizeEmail lowercases and trims an address; emails are unique
// case-insensitively.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// GravatarURL returns the avatar image URL for the user's email.
func (u *User) GravatarURL() string {
	sum := md5.Sum([]byte(NormalizeEmail(u.Email))) // #nosec G401
	return fmt.Sprintf("https://gravatar.com/avatar/%s?s=200", hex.EncodeToString(sum[:]))
}

// HasHeart reports whether storeID is in the user's hearts set.
func (u *User) HasHeart(storeID string) bool {
	for _, id := range u.Hearts {
		if id == storeID {
			return true
		}
	}
	return false
}

// Author is the public view of a user attached to reviews and stores.
type Author struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

// AuthorOf projects u for public display.
func AuthorOf(u *User) *Author {
	return &Author{ID: u.ID, Name: u.Name, Avatar: u.GravatarURL()}
}
