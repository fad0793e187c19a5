package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/utafrali/StoreFinderGo/pkg/middleware"
)

// accessClaims is the payload of access tokens issued by the account
// service.
type accessClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// Validator checks HS256 access tokens. Tokens are issued elsewhere;
// this service only reads the caller's identity from them.
type Validator struct {
	secret []byte
	parser *jwt.Parser
}

func NewValidator(secret string) (*Validator, error) {
	if secret == "" {
		return nil, errors.New("auth: empty token secret")
	}
	return &Validator{
		secret: []byte(secret),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
			jwt.WithLeeway(30*time.Second),
		),
	}, nil
}

// Validate parses tokenString and returns its identity claims. The
// subject is used when the user_id claim is absent. The user id must be a
// UUID and is returned in canonical form.
func (v *Validator) Validate(tokenString string) (*middleware.Claims, error) {
	var claims accessClaims
	token, err := v.parser.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse access token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("invalid access token")
	}

	userID := claims.UserID
	if userID == "" {
		userID = claims.Subject
	}
	if userID == "" {
		return nil, errors.New("access token has no user id")
	}
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("access token user id: %w", err)
	}
	return &middleware.Claims{UserID: id.String(), Email: claims.Email}, nil
}
