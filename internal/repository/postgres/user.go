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

// UserRepository implements repository.UserRepository using PostgreSQL.
type UserRepository struct {
	db database.DBTX
}

func NewUserRepository(db database.DBTX) *UserRepository {
	return &UserRepository{db: db}
}

const (
	userByIDSQL = `SELECT id::text, email, name, hearts::text[] FROM users WHERE id = $1`

	// RETURNING sees the updated row, so the membership test reflects the
	// new set. The UPDATE row lock serialises concurrent toggles.
	toggleHeartSQL = `
		UPDATE users
		SET hearts = CASE
			WHEN $2::uuid = ANY(hearts) THEN array_remove(hearts, $2::uuid)
			ELSE array_append(hearts, $2::uuid)
		END
		WHERE id = $1
		RETURNING hearts::text[], $2::uuid = ANY(hearts)`
)

func (r *UserRepository) GetByID(ctx context.Context, id string) (_ *domain.User, err error) {
	ctx, end := database.TraceQuery(ctx, "GetUserByID", userByIDSQL)
	defer func() { end(err) }()

	var u domain.User
	err = r.db.QueryRow(ctx, userByIDSQL, id).Scan(&u.ID, &u.Email, &u.Name, &u.Hearts)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("user", id)
		}
		return nil, database.Classify("get user", fmt.Errorf("query user: %w", err))
	}
	if u.Hearts == nil {
		u.Hearts = []string{}
	}
	return &u, nil
}

// ToggleHeart flips storeID in the user's hearts with a single statement.
func (r *UserRepository) ToggleHeart(ctx context.Context, userID, storeID string) (_ []string, _ bool, err error) {
	ctx, end := database.TraceQuery(ctx, "ToggleHeart", toggleHeartSQL)
	defer func() { end(err) }()

	var (
		hearts  []string
		hearted bool
	)
	err = r.db.QueryRow(ctx, toggleHeartSQL, userID, storeID).Scan(&hearts, &hearted)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, apperrors.NotFound("user", userID)
		}
		return nil, false, database.Classify("toggle heart", fmt.Errorf("toggle heart: %w", err))
	}
	if hearts == nil {
		hearts = []string{}
	}
	return hearts, hearted, nil
}
