package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/utafrali/StoreFinderGo/internal/domain"
	apperrors "github.com/utafrali/StoreFinderGo/pkg/errors"
)

// ToggleHeart adds storeID to the user's hearts, or removes it when
// already present. The flip happens in a single storage operation, so
// concurrent toggles never lose an update.
func (s *StoreService) ToggleHeart(ctx context.Context, userID, storeID string) (*domain.HeartResult, error) {
	storeID = strings.TrimSpace(storeID)
	if userID == "" {
		return nil, apperrors.Unauthorized("authentication required")
	}
	if storeID == "" {
		return nil, apperrors.InvalidInput("store id is required")
	}

	if _, err := within(ctx, s.cfg.StorageTimeout, func(ctx context.Context) (*domain.Store, error) {
		return s.stores.GetByID(ctx, storeID)
	}); err != nil {
		return nil, fmt.Errorf("get store to heart: %w", err)
	}

	var (
		hearts  []string
		hearted bool
	)
	err := s.exec(ctx, func(ctx context.Context) error {
		var err error
		hearts, hearted, err = s.users.ToggleHeart(ctx, userID, storeID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("toggle heart: %w", err)
	}
	s.metrics.toggled(hearted)

	if s.events != nil {
		if err := s.events.PublishHeartToggled(ctx, userID, storeID, hearts, hearted); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish heart event",
				slog.String("store_id", storeID),
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.InfoContext(ctx, "heart toggled",
		slog.String("store_id", storeID),
		slog.Bool("hearted", hearted),
	)
	return &domain.HeartResult{Hearts: hearts, Hearted: hearted}, nil
}

// ListHearts returns the stores the user has hearted, newest first.
func (s *StoreService) ListHearts(ctx context.Context, userID string) ([]domain.Store, error) {
	if userID == "" {
		return nil, apperrors.Unauthorized("authentication required")
	}

	user, err := within(ctx, s.cfg.StorageTimeout, func(ctx context.Context) (*domain.User, error) {
		return s.users.GetByID(ctx, userID)
	})
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	stores, err := within(ctx, s.cfg.StorageTimeout, func(ctx context.Context) ([]domain.Store, error) {
		return s.stores.ListByIDs(ctx, user.Hearts)
	})
	if err != nil {
		return nil, fmt.Errorf("list hearted stores: %w", err)
	}
	return stores, nil
}
