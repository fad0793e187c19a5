package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/StoreFinderGo/internal/domain"
	apperrors "github.com/utafrali/StoreFinderGo/pkg/errors"
	"github.com/utafrali/StoreFinderGo/pkg/slug"
)

// slugAttempts bounds retries when another writer takes the computed slug
// between the lookup and the insert.
const slugAttempts = 3

const errNotOwner = "you must own a store in order to edit it"

// reservedSlugs are path segments routed ahead of /stores/{store}. A store
// whose name reduces to one of them starts at the -2 suffix.
var reservedSlugs = map[string]bool{"near": true, "top": true, "edit": true}

// CreateStore creates a store authored by authorID. The slug is derived
// from the name once; collisions get a -2, -3, ... suffix.
func (s *StoreService) CreateStore(ctx context.Context, authorID string, in domain.CreateStoreInput) (*domain.Store, error) {
	if authorID == "" {
		return nil, apperrors.Unauthorized("authentication required")
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperrors.InvalidInput("store name is required")
	}
	if in.Location != nil && !in.Location.Valid() {
		return nil, invalidLocation()
	}

	store := &domain.Store{
		ID:          uuid.New().String(),
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		Tags:        domain.NormalizeTags(in.Tags),
		Location:    in.Location.Clone(),
		Photo:       in.Photo,
		AuthorID:    authorID,
		CreatedAt:   time.Now().UTC(),
	}

	base := slug.Generate(name)
	if base == "" {
		base = "store"
	}

	var err error
	for attempt := 0; attempt < slugAttempts; attempt++ {
		var existing []string
		existing, err = within(ctx, s.cfg.StorageTimeout, func(ctx context.Context) ([]string, error) {
			return s.stores.SlugsLike(ctx, base)
		})
		if err != nil {
			return nil, fmt.Errorf("look up slugs: %w", err)
		}
		if reservedSlugs[base] {
			existing = append(existing, base)
		}
		store.Slug = slug.Unique(base, existing)

		err = s.exec(ctx, func(ctx context.Context) error { return s.stores.Create(ctx, store) })
		if !errors.Is(err, apperrors.ErrAlreadyExists) {
			break
		}
	}
	if err != nil {
		return nil, fmt.Errorf("create store: %w", err)
	}

	if s.events != nil {
		if err := s.events.PublishStoreCreated(ctx, store); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish store.created event",
				slog.String("store_id", store.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.InfoContext(ctx, "store created",
		slog.String("store_id", store.ID),
		slog.String("slug", store.Slug),
	)
	return store, nil
}

// GetStoreForEdit returns the store when userID is its author.
func (s *StoreService) GetStoreForEdit(ctx context.Context, id, userID string) (*domain.Store, error) {
	store, err := within(ctx, s.cfg.StorageTimeout, func(ctx context.Context) (*domain.Store, error) {
		return s.stores.GetByID(ctx, id)
	})
	if err != nil {
		return nil, fmt.Errorf("get store: %w", err)
	}
	if store.AuthorID != userID {
		return nil, apperrors.Forbidden(errNotOwner)
	}
	return store, nil
}

// UpdateStore applies patch when userID is the store's author. Ownership
// is checked before the patch is validated. The slug, author and creation
// time never change.
func (s *StoreService) UpdateStore(ctx context.Context, id string, patch domain.UpdateStoreInput, userID string) (*domain.Store, error) {
	store, err := s.GetStoreForEdit(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, apperrors.InvalidInput("store name must not be blank")
	}
	if patch.Location != nil && !patch.Location.Valid() {
		return nil, invalidLocation()
	}

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		patch.Name = &name
	}
	patch.Apply(store)

	if err := s.exec(ctx, func(ctx context.Context) error { return s.stores.Update(ctx, store) }); err != nil {
		return nil, fmt.Errorf("update store: %w", err)
	}

	if s.events != nil {
		if err := s.events.PublishStoreUpdated(ctx, store); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish store.updated event",
				slog.String("store_id", store.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.InfoContext(ctx, "store updated", slog.String("store_id", store.ID))
	return store, nil
}

func invalidLocation() error {
	return apperrors.InvalidInput("location must be a Point with [lng, lat] coordinates in range")
}
