package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/utafrali/StoreFinderGo/internal/domain"
	apperrors "github.com/utafrali/StoreFinderGo/pkg/errors"
	"github.com/utafrali/StoreFinderGo/pkg/pagination"
)

// ListStores returns one page of stores, newest first. A page past the
// end is served from the last page instead, and the listing reports it
// in FallbackPage. The fallback query is issued at most once.
func (s *StoreService) ListStores(ctx context.Context, page int) (*domain.Listing, error) {
	s.metrics.request(ModeList)

	total, err := within(ctx, s.cfg.StorageTimeout, s.stores.Count)
	if err != nil {
		return nil, fmt.Errorf("count stores: %w", err)
	}

	plan := pagination.Calculate(page, total, s.cfg.PageSize)
	stores, err := s.listPage(ctx, plan)
	if err != nil {
		return nil, err
	}

	listing := &domain.Listing{
		Count:         total,
		PageCount:     plan.PageCount,
		Page:          plan.Page,
		RequestedPage: plan.Page,
	}

	if fallback, ok := plan.Fallback(len(stores)); ok {
		s.metrics.fellBack()
		s.logger.InfoContext(ctx, "requested page out of range, serving last page",
			slog.Int("requested_page", plan.Page),
			slog.Int("fallback_page", fallback),
		)
		plan = plan.Retarget(fallback)
		if stores, err = s.listPage(ctx, plan); err != nil {
			return nil, err
		}
		listing.Page = plan.Page
		listing.FallbackPage = &fallback
	}

	listing.Stores = stores
	return listing, nil
}

func (s *StoreService) listPage(ctx context.Context, plan pagination.Plan) ([]domain.Store, error) {
	stores, err := within(ctx, s.cfg.StorageTimeout, func(ctx context.Context) ([]domain.Store, error) {
		return s.stores.List(ctx, plan.Skip, plan.PageSize)
	})
	if err != nil {
		return nil, fmt.Errorf("list stores page %d: %w", plan.Page, err)
	}
	return stores, nil
}

// ListByTag returns the tag facet and the stores carrying tag. A nil or
// blank tag selects every store that has at least one tag.
func (s *StoreService) ListByTag(ctx context.Context, tag *string) (*domain.TagView, error) {
	s.metrics.request(ModeTag)

	var selected *string
	if tag != nil {
		if t := strings.TrimSpace(*tag); t != "" {
			selected = &t
		}
	}

	tags, err := within(ctx, s.cfg.StorageTimeout, s.stores.ListTags)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	stores, err := within(ctx, s.cfg.StorageTimeout, func(ctx context.Context) ([]domain.Store, error) {
		return s.stores.ListByTag(ctx, selected)
	})
	if err != nil {
		return nil, fmt.Errorf("list stores by tag: %w", err)
	}

	return &domain.TagView{Tags: tags, SelectedTag: selected, Stores: stores}, nil
}

// GetStoreBySlug returns the store with its reviews. A missing store is
// reported as found=false with a nil error.
func (s *StoreService) GetStoreBySlug(ctx context.Context, slug string, includeAuthor bool) (*domain.StoreDetail, bool, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, false, nil
	}

	store, err := within(ctx, s.cfg.StorageTimeout, func(ctx context.Context) (*domain.Store, error) {
		return s.stores.GetBySlug(ctx, slug)
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get store by slug: %w", err)
	}

	reviews, err := within(ctx, s.cfg.StorageTimeout, func(ctx context.Context) ([]domain.Review, error) {
		return s.reviews.ListByStore(ctx, store.ID, includeAuthor)
	})
	if err != nil {
		return nil, false, fmt.Errorf("list reviews: %w", err)
	}

	detail := &domain.StoreDetail{Store: *store, Reviews: reviews}
	if includeAuthor {
		author, err := within(ctx, s.cfg.StorageTimeout, func(ctx context.Context) (*domain.User, error) {
			return s.users.GetByID(ctx, store.AuthorID)
		})
		switch {
		case err == nil:
			detail.Author = domain.AuthorOf(author)
		case !errors.Is(err, apperrors.ErrNotFound):
			return nil, false, fmt.Errorf("get store author: %w", err)
		}
	}
	return detail, true, nil
}

// TopStores ranks stores with at least TopMinReviews reviews by average
// rating.
func (s *StoreService) TopStores(ctx context.Context) ([]domain.TopStore, error) {
	s.metrics.request(ModeTop)

	top, err := within(ctx, s.cfg.StorageTimeout, func(ctx context.Context) ([]domain.TopStore, error) {
		return s.stores.Top(ctx, TopMinReviews, TopLimit)
	})
	if err != nil {
		return nil, fmt.Errorf("top stores: %w", err)
	}
	return top, nil
}
