package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/utafrali/StoreFinderGo/internal/domain"
)

// SearchStores ranks stores by text relevance. A blank query returns an
// empty result without touching storage.
func (s *StoreService) SearchStores(ctx context.Context, query string) ([]domain.ScoredStore, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.ScoredStore{}, nil
	}
	s.metrics.request(ModeSearch)

	hits, err := within(ctx, s.cfg.StorageTimeout, func(ctx context.Context) ([]domain.ScoredStore, error) {
		return s.searcher.SearchText(ctx, query, s.cfg.SearchLimit)
	})
	if err != nil {
		return nil, fmt.Errorf("search stores: %w", err)
	}
	return hits, nil
}

// StoresNear returns every store within the configured radius of p,
// nearest first. An invalid point matches nothing.
func (s *StoreService) StoresNear(ctx context.Context, p domain.Point) ([]domain.NearbyStore, error) {
	s.metrics.request(ModeNear)
	return s.near(ctx, p, 0)
}

// StoresNearLite is StoresNear capped at the lite limit and projected to
// the lite field set.
func (s *StoreService) StoresNearLite(ctx context.Context, p domain.Point) ([]map[string]any, error) {
	s.metrics.request(ModeLite)

	hits, err := s.near(ctx, p, s.cfg.LiteLimit)
	if err != nil {
		return nil, err
	}
	out := make([]map[string]any, len(hits))
	for i := range hits {
		out[i] = s.cfg.LiteProjection.Apply(&hits[i])
	}
	return out, nil
}

func (s *StoreService) near(ctx context.Context, p domain.Point, limit int) ([]domain.NearbyStore, error) {
	if !p.Valid() {
		return []domain.NearbyStore{}, nil
	}
	hits, err := within(ctx, s.cfg.StorageTimeout, func(ctx context.Context) ([]domain.NearbyStore, error) {
		return s.searcher.Near(ctx, p, s.cfg.MaxDistanceMeters, limit)
	})
	if err != nil {
		return nil, fmt.Errorf("stores near: %w", err)
	}
	return hits, nil
}
