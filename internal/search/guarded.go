// Package search adapts the optional external search backend to the
// repository.StoreSearcher contract.
package search

import (
	"context"

	"github.com/utafrali/StoreFinderGo/internal/domain"
	"github.com/utafrali/StoreFinderGo/internal/repository"
	"github.com/utafrali/StoreFinderGo/pkg/breaker"
)

// Guarded runs every query through a circuit breaker. While the breaker
// is open calls fail fast with a transient error.
type Guarded struct {
	next    repository.StoreSearcher
	breaker *breaker.Breaker
}

func NewGuarded(next repository.StoreSearcher, b *breaker.Breaker) *Guarded {
	return &Guarded{next: next, breaker: b}
}

func (g *Guarded) SearchText(ctx context.Context, query string, limit int) ([]domain.ScoredStore, error) {
	return breaker.Execute(g.breaker, func() ([]domain.ScoredStore, error) {
		return g.next.SearchText(ctx, query, limit)
	})
}

func (g *Guarded) Near(ctx context.Context, p domain.Point, maxMeters float64, limit int) ([]domain.NearbyStore, error) {
	return breaker.Execute(g.breaker, func() ([]domain.NearbyStore, error) {
		return g.next.Near(ctx, p, maxMeters, limit)
	})
}
