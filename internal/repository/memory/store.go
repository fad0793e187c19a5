package memory

import (
	"context"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/utafrali/StoreFinderGo/internal/domain"
	apperrors "github.com/utafrali/StoreFinderGo/pkg/errors"
)

// StoreRepository implements repository.StoreRepository and
// repository.StoreSearcher.
type StoreRepository struct {
	db *DB
}

func (r *StoreRepository) Create(ctx context.Context, s *domain.Store) error {
	if err := live(ctx, "create store"); err != nil {
		return err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, existing := range r.db.stores {
		if existing.Slug == s.Slug {
			return apperrors.AlreadyExists("store", "slug", s.Slug)
		}
	}
	c := cloneStore(s)
	r.db.stores[s.ID] = &c
	return nil
}

func (r *StoreRepository) GetByID(ctx context.Context, id string) (*domain.Store, error) {
	if err := live(ctx, "get store"); err != nil {
		return nil, err
	}
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	s, ok := r.db.stores[id]
	if !ok {
		return nil, notFound("store", id)
	}
	c := cloneStore(s)
	return &c, nil
}

func (r *StoreRepository) GetBySlug(ctx context.Context, slug string) (*domain.Store, error) {
	if err := live(ctx, "get store"); err != nil {
		return nil, err
	}
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	for _, s := range r.db.stores {
		if s.Slug == slug {
			c := cloneStore(s)
			return &c, nil
		}
	}
	return nil, notFound("store", slug)
}

func (r *StoreRepository) SlugsLike(ctx context.Context, base string) ([]string, error) {
	if err := live(ctx, "list slugs"); err != nil {
		return nil, err
	}
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var slugs []string
	for _, s := range r.db.stores {
		if s.Slug == base {
			slugs = append(slugs, s.Slug)
			continue
		}
		if rest, ok := strings.CutPrefix(s.Slug, base+"-"); ok {
			if _, err := strconv.Atoi(rest); err == nil {
				slugs = append(slugs, s.Slug)
			}
		}
	}
	sort.Strings(slugs)
	return slugs, nil
}

// Update replaces the mutable fields; slug, author and creation time are
// kept from the stored row.
func (r *StoreRepository) Update(ctx context.Context, s *domain.Store) error {
	if err := live(ctx, "update store"); err != nil {
		return err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	existing, ok := r.db.stores[s.ID]
	if !ok {
		return notFound("store", s.ID)
	}
	c := cloneStore(s)
	c.Slug, c.AuthorID, c.CreatedAt = existing.Slug, existing.AuthorID, existing.CreatedAt
	r.db.stores[s.ID] = &c
	return nil
}

func (r *StoreRepository) Count(ctx context.Context) (int, error) {
	if err := live(ctx, "count stores"); err != nil {
		return 0, err
	}
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return len(r.db.stores), nil
}

func (r *StoreRepository) List(ctx context.Context, skip, limit int) ([]domain.Store, error) {
	all, err := r.filter(ctx, "list stores", func(*domain.Store) bool { return true })
	if err != nil {
		return nil, err
	}
	if skip >= len(all) {
		return []domain.Store{}, nil
	}
	all = all[max(skip, 0):]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (r *StoreRepository) ListTags(ctx context.Context) ([]domain.TagCount, error) {
	if err := live(ctx, "list tags"); err != nil {
		return nil, err
	}
	r.db.mu.RLock()
	counts := make(map[string]int)
	for _, s := range r.db.stores {
		for _, t := range s.Tags {
			counts[t]++
		}
	}
	r.db.mu.RUnlock()

	tags := make([]domain.TagCount, 0, len(counts))
	for t, n := range counts {
		tags = append(tags, domain.TagCount{Tag: t, Count: n})
	}
	sort.Slice(tags, func(i, j int) bool {
		if tags[i].Count != tags[j].Count {
			return tags[i].Count > tags[j].Count
		}
		return tags[i].Tag < tags[j].Tag
	})
	return tags, nil
}

func (r *StoreRepository) ListByTag(ctx context.Context, tag *string) ([]domain.Store, error) {
	return r.filter(ctx, "list stores by tag", func(s *domain.Store) bool {
		if tag == nil {
			return len(s.Tags) > 0
		}
		return s.HasTag(*tag)
	})
}

func (r *StoreRepository) ListByIDs(ctx context.Context, ids []string) ([]domain.Store, error) {
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	return r.filter(ctx, "list stores", func(s *domain.Store) bool {
		_, ok := want[s.ID]
		return ok
	})
}

// filter returns copies of matching stores, newest first.
func (r *StoreRepository) filter(ctx context.Context, op string, keep func(*domain.Store) bool) ([]domain.Store, error) {
	if err := live(ctx, op); err != nil {
		return nil, err
	}
	r.db.mu.RLock()
	out := []domain.Store{}
	for _, s := range r.db.stores {
		if keep(s) {
			out = append(out, cloneStore(s))
		}
	}
	r.db.mu.RUnlock()

	newestFirst(out)
	return out, nil
}

func (r *StoreRepository) Top(ctx context.Context, minReviews, limit int) ([]domain.TopStore, error) {
	if err := live(ctx, "top stores"); err != nil {
		return nil, err
	}
	r.db.mu.RLock()
	top := []domain.TopStore{}
	for id, reviews := range r.db.reviews {
		s, ok := r.db.stores[id]
		if !ok || len(reviews) < minReviews || len(reviews) == 0 {
			continue
		}
		sum := 0
		for _, rv := range reviews {
			sum += rv.Rating
		}
		top = append(top, domain.TopStore{
			Store:         cloneStore(s),
			AverageRating: float64(sum) / float64(len(reviews)),
			ReviewCount:   len(reviews),
		})
	}
	r.db.mu.RUnlock()

	sort.Slice(top, func(i, j int) bool {
		if top[i].AverageRating != top[j].AverageRating {
			return top[i].AverageRating > top[j].AverageRating
		}
		return top[i].CreatedAt.After(top[j].CreatedAt)
	})
	if limit > 0 && len(top) > limit {
		top = top[:limit]
	}
	return top, nil
}

// SearchText scores stores by query term occurrences, counting name hits
// twice.
func (r *StoreRepository) SearchText(ctx context.Context, query string, limit int) ([]domain.ScoredStore, error) {
	q := terms(query)
	if len(q) == 0 || limit <= 0 {
		return []domain.ScoredStore{}, nil
	}
	if err := live(ctx, "search stores"); err != nil {
		return nil, err
	}

	r.db.mu.RLock()
	hits := []domain.ScoredStore{}
	for _, s := range r.db.stores {
		if score := textScore(q, s); score > 0 {
			hits = append(hits, domain.ScoredStore{Store: cloneStore(s), Score: score})
		}
	}
	r.db.mu.RUnlock()

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		if !hits[i].CreatedAt.Equal(hits[j].CreatedAt) {
			return hits[i].CreatedAt.Before(hits[j].CreatedAt)
		}
		return hits[i].ID < hits[j].ID
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func textScore(query []string, s *domain.Store) float64 {
	freq := make(map[string]float64)
	for _, t := range terms(s.Name) {
		freq[t] += 2
	}
	for _, t := range terms(s.Description) {
		freq[t]++
	}
	var score float64
	for _, t := range query {
		score += freq[t]
	}
	return score
}

// Near returns stores within maxMeters of p by haversine distance.
func (r *StoreRepository) Near(ctx context.Context, p domain.Point, maxMeters float64, limit int) ([]domain.NearbyStore, error) {
	if !p.Valid() || math.IsNaN(maxMeters) {
		return []domain.NearbyStore{}, nil
	}
	if err := live(ctx, "stores near"); err != nil {
		return nil, err
	}

	r.db.mu.RLock()
	hits := []domain.NearbyStore{}
	for _, s := range r.db.stores {
		if !s.Location.Valid() {
			continue
		}
		if d := p.DistanceMeters(s.Location.Point()); d <= maxMeters {
			hits = append(hits, domain.NearbyStore{Store: cloneStore(s), DistanceMeters: d})
		}
	}
	r.db.mu.RUnlock()

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].DistanceMeters != hits[j].DistanceMeters {
			return hits[i].DistanceMeters < hits[j].DistanceMeters
		}
		return hits[i].ID < hits[j].ID
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}
