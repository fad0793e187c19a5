package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/utafrali/StoreFinderGo/internal/domain"
	apperrors "github.com/utafrali/StoreFinderGo/pkg/errors"
)

// maxWindow is the largest result window Elasticsearch serves by default;
// unbounded geo queries are capped to it.
const maxWindow = 10000

type Config struct {
	URL       string
	IndexName string
	Transport http.RoundTripper
}

// Engine serves text and geo queries from an Elasticsearch index and keeps
// that index up to date. It implements repository.StoreSearcher.
type Engine struct {
	client    *elasticsearch.Client
	indexName string
	logger    *slog.Logger
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Score  *float64 `json:"_score"`
			Sort   []any    `json:"sort"`
			Source document `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

type errorResponse struct {
	Error struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error"`
}

// New creates an engine connected to cfg.URL. Call EnsureIndex before use.
func New(cfg Config, logger *slog.Logger) (*Engine, error) {
	if cfg.IndexName == "" {
		cfg.IndexName = DefaultIndexName
	}
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Transport: cfg.Transport,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch: create client: %w", err)
	}
	return &Engine{client: client, indexName: cfg.IndexName, logger: logger}, nil
}

// Ping checks whether the cluster is reachable.
func (e *Engine) Ping(ctx context.Context) error {
	res, err := e.client.Ping(e.client.Ping.WithContext(ctx))
	if err != nil {
		return apperrors.Transient("search", fmt.Errorf("elasticsearch ping: %w", err))
	}
	defer func() { _ = res.Body.Close() }()
	return responseError("elasticsearch ping", res)
}

// EnsureIndex creates the store index with its mapping when missing.
func (e *Engine) EnsureIndex(ctx context.Context) error {
	res, err := e.client.Indices.Exists([]string{e.indexName}, e.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("check index exists: %w", err)
	}
	_ = res.Body.Close()
	if res.StatusCode == http.StatusOK {
		e.logger.Info("elasticsearch index already exists", slog.String("index", e.indexName))
		return nil
	}

	res, err = e.client.Indices.Create(
		e.indexName,
		e.client.Indices.Create.WithBody(strings.NewReader(indexMapping)),
		e.client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	defer func() { _ = res.Body.Close() }()
	if err := responseError("create index", res); err != nil {
		return err
	}

	e.logger.Info("elasticsearch index created", slog.String("index", e.indexName))
	return nil
}

// Index adds or replaces one store document.
func (e *Engine) Index(ctx context.Context, s *domain.Store) error {
	data, err := json.Marshal(toDocument(s))
	if err != nil {
		return fmt.Errorf("elasticsearch index: marshal store: %w", err)
	}

	res, err := e.client.Index(
		e.indexName,
		bytes.NewReader(data),
		e.client.Index.WithDocumentID(s.ID),
		e.client.Index.WithRefresh("true"),
		e.client.Index.WithContext(ctx),
	)
	if err != nil {
		return apperrors.Transient("search index", fmt.Errorf("elasticsearch index: %w", err))
	}
	defer func() { _ = res.Body.Close() }()
	if err := responseError("elasticsearch index", res); err != nil {
		return err
	}

	e.logger.DebugContext(ctx, "indexed store", slog.String("id", s.ID), slog.String("slug", s.Slug))
	return nil
}

// SearchText runs a multi_match over name and description.
func (e *Engine) SearchText(ctx context.Context, query string, limit int) ([]domain.ScoredStore, error) {
	query = strings.TrimSpace(query)
	if query == "" || limit <= 0 {
		return []domain.ScoredStore{}, nil
	}

	body := map[string]any{
		"size": limit,
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  query,
				"fields": []string{"name^2", "description"},
				"type":   "most_fields",
			},
		},
		"sort": []any{
			map[string]any{"_score": "desc"},
			map[string]any{"created": "asc"},
			map[string]any{"id": "asc"},
		},
		"track_scores": true,
	}

	resp, err := e.search(ctx, body)
	if err != nil {
		return nil, err
	}

	hits := make([]domain.ScoredStore, 0, len(resp.Hits.Hits))
	for _, h := range resp.Hits.Hits {
		hit := domain.ScoredStore{Store: h.Source.store()}
		if h.Score != nil {
			hit.Score = *h.Score
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

// Near filters by geo_distance and sorts by arc distance in meters. Unlike
// the Postgres and memory searchers it never returns more than maxWindow
// stores: limit <= 0 and limits above maxWindow both mean maxWindow.
func (e *Engine) Near(ctx context.Context, p domain.Point, maxMeters float64, limit int) ([]domain.NearbyStore, error) {
	if !p.Valid() {
		return []domain.NearbyStore{}, nil
	}
	if limit <= 0 || limit > maxWindow {
		limit = maxWindow
	}

	origin := map[string]any{"lat": p.Lat, "lon": p.Lng}
	body := map[string]any{
		"size": limit,
		"query": map[string]any{
			"bool": map[string]any{
				"filter": map[string]any{
					"geo_distance": map[string]any{
						"distance": strconv.FormatFloat(maxMeters, 'f', -1, 64) + "m",
						"location": origin,
					},
				},
			},
		},
		"sort": []any{
			map[string]any{
				"_geo_distance": map[string]any{
					"location":      origin,
					"order":         "asc",
					"unit":          "m",
					"distance_type": "arc",
				},
			},
			map[string]any{"id": "asc"},
		},
	}

	resp, err := e.search(ctx, body)
	if err != nil {
		return nil, err
	}

	hits := make([]domain.NearbyStore, 0, len(resp.Hits.Hits))
	for _, h := range resp.Hits.Hits {
		hit := domain.NearbyStore{Store: h.Source.store()}
		if len(h.Sort) > 0 {
			if d, ok := h.Sort[0].(float64); ok {
				hit.DistanceMeters = d
			}
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

func (e *Engine) search(ctx context.Context, body map[string]any) (*searchResponse, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch search: marshal query: %w", err)
	}

	res, err := e.client.Search(
		e.client.Search.WithIndex(e.indexName),
		e.client.Search.WithBody(bytes.NewReader(data)),
		e.client.Search.WithContext(ctx),
	)
	if err != nil {
		return nil, apperrors.Transient("search", fmt.Errorf("elasticsearch search: %w", err))
	}
	defer func() { _ = res.Body.Close() }()
	if err := responseError("elasticsearch search", res); err != nil {
		return nil, err
	}

	var out searchResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("elasticsearch search: decode response: %w", err)
	}
	return &out, nil
}

// responseError converts an error response into an error. Overload and
// server-side statuses are transient.
func responseError(op string, res *esapi.Response) error {
	if !res.IsError() {
		return nil
	}

	var err error
	var body errorResponse
	raw, _ := io.ReadAll(res.Body)
	if json.Unmarshal(raw, &body) == nil && body.Error.Type != "" {
		err = fmt.Errorf("%s: %s: %s", op, body.Error.Type, body.Error.Reason)
	} else {
		err = fmt.Errorf("%s: unexpected status %s", op, res.Status())
	}

	if res.StatusCode == http.StatusTooManyRequests || res.StatusCode >= http.StatusInternalServerError {
		return apperrors.Transient("search", err)
	}
	return err
}
