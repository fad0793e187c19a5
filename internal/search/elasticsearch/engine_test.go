package elasticsearch

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/StoreFinderGo/internal/domain"
	apperrors "github.com/utafrali/StoreFinderGo/pkg/errors"
)

type recorded struct {
	method string
	path   string
	body   map[string]any
}

// fakeCluster answers like a single Elasticsearch node. route maps
// "METHOD /path" to a status and JSON body.
type fakeCluster struct {
	mu       sync.Mutex
	requests []recorded
	route    map[string]func() (int, string)
}

func (f *fakeCluster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	rec := recorded{method: r.Method, path: r.URL.Path}
	_ = json.Unmarshal(raw, &rec.body)
	f.mu.Lock()
	f.requests = append(f.requests, rec)
	f.mu.Unlock()

	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")

	if h, ok := f.route[r.Method+" "+r.URL.Path]; ok {
		status, body := h()
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
		return
	}
	if r.URL.Path == "/" {
		_, _ = io.WriteString(w, `{"version":{"number":"8.19.3","build_flavor":"default"},"tagline":"You Know, for Search"}`)
		return
	}
	w.WriteHeader(http.StatusNotFound)
	_, _ = io.WriteString(w, `{"error":{"type":"not_found","reason":"no route"},"status":404}`)
}

func (f *fakeCluster) last(t *testing.T) recorded {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.requests)
	return f.requests[len(f.requests)-1]
}

func newTestEngine(t *testing.T, route map[string]func() (int, string)) (*Engine, *fakeCluster) {
	t.Helper()
	fake := &fakeCluster{route: route}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	e, err := New(Config{URL: srv.URL}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return e, fake
}

func reply(status int, body string) func() (int, string) {
	return func() (int, string) { return status, body }
}

const hitSource = `{"id":"s1","slug":"corner-cafe","name":"Corner Cafe","description":"espresso",
	"tags":["coffee"],"location":{"lat":43.2,"lon":-79.8},"address":"1 King St",
	"author":"u1","created":"2025-03-01T09:00:00Z"}`

func TestEngine_SearchText(t *testing.T) {
	e, fake := newTestEngine(t, map[string]func() (int, string){
		"POST /stores/_search": reply(200, `{"hits":{"hits":[{"_score":1.7,"_source":`+hitSource+`}]}}`),
	})

	hits, err := e.SearchText(context.Background(), "espresso", 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, 1.7, hits[0].Score)
	assert.Equal(t, "corner-cafe", hits[0].Slug)
	assert.Equal(t, []float64{-79.8, 43.2}, hits[0].Location.Coordinates)
	assert.Equal(t, time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC), hits[0].CreatedAt.UTC())

	req := fake.last(t)
	assert.EqualValues(t, 5, req.body["size"])
	query := req.body["query"].(map[string]any)
	assert.Contains(t, query, "multi_match")
}

func TestEngine_SearchText_BlankQuery(t *testing.T) {
	e, fake := newTestEngine(t, nil)

	hits, err := e.SearchText(context.Background(), "  ", 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
	assert.Empty(t, fake.requests)
}

func TestEngine_Near(t *testing.T) {
	e, fake := newTestEngine(t, map[string]func() (int, string){
		"POST /stores/_search": reply(200, `{"hits":{"hits":[{"_score":null,"sort":[12.5,"s1"],"_source":`+hitSource+`}]}}`),
	})

	hits, err := e.Near(context.Background(), domain.Point{Lng: -79.8, Lat: 43.2}, 10000, 0)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, 12.5, hits[0].DistanceMeters)

	req := fake.last(t)
	assert.EqualValues(t, maxWindow, req.body["size"])
	filter := req.body["query"].(map[string]any)["bool"].(map[string]any)["filter"].(map[string]any)
	geo := filter["geo_distance"].(map[string]any)
	assert.Equal(t, "10000m", geo["distance"])
}

func TestEngine_Near_LimitCappedAtWindow(t *testing.T) {
	e, fake := newTestEngine(t, map[string]func() (int, string){
		"POST /stores/_search": reply(200, `{"hits":{"hits":[]}}`),
	})

	_, err := e.Near(context.Background(), domain.Point{Lng: -79.8, Lat: 43.2}, 500, maxWindow+1)
	require.NoError(t, err)
	assert.EqualValues(t, maxWindow, fake.last(t).body["size"])

	_, err = e.Near(context.Background(), domain.Point{Lng: -79.8, Lat: 43.2}, 500, 25)
	require.NoError(t, err)
	assert.EqualValues(t, 25, fake.last(t).body["size"])
}

func TestEngine_Near_InvalidPoint(t *testing.T) {
	e, fake := newTestEngine(t, nil)

	hits, err := e.Near(context.Background(), domain.Point{Lng: math.NaN(), Lat: 1}, 10000, 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
	assert.Empty(t, fake.requests)
}

func TestEngine_ServerErrorIsTransient(t *testing.T) {
	e, _ := newTestEngine(t, map[string]func() (int, string){
		"POST /stores/_search": reply(503, `{"error":{"type":"cluster_block_exception","reason":"blocked"},"status":503}`),
	})

	_, err := e.SearchText(context.Background(), "coffee", 5)
	require.Error(t, err)
	assert.True(t, apperrors.IsTransient(err))
	assert.Contains(t, err.Error(), "cluster_block_exception")
}

func TestEngine_BadRequestIsNotTransient(t *testing.T) {
	e, _ := newTestEngine(t, map[string]func() (int, string){
		"POST /stores/_search": reply(400, `{"error":{"type":"parsing_exception","reason":"bad"},"status":400}`),
	})

	_, err := e.SearchText(context.Background(), "coffee", 5)
	require.Error(t, err)
	assert.False(t, apperrors.IsTransient(err))
}

func TestEngine_EnsureIndexCreatesMissingIndex(t *testing.T) {
	e, fake := newTestEngine(t, map[string]func() (int, string){
		"HEAD /stores": reply(404, ``),
		"PUT /stores":  reply(200, `{"acknowledged":true}`),
	})

	require.NoError(t, e.EnsureIndex(context.Background()))

	req := fake.last(t)
	assert.Equal(t, http.MethodPut, req.method)
	mappings := req.body["mappings"].(map[string]any)["properties"].(map[string]any)
	assert.Equal(t, "geo_point", mappings["location"].(map[string]any)["type"])
}

func TestEngine_EnsureIndexExisting(t *testing.T) {
	e, fake := newTestEngine(t, map[string]func() (int, string){
		"HEAD /stores": reply(200, ``),
	})

	require.NoError(t, e.EnsureIndex(context.Background()))
	assert.Equal(t, http.MethodHead, fake.last(t).method)
}

func TestEngine_Index(t *testing.T) {
	e, fake := newTestEngine(t, map[string]func() (int, string){
		"PUT /stores/_doc/s1": reply(201, `{"result":"created"}`),
	})

	s := &domain.Store{
		ID:       "s1",
		Slug:     "corner-cafe",
		Name:     "Corner Cafe",
		Location: domain.NewLocation(domain.Point{Lng: -79.8, Lat: 43.2}, "1 King St"),
	}
	require.NoError(t, e.Index(context.Background(), s))

	req := fake.last(t)
	loc := req.body["location"].(map[string]any)
	assert.Equal(t, 43.2, loc["lat"])
	assert.Equal(t, -79.8, loc["lon"])
	assert.Equal(t, []any{}, req.body["tags"])
}

func TestDocumentDropsInvalidLocation(t *testing.T) {
	d := toDocument(&domain.Store{ID: "s1", Location: &domain.Location{Type: "Point", Coordinates: []float64{1}}})
	assert.Nil(t, d.Location)

	s := document{ID: "s1", Location: &geoPoint{Lat: 95, Lon: 0}}.store()
	assert.Nil(t, s.Location)
}
