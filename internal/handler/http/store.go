package http

import (
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/StoreFinderGo/internal/domain"
	"github.com/utafrali/StoreFinderGo/internal/service"
	apperrors "github.com/utafrali/StoreFinderGo/pkg/errors"
	"github.com/utafrali/StoreFinderGo/pkg/httputil"
	"github.com/utafrali/StoreFinderGo/pkg/middleware"
	"github.com/utafrali/StoreFinderGo/pkg/pagination"
)

// storeParam is the path segment naming a store: a slug on the public
// detail route and a store id everywhere else. chi requires one name per
// segment position.
const storeParam = "store"

// StoreHandler serves the discovery and store editing endpoints.
type StoreHandler struct {
	service *service.StoreService
	logger  *slog.Logger
}

func NewStoreHandler(svc *service.StoreService, logger *slog.Logger) *StoreHandler {
	return &StoreHandler{service: svc, logger: logger}
}

// List handles GET /api/v1/stores?page=N
func (h *StoreHandler) List(w http.ResponseWriter, r *http.Request) {
	listing, err := h.service.ListStores(r.Context(), pagination.PageFromRequest(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if listing.FallbackPage != nil {
		w.Header().Set(middleware.FallbackPageHeader, strconv.Itoa(*listing.FallbackPage))
	}
	httputil.WriteData(w, http.StatusOK, listing)
}

// Get handles GET /api/v1/stores/{slug}
func (h *StoreHandler) Get(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, storeParam)
	includeAuthor, _ := strconv.ParseBool(r.URL.Query().Get("include_author"))

	detail, found, err := h.service.GetStoreBySlug(r.Context(), slug, includeAuthor)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if !found {
		httputil.WriteError(w, r, apperrors.NotFound("store", slug), h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, detail)
}

// Tags handles GET /api/v1/tags and GET /api/v1/tags/{tag}
func (h *StoreHandler) Tags(w http.ResponseWriter, r *http.Request) {
	var tag *string
	if raw := chi.URLParam(r, "tag"); raw != "" {
		t, err := url.PathUnescape(raw)
		if err != nil {
			t = raw
		}
		tag = &t
	}

	view, err := h.service.ListByTag(r.Context(), tag)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, view)
}

// Search handles GET /api/v1/search?q=
func (h *StoreHandler) Search(w http.ResponseWriter, r *http.Request) {
	hits, err := h.service.SearchStores(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, hits)
}

// Near handles GET /api/v1/stores/near?lng=&lat= with the lite projection.
func (h *StoreHandler) Near(w http.ResponseWriter, r *http.Request) {
	hits, err := h.service.StoresNearLite(r.Context(), pointFromQuery(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, hits)
}

// Map handles GET /api/v1/map?lng=&lat= with full store documents.
func (h *StoreHandler) Map(w http.ResponseWriter, r *http.Request) {
	hits, err := h.service.StoresNear(r.Context(), pointFromQuery(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, hits)
}

// Top handles GET /api/v1/stores/top
func (h *StoreHandler) Top(w http.ResponseWriter, r *http.Request) {
	top, err := h.service.TopStores(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, top)
}

// Create handles POST /api/v1/stores
func (h *StoreHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateStoreInput
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	store, err := h.service.CreateStore(r.Context(), middleware.UserIDFromContext(r.Context()), req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusCreated, store)
}

// Edit handles GET /api/v1/stores/{id}/edit
func (h *StoreHandler) Edit(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, storeParam))
	if !ok {
		return
	}

	store, err := h.service.GetStoreForEdit(r.Context(), id.String(), middleware.UserIDFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, store)
}

// Update handles PUT /api/v1/stores/{id}
func (h *StoreHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, storeParam))
	if !ok {
		return
	}

	var req domain.UpdateStoreInput
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	store, err := h.service.UpdateStore(r.Context(), id.String(), req, middleware.UserIDFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, store)
}

func pointFromQuery(r *http.Request) domain.Point {
	q := r.URL.Query()
	return domain.ParsePoint(q.Get("lng"), q.Get("lat"))
}
