package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/StoreFinderGo/internal/service"
	"github.com/utafrali/StoreFinderGo/pkg/httputil"
	"github.com/utafrali/StoreFinderGo/pkg/middleware"
)

// HeartHandler serves the hearts toggle and the hearted stores list.
type HeartHandler struct {
	service *service.StoreService
	logger  *slog.Logger
}

func NewHeartHandler(svc *service.StoreService, logger *slog.Logger) *HeartHandler {
	return &HeartHandler{service: svc, logger: logger}
}

// Toggle handles POST /api/v1/stores/{id}/heart
func (h *HeartHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, storeParam))
	if !ok {
		return
	}

	res, err := h.service.ToggleHeart(r.Context(), middleware.UserIDFromContext(r.Context()), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, res)
}

// List handles GET /api/v1/hearts
func (h *HeartHandler) List(w http.ResponseWriter, r *http.Request) {
	stores, err := h.service.ListHearts(r.Context(), middleware.UserIDFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, stores)
}
