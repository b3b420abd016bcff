package numbering

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kencana-erp/kencana-erp/internal/platform/httpx"
)

// Handler exposes the read-only counter snapshot.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

// NewHandler constructs the handler.
func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// MountRoutes attaches numbering routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/document-counters", h.counters)
}

func (h *Handler) counters(w http.ResponseWriter, r *http.Request) {
	year := time.Now().Year()
	if raw := r.URL.Query().Get("year"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "tahun tidak valid")
			return
		}
		year = parsed
	}
	counters, err := h.service.Peek(r.Context(), year)
	if err != nil {
		h.logger.Error("peek counters", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"year": year, "counters": counters})
}
