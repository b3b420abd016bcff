package company

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/kencana-erp/kencana-erp/internal/platform/httpx"
)

// Handler exposes the company profile over JSON.
type Handler struct {
	repo   Repository
	logger *slog.Logger
}

// NewHandler constructs the handler.
func NewHandler(repo Repository, logger *slog.Logger) *Handler {
	return &Handler{repo: repo, logger: logger}
}

// MountRoutes attaches profile routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/company-profile", h.get)
	r.Put("/company-profile", h.save)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	profile, err := h.repo.Get(r.Context())
	if err != nil {
		h.logger.Error("get company profile", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, profile)
}

func (h *Handler) save(w http.ResponseWriter, r *http.Request) {
	var profile Profile
	if err := httpx.DecodeJSON(r, &profile); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "payload tidak valid")
		return
	}
	if profile.PPNRate.IsNegative() || profile.PPNRate.GreaterThan(decimal.NewFromInt(100)) {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "ppnRate harus di antara 0 dan 100")
		return
	}
	if err := h.repo.Save(r.Context(), profile); err != nil {
		h.logger.Error("save company profile", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, profile)
}
