package assist

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/kencana-erp/kencana-erp/internal/platform/httpx"
	"github.com/kencana-erp/kencana-erp/internal/shared"
)

// MailerPort queues a drafted email for delivery.
type MailerPort interface {
	SendDraft(ctx context.Context, to, subject, body string) error
}

// Handler exposes the assistant over JSON.
type Handler struct {
	service  *Service
	mailer   MailerPort
	logger   *slog.Logger
	validate *validator.Validate
}

// NewHandler constructs the handler. mailer may be nil when the job queue is
// down; drafts are still returned, just not queued.
func NewHandler(service *Service, mailer MailerPort, logger *slog.Logger) *Handler {
	return &Handler{service: service, mailer: mailer, logger: logger, validate: validator.New()}
}

// MountRoutes attaches assistant routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/assist", func(r chi.Router) {
		r.Post("/draft-email", h.draftEmail)
		r.Post("/suggest-bom", h.suggestBOM)
		r.Post("/recommend-components", h.recommendComponents)
	})
}

type draftEmailRequest struct {
	Recipient string   `json:"recipient"`
	To        string   `json:"to" validate:"omitempty,email"`
	Subject   string   `json:"subject" validate:"required"`
	Points    []string `json:"points"`
	Send      bool     `json:"send"`
}

type suggestBOMRequest struct {
	Description string `json:"description" validate:"required"`
}

type recommendRequest struct {
	Requirement string `json:"requirement" validate:"required"`
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrValidation):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrEmptyResponse):
		httpx.Problem(w, http.StatusBadGateway, "Bad Gateway", err.Error())
	default:
		h.logger.Error("assist handler", slog.Any("error", err))
		httpx.Problem(w, http.StatusBadGateway, "Bad Gateway", "layanan asisten sedang tidak tersedia")
	}
}

func (h *Handler) draftEmail(w http.ResponseWriter, r *http.Request) {
	var req draftEmailRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "payload tidak valid")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	draft, err := h.service.DraftEmail(r.Context(), DraftEmailInput{
		Recipient: req.Recipient,
		Subject:   req.Subject,
		Points:    req.Points,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	queued := false
	if req.Send && req.To != "" {
		if h.mailer == nil {
			httpx.Problem(w, http.StatusServiceUnavailable, "Service Unavailable", "antrian email sedang tidak tersedia")
			return
		}
		if err := h.mailer.SendDraft(r.Context(), req.To, req.Subject, draft); err != nil {
			h.logger.Error("queue draft email", slog.Any("error", err))
			httpx.Problem(w, http.StatusServiceUnavailable, "Service Unavailable", "antrian email sedang tidak tersedia")
			return
		}
		queued = true
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"draft": draft, "queued": queued})
}

func (h *Handler) suggestBOM(w http.ResponseWriter, r *http.Request) {
	var req suggestBOMRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "payload tidak valid")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	suggestions, err := h.service.SuggestBOM(r.Context(), req.Description)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, suggestions)
}

func (h *Handler) recommendComponents(w http.ResponseWriter, r *http.Request) {
	var req recommendRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "payload tidak valid")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	rec, err := h.service.RecommendComponents(r.Context(), req.Requirement)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rec)
}
