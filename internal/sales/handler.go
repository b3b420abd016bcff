package sales

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/kencana-erp/kencana-erp/internal/finance"
	"github.com/kencana-erp/kencana-erp/internal/platform/httpx"
	"github.com/kencana-erp/kencana-erp/internal/shared"
)

// Handler exposes the sales project workflow over JSON.
type Handler struct {
	service  *Service
	logger   *slog.Logger
	validate *validator.Validate
}

// NewHandler constructs the handler.
func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger, validate: validator.New()}
}

// MountRoutes attaches project routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/projects", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/{id}", h.get)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.delete)
		r.Post("/{id}/status", h.setStatus)
		r.Get("/{id}/financials", h.financials)
		r.Get("/{id}/gates", h.gates)
		r.Post("/{id}/documents/{docType}", h.ensureDocNumber)
		r.Post("/{id}/payments", h.recordPayment)
		r.Post("/{id}/mark-proforma-paid", h.markProformaPaid)
		r.Post("/{id}/confirm-delivery", h.confirmDelivery)
	})
}

type lineItemRequest struct {
	ItemID      string          `json:"itemId" validate:"required"`
	Description string          `json:"description"`
	Quantity    float64         `json:"quantity" validate:"gt=0"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
}

type projectRequest struct {
	Subject  string            `json:"subject" validate:"required"`
	ClientID string            `json:"clientId" validate:"required"`
	Items    []lineItemRequest `json:"items" validate:"dive"`
	Details  *Details          `json:"specificDetails"`
}

type statusRequest struct {
	Status Status `json:"status" validate:"required"`
}

type paymentRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Date   time.Time       `json:"date"`
	Note   string          `json:"note"`
}

// projectView decorates a project with the resolved client name.
type projectView struct {
	Project
	ClientName string `json:"clientName"`
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrValidation):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrGateClosed),
		errors.Is(err, ErrAlreadyDeducted),
		errors.Is(err, ErrProformaAlreadyPaid),
		errors.Is(err, ErrDPNotEnabled):
		httpx.Problem(w, http.StatusConflict, "Invalid State", err.Error())
	default:
		h.logger.Error("sales handler", slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}

func toLineItems(lines []lineItemRequest) []finance.LineItem {
	items := make([]finance.LineItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, finance.LineItem{
			ItemID:      line.ItemID,
			Description: line.Description,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
		})
	}
	return items
}

func (h *Handler) view(r *http.Request, p Project) projectView {
	return projectView{Project: p, ClientName: h.service.ClientName(r.Context(), p.ClientID)}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	projects, err := h.service.ListProjects(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	views := make([]projectView, 0, len(projects))
	for _, p := range projects {
		views = append(views, h.view(r, p))
	}
	httpx.JSON(w, http.StatusOK, views)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	project, err := h.service.GetProject(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	if project == nil {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "proyek tidak ditemukan")
		return
	}
	httpx.JSON(w, http.StatusOK, h.view(r, *project))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "payload tidak valid")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	project, err := h.service.CreateProject(r.Context(), CreateProjectInput{
		Subject:  req.Subject,
		ClientID: req.ClientID,
		Items:    toLineItems(req.Items),
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, h.view(r, *project))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "payload tidak valid")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	input := UpdateProjectInput{
		Subject:  req.Subject,
		ClientID: req.ClientID,
		Items:    toLineItems(req.Items),
	}
	if req.Details != nil {
		input.Details = *req.Details
	}
	project, err := h.service.UpdateProject(r.Context(), chi.URLParam(r, "id"), input)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, h.view(r, *project))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteProject(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) setStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "payload tidak valid")
		return
	}
	project, err := h.service.SetStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, h.view(r, *project))
}

// financialsView adds the display strings document templates print.
type financialsView struct {
	finance.Summary
	FinalTotalDisplay string `json:"finalTotalDisplay"`
	AmountDueDisplay  string `json:"amountDueDisplay"`
	Terbilang         string `json:"terbilang"`
}

func (h *Handler) financials(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Financials(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, financialsView{
		Summary:           *summary,
		FinalTotalDisplay: finance.FormatIDR(summary.FinalTotal),
		AmountDueDisplay:  finance.FormatIDR(summary.AmountDue),
		Terbilang:         finance.Terbilang(summary.FinalTotal),
	})
}

func (h *Handler) gates(w http.ResponseWriter, r *http.Request) {
	gates, err := h.service.DocumentGates(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, gates)
}

func (h *Handler) ensureDocNumber(w http.ResponseWriter, r *http.Request) {
	number, err := h.service.EnsureDocumentNumber(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "docType"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"number": number})
}

func (h *Handler) recordPayment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "payload tidak valid")
		return
	}
	project, err := h.service.RecordPayment(r.Context(), chi.URLParam(r, "id"), PaymentInput{
		Amount: req.Amount,
		Date:   req.Date,
		Note:   req.Note,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, h.view(r, *project))
}

func (h *Handler) markProformaPaid(w http.ResponseWriter, r *http.Request) {
	project, err := h.service.MarkProformaPaid(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, h.view(r, *project))
}

func (h *Handler) confirmDelivery(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ConfirmDelivery(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"stockDeducted": true})
}
