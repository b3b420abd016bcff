package procurement

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/kencana-erp/kencana-erp/internal/platform/httpx"
	"github.com/kencana-erp/kencana-erp/internal/shared"
)

// Handler exposes procurement over JSON.
type Handler struct {
	service  *Service
	logger   *slog.Logger
	validate *validator.Validate
}

// NewHandler constructs the handler.
func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger, validate: validator.New()}
}

// MountRoutes attaches requisition and purchase order routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/purchase-requisitions", func(r chi.Router) {
		r.Get("/", h.listPRs)
		r.Post("/", h.createPR)
		r.Get("/{id}", h.getPR)
	})
	r.Route("/purchase-orders", func(r chi.Router) {
		r.Get("/", h.listPOs)
		r.Post("/", h.createPO)
		r.Get("/{id}", h.getPO)
		r.Put("/{id}", h.updatePO)
		r.Delete("/{id}", h.deletePO)
		r.Post("/{id}/receive", h.receiveGoods)
		r.Post("/{id}/vendor-invoice", h.recordVendorInvoice)
		r.Post("/{id}/pay", h.pay)
	})
}

type prRequest struct {
	Requester     string   `json:"requester" validate:"required"`
	Justification string   `json:"justification"`
	Lines         []PRLine `json:"lines" validate:"required,min=1,dive"`
}

type poRequest struct {
	PRID     string   `json:"prId"`
	VendorID string   `json:"vendorId" validate:"required"`
	Lines    []POLine `json:"lines" validate:"required,min=1,dive"`
}

type vendorInvoiceRequest struct {
	Number string          `json:"number" validate:"required"`
	Date   time.Time       `json:"date"`
	Amount decimal.Decimal `json:"amount"`
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrValidation):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, shared.ErrInvalidState), errors.Is(err, ErrAmountMismatch):
		httpx.Problem(w, http.StatusConflict, "Invalid State", err.Error())
	default:
		h.logger.Error("procurement handler", slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}

func (h *Handler) listPRs(w http.ResponseWriter, r *http.Request) {
	prs, err := h.service.ListPRs(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	if prs == nil {
		prs = []PurchaseRequisition{}
	}
	httpx.JSON(w, http.StatusOK, prs)
}

func (h *Handler) createPR(w http.ResponseWriter, r *http.Request) {
	var req prRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "payload tidak valid")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	pr, err := h.service.CreatePR(r.Context(), CreatePRInput{
		Requester:     req.Requester,
		Justification: req.Justification,
		Lines:         req.Lines,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, pr)
}

func (h *Handler) getPR(w http.ResponseWriter, r *http.Request) {
	pr, err := h.service.GetPR(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, pr)
}

func (h *Handler) listPOs(w http.ResponseWriter, r *http.Request) {
	pos, err := h.service.ListPOs(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	if pos == nil {
		pos = []PurchaseOrder{}
	}
	httpx.JSON(w, http.StatusOK, pos)
}

func (h *Handler) createPO(w http.ResponseWriter, r *http.Request) {
	var req poRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "payload tidak valid")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	po, err := h.service.CreatePO(r.Context(), CreatePOInput{
		PRID:     req.PRID,
		VendorID: req.VendorID,
		Lines:    req.Lines,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, po)
}

func (h *Handler) getPO(w http.ResponseWriter, r *http.Request) {
	po, err := h.service.GetPO(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, po)
}

func (h *Handler) updatePO(w http.ResponseWriter, r *http.Request) {
	var req poRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "payload tidak valid")
		return
	}
	po, err := h.service.UpdatePO(r.Context(), chi.URLParam(r, "id"), UpdatePOInput{
		VendorID: req.VendorID,
		Lines:    req.Lines,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, po)
}

func (h *Handler) deletePO(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeletePO(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) receiveGoods(w http.ResponseWriter, r *http.Request) {
	po, err := h.service.ReceiveGoods(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, po)
}

func (h *Handler) recordVendorInvoice(w http.ResponseWriter, r *http.Request) {
	var req vendorInvoiceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "payload tidak valid")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	po, err := h.service.RecordVendorInvoice(r.Context(), chi.URLParam(r, "id"), VendorInvoiceInput{
		Number: req.Number,
		Date:   req.Date,
		Amount: req.Amount,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, po)
}

func (h *Handler) pay(w http.ResponseWriter, r *http.Request) {
	po, err := h.service.Pay(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, po)
}
