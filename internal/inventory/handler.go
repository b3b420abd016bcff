package inventory

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

// Handler exposes the item master data and ledger operations over JSON.
type Handler struct {
	service  *Service
	logger   *slog.Logger
	validate *validator.Validate
}

// NewHandler constructs the handler.
func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger, validate: validator.New()}
}

// MountRoutes attaches inventory routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/items", func(r chi.Router) {
		r.Get("/", h.listItems)
		r.Post("/", h.saveItem)
		r.Get("/{id}", h.getItem)
		r.Put("/{id}", h.saveItem)
		r.Delete("/{id}", h.deleteItem)
		r.Post("/{id}/adjust-stock", h.adjustStock)
		r.Get("/{id}/usages", h.stockCard)
	})
	r.Post("/consumable-usages", h.recordUsage)
}

type itemRequest struct {
	ID               string          `json:"id"`
	Code             string          `json:"itemCode" validate:"required"`
	Name             string          `json:"name" validate:"required"`
	Unit             string          `json:"unit"`
	Category         Category        `json:"category" validate:"required"`
	Stock            float64         `json:"stock"`
	Price            decimal.Decimal `json:"price"`
	BOM              []BOMLine       `json:"bom"`
	PurchaseDate     *time.Time      `json:"purchaseDate"`
	PurchaseValue    decimal.Decimal `json:"purchaseValue"`
	UsefulLifeMonths int             `json:"usefulLifeMonths"`
}

type adjustStockRequest struct {
	Delta float64 `json:"delta"`
}

type usageRequest struct {
	ItemID   string    `json:"itemId" validate:"required"`
	PIC      string    `json:"pic" validate:"required"`
	Date     time.Time `json:"date"`
	Quantity float64   `json:"quantity" validate:"gt=0"`
	Notes    string    `json:"notes"`
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrValidation), errors.Is(err, ErrInvalidQuantity), errors.Is(err, ErrNotStocked):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrNegativeStock):
		httpx.Problem(w, http.StatusConflict, "Insufficient Stock", err.Error())
	default:
		h.logger.Error("inventory handler", slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}

func (h *Handler) listItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListItems(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *Handler) getItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.service.GetItem(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, item)
}

func (h *Handler) saveItem(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "payload tidak valid")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if id := chi.URLParam(r, "id"); id != "" {
		req.ID = id
	}
	item, err := h.service.SaveItem(r.Context(), Item{
		ID: req.ID, Code: req.Code, Name: req.Name, Unit: req.Unit, Category: req.Category,
		Stock: req.Stock, Price: req.Price, BOM: req.BOM,
		PurchaseDate: req.PurchaseDate, PurchaseValue: req.PurchaseValue,
		UsefulLifeMonths: req.UsefulLifeMonths,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, item)
}

func (h *Handler) deleteItem(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteItem(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) adjustStock(w http.ResponseWriter, r *http.Request) {
	var req adjustStockRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "payload tidak valid")
		return
	}
	itemID := chi.URLParam(r, "id")
	if err := h.service.AdjustStock(r.Context(), itemID, req.Delta); err != nil {
		h.respondError(w, err)
		return
	}
	item, err := h.service.GetItem(r.Context(), itemID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, item)
}

func (h *Handler) stockCard(w http.ResponseWriter, r *http.Request) {
	usages, err := h.service.StockCard(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, usages)
}

func (h *Handler) recordUsage(w http.ResponseWriter, r *http.Request) {
	var req usageRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "payload tidak valid")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	usage, err := h.service.RecordConsumableUsage(r.Context(), UsageInput{
		ItemID: req.ItemID, PIC: req.PIC, Date: req.Date, Quantity: req.Quantity, Notes: req.Notes,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, usage)
}
