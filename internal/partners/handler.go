package partners

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/kencana-erp/kencana-erp/internal/platform/httpx"
	"github.com/kencana-erp/kencana-erp/internal/shared"
)

func respondLookupError(w http.ResponseWriter, err error) {
	if errors.Is(err, shared.ErrNotFound) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
		return
	}
	httpx.RespondError(w, err)
}

// Handler exposes client and vendor CRUD over JSON.
type Handler struct {
	repo     Repository
	logger   *slog.Logger
	validate *validator.Validate
}

// NewHandler constructs the handler.
func NewHandler(repo Repository, logger *slog.Logger) *Handler {
	return &Handler{repo: repo, logger: logger, validate: validator.New()}
}

// MountRoutes attaches client and vendor routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/clients", func(r chi.Router) {
		r.Get("/", h.listClients)
		r.Post("/", h.saveClient)
		r.Get("/{id}", h.getClient)
		r.Put("/{id}", h.saveClient)
		r.Delete("/{id}", h.deleteClient)
	})
	r.Route("/vendors", func(r chi.Router) {
		r.Get("/", h.listVendors)
		r.Post("/", h.saveVendor)
		r.Get("/{id}", h.getVendor)
		r.Put("/{id}", h.saveVendor)
		r.Delete("/{id}", h.deleteVendor)
	})
}

type clientRequest struct {
	ID         string `json:"id"`
	Name       string `json:"name" validate:"required"`
	Department string `json:"clientDepartment"`
	PIC        string `json:"pic"`
	Email      string `json:"clientEmail" validate:"omitempty,email"`
	Address    string `json:"address"`
	NPWP       string `json:"npwp"`
}

type vendorRequest struct {
	ID            string `json:"id"`
	Name          string `json:"name" validate:"required"`
	ContactPerson string `json:"contactPerson"`
	Phone         string `json:"phone"`
	Email         string `json:"email" validate:"omitempty,email"`
	Address       string `json:"address"`
	NPWP          string `json:"npwp"`
}

func (h *Handler) listClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.repo.ListClients(r.Context())
	if err != nil {
		h.logger.Error("list clients", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, clients)
}

func (h *Handler) getClient(w http.ResponseWriter, r *http.Request) {
	client, err := h.repo.GetClient(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondLookupError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, client)
}

func (h *Handler) saveClient(w http.ResponseWriter, r *http.Request) {
	var req clientRequest
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
	if req.ID == "" {
		req.ID = fmt.Sprintf("CL-%d", time.Now().UnixNano())
	}
	client := Client{
		ID: req.ID, Name: req.Name, Department: req.Department, PIC: req.PIC,
		Email: req.Email, Address: req.Address, NPWP: req.NPWP, CreatedAt: time.Now(),
	}
	if err := h.repo.SaveClient(r.Context(), client); err != nil {
		h.logger.Error("save client", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, client)
}

func (h *Handler) deleteClient(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.DeleteClient(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.logger.Error("delete client", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listVendors(w http.ResponseWriter, r *http.Request) {
	vendors, err := h.repo.ListVendors(r.Context())
	if err != nil {
		h.logger.Error("list vendors", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, vendors)
}

func (h *Handler) getVendor(w http.ResponseWriter, r *http.Request) {
	vendor, err := h.repo.GetVendor(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondLookupError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, vendor)
}

func (h *Handler) saveVendor(w http.ResponseWriter, r *http.Request) {
	var req vendorRequest
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
	if req.ID == "" {
		req.ID = fmt.Sprintf("VN-%d", time.Now().UnixNano())
	}
	vendor := Vendor{
		ID: req.ID, Name: req.Name, ContactPerson: req.ContactPerson, Phone: req.Phone,
		Email: req.Email, Address: req.Address, NPWP: req.NPWP, CreatedAt: time.Now(),
	}
	if err := h.repo.SaveVendor(r.Context(), vendor); err != nil {
		h.logger.Error("save vendor", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, vendor)
}

func (h *Handler) deleteVendor(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.DeleteVendor(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.logger.Error("delete vendor", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
