package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/kencana-erp/kencana-erp/internal/assist"
	"github.com/kencana-erp/kencana-erp/internal/company"
	"github.com/kencana-erp/kencana-erp/internal/dashboard"
	"github.com/kencana-erp/kencana-erp/internal/inventory"
	"github.com/kencana-erp/kencana-erp/internal/numbering"
	"github.com/kencana-erp/kencana-erp/internal/observability"
	"github.com/kencana-erp/kencana-erp/internal/partners"
	"github.com/kencana-erp/kencana-erp/internal/planner"
	"github.com/kencana-erp/kencana-erp/internal/procurement"
	"github.com/kencana-erp/kencana-erp/internal/sales"
	"github.com/kencana-erp/kencana-erp/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger             *slog.Logger
	Config             *Config
	SalesHandler       *sales.Handler
	InventoryHandler   *inventory.Handler
	ProcurementHandler *procurement.Handler
	PartnersHandler    *partners.Handler
	CompanyHandler     *company.Handler
	PlannerHandler     *planner.Handler
	NumberingHandler   *numbering.Handler
	AssistHandler      *assist.Handler
	DashboardHandler   *dashboard.Handler
	JobHandler         *jobs.Handler
	Metrics            *observability.Metrics
}

// NewRouter constructs the chi.Router with application defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {
		params.SalesHandler.MountRoutes(r)
		params.InventoryHandler.MountRoutes(r)
		params.ProcurementHandler.MountRoutes(r)
		params.PartnersHandler.MountRoutes(r)
		params.CompanyHandler.MountRoutes(r)
		params.PlannerHandler.MountRoutes(r)
		params.NumberingHandler.MountRoutes(r)
		if params.AssistHandler != nil {
			params.AssistHandler.MountRoutes(r)
		}
		params.DashboardHandler.MountRoutes(r)
	})

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
