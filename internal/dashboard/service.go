// Package dashboard aggregates headline numbers from the other modules.
package dashboard

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/kencana-erp/kencana-erp/internal/inventory"
	"github.com/kencana-erp/kencana-erp/internal/partners"
	"github.com/kencana-erp/kencana-erp/internal/procurement"
	"github.com/kencana-erp/kencana-erp/internal/sales"
)

// ProjectsPort lists sales projects.
type ProjectsPort interface {
	ListProjects(ctx context.Context) ([]sales.Project, error)
}

// ContactsPort lists clients and vendors.
type ContactsPort interface {
	ListClients(ctx context.Context) ([]partners.Client, error)
	ListVendors(ctx context.Context) ([]partners.Vendor, error)
}

// ProcurementPort lists requisitions and orders.
type ProcurementPort interface {
	ListPRs(ctx context.Context) ([]procurement.PurchaseRequisition, error)
	ListPOs(ctx context.Context) ([]procurement.PurchaseOrder, error)
}

// InventoryPort lists items for the low-stock indicator.
type InventoryPort interface {
	ListItems(ctx context.Context) ([]inventory.Item, error)
}

// Summary is the dashboard payload.
type Summary struct {
	ActiveProjects  int `json:"activeProjects"`
	TotalProjects   int `json:"totalProjects"`
	Clients         int `json:"clients"`
	Vendors         int `json:"vendors"`
	PendingPRs      int `json:"pendingPRs"`
	OpenPOs         int `json:"openPOs"`
	LowStockItems   int `json:"lowStockItems"`
	UnpaidProjects  int `json:"unpaidProjects"`
	DeliveredAwaits int `json:"deliveredAwaitingPayment"`
}

// LowStockThreshold marks stocked items that need reordering.
const LowStockThreshold = 5

// Service fans the module queries out in parallel and folds the counts.
type Service struct {
	projects    ProjectsPort
	contacts    ContactsPort
	procurement ProcurementPort
	inventory   InventoryPort
}

// NewService wires the dashboard.
func NewService(projects ProjectsPort, contacts ContactsPort, proc ProcurementPort, inv InventoryPort) *Service {
	return &Service{projects: projects, contacts: contacts, procurement: proc, inventory: inv}
}

// Summarize gathers all counts. A failure in any source fails the whole
// summary.
func (s *Service) Summarize(ctx context.Context) (*Summary, error) {
	var (
		projects []sales.Project
		clients  []partners.Client
		vendors  []partners.Vendor
		prs      []procurement.PurchaseRequisition
		pos      []procurement.PurchaseOrder
		items    []inventory.Item
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		projects, err = s.projects.ListProjects(ctx)
		return
	})
	g.Go(func() (err error) {
		clients, err = s.contacts.ListClients(ctx)
		return
	})
	g.Go(func() (err error) {
		vendors, err = s.contacts.ListVendors(ctx)
		return
	})
	g.Go(func() (err error) {
		prs, err = s.procurement.ListPRs(ctx)
		return
	})
	g.Go(func() (err error) {
		pos, err = s.procurement.ListPOs(ctx)
		return
	})
	g.Go(func() (err error) {
		items, err = s.inventory.ListItems(ctx)
		return
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	summary := &Summary{
		TotalProjects: len(projects),
		Clients:       len(clients),
		Vendors:       len(vendors),
	}
	for _, p := range projects {
		switch p.Status {
		case sales.StatusCancelled:
		case sales.StatusPaidOff:
		default:
			summary.ActiveProjects++
		}
		switch p.Status {
		case sales.StatusApproved, sales.StatusPartiallyPaid:
			summary.UnpaidProjects++
		}
		if p.StockDeducted && p.Status != sales.StatusPaidOff && p.Status != sales.StatusCancelled {
			summary.DeliveredAwaits++
		}
	}
	for _, pr := range prs {
		if pr.Status == procurement.PRStatusPending {
			summary.PendingPRs++
		}
	}
	for _, po := range pos {
		if po.Status != procurement.POStatusPaid {
			summary.OpenPOs++
		}
	}
	for _, item := range items {
		if item.Category.Stocked() && item.Stock < LowStockThreshold {
			summary.LowStockItems++
		}
	}
	return summary, nil
}
