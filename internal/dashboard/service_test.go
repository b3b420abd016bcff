package dashboard

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kencana-erp/kencana-erp/internal/inventory"
	"github.com/kencana-erp/kencana-erp/internal/partners"
	"github.com/kencana-erp/kencana-erp/internal/procurement"
	"github.com/kencana-erp/kencana-erp/internal/sales"
)

type stubSources struct {
	projects []sales.Project
	clients  []partners.Client
	vendors  []partners.Vendor
	prs      []procurement.PurchaseRequisition
	pos      []procurement.PurchaseOrder
	items    []inventory.Item
	fail     error
}

func (s *stubSources) ListProjects(context.Context) ([]sales.Project, error) {
	return s.projects, s.fail
}

func (s *stubSources) ListClients(context.Context) ([]partners.Client, error) {
	return s.clients, nil
}

func (s *stubSources) ListVendors(context.Context) ([]partners.Vendor, error) {
	return s.vendors, nil
}

func (s *stubSources) ListPRs(context.Context) ([]procurement.PurchaseRequisition, error) {
	return s.prs, nil
}

func (s *stubSources) ListPOs(context.Context) ([]procurement.PurchaseOrder, error) {
	return s.pos, nil
}

func (s *stubSources) ListItems(context.Context) ([]inventory.Item, error) {
	return s.items, nil
}

func TestSummarize(t *testing.T) {
	src := &stubSources{
		projects: []sales.Project{
			{ID: "PRJ-1", Status: sales.StatusDraft},
			{ID: "PRJ-2", Status: sales.StatusApproved, StockDeducted: true},
			{ID: "PRJ-3", Status: sales.StatusPaidOff},
			{ID: "PRJ-4", Status: sales.StatusCancelled},
		},
		clients: []partners.Client{{ID: "CL-1"}, {ID: "CL-2"}},
		vendors: []partners.Vendor{{ID: "VN-1"}},
		prs: []procurement.PurchaseRequisition{
			{ID: "PR-1", Status: procurement.PRStatusPending},
			{ID: "PR-2", Status: procurement.PRStatusPOCreated},
		},
		pos: []procurement.PurchaseOrder{
			{ID: "PO-1", Status: procurement.POStatusIssued},
			{ID: "PO-2", Status: procurement.POStatusPaid},
		},
		items: []inventory.Item{
			{ID: "RELAY-R", Category: inventory.CategoryRawMaterial, Stock: 2},
			{ID: "PANEL-A", Category: inventory.CategoryProduct, Stock: 50},
			{ID: "LAPTOP-1", Category: inventory.CategoryAsset, Stock: 0},
		},
	}
	svc := NewService(src, src, src, src)

	summary, err := svc.Summarize(context.Background())
	require.NoError(t, err)
	require.Equal(t, 4, summary.TotalProjects)
	require.Equal(t, 2, summary.ActiveProjects)
	require.Equal(t, 1, summary.UnpaidProjects)
	require.Equal(t, 1, summary.DeliveredAwaits)
	require.Equal(t, 2, summary.Clients)
	require.Equal(t, 1, summary.Vendors)
	require.Equal(t, 1, summary.PendingPRs)
	require.Equal(t, 1, summary.OpenPOs)
	// Assets are not stocked, so only the relay counts as low.
	require.Equal(t, 1, summary.LowStockItems)
}

func TestSummarizeFailsWhenSourceFails(t *testing.T) {
	src := &stubSources{fail: fmt.Errorf("database down")}
	svc := NewService(src, src, src, src)

	_, err := svc.Summarize(context.Background())
	require.Error(t, err)
}
