package procurement

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/kencana-erp/kencana-erp/internal/company"
	"github.com/kencana-erp/kencana-erp/internal/inventory"
	"github.com/kencana-erp/kencana-erp/internal/numbering"
	"github.com/kencana-erp/kencana-erp/internal/shared"
)

type memoryProcRepo struct {
	mu  sync.Mutex
	prs map[string]PurchaseRequisition
	pos map[string]PurchaseOrder
}

func newMemoryProcRepo() *memoryProcRepo {
	return &memoryProcRepo{
		prs: make(map[string]PurchaseRequisition),
		pos: make(map[string]PurchaseOrder),
	}
}

func (m *memoryProcRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	prSnapshot := make(map[string]PurchaseRequisition, len(m.prs))
	for id, pr := range m.prs {
		prSnapshot[id] = pr
	}
	poSnapshot := make(map[string]PurchaseOrder, len(m.pos))
	for id, po := range m.pos {
		poSnapshot[id] = po
	}
	if err := fn(ctx, (*memoryProcTx)(m)); err != nil {
		m.prs = prSnapshot
		m.pos = poSnapshot
		return err
	}
	return nil
}

type memoryProcTx memoryProcRepo

func (m *memoryProcTx) GetPRForUpdate(_ context.Context, id string) (*PurchaseRequisition, error) {
	pr, ok := m.prs[id]
	if !ok {
		return nil, nil
	}
	copied := pr
	return &copied, nil
}

func (m *memoryProcTx) SavePR(_ context.Context, pr PurchaseRequisition) error {
	m.prs[pr.ID] = pr
	return nil
}

func (m *memoryProcTx) GetPOForUpdate(_ context.Context, id string) (*PurchaseOrder, error) {
	po, ok := m.pos[id]
	if !ok {
		return nil, nil
	}
	copied := po
	return &copied, nil
}

func (m *memoryProcTx) CreatePO(_ context.Context, po PurchaseOrder) error {
	m.pos[po.ID] = po
	return nil
}

func (m *memoryProcTx) SavePO(_ context.Context, po PurchaseOrder) error {
	m.pos[po.ID] = po
	return nil
}

func (m *memoryProcTx) DeletePO(_ context.Context, id string) error {
	delete(m.pos, id)
	return nil
}

func (m *memoryProcRepo) GetPR(_ context.Context, id string) (*PurchaseRequisition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pr, ok := m.prs[id]
	if !ok {
		return nil, nil
	}
	copied := pr
	return &copied, nil
}

func (m *memoryProcRepo) ListPRs(context.Context) ([]PurchaseRequisition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]PurchaseRequisition, 0, len(m.prs))
	for _, pr := range m.prs {
		out = append(out, pr)
	}
	return out, nil
}

func (m *memoryProcRepo) CreatePR(_ context.Context, pr PurchaseRequisition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prs[pr.ID] = pr
	return nil
}

func (m *memoryProcRepo) GetPO(_ context.Context, id string) (*PurchaseOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	po, ok := m.pos[id]
	if !ok {
		return nil, nil
	}
	copied := po
	return &copied, nil
}

func (m *memoryProcRepo) ListPOs(context.Context) ([]PurchaseOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]PurchaseOrder, 0, len(m.pos))
	for _, po := range m.pos {
		out = append(out, po)
	}
	return out, nil
}

func (m *memoryProcRepo) CreatePO(_ context.Context, po PurchaseOrder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pos[po.ID] = po
	return nil
}

type stubInventory struct {
	mu       sync.Mutex
	receipts map[string][]inventory.ReceiptLine
	fail     error
}

func newStubInventory() *stubInventory {
	return &stubInventory{receipts: make(map[string][]inventory.ReceiptLine)}
}

func (s *stubInventory) PostReceipt(_ context.Context, ref string, lines []inventory.ReceiptLine) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	s.receipts[ref] = lines
	return nil
}

type stubNumbering struct {
	mu   sync.Mutex
	seqs map[string]int64
}

func newStubNumbering() *stubNumbering {
	return &stubNumbering{seqs: make(map[string]int64)}
}

func (s *stubNumbering) Allocate(_ context.Context, docType, initials string, at time.Time) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := fmt.Sprintf("%s_%d", docType, at.Year())
	s.seqs[key]++
	return numbering.Format(s.seqs[key], initials, docType, at), nil
}

type stubProfiles struct{}

func (stubProfiles) Get(context.Context) (company.Profile, error) {
	return company.Profile{CompanyInitials: "KNC"}, nil
}

type stubAudit struct {
	mu      sync.Mutex
	entries []shared.AuditLog
}

func (s *stubAudit) Record(_ context.Context, log shared.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, log)
	return nil
}

func newTestService(repo *memoryProcRepo, inv *stubInventory) *Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(repo, inv, newStubNumbering(), stubProfiles{}, &stubAudit{}, logger)
}

// 50 relays at 50000 gives a committed total of 2500000.
func relayLines() []POLine {
	return []POLine{
		{ItemID: "RELAY-R", Quantity: 50, UnitPrice: decimal.NewFromInt(50000)},
	}
}

func TestCreatePR(t *testing.T) {
	repo := newMemoryProcRepo()
	svc := newTestService(repo, newStubInventory())
	ctx := context.Background()

	pr, err := svc.CreatePR(ctx, CreatePRInput{
		Requester:     "budi@kencana.co.id",
		Justification: "Stok relai menipis",
		Lines:         []PRLine{{ItemID: "RELAY-R", Quantity: 50}},
	})
	require.NoError(t, err)
	require.Equal(t, PRStatusPending, pr.Status)
	require.Contains(t, pr.Number, "/KNC/PR/")

	_, err = svc.CreatePR(ctx, CreatePRInput{Requester: "budi@kencana.co.id"})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.CreatePR(ctx, CreatePRInput{
		Requester: "budi@kencana.co.id",
		Lines:     []PRLine{{ItemID: "RELAY-R", Quantity: 0}},
	})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestCreatePOFromPR(t *testing.T) {
	repo := newMemoryProcRepo()
	svc := newTestService(repo, newStubInventory())
	ctx := context.Background()

	pr, err := svc.CreatePR(ctx, CreatePRInput{
		Requester: "budi@kencana.co.id",
		Lines:     []PRLine{{ItemID: "RELAY-R", Quantity: 50}},
	})
	require.NoError(t, err)

	po, err := svc.CreatePO(ctx, CreatePOInput{PRID: pr.ID, VendorID: "VN-1", Lines: relayLines()})
	require.NoError(t, err)
	require.Equal(t, POStatusIssued, po.Status)
	require.Contains(t, po.Number, "/KNC/PO/")
	require.True(t, po.Total().Equal(decimal.NewFromInt(2500000)), "total %s", po.Total())

	pr, err = svc.GetPR(ctx, pr.ID)
	require.NoError(t, err)
	require.Equal(t, PRStatusPOCreated, pr.Status)

	// A requisition carries at most one order.
	_, err = svc.CreatePO(ctx, CreatePOInput{PRID: pr.ID, VendorID: "VN-1", Lines: relayLines()})
	require.ErrorIs(t, err, shared.ErrInvalidState)
}

func TestUpdateAndDeleteOnlyWhileIssued(t *testing.T) {
	repo := newMemoryProcRepo()
	inv := newStubInventory()
	svc := newTestService(repo, inv)
	ctx := context.Background()

	po, err := svc.CreatePO(ctx, CreatePOInput{VendorID: "VN-1", Lines: relayLines()})
	require.NoError(t, err)

	updated, err := svc.UpdatePO(ctx, po.ID, UpdatePOInput{VendorID: "VN-2"})
	require.NoError(t, err)
	require.Equal(t, "VN-2", updated.VendorID)

	_, err = svc.ReceiveGoods(ctx, po.ID)
	require.NoError(t, err)

	_, err = svc.UpdatePO(ctx, po.ID, UpdatePOInput{VendorID: "VN-3"})
	require.ErrorIs(t, err, shared.ErrInvalidState)
	require.ErrorIs(t, svc.DeletePO(ctx, po.ID), shared.ErrInvalidState)

	// The blocked delete leaves the received order in place.
	kept, err := svc.GetPO(ctx, po.ID)
	require.NoError(t, err)
	require.Equal(t, POStatusGoodsReceived, kept.Status)
}

func TestDeletePOWhileIssued(t *testing.T) {
	repo := newMemoryProcRepo()
	svc := newTestService(repo, newStubInventory())
	ctx := context.Background()

	po, err := svc.CreatePO(ctx, CreatePOInput{VendorID: "VN-1", Lines: relayLines()})
	require.NoError(t, err)
	require.NoError(t, svc.DeletePO(ctx, po.ID))

	_, err = svc.GetPO(ctx, po.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

// A receipt committed after the order was loaded but before the delete must
// block it: the delete re-reads status inside its own transaction.
func TestDeletePOBlockedByConcurrentReceipt(t *testing.T) {
	repo := newMemoryProcRepo()
	inv := newStubInventory()
	svc := newTestService(repo, inv)
	ctx := context.Background()

	po, err := svc.CreatePO(ctx, CreatePOInput{VendorID: "VN-1", Lines: relayLines()})
	require.NoError(t, err)

	loaded, err := svc.GetPO(ctx, po.ID)
	require.NoError(t, err)
	require.Equal(t, POStatusIssued, loaded.Status)

	_, err = svc.ReceiveGoods(ctx, po.ID)
	require.NoError(t, err)

	require.ErrorIs(t, svc.DeletePO(ctx, po.ID), shared.ErrInvalidState)

	kept, err := svc.GetPO(ctx, po.ID)
	require.NoError(t, err)
	require.Equal(t, POStatusGoodsReceived, kept.Status)
}

func TestReceiveGoodsPostsReceipt(t *testing.T) {
	repo := newMemoryProcRepo()
	inv := newStubInventory()
	svc := newTestService(repo, inv)
	ctx := context.Background()

	po, err := svc.CreatePO(ctx, CreatePOInput{VendorID: "VN-1", Lines: relayLines()})
	require.NoError(t, err)

	received, err := svc.ReceiveGoods(ctx, po.ID)
	require.NoError(t, err)
	require.Equal(t, POStatusGoodsReceived, received.Status)
	require.Equal(t, []inventory.ReceiptLine{{ItemID: "RELAY-R", Quantity: 50}}, inv.receipts[po.ID])

	// Receiving twice is rejected before touching stock again.
	_, err = svc.ReceiveGoods(ctx, po.ID)
	require.ErrorIs(t, err, shared.ErrInvalidState)
	require.Len(t, inv.receipts, 1)
}

func TestReceiveGoodsInventoryFailureKeepsStatus(t *testing.T) {
	repo := newMemoryProcRepo()
	inv := newStubInventory()
	inv.fail = fmt.Errorf("inventory unavailable")
	svc := newTestService(repo, inv)
	ctx := context.Background()

	po, err := svc.CreatePO(ctx, CreatePOInput{VendorID: "VN-1", Lines: relayLines()})
	require.NoError(t, err)

	_, err = svc.ReceiveGoods(ctx, po.ID)
	require.Error(t, err)

	po, err = svc.GetPO(ctx, po.ID)
	require.NoError(t, err)
	require.Equal(t, POStatusIssued, po.Status)

	inv.fail = nil
	received, err := svc.ReceiveGoods(ctx, po.ID)
	require.NoError(t, err)
	require.Equal(t, POStatusGoodsReceived, received.Status)
}

func TestVendorInvoiceMatch(t *testing.T) {
	repo := newMemoryProcRepo()
	svc := newTestService(repo, newStubInventory())
	ctx := context.Background()

	po, err := svc.CreatePO(ctx, CreatePOInput{VendorID: "VN-1", Lines: relayLines()})
	require.NoError(t, err)

	// Invoices are only accepted after goods arrive.
	_, err = svc.RecordVendorInvoice(ctx, po.ID, VendorInvoiceInput{
		Number: "INV/VN1/001",
		Amount: decimal.NewFromInt(2500000),
	})
	require.ErrorIs(t, err, shared.ErrInvalidState)

	_, err = svc.ReceiveGoods(ctx, po.ID)
	require.NoError(t, err)

	// One rupiah over the committed total blocks the match.
	_, err = svc.RecordVendorInvoice(ctx, po.ID, VendorInvoiceInput{
		Number: "INV/VN1/001",
		Amount: decimal.NewFromInt(2500001),
	})
	require.ErrorIs(t, err, ErrAmountMismatch)

	validated, err := svc.RecordVendorInvoice(ctx, po.ID, VendorInvoiceInput{
		Number: "INV/VN1/001",
		Amount: decimal.NewFromInt(2500000),
	})
	require.NoError(t, err)
	require.Equal(t, POStatusValidated, validated.Status)
	require.NotNil(t, validated.VendorInvoice)
	require.Equal(t, "INV/VN1/001", validated.VendorInvoice.Number)
}

func TestPayRequiresValidation(t *testing.T) {
	repo := newMemoryProcRepo()
	svc := newTestService(repo, newStubInventory())
	ctx := context.Background()

	po, err := svc.CreatePO(ctx, CreatePOInput{VendorID: "VN-1", Lines: relayLines()})
	require.NoError(t, err)

	_, err = svc.Pay(ctx, po.ID)
	require.ErrorIs(t, err, shared.ErrInvalidState)

	_, err = svc.ReceiveGoods(ctx, po.ID)
	require.NoError(t, err)
	_, err = svc.RecordVendorInvoice(ctx, po.ID, VendorInvoiceInput{
		Number: "INV/VN1/002",
		Amount: decimal.NewFromInt(2500000),
	})
	require.NoError(t, err)

	paid, err := svc.Pay(ctx, po.ID)
	require.NoError(t, err)
	require.Equal(t, POStatusPaid, paid.Status)
}

func TestMatchIsExact(t *testing.T) {
	total := decimal.RequireFromString("2500000")
	require.True(t, Match(total, decimal.RequireFromString("2500000.00")))
	require.False(t, Match(total, decimal.RequireFromString("2500000.01")))
	require.False(t, Match(total, decimal.RequireFromString("2499999.99")))
}
