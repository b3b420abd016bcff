package sales

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
	"github.com/kencana-erp/kencana-erp/internal/finance"
	"github.com/kencana-erp/kencana-erp/internal/inventory"
	"github.com/kencana-erp/kencana-erp/internal/numbering"
	"github.com/kencana-erp/kencana-erp/internal/partners"
	"github.com/kencana-erp/kencana-erp/internal/shared"
)

type memorySalesRepo struct {
	mu       sync.Mutex
	projects map[string]Project
}

func newMemorySalesRepo(projects ...Project) *memorySalesRepo {
	repo := &memorySalesRepo{projects: make(map[string]Project)}
	for _, p := range projects {
		repo.projects[p.ID] = p
	}
	return repo
}

func (m *memorySalesRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	snapshot := make(map[string]Project, len(m.projects))
	for id, p := range m.projects {
		snapshot[id] = p
	}
	if err := fn(ctx, (*memorySalesTx)(m)); err != nil {
		m.projects = snapshot
		return err
	}
	return nil
}

type memorySalesTx memorySalesRepo

func (m *memorySalesTx) GetForUpdate(_ context.Context, id string) (*Project, error) {
	p, ok := m.projects[id]
	if !ok {
		return nil, nil
	}
	copied := p
	return &copied, nil
}

func (m *memorySalesTx) Save(_ context.Context, p Project) error {
	m.projects[p.ID] = p
	return nil
}

func (m *memorySalesTx) SetDocNumber(_ context.Context, id, docType, number string) error {
	p, ok := m.projects[id]
	if !ok {
		return fmt.Errorf("sales: proyek %s: %w", id, shared.ErrNotFound)
	}
	numbers := make(map[string]string, len(p.DocNumbers)+1)
	for k, v := range p.DocNumbers {
		numbers[k] = v
	}
	numbers[docType] = number
	p.DocNumbers = numbers
	m.projects[id] = p
	return nil
}

func (m *memorySalesTx) SetStockDeducted(_ context.Context, id string) error {
	p, ok := m.projects[id]
	if !ok {
		return fmt.Errorf("sales: proyek %s: %w", id, shared.ErrNotFound)
	}
	p.StockDeducted = true
	m.projects[id] = p
	return nil
}

func (m *memorySalesRepo) Get(_ context.Context, id string) (*Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[id]
	if !ok {
		return nil, nil
	}
	copied := p
	return &copied, nil
}

func (m *memorySalesRepo) List(context.Context) ([]Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Project, 0, len(m.projects))
	for _, p := range m.projects {
		out = append(out, p)
	}
	return out, nil
}

func (m *memorySalesRepo) Create(_ context.Context, p Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.projects[p.ID] = p
	return nil
}

func (m *memorySalesRepo) Save(_ context.Context, p Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.projects[p.ID] = p
	return nil
}

func (m *memorySalesRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.projects, id)
	return nil
}

type stubInventory struct {
	mu    sync.Mutex
	posts map[string][]inventory.DeliveryLine
	fail  error
}

func newStubInventory() *stubInventory {
	return &stubInventory{posts: make(map[string][]inventory.DeliveryLine)}
}

func (s *stubInventory) PostDeliveryDeduction(_ context.Context, ref string, lines []inventory.DeliveryLine) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	s.posts[ref] = lines
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

type stubProfiles struct {
	profile company.Profile
}

func (s *stubProfiles) Get(context.Context) (company.Profile, error) {
	return s.profile, nil
}

type stubContacts struct {
	clients map[string]partners.Client
}

func (s *stubContacts) GetClient(_ context.Context, id string) (*partners.Client, error) {
	client, ok := s.clients[id]
	if !ok {
		return nil, fmt.Errorf("partners: client %s: %w", id, shared.ErrNotFound)
	}
	return &client, nil
}

func pkpProfile() company.Profile {
	return company.Profile{
		CompanyInitials:    "KNC",
		IsPKP:              true,
		PPNRate:            decimal.NewFromInt(11),
		DefaultPaymentTerm: "30 hari",
		DefaultHasDP:       true,
	}
}

func newTestSalesService(repo *memorySalesRepo, inv *stubInventory, profile company.Profile) *Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	contacts := &stubContacts{clients: map[string]partners.Client{
		"CL-1": {ID: "CL-1", Name: "PT Maju Jaya"},
	}}
	return NewService(repo, inv, newStubNumbering(), &stubProfiles{profile: profile}, contacts, &stubAudit{}, logger)
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

// testProject: one line of 2 x 500000 with 10% discount and PPN 11 gives a
// final total of 999000.
func testProject(status Status) Project {
	isPPN := true
	return Project{
		ID:         "PRJ-1",
		Subject:    "Panel Kontrol Line 2",
		ClientID:   "CL-1",
		Status:     status,
		CreatedAt:  time.Now(),
		DocNumbers: map[string]string{},
		Items: []finance.LineItem{
			{ItemID: "PANEL-A", Quantity: 2, UnitPrice: decimal.NewFromInt(500000)},
		},
		Payments: []finance.Payment{},
		Details: Details{
			Discount:  decimal.NewFromInt(10),
			HasDP:     true,
			DPPercent: decimal.NewFromInt(50),
			IsPPN:     &isPPN,
		},
	}
}

func TestCreateProjectDefaults(t *testing.T) {
	repo := newMemorySalesRepo()
	svc := newTestSalesService(repo, newStubInventory(), pkpProfile())

	project, err := svc.CreateProject(context.Background(), CreateProjectInput{
		Subject:  "Instalasi Panel",
		ClientID: "CL-1",
	})
	require.NoError(t, err)
	require.Equal(t, StatusDraft, project.Status)
	require.False(t, project.StockDeducted)
	require.Empty(t, project.DocNumbers)
	require.Equal(t, "30 hari", project.Details.PaymentTerm)
	require.True(t, project.Details.HasDP)
	require.True(t, project.Details.DPPercent.Equal(decimal.NewFromInt(50)))
	require.NotNil(t, project.Details.IsPPN)
	require.True(t, *project.Details.IsPPN)

	_, err = svc.CreateProject(context.Background(), CreateProjectInput{Subject: "Tanpa Klien"})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestProjectRejectsNegativeUnitPrice(t *testing.T) {
	repo := newMemorySalesRepo(testProject(StatusDraft))
	svc := newTestSalesService(repo, newStubInventory(), pkpProfile())
	ctx := context.Background()

	badItems := []finance.LineItem{
		{ItemID: "PNL-1", Description: "Panel", Quantity: 1, UnitPrice: decimal.NewFromInt(-100)},
	}
	_, err := svc.CreateProject(ctx, CreateProjectInput{
		Subject:  "Instalasi Panel",
		ClientID: "CL-1",
		Items:    badItems,
	})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.UpdateProject(ctx, "PRJ-1", UpdateProjectInput{
		Subject:  "Instalasi Panel",
		ClientID: "CL-1",
		Items:    badItems,
	})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestRecordPaymentTransitions(t *testing.T) {
	repo := newMemorySalesRepo(testProject(StatusApproved))
	svc := newTestSalesService(repo, newStubInventory(), pkpProfile())
	ctx := context.Background()

	project, err := svc.RecordPayment(ctx, "PRJ-1", PaymentInput{Amount: decimal.NewFromInt(400000)})
	require.NoError(t, err)
	require.Equal(t, StatusPartiallyPaid, project.Status)
	require.Len(t, project.Payments, 1)

	// Final total is 999000; the second payment covers it exactly.
	project, err = svc.RecordPayment(ctx, "PRJ-1", PaymentInput{Amount: decimal.NewFromInt(599000)})
	require.NoError(t, err)
	require.Equal(t, StatusPaidOff, project.Status)

	summary, err := svc.Financials(ctx, "PRJ-1")
	require.NoError(t, err)
	require.True(t, summary.AmountDue.IsZero(), "amount due %s", summary.AmountDue)

	_, err = svc.RecordPayment(ctx, "PRJ-1", PaymentInput{Amount: decimal.Zero})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestMarkProformaPaid(t *testing.T) {
	project := testProject(StatusQuotationSent)
	project.DocNumbers[numbering.DocProforma] = "001/KNC/P-INV/VI/2025"
	repo := newMemorySalesRepo(project)
	svc := newTestSalesService(repo, newStubInventory(), pkpProfile())
	ctx := context.Background()

	updated, err := svc.MarkProformaPaid(ctx, "PRJ-1")
	require.NoError(t, err)
	require.Equal(t, StatusPartiallyPaid, updated.Status)
	require.Len(t, updated.Payments, 1)
	dp := updated.Payments[0]
	require.Equal(t, finance.PaymentDownPayment, dp.Kind)
	// 50% of the 999000 grand total.
	require.True(t, dp.Amount.Equal(decimal.NewFromInt(499500)), "dp amount %s", dp.Amount)
	require.Contains(t, dp.Note, "via Proforma No. 001/KNC/P-INV/VI/2025")

	_, err = svc.MarkProformaPaid(ctx, "PRJ-1")
	require.ErrorIs(t, err, ErrProformaAlreadyPaid)
}

func TestMarkProformaPaidRequiresDP(t *testing.T) {
	project := testProject(StatusQuotationSent)
	project.Details.HasDP = false
	repo := newMemorySalesRepo(project)
	svc := newTestSalesService(repo, newStubInventory(), pkpProfile())

	_, err := svc.MarkProformaPaid(context.Background(), "PRJ-1")
	require.ErrorIs(t, err, ErrDPNotEnabled)
}

func TestEnsureDocumentNumber(t *testing.T) {
	repo := newMemorySalesRepo(testProject(StatusDraft))
	svc := newTestSalesService(repo, newStubInventory(), pkpProfile())
	ctx := context.Background()

	// Quotation is always available.
	first, err := svc.EnsureDocumentNumber(ctx, "PRJ-1", numbering.DocQuotation)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	// Once allocated the number is immutable.
	again, err := svc.EnsureDocumentNumber(ctx, "PRJ-1", numbering.DocQuotation)
	require.NoError(t, err)
	require.Equal(t, first, again)

	// Invoice is gated until the project is approved.
	_, err = svc.EnsureDocumentNumber(ctx, "PRJ-1", numbering.DocInvoice)
	require.ErrorIs(t, err, ErrGateClosed)

	_, err = svc.SetStatus(ctx, "PRJ-1", StatusApproved)
	require.NoError(t, err)

	// Tax invoice additionally requires an allocated invoice number.
	_, err = svc.EnsureDocumentNumber(ctx, "PRJ-1", numbering.DocTaxInvoice)
	require.ErrorIs(t, err, ErrGateClosed)

	invoiceNumber, err := svc.EnsureDocumentNumber(ctx, "PRJ-1", numbering.DocInvoice)
	require.NoError(t, err)
	require.NotEmpty(t, invoiceNumber)

	taxNumber, err := svc.EnsureDocumentNumber(ctx, "PRJ-1", numbering.DocTaxInvoice)
	require.NoError(t, err)
	require.NotEmpty(t, taxNumber)

	_, err = svc.EnsureDocumentNumber(ctx, "PRJ-1", "memo")
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestConfirmDelivery(t *testing.T) {
	repo := newMemorySalesRepo(testProject(StatusApproved))
	inv := newStubInventory()
	svc := newTestSalesService(repo, inv, pkpProfile())
	ctx := context.Background()

	require.NoError(t, svc.ConfirmDelivery(ctx, "PRJ-1"))
	require.Len(t, inv.posts["PRJ-1"], 1)
	require.Equal(t, inventory.DeliveryLine{ItemID: "PANEL-A", Quantity: 2}, inv.posts["PRJ-1"][0])

	project, err := svc.GetProject(ctx, "PRJ-1")
	require.NoError(t, err)
	require.True(t, project.StockDeducted)

	// A second confirmation is rejected before touching inventory.
	err = svc.ConfirmDelivery(ctx, "PRJ-1")
	require.ErrorIs(t, err, ErrAlreadyDeducted)
	require.Len(t, inv.posts, 1)
}

func TestConfirmDeliveryGate(t *testing.T) {
	repo := newMemorySalesRepo(testProject(StatusDraft))
	inv := newStubInventory()
	svc := newTestSalesService(repo, inv, pkpProfile())

	err := svc.ConfirmDelivery(context.Background(), "PRJ-1")
	require.ErrorIs(t, err, ErrGateClosed)
	require.Empty(t, inv.posts)
}

func TestConfirmDeliveryFlagWrittenAfterPosting(t *testing.T) {
	repo := newMemorySalesRepo(testProject(StatusApproved))
	inv := newStubInventory()
	inv.fail = fmt.Errorf("inventory unavailable")
	svc := newTestSalesService(repo, inv, pkpProfile())
	ctx := context.Background()

	err := svc.ConfirmDelivery(ctx, "PRJ-1")
	require.Error(t, err)

	// The flag stays unset so the operation can be retried.
	project, getErr := svc.GetProject(ctx, "PRJ-1")
	require.NoError(t, getErr)
	require.False(t, project.StockDeducted)

	inv.fail = nil
	require.NoError(t, svc.ConfirmDelivery(ctx, "PRJ-1"))
	project, getErr = svc.GetProject(ctx, "PRJ-1")
	require.NoError(t, getErr)
	require.True(t, project.StockDeducted)
}

func TestClientNameFallback(t *testing.T) {
	repo := newMemorySalesRepo()
	svc := newTestSalesService(repo, newStubInventory(), pkpProfile())
	ctx := context.Background()

	require.Equal(t, "PT Maju Jaya", svc.ClientName(ctx, "CL-1"))
	require.Equal(t, partners.FallbackName, svc.ClientName(ctx, "CL-404"))
}
