package sales

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kencana-erp/kencana-erp/internal/company"
	"github.com/kencana-erp/kencana-erp/internal/finance"
	"github.com/kencana-erp/kencana-erp/internal/inventory"
	"github.com/kencana-erp/kencana-erp/internal/numbering"
	"github.com/kencana-erp/kencana-erp/internal/partners"
	"github.com/kencana-erp/kencana-erp/internal/shared"
)

// RepositoryPort is the persistence interface the service depends on.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id string) (*Project, error)
	List(ctx context.Context) ([]Project, error)
	Create(ctx context.Context, project Project) error
	Save(ctx context.Context, project Project) error
	Delete(ctx context.Context, id string) error
}

// TxRepository is the transactional slice of the repository.
type TxRepository interface {
	GetForUpdate(ctx context.Context, id string) (*Project, error)
	Save(ctx context.Context, project Project) error
	SetDocNumber(ctx context.Context, id, docType, number string) error
	SetStockDeducted(ctx context.Context, id string) error
}

// InventoryPort posts stock deductions for confirmed deliveries.
type InventoryPort interface {
	PostDeliveryDeduction(ctx context.Context, ref string, lines []inventory.DeliveryLine) error
}

// NumberingPort allocates document numbers.
type NumberingPort interface {
	Allocate(ctx context.Context, docType, companyInitials string, at time.Time) (string, error)
}

// ProfilePort supplies the company profile defaults.
type ProfilePort interface {
	Get(ctx context.Context) (company.Profile, error)
}

// PartnersPort resolves client references at read time.
type PartnersPort interface {
	GetClient(ctx context.Context, id string) (*partners.Client, error)
}

// Service implements the sales document workflow.
type Service struct {
	repo      RepositoryPort
	inv       InventoryPort
	numbers   NumberingPort
	profiles  ProfilePort
	contacts  PartnersPort
	audit     shared.AuditPort
	logger    *slog.Logger
}

// NewService constructs the sales service.
func NewService(repo RepositoryPort, inv InventoryPort, numbers NumberingPort, profiles ProfilePort, contacts PartnersPort, audit shared.AuditPort, logger *slog.Logger) *Service {
	return &Service{repo: repo, inv: inv, numbers: numbers, profiles: profiles, contacts: contacts, audit: audit, logger: logger}
}

var hundred = decimal.NewFromInt(100)

func validatePercent(name string, v decimal.Decimal) error {
	if v.IsNegative() || v.GreaterThan(hundred) {
		return fmt.Errorf("sales: %s harus di antara 0 dan 100: %w", name, shared.ErrValidation)
	}
	return nil
}

func validateItems(items []finance.LineItem) error {
	for _, item := range items {
		if item.UnitPrice.IsNegative() {
			return fmt.Errorf("sales: harga satuan %s tidak boleh negatif: %w", item.ItemID, shared.ErrValidation)
		}
	}
	return nil
}

// CreateProjectInput carries the user-supplied fields of a new project.
type CreateProjectInput struct {
	Subject  string
	ClientID string
	Items    []finance.LineItem
}

// CreateProject creates a draft project with defaults taken from the company
// profile: payment term, DP flag, 50% DP percentage and the PKP tax default.
func (s *Service) CreateProject(ctx context.Context, input CreateProjectInput) (*Project, error) {
	if input.Subject == "" || input.ClientID == "" {
		return nil, fmt.Errorf("sales: nama proyek dan klien tidak boleh kosong: %w", shared.ErrValidation)
	}
	if err := validateItems(input.Items); err != nil {
		return nil, err
	}
	profile, err := s.profiles.Get(ctx)
	if err != nil {
		return nil, err
	}
	isPPN := profile.IsPKP
	project := Project{
		ID:         fmt.Sprintf("PRJ-%d", time.Now().UnixNano()),
		Subject:    input.Subject,
		ClientID:   input.ClientID,
		Status:     StatusDraft,
		CreatedAt:  time.Now(),
		DocNumbers: map[string]string{},
		Items:      input.Items,
		Payments:   []finance.Payment{},
		Details: Details{
			PaymentTerm: profile.DefaultPaymentTerm,
			HasDP:       profile.DefaultHasDP,
			DPPercent:   decimal.NewFromInt(50),
			IsPPN:       &isPPN,
		},
	}
	if err := s.repo.Create(ctx, project); err != nil {
		return nil, err
	}
	s.recordAudit(ctx, "sales.create_project", project.ID, map[string]any{"subject": project.Subject})
	return &project, nil
}

// GetProject returns one project.
func (s *Service) GetProject(ctx context.Context, id string) (*Project, error) {
	return s.repo.Get(ctx, id)
}

// ListProjects returns all projects.
func (s *Service) ListProjects(ctx context.Context) ([]Project, error) {
	return s.repo.List(ctx)
}

// UpdateProjectInput carries the editable fields of a project.
type UpdateProjectInput struct {
	Subject  string
	ClientID string
	Items    []finance.LineItem
	Details  Details
}

// UpdateProject replaces the editable fields. Allocated document numbers,
// payments and the stock-deduction flag are never overwritten here.
func (s *Service) UpdateProject(ctx context.Context, id string, input UpdateProjectInput) (*Project, error) {
	if input.Subject == "" || input.ClientID == "" {
		return nil, fmt.Errorf("sales: nama proyek dan klien tidak boleh kosong: %w", shared.ErrValidation)
	}
	if err := validateItems(input.Items); err != nil {
		return nil, err
	}
	if err := validatePercent("discount", input.Details.Discount); err != nil {
		return nil, err
	}
	if err := validatePercent("dpPercentage", input.Details.DPPercent); err != nil {
		return nil, err
	}
	var updated *Project
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		project, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if project == nil {
			return fmt.Errorf("sales: proyek %s: %w", id, shared.ErrNotFound)
		}
		project.Subject = input.Subject
		project.ClientID = input.ClientID
		project.Items = input.Items
		project.Details = input.Details
		if err := tx.Save(ctx, *project); err != nil {
			return err
		}
		updated = project
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, "sales.update_project", id, nil)
	return updated, nil
}

// DeleteProject removes a project. Consumed document numbers stay consumed.
func (s *Service) DeleteProject(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.recordAudit(ctx, "sales.delete_project", id, nil)
	return nil
}

// SetStatus applies a user-driven status change.
func (s *Service) SetStatus(ctx context.Context, id string, status Status) (*Project, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("sales: status %q tidak dikenal: %w", status, shared.ErrValidation)
	}
	var updated *Project
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		project, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if project == nil {
			return fmt.Errorf("sales: proyek %s: %w", id, shared.ErrNotFound)
		}
		project.Status = status
		if err := tx.Save(ctx, *project); err != nil {
			return err
		}
		updated = project
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, "sales.set_status", id, map[string]any{"status": string(status)})
	return updated, nil
}

// Financials re-derives the financial summary from persisted state.
func (s *Service) Financials(ctx context.Context, id string) (*finance.Summary, error) {
	project, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, fmt.Errorf("sales: proyek %s: %w", id, shared.ErrNotFound)
	}
	profile, err := s.profiles.Get(ctx)
	if err != nil {
		return nil, err
	}
	summary := finance.Compute(project.FinanceInput(), profile.TaxProfile())
	return &summary, nil
}

// DocumentGates evaluates which document types are currently available.
func (s *Service) DocumentGates(ctx context.Context, id string) (map[string]bool, error) {
	project, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, fmt.Errorf("sales: proyek %s: %w", id, shared.ErrNotFound)
	}
	profile, err := s.profiles.Get(ctx)
	if err != nil {
		return nil, err
	}
	return Gates(project, profile), nil
}

// EnsureDocumentNumber allocates a number for the document type on first
// generation. The number is immutable: repeat calls return the stored value.
// A consumed sequence is never rolled back, even if the surrounding save
// fails.
func (s *Service) EnsureDocumentNumber(ctx context.Context, id, docType string) (string, error) {
	if !numbering.Known(docType) {
		return "", fmt.Errorf("sales: jenis dokumen %q tidak dikenal: %w", docType, shared.ErrValidation)
	}
	profile, err := s.profiles.Get(ctx)
	if err != nil {
		return "", err
	}
	var number string
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		project, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if project == nil {
			return fmt.Errorf("sales: proyek %s: %w", id, shared.ErrNotFound)
		}
		if existing := project.DocNumbers[docType]; existing != "" {
			number = existing
			return nil
		}
		if !Gates(project, profile)[docType] {
			return fmt.Errorf("%w: %s", ErrGateClosed, docType)
		}
		at := time.Now()
		if project.Details.DocDate != nil {
			at = *project.Details.DocDate
		}
		number, err = s.numbers.Allocate(ctx, docType, profile.CompanyInitials, at)
		if err != nil {
			return err
		}
		return tx.SetDocNumber(ctx, id, docType, number)
	})
	if err != nil {
		return "", err
	}
	s.recordAudit(ctx, "sales.ensure_doc_number", id, map[string]any{"docType": docType, "number": number})
	return number, nil
}

// PaymentInput carries a received payment.
type PaymentInput struct {
	Amount decimal.Decimal
	Date   time.Time
	Note   string
}

// RecordPayment appends a payment and applies the automatic transition:
// Lunas once the cumulative total covers the final total, Dibayar Sebagian
// otherwise.
func (s *Service) RecordPayment(ctx context.Context, id string, input PaymentInput) (*Project, error) {
	if !input.Amount.IsPositive() {
		return nil, fmt.Errorf("sales: jumlah pembayaran harus positif: %w", shared.ErrValidation)
	}
	profile, err := s.profiles.Get(ctx)
	if err != nil {
		return nil, err
	}
	date := input.Date
	if date.IsZero() {
		date = time.Now()
	}
	var updated *Project
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		project, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if project == nil {
			return fmt.Errorf("sales: proyek %s: %w", id, shared.ErrNotFound)
		}
		project.Payments = append(project.Payments, finance.Payment{
			ID:     "PAY-" + uuid.NewString(),
			Amount: input.Amount,
			Date:   date,
			Kind:   finance.PaymentRegular,
			Note:   input.Note,
		})
		summary := finance.Compute(project.FinanceInput(), profile.TaxProfile())
		project.Status = StatusAfterPayment(summary)
		if err := tx.Save(ctx, *project); err != nil {
			return err
		}
		updated = project
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, "sales.record_payment", id, map[string]any{"amount": input.Amount.String()})
	return updated, nil
}

// MarkProformaPaid records the synthetic down-payment triggered from the
// proforma document and forces the partially-paid status.
func (s *Service) MarkProformaPaid(ctx context.Context, id string) (*Project, error) {
	profile, err := s.profiles.Get(ctx)
	if err != nil {
		return nil, err
	}
	var updated *Project
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		project, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if project == nil {
			return fmt.Errorf("sales: proyek %s: %w", id, shared.ErrNotFound)
		}
		if !project.Details.HasDP {
			return ErrDPNotEnabled
		}
		summary := finance.Compute(project.FinanceInput(), profile.TaxProfile())
		if summary.ProformaPaid {
			return ErrProformaAlreadyPaid
		}
		dpPercent := project.Details.DPPercent
		if dpPercent.IsZero() {
			dpPercent = decimal.NewFromInt(50)
		}
		proformaNumber := project.DocNumbers[numbering.DocProforma]
		if proformaNumber == "" {
			proformaNumber = "-"
		}
		project.Payments = append(project.Payments, finance.Payment{
			ID:     "PAY-DP-" + uuid.NewString(),
			Amount: summary.DPAmount,
			Date:   time.Now(),
			Kind:   finance.PaymentDownPayment,
			Note:   fmt.Sprintf("Pembayaran DP (%s%%) via Proforma No. %s", dpPercent.String(), proformaNumber),
		})
		project.Status = StatusPartiallyPaid
		if err := tx.Save(ctx, *project); err != nil {
			return err
		}
		updated = project
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, "sales.mark_proforma_paid", id, nil)
	return updated, nil
}

// ConfirmDelivery deducts stock for every line item, expanding product BOMs
// into raw-material components. The inventory posting is atomic per project;
// the stockDeducted flag is written last so a crash in between leaves a
// retryable state and a second confirmation never double-deducts.
func (s *Service) ConfirmDelivery(ctx context.Context, id string) error {
	project, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if project == nil {
		return fmt.Errorf("sales: proyek %s: %w", id, shared.ErrNotFound)
	}
	if project.StockDeducted {
		return ErrAlreadyDeducted
	}
	profile, err := s.profiles.Get(ctx)
	if err != nil {
		return err
	}
	if !Gates(project, profile)[numbering.DocDeliveryOrder] {
		return fmt.Errorf("%w: %s", ErrGateClosed, numbering.DocDeliveryOrder)
	}
	lines := make([]inventory.DeliveryLine, 0, len(project.Items))
	for _, item := range project.Items {
		lines = append(lines, inventory.DeliveryLine{ItemID: item.ItemID, Quantity: item.Quantity})
	}
	if err := s.inv.PostDeliveryDeduction(ctx, project.ID, lines); err != nil {
		return err
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.SetStockDeducted(ctx, id)
	})
	if err != nil {
		return err
	}
	s.recordAudit(ctx, "sales.confirm_delivery", id, map[string]any{"lines": len(lines)})
	return nil
}

// ClientName resolves the client reference, degrading to a placeholder when
// the contact has been deleted.
func (s *Service) ClientName(ctx context.Context, clientID string) string {
	client, err := s.contacts.GetClient(ctx, clientID)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("resolve client", slog.String("client", clientID), slog.Any("error", err))
		}
		return partners.FallbackName
	}
	return client.Name
}

func (s *Service) recordAudit(ctx context.Context, action, entityID string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	actor := shared.IdentityFromContext(ctx)
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor.ID,
		Action:   action,
		Entity:   "sales",
		EntityID: entityID,
		Meta:     meta,
	})
	if err != nil {
		s.logger.Warn("audit record", slog.String("action", action), slog.Any("error", err))
	}
}
