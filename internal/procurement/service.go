package procurement

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kencana-erp/kencana-erp/internal/company"
	"github.com/kencana-erp/kencana-erp/internal/inventory"
	"github.com/kencana-erp/kencana-erp/internal/numbering"
	"github.com/kencana-erp/kencana-erp/internal/shared"
)

// RepositoryPort is the persistence surface the service depends on.
type RepositoryPort interface {
	GetPR(ctx context.Context, id string) (*PurchaseRequisition, error)
	ListPRs(ctx context.Context) ([]PurchaseRequisition, error)
	CreatePR(ctx context.Context, pr PurchaseRequisition) error
	GetPO(ctx context.Context, id string) (*PurchaseOrder, error)
	ListPOs(ctx context.Context) ([]PurchaseOrder, error)
	CreatePO(ctx context.Context, po PurchaseOrder) error
	WithTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error
}

// TxRepository is the transactional slice of the repository.
type TxRepository interface {
	GetPRForUpdate(ctx context.Context, id string) (*PurchaseRequisition, error)
	SavePR(ctx context.Context, pr PurchaseRequisition) error
	GetPOForUpdate(ctx context.Context, id string) (*PurchaseOrder, error)
	CreatePO(ctx context.Context, po PurchaseOrder) error
	SavePO(ctx context.Context, po PurchaseOrder) error
	DeletePO(ctx context.Context, id string) error
}

// InventoryPort posts goods receipts into the stock ledger.
type InventoryPort interface {
	PostReceipt(ctx context.Context, ref string, lines []inventory.ReceiptLine) error
}

// NumberingPort allocates official document numbers.
type NumberingPort interface {
	Allocate(ctx context.Context, docType, initials string, at time.Time) (string, error)
}

// ProfilePort resolves the company profile whose initials appear in
// document numbers.
type ProfilePort interface {
	Get(ctx context.Context) (company.Profile, error)
}

// Service implements the procurement workflow.
type Service struct {
	repo      RepositoryPort
	inventory InventoryPort
	numbering NumberingPort
	profiles  ProfilePort
	audit     shared.AuditPort
	logger    *slog.Logger
}

// NewService wires the procurement service.
func NewService(repo RepositoryPort, inv InventoryPort, num NumberingPort, profiles ProfilePort, audit shared.AuditPort, logger *slog.Logger) *Service {
	return &Service{repo: repo, inventory: inv, numbering: num, profiles: profiles, audit: audit, logger: logger}
}

func prNotFound(id string) error {
	return fmt.Errorf("PR dengan ID %s tidak ditemukan: %w", id, shared.ErrNotFound)
}

func poNotFound(id string) error {
	return fmt.Errorf("PO dengan ID %s tidak ditemukan: %w", id, shared.ErrNotFound)
}

// CreatePRInput describes a new purchase requisition.
type CreatePRInput struct {
	Requester     string
	Justification string
	Lines         []PRLine
}

// CreatePR records a requisition in Pending state with an official PR number.
func (s *Service) CreatePR(ctx context.Context, input CreatePRInput) (*PurchaseRequisition, error) {
	if strings.TrimSpace(input.Requester) == "" || len(input.Lines) == 0 {
		return nil, fmt.Errorf("pemohon dan rincian barang tidak boleh kosong: %w", shared.ErrValidation)
	}
	for _, line := range input.Lines {
		if line.Quantity <= 0 {
			return nil, fmt.Errorf("kuantitas harus lebih dari nol: %w", shared.ErrValidation)
		}
	}

	now := time.Now()
	number, err := s.allocate(ctx, numbering.DocPurchaseRequisition, now)
	if err != nil {
		return nil, err
	}

	pr := PurchaseRequisition{
		ID:            fmt.Sprintf("PR-%d", now.UnixNano()),
		Number:        number,
		Requester:     input.Requester,
		Justification: input.Justification,
		CreatedAt:     now,
		Status:        PRStatusPending,
		Lines:         input.Lines,
	}
	if err := s.repo.CreatePR(ctx, pr); err != nil {
		return nil, err
	}
	s.recordAudit(ctx, "pr.created", pr.ID, map[string]any{"number": pr.Number})
	return &pr, nil
}

// ListPRs returns all requisitions.
func (s *Service) ListPRs(ctx context.Context) ([]PurchaseRequisition, error) {
	return s.repo.ListPRs(ctx)
}

// GetPR returns one requisition.
func (s *Service) GetPR(ctx context.Context, id string) (*PurchaseRequisition, error) {
	pr, err := s.repo.GetPR(ctx, id)
	if err != nil {
		return nil, err
	}
	if pr == nil {
		return nil, prNotFound(id)
	}
	return pr, nil
}

// CreatePOInput describes a new purchase order. PRID is optional: a PO may
// be raised directly or from a pending requisition.
type CreatePOInput struct {
	PRID     string
	VendorID string
	Lines    []POLine
}

// CreatePO issues a purchase order. When the order originates from a
// requisition, the requisition moves to PO Created in the same transaction.
func (s *Service) CreatePO(ctx context.Context, input CreatePOInput) (*PurchaseOrder, error) {
	if strings.TrimSpace(input.VendorID) == "" || len(input.Lines) == 0 {
		return nil, fmt.Errorf("vendor dan rincian barang tidak boleh kosong: %w", shared.ErrValidation)
	}
	for _, line := range input.Lines {
		if line.Quantity <= 0 {
			return nil, fmt.Errorf("kuantitas harus lebih dari nol: %w", shared.ErrValidation)
		}
	}

	now := time.Now()
	number, err := s.allocate(ctx, numbering.DocPurchaseOrder, now)
	if err != nil {
		return nil, err
	}

	po := PurchaseOrder{
		ID:        fmt.Sprintf("PO-%d", now.UnixNano()),
		Number:    number,
		PRID:      input.PRID,
		VendorID:  input.VendorID,
		CreatedAt: now,
		Status:    POStatusIssued,
		Lines:     input.Lines,
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if input.PRID != "" {
			pr, err := tx.GetPRForUpdate(ctx, input.PRID)
			if err != nil {
				return err
			}
			if pr == nil {
				return prNotFound(input.PRID)
			}
			if pr.Status != PRStatusPending {
				return fmt.Errorf("PR %s sudah memiliki PO: %w", pr.Number, shared.ErrInvalidState)
			}
			pr.Status = PRStatusPOCreated
			if err := tx.SavePR(ctx, *pr); err != nil {
				return err
			}
		}
		return tx.CreatePO(ctx, po)
	})
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, "po.created", po.ID, map[string]any{"number": po.Number, "prId": po.PRID})
	return &po, nil
}

// ListPOs returns all purchase orders.
func (s *Service) ListPOs(ctx context.Context) ([]PurchaseOrder, error) {
	return s.repo.ListPOs(ctx)
}

// GetPO returns one purchase order.
func (s *Service) GetPO(ctx context.Context, id string) (*PurchaseOrder, error) {
	po, err := s.repo.GetPO(ctx, id)
	if err != nil {
		return nil, err
	}
	if po == nil {
		return nil, poNotFound(id)
	}
	return po, nil
}

// UpdatePOInput carries the editable fields of an issued PO.
type UpdatePOInput struct {
	VendorID string
	Lines    []POLine
}

// UpdatePO replaces vendor and lines. Only orders still in PO Issued may be
// changed; after goods arrive the commitment is frozen.
func (s *Service) UpdatePO(ctx context.Context, id string, input UpdatePOInput) (*PurchaseOrder, error) {
	var updated *PurchaseOrder
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		po, err := tx.GetPOForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if po == nil {
			return poNotFound(id)
		}
		if po.Status != POStatusIssued {
			return fmt.Errorf("PO %s tidak dapat diubah pada status %s: %w", po.Number, po.Status, shared.ErrInvalidState)
		}
		if input.VendorID != "" {
			po.VendorID = input.VendorID
		}
		if len(input.Lines) > 0 {
			po.Lines = input.Lines
		}
		if err := tx.SavePO(ctx, *po); err != nil {
			return err
		}
		updated = po
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, "po.updated", id, nil)
	return updated, nil
}

// DeletePO removes an order that has not received goods yet. The status
// check and the delete share one transaction, so a receipt landing in
// between blocks the delete.
func (s *Service) DeletePO(ctx context.Context, id string) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		po, err := tx.GetPOForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if po == nil {
			return poNotFound(id)
		}
		if po.Status != POStatusIssued {
			return fmt.Errorf("PO %s tidak dapat dihapus pada status %s: %w", po.Number, po.Status, shared.ErrInvalidState)
		}
		return tx.DeletePO(ctx, id)
	})
	if err != nil {
		return err
	}
	s.recordAudit(ctx, "po.deleted", id, nil)
	return nil
}

// ReceiveGoods books the ordered quantities into stock and moves the order
// to Goods Received. The receipt is posted first under a GRN idempotency
// key, so a crash between posting and the status flip is safe to retry.
func (s *Service) ReceiveGoods(ctx context.Context, id string) (*PurchaseOrder, error) {
	po, err := s.GetPO(ctx, id)
	if err != nil {
		return nil, err
	}
	if po.Status != POStatusIssued {
		return nil, fmt.Errorf("PO %s tidak dalam status %s: %w", po.Number, POStatusIssued, shared.ErrInvalidState)
	}

	lines := make([]inventory.ReceiptLine, 0, len(po.Lines))
	for _, line := range po.Lines {
		lines = append(lines, inventory.ReceiptLine{ItemID: line.ItemID, Quantity: line.Quantity})
	}
	if err := s.inventory.PostReceipt(ctx, po.ID, lines); err != nil {
		return nil, fmt.Errorf("procurement: penerimaan barang PO %s: %w", po.Number, err)
	}

	var received *PurchaseOrder
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		po, err := tx.GetPOForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if po == nil {
			return poNotFound(id)
		}
		po.Status = POStatusGoodsReceived
		if err := tx.SavePO(ctx, *po); err != nil {
			return err
		}
		received = po
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, "po.goods_received", id, nil)
	return received, nil
}

// VendorInvoiceInput is the vendor's claim against a PO.
type VendorInvoiceInput struct {
	Number string
	Date   time.Time
	Amount decimal.Decimal
}

// RecordVendorInvoice matches the claimed amount against the PO total. Only
// an exact match stores the invoice and moves the order to Validated.
func (s *Service) RecordVendorInvoice(ctx context.Context, id string, input VendorInvoiceInput) (*PurchaseOrder, error) {
	if strings.TrimSpace(input.Number) == "" {
		return nil, fmt.Errorf("nomor faktur vendor tidak boleh kosong: %w", shared.ErrValidation)
	}

	var validated *PurchaseOrder
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		po, err := tx.GetPOForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if po == nil {
			return poNotFound(id)
		}
		if po.Status != POStatusGoodsReceived {
			return fmt.Errorf("PO %s tidak dalam status %s: %w", po.Number, POStatusGoodsReceived, shared.ErrInvalidState)
		}
		if !Match(po.Total(), input.Amount) {
			return fmt.Errorf("PO %s: total %s, faktur %s: %w",
				po.Number, po.Total().String(), input.Amount.String(), ErrAmountMismatch)
		}
		date := input.Date
		if date.IsZero() {
			date = time.Now()
		}
		po.VendorInvoice = &VendorInvoice{Number: input.Number, Date: date, Amount: input.Amount}
		po.Status = POStatusValidated
		if err := tx.SavePO(ctx, *po); err != nil {
			return err
		}
		validated = po
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, "po.invoice_validated", id, map[string]any{"invoiceNumber": input.Number})
	return validated, nil
}

// Pay settles a validated order.
func (s *Service) Pay(ctx context.Context, id string) (*PurchaseOrder, error) {
	var paid *PurchaseOrder
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		po, err := tx.GetPOForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if po == nil {
			return poNotFound(id)
		}
		if po.Status != POStatusValidated {
			return fmt.Errorf("PO %s belum tervalidasi: %w", po.Number, shared.ErrInvalidState)
		}
		po.Status = POStatusPaid
		if err := tx.SavePO(ctx, *po); err != nil {
			return err
		}
		paid = po
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, "po.paid", id, nil)
	return paid, nil
}

func (s *Service) allocate(ctx context.Context, docType string, at time.Time) (string, error) {
	profile, err := s.profiles.Get(ctx)
	if err != nil {
		return "", err
	}
	return s.numbering.Allocate(ctx, docType, profile.CompanyInitials, at)
}

func (s *Service) recordAudit(ctx context.Context, action, entityID string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	actor := shared.IdentityFromContext(ctx)
	if err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor.ID,
		Action:   action,
		Entity:   "procurement",
		EntityID: entityID,
		Meta:     meta,
	}); err != nil {
		s.logger.Warn("audit record failed", slog.String("action", action), slog.Any("error", err))
	}
}
