package inventory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kencana-erp/kencana-erp/internal/shared"
)

// RepositoryPort is the persistence interface the service depends on.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetItem(ctx context.Context, id string) (*Item, error)
	ListItems(ctx context.Context) ([]Item, error)
	SaveItem(ctx context.Context, item Item) error
	DeleteItem(ctx context.Context, id string) error
	ListUsage(ctx context.Context, itemID string) ([]UsageRecord, error)
}

// TxRepository is the transactional slice of the repository. All stock
// mutations issued through it commit or roll back together.
type TxRepository interface {
	GetItemForUpdate(ctx context.Context, id string) (*Item, error)
	SetStock(ctx context.Context, id string, stock float64) error
	InsertUsage(ctx context.Context, usage UsageRecord) error
}

// ServiceConfig tunes ledger behaviour.
type ServiceConfig struct {
	// AllowNegativeStock permits deductions below zero, matching ledgers
	// that reconcile physical counts after the fact.
	AllowNegativeStock bool
}

// Service implements the stock ledger operations.
type Service struct {
	repo   RepositoryPort
	idem   shared.IdempotencyPort
	audit  shared.AuditPort
	logger *slog.Logger
	cfg    ServiceConfig
}

// NewService constructs the inventory service.
func NewService(repo RepositoryPort, idem shared.IdempotencyPort, audit shared.AuditPort, logger *slog.Logger, cfg ServiceConfig) *Service {
	return &Service{repo: repo, idem: idem, audit: audit, logger: logger, cfg: cfg}
}

func notFound(itemID string) error {
	return fmt.Errorf("inventory: item dengan ID %s tidak ditemukan: %w", itemID, shared.ErrNotFound)
}

// AdjustStock applies a signed delta to one item inside a transaction.
// The read-modify-write runs under a row lock so concurrent adjustments of
// the same item serialize instead of losing updates.
func (s *Service) AdjustStock(ctx context.Context, itemID string, delta float64) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return s.applyDelta(ctx, tx, itemID, delta)
	})
	if err != nil {
		return err
	}
	s.recordAudit(ctx, "inventory.adjust_stock", itemID, map[string]any{"delta": delta})
	return nil
}

func (s *Service) applyDelta(ctx context.Context, tx TxRepository, itemID string, delta float64) error {
	item, err := tx.GetItemForUpdate(ctx, itemID)
	if err != nil {
		return err
	}
	if item == nil {
		return notFound(itemID)
	}
	if !item.Category.Stocked() {
		return fmt.Errorf("%w: %s", ErrNotStocked, itemID)
	}
	next := item.Stock + delta
	if next < 0 && !s.cfg.AllowNegativeStock {
		return fmt.Errorf("%w: item %s saldo %.2f delta %.2f", ErrNegativeStock, itemID, item.Stock, delta)
	}
	return tx.SetStock(ctx, itemID, next)
}

// PostDeliveryDeduction deducts stock for every delivered line. Products
// with a BOM fan out into their raw-material components; the product's own
// stock stays untouched. All deductions for one reference commit atomically,
// and the reference is idempotent: a replay is a no-op.
func (s *Service) PostDeliveryDeduction(ctx context.Context, ref string, lines []DeliveryLine) error {
	if ref == "" {
		return errors.New("inventory: delivery reference required")
	}
	key := "DELIVERY:" + ref
	if err := s.idem.CheckAndInsert(ctx, key, "inventory"); err != nil {
		if errors.Is(err, shared.ErrIdempotencyConflict) {
			s.logger.Info("delivery already posted", slog.String("ref", ref))
			return nil
		}
		return err
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		for _, line := range lines {
			if line.Quantity <= 0 {
				return fmt.Errorf("%w: %s", ErrInvalidQuantity, line.ItemID)
			}
			item, err := tx.GetItemForUpdate(ctx, line.ItemID)
			if err != nil {
				return err
			}
			if item == nil {
				return notFound(line.ItemID)
			}
			if item.Category == CategoryProduct && len(item.BOM) > 0 {
				for _, component := range item.BOM {
					if err := s.applyDelta(ctx, tx, component.ItemID, -component.Quantity*line.Quantity); err != nil {
						return err
					}
				}
				continue
			}
			if err := s.applyDelta(ctx, tx, line.ItemID, -line.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if delErr := s.idem.Delete(ctx, key); delErr != nil {
			s.logger.Warn("rollback idempotency key", slog.String("key", key), slog.Any("error", delErr))
		}
		return err
	}
	s.recordAudit(ctx, "inventory.delivery_deduction", ref, map[string]any{"lines": len(lines)})
	return nil
}

// PostReceipt adds received quantities to stock, one transaction per
// reference, guarded by an idempotency key.
func (s *Service) PostReceipt(ctx context.Context, ref string, lines []ReceiptLine) error {
	if ref == "" {
		return errors.New("inventory: receipt reference required")
	}
	key := "GRN:" + ref
	if err := s.idem.CheckAndInsert(ctx, key, "inventory"); err != nil {
		if errors.Is(err, shared.ErrIdempotencyConflict) {
			s.logger.Info("receipt already posted", slog.String("ref", ref))
			return nil
		}
		return err
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		for _, line := range lines {
			if line.Quantity <= 0 {
				return fmt.Errorf("%w: %s", ErrInvalidQuantity, line.ItemID)
			}
			if err := s.applyDelta(ctx, tx, line.ItemID, line.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if delErr := s.idem.Delete(ctx, key); delErr != nil {
			s.logger.Warn("rollback idempotency key", slog.String("key", key), slog.Any("error", delErr))
		}
		return err
	}
	s.recordAudit(ctx, "inventory.goods_receipt", ref, map[string]any{"lines": len(lines)})
	return nil
}

// UsageInput describes a consumable withdrawal.
type UsageInput struct {
	ItemID   string
	PIC      string
	Date     time.Time
	Quantity float64
	Notes    string
}

// RecordConsumableUsage logs the usage record and deducts the quantity in
// the same transaction.
func (s *Service) RecordConsumableUsage(ctx context.Context, input UsageInput) (*UsageRecord, error) {
	if input.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	if input.ItemID == "" || input.PIC == "" {
		return nil, fmt.Errorf("inventory: pic dan item wajib diisi: %w", shared.ErrValidation)
	}
	date := input.Date
	if date.IsZero() {
		date = time.Now()
	}
	usage := UsageRecord{
		ID:        uuid.NewString(),
		ItemID:    input.ItemID,
		PIC:       input.PIC,
		Date:      date,
		Quantity:  input.Quantity,
		Notes:     input.Notes,
		CreatedAt: time.Now(),
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		item, err := tx.GetItemForUpdate(ctx, input.ItemID)
		if err != nil {
			return err
		}
		if item == nil {
			return notFound(input.ItemID)
		}
		if item.Category != CategoryConsumable {
			return fmt.Errorf("inventory: item %s bukan consumable: %w", input.ItemID, shared.ErrValidation)
		}
		if err := tx.InsertUsage(ctx, usage); err != nil {
			return err
		}
		return s.applyDelta(ctx, tx, input.ItemID, -input.Quantity)
	})
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, "inventory.consumable_usage", usage.ID, map[string]any{"item": input.ItemID, "qty": input.Quantity})
	return &usage, nil
}

// GetItem returns one item.
func (s *Service) GetItem(ctx context.Context, id string) (*Item, error) {
	item, err := s.repo.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, notFound(id)
	}
	return item, nil
}

// ListItems returns all items.
func (s *Service) ListItems(ctx context.Context) ([]Item, error) {
	return s.repo.ListItems(ctx)
}

// SaveItem validates and upserts an item. The item id defaults to its code.
// Attributes that do not apply to the category are cleared so stale values
// cannot leak between category changes.
func (s *Service) SaveItem(ctx context.Context, item Item) (*Item, error) {
	if item.Code == "" || item.Name == "" {
		return nil, fmt.Errorf("inventory: kode dan nama item wajib diisi: %w", shared.ErrValidation)
	}
	if !item.Category.Valid() {
		return nil, fmt.Errorf("inventory: kategori %q tidak dikenal: %w", item.Category, shared.ErrValidation)
	}
	if item.ID == "" {
		item.ID = item.Code
	}
	if item.Category != CategoryProduct {
		item.Price = decimal.Zero
		item.BOM = nil
	}
	if item.Category != CategoryAsset {
		item.PurchaseDate = nil
		item.PurchaseValue = decimal.Zero
		item.UsefulLifeMonths = 0
	}
	if !item.Category.Stocked() {
		item.Stock = 0
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now()
	}
	if err := s.repo.SaveItem(ctx, item); err != nil {
		return nil, err
	}
	s.recordAudit(ctx, "inventory.save_item", item.ID, map[string]any{"category": string(item.Category)})
	return &item, nil
}

// DeleteItem removes an item from the master data. Ledger history is kept.
func (s *Service) DeleteItem(ctx context.Context, id string) error {
	if err := s.repo.DeleteItem(ctx, id); err != nil {
		return err
	}
	s.recordAudit(ctx, "inventory.delete_item", id, nil)
	return nil
}

// StockCard returns the usage history of an item.
func (s *Service) StockCard(ctx context.Context, itemID string) ([]UsageRecord, error) {
	return s.repo.ListUsage(ctx, itemID)
}

func (s *Service) recordAudit(ctx context.Context, action, entityID string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	actor := shared.IdentityFromContext(ctx)
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor.ID,
		Action:   action,
		Entity:   "inventory",
		EntityID: entityID,
		Meta:     meta,
	})
	if err != nil {
		s.logger.Warn("audit record", slog.String("action", action), slog.Any("error", err))
	}
}
