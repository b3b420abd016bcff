package procurement

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kencana-erp/kencana-erp/internal/platform/db"
)

type dbtx interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

type repository struct {
	db   dbtx
	pool *pgxpool.Pool
}

// NewRepository returns a RepositoryPort backed by PostgreSQL. Lines and the
// vendor invoice live in jsonb columns.
func NewRepository(pool *pgxpool.Pool) RepositoryPort {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

const prColumns = `id, number, requester, justification, created_at, status, lines`

func scanPR(row pgx.Row) (*PurchaseRequisition, error) {
	var pr PurchaseRequisition
	var linesRaw []byte
	err := row.Scan(&pr.ID, &pr.Number, &pr.Requester, &pr.Justification, &pr.CreatedAt, &pr.Status, &linesRaw)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(linesRaw, &pr.Lines); err != nil {
		return nil, fmt.Errorf("procurement: decode PR lines: %w", err)
	}
	return &pr, nil
}

func (r *repository) getPR(ctx context.Context, id string, forUpdate bool) (*PurchaseRequisition, error) {
	query := `SELECT ` + prColumns + ` FROM purchase_requisitions WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	pr, err := scanPR(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return pr, err
}

func (r *repository) GetPR(ctx context.Context, id string) (*PurchaseRequisition, error) {
	return r.getPR(ctx, id, false)
}

func (r *repository) GetPRForUpdate(ctx context.Context, id string) (*PurchaseRequisition, error) {
	return r.getPR(ctx, id, true)
}

func (r *repository) ListPRs(ctx context.Context) ([]PurchaseRequisition, error) {
	rows, err := r.db.Query(ctx, `SELECT `+prColumns+` FROM purchase_requisitions ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var prs []PurchaseRequisition
	for rows.Next() {
		pr, err := scanPR(rows)
		if err != nil {
			return nil, err
		}
		prs = append(prs, *pr)
	}
	return prs, rows.Err()
}

func (r *repository) CreatePR(ctx context.Context, pr PurchaseRequisition) error {
	lines, err := json.Marshal(pr.Lines)
	if err != nil {
		return fmt.Errorf("procurement: encode PR lines: %w", err)
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO purchase_requisitions (id, number, requester, justification, created_at, status, lines)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, pr.ID, pr.Number, pr.Requester, pr.Justification, pr.CreatedAt, pr.Status, lines)
	return err
}

func (r *repository) SavePR(ctx context.Context, pr PurchaseRequisition) error {
	lines, err := json.Marshal(pr.Lines)
	if err != nil {
		return fmt.Errorf("procurement: encode PR lines: %w", err)
	}
	tag, err := r.db.Exec(ctx, `
		UPDATE purchase_requisitions SET requester = $2, justification = $3, status = $4, lines = $5
		WHERE id = $1
	`, pr.ID, pr.Requester, pr.Justification, pr.Status, lines)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("procurement: PR %s hilang saat disimpan", pr.ID)
	}
	return nil
}

const poColumns = `id, number, pr_id, vendor_id, created_at, status, lines, vendor_invoice`

func scanPO(row pgx.Row) (*PurchaseOrder, error) {
	var po PurchaseOrder
	var prID *string
	var linesRaw, invoiceRaw []byte
	err := row.Scan(&po.ID, &po.Number, &prID, &po.VendorID, &po.CreatedAt, &po.Status, &linesRaw, &invoiceRaw)
	if err != nil {
		return nil, err
	}
	if prID != nil {
		po.PRID = *prID
	}
	if err := json.Unmarshal(linesRaw, &po.Lines); err != nil {
		return nil, fmt.Errorf("procurement: decode PO lines: %w", err)
	}
	if len(invoiceRaw) > 0 {
		if err := json.Unmarshal(invoiceRaw, &po.VendorInvoice); err != nil {
			return nil, fmt.Errorf("procurement: decode vendor invoice: %w", err)
		}
	}
	return &po, nil
}

func (r *repository) getPO(ctx context.Context, id string, forUpdate bool) (*PurchaseOrder, error) {
	query := `SELECT ` + poColumns + ` FROM purchase_orders WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	po, err := scanPO(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return po, err
}

func (r *repository) GetPO(ctx context.Context, id string) (*PurchaseOrder, error) {
	return r.getPO(ctx, id, false)
}

func (r *repository) GetPOForUpdate(ctx context.Context, id string) (*PurchaseOrder, error) {
	return r.getPO(ctx, id, true)
}

func (r *repository) ListPOs(ctx context.Context) ([]PurchaseOrder, error) {
	rows, err := r.db.Query(ctx, `SELECT `+poColumns+` FROM purchase_orders ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pos []PurchaseOrder
	for rows.Next() {
		po, err := scanPO(rows)
		if err != nil {
			return nil, err
		}
		pos = append(pos, *po)
	}
	return pos, rows.Err()
}

func encodePO(po PurchaseOrder) (lines, invoice []byte, prID *string, err error) {
	if lines, err = json.Marshal(po.Lines); err != nil {
		err = fmt.Errorf("procurement: encode PO lines: %w", err)
		return
	}
	if po.VendorInvoice != nil {
		if invoice, err = json.Marshal(po.VendorInvoice); err != nil {
			err = fmt.Errorf("procurement: encode vendor invoice: %w", err)
			return
		}
	}
	if po.PRID != "" {
		prID = &po.PRID
	}
	return
}

func (r *repository) CreatePO(ctx context.Context, po PurchaseOrder) error {
	lines, invoice, prID, err := encodePO(po)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO purchase_orders (id, number, pr_id, vendor_id, created_at, status, lines, vendor_invoice)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, po.ID, po.Number, prID, po.VendorID, po.CreatedAt, po.Status, lines, invoice)
	return err
}

func (r *repository) SavePO(ctx context.Context, po PurchaseOrder) error {
	lines, invoice, prID, err := encodePO(po)
	if err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, `
		UPDATE purchase_orders SET pr_id = $2, vendor_id = $3, status = $4, lines = $5, vendor_invoice = $6
		WHERE id = $1
	`, po.ID, prID, po.VendorID, po.Status, lines, invoice)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("procurement: PO %s hilang saat disimpan", po.ID)
	}
	return nil
}

func (r *repository) DeletePO(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM purchase_orders WHERE id = $1`, id)
	return err
}
