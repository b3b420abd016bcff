package sales

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kencana-erp/kencana-erp/internal/finance"
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

// NewRepository returns a RepositoryPort backed by PostgreSQL. Line items,
// payments, document numbers and details live in jsonb columns, keeping the
// document shape of the record intact.
func NewRepository(pool *pgxpool.Pool) RepositoryPort {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

const projectColumns = `id, subject, client_id, status, created_at, doc_numbers, items, payments, details, stock_deducted`

func scanProject(row pgx.Row) (*Project, error) {
	var p Project
	var docNumbersRaw, itemsRaw, paymentsRaw, detailsRaw []byte
	err := row.Scan(&p.ID, &p.Subject, &p.ClientID, &p.Status, &p.CreatedAt,
		&docNumbersRaw, &itemsRaw, &paymentsRaw, &detailsRaw, &p.StockDeducted)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(docNumbersRaw, &p.DocNumbers); err != nil {
		return nil, fmt.Errorf("sales: decode doc numbers: %w", err)
	}
	if err := json.Unmarshal(itemsRaw, &p.Items); err != nil {
		return nil, fmt.Errorf("sales: decode items: %w", err)
	}
	if err := json.Unmarshal(paymentsRaw, &p.Payments); err != nil {
		return nil, fmt.Errorf("sales: decode payments: %w", err)
	}
	if err := json.Unmarshal(detailsRaw, &p.Details); err != nil {
		return nil, fmt.Errorf("sales: decode details: %w", err)
	}
	if p.DocNumbers == nil {
		p.DocNumbers = map[string]string{}
	}
	return &p, nil
}

func encodeProject(p Project) (docNumbers, items, payments, details []byte, err error) {
	if p.DocNumbers == nil {
		p.DocNumbers = map[string]string{}
	}
	if p.Items == nil {
		p.Items = []finance.LineItem{}
	}
	if p.Payments == nil {
		p.Payments = []finance.Payment{}
	}
	if docNumbers, err = json.Marshal(p.DocNumbers); err != nil {
		return
	}
	if items, err = json.Marshal(p.Items); err != nil {
		return
	}
	if payments, err = json.Marshal(p.Payments); err != nil {
		return
	}
	details, err = json.Marshal(p.Details)
	return
}

func (r *repository) get(ctx context.Context, id string, forUpdate bool) (*Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	project, err := scanProject(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return project, err
}

func (r *repository) Get(ctx context.Context, id string) (*Project, error) {
	return r.get(ctx, id, false)
}

func (r *repository) GetForUpdate(ctx context.Context, id string) (*Project, error) {
	return r.get(ctx, id, true)
}

func (r *repository) List(ctx context.Context) ([]Project, error) {
	rows, err := r.db.Query(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, *project)
	}
	return projects, rows.Err()
}

func (r *repository) Create(ctx context.Context, p Project) error {
	docNumbers, items, payments, details, err := encodeProject(p)
	if err != nil {
		return fmt.Errorf("sales: encode project: %w", err)
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO projects (id, subject, client_id, status, created_at, doc_numbers, items, payments, details, stock_deducted)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, p.ID, p.Subject, p.ClientID, p.Status, p.CreatedAt, docNumbers, items, payments, details, p.StockDeducted)
	return err
}

func (r *repository) Save(ctx context.Context, p Project) error {
	docNumbers, items, payments, details, err := encodeProject(p)
	if err != nil {
		return fmt.Errorf("sales: encode project: %w", err)
	}
	tag, err := r.db.Exec(ctx, `
		UPDATE projects SET subject = $2, client_id = $3, status = $4,
			doc_numbers = $5, items = $6, payments = $7, details = $8, stock_deducted = $9
		WHERE id = $1
	`, p.ID, p.Subject, p.ClientID, p.Status, docNumbers, items, payments, details, p.StockDeducted)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("sales: proyek %s hilang saat disimpan", p.ID)
	}
	return nil
}

func (r *repository) SetDocNumber(ctx context.Context, id, docType, number string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE projects SET doc_numbers = jsonb_set(doc_numbers, ARRAY[$2], to_jsonb($3::text))
		WHERE id = $1
	`, id, docType, number)
	return err
}

func (r *repository) SetStockDeducted(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `UPDATE projects SET stock_deducted = TRUE WHERE id = $1`, id)
	return err
}

func (r *repository) Delete(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	return err
}
