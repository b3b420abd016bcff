package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

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

// NewRepository returns a RepositoryPort backed by PostgreSQL.
func NewRepository(pool *pgxpool.Pool) RepositoryPort {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

const itemColumns = `id, code, name, unit, category, stock, price::text, bom,
	purchase_date, purchase_value::text, useful_life_months, created_at`

func scanItem(row pgx.Row) (*Item, error) {
	var item Item
	var price, purchaseValue string
	var bomRaw []byte
	err := row.Scan(
		&item.ID, &item.Code, &item.Name, &item.Unit, &item.Category, &item.Stock,
		&price, &bomRaw, &item.PurchaseDate, &purchaseValue, &item.UsefulLifeMonths, &item.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if item.Price, err = decimal.NewFromString(price); err != nil {
		return nil, fmt.Errorf("inventory: parse price: %w", err)
	}
	if item.PurchaseValue, err = decimal.NewFromString(purchaseValue); err != nil {
		return nil, fmt.Errorf("inventory: parse purchase value: %w", err)
	}
	if len(bomRaw) > 0 {
		if err := json.Unmarshal(bomRaw, &item.BOM); err != nil {
			return nil, fmt.Errorf("inventory: parse bom: %w", err)
		}
	}
	return &item, nil
}

func (r *repository) getItem(ctx context.Context, id string, forUpdate bool) (*Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	item, err := scanItem(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return item, err
}

func (r *repository) GetItem(ctx context.Context, id string) (*Item, error) {
	return r.getItem(ctx, id, false)
}

func (r *repository) GetItemForUpdate(ctx context.Context, id string) (*Item, error) {
	return r.getItem(ctx, id, true)
}

func (r *repository) ListItems(ctx context.Context) ([]Item, error) {
	rows, err := r.db.Query(ctx, `SELECT `+itemColumns+` FROM items ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func (r *repository) SaveItem(ctx context.Context, item Item) error {
	bomRaw, err := json.Marshal(item.BOM)
	if err != nil {
		return fmt.Errorf("inventory: encode bom: %w", err)
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO items (id, code, name, unit, category, stock, price, bom,
			purchase_date, purchase_value, useful_life_months, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7::numeric, $8, $9, $10::numeric, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			code = EXCLUDED.code, name = EXCLUDED.name, unit = EXCLUDED.unit,
			category = EXCLUDED.category, price = EXCLUDED.price, bom = EXCLUDED.bom,
			purchase_date = EXCLUDED.purchase_date, purchase_value = EXCLUDED.purchase_value,
			useful_life_months = EXCLUDED.useful_life_months
	`, item.ID, item.Code, item.Name, item.Unit, item.Category, item.Stock,
		item.Price.String(), bomRaw, item.PurchaseDate, item.PurchaseValue.String(),
		item.UsefulLifeMonths, item.CreatedAt)
	return err
}

func (r *repository) SetStock(ctx context.Context, id string, stock float64) error {
	tag, err := r.db.Exec(ctx, `UPDATE items SET stock = $2 WHERE id = $1`, id, stock)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return notFound(id)
	}
	return nil
}

func (r *repository) DeleteItem(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM items WHERE id = $1`, id)
	return err
}

func (r *repository) InsertUsage(ctx context.Context, usage UsageRecord) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO consumable_usages (id, item_id, pic, used_on, quantity, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, usage.ID, usage.ItemID, usage.PIC, usage.Date, usage.Quantity, usage.Notes, usage.CreatedAt)
	return err
}

func (r *repository) ListUsage(ctx context.Context, itemID string) ([]UsageRecord, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, item_id, pic, used_on, quantity, notes, created_at
		FROM consumable_usages WHERE item_id = $1 ORDER BY used_on DESC, created_at DESC
	`, itemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var usages []UsageRecord
	for rows.Next() {
		var u UsageRecord
		if err := rows.Scan(&u.ID, &u.ItemID, &u.PIC, &u.Date, &u.Quantity, &u.Notes, &u.CreatedAt); err != nil {
			return nil, err
		}
		usages = append(usages, u)
	}
	return usages, rows.Err()
}
