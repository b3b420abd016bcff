package partners

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kencana-erp/kencana-erp/internal/shared"
)

// Repository persists clients and vendors.
type Repository interface {
	GetClient(ctx context.Context, id string) (*Client, error)
	ListClients(ctx context.Context) ([]Client, error)
	SaveClient(ctx context.Context, client Client) error
	DeleteClient(ctx context.Context, id string) error

	GetVendor(ctx context.Context, id string) (*Vendor, error)
	ListVendors(ctx context.Context) ([]Vendor, error)
	SaveVendor(ctx context.Context, vendor Vendor) error
	DeleteVendor(ctx context.Context, id string) error
}

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository returns a Repository backed by PostgreSQL.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

func (r *pgRepository) GetClient(ctx context.Context, id string) (*Client, error) {
	var c Client
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, department, pic, email, address, npwp, created_at
		FROM clients WHERE id = $1
	`, id).Scan(&c.ID, &c.Name, &c.Department, &c.PIC, &c.Email, &c.Address, &c.NPWP, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("partners: client %s: %w", id, shared.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *pgRepository) ListClients(ctx context.Context) ([]Client, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, department, pic, email, address, npwp, created_at
		FROM clients ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clients []Client
	for rows.Next() {
		var c Client
		if err := rows.Scan(&c.ID, &c.Name, &c.Department, &c.PIC, &c.Email, &c.Address, &c.NPWP, &c.CreatedAt); err != nil {
			return nil, err
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

func (r *pgRepository) SaveClient(ctx context.Context, c Client) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO clients (id, name, department, pic, email, address, npwp, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, department = EXCLUDED.department, pic = EXCLUDED.pic,
			email = EXCLUDED.email, address = EXCLUDED.address, npwp = EXCLUDED.npwp
	`, c.ID, c.Name, c.Department, c.PIC, c.Email, c.Address, c.NPWP, c.CreatedAt)
	return err
}

func (r *pgRepository) DeleteClient(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM clients WHERE id = $1`, id)
	return err
}

func (r *pgRepository) GetVendor(ctx context.Context, id string) (*Vendor, error) {
	var v Vendor
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, contact_person, phone, email, address, npwp, created_at
		FROM vendors WHERE id = $1
	`, id).Scan(&v.ID, &v.Name, &v.ContactPerson, &v.Phone, &v.Email, &v.Address, &v.NPWP, &v.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("partners: vendor %s: %w", id, shared.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *pgRepository) ListVendors(ctx context.Context) ([]Vendor, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, contact_person, phone, email, address, npwp, created_at
		FROM vendors ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vendors []Vendor
	for rows.Next() {
		var v Vendor
		if err := rows.Scan(&v.ID, &v.Name, &v.ContactPerson, &v.Phone, &v.Email, &v.Address, &v.NPWP, &v.CreatedAt); err != nil {
			return nil, err
		}
		vendors = append(vendors, v)
	}
	return vendors, rows.Err()
}

func (r *pgRepository) SaveVendor(ctx context.Context, v Vendor) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO vendors (id, name, contact_person, phone, email, address, npwp, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, contact_person = EXCLUDED.contact_person, phone = EXCLUDED.phone,
			email = EXCLUDED.email, address = EXCLUDED.address, npwp = EXCLUDED.npwp
	`, v.ID, v.Name, v.ContactPerson, v.Phone, v.Email, v.Address, v.NPWP, v.CreatedAt)
	return err
}

func (r *pgRepository) DeleteVendor(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM vendors WHERE id = $1`, id)
	return err
}
