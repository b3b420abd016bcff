package numbering

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CounterStore allocates per-document-type, per-year sequence numbers.
// Next must be atomic: concurrent callers for the same key receive distinct
// consecutive values. Values are never reused or decremented.
type CounterStore interface {
	Next(ctx context.Context, docType string, year int) (int64, error)
	Snapshot(ctx context.Context, year int) (map[string]int64, error)
}

type dbtx interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// PGCounter stores counters in the document_sequences table. The upsert with
// RETURNING runs as a single statement, so allocation is atomic without an
// explicit transaction.
type PGCounter struct {
	db dbtx
}

// NewPGCounter returns a CounterStore backed by PostgreSQL.
func NewPGCounter(pool *pgxpool.Pool) *PGCounter {
	return &PGCounter{db: pool}
}

func (c *PGCounter) Next(ctx context.Context, docType string, year int) (int64, error) {
	var seq int64
	err := c.db.QueryRow(ctx, `
		INSERT INTO document_sequences (doc_type, year, seq)
		VALUES ($1, $2, 1)
		ON CONFLICT (doc_type, year)
		DO UPDATE SET seq = document_sequences.seq + 1
		RETURNING seq
	`, docType, year).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("numbering: next %s/%d: %w", docType, year, err)
	}
	return seq, nil
}

func (c *PGCounter) Snapshot(ctx context.Context, year int) (map[string]int64, error) {
	rows, err := c.db.Query(ctx, `SELECT doc_type, seq FROM document_sequences WHERE year = $1`, year)
	if err != nil {
		return nil, fmt.Errorf("numbering: snapshot %d: %w", year, err)
	}
	defer rows.Close()

	counters := make(map[string]int64)
	for rows.Next() {
		var docType string
		var seq int64
		if err := rows.Scan(&docType, &seq); err != nil {
			return nil, err
		}
		counters[docType] = seq
	}
	return counters, rows.Err()
}
