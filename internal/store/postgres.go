// Package store provides the Postgres-backed historical transaction source
// the auto-labeler reads training data from.
package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"tokenflow-intent/internal/training"
)

// Postgres reads stored transactions from the token-flow transaction table.
type Postgres struct {
	pool *pgxpool.Pool
}

var _ training.TransactionSource = (*Postgres)(nil)

// NewPostgres connects to the database at dsn and verifies the connection.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// Close releases the connection pool.
func (p *Postgres) Close() {
	p.pool.Close()
}

// FetchSuccessful returns up to limit successful transactions. The payload
// columns come back as raw JSON; older writers stored them as JSON strings,
// which the collector unwraps.
func (p *Postgres) FetchSuccessful(ctx context.Context, limit int) ([]training.Row, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT instructions, accounts, fee
		 FROM transactions
		 WHERE success = true
		 LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []training.Row
	for rows.Next() {
		var (
			instructions []byte
			accounts     []byte
			fee          int64
		)
		if err := rows.Scan(&instructions, &accounts, &fee); err != nil {
			return nil, fmt.Errorf("scan transaction row: %w", err)
		}
		if fee < 0 {
			fee = 0
		}
		out = append(out, training.Row{
			Instructions: json.RawMessage(instructions),
			Accounts:     json.RawMessage(accounts),
			Fee:          uint64(fee),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transaction rows: %w", err)
	}
	return out, nil
}
