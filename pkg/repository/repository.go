// Package repository holds the SQL plumbing shared by the PostgreSQL stores:
// transactions, typed row scanning, guarded conditional writes, error
// mapping and bounded read retries.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrGuardFailed reports that a conditional write matched no row: the
// WHERE guard (typically a status check) no longer held.
var ErrGuardFailed = errors.New("conditional write matched no rows")

// Querier is implemented by *sql.DB, *sql.Tx, and *sql.Conn.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Executor is implemented by *sql.DB, *sql.Tx, and *sql.Conn.
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// TxStarter is implemented by *sql.DB and *sql.Conn.
type TxStarter interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// Scanner is satisfied by *sql.Row and *sql.Rows.
type Scanner interface {
	Scan(dest ...any) error
}

// ScanFunc converts one row into a typed value.
type ScanFunc[T any] func(Scanner) (T, error)

// WithTx runs fn in a transaction and commits only if fn succeeds.
// Failures to begin or commit are infrastructure failures and carry
// ErrTransient; errors returned by fn pass through untouched.
func WithTx[T any](ctx context.Context, db TxStarter, fn func(tx *sql.Tx) (T, error)) (T, error) {
	var zero T

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return zero, Transient(fmt.Errorf("begin transaction: %w", err))
	}
	defer tx.Rollback()

	result, err := fn(tx)
	if err != nil {
		return zero, err
	}

	if err := tx.Commit(); err != nil {
		return zero, Transient(fmt.Errorf("commit transaction: %w", err))
	}
	return result, nil
}

// QueryOne scans the single row returned by query.
// A missing row surfaces as sql.ErrNoRows for MapError to translate.
func QueryOne[T any](ctx context.Context, q Querier, query string, args []any, scan ScanFunc[T]) (T, error) {
	return scan(q.QueryRowContext(ctx, query, args...))
}

// QueryMany scans every row returned by query. No rows yields an empty,
// non-nil slice.
func QueryMany[T any](ctx context.Context, q Querier, query string, args []any, scan ScanFunc[T]) ([]T, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]T, 0)
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, item)
	}
	return results, rows.Err()
}

// QueryGuarded runs a conditional write with a RETURNING clause, such as
// UPDATE ... WHERE id = $1 AND status = 'pending' RETURNING ...
// No returned row means the guard failed and yields ErrGuardFailed.
func QueryGuarded[T any](ctx context.Context, q Querier, query string, args []any, scan ScanFunc[T]) (T, error) {
	result, err := QueryOne(ctx, q, query, args, scan)
	if errors.Is(err, sql.ErrNoRows) {
		return result, ErrGuardFailed
	}
	return result, err
}
