package storage

import (
	"context"
	"database/sql"
	"fmt"

	"chatvault/internal/contextutil"
)

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// conn runs ?-placeholder queries against an execer in the right dialect.
type conn struct {
	q      execer
	driver Driver
}

func (c conn) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return c.q.ExecContext(ctx, c.driver.Rebind(query), args...)
}

func (c conn) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return c.q.QueryContext(ctx, c.driver.Rebind(query), args...)
}

func (c conn) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return c.q.QueryRowContext(ctx, c.driver.Rebind(query), args...)
}

// Repos groups stores that share one connection or transaction.
type Repos struct {
	Platforms PlatformStore
	Jobs      JobStore
	Files     ImportedFileStore
	Threads   ThreadStore
}

func newRepos(c conn) Repos {
	return Repos{
		Platforms: &PlatformRepo{c: c},
		Jobs:      &JobRepo{c: c},
		Files:     &ImportedFileRepo{c: c},
		Threads:   &ThreadRepo{c: c},
	}
}

// TxRunner runs a unit of work in a single transaction.
type TxRunner interface {
	// InTx calls fn with transaction-bound stores. The transaction commits
	// when fn returns nil and rolls back otherwise.
	InTx(ctx context.Context, fn func(Repos) error) error
}

// Repos returns stores bound to the connection pool.
func (db *DB) Repos() Repos {
	return newRepos(conn{q: db.DB, driver: db.driver})
}

// InTx implements TxRunner.
func (db *DB) InTx(ctx context.Context, fn func(Repos) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(newRepos(conn{q: tx, driver: db.driver})); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			contextutil.LoggerFromContext(ctx).WarnContext(ctx, "transaction rollback failed", "error", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
