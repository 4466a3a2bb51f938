package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// ErrNoTransaction is returned by operations that must run inside Transaction
var ErrNoTransaction = errors.New("operation requires an open transaction")

type txKey struct{}

// Querier is the subset of sqlx shared by *sqlx.DB and *sqlx.Tx.
// Repositories obtain one through DB.Querier so the same code runs
// standalone or as one step of a larger transaction.
type Querier interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

// Transaction executes fn within a transaction carried by the context passed to fn.
// A call made while a transaction is already open joins it; only the outermost
// call commits or rolls back.
//
// Usage in services:
//
//	err := s.db.Transaction(ctx, func(ctx context.Context) error {
//	    if err := s.costs.Create(ctx, cost); err != nil {
//	        return err
//	    }
//	    return s.entries.Create(ctx, entry)
//	})
func (db *DB) Transaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if InTransaction(ctx) {
		return fn(ctx)
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			db.rollback(tx)
			panic(p)
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		db.rollback(tx)
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (db *DB) rollback(tx *sqlx.Tx) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		db.logger.Error().Err(err).Msg("failed to rollback transaction")
	}
}

// Querier returns the transaction open on ctx, or the pool when there is none
func (db *DB) Querier(ctx context.Context) Querier {
	if tx := getTx(ctx); tx != nil {
		return tx
	}
	return db.DB
}

// InTransaction reports whether ctx carries an open transaction
func InTransaction(ctx context.Context) bool {
	return getTx(ctx) != nil
}

// AdvisoryXactLock takes a transaction-scoped advisory lock on key.
// The lock is released by Postgres on commit or rollback.
func (db *DB) AdvisoryXactLock(ctx context.Context, key string) error {
	tx := getTx(ctx)
	if tx == nil {
		return ErrNoTransaction
	}

	if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", key); err != nil {
		return fmt.Errorf("failed to acquire advisory lock %q: %w", key, err)
	}
	return nil
}

// getTx extracts transaction from context if present
func getTx(ctx context.Context) *sqlx.Tx {
	if tx, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return tx
	}
	return nil
}

