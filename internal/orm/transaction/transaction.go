// Package transaction wraps database/sql transactions with commit/rollback
// bookkeeping and savepoint based nesting.
package transaction

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync/atomic"
)

var (
	// ErrCommitted is returned when finishing a transaction that was already committed
	ErrCommitted = errors.New("transaction already committed")
	// ErrRolledBack is returned when committing a transaction that was already rolled back
	ErrRolledBack = errors.New("transaction already rolled back")
)

// savepointCounter provides unique savepoint IDs across all transactions
var savepointCounter atomic.Uint64

// Transaction is a database transaction, or a savepoint inside one
type Transaction struct {
	tx         *sql.Tx
	ctx        context.Context
	savepoint  string // empty for the top-level transaction
	committed  atomic.Bool
	rolledBack atomic.Bool
}

// Manager manages database transactions
type Manager struct {
	db *sql.DB
}

// NewManager creates a new transaction manager
func NewManager(db *sql.DB) *Manager {
	return &Manager{db: db}
}

// Begin starts a new transaction with the driver's isolation level
func (m *Manager) Begin(ctx context.Context) (*Transaction, error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &Transaction{tx: tx, ctx: ctx}, nil
}

// WithTransaction executes fn within a new transaction.
// Commits on success, rolls back on error or panic.
func (m *Manager) WithTransaction(ctx context.Context, fn func(tx *Transaction) error) error {
	tx, err := m.Begin(ctx)
	if err != nil {
		return err
	}
	return run(tx, fn)
}

// Tx returns the underlying sql.Tx, shared by every nesting level
func (t *Transaction) Tx() *sql.Tx {
	return t.tx
}

// Nested reports whether the transaction is a savepoint
func (t *Transaction) Nested() bool {
	return t.savepoint != ""
}

// BeginNested opens a savepoint inside the transaction
func (t *Transaction) BeginNested(ctx context.Context) (*Transaction, error) {
	name := fmt.Sprintf("sp_%d", savepointCounter.Add(1))
	if _, err := t.tx.ExecContext(ctx, "SAVEPOINT "+name); err != nil {
		return nil, fmt.Errorf("failed to create savepoint: %w", err)
	}
	return &Transaction{tx: t.tx, ctx: ctx, savepoint: name}, nil
}

// WithNested executes fn within a savepoint. An error or panic rolls back
// to the savepoint and leaves the enclosing transaction usable.
func (t *Transaction) WithNested(ctx context.Context, fn func(tx *Transaction) error) error {
	nested, err := t.BeginNested(ctx)
	if err != nil {
		return err
	}
	return run(nested, fn)
}

// Commit commits the transaction, or releases the savepoint of a nested one
func (t *Transaction) Commit() error {
	if t.committed.Load() {
		return ErrCommitted
	}
	if t.rolledBack.Load() {
		return ErrRolledBack
	}

	if t.Nested() {
		if _, err := t.tx.ExecContext(t.ctx, "RELEASE SAVEPOINT "+t.savepoint); err != nil {
			return fmt.Errorf("failed to release savepoint: %w", err)
		}
	} else if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	t.committed.Store(true)
	return nil
}

// Rollback rolls back the transaction, or to the savepoint of a nested one.
// Rolling back twice is a no-op.
func (t *Transaction) Rollback() error {
	if t.committed.Load() {
		return ErrCommitted
	}
	if t.rolledBack.Load() {
		return nil
	}

	if t.Nested() {
		if _, err := t.tx.ExecContext(t.ctx, "ROLLBACK TO SAVEPOINT "+t.savepoint); err != nil {
			return fmt.Errorf("failed to rollback to savepoint: %w", err)
		}
	} else if err := t.tx.Rollback(); err != nil {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}

	t.rolledBack.Store(true)
	return nil
}

// run commits tx when fn succeeds and rolls it back otherwise
func run(tx *Transaction, fn func(tx *Transaction) error) error {
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction failed: %w, rollback failed: %v", err, rbErr)
		}
		return err
	}

	return tx.Commit()
}
