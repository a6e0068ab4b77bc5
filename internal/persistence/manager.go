package persistence

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/conduit-lang/descriptor/internal/orm/crud"
	"github.com/conduit-lang/descriptor/internal/orm/schema"
	"github.com/conduit-lang/descriptor/internal/orm/transaction"
)

// Manager performs entity operations against the store. A manager holds
// no connection of its own: it runs on the factory pool, or on a
// transaction inside Transaction.
type Manager struct {
	factory *Factory
	exec    crud.Executor
	tx      *transaction.Transaction
}

// Factory returns the factory the manager was created from
func (m *Manager) Factory() *Factory {
	return m.factory
}

func (m *Manager) operations(t reflect.Type) (*crud.Operations, error) {
	if m.factory.closed.Load() {
		return nil, ErrFactoryClosed
	}
	entity, ok := m.factory.metamodel.Entity(t)
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrUnknownEntity, t)
	}
	return crud.NewOperations(entity, m.factory.dialect, m.exec), nil
}

// Find loads the entity of type t with the given key. The boolean is
// false, with a nil error, when no entity has that key, including numeric
// keys with no exact value in the key type (50.9 for an int64 key).
func (m *Manager) Find(ctx context.Context, t reflect.Type, key any) (any, bool, error) {
	ops, err := m.operations(t)
	if err != nil {
		return nil, false, err
	}

	entity, err := ops.Find(ctx, key)
	if crud.IsNotFound(err) || errors.Is(err, schema.ErrInexactKey) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return entity, true, nil
}

// Persist inserts a new entity; entity must be a pointer to a mapped struct
func (m *Manager) Persist(ctx context.Context, entity any) error {
	ops, err := m.operations(reflect.TypeOf(entity))
	if err != nil {
		return err
	}
	return ops.Insert(ctx, entity)
}

// List loads up to limit entities of type t starting at offset, in key
// order. A negative limit loads every remaining entity.
func (m *Manager) List(ctx context.Context, t reflect.Type, offset, limit int) ([]any, error) {
	ops, err := m.operations(t)
	if err != nil {
		return nil, err
	}
	return ops.List(ctx, offset, limit)
}

// Count returns the number of stored entities of type t
func (m *Manager) Count(ctx context.Context, t reflect.Type) (int, error) {
	ops, err := m.operations(t)
	if err != nil {
		return 0, err
	}
	return ops.Count(ctx)
}

// Transaction runs fn with a manager bound to a new transaction. The
// transaction commits when fn returns nil and rolls back otherwise; it is
// run again after a deadlock or serialization failure, so fn must not
// keep state across attempts.
//
// Called on a manager that is already inside a transaction, fn runs in a
// savepoint: its failure undoes only its own work and the enclosing
// transaction carries on.
func (m *Manager) Transaction(ctx context.Context, fn func(tx *Manager) error) error {
	if m.factory.closed.Load() {
		return ErrFactoryClosed
	}
	if m.tx != nil {
		return m.tx.WithNested(ctx, func(nested *transaction.Transaction) error {
			return fn(m.within(nested))
		})
	}

	return transaction.NewManager(m.factory.db).WithRetry(ctx, func(tx *transaction.Transaction) error {
		return fn(m.within(tx))
	})
}

func (m *Manager) within(tx *transaction.Transaction) *Manager {
	return &Manager{factory: m.factory, exec: tx.Tx(), tx: tx}
}
