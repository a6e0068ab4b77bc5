// Package dictionary provides read access to stored entities: every row, a
// row by key, a page of rows, and the row count.
package dictionary

import (
	"context"
	"fmt"

	"github.com/conduit-lang/descriptor/internal/descriptor/model"
	"github.com/conduit-lang/descriptor/internal/persistence"
	"go.uber.org/zap"
)

// PaginatedDictionary looks up entities described by entity descriptors.
//
// Passing a nil descriptor, or a negative row or count, is a programming
// error and panics. Store failures are returned as *Error.
type PaginatedDictionary interface {
	// Lookup returns every entity of the described type.
	Lookup(ctx context.Context, d *model.EntityDescriptor) ([]any, error)
	// LookupKey returns the entity with the given key. The boolean is false,
	// with a nil error, when there is none.
	LookupKey(ctx context.Context, d *model.KeyedEntityDescriptor, key any) (any, bool, error)
	// LookupPaginated returns up to count entities starting at the
	// zero-based offset row.
	LookupPaginated(ctx context.Context, d *model.EntityDescriptor, row, count int) ([]any, error)
	// LookupTotals returns the number of stored entities.
	LookupTotals(ctx context.Context, d *model.EntityDescriptor) (int, error)
}

// Dictionary is the PaginatedDictionary over a persistence provider.
//
// A dictionary created with a manager runs every call on that manager.
// One created with a factory creates a new manager per call; managers
// share the factory connection pool.
type Dictionary struct {
	manager *persistence.Manager
	factory *persistence.Factory
	logger  *zap.Logger
}

var _ PaginatedDictionary = (*Dictionary)(nil)

// Option configures a Dictionary
type Option func(*Dictionary)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(d *Dictionary) {
		if logger != nil {
			d.logger = logger
		}
	}
}

func newDictionary(manager *persistence.Manager, factory *persistence.Factory, opts []Option) (*Dictionary, error) {
	if manager == nil && factory == nil {
		return nil, ErrNoConnection
	}
	d := &Dictionary{
		manager: manager,
		factory: factory,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// NewWithManager creates a dictionary that reuses manager for every call
func NewWithManager(manager *persistence.Manager, opts ...Option) (*Dictionary, error) {
	return newDictionary(manager, nil, opts)
}

// NewWithFactory creates a dictionary that takes a new manager per call
func NewWithFactory(factory *persistence.Factory, opts ...Option) (*Dictionary, error) {
	return newDictionary(nil, factory, opts)
}

// NewForUnit creates a dictionary over the factory of a persistence unit
func NewForUnit(ctx context.Context, unit string, opts ...Option) (*Dictionary, error) {
	factory, err := persistence.Open(ctx, unit)
	if err != nil {
		return nil, err
	}
	return NewWithFactory(factory, opts...)
}

func (d *Dictionary) entityManager() (*persistence.Manager, error) {
	if d.manager != nil {
		return d.manager, nil
	}
	return d.factory.CreateManager()
}

// Lookup returns every entity of the described type
func (d *Dictionary) Lookup(ctx context.Context, desc *model.EntityDescriptor) ([]any, error) {
	requireDescriptor(desc)
	d.logger.Debug("finding all entities", zap.Stringer("entity", desc))

	manager, err := d.entityManager()
	if err != nil {
		return nil, wrap("lookup", desc, err)
	}
	entities, err := manager.List(ctx, desc.EntityType(), 0, -1)
	if err != nil {
		return nil, wrap("lookup", desc, err)
	}
	return entities, nil
}

// LookupKey returns the entity whose key equals key
func (d *Dictionary) LookupKey(ctx context.Context, desc *model.KeyedEntityDescriptor, key any) (any, bool, error) {
	if desc == nil || desc.EntityDescriptor == nil {
		panic("dictionary: entity descriptor may not be nil")
	}
	d.logger.Debug("finding entity with key",
		zap.Any("key", key),
		zap.Stringer("entity", desc.EntityDescriptor))

	manager, err := d.entityManager()
	if err != nil {
		return nil, false, wrap("lookup key", desc.EntityDescriptor, err)
	}
	entity, found, err := manager.Find(ctx, desc.EntityType(), key)
	if err != nil {
		return nil, false, wrap("lookup key", desc.EntityDescriptor, err)
	}
	return entity, found, nil
}

// LookupPaginated returns up to count entities starting at row. Rows are
// ordered by key when the entity has one, so pages do not overlap.
func (d *Dictionary) LookupPaginated(ctx context.Context, desc *model.EntityDescriptor, row, count int) ([]any, error) {
	requireDescriptor(desc)
	if row < 0 {
		panic(fmt.Sprintf("dictionary: row must not be negative, got %d", row))
	}
	if count < 0 {
		panic(fmt.Sprintf("dictionary: count must not be negative, got %d", count))
	}
	d.logger.Debug("finding entities",
		zap.Int("count", count),
		zap.Int("row", row),
		zap.Stringer("entity", desc))

	manager, err := d.entityManager()
	if err != nil {
		return nil, wrap("lookup page", desc, err)
	}
	entities, err := manager.List(ctx, desc.EntityType(), row, count)
	if err != nil {
		return nil, wrap("lookup page", desc, err)
	}
	return entities, nil
}

// LookupTotals returns the number of stored entities
func (d *Dictionary) LookupTotals(ctx context.Context, desc *model.EntityDescriptor) (int, error) {
	requireDescriptor(desc)
	d.logger.Debug("counting entities", zap.Stringer("entity", desc))

	manager, err := d.entityManager()
	if err != nil {
		return 0, wrap("lookup totals", desc, err)
	}
	total, err := manager.Count(ctx, desc.EntityType())
	if err != nil {
		return 0, wrap("lookup totals", desc, err)
	}
	return total, nil
}

func requireDescriptor(desc *model.EntityDescriptor) {
	if desc == nil {
		panic("dictionary: entity descriptor may not be nil")
	}
}

func wrap(op string, desc *model.EntityDescriptor, err error) error {
	return &Error{Op: op, Entity: desc.Name(), Err: err}
}
