// Package persistence is the provider façade over database/sql: persistence
// units, factories owning a connection pool and metamodel, and managers
// performing entity operations.
package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"sync/atomic"

	"github.com/conduit-lang/descriptor/internal/orm/codegen"
	"github.com/conduit-lang/descriptor/internal/orm/dialect"
	"github.com/conduit-lang/descriptor/internal/orm/schema"
	"go.uber.org/zap"
)

var (
	// ErrFactoryClosed is returned when using a closed factory
	ErrFactoryClosed = errors.New("persistence factory is closed")

	// ErrUnknownEntity is returned for types outside the factory metamodel
	ErrUnknownEntity = errors.New("type is not a managed entity")
)

// Metamodel exposes the entity types managed by a persistence unit
type Metamodel interface {
	Types() []reflect.Type
}

var _ Metamodel = (*schema.Metamodel)(nil)

// Factory owns the connection pool and metamodel of one persistence unit
// and hands out managers over them.
type Factory struct {
	unit      string
	db        *sql.DB
	dialect   dialect.Dialect
	metamodel *schema.Metamodel
	logger    *zap.Logger
	closed    atomic.Bool
}

// Option configures a Factory
type Option func(*Factory)

// WithLogger sets the factory logger
func WithLogger(logger *zap.Logger) Option {
	return func(f *Factory) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithUnitName records the persistence unit the factory was opened for
func WithUnitName(name string) Option {
	return func(f *Factory) {
		f.unit = name
	}
}

// NewFactory creates a factory over an open database
func NewFactory(db *sql.DB, d dialect.Dialect, metamodel *schema.Metamodel, opts ...Option) *Factory {
	f := &Factory{
		db:        db,
		dialect:   d,
		metamodel: metamodel,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Unit returns the persistence unit name, or "" for ad hoc factories
func (f *Factory) Unit() string { return f.unit }

// Metamodel returns the mapped entity types
func (f *Factory) Metamodel() *schema.Metamodel { return f.metamodel }

// Dialect returns the SQL dialect of the store
func (f *Factory) Dialect() dialect.Dialect { return f.dialect }

// DB returns the shared connection pool
func (f *Factory) DB() *sql.DB { return f.db }

// CreateManager returns a new manager. Managers share the factory pool.
func (f *Factory) CreateManager() (*Manager, error) {
	if f.closed.Load() {
		return nil, ErrFactoryClosed
	}
	return &Manager{factory: f, exec: f.db}, nil
}

// CreateSchema creates the tables of every mapped entity if missing
func (f *Factory) CreateSchema(ctx context.Context) error {
	if f.closed.Load() {
		return ErrFactoryClosed
	}

	statements, err := codegen.NewDDLGenerator(f.dialect).GenerateSchema(f.metamodel)
	if err != nil {
		return fmt.Errorf("failed to generate schema: %w", err)
	}

	for _, stmt := range statements {
		if _, err := f.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}

	f.logger.Debug("created schema",
		zap.String("unit", f.unit),
		zap.Int("tables", len(statements)))
	return nil
}

// Close closes the connection pool. Closing twice is a no-op.
func (f *Factory) Close() error {
	if f.closed.Swap(true) {
		return nil
	}
	return f.db.Close()
}
