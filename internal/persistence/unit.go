package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/conduit-lang/descriptor/internal/orm/dialect"
	"github.com/conduit-lang/descriptor/internal/orm/schema"
	"go.uber.org/zap"
)

// ErrUnknownUnit is returned when opening a unit that was never defined
var ErrUnknownUnit = errors.New("unknown persistence unit")

// Unit describes a named persistence unit: a store and the entity types
// mapped onto it.
type Unit struct {
	Name   string
	Driver string
	DSN    string
	Types  []reflect.Type

	// MaxOpenConns limits the pool; zero keeps the driver default.
	// In-memory SQLite stores are always limited to one connection.
	MaxOpenConns int

	// CreateSchema creates missing tables when the unit is opened
	CreateSchema bool
}

// Connection overrides the store of a defined unit
type Connection struct {
	Driver       string
	DSN          string
	MaxOpenConns int
}

type registry struct {
	mu        sync.Mutex
	units     map[string]Unit
	factories map[string]*Factory
	logger    *zap.Logger
}

var units = &registry{
	units:     make(map[string]Unit),
	factories: make(map[string]*Factory),
	logger:    zap.NewNop(),
}

// SetLogger sets the logger used by units opened afterwards
func SetLogger(logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	units.mu.Lock()
	defer units.mu.Unlock()
	units.logger = logger
}

// Define registers a persistence unit, replacing any earlier definition
// with the same name.
func Define(unit Unit) error {
	if unit.Name == "" {
		return errors.New("persistence unit name must not be empty")
	}
	if unit.Driver == "" {
		return fmt.Errorf("persistence unit %q: driver must not be empty", unit.Name)
	}

	units.mu.Lock()
	defer units.mu.Unlock()
	units.units[unit.Name] = unit
	return nil
}

// Configure points a defined unit at a different store. It has no effect
// on a factory that is already open.
func Configure(name string, conn Connection) error {
	units.mu.Lock()
	defer units.mu.Unlock()

	unit, ok := units.units[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownUnit, name)
	}
	if conn.Driver != "" {
		unit.Driver = conn.Driver
	}
	if conn.DSN != "" {
		unit.DSN = conn.DSN
	}
	if conn.MaxOpenConns > 0 {
		unit.MaxOpenConns = conn.MaxOpenConns
	}
	units.units[name] = unit
	return nil
}

// Lookup returns the definition of a unit
func Lookup(name string) (Unit, bool) {
	units.mu.Lock()
	defer units.mu.Unlock()
	unit, ok := units.units[name]
	return unit, ok
}

// Units returns the names of every defined unit, sorted
func Units() []string {
	units.mu.Lock()
	defer units.mu.Unlock()

	names := make([]string, 0, len(units.units))
	for name := range units.units {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Open returns the factory of a unit, opening it on first use. Later
// calls return the same factory until it is closed.
func Open(ctx context.Context, name string) (*Factory, error) {
	units.mu.Lock()
	defer units.mu.Unlock()

	if f, ok := units.factories[name]; ok && !f.closed.Load() {
		return f, nil
	}

	unit, ok := units.units[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownUnit, name)
	}

	f, err := openUnit(ctx, unit, units.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open persistence unit %q: %w", name, err)
	}
	units.factories[name] = f
	return f, nil
}

// CloseAll closes every open factory
func CloseAll() error {
	units.mu.Lock()
	defer units.mu.Unlock()

	var errs []error
	for name, f := range units.factories {
		if err := f.Close(); err != nil {
			errs = append(errs, fmt.Errorf("persistence unit %q: %w", name, err))
		}
		delete(units.factories, name)
	}
	return errors.Join(errs...)
}

func openUnit(ctx context.Context, unit Unit, logger *zap.Logger) (*Factory, error) {
	d, err := dialect.ForDriver(unit.Driver)
	if err != nil {
		return nil, err
	}

	metamodel, err := schema.Introspect(unit.Types...)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(unit.Driver, unit.DSN)
	if err != nil {
		return nil, err
	}

	switch {
	case isMemoryStore(unit.Driver, unit.DSN):
		db.SetMaxOpenConns(1)
	case unit.MaxOpenConns > 0:
		db.SetMaxOpenConns(unit.MaxOpenConns)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	f := NewFactory(db, d, metamodel, WithLogger(logger), WithUnitName(unit.Name))
	if unit.CreateSchema {
		if err := f.CreateSchema(ctx); err != nil {
			f.Close()
			return nil, err
		}
	}

	logger.Info("opened persistence unit",
		zap.String("unit", unit.Name),
		zap.String("driver", unit.Driver),
		zap.Int("entities", metamodel.Count()))
	return f, nil
}

// isMemoryStore reports whether every connection to dsn would see a
// different database
func isMemoryStore(driver, dsn string) bool {
	if driver != "sqlite3" {
		return false
	}
	return dsn == "" || strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}
