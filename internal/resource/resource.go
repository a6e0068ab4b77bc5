// Package resource enumerates the entity types known to a persistence unit.
package resource

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/conduit-lang/descriptor/internal/persistence"
	"go.uber.org/zap"
)

// ErrEmptyUnitName is returned when constructing a unit resource without a name
var ErrEmptyUnitName = errors.New("persistence unit name must not be empty")

// Resource supplies entity types to the model builder
type Resource interface {
	Resources() (Set, error)
}

// Set is an unordered set of entity types
type Set map[reflect.Type]struct{}

// NewSet creates a set holding types
func NewSet(types ...reflect.Type) Set {
	s := make(Set, len(types))
	for _, t := range types {
		s[t] = struct{}{}
	}
	return s
}

// Contains reports whether t is in the set
func (s Set) Contains(t reflect.Type) bool {
	_, ok := s[t]
	return ok
}

// Types returns the members sorted by their string form
func (s Set) Types() []reflect.Type {
	out := make([]reflect.Type, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

type static struct {
	set Set
}

// Static returns a resource over a fixed set of types
func Static(types ...reflect.Type) Resource {
	return static{set: NewSet(types...)}
}

func (s static) Resources() (Set, error) {
	return s.set, nil
}

// Opener returns the metamodel of a persistence unit
type Opener func(unit string) (persistence.Metamodel, error)

// Unit enumerates the entity types of one persistence unit. The result of
// the first successful call is cached for the life of the Unit.
type Unit struct {
	unit   string
	marker reflect.Type
	open   Opener
	logger *zap.Logger

	mu        sync.Mutex
	resources Set
}

var _ Resource = (*Unit)(nil)

// Option configures a Unit
type Option func(*Unit)

// WithMarker keeps only entity types assignable to marker. For interface
// markers a pointer receiver implementation also counts.
func WithMarker(marker reflect.Type) Option {
	return func(u *Unit) {
		u.marker = marker
	}
}

// WithOpener replaces the function used to open the unit
func WithOpener(open Opener) Option {
	return func(u *Unit) {
		if open != nil {
			u.open = open
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(u *Unit) {
		if logger != nil {
			u.logger = logger
		}
	}
}

// NewUnit creates a resource over the named persistence unit. The unit is
// not opened until Resources is called.
func NewUnit(unit string, opts ...Option) (*Unit, error) {
	if unit == "" {
		return nil, ErrEmptyUnitName
	}

	u := &Unit{
		unit:   unit,
		open:   openUnit,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u, nil
}

func openUnit(unit string) (persistence.Metamodel, error) {
	f, err := persistence.Open(context.Background(), unit)
	if err != nil {
		return nil, err
	}
	return f.Metamodel(), nil
}

// Name returns the persistence unit name
func (u *Unit) Name() string { return u.unit }

// Resources returns the entity types of the unit
func (u *Unit) Resources() (Set, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.resources != nil {
		return u.resources, nil
	}

	metamodel, err := u.open(u.unit)
	if err != nil {
		return nil, fmt.Errorf("failed to read metamodel of unit %q: %w", u.unit, err)
	}

	resources := make(Set)
	for _, t := range metamodel.Types() {
		if u.matches(t) {
			resources[t] = struct{}{}
		}
	}

	u.logger.Debug("found entity descriptors",
		zap.Int("count", len(resources)),
		zap.String("unit", u.unit))

	u.resources = resources
	return resources, nil
}

func (u *Unit) matches(t reflect.Type) bool {
	if u.marker == nil {
		return true
	}
	if t.AssignableTo(u.marker) {
		return true
	}
	return u.marker.Kind() == reflect.Interface && t.Kind() != reflect.Pointer &&
		reflect.PointerTo(t).Implements(u.marker)
}
