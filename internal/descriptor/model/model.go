package model

import (
	"fmt"
	"reflect"
	"sort"
)

// Model is the merged set of entity descriptors
type Model struct {
	byType map[reflect.Type]*EntityDescriptor
	byName map[string]*EntityDescriptor
}

// New creates a model. Entity names and types must be unique.
func New(entities ...*EntityDescriptor) (*Model, error) {
	m := &Model{
		byType: make(map[reflect.Type]*EntityDescriptor, len(entities)),
		byName: make(map[string]*EntityDescriptor, len(entities)),
	}
	for _, e := range entities {
		if other, exists := m.byName[e.Name()]; exists {
			return nil, fmt.Errorf("duplicate entity name %q: %v and %v", e.Name(), other.EntityType(), e.EntityType())
		}
		if _, exists := m.byType[e.EntityType()]; exists {
			return nil, fmt.Errorf("entity type %v described twice", e.EntityType())
		}
		m.byName[e.Name()] = e
		m.byType[e.EntityType()] = e
	}
	return m, nil
}

// Entity returns the descriptor of t; pointer types are dereferenced
func (m *Model) Entity(t reflect.Type) (*EntityDescriptor, bool) {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	e, ok := m.byType[t]
	return e, ok
}

// EntityNamed returns the descriptor with the given entity name
func (m *Model) EntityNamed(name string) (*EntityDescriptor, bool) {
	e, ok := m.byName[name]
	return e, ok
}

// Entities returns every descriptor sorted by name
func (m *Model) Entities() []*EntityDescriptor {
	out := make([]*EntityDescriptor, 0, len(m.byName))
	for _, e := range m.byName {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// Len returns the number of entities
func (m *Model) Len() int { return len(m.byName) }

// EntityOf returns the descriptor of E
func EntityOf[E any](m *Model) (*EntityDescriptor, bool) {
	return m.Entity(reflect.TypeOf((*E)(nil)).Elem())
}
