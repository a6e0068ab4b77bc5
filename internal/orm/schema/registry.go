package schema

import (
	"fmt"
	"reflect"
	"sort"
	"sync"
)

// Metamodel manages the entity types of one persistence unit
type Metamodel struct {
	byType  map[reflect.Type]*EntityType
	byName  map[string]*EntityType
	byTable map[string]*EntityType
	mu      sync.RWMutex
}

// NewMetamodel creates an empty metamodel
func NewMetamodel() *Metamodel {
	return &Metamodel{
		byType:  make(map[reflect.Type]*EntityType),
		byName:  make(map[string]*EntityType),
		byTable: make(map[string]*EntityType),
	}
}

// Register adds an entity type. Types, entity names and table names must
// all be unique within the metamodel.
func (m *Metamodel) Register(entity *EntityType) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byType[entity.GoType]; exists {
		return fmt.Errorf("type %s is already registered", entity.GoType)
	}
	if other, exists := m.byName[entity.Name]; exists {
		return fmt.Errorf("entity name %s is used by both %s and %s", entity.Name, other.GoType, entity.GoType)
	}
	if other, exists := m.byTable[entity.Table]; exists {
		return fmt.Errorf("table %s is mapped by both %s and %s", entity.Table, other.GoType, entity.GoType)
	}

	m.byType[entity.GoType] = entity
	m.byName[entity.Name] = entity
	m.byTable[entity.Table] = entity
	return nil
}

// Entity retrieves the entity type mapped from t. Pointer types are
// dereferenced.
func (m *Metamodel) Entity(t reflect.Type) (*EntityType, bool) {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	entity, exists := m.byType[t]
	return entity, exists
}

// EntityNamed retrieves an entity type by entity name
func (m *Metamodel) EntityNamed(name string) (*EntityType, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entity, exists := m.byName[name]
	return entity, exists
}

// Entities returns all entity types sorted by name
func (m *Metamodel) Entities() []*EntityType {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*EntityType, 0, len(m.byName))
	for _, e := range m.byName {
		result = append(result, e)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// Types returns the Go types of all entities, in entity name order
func (m *Metamodel) Types() []reflect.Type {
	entities := m.Entities()
	types := make([]reflect.Type, len(entities))
	for i, e := range entities {
		types[i] = e.GoType
	}
	return types
}

// Count returns the number of registered entity types
func (m *Metamodel) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.byType)
}
