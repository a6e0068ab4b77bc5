// Package accessor turns Go struct types into read-only described entities
// and properties. It is the only place that reads struct tags: the result
// carries pre-extracted marker sets which resolvers query without reflection.
package accessor

import (
	"fmt"
	"reflect"

	"github.com/conduit-lang/descriptor/internal/descriptor/marker"
)

// DefaultNamespaces are the tag namespaces read by Describe when none are given.
var DefaultNamespaces = []string{"model", "persist"}

// DescribedEntity is a handle to one entity type and its markers.
type DescribedEntity interface {
	marker.Annotated
	EntityType() reflect.Type
	Properties() []DescribedProperty
}

// DescribedProperty is a handle to one property of an entity.
type DescribedProperty interface {
	marker.Annotated
	FieldName() string
	PropertyType() reflect.Type
	EntityType() reflect.Type
	Index() []int
}

// Entity implements DescribedEntity
type Entity struct {
	entityType reflect.Type
	markers    marker.Set
	properties []DescribedProperty
}

var _ DescribedEntity = (*Entity)(nil)

// NewEntity creates an entity handle from pre-extracted markers.
// The declaring entity type of every property must match t.
func NewEntity(t reflect.Type, markers marker.Set, properties ...*Property) *Entity {
	props := make([]DescribedProperty, len(properties))
	for i, p := range properties {
		props[i] = p
	}
	return &Entity{entityType: t, markers: markers, properties: props}
}

// EntityType returns the underlying struct type
func (e *Entity) EntityType() reflect.Type { return e.entityType }

// Properties returns the properties in declaration order
func (e *Entity) Properties() []DescribedProperty {
	out := make([]DescribedProperty, len(e.properties))
	copy(out, e.properties)
	return out
}

// Has reports whether the entity carries the marker kind
func (e *Entity) Has(kind marker.Kind) bool { return e.markers.Has(kind) }

// Get returns the entity markers of the kind
func (e *Entity) Get(kind marker.Kind) []marker.Marker { return e.markers.Get(kind) }

// String returns the entity type name
func (e *Entity) String() string {
	return fmt.Sprintf("entity(%s)", e.entityType)
}

// Property implements DescribedProperty
type Property struct {
	name         string
	propertyType reflect.Type
	entityType   reflect.Type
	index        []int
	markers      marker.Set
}

var _ DescribedProperty = (*Property)(nil)

// NewProperty creates a property handle from pre-extracted markers
func NewProperty(entityType reflect.Type, name string, propertyType reflect.Type, index []int, markers marker.Set) *Property {
	idx := make([]int, len(index))
	copy(idx, index)
	return &Property{
		name:         name,
		propertyType: propertyType,
		entityType:   entityType,
		index:        idx,
		markers:      markers,
	}
}

// FieldName returns the Go field name
func (p *Property) FieldName() string { return p.name }

// PropertyType returns the Go field type
func (p *Property) PropertyType() reflect.Type { return p.propertyType }

// EntityType returns the declaring entity type
func (p *Property) EntityType() reflect.Type { return p.entityType }

// Index returns the field index usable with reflect.Value.FieldByIndex
func (p *Property) Index() []int {
	out := make([]int, len(p.index))
	copy(out, p.index)
	return out
}

// Has reports whether the property carries the marker kind
func (p *Property) Has(kind marker.Kind) bool { return p.markers.Has(kind) }

// Get returns the property markers of the kind
func (p *Property) Get(kind marker.Kind) []marker.Marker { return p.markers.Get(kind) }

// Describe reflects a struct type into an entity handle.
//
// Entity-level markers are read from blank fields (`_ struct{}`); several
// blank fields may be declared to repeat a marker. Every exported named
// field becomes a property.
func Describe(t reflect.Type, namespaces ...string) (*Entity, error) {
	if t == nil {
		return nil, fmt.Errorf("cannot describe nil type")
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("type %s is not a struct", t)
	}
	if len(namespaces) == 0 {
		namespaces = DefaultNamespaces
	}

	var entityMarkers marker.Set
	var properties []*Property

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		markers, err := marker.ParseTag(field.Tag, namespaces...)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", t.Name(), field.Name, err)
		}

		if field.Name == "_" {
			entityMarkers = entityMarkers.Merge(markers)
			continue
		}
		if !field.IsExported() {
			continue
		}

		properties = append(properties, NewProperty(t, field.Name, field.Type, field.Index, markers))
	}

	return NewEntity(t, entityMarkers, properties...), nil
}
