// Package model holds the resolved descriptors of entities and their
// properties. Descriptors are immutable once built.
package model

import (
	"fmt"
	"reflect"
)

// EntityDescriptor is the resolved description of an entity type
type EntityDescriptor struct {
	name       string
	entityType reflect.Type
	properties []*PropertyDescriptor
	byName     map[string]*PropertyDescriptor
	key        *PropertyDescriptor
}

// NewEntityDescriptor creates an entity descriptor. Properties keep the
// given order; the first key property becomes the canonical key.
func NewEntityDescriptor(name string, entityType reflect.Type, properties ...*PropertyDescriptor) *EntityDescriptor {
	d := &EntityDescriptor{
		name:       name,
		entityType: entityType,
		properties: append([]*PropertyDescriptor(nil), properties...),
		byName:     make(map[string]*PropertyDescriptor, len(properties)),
	}
	for _, p := range d.properties {
		if _, dup := d.byName[p.Name()]; !dup {
			d.byName[p.Name()] = p
		}
		if d.key == nil && p.IsKey() {
			d.key = p
		}
	}
	return d
}

func (d *EntityDescriptor) Name() string { return d.name }

func (d *EntityDescriptor) EntityType() reflect.Type { return d.entityType }

// Properties returns the properties in declaration order
func (d *EntityDescriptor) Properties() []*PropertyDescriptor {
	return append([]*PropertyDescriptor(nil), d.properties...)
}

// Property returns the property with the given name
func (d *EntityDescriptor) Property(name string) (*PropertyDescriptor, bool) {
	p, ok := d.byName[name]
	return p, ok
}

// Keyed returns the keyed view of the descriptor when the entity has a key
func (d *EntityDescriptor) Keyed() (*KeyedEntityDescriptor, bool) {
	if d.key == nil {
		return nil, false
	}
	return &KeyedEntityDescriptor{EntityDescriptor: d}, true
}

func (d *EntityDescriptor) String() string {
	return fmt.Sprintf("%s (%v)", d.name, d.entityType)
}

// KeyedEntityDescriptor is an entity descriptor with exactly one canonical
// key property.
type KeyedEntityDescriptor struct {
	*EntityDescriptor
}

// KeyProperty returns the canonical key property
func (d *KeyedEntityDescriptor) KeyProperty() *PropertyDescriptor {
	return d.key
}

// KeyType returns the type of the key property
func (d *KeyedEntityDescriptor) KeyType() reflect.Type {
	return d.key.PropertyType()
}
