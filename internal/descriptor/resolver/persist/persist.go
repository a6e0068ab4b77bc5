// Package persist provides resolvers that read the `persist` markers of the
// persistence layer and defer to a delegate resolver for everything else.
package persist

import (
	"reflect"

	"github.com/conduit-lang/descriptor/internal/descriptor/accessor"
	"github.com/conduit-lang/descriptor/internal/descriptor/marker"
	"github.com/conduit-lang/descriptor/internal/descriptor/resolver"
	"github.com/conduit-lang/descriptor/internal/orm/schema"
)

// EntityResolver names entities after their `persist:"entity:<name>"` marker.
type EntityResolver struct {
	delegate resolver.EntityAttributeResolver
}

var _ resolver.EntityAttributeResolver = (*EntityResolver)(nil)

// NewEntityResolver wraps delegate. A nil delegate is replaced by the
// default entity resolver.
func NewEntityResolver(delegate resolver.EntityAttributeResolver) *EntityResolver {
	if delegate == nil {
		delegate = resolver.NewDefaultEntityResolver()
	}
	return &EntityResolver{delegate: delegate}
}

// Name returns the first non-empty entity marker value. Entities without
// one are named by the delegate.
func (r *EntityResolver) Name(entity accessor.DescribedEntity) string {
	if entity != nil && entity.Has(schema.MarkerEntity) {
		if name := marker.FirstValue(entity.Get(schema.MarkerEntity)); name != "" {
			return name
		}
	}
	return r.delegate.Name(entity)
}

// PropertyResolver decides names, keys and embedding from `persist` markers.
type PropertyResolver struct {
	delegate resolver.PropertyAttributeResolver
}

var _ resolver.PropertyAttributeResolver = (*PropertyResolver)(nil)

// NewPropertyResolver wraps delegate. A nil delegate is replaced by the
// default property resolver.
func NewPropertyResolver(delegate resolver.PropertyAttributeResolver) *PropertyResolver {
	if delegate == nil {
		delegate = resolver.NewDefaultPropertyResolver()
	}
	return &PropertyResolver{delegate: delegate}
}

// Name returns the first non-empty column marker value, else the delegate's name
func (r *PropertyResolver) Name(property accessor.DescribedProperty) string {
	if property.Has(schema.MarkerColumn) {
		if name := marker.FirstValue(property.Get(schema.MarkerColumn)); name != "" {
			return name
		}
	}
	return r.delegate.Name(property)
}

// Alias defers to the delegate
func (r *PropertyResolver) Alias(property accessor.DescribedProperty) string {
	return r.delegate.Alias(property)
}

// ReferenceRelation defers to the delegate
func (r *PropertyResolver) ReferenceRelation(property accessor.DescribedProperty) reflect.Type {
	return r.delegate.ReferenceRelation(property)
}

// IsAlias defers to the delegate
func (r *PropertyResolver) IsAlias(property accessor.DescribedProperty) bool {
	return r.delegate.IsAlias(property)
}

// IsIgnore defers to the delegate
func (r *PropertyResolver) IsIgnore(property accessor.DescribedProperty) bool {
	return r.delegate.IsIgnore(property)
}

// IsReference defers to the delegate
func (r *PropertyResolver) IsReference(property accessor.DescribedProperty) bool {
	return r.delegate.IsReference(property)
}

// IsKey reports an id or embeddedid marker. The delegate is not consulted.
func (r *PropertyResolver) IsKey(property accessor.DescribedProperty) bool {
	return property.Has(schema.MarkerID) || property.Has(schema.MarkerEmbeddedID)
}

// IsEmbedded reports an embedded or embeddedid marker. The delegate is not
// consulted.
func (r *PropertyResolver) IsEmbedded(property accessor.DescribedProperty) bool {
	return property.Has(schema.MarkerEmbedded) || property.Has(schema.MarkerEmbeddedID)
}
