// Package resolver defines the attribute resolver strategies used to derive
// entity and property metadata, plus the default (provider independent)
// implementations.
//
// Strategies compose by decoration: a provider specific strategy wraps a
// delegate and decides, accessor by accessor, whether to override it, fall
// back to it, or ignore it. A typical chain is
//
//	persist.NewPropertyResolver(resolver.NewDefaultPropertyResolver())
//
// Resolvers never fail. Missing metadata resolves to "", false or nil.
package resolver

import (
	"reflect"

	"github.com/conduit-lang/descriptor/internal/descriptor/accessor"
)

// EntityAttributeResolver resolves entity level attributes.
type EntityAttributeResolver interface {
	// Name returns the entity name.
	Name(entity accessor.DescribedEntity) string
}

// PropertyAttributeResolver resolves property level attributes.
type PropertyAttributeResolver interface {
	// Name returns the storage name of the property.
	Name(property accessor.DescribedProperty) string
	// Alias returns the display name, or "".
	Alias(property accessor.DescribedProperty) string
	// ReferenceRelation returns the referenced type, or nil.
	ReferenceRelation(property accessor.DescribedProperty) reflect.Type
	// IsAlias reports whether the property is displayed under an alias.
	IsAlias(property accessor.DescribedProperty) bool
	// IsIgnore reports whether the property is left out of the model.
	IsIgnore(property accessor.DescribedProperty) bool
	// IsKey reports whether the property identifies the entity.
	IsKey(property accessor.DescribedProperty) bool
	// IsEmbedded reports whether the property value is embedded in the entity.
	IsEmbedded(property accessor.DescribedProperty) bool
	// IsReference reports whether the property refers to another entity.
	IsReference(property accessor.DescribedProperty) bool
}
