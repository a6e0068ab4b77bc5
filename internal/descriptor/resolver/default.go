package resolver

import (
	"reflect"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/conduit-lang/descriptor/internal/descriptor/accessor"
	"github.com/conduit-lang/descriptor/internal/descriptor/marker"
)

// Namespace is the tag namespace of the generic markers.
const Namespace = "model"

// Generic marker kinds read by the default resolvers.
var (
	MarkerEntity    = marker.Kind{Namespace: Namespace, Name: "entity"}
	MarkerName      = marker.Kind{Namespace: Namespace, Name: "name"}
	MarkerAlias     = marker.Kind{Namespace: Namespace, Name: "alias"}
	MarkerKey       = marker.Kind{Namespace: Namespace, Name: "key"}
	MarkerEmbedded  = marker.Kind{Namespace: Namespace, Name: "embedded"}
	MarkerReference = marker.Kind{Namespace: Namespace, Name: "reference"}
	MarkerIgnore    = marker.Kind{Namespace: Namespace, Name: marker.Ignore}
)

var timeType = reflect.TypeOf(time.Time{})

// NewDefaultEntityResolver creates the baseline entity resolver.
func NewDefaultEntityResolver() EntityAttributeResolver {
	return defaultEntityResolver{}
}

// defaultEntityResolver names an entity after its `model:"entity:..."`
// marker, or after the Go type.
type defaultEntityResolver struct{}

var _ EntityAttributeResolver = defaultEntityResolver{}

// Name returns the first non-empty entity marker value or the type name
func (defaultEntityResolver) Name(entity accessor.DescribedEntity) string {
	if entity == nil {
		return ""
	}
	if name := marker.FirstValue(entity.Get(MarkerEntity)); name != "" {
		return name
	}
	t := entity.EntityType()
	if t == nil {
		return ""
	}
	return stripTypeParams(t.Name())
}

// NewDefaultPropertyResolver creates the baseline property resolver.
func NewDefaultPropertyResolver() PropertyAttributeResolver {
	return defaultPropertyResolver{}
}

// defaultPropertyResolver reads the generic `model` markers.
type defaultPropertyResolver struct{}

var _ PropertyAttributeResolver = defaultPropertyResolver{}

// Name returns the name marker value or the field name in lower camel case
func (defaultPropertyResolver) Name(property accessor.DescribedProperty) string {
	if name := marker.FirstValue(property.Get(MarkerName)); name != "" {
		return name
	}
	return lowerFirst(property.FieldName())
}

// Alias returns the first non-empty alias marker value
func (defaultPropertyResolver) Alias(property accessor.DescribedProperty) string {
	return marker.FirstValue(property.Get(MarkerAlias))
}

// ReferenceRelation returns the referenced struct type for references
func (r defaultPropertyResolver) ReferenceRelation(property accessor.DescribedProperty) reflect.Type {
	if !r.IsReference(property) {
		return nil
	}
	t := property.PropertyType()
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

// IsAlias reports whether an alias marker is present
func (defaultPropertyResolver) IsAlias(property accessor.DescribedProperty) bool {
	return property.Has(MarkerAlias)
}

// IsIgnore reports whether an ignore marker is present
func (defaultPropertyResolver) IsIgnore(property accessor.DescribedProperty) bool {
	return property.Has(MarkerIgnore)
}

// IsKey reports whether a key marker is present
func (defaultPropertyResolver) IsKey(property accessor.DescribedProperty) bool {
	return property.Has(MarkerKey)
}

// IsEmbedded reports whether an embedded marker is present
func (defaultPropertyResolver) IsEmbedded(property accessor.DescribedProperty) bool {
	return property.Has(MarkerEmbedded)
}

// IsReference reports a reference marker, or a pointer to a struct other
// than time.Time.
func (defaultPropertyResolver) IsReference(property accessor.DescribedProperty) bool {
	if property.Has(MarkerReference) {
		return true
	}
	t := property.PropertyType()
	if t == nil || t.Kind() != reflect.Pointer {
		return false
	}
	elem := t.Elem()
	return elem.Kind() == reflect.Struct && elem != timeType
}

// stripTypeParams removes generic type instantiation suffix: "T[int,string]" -> "T".
func stripTypeParams(s string) string {
	if i := strings.IndexByte(s, '['); i >= 0 {
		return s[:i]
	}
	return s
}

// lowerFirst lower-cases the first rune: "TestColumn" -> "testColumn".
func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}
