package schema

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/conduit-lang/descriptor/internal/descriptor/accessor"
	"github.com/conduit-lang/descriptor/internal/descriptor/marker"
)

// Builder builds a Metamodel from annotated struct types
type Builder struct {
	errors []error
}

// NewBuilder creates a new schema builder
func NewBuilder() *Builder {
	return &Builder{
		errors: make([]error, 0),
	}
}

// Introspect builds the metamodel of the given entity types
func Introspect(types ...reflect.Type) (*Metamodel, error) {
	return NewBuilder().Build(types...)
}

type pendingEntity struct {
	entity    *EntityType
	described *accessor.Entity
}

// Build maps every type and registers it in a new metamodel.
//
// Mapping runs in two passes: the first maps plain, embedded and key
// columns, the second resolves reference columns once the keys of all
// entities are known.
func (b *Builder) Build(types ...reflect.Type) (*Metamodel, error) {
	pending := make([]*pendingEntity, 0, len(types))
	byType := make(map[reflect.Type]*EntityType, len(types))

	for _, t := range types {
		described, err := accessor.Describe(t, Namespace)
		if err != nil {
			b.errors = append(b.errors, err)
			continue
		}
		goType := described.EntityType()
		if _, dup := byType[goType]; dup {
			continue
		}

		entity := &EntityType{
			Name:   entityName(described),
			Table:  tableName(described),
			GoType: goType,
		}
		byType[goType] = entity
		pending = append(pending, &pendingEntity{entity: entity, described: described})
	}

	for _, p := range pending {
		b.mapProperties(p.entity, p.described.Properties(), nil, "", false)
	}

	for _, p := range pending {
		b.resolveReferences(p.entity, byType)
	}

	if len(b.errors) > 0 {
		return nil, fmt.Errorf("schema build failed: %w", errors.Join(b.errors...))
	}

	metamodel := NewMetamodel()
	for _, p := range pending {
		if err := metamodel.Register(p.entity); err != nil {
			return nil, err
		}
	}
	return metamodel, nil
}

// mapProperties appends the columns of props to entity. base and prefix
// locate props when they belong to an embedded struct; inKey is set inside
// an embedded id.
func (b *Builder) mapProperties(entity *EntityType, props []accessor.DescribedProperty, base []int, prefix string, inKey bool) {
	for _, p := range props {
		if IsTransient(p) {
			continue
		}

		index := append(append([]int{}, base...), p.Index()...)
		field := prefix + p.FieldName()
		t := p.PropertyType()

		if p.Has(MarkerEmbedded) || p.Has(MarkerEmbeddedID) {
			b.mapEmbedded(entity, p, index, field, inKey)
			continue
		}

		if isReferenceType(t) {
			if inKey || p.Has(MarkerID) {
				b.errorf(entity, field, "a reference cannot be part of the key")
				continue
			}
			entity.Columns = append(entity.Columns, &Column{
				Name:      marker.FirstValue(p.Get(MarkerColumn)),
				Field:     field,
				Index:     index,
				Nullable:  true,
				Reference: &Reference{Target: t.Elem()},
			})
			continue
		}

		kind, nullable, ok := KindOf(t)
		if !ok {
			b.errorf(entity, field, "unsupported type %s", t)
			continue
		}

		isID := p.Has(MarkerID)
		col := &Column{
			Name:       columnName(p),
			Field:      field,
			Index:      index,
			GoType:     t,
			Kind:       kind,
			PrimaryKey: isID || inKey,
			Generated:  p.Has(MarkerGenerated),
			Nullable:   nullable && !(isID || inKey),
		}

		if col.Generated && (!isID || !kind.IsInteger() || nullable) {
			b.errorf(entity, field, "only integer id fields can be generated")
			continue
		}

		switch {
		case isID:
			if entity.KeyIndex != nil {
				b.errorf(entity, field, "entity already has a key")
				continue
			}
			entity.KeyIndex = index
			entity.KeyType = t
			entity.Key = append(entity.Key, col)
		case inKey:
			entity.Key = append(entity.Key, col)
		}

		entity.Columns = append(entity.Columns, col)
	}
}

func (b *Builder) mapEmbedded(entity *EntityType, p accessor.DescribedProperty, index []int, field string, inKey bool) {
	t := p.PropertyType()
	if t.Kind() != reflect.Struct {
		b.errorf(entity, field, "embedded field must be a struct, got %s", t)
		return
	}

	embedded, err := accessor.Describe(t, Namespace)
	if err != nil {
		b.errors = append(b.errors, fmt.Errorf("%s.%s: %w", entity.GoType.Name(), field, err))
		return
	}

	isKey := p.Has(MarkerEmbeddedID)
	if isKey {
		if entity.KeyIndex != nil || inKey {
			b.errorf(entity, field, "entity already has a key")
			return
		}
		entity.KeyIndex = index
		entity.KeyType = t
		entity.EmbeddedKey = true
	}

	b.mapProperties(entity, embedded.Properties(), index, field+".", inKey || isKey)

	if isKey && len(entity.Key) == 0 {
		b.errorf(entity, field, "embedded id has no columns")
	}
}

func (b *Builder) resolveReferences(entity *EntityType, byType map[reflect.Type]*EntityType) {
	for _, col := range entity.Columns {
		if col.Reference == nil {
			continue
		}

		target, ok := byType[col.Reference.Target]
		if !ok {
			b.errorf(entity, col.Field, "references %s which is not a mapped entity", col.Reference.Target)
			continue
		}
		if !target.HasKey() || target.EmbeddedKey {
			b.errorf(entity, col.Field, "referenced entity %s must have a single column key", target.Name)
			continue
		}

		key := target.Key[0]
		if col.Name == "" {
			col.Name = toSnakeCase(strings.ReplaceAll(col.Field, ".", "")) + "_" + key.Name
		}
		col.GoType = target.KeyType
		col.Kind = key.Kind
		col.Reference.TargetKey = target.KeyIndex
		col.Reference.Table = target.Table
		col.Reference.Column = key.Name
	}
}

func (b *Builder) errorf(entity *EntityType, field string, format string, args ...any) {
	b.errors = append(b.errors, fmt.Errorf("%s.%s: %s", entity.GoType.Name(), field, fmt.Sprintf(format, args...)))
}

func isReferenceType(t reflect.Type) bool {
	return t.Kind() == reflect.Pointer && t.Elem().Kind() == reflect.Struct && t.Elem() != timeType
}

func entityName(e *accessor.Entity) string {
	if name := marker.FirstValue(e.Get(MarkerEntity)); name != "" {
		return name
	}
	return typeName(e.EntityType())
}

func tableName(e *accessor.Entity) string {
	if table := marker.FirstValue(e.Get(MarkerTable)); table != "" {
		return table
	}
	return toSnakeCase(typeName(e.EntityType()))
}

func columnName(p accessor.DescribedProperty) string {
	if name := marker.FirstValue(p.Get(MarkerColumn)); name != "" {
		return name
	}
	return toSnakeCase(p.FieldName())
}

// typeName strips generic instantiation: "Pair[int,string]" -> "Pair".
func typeName(t reflect.Type) string {
	name := t.Name()
	if i := strings.IndexByte(name, '['); i >= 0 {
		return name[:i]
	}
	return name
}
