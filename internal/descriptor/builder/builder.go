// Package builder turns entity types into a model by running them through
// the configured attribute resolvers.
package builder

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/conduit-lang/descriptor/internal/descriptor/accessor"
	"github.com/conduit-lang/descriptor/internal/descriptor/model"
	"github.com/conduit-lang/descriptor/internal/descriptor/resolver"
	"github.com/conduit-lang/descriptor/internal/descriptor/resolver/persist"
	"github.com/conduit-lang/descriptor/internal/resource"
	"go.uber.org/zap"
)

// Builder builds a model.Model
type Builder struct {
	entityResolver   resolver.EntityAttributeResolver
	propertyResolver resolver.PropertyAttributeResolver
	resources        []resource.Resource
	namespaces       []string
	logger           *zap.Logger
}

// New creates a builder with the default resolvers
func New() *Builder {
	return &Builder{
		entityResolver:   resolver.NewDefaultEntityResolver(),
		propertyResolver: resolver.NewDefaultPropertyResolver(),
		logger:           zap.NewNop(),
	}
}

// NewPersistent creates a builder whose resolvers read persistence markers
// before falling back to the defaults
func NewPersistent() *Builder {
	return New().
		EntityResolver(persist.NewEntityResolver(resolver.NewDefaultEntityResolver())).
		PropertyResolver(persist.NewPropertyResolver(resolver.NewDefaultPropertyResolver()))
}

// EntityResolver sets the entity resolver. nil restores the default.
func (b *Builder) EntityResolver(r resolver.EntityAttributeResolver) *Builder {
	if r == nil {
		r = resolver.NewDefaultEntityResolver()
	}
	b.entityResolver = r
	return b
}

// PropertyResolver sets the property resolver. nil restores the default.
func (b *Builder) PropertyResolver(r resolver.PropertyAttributeResolver) *Builder {
	if r == nil {
		r = resolver.NewDefaultPropertyResolver()
	}
	b.propertyResolver = r
	return b
}

// Resources adds a source of entity types
func (b *Builder) Resources(r resource.Resource) *Builder {
	if r != nil {
		b.resources = append(b.resources, r)
	}
	return b
}

// Types adds entity types directly
func (b *Builder) Types(types ...reflect.Type) *Builder {
	return b.Resources(resource.Static(types...))
}

// Namespaces limits the tag namespaces read from struct tags
func (b *Builder) Namespaces(namespaces ...string) *Builder {
	b.namespaces = namespaces
	return b
}

// WithLogger sets the logger
func (b *Builder) WithLogger(logger *zap.Logger) *Builder {
	if logger != nil {
		b.logger = logger
	}
	return b
}

// Build describes every resource type and assembles the model
func (b *Builder) Build() (*model.Model, error) {
	seen := make(map[reflect.Type]bool)
	var types []reflect.Type

	for _, r := range b.resources {
		set, err := r.Resources()
		if err != nil {
			return nil, err
		}
		for _, t := range set.Types() {
			if !seen[t] {
				seen[t] = true
				types = append(types, t)
			}
		}
	}

	var errs []error
	entities := make([]*model.EntityDescriptor, 0, len(types))
	for _, t := range types {
		entity, err := b.describe(t)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		entities = append(entities, entity)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	m, err := model.New(entities...)
	if err != nil {
		return nil, err
	}

	b.logger.Debug("built model", zap.Int("entities", m.Len()))
	return m, nil
}

func (b *Builder) describe(t reflect.Type) (*model.EntityDescriptor, error) {
	if t == nil || t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("resource %v is not a struct type", t)
	}

	described, err := accessor.Describe(t, b.namespaces...)
	if err != nil {
		return nil, err
	}

	name := b.entityResolver.Name(described)
	if name == "" {
		return nil, fmt.Errorf("entity %v resolved to an empty name", t)
	}

	var properties []*model.PropertyDescriptor
	for _, p := range described.Properties() {
		if b.propertyResolver.IsIgnore(p) {
			continue
		}
		properties = append(properties, b.property(p))
	}

	entity := model.NewEntityDescriptor(name, t, properties...)
	b.logger.Debug("described entity",
		zap.String("entity", name),
		zap.Int("properties", len(properties)))
	return entity, nil
}

func (b *Builder) property(p accessor.DescribedProperty) *model.PropertyDescriptor {
	r := b.propertyResolver
	return model.NewPropertyDescriptor(model.PropertyAttributes{
		Name:              r.Name(p),
		Alias:             r.Alias(p),
		FieldName:         p.FieldName(),
		IsAlias:           r.IsAlias(p),
		IsKey:             r.IsKey(p),
		IsEmbedded:        r.IsEmbedded(p),
		IsReference:       r.IsReference(p),
		ReferenceRelation: r.ReferenceRelation(p),
		PropertyType:      p.PropertyType(),
		EntityType:        p.EntityType(),
		Index:             p.Index(),
	})
}
