package model

import (
	"fmt"
	"reflect"
)

// PropertyAttributes carries the resolved attributes of one property
type PropertyAttributes struct {
	Name              string
	Alias             string
	FieldName         string
	IsAlias           bool
	IsKey             bool
	IsEmbedded        bool
	IsReference       bool
	ReferenceRelation reflect.Type
	PropertyType      reflect.Type
	EntityType        reflect.Type
	Index             []int
}

// PropertyDescriptor is the resolved, immutable description of a property.
type PropertyDescriptor struct {
	attrs PropertyAttributes
}

// NewPropertyDescriptor creates a property descriptor
func NewPropertyDescriptor(attrs PropertyAttributes) *PropertyDescriptor {
	attrs.Index = append([]int(nil), attrs.Index...)
	return &PropertyDescriptor{attrs: attrs}
}

func (p *PropertyDescriptor) Name() string                    { return p.attrs.Name }
func (p *PropertyDescriptor) Alias() string                   { return p.attrs.Alias }
func (p *PropertyDescriptor) FieldName() string               { return p.attrs.FieldName }
func (p *PropertyDescriptor) IsAlias() bool                   { return p.attrs.IsAlias }
func (p *PropertyDescriptor) IsKey() bool                     { return p.attrs.IsKey }
func (p *PropertyDescriptor) IsEmbedded() bool                { return p.attrs.IsEmbedded }
func (p *PropertyDescriptor) IsReference() bool               { return p.attrs.IsReference }
func (p *PropertyDescriptor) ReferenceRelation() reflect.Type { return p.attrs.ReferenceRelation }
func (p *PropertyDescriptor) PropertyType() reflect.Type      { return p.attrs.PropertyType }
func (p *PropertyDescriptor) EntityType() reflect.Type        { return p.attrs.EntityType }

// DisplayName returns the alias when there is one, else the name
func (p *PropertyDescriptor) DisplayName() string {
	if p.attrs.IsAlias && p.attrs.Alias != "" {
		return p.attrs.Alias
	}
	return p.attrs.Name
}

// Value reads the property from entity, a struct of the declaring type or
// a pointer to one. A nil pointer yields nil.
func (p *PropertyDescriptor) Value(entity any) (any, error) {
	v := reflect.ValueOf(entity)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil, nil
		}
		v = v.Elem()
	}
	if v.Type() != p.attrs.EntityType {
		return nil, fmt.Errorf("property %s belongs to %v, got %v", p.attrs.Name, p.attrs.EntityType, v.Type())
	}
	return v.FieldByIndex(p.attrs.Index).Interface(), nil
}

func (p *PropertyDescriptor) String() string {
	return fmt.Sprintf("%s %v", p.attrs.Name, p.attrs.PropertyType)
}
