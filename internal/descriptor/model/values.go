package model

import "reflect"

// Value is one property of an entity instance
type Value struct {
	Property *PropertyDescriptor
	Value    any
}

// Values reads every property of entity in declaration order. A reference
// to a keyed entity of m is reduced to the referenced key; a nil
// reference yields nil.
func (m *Model) Values(d *EntityDescriptor, entity any) ([]Value, error) {
	values := make([]Value, 0, len(d.Properties()))
	for _, p := range d.Properties() {
		v, err := p.Value(entity)
		if err != nil {
			return nil, err
		}
		if p.IsReference() {
			v, err = m.referencedKey(p, v)
			if err != nil {
				return nil, err
			}
		}
		values = append(values, Value{Property: p, Value: v})
	}
	return values, nil
}

// Map returns the values keyed by property display name
func (m *Model) Map(d *EntityDescriptor, entity any) (map[string]any, error) {
	values, err := m.Values(d, entity)
	if err != nil {
		return nil, err
	}
	out := make(map[string]any, len(values))
	for _, v := range values {
		out[v.Property.DisplayName()] = v.Value
	}
	return out, nil
}

func (m *Model) referencedKey(p *PropertyDescriptor, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer && rv.IsNil() {
		return nil, nil
	}
	target, ok := m.Entity(p.ReferenceRelation())
	if !ok {
		return v, nil
	}
	keyed, ok := target.Keyed()
	if !ok {
		return v, nil
	}
	return keyed.KeyProperty().Value(v)
}
