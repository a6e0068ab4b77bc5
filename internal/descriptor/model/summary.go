package model

// EntitySummary is the printable form of an entity descriptor
type EntitySummary struct {
	Name       string            `json:"name" yaml:"name"`
	Type       string            `json:"type" yaml:"type"`
	Key        string            `json:"key,omitempty" yaml:"key,omitempty"`
	KeyType    string            `json:"keyType,omitempty" yaml:"keyType,omitempty"`
	Properties []PropertySummary `json:"properties" yaml:"properties"`
}

// PropertySummary is the printable form of a property descriptor
type PropertySummary struct {
	Name       string `json:"name" yaml:"name"`
	Alias      string `json:"alias,omitempty" yaml:"alias,omitempty"`
	Field      string `json:"field" yaml:"field"`
	Type       string `json:"type" yaml:"type"`
	Key        bool   `json:"key,omitempty" yaml:"key,omitempty"`
	Embedded   bool   `json:"embedded,omitempty" yaml:"embedded,omitempty"`
	References string `json:"references,omitempty" yaml:"references,omitempty"`
}

// Summary returns the printable form of d
func (d *EntityDescriptor) Summary() EntitySummary {
	s := EntitySummary{
		Name:       d.name,
		Type:       d.entityType.String(),
		Properties: make([]PropertySummary, 0, len(d.properties)),
	}
	if keyed, ok := d.Keyed(); ok {
		s.Key = keyed.KeyProperty().Name()
		s.KeyType = keyed.KeyType().String()
	}

	for _, p := range d.properties {
		ps := PropertySummary{
			Name:     p.Name(),
			Field:    p.FieldName(),
			Type:     p.PropertyType().String(),
			Key:      p.IsKey(),
			Embedded: p.IsEmbedded(),
		}
		if p.IsAlias() {
			ps.Alias = p.Alias()
		}
		if p.IsReference() && p.ReferenceRelation() != nil {
			ps.References = p.ReferenceRelation().String()
		}
		s.Properties = append(s.Properties, ps)
	}
	return s
}
