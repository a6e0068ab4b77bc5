package marker

import (
	"fmt"
	"reflect"
	"strings"
)

// Ignore is the item name produced by the "-" shorthand, e.g. `model:"-"`.
const Ignore = "ignore"

// ParseTag extracts the markers of the given namespaces from a struct tag.
//
// Each namespace value is a comma separated list of items, where an item is
// either a bare name ("id") or a name:value pair ("column:test_column").
// Markers are returned namespace by namespace, items in declaration order.
func ParseTag(tag reflect.StructTag, namespaces ...string) (Set, error) {
	var markers []Marker
	for _, ns := range namespaces {
		raw, ok := tag.Lookup(ns)
		if !ok {
			continue
		}
		parsed, err := parseItems(ns, raw)
		if err != nil {
			return Set{}, err
		}
		markers = append(markers, parsed...)
	}
	return Set{markers: markers}, nil
}

func parseItems(ns, raw string) ([]Marker, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if raw == "-" {
		return []Marker{{Kind: Kind{Namespace: ns, Name: Ignore}}}, nil
	}

	items := strings.Split(raw, ",")
	markers := make([]Marker, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		name, value, _ := strings.Cut(item, ":")
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("invalid %s tag %q: empty marker name", ns, raw)
		}
		markers = append(markers, Marker{
			Kind:  Kind{Namespace: ns, Name: name},
			Value: strings.TrimSpace(value),
		})
	}
	return markers, nil
}
