// Package marker models the annotations attached to entity types and their
// properties. Markers are extracted once (from struct tags or any other
// front end) into a Set, and every consumer after that point only queries the
// Set; nothing downstream reflects over tags again.
package marker

import "fmt"

// Kind identifies a marker within a namespace, e.g. {"persist", "column"}.
type Kind struct {
	Namespace string
	Name      string
}

// String returns the "namespace:name" form of the kind
func (k Kind) String() string {
	return fmt.Sprintf("%s:%s", k.Namespace, k.Name)
}

// Marker is one occurrence of a Kind with its declared value.
// Value is empty for bare markers such as `persist:"id"`.
type Marker struct {
	Kind  Kind
	Value string
}

// Annotated is implemented by anything that carries markers.
type Annotated interface {
	// Has reports whether at least one marker of the kind is present.
	Has(kind Kind) bool
	// Get returns every occurrence of the kind in declaration order.
	Get(kind Kind) []Marker
}

// Set is an ordered collection of markers. Repeated kinds are preserved.
// The zero value is an empty set.
type Set struct {
	markers []Marker
}

// NewSet creates a set from the given markers, keeping their order
func NewSet(markers ...Marker) Set {
	out := make([]Marker, len(markers))
	copy(out, markers)
	return Set{markers: out}
}

var _ Annotated = Set{}

// Has reports whether the set contains the kind
func (s Set) Has(kind Kind) bool {
	for _, m := range s.markers {
		if m.Kind == kind {
			return true
		}
	}
	return false
}

// Get returns all occurrences of kind in declaration order
func (s Set) Get(kind Kind) []Marker {
	var out []Marker
	for _, m := range s.markers {
		if m.Kind == kind {
			out = append(out, m)
		}
	}
	return out
}

// All returns a copy of every marker in the set
func (s Set) All() []Marker {
	out := make([]Marker, len(s.markers))
	copy(out, s.markers)
	return out
}

// Len returns the number of markers
func (s Set) Len() int {
	return len(s.markers)
}

// Merge returns a new set holding s followed by other
func (s Set) Merge(other Set) Set {
	out := make([]Marker, 0, len(s.markers)+len(other.markers))
	out = append(out, s.markers...)
	out = append(out, other.markers...)
	return Set{markers: out}
}

// FirstValue returns the first non-empty declared value, or "".
func FirstValue(markers []Marker) string {
	for _, m := range markers {
		if m.Value != "" {
			return m.Value
		}
	}
	return ""
}
