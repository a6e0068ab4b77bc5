// Package schema provides the relational metamodel of persistent entity types.
// It maps annotated Go structs onto tables and columns, with explicit
// nullability and key information, and is the single source the query,
// DDL and row-mapping layers work from.
package schema

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"time"

	"github.com/google/uuid"
)

// ErrInexactKey is returned when a numeric key has no exact value in the
// key type, e.g. 50.9 for an int64 key. No stored row can have that key.
var ErrInexactKey = errors.New("key has no exact value in the key type")

// Kind represents the storage kind of a column
type Kind int

const (
	// Text
	KindString Kind = iota
	KindBytes

	// Numeric
	KindBool
	KindInt
	KindInt64
	KindFloat

	// Time
	KindTimestamp

	// Unique identifiers
	KindUUID
)

// String returns the string representation of the kind
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindBytes:
		return "bytes"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindInt64:
		return "int64"
	case KindFloat:
		return "float"
	case KindTimestamp:
		return "timestamp"
	case KindUUID:
		return "uuid"
	default:
		return "unknown"
	}
}

// IsInteger reports whether the kind holds integral values
func (k Kind) IsInteger() bool {
	return k == KindInt || k == KindInt64
}

var (
	timeType  = reflect.TypeOf(time.Time{})
	uuidType  = reflect.TypeOf(uuid.UUID{})
	bytesType = reflect.TypeOf([]byte(nil))
)

// KindOf maps a Go type onto a column kind. Pointers map onto the kind of
// their element and make the column nullable.
func KindOf(t reflect.Type) (kind Kind, nullable bool, ok bool) {
	if t.Kind() == reflect.Pointer {
		nullable = true
		t = t.Elem()
	}

	switch t {
	case timeType:
		return KindTimestamp, nullable, true
	case uuidType:
		return KindUUID, nullable, true
	case bytesType:
		return KindBytes, true, true
	}

	switch t.Kind() {
	case reflect.String:
		return KindString, nullable, true
	case reflect.Bool:
		return KindBool, nullable, true
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Uint8, reflect.Uint16:
		return KindInt, nullable, true
	case reflect.Int, reflect.Int64, reflect.Uint32, reflect.Uint, reflect.Uint64:
		return KindInt64, nullable, true
	case reflect.Float32, reflect.Float64:
		return KindFloat, nullable, true
	default:
		return 0, false, false
	}
}

// Reference describes a column holding the key of another entity
type Reference struct {
	// Target is the referenced entity type
	Target reflect.Type
	// TargetKey is the index of the key field within Target
	TargetKey []int
	// Table and Column name the referenced key column
	Table  string
	Column string
}

// Column represents a single mapped column
type Column struct {
	Name       string
	Field      string       // dotted Go field path, e.g. "Key.TestKey"
	Index      []int        // field index from the entity root
	GoType     reflect.Type // for references, the type of the target key
	Kind       Kind
	PrimaryKey bool
	Generated  bool
	Nullable   bool
	Reference  *Reference
}

// String returns a short description of the column
func (c *Column) String() string {
	s := fmt.Sprintf("%s %s", c.Name, c.Kind)
	if c.PrimaryKey {
		s += " pk"
	}
	if c.Generated {
		s += " generated"
	}
	if c.Nullable {
		s += " null"
	}
	if c.Reference != nil {
		s += " -> " + c.Reference.Target.Name()
	}
	return s
}

// EntityType is the mapped form of one persistent struct type
type EntityType struct {
	Name    string
	Table   string
	GoType  reflect.Type
	Columns []*Column

	// Key holds the key columns: one for an id field, several for an
	// embedded id.
	Key []*Column
	// KeyIndex is the index of the key field (the id field or the embedded
	// id struct); nil when the entity has no key.
	KeyIndex []int
	// KeyType is the Go type of the key field.
	KeyType reflect.Type
	// EmbeddedKey is set when the key field is a struct flattened into
	// several columns.
	EmbeddedKey bool
}

// HasKey reports whether the entity declares a key
func (e *EntityType) HasKey() bool {
	return len(e.Key) > 0
}

// Generated returns the store-generated key column, or nil
func (e *EntityType) Generated() *Column {
	for _, c := range e.Key {
		if c.Generated {
			return c
		}
	}
	return nil
}

// Column finds a column by name
func (e *EntityType) Column(name string) (*Column, bool) {
	for _, c := range e.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// ColumnNames returns the names of all columns in mapping order
func (e *EntityType) ColumnNames() []string {
	names := make([]string, len(e.Columns))
	for i, c := range e.Columns {
		names[i] = c.Name
	}
	return names
}

// New allocates a zero entity and returns a pointer to it
func (e *EntityType) New() reflect.Value {
	return reflect.New(e.GoType)
}

// KeyValues splits a key value into the values of the key columns.
//
// The key may be given as a value or pointer of KeyType. Numeric keys are
// converted between numeric types when the conversion is exact, so an int
// literal can address an int64 key; fractional, overflowing or negative
// unsigned values fail with ErrInexactKey.
func (e *EntityType) KeyValues(key any) ([]any, error) {
	if !e.HasKey() {
		return nil, fmt.Errorf("entity %s has no key", e.Name)
	}
	if key == nil {
		return nil, fmt.Errorf("nil key for entity %s", e.Name)
	}

	v := reflect.ValueOf(key)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil, fmt.Errorf("nil key for entity %s", e.Name)
		}
		v = v.Elem()
	}

	if v.Type() != e.KeyType {
		if !isNumeric(v.Kind()) || !isNumeric(e.KeyType.Kind()) {
			return nil, fmt.Errorf("key of type %s does not match %s key type %s", v.Type(), e.Name, e.KeyType)
		}
		converted, ok := convertExact(v, e.KeyType)
		if !ok {
			return nil, fmt.Errorf("%w: %v for %s key type %s", ErrInexactKey, v.Interface(), e.Name, e.KeyType)
		}
		v = converted
	}

	if !e.EmbeddedKey {
		return []any{v.Interface()}, nil
	}

	// Embedded id: column indexes are rooted at the entity, the key value is
	// rooted at the key field.
	values := make([]any, len(e.Key))
	for i, c := range e.Key {
		values[i] = v.FieldByIndex(c.Index[len(e.KeyIndex):]).Interface()
	}
	return values, nil
}

// convertExact converts the numeric value v to t, reporting false when the
// result would not equal v.
func convertExact(v reflect.Value, t reflect.Type) (reflect.Value, bool) {
	target := reflect.New(t).Elem()

	switch {
	case isSigned(t.Kind()):
		var n int64
		switch {
		case isSigned(v.Kind()):
			n = v.Int()
		case isUnsigned(v.Kind()):
			u := v.Uint()
			if u > math.MaxInt64 {
				return target, false
			}
			n = int64(u)
		default:
			f := v.Float()
			if f != math.Trunc(f) || f < -(1<<63) || f >= 1<<63 {
				return target, false
			}
			n = int64(f)
		}
		if target.OverflowInt(n) {
			return target, false
		}
		target.SetInt(n)

	case isUnsigned(t.Kind()):
		var n uint64
		switch {
		case isSigned(v.Kind()):
			i := v.Int()
			if i < 0 {
				return target, false
			}
			n = uint64(i)
		case isUnsigned(v.Kind()):
			n = v.Uint()
		default:
			f := v.Float()
			if f != math.Trunc(f) || f < 0 || f >= 1<<64 {
				return target, false
			}
			n = uint64(f)
		}
		if target.OverflowUint(n) {
			return target, false
		}
		target.SetUint(n)

	default:
		var f float64
		switch {
		case isSigned(v.Kind()):
			i := v.Int()
			f = float64(i)
			if f >= 1<<63 || int64(f) != i {
				return target, false
			}
		case isUnsigned(v.Kind()):
			u := v.Uint()
			f = float64(u)
			if f >= 1<<64 || uint64(f) != u {
				return target, false
			}
		default:
			f = v.Float()
		}
		target.SetFloat(f)
		// float32 keys round; the stored value must still equal the key
		if target.Float() != f {
			return target, false
		}
	}

	return target, true
}

func isSigned(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	}
	return false
}

func isUnsigned(k reflect.Kind) bool {
	switch k {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// toSnakeCase converts a Go identifier to snake_case.
// "SampleEntity01" -> "sample_entity01", "HTTPServer" -> "http_server", "ID" -> "id".
func toSnakeCase(s string) string {
	var result []rune
	runes := []rune(s)

	for i, r := range runes {
		if i > 0 && r >= 'A' && r <= 'Z' {
			prev := runes[i-1]
			// Add underscore at a camelCase boundary or at the end of an
			// acronym ("HTTPServer" -> "http_server")
			if prev >= 'a' && prev <= 'z' || prev >= '0' && prev <= '9' {
				result = append(result, '_')
			} else if i+1 < len(runes) && runes[i+1] >= 'a' && runes[i+1] <= 'z' {
				result = append(result, '_')
			}
		}
		if r >= 'A' && r <= 'Z' {
			result = append(result, r+('a'-'A'))
		} else {
			result = append(result, r)
		}
	}

	return string(result)
}
