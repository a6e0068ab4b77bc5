// Package convert parses textual key arguments into Go values.
package convert

import (
	"fmt"
	"reflect"
	"strconv"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var uuidType = reflect.TypeOf(uuid.UUID{})

// FromString parses s into a value of type t. Supported are strings,
// booleans, signed and unsigned integers, floats and uuid.UUID, plus named
// types over them. Struct types, such as composite keys, are decoded from
// a JSON object.
func FromString(s string, t reflect.Type) (any, error) {
	if t == nil {
		return nil, fmt.Errorf("cannot convert %q to nil type", s)
	}
	if t == uuidType {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("invalid uuid %q: %w", s, err)
		}
		return id, nil
	}

	v := reflect.New(t).Elem()
	switch t.Kind() {
	case reflect.String:
		v.SetString(s)
	case reflect.Bool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return nil, fmt.Errorf("invalid bool %q", s)
		}
		v.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(s, 10, t.Bits())
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q", t, s)
		}
		v.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(s, 10, t.Bits())
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q", t, s)
		}
		v.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(s, t.Bits())
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q", t, s)
		}
		v.SetFloat(f)
	case reflect.Struct:
		if err := json.UnmarshalFromString(s, v.Addr().Interface()); err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", t, s, err)
		}
	default:
		return nil, fmt.Errorf("cannot convert %q to %s", s, t)
	}
	return v.Interface(), nil
}

// ToString formats a value for display. nil becomes ""; structs without a
// String method are written as JSON, the form FromString reads back.
func ToString(v any) string {
	if v == nil {
		return ""
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return ""
		}
		return ToString(rv.Elem().Interface())
	}
	if s, ok := v.(fmt.Stringer); ok {
		return s.String()
	}
	if rv.Kind() == reflect.Struct {
		if s, err := json.MarshalToString(v); err == nil {
			return s
		}
	}
	return fmt.Sprint(v)
}
