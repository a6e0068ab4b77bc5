package convert

import (
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type code string

type compositeKey struct {
	Identifier int64  `json:"identifier"`
	Sample     string `json:"sample"`
}

func TestFromString(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name  string
		input string
		typ   reflect.Type
		want  any
	}{
		{"string", "abc", reflect.TypeOf(""), "abc"},
		{"named string", "x1", reflect.TypeOf(code("")), code("x1")},
		{"int64", "42", reflect.TypeOf(int64(0)), int64(42)},
		{"int", "-7", reflect.TypeOf(0), -7},
		{"uint8", "255", reflect.TypeOf(uint8(0)), uint8(255)},
		{"float64", "1.5", reflect.TypeOf(float64(0)), 1.5},
		{"bool", "true", reflect.TypeOf(false), true},
		{"uuid", id.String(), reflect.TypeOf(uuid.UUID{}), id},
		{"struct", `{"identifier":3,"sample":"a"}`, reflect.TypeOf(compositeKey{}), compositeKey{Identifier: 3, Sample: "a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromString(tt.input, tt.typ)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFromString_Errors(t *testing.T) {
	_, err := FromString("300", reflect.TypeOf(uint8(0)))
	assert.Error(t, err)

	_, err = FromString("abc", reflect.TypeOf(int64(0)))
	assert.Error(t, err)

	_, err = FromString("maybe", reflect.TypeOf(false))
	assert.Error(t, err)

	_, err = FromString("not-a-uuid", reflect.TypeOf(uuid.UUID{}))
	assert.Error(t, err)

	_, err = FromString("{", reflect.TypeOf(compositeKey{}))
	assert.Error(t, err)

	_, err = FromString("x", reflect.TypeOf([]int{}))
	assert.Error(t, err)

	_, err = FromString("x", nil)
	assert.Error(t, err)
}

func TestToString(t *testing.T) {
	n := int64(5)
	var nilPtr *int64
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	assert.Equal(t, "", ToString(nil))
	assert.Equal(t, "5", ToString(n))
	assert.Equal(t, "5", ToString(&n))
	assert.Equal(t, "", ToString(nilPtr))
	assert.Equal(t, ts.String(), ToString(ts))

	type key struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}
	assert.Equal(t, `{"id":1,"name":"a"}`, ToString(key{ID: 1, Name: "a"}))
}
