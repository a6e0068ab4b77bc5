package builder

import (
	"errors"
	"reflect"
	"testing"

	"github.com/conduit-lang/descriptor/internal/descriptor/model"
	"github.com/conduit-lang/descriptor/internal/descriptor/resolver"
	"github.com/conduit-lang/descriptor/internal/persistence"
	"github.com/conduit-lang/descriptor/internal/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entityKey struct {
	Name   string
	Number int
}

type firstEntity struct {
	_    struct{} `persist:"entity:sample-entity-01"`
	ID   int64    `persist:"id,generated"`
	Name string
}

type secondEntity struct {
	_          struct{}  `persist:"entity:sample-entity-02"`
	Key        entityKey `persist:"embeddedid"`
	TestColumn string    `persist:"column:test_column" model:"alias:Test column"`
	First      *firstEntity
	Scratch    string `model:"-"`
}

type plain struct {
	Code string `model:"key"`
}

func TestBuild_PersistentChain(t *testing.T) {
	m, err := NewPersistent().
		Types(reflect.TypeOf(firstEntity{}), reflect.TypeOf(secondEntity{})).
		Build()
	require.NoError(t, err)
	require.Equal(t, 2, m.Len())

	first, ok := model.EntityOf[firstEntity](m)
	require.True(t, ok)
	assert.Equal(t, "sample-entity-01", first.Name())

	keyed, ok := first.Keyed()
	require.True(t, ok)
	assert.Equal(t, reflect.TypeOf(int64(0)), keyed.KeyType())

	second, ok := m.EntityNamed("sample-entity-02")
	require.True(t, ok)

	keyed, ok = second.Keyed()
	require.True(t, ok)
	assert.Equal(t, reflect.TypeOf(entityKey{}), keyed.KeyType())
	assert.True(t, keyed.KeyProperty().IsEmbedded())

	column, ok := second.Property("test_column")
	require.True(t, ok)
	assert.Equal(t, "Test column", column.DisplayName())

	ref, ok := second.Property("first")
	require.True(t, ok)
	assert.True(t, ref.IsReference())
	assert.Equal(t, reflect.TypeOf(firstEntity{}), ref.ReferenceRelation())

	_, ok = second.Property("scratch")
	assert.False(t, ok, "ignored properties are skipped")
}

func TestBuild_DefaultChain(t *testing.T) {
	m, err := New().
		Types(reflect.TypeOf(secondEntity{}), reflect.TypeOf(plain{})).
		Build()
	require.NoError(t, err)

	second, ok := model.EntityOf[secondEntity](m)
	require.True(t, ok)
	assert.Equal(t, "secondEntity", second.Name())
	_, ok = second.Keyed()
	assert.False(t, ok, "persist markers are not read by the default resolvers")

	_, ok = second.Property("testColumn")
	assert.True(t, ok)

	p, ok := model.EntityOf[plain](m)
	require.True(t, ok)
	_, ok = p.Keyed()
	assert.True(t, ok)
}

func TestBuild_NilResolversRestoreDefaults(t *testing.T) {
	m, err := NewPersistent().
		EntityResolver(nil).
		PropertyResolver(nil).
		Types(reflect.TypeOf(firstEntity{})).
		Build()
	require.NoError(t, err)

	_, ok := m.EntityNamed("firstEntity")
	assert.True(t, ok)
}

type renamed struct {
	_  struct{} `model:"entity:sample-entity-01"`
	ID int64
}

func TestBuild_DuplicateNames(t *testing.T) {
	_, err := NewPersistent().
		Types(reflect.TypeOf(firstEntity{}), reflect.TypeOf(renamed{})).
		Build()
	assert.ErrorContains(t, err, "duplicate entity name")
}

func TestBuild_NonStruct(t *testing.T) {
	_, err := New().Types(reflect.TypeOf(42)).Build()
	assert.ErrorContains(t, err, "not a struct")
}

func TestBuild_ResourceError(t *testing.T) {
	u, err := resource.NewUnit("builder-unit", resource.WithOpener(func(string) (persistence.Metamodel, error) {
		return nil, errors.New("boom")
	}))
	require.NoError(t, err)

	_, err = New().Resources(u).Build()
	assert.ErrorContains(t, err, "boom")
}

func TestBuild_NamespacesLimitMarkers(t *testing.T) {
	m, err := NewPersistent().
		Namespaces(resolver.Namespace).
		Types(reflect.TypeOf(firstEntity{})).
		Build()
	require.NoError(t, err)

	_, ok := m.EntityNamed("firstEntity")
	assert.True(t, ok, "persist markers are not parsed")
}
