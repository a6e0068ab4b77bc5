package model

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type account struct {
	Number int64
	Code   string
	Label  string
}

var accountType = reflect.TypeOf(account{})

func prop(name string, index int, key bool) *PropertyDescriptor {
	field := accountType.Field(index)
	return NewPropertyDescriptor(PropertyAttributes{
		Name:         name,
		FieldName:    field.Name,
		IsKey:        key,
		PropertyType: field.Type,
		EntityType:   accountType,
		Index:        field.Index,
	})
}

func TestEntityDescriptor_FirstKeyWins(t *testing.T) {
	d := NewEntityDescriptor("account", accountType,
		prop("number", 0, true),
		prop("code", 1, true),
		prop("label", 2, false),
	)

	keyed, ok := d.Keyed()
	require.True(t, ok)
	assert.Equal(t, "number", keyed.KeyProperty().Name())
	assert.Equal(t, reflect.TypeOf(int64(0)), keyed.KeyType())
	assert.Equal(t, "account", keyed.Name())

	names := make([]string, 0)
	for _, p := range d.Properties() {
		names = append(names, p.Name())
	}
	assert.Equal(t, []string{"number", "code", "label"}, names)

	p, ok := d.Property("label")
	require.True(t, ok)
	assert.False(t, p.IsKey())
	_, ok = d.Property("missing")
	assert.False(t, ok)
}

func TestEntityDescriptor_WithoutKey(t *testing.T) {
	d := NewEntityDescriptor("account", accountType, prop("label", 2, false))
	_, ok := d.Keyed()
	assert.False(t, ok)
}

func TestPropertyDescriptor_Value(t *testing.T) {
	p := prop("code", 1, false)

	v, err := p.Value(&account{Code: "X1"})
	require.NoError(t, err)
	assert.Equal(t, "X1", v)

	v, err = p.Value(account{Code: "X2"})
	require.NoError(t, err)
	assert.Equal(t, "X2", v)

	var nilAccount *account
	v, err = p.Value(nilAccount)
	require.NoError(t, err)
	assert.Nil(t, v)

	_, err = p.Value(struct{}{})
	assert.Error(t, err)
}

func TestPropertyDescriptor_DisplayName(t *testing.T) {
	plain := NewPropertyDescriptor(PropertyAttributes{Name: "label"})
	assert.Equal(t, "label", plain.DisplayName())

	aliased := NewPropertyDescriptor(PropertyAttributes{Name: "label", Alias: "Label", IsAlias: true})
	assert.Equal(t, "Label", aliased.DisplayName())
}

func TestModel(t *testing.T) {
	type other struct{ ID int }

	a := NewEntityDescriptor("account", accountType)
	b := NewEntityDescriptor("another", reflect.TypeOf(other{}))

	m, err := New(b, a)
	require.NoError(t, err)
	assert.Equal(t, 2, m.Len())

	entities := m.Entities()
	assert.Equal(t, "account", entities[0].Name())
	assert.Equal(t, "another", entities[1].Name())

	got, ok := m.Entity(reflect.TypeOf(&account{}))
	require.True(t, ok)
	assert.Same(t, a, got)

	got, ok = EntityOf[account](m)
	require.True(t, ok)
	assert.Same(t, a, got)

	_, ok = m.EntityNamed("another")
	assert.True(t, ok)
	_, ok = EntityOf[string](m)
	assert.False(t, ok)
}

func TestModel_Duplicates(t *testing.T) {
	type other struct{}

	_, err := New(
		NewEntityDescriptor("same", accountType),
		NewEntityDescriptor("same", reflect.TypeOf(other{})),
	)
	assert.ErrorContains(t, err, "duplicate entity name")

	_, err = New(
		NewEntityDescriptor("one", accountType),
		NewEntityDescriptor("two", accountType),
	)
	assert.ErrorContains(t, err, "described twice")
}

func TestModel_Values(t *testing.T) {
	type entry struct {
		Account *account
		Note    string
	}
	entryType := reflect.TypeOf(entry{})

	accounts := NewEntityDescriptor("account", accountType, prop("number", 0, true), prop("code", 1, false))
	entries := NewEntityDescriptor("entry", entryType,
		NewPropertyDescriptor(PropertyAttributes{
			Name:              "account",
			IsReference:       true,
			ReferenceRelation: accountType,
			PropertyType:      entryType.Field(0).Type,
			EntityType:        entryType,
			Index:             []int{0},
		}),
		NewPropertyDescriptor(PropertyAttributes{
			Name:         "note",
			Alias:        "Note",
			IsAlias:      true,
			PropertyType: entryType.Field(1).Type,
			EntityType:   entryType,
			Index:        []int{1},
		}),
	)
	m, err := New(accounts, entries)
	require.NoError(t, err)

	values, err := m.Values(entries, &entry{Account: &account{Number: 7}, Note: "n"})
	require.NoError(t, err)
	require.Len(t, values, 2)
	assert.Equal(t, int64(7), values[0].Value)
	assert.Equal(t, "n", values[1].Value)

	out, err := m.Map(entries, &entry{})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"account": nil, "Note": ""}, out)

	_, err = m.Values(entries, &account{})
	assert.Error(t, err)
}

func TestEntityDescriptor_Summary(t *testing.T) {
	d := NewEntityDescriptor("account", accountType, prop("number", 0, true), prop("label", 2, false))

	s := d.Summary()
	assert.Equal(t, "account", s.Name)
	assert.Equal(t, "model.account", s.Type)
	assert.Equal(t, "number", s.Key)
	assert.Equal(t, "int64", s.KeyType)
	require.Len(t, s.Properties, 2)
	assert.Equal(t, PropertySummary{Name: "number", Field: "Number", Type: "int64", Key: true}, s.Properties[0])
	assert.Equal(t, PropertySummary{Name: "label", Field: "Label", Type: "string"}, s.Properties[1])

	unkeyed := NewEntityDescriptor("account", accountType).Summary()
	assert.Empty(t, unkeyed.Key)
	assert.Empty(t, unkeyed.KeyType)
	assert.NotNil(t, unkeyed.Properties)
}
