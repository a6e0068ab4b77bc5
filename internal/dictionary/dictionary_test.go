package dictionary

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/conduit-lang/descriptor/examples/sample"
	"github.com/conduit-lang/descriptor/internal/descriptor/builder"
	"github.com/conduit-lang/descriptor/internal/descriptor/model"
	"github.com/conduit-lang/descriptor/internal/orm/dialect"
	"github.com/conduit-lang/descriptor/internal/orm/schema"
	"github.com/conduit-lang/descriptor/internal/persistence"
	"github.com/conduit-lang/descriptor/internal/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const rows = 500

type fixture struct {
	factory    *persistence.Factory
	model      *model.Model
	descriptor *model.KeyedEntityDescriptor
}

// setupUnit opens a fresh in-memory unit holding the sample entities and
// seeds it with 500 rows
func setupUnit(t *testing.T, name string) *fixture {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, persistence.Define(persistence.Unit{
		Name:         name,
		Driver:       "sqlite3",
		DSN:          "file:" + name + "?mode=memory&cache=shared",
		Types:        sample.Types(),
		CreateSchema: true,
	}))
	t.Cleanup(func() { persistence.CloseAll() })

	factory, err := persistence.Open(ctx, name)
	require.NoError(t, err)
	require.NoError(t, sample.Seed(ctx, factory, rows))

	units, err := resource.NewUnit(name)
	require.NoError(t, err)
	m, err := builder.NewPersistent().Resources(units).Build()
	require.NoError(t, err)

	entity, ok := model.EntityOf[sample.SampleEntity01](m)
	require.True(t, ok)
	keyed, ok := entity.Keyed()
	require.True(t, ok)

	return &fixture{factory: factory, model: m, descriptor: keyed}
}

func TestDictionary_Totals(t *testing.T) {
	f := setupUnit(t, "dictionary-totals")
	dict, err := NewWithFactory(f.factory)
	require.NoError(t, err)

	total, err := dict.LookupTotals(context.Background(), f.descriptor.EntityDescriptor)
	require.NoError(t, err)
	assert.Equal(t, rows, total)
}

func TestDictionary_Lookup(t *testing.T) {
	f := setupUnit(t, "dictionary-lookup")
	dict, err := NewWithFactory(f.factory)
	require.NoError(t, err)

	all, err := dict.Lookup(context.Background(), f.descriptor.EntityDescriptor)
	require.NoError(t, err)
	assert.Len(t, all, rows)
}

func TestDictionary_LookupKey(t *testing.T) {
	f := setupUnit(t, "dictionary-key")
	em, err := f.factory.CreateManager()
	require.NoError(t, err)
	dict, err := NewWithManager(em)
	require.NoError(t, err)
	ctx := context.Background()

	entity, found, err := dict.LookupKey(ctx, f.descriptor, int64(1))
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "entity-instance-0", entity.(*sample.SampleEntity01).Sample)

	entity, found, err = dict.LookupKey(ctx, f.descriptor, int64(50))
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, int64(50), entity.(*sample.SampleEntity01).Identifier)
	assert.Equal(t, "entity-instance-49", entity.(*sample.SampleEntity01).Sample)

	entity, found, err = dict.LookupKey(ctx, f.descriptor, int64(rows+1))
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, entity)
}

func TestDictionary_LookupKeyNumericConversion(t *testing.T) {
	f := setupUnit(t, "dictionary-key-numeric")
	dict, err := NewWithFactory(f.factory)
	require.NoError(t, err)
	ctx := context.Background()

	for _, key := range []any{50, int32(50), uint8(50), 50.0, float32(50)} {
		entity, found, err := dict.LookupKey(ctx, f.descriptor, key)
		require.NoError(t, err, "%T", key)
		require.True(t, found, "%T", key)
		assert.Equal(t, int64(50), entity.(*sample.SampleEntity01).Identifier)
	}

	for _, key := range []any{50.9, float32(7.5), uint64(1<<63 + 50), -0.5} {
		entity, found, err := dict.LookupKey(ctx, f.descriptor, key)
		require.NoError(t, err, "%T(%v)", key, key)
		assert.False(t, found, "%T(%v) has no exact int64 value", key, key)
		assert.Nil(t, entity)
	}
}

func TestDictionary_LookupPaginated(t *testing.T) {
	f := setupUnit(t, "dictionary-page")
	dict, err := NewWithFactory(f.factory)
	require.NoError(t, err)
	ctx := context.Background()
	d := f.descriptor.EntityDescriptor

	page, err := dict.LookupPaginated(ctx, d, 50, 50)
	require.NoError(t, err)
	require.Len(t, page, 50)
	assert.Equal(t, "entity-instance-50", page[0].(*sample.SampleEntity01).Sample)
	assert.Equal(t, "entity-instance-99", page[49].(*sample.SampleEntity01).Sample)

	tests := []struct {
		row, count, want int
	}{
		{0, 0, 0},
		{0, 10, 10},
		{490, 50, 10},
		{499, 1, 1},
		{500, 10, 0},
		{1000, 10, 0},
		{0, 1000, rows},
	}
	for _, tt := range tests {
		page, err := dict.LookupPaginated(ctx, d, tt.row, tt.count)
		require.NoError(t, err)
		assert.Len(t, page, tt.want, "row=%d count=%d", tt.row, tt.count)
	}
}

func TestDictionary_Preconditions(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	dict, err := NewWithFactory(persistence.NewFactory(db, dialect.Postgres, schema.NewMetamodel()))
	require.NoError(t, err)
	ctx := context.Background()
	d := model.NewEntityDescriptor("x", reflect.TypeOf(sample.SampleEntity01{}))

	assert.Panics(t, func() { dict.Lookup(ctx, nil) })
	assert.Panics(t, func() { dict.LookupKey(ctx, nil, 1) })
	assert.Panics(t, func() { dict.LookupTotals(ctx, nil) })
	assert.Panics(t, func() { dict.LookupPaginated(ctx, nil, 0, 1) })
	assert.Panics(t, func() { dict.LookupPaginated(ctx, d, -1, 1) })
	assert.Panics(t, func() { dict.LookupPaginated(ctx, d, 0, -1) })
}

func TestDictionary_Construction(t *testing.T) {
	_, err := NewWithManager(nil)
	assert.ErrorIs(t, err, ErrNoConnection)

	_, err = NewWithFactory(nil)
	assert.ErrorIs(t, err, ErrNoConnection)

	_, err = NewForUnit(context.Background(), "dictionary-undefined")
	assert.ErrorIs(t, err, persistence.ErrUnknownUnit)
}

func mockedDictionary(t *testing.T) (*Dictionary, sqlmock.Sqlmock, *model.KeyedEntityDescriptor) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	metamodel, err := schema.Introspect(sample.Types()...)
	require.NoError(t, err)

	dict, err := NewWithFactory(persistence.NewFactory(db, dialect.Postgres, metamodel))
	require.NoError(t, err)

	m, err := builder.NewPersistent().Types(sample.Types()...).Build()
	require.NoError(t, err)
	entity, ok := model.EntityOf[sample.SampleEntity01](m)
	require.True(t, ok)
	keyed, ok := entity.Keyed()
	require.True(t, ok)

	return dict, mock, keyed
}

func TestDictionary_ProviderErrorsAreWrapped(t *testing.T) {
	dict, mock, d := mockedDictionary(t)
	ctx := context.Background()
	failure := errors.New("connection refused")

	mock.ExpectQuery(`SELECT COUNT(*) FROM "sampleentity01"`).WillReturnError(failure)
	_, err := dict.LookupTotals(ctx, d.EntityDescriptor)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDictionary)
	assert.ErrorIs(t, err, failure)

	var dictErr *Error
	require.ErrorAs(t, err, &dictErr)
	assert.Equal(t, "lookup totals", dictErr.Op)
	assert.Equal(t, "sample-entity-01", dictErr.Entity)

	mock.ExpectQuery(`SELECT "identifier", "sample" FROM "sampleentity01" WHERE "identifier" = $1`).
		WithArgs(int64(7)).
		WillReturnError(failure)
	_, found, err := dict.LookupKey(ctx, d, int64(7))
	assert.False(t, found)
	assert.ErrorIs(t, err, ErrDictionary)

	mock.ExpectQuery(`SELECT "identifier", "sample" FROM "sampleentity01" ORDER BY "identifier" ASC LIMIT $1 OFFSET $2`).
		WithArgs(5, 10).
		WillReturnError(failure)
	_, err = dict.LookupPaginated(ctx, d.EntityDescriptor, 10, 5)
	assert.ErrorIs(t, err, ErrDictionary)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDictionary_PagedQueryShape(t *testing.T) {
	dict, mock, d := mockedDictionary(t)

	mock.ExpectQuery(`SELECT "identifier", "sample" FROM "sampleentity01" ORDER BY "identifier" ASC LIMIT $1 OFFSET $2`).
		WithArgs(2, 50).
		WillReturnRows(sqlmock.NewRows([]string{"identifier", "sample"}).
			AddRow(51, "entity-instance-50").
			AddRow(52, "entity-instance-51"))

	page, err := Page[sample.SampleEntity01](context.Background(), dict, d.EntityDescriptor, 50, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "entity-instance-50", page[0].Sample)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDictionary_UnmappedEntity(t *testing.T) {
	dict, _, _ := mockedDictionary(t)
	type stray struct{ ID int64 }

	_, err := dict.Lookup(context.Background(), model.NewEntityDescriptor("stray", reflect.TypeOf(stray{})))
	assert.ErrorIs(t, err, ErrDictionary)
	assert.ErrorIs(t, err, persistence.ErrUnknownEntity)
}

func TestDictionary_ClosedFactory(t *testing.T) {
	f := setupUnit(t, "dictionary-closed")
	dict, err := NewWithFactory(f.factory)
	require.NoError(t, err)
	require.NoError(t, f.factory.Close())

	_, err = dict.LookupTotals(context.Background(), f.descriptor.EntityDescriptor)
	assert.ErrorIs(t, err, ErrDictionary)
	assert.ErrorIs(t, err, persistence.ErrFactoryClosed)
}

func TestTypedHelpers(t *testing.T) {
	f := setupUnit(t, "dictionary-typed")
	dict, err := NewForUnit(context.Background(), "dictionary-typed")
	require.NoError(t, err)
	ctx := context.Background()

	all, err := All[sample.SampleEntity01](ctx, dict, f.descriptor.EntityDescriptor)
	require.NoError(t, err)
	assert.Len(t, all, rows)

	one, found, err := Find[sample.SampleEntity01](ctx, dict, f.descriptor, 3)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "entity-instance-2", one.Sample)

	_, found, err = Find[sample.SampleEntity01](ctx, dict, f.descriptor, 9999)
	require.NoError(t, err)
	assert.False(t, found)

	_, err = All[sample.SampleEntity02](ctx, dict, f.descriptor.EntityDescriptor)
	assert.Error(t, err, "entities of another type do not convert")
}

func TestDictionary_Logs(t *testing.T) {
	f := setupUnit(t, "dictionary-logs")
	core, logs := observer.New(zap.DebugLevel)
	dict, err := NewWithFactory(f.factory, WithLogger(zap.New(core)))
	require.NoError(t, err)

	_, err = dict.LookupPaginated(context.Background(), f.descriptor.EntityDescriptor, 5, 10)
	require.NoError(t, err)

	entries := logs.FilterMessage("finding entities").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, int64(10), fields["count"])
	assert.Equal(t, int64(5), fields["row"])
}
