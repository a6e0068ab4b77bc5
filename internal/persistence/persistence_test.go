package persistence

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type widget struct {
	_    struct{} `persist:"entity:Widget,table:widgets"`
	ID   int64    `persist:"id,generated"`
	Name string
}

type gadget struct {
	_    struct{} `persist:"entity:Gadget"`
	Code string   `persist:"id"`
}

var widgetType = reflect.TypeOf(widget{})

func defineUnit(t *testing.T, name string) {
	t.Helper()
	require.NoError(t, Define(Unit{
		Name:         name,
		Driver:       "sqlite3",
		DSN:          "file:" + name + "?mode=memory&cache=shared",
		Types:        []reflect.Type{widgetType, reflect.TypeOf(gadget{})},
		CreateSchema: true,
	}))
	t.Cleanup(func() { CloseAll() })
}

func TestDefine_Validation(t *testing.T) {
	assert.Error(t, Define(Unit{Driver: "sqlite3"}))
	assert.Error(t, Define(Unit{Name: "no-driver"}))
}

func TestOpen_UnknownUnit(t *testing.T) {
	_, err := Open(context.Background(), "never-defined")
	assert.ErrorIs(t, err, ErrUnknownUnit)

	assert.ErrorIs(t, Configure("never-defined", Connection{DSN: "x"}), ErrUnknownUnit)
}

func TestOpen_IsMemoised(t *testing.T) {
	defineUnit(t, "memoised-unit")
	ctx := context.Background()

	first, err := Open(ctx, "memoised-unit")
	require.NoError(t, err)
	second, err := Open(ctx, "memoised-unit")
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, "memoised-unit", first.Unit())
	assert.Equal(t, "sqlite", first.Dialect().Name())
	assert.Len(t, first.Metamodel().Types(), 2)
	assert.Contains(t, Units(), "memoised-unit")

	require.NoError(t, CloseAll())
	third, err := Open(ctx, "memoised-unit")
	require.NoError(t, err)
	assert.NotSame(t, first, third)
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	require.NoError(t, Define(Unit{Name: "odd-driver", Driver: "oracle"}))
	_, err := Open(context.Background(), "odd-driver")
	assert.Error(t, err)
}

func TestConfigure_OverridesConnection(t *testing.T) {
	defineUnit(t, "configured-unit")
	require.NoError(t, Configure("configured-unit", Connection{DSN: "file:configured-unit-2?mode=memory&cache=shared", MaxOpenConns: 4}))

	unit, ok := Lookup("configured-unit")
	require.True(t, ok)
	assert.Equal(t, "sqlite3", unit.Driver)
	assert.Equal(t, "file:configured-unit-2?mode=memory&cache=shared", unit.DSN)
	assert.Equal(t, 4, unit.MaxOpenConns)
}

func TestManager_Operations(t *testing.T) {
	defineUnit(t, "manager-unit")
	ctx := context.Background()

	f, err := Open(ctx, "manager-unit")
	require.NoError(t, err)
	assert.Equal(t, 1, f.DB().Stats().MaxOpenConnections)

	em, err := f.CreateManager()
	require.NoError(t, err)
	assert.Same(t, f, em.Factory())

	for _, name := range []string{"a", "b", "c"} {
		require.NoError(t, em.Persist(ctx, &widget{Name: name}))
	}

	count, err := em.Count(ctx, widgetType)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	found, ok, err := em.Find(ctx, widgetType, 2)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "b", found.(*widget).Name)

	found, ok, err = em.Find(ctx, widgetType, int64(99))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, found)

	rows, err := em.List(ctx, widgetType, 1, 5)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "b", rows[0].(*widget).Name)

	_, err = em.Count(ctx, reflect.TypeOf(struct{}{}))
	assert.ErrorIs(t, err, ErrUnknownEntity)
}

func TestManager_Transaction(t *testing.T) {
	defineUnit(t, "tx-unit")
	ctx := context.Background()

	f, err := Open(ctx, "tx-unit")
	require.NoError(t, err)
	em, err := f.CreateManager()
	require.NoError(t, err)

	rollback := errors.New("rollback")
	err = em.Transaction(ctx, func(tx *Manager) error {
		require.NoError(t, tx.Persist(ctx, &gadget{Code: "g-1"}))
		return rollback
	})
	assert.ErrorIs(t, err, rollback)

	count, err := em.Count(ctx, reflect.TypeOf(gadget{}))
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	err = em.Transaction(ctx, func(tx *Manager) error {
		return tx.Persist(ctx, &gadget{Code: "g-2"})
	})
	require.NoError(t, err)

	_, ok, err := em.Find(ctx, reflect.TypeOf(gadget{}), "g-2")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestManager_NestedTransaction(t *testing.T) {
	defineUnit(t, "nested-tx-unit")
	ctx := context.Background()

	f, err := Open(ctx, "nested-tx-unit")
	require.NoError(t, err)
	em, err := f.CreateManager()
	require.NoError(t, err)

	discard := errors.New("discard")
	err = em.Transaction(ctx, func(tx *Manager) error {
		require.NoError(t, tx.Persist(ctx, &gadget{Code: "outer"}))

		err := tx.Transaction(ctx, func(inner *Manager) error {
			require.NoError(t, inner.Persist(ctx, &gadget{Code: "inner-discarded"}))
			return discard
		})
		assert.ErrorIs(t, err, discard)

		return tx.Transaction(ctx, func(inner *Manager) error {
			return inner.Persist(ctx, &gadget{Code: "inner-kept"})
		})
	})
	require.NoError(t, err)

	count, err := em.Count(ctx, reflect.TypeOf(gadget{}))
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	_, ok, err := em.Find(ctx, reflect.TypeOf(gadget{}), "inner-discarded")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFactory_Closed(t *testing.T) {
	defineUnit(t, "closed-unit")
	ctx := context.Background()

	f, err := Open(ctx, "closed-unit")
	require.NoError(t, err)
	em, err := f.CreateManager()
	require.NoError(t, err)

	require.NoError(t, f.Close())
	require.NoError(t, f.Close())

	_, err = f.CreateManager()
	assert.ErrorIs(t, err, ErrFactoryClosed)
	_, err = em.Count(ctx, widgetType)
	assert.ErrorIs(t, err, ErrFactoryClosed)
	assert.ErrorIs(t, f.CreateSchema(ctx), ErrFactoryClosed)
}

func TestIsMemoryStore(t *testing.T) {
	assert.True(t, isMemoryStore("sqlite3", ":memory:"))
	assert.True(t, isMemoryStore("sqlite3", "file:x?mode=memory&cache=shared"))
	assert.False(t, isMemoryStore("sqlite3", "file:/tmp/data.db"))
	assert.False(t, isMemoryStore("pgx", "postgres://localhost/db"))
}
