// Package crud maps entity values to and from table rows
package crud

import (
	"context"
	"database/sql"
	"fmt"
	"reflect"

	"github.com/conduit-lang/descriptor/internal/orm/dialect"
	"github.com/conduit-lang/descriptor/internal/orm/query"
	"github.com/conduit-lang/descriptor/internal/orm/schema"
)

// Executor runs statements. *sql.DB, *sql.Tx and *sql.Conn satisfy it.
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var (
	_ Executor = (*sql.DB)(nil)
	_ Executor = (*sql.Tx)(nil)
	_ Executor = (*sql.Conn)(nil)
)

// Operations provides row operations for one entity type.
// Values cross the API as pointers to the entity struct.
type Operations struct {
	entity  *schema.EntityType
	dialect dialect.Dialect
	exec    Executor
}

// NewOperations creates a new Operations instance
func NewOperations(entity *schema.EntityType, d dialect.Dialect, exec Executor) *Operations {
	return &Operations{
		entity:  entity,
		dialect: d,
		exec:    exec,
	}
}

// Entity returns the mapped entity type
func (o *Operations) Entity() *schema.EntityType {
	return o.entity
}

// NewQuery starts a query over the entity
func (o *Operations) NewQuery() *query.QueryBuilder {
	return query.NewQueryBuilder(o.entity, o.dialect)
}

// entityValue checks that v is a non-nil pointer to the entity struct and
// returns the struct value
func (o *Operations) entityValue(v any) (reflect.Value, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Type() != o.entity.GoType {
		return reflect.Value{}, fmt.Errorf("%w: expected *%s, got %T", ErrInvalidEntity, o.entity.GoType, v)
	}
	return rv.Elem(), nil
}
