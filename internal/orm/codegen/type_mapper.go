// Package codegen provides DDL generation for mapped entities.
// It turns a schema.Metamodel into CREATE TABLE statements for the
// supported dialects.
package codegen

import (
	"fmt"

	"github.com/conduit-lang/descriptor/internal/orm/dialect"
	"github.com/conduit-lang/descriptor/internal/orm/schema"
)

// TypeMapper maps column kinds to column types of one dialect
type TypeMapper struct {
	dialect dialect.Dialect
}

// NewTypeMapper creates a new TypeMapper
func NewTypeMapper(d dialect.Dialect) *TypeMapper {
	return &TypeMapper{dialect: d}
}

// MapType converts a column to a column type
func (tm *TypeMapper) MapType(column *schema.Column) (string, error) {
	if column == nil {
		return "", fmt.Errorf("column cannot be nil")
	}

	if tm.dialect.Name() == "sqlite" {
		return tm.mapSQLiteType(column)
	}
	return tm.mapPostgresType(column)
}

// mapPostgresType maps a column kind to PostgreSQL
func (tm *TypeMapper) mapPostgresType(column *schema.Column) (string, error) {
	switch column.Kind {
	case schema.KindString:
		return "TEXT", nil

	case schema.KindBytes:
		return "BYTEA", nil

	case schema.KindBool:
		return "BOOLEAN", nil

	case schema.KindInt:
		if column.Generated {
			return "SERIAL", nil
		}
		return "INTEGER", nil

	case schema.KindInt64:
		if column.Generated {
			return "BIGSERIAL", nil
		}
		return "BIGINT", nil

	case schema.KindFloat:
		return "DOUBLE PRECISION", nil

	case schema.KindTimestamp:
		return "TIMESTAMP WITH TIME ZONE", nil

	case schema.KindUUID:
		return "UUID", nil

	default:
		return "", fmt.Errorf("unsupported kind: %s", column.Kind)
	}
}

// mapSQLiteType maps a column kind to SQLite. Timestamps are declared as
// TIMESTAMP so the driver hands them back as time.Time.
func (tm *TypeMapper) mapSQLiteType(column *schema.Column) (string, error) {
	switch column.Kind {
	case schema.KindString, schema.KindUUID:
		return "TEXT", nil

	case schema.KindBytes:
		return "BLOB", nil

	case schema.KindBool:
		return "BOOLEAN", nil

	case schema.KindInt, schema.KindInt64:
		return "INTEGER", nil

	case schema.KindFloat:
		return "REAL", nil

	case schema.KindTimestamp:
		return "TIMESTAMP", nil

	default:
		return "", fmt.Errorf("unsupported kind: %s", column.Kind)
	}
}

// MapNullability returns the nullability constraint of a column
func (tm *TypeMapper) MapNullability(column *schema.Column) string {
	if column.Nullable {
		return "NULL"
	}
	return "NOT NULL"
}
