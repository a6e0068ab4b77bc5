// Package query builds SELECT and COUNT statements over mapped entities
package query

import (
	"fmt"
	"strings"

	"github.com/conduit-lang/descriptor/internal/orm/dialect"
	"github.com/conduit-lang/descriptor/internal/orm/schema"
)

// condition is an equality test on one column
type condition struct {
	column string
	value  any
}

// QueryBuilder provides a fluent API for building SQL queries.
// Column names are validated against the entity; unknown columns panic.
type QueryBuilder struct {
	entity  *schema.EntityType
	dialect dialect.Dialect

	conditions []condition
	orderBy    []string
	limit      *int
	offset     *int

	// For building SQL
	paramCounter int
	args         []any
}

// NewQueryBuilder creates a new query builder for the given entity
func NewQueryBuilder(entity *schema.EntityType, d dialect.Dialect) *QueryBuilder {
	return &QueryBuilder{
		entity:       entity,
		dialect:      d,
		paramCounter: 1,
	}
}

// Where adds a column = value condition. Conditions are joined with AND.
func (qb *QueryBuilder) Where(column string, value any) *QueryBuilder {
	qb.validateColumn(column)
	qb.conditions = append(qb.conditions, condition{column: column, value: value})
	return qb
}

// WhereKey adds one equality condition per key column. values must hold
// one value per key column, as returned by EntityType.KeyValues.
func (qb *QueryBuilder) WhereKey(values []any) *QueryBuilder {
	if len(values) != len(qb.entity.Key) {
		panic(fmt.Sprintf("entity %s has %d key columns, got %d values", qb.entity.Name, len(qb.entity.Key), len(values)))
	}
	for i, c := range qb.entity.Key {
		qb.Where(c.Name, values[i])
	}
	return qb
}

// OrderByAsc adds an ascending ORDER BY clause
func (qb *QueryBuilder) OrderByAsc(column string) *QueryBuilder {
	qb.validateColumn(column)
	qb.orderBy = append(qb.orderBy, qb.dialect.QuoteIdentifier(column)+" ASC")
	return qb
}

// OrderByKey orders by every key column, ascending. It is a no-op for
// entities without a key.
func (qb *QueryBuilder) OrderByKey() *QueryBuilder {
	for _, c := range qb.entity.Key {
		qb.OrderByAsc(c.Name)
	}
	return qb
}

// Limit sets the LIMIT clause
func (qb *QueryBuilder) Limit(n int) *QueryBuilder {
	qb.limit = &n
	return qb
}

// Offset sets the OFFSET clause
func (qb *QueryBuilder) Offset(n int) *QueryBuilder {
	qb.offset = &n
	return qb
}

// ToSQL generates the SELECT statement and its arguments
func (qb *QueryBuilder) ToSQL() (string, []any) {
	var sql strings.Builder
	qb.reset()

	columns := make([]string, len(qb.entity.Columns))
	for i, c := range qb.entity.Columns {
		columns[i] = qb.dialect.QuoteIdentifier(c.Name)
	}
	sql.WriteString(fmt.Sprintf("SELECT %s FROM %s", strings.Join(columns, ", "), qb.dialect.QuoteIdentifier(qb.entity.Table)))
	qb.writeWhere(&sql)

	if len(qb.orderBy) > 0 {
		sql.WriteString(" ORDER BY ")
		sql.WriteString(strings.Join(qb.orderBy, ", "))
	}

	var limit, offset string
	if qb.limit != nil {
		limit = qb.bind(*qb.limit)
	}
	if qb.offset != nil {
		offset = qb.bind(*qb.offset)
	}
	sql.WriteString(qb.dialect.LimitOffset(limit, offset))

	return sql.String(), qb.args
}

// CountSQL generates a COUNT(*) statement honouring the WHERE conditions.
// Ordering and paging are ignored.
func (qb *QueryBuilder) CountSQL() (string, []any) {
	var sql strings.Builder
	qb.reset()

	sql.WriteString(fmt.Sprintf("SELECT COUNT(*) FROM %s", qb.dialect.QuoteIdentifier(qb.entity.Table)))
	qb.writeWhere(&sql)

	return sql.String(), qb.args
}

func (qb *QueryBuilder) writeWhere(sql *strings.Builder) {
	for i, cond := range qb.conditions {
		if i == 0 {
			sql.WriteString(" WHERE ")
		} else {
			sql.WriteString(" AND ")
		}
		sql.WriteString(qb.dialect.QuoteIdentifier(cond.column))
		sql.WriteString(" = ")
		sql.WriteString(qb.bind(cond.value))
	}
}

// bind records an argument and returns its placeholder
func (qb *QueryBuilder) bind(value any) string {
	qb.args = append(qb.args, value)
	placeholder := qb.dialect.Placeholder(qb.paramCounter)
	qb.paramCounter++
	return placeholder
}

func (qb *QueryBuilder) reset() {
	qb.args = make([]any, 0)
	qb.paramCounter = 1
}

func (qb *QueryBuilder) validateColumn(column string) {
	if _, exists := qb.entity.Column(column); !exists {
		panic(fmt.Sprintf("column %s does not exist on entity %s", column, qb.entity.Name))
	}
}
