package crud

import (
	"context"
	"fmt"

	"github.com/conduit-lang/descriptor/internal/orm/query"
)

// Find retrieves an entity by its key. It returns ErrNotFound when no row
// matches.
func (o *Operations) Find(ctx context.Context, key any) (any, error) {
	values, err := o.entity.KeyValues(key)
	if err != nil {
		return nil, err
	}

	stmt, args := o.NewQuery().WhereKey(values).ToSQL()

	ptr, err := scanEntity(o.exec.QueryRowContext(ctx, stmt, args...), o.entity)
	if err != nil {
		return nil, fmt.Errorf("failed to find %s: %w", o.entity.Name, ConvertDBError(err))
	}
	return ptr.Interface(), nil
}

// List retrieves up to limit entities starting at offset, ordered by key.
// A negative limit returns every remaining row.
func (o *Operations) List(ctx context.Context, offset, limit int) ([]any, error) {
	qb := o.NewQuery().OrderByKey()
	if offset > 0 {
		qb.Offset(offset)
	}
	if limit >= 0 {
		qb.Limit(limit)
	}
	return o.Query(ctx, qb)
}

// Query runs a SELECT built over this entity and scans every row
func (o *Operations) Query(ctx context.Context, qb *query.QueryBuilder) ([]any, error) {
	stmt, args := qb.ToSQL()
	rows, err := o.exec.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", o.entity.Name, ConvertDBError(err))
	}
	defer rows.Close()

	results := make([]any, 0)
	for rows.Next() {
		ptr, err := scanEntity(rows, o.entity)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", o.entity.Name, ConvertDBError(err))
		}
		results = append(results, ptr.Interface())
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s rows: %w", o.entity.Name, ConvertDBError(err))
	}

	return results, nil
}

// Count returns the number of stored entities
func (o *Operations) Count(ctx context.Context) (int, error) {
	stmt, args := o.NewQuery().CountSQL()
	var count int
	if err := o.exec.QueryRowContext(ctx, stmt, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", o.entity.Name, ConvertDBError(err))
	}
	return count, nil
}
