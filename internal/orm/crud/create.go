package crud

import (
	"context"
	"fmt"
	"strings"
)

// Insert stores a new entity. v must be a pointer to the entity struct; a
// store-generated key is written back into it.
func (o *Operations) Insert(ctx context.Context, v any) error {
	elem, err := o.entityValue(v)
	if err != nil {
		return err
	}

	var (
		columns      []string
		placeholders []string
		values       []any
	)
	counter := 1

	for _, c := range o.entity.Columns {
		if c.Generated {
			continue
		}
		columns = append(columns, o.dialect.QuoteIdentifier(c.Name))
		placeholders = append(placeholders, o.dialect.Placeholder(counter))
		values = append(values, columnValue(elem, c))
		counter++
	}

	table := o.dialect.QuoteIdentifier(o.entity.Table)
	var stmt string
	if len(columns) == 0 {
		stmt = fmt.Sprintf("INSERT INTO %s DEFAULT VALUES", table)
	} else {
		stmt = fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
			table,
			strings.Join(columns, ", "),
			strings.Join(placeholders, ", "))
	}

	generated := o.entity.Generated()
	if generated == nil {
		if _, err := o.exec.ExecContext(ctx, stmt, values...); err != nil {
			return fmt.Errorf("failed to insert %s: %w", o.entity.Name, ConvertDBError(err))
		}
		return nil
	}

	field := elem.FieldByIndex(generated.Index)

	if o.dialect.SupportsReturning() {
		stmt += " RETURNING " + o.dialect.QuoteIdentifier(generated.Name)
		if err := o.exec.QueryRowContext(ctx, stmt, values...).Scan(field.Addr().Interface()); err != nil {
			return fmt.Errorf("failed to insert %s: %w", o.entity.Name, ConvertDBError(err))
		}
		return nil
	}

	result, err := o.exec.ExecContext(ctx, stmt, values...)
	if err != nil {
		return fmt.Errorf("failed to insert %s: %w", o.entity.Name, ConvertDBError(err))
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read generated key of %s: %w", o.entity.Name, err)
	}
	setGeneratedKey(field, id)
	return nil
}
