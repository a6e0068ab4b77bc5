package crud

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

// Common CRUD error types
var (
	// ErrNotFound is returned when a record is not found
	ErrNotFound = errors.New("record not found")

	// ErrUniqueViolation is returned when a unique constraint is violated
	ErrUniqueViolation = errors.New("unique constraint violation")

	// ErrForeignKeyViolation is returned when a foreign key constraint is violated
	ErrForeignKeyViolation = errors.New("foreign key constraint violation")

	// ErrCheckViolation is returned when a check constraint is violated
	ErrCheckViolation = errors.New("check constraint violation")

	// ErrNotNullViolation is returned when a NOT NULL constraint is violated
	ErrNotNullViolation = errors.New("not null constraint violation")

	// ErrInvalidEntity is returned when a value does not match the mapped entity type
	ErrInvalidEntity = errors.New("invalid entity value")
)

// ConvertDBError converts database-specific errors to CRUD errors
func ConvertDBError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}

	// PostgreSQL via pgx
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if converted := convertSQLState(pgErr.Code, pgErr.Detail, pgErr.ColumnName); converted != nil {
			return converted
		}
	}

	// PostgreSQL via lib/pq
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if converted := convertSQLState(string(pqErr.Code), pqErr.Detail, pqErr.Column); converted != nil {
			return converted
		}
	}

	// SQLite
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		switch liteErr.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return fmt.Errorf("%w: %s", ErrUniqueViolation, liteErr.Error())
		case sqlite3.ErrConstraintForeignKey:
			return fmt.Errorf("%w: %s", ErrForeignKeyViolation, liteErr.Error())
		case sqlite3.ErrConstraintCheck:
			return fmt.Errorf("%w: %s", ErrCheckViolation, liteErr.Error())
		case sqlite3.ErrConstraintNotNull:
			return fmt.Errorf("%w: %s", ErrNotNullViolation, liteErr.Error())
		}
	}

	return err
}

func convertSQLState(code, detail, column string) error {
	switch code {
	case "23505": // unique_violation
		return fmt.Errorf("%w: %s", ErrUniqueViolation, detail)
	case "23503": // foreign_key_violation
		return fmt.Errorf("%w: %s", ErrForeignKeyViolation, detail)
	case "23514": // check_violation
		return fmt.Errorf("%w: %s", ErrCheckViolation, detail)
	case "23502": // not_null_violation
		return fmt.Errorf("%w: column %s", ErrNotNullViolation, column)
	}
	return nil
}

// IsNotFound returns true if the error is ErrNotFound
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsUniqueViolation returns true if the error is ErrUniqueViolation
func IsUniqueViolation(err error) bool {
	return errors.Is(err, ErrUniqueViolation)
}

// IsForeignKeyViolation returns true if the error is ErrForeignKeyViolation
func IsForeignKeyViolation(err error) bool {
	return errors.Is(err, ErrForeignKeyViolation)
}
