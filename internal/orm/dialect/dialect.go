// Package dialect captures the SQL differences between the supported stores.
package dialect

import (
	"fmt"
	"strings"
)

// Dialect describes how SQL is spelled for one database
type Dialect interface {
	// Name returns the dialect name, e.g. "postgres".
	Name() string
	// Placeholder returns the bind parameter for the n-th (1-based) argument.
	Placeholder(n int) string
	// QuoteIdentifier quotes a table or column name.
	QuoteIdentifier(name string) string
	// SupportsReturning reports whether INSERT ... RETURNING is available.
	SupportsReturning() bool
	// LimitOffset renders the paging clause for already-bound parameters.
	// limit and offset are placeholders or "" when absent.
	LimitOffset(limit, offset string) string
}

// Postgres is the PostgreSQL dialect
var Postgres Dialect = postgres{}

// SQLite is the SQLite dialect
var SQLite Dialect = sqlite{}

// ForDriver returns the dialect for a database/sql driver name
func ForDriver(driver string) (Dialect, error) {
	switch driver {
	case "pgx", "postgres", "postgresql":
		return Postgres, nil
	case "sqlite3", "sqlite":
		return SQLite, nil
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}
}

type postgres struct{}

func (postgres) Name() string { return "postgres" }

func (postgres) Placeholder(n int) string { return fmt.Sprintf("$%d", n) }

func (postgres) QuoteIdentifier(name string) string { return quote(name) }

func (postgres) SupportsReturning() bool { return true }

func (postgres) LimitOffset(limit, offset string) string {
	var b strings.Builder
	if limit != "" {
		b.WriteString(" LIMIT ")
		b.WriteString(limit)
	}
	if offset != "" {
		b.WriteString(" OFFSET ")
		b.WriteString(offset)
	}
	return b.String()
}

type sqlite struct{}

func (sqlite) Name() string { return "sqlite" }

func (sqlite) Placeholder(int) string { return "?" }

func (sqlite) QuoteIdentifier(name string) string { return quote(name) }

func (sqlite) SupportsReturning() bool { return false }

// LimitOffset renders LIMIT -1 when only an offset is given; SQLite does not
// accept a bare OFFSET.
func (sqlite) LimitOffset(limit, offset string) string {
	switch {
	case limit == "" && offset == "":
		return ""
	case offset == "":
		return " LIMIT " + limit
	case limit == "":
		return " LIMIT -1 OFFSET " + offset
	default:
		return " LIMIT " + limit + " OFFSET " + offset
	}
}

// quote wraps an identifier in double quotes, doubling embedded quotes
func quote(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
