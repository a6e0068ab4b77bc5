package persistence

import (
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver "pgx"
	_ "github.com/lib/pq"              // PostgreSQL driver "postgres"
	_ "github.com/mattn/go-sqlite3"    // SQLite driver "sqlite3"
)
