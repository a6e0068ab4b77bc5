package transaction

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"pgx deadlock", &pgconn.PgError{Code: "40P01"}, true},
		{"pgx serialization failure", &pgconn.PgError{Code: "40001"}, true},
		{"pgx unique violation", &pgconn.PgError{Code: "23505"}, false},
		{"pq deadlock", &pq.Error{Code: "40P01"}, true},
		{"pq wrapped serialization failure", fmt.Errorf("insert: %w", &pq.Error{Code: "40001"}), true},
		{"sqlite busy", sqlite3.Error{Code: sqlite3.ErrBusy}, true},
		{"sqlite locked", sqlite3.Error{Code: sqlite3.ErrLocked}, true},
		{"sqlite constraint", sqlite3.Error{Code: sqlite3.ErrConstraint}, false},
		{"deadlock message only", errors.New("deadlock detected"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryableError(tt.err); got != tt.expected {
				t.Errorf("IsRetryableError(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestWithRetry_RetriesRetryableErrors(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	attempts := 0
	err := NewManager(db).WithRetryConfig(context.Background(), &RetryConfig{MaxRetries: 3, BaseBackoff: time.Millisecond}, func(tx *Transaction) error {
		attempts++
		if _, err := tx.Tx().Exec("INSERT INTO test_records (name) VALUES (?)", "retry"); err != nil {
			return err
		}
		if attempts < 3 {
			return &pgconn.PgError{Code: "40001"}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithRetryConfig failed: %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
	if n := countRecords(t, db); n != 1 {
		t.Errorf("failed attempts should roll back, got %d records", n)
	}
}

func TestWithRetry_GivesUp(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	attempts := 0
	err := NewManager(db).WithRetryConfig(context.Background(), &RetryConfig{MaxRetries: 2, BaseBackoff: time.Millisecond}, func(tx *Transaction) error {
		attempts++
		return &pgconn.PgError{Code: "40P01"}
	})
	if !errors.Is(err, ErrDeadlock) {
		t.Fatalf("expected ErrDeadlock, got %v", err)
	}
	if attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", attempts)
	}
}

func TestWithRetry_NoBackoffAfterLastAttempt(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	start := time.Now()
	err := NewManager(db).WithRetryConfig(context.Background(), &RetryConfig{MaxRetries: 1, BaseBackoff: 10 * time.Second}, func(tx *Transaction) error {
		return sqlite3.Error{Code: sqlite3.ErrBusy}
	})
	if !errors.Is(err, ErrDeadlock) {
		t.Fatalf("expected ErrDeadlock, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("expected an immediate return after the last attempt, took %s", elapsed)
	}
}

func TestWithRetry_NonRetryableError(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	boom := errors.New("boom")
	attempts := 0
	err := NewManager(db).WithRetry(context.Background(), func(tx *Transaction) error {
		attempts++
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("expected 1 attempt, got %d", attempts)
	}
}

func TestWithRetry_Cancelled(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewManager(db).WithRetry(ctx, func(tx *Transaction) error { return nil })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
