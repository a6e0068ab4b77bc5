package transaction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

const (
	// DefaultMaxRetries is the default number of attempts
	DefaultMaxRetries = 3
	// DefaultBaseBackoff is the default base backoff duration
	DefaultBaseBackoff = 100 * time.Millisecond
)

// ErrDeadlock is returned when every attempt failed with a retryable error
var ErrDeadlock = errors.New("transaction deadlock")

// RetryConfig configures retry behavior for transactions
type RetryConfig struct {
	MaxRetries  int
	BaseBackoff time.Duration
}

// DefaultRetryConfig returns the default retry configuration
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries:  DefaultMaxRetries,
		BaseBackoff: DefaultBaseBackoff,
	}
}

// WithRetry executes a transaction with automatic retry on deadlock
func (m *Manager) WithRetry(ctx context.Context, fn func(tx *Transaction) error) error {
	return m.WithRetryConfig(ctx, DefaultRetryConfig(), fn)
}

// WithRetryConfig executes a transaction, retrying it with exponential
// backoff while it fails with a retryable error. Other errors are returned
// at once.
func (m *Manager) WithRetryConfig(ctx context.Context, config *RetryConfig, fn func(tx *Transaction) error) error {
	if config == nil {
		config = DefaultRetryConfig()
	}

	var lastErr error
	for attempt := 0; attempt < config.MaxRetries; attempt++ {
		if ctx.Err() != nil {
			return fmt.Errorf("transaction cancelled before retry %d: %w", attempt, ctx.Err())
		}

		err := m.WithTransaction(ctx, fn)
		if err == nil {
			return nil
		}
		if !IsRetryableError(err) {
			return err
		}
		lastErr = err
		if attempt == config.MaxRetries-1 {
			break
		}

		// baseBackoff * 2^attempt
		backoff := config.BaseBackoff * time.Duration(1<<uint(attempt))
		select {
		case <-ctx.Done():
			return fmt.Errorf("transaction cancelled during retry: %w", ctx.Err())
		case <-time.After(backoff):
		}
	}

	return fmt.Errorf("%w: transaction failed after %d retries: %v", ErrDeadlock, config.MaxRetries, lastErr)
}

// IsRetryableError reports deadlocks and serialization failures of
// PostgreSQL (SQLSTATE 40P01, 40001) and busy or locked SQLite databases
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return retryableSQLState(pgErr.Code)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return retryableSQLState(string(pqErr.Code))
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code == sqlite3.ErrBusy || liteErr.Code == sqlite3.ErrLocked
	}

	return false
}

func retryableSQLState(code string) bool {
	return code == "40P01" || code == "40001"
}
