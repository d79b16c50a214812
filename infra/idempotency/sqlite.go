package idempotency

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mstgnz/paynow/infra/logger"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore persists idempotency keys so that they survive restarts and are shared
// between processes on the same host
type SQLiteStore struct {
	db   *sql.DB
	path string
	ttl  time.Duration
	mu   sync.Mutex
}

// NewSQLiteStore opens (or creates) the database at dbPath
func NewSQLiteStore(dbPath string, ttl time.Duration) (*SQLiteStore, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	connStr := fmt.Sprintf("file:%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=20000&_txlock=immediate", dbPath)
	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one writer; :memory: databases are per connection
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db, path: dbPath, ttl: ttl}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("idempotency store opened", logger.LogContext{Fields: map[string]any{"path": dbPath}})
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS idempotency_keys (
		scope TEXT PRIMARY KEY,
		idempotency_key TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_idempotency_created_at ON idempotency_keys(created_at);
	`)
	return err
}

// retryOperation executes a database operation with retry logic for SQLITE_BUSY errors
func (s *SQLiteStore) retryOperation(ctx context.Context, operation func() error, maxRetries int) error {
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		err := operation()
		if err == nil {
			return nil
		}
		if !strings.Contains(err.Error(), "SQLITE_BUSY") && !strings.Contains(err.Error(), "database is locked") {
			return err
		}

		lastErr = err
		if attempt < maxRetries {
			// 10ms, 20ms, 40ms, ...
			backoff := time.Duration(10*(1<<attempt)) * time.Millisecond
			logger.Debug("sqlite busy, retrying", logger.LogContext{Fields: map[string]any{"attempt": attempt + 1, "backoff": backoff.String()}})
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}
	}

	return fmt.Errorf("operation failed after %d retries, last error: %w", maxRetries+1, lastErr)
}

func (s *SQLiteStore) Key(ctx context.Context, scope string) (string, bool, error) {
	if scope == "" {
		return "", false, ErrEmptyScope
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		key     string
		created bool
	)
	err := s.retryOperation(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		now := time.Now()
		cutoff := now.Add(-s.ttl).UnixNano()
		if _, err := tx.ExecContext(ctx, `DELETE FROM idempotency_keys WHERE scope = ? AND created_at <= ?`, scope, cutoff); err != nil {
			return err
		}

		err = tx.QueryRowContext(ctx, `SELECT idempotency_key FROM idempotency_keys WHERE scope = ?`, scope).Scan(&key)
		switch {
		case err == nil:
			created = false
		case err == sql.ErrNoRows:
			key = uuid.NewString()
			created = true
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO idempotency_keys (scope, idempotency_key, created_at) VALUES (?, ?, ?)`,
				scope, key, now.UnixNano()); err != nil {
				return err
			}
		default:
			return err
		}
		return tx.Commit()
	}, 3)
	if err != nil {
		return "", false, fmt.Errorf("idempotency: failed to resolve key for %s: %w", scope, err)
	}
	return key, created, nil
}

func (s *SQLiteStore) Forget(ctx context.Context, scope string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.retryOperation(ctx, func() error {
		_, err := s.db.ExecContext(ctx, `DELETE FROM idempotency_keys WHERE scope = ?`, scope)
		return err
	}, 3)
}

// Purge deletes every expired binding and reports how many were removed
func (s *SQLiteStore) Purge(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	err := s.retryOperation(ctx, func() error {
		res, err := s.db.ExecContext(ctx, `DELETE FROM idempotency_keys WHERE created_at <= ?`, time.Now().Add(-s.ttl).UnixNano())
		if err != nil {
			return err
		}
		removed, err = res.RowsAffected()
		return err
	}, 3)
	return removed, err
}

// Ping reports whether the database is reachable
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
