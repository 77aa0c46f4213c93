// Package sqlite provides a SQLite-backed log storage implementation.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	sqlitemigrate "github.com/louisbranch/logsprovider/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/logsprovider/internal/services/logs/storage"
	"github.com/louisbranch/logsprovider/internal/services/logs/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// Store persists log rows in SQLite.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite log store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// ListLogs returns every log row, newest first.
func (s *Store) ListLogs(ctx context.Context) ([]storage.Log, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(ctx, `SELECT id, msg, timestamp FROM logs ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list logs: %w", err)
	}
	defer rows.Close()

	logs := make([]storage.Log, 0)
	for rows.Next() {
		var entry storage.Log
		var timestamp int64
		if err := rows.Scan(&entry.ID, &entry.Msg, &timestamp); err != nil {
			return nil, fmt.Errorf("list logs: %w", err)
		}
		entry.Timestamp = fromMillis(timestamp)
		logs = append(logs, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list logs: %w", err)
	}
	return logs, nil
}

// GetLog returns one log row by id.
func (s *Store) GetLog(ctx context.Context, id int64) (storage.Log, bool, error) {
	if err := ctx.Err(); err != nil {
		return storage.Log{}, false, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.Log{}, false, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(ctx, `SELECT id, msg, timestamp FROM logs WHERE id = ?`, id)
	if err != nil {
		return storage.Log{}, false, fmt.Errorf("get log: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return storage.Log{}, false, fmt.Errorf("get log: %w", err)
		}
		return storage.Log{}, false, nil
	}
	var entry storage.Log
	var timestamp int64
	if err := rows.Scan(&entry.ID, &entry.Msg, &timestamp); err != nil {
		return storage.Log{}, false, fmt.Errorf("get log: %w", err)
	}
	entry.Timestamp = fromMillis(timestamp)
	return entry, true, nil
}

// InsertLogs stores all rows in one transaction. Rows with a zero ID get a
// fresh identifier; rows with an explicit ID keep it and fail on conflict.
func (s *Store) InsertLogs(ctx context.Context, logs ...storage.Log) ([]int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if len(logs) == 0 {
		return nil, fmt.Errorf("at least one log is required")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin insert logs: %w", err)
	}

	ids := make([]int64, 0, len(logs))
	for _, entry := range logs {
		timestamp := entry.Timestamp
		if timestamp.IsZero() {
			timestamp = time.Now().UTC()
		}

		var result sql.Result
		if entry.ID == 0 {
			result, err = tx.ExecContext(ctx,
				`INSERT INTO logs (msg, timestamp) VALUES (?, ?)`,
				entry.Msg, toMillis(timestamp),
			)
		} else {
			result, err = tx.ExecContext(ctx,
				`INSERT INTO logs (id, msg, timestamp) VALUES (?, ?, ?)`,
				entry.ID, entry.Msg, toMillis(timestamp),
			)
		}
		if err != nil {
			_ = tx.Rollback()
			return nil, fmt.Errorf("insert log: %w: %w", storage.ErrStoreWrite, err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			_ = tx.Rollback()
			return nil, fmt.Errorf("insert log id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit insert logs: %w: %w", storage.ErrStoreWrite, err)
	}
	return ids, nil
}

// DeleteLogs removes every log row in one statement.
func (s *Store) DeleteLogs(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM logs`); err != nil {
		return fmt.Errorf("delete logs: %w: %w", storage.ErrStoreWrite, err)
	}
	return nil
}

var _ storage.LogStore = (*Store)(nil)
