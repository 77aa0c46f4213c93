// Package storage defines persistence contracts for the log table.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrStoreWrite indicates the underlying store rejected a write.
var ErrStoreWrite = errors.New("store write rejected")

// Log is one append-only row of the log table.
type Log struct {
	ID        int64
	Msg       string
	Timestamp time.Time
}

// LogStore is the only contract allowed to touch the log table.
type LogStore interface {
	// ListLogs returns every row ordered by id descending.
	ListLogs(ctx context.Context) ([]Log, error)
	// GetLog returns the row for id. A missing row is reported with ok=false
	// and a nil error.
	GetLog(ctx context.Context, id int64) (Log, bool, error)
	// InsertLogs stores one or more rows and returns their assigned ids in
	// input order. Either every row is stored or none is.
	InsertLogs(ctx context.Context, logs ...Log) ([]int64, error)
	// DeleteLogs removes every row.
	DeleteLogs(ctx context.Context) error
}
