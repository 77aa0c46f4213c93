// Package memory provides an in-process log store for tests and ephemeral
// deployments.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/louisbranch/logsprovider/internal/services/logs/storage"
)

// Store keeps log rows in memory. The zero value is ready to use.
type Store struct {
	mu     sync.RWMutex
	logs   []storage.Log
	nextID int64
}

// NewStore returns an empty in-memory store.
func NewStore() *Store {
	return &Store{}
}

// ListLogs returns every row, newest first.
func (s *Store) ListLogs(ctx context.Context) ([]storage.Log, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	logs := slices.Clone(s.logs)
	if logs == nil {
		logs = []storage.Log{}
	}
	slices.SortFunc(logs, func(a, b storage.Log) int {
		switch {
		case a.ID > b.ID:
			return -1
		case a.ID < b.ID:
			return 1
		default:
			return 0
		}
	})
	return logs, nil
}

// GetLog returns the row for id, if present.
func (s *Store) GetLog(ctx context.Context, id int64) (storage.Log, bool, error) {
	if err := ctx.Err(); err != nil {
		return storage.Log{}, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, entry := range s.logs {
		if entry.ID == id {
			return entry, true, nil
		}
	}
	return storage.Log{}, false, nil
}

// InsertLogs stores all rows or none of them.
func (s *Store) InsertLogs(ctx context.Context, logs ...storage.Log) ([]int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(logs) == 0 {
		return nil, fmt.Errorf("at least one log is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	taken := make(map[int64]struct{}, len(s.logs)+len(logs))
	for _, entry := range s.logs {
		taken[entry.ID] = struct{}{}
	}

	nextID := s.nextID
	staged := make([]storage.Log, 0, len(logs))
	ids := make([]int64, 0, len(logs))
	for _, entry := range logs {
		if entry.ID == 0 {
			nextID++
			for {
				if _, ok := taken[nextID]; !ok {
					break
				}
				nextID++
			}
			entry.ID = nextID
		} else if _, ok := taken[entry.ID]; ok {
			return nil, fmt.Errorf("insert log %d: %w: id already exists", entry.ID, storage.ErrStoreWrite)
		}
		if entry.ID > nextID {
			nextID = entry.ID
		}
		if entry.Timestamp.IsZero() {
			entry.Timestamp = time.Now().UTC()
		}
		taken[entry.ID] = struct{}{}
		staged = append(staged, entry)
		ids = append(ids, entry.ID)
	}

	s.logs = append(s.logs, staged...)
	s.nextID = nextID
	return ids, nil
}

// DeleteLogs removes every row. Identifiers are not reused afterwards.
func (s *Store) DeleteLogs(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = nil
	return nil
}

var _ storage.LogStore = (*Store)(nil)
