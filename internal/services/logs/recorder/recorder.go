// Package recorder is the in-process write path for the log table. Every
// mutation publishes a change for the collection URI so watchers re-query.
package recorder

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/louisbranch/logsprovider/internal/services/logs/address"
	"github.com/louisbranch/logsprovider/internal/services/logs/storage"
)

// Publisher announces that a URI changed.
type Publisher interface {
	Publish(ctx context.Context, uri string) error
}

// Recorder appends and clears log rows.
type Recorder struct {
	store     storage.LogStore
	router    *address.Router
	publisher Publisher
	clock     func() time.Time
}

// New creates a recorder. publisher may be nil.
func New(store storage.LogStore, router *address.Router, publisher Publisher) (*Recorder, error) {
	if store == nil {
		return nil, fmt.Errorf("log store is required")
	}
	if router == nil {
		router = address.NewRouter("", "")
	}
	return &Recorder{store: store, router: router, publisher: publisher, clock: time.Now}, nil
}

// AddLog stores msg stamped with the current time and returns its id.
func (r *Recorder) AddLog(ctx context.Context, msg string) (int64, error) {
	ids, err := r.AddLogs(ctx, msg)
	if err != nil {
		return 0, err
	}
	return ids[0], nil
}

// AddLogs stores every message in one insert.
func (r *Recorder) AddLogs(ctx context.Context, msgs ...string) ([]int64, error) {
	if len(msgs) == 0 {
		return nil, fmt.Errorf("at least one message is required")
	}
	now := r.clock().UTC()
	logs := make([]storage.Log, 0, len(msgs))
	for _, msg := range msgs {
		msg = strings.TrimSpace(msg)
		if msg == "" {
			return nil, fmt.Errorf("log message is required")
		}
		logs = append(logs, storage.Log{Msg: msg, Timestamp: now})
	}
	ids, err := r.store.InsertLogs(ctx, logs...)
	if err != nil {
		return nil, err
	}
	r.publishChange(ctx)
	return ids, nil
}

// AllLogs returns every row, newest first.
func (r *Recorder) AllLogs(ctx context.Context) ([]storage.Log, error) {
	return r.store.ListLogs(ctx)
}

// RemoveLogs deletes every row.
func (r *Recorder) RemoveLogs(ctx context.Context) error {
	if err := r.store.DeleteLogs(ctx); err != nil {
		return err
	}
	r.publishChange(ctx)
	return nil
}

func (r *Recorder) publishChange(ctx context.Context) {
	if r.publisher == nil {
		return
	}
	uri := r.router.CollectionURI()
	if err := r.publisher.Publish(ctx, uri); err != nil {
		log.Printf("publish log change failed: uri=%s err=%v", uri, err)
	}
}
