package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/louisbranch/logsprovider/internal/services/logs/storage"
)

func TestOpenRequiresPath(t *testing.T) {
	t.Parallel()

	if _, err := Open(""); err == nil {
		t.Fatal("expected empty path error")
	}
}

func TestListLogsOrdersNewestFirst(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	now := time.Date(2026, time.October, 17, 9, 0, 0, 0, time.UTC)
	ids, err := store.InsertLogs(context.Background(),
		storage.Log{Msg: "first", Timestamp: now},
		storage.Log{Msg: "second", Timestamp: now.Add(time.Second)},
		storage.Log{Msg: "third", Timestamp: now.Add(2 * time.Second)},
	)
	if err != nil {
		t.Fatalf("insert logs: %v", err)
	}
	if len(ids) != 3 || ids[0] != 1 || ids[1] != 2 || ids[2] != 3 {
		t.Fatalf("ids = %v, want [1 2 3]", ids)
	}

	logs, err := store.ListLogs(context.Background())
	if err != nil {
		t.Fatalf("list logs: %v", err)
	}
	if len(logs) != 3 {
		t.Fatalf("logs len = %d, want 3", len(logs))
	}
	for i, want := range []int64{3, 2, 1} {
		if logs[i].ID != want {
			t.Fatalf("logs[%d].ID = %d, want %d", i, logs[i].ID, want)
		}
	}
	if logs[0].Msg != "third" {
		t.Fatalf("logs[0].Msg = %q, want third", logs[0].Msg)
	}
	if !logs[2].Timestamp.Equal(now) {
		t.Fatalf("logs[2].Timestamp = %v, want %v", logs[2].Timestamp, now)
	}
}

func TestListLogsEmpty(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	logs, err := store.ListLogs(context.Background())
	if err != nil {
		t.Fatalf("list logs: %v", err)
	}
	if logs == nil || len(logs) != 0 {
		t.Fatalf("logs = %v, want empty non-nil slice", logs)
	}
}

func TestGetLogMissingIsNotAnError(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	got, ok, err := store.GetLog(context.Background(), 42)
	if err != nil {
		t.Fatalf("get log: %v", err)
	}
	if ok {
		t.Fatalf("get log ok = true, want false (got %+v)", got)
	}
}

func TestGetLogIsRepeatable(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	if _, err := store.InsertLogs(context.Background(), storage.Log{Msg: "hello"}); err != nil {
		t.Fatalf("insert logs: %v", err)
	}

	first, ok, err := store.GetLog(context.Background(), 1)
	if err != nil || !ok {
		t.Fatalf("first get = (%v, %v), want found", ok, err)
	}
	second, ok, err := store.GetLog(context.Background(), 1)
	if err != nil || !ok {
		t.Fatalf("second get = (%v, %v), want found", ok, err)
	}
	if first != second {
		t.Fatalf("second get = %+v, want %+v", second, first)
	}
}

func TestInsertLogsRequiresRecords(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	if _, err := store.InsertLogs(context.Background()); err == nil {
		t.Fatal("expected error for empty insert")
	}
}

func TestInsertLogsConflictIsStoreWriteErrorAndRollsBack(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	if _, err := store.InsertLogs(context.Background(), storage.Log{ID: 7, Msg: "seed"}); err != nil {
		t.Fatalf("insert seed: %v", err)
	}

	_, err := store.InsertLogs(context.Background(),
		storage.Log{Msg: "fresh"},
		storage.Log{ID: 7, Msg: "duplicate"},
	)
	if !errors.Is(err, storage.ErrStoreWrite) {
		t.Fatalf("insert error = %v, want %v", err, storage.ErrStoreWrite)
	}

	logs, err := store.ListLogs(context.Background())
	if err != nil {
		t.Fatalf("list logs: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("logs len = %d, want 1 after rollback", len(logs))
	}
}

func TestDeleteLogsEmptiesTable(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	if _, err := store.InsertLogs(context.Background(), storage.Log{Msg: "a"}, storage.Log{Msg: "b"}); err != nil {
		t.Fatalf("insert logs: %v", err)
	}
	if err := store.DeleteLogs(context.Background()); err != nil {
		t.Fatalf("delete logs: %v", err)
	}
	logs, err := store.ListLogs(context.Background())
	if err != nil {
		t.Fatalf("list logs: %v", err)
	}
	if len(logs) != 0 {
		t.Fatalf("logs len = %d, want 0", len(logs))
	}
}

func TestCanceledContextIsRejected(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := store.ListLogs(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("list error = %v, want %v", err, context.Canceled)
	}
}

func TestReopenKeepsRows(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "logs.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if _, err := store.InsertLogs(context.Background(), storage.Log{Msg: "durable"}); err != nil {
		t.Fatalf("insert logs: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	t.Cleanup(func() { _ = reopened.Close() })
	got, ok, err := reopened.GetLog(context.Background(), 1)
	if err != nil || !ok {
		t.Fatalf("get log after reopen = (%v, %v), want found", ok, err)
	}
	if got.Msg != "durable" {
		t.Fatalf("msg = %q, want durable", got.Msg)
	}
}

func openTempStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(filepath.Join(t.TempDir(), "logs.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	return store
}
