package provider

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/louisbranch/logsprovider/internal/services/logs/address"
	"github.com/louisbranch/logsprovider/internal/services/logs/notify"
	"github.com/louisbranch/logsprovider/internal/services/logs/storage"
	"github.com/louisbranch/logsprovider/internal/services/logs/storage/memory"
)

type recordingStore struct {
	storage.LogStore
	calls []string
}

func (s *recordingStore) ListLogs(ctx context.Context) ([]storage.Log, error) {
	s.calls = append(s.calls, "list")
	return s.LogStore.ListLogs(ctx)
}

func (s *recordingStore) GetLog(ctx context.Context, id int64) (storage.Log, bool, error) {
	s.calls = append(s.calls, "get")
	return s.LogStore.GetLog(ctx, id)
}

func (s *recordingStore) InsertLogs(ctx context.Context, logs ...storage.Log) ([]int64, error) {
	s.calls = append(s.calls, "insert")
	return s.LogStore.InsertLogs(ctx, logs...)
}

func (s *recordingStore) DeleteLogs(ctx context.Context) error {
	s.calls = append(s.calls, "delete")
	return s.LogStore.DeleteLogs(ctx)
}

type recordingWatcher struct {
	uris []string
}

func (w *recordingWatcher) Register(uri string) {
	w.uris = append(w.uris, uri)
}

type recordingMetrics struct {
	queries  []string
	rejected []string
}

func (m *recordingMetrics) ObserveQuery(kind, outcome string) {
	m.queries = append(m.queries, kind+":"+outcome)
}

func (m *recordingMetrics) ObserveRejected(operation string) {
	m.rejected = append(m.rejected, operation)
}

func TestNewRequiresStore(t *testing.T) {
	t.Parallel()

	if _, err := New(nil, Options{}); err == nil {
		t.Fatal("expected nil store error")
	}
}

func TestQueryCollectionListsNewestFirst(t *testing.T) {
	t.Parallel()

	store, watcher, p := newTestProvider(t)
	seed(t, store, "one", "two", "three")
	store.calls = nil

	uri := p.Router().CollectionURI()
	result, err := p.Query(context.Background(), uri, QueryOptions{SortOrder: "id ASC"})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if result.URI != uri {
		t.Fatalf("result uri = %q, want %q", result.URI, uri)
	}
	if result.Kind != address.KindCollection {
		t.Fatalf("kind = %v, want collection", result.Kind)
	}
	var ids []int64
	for _, row := range result.Rows {
		ids = append(ids, row.ID)
	}
	if !reflect.DeepEqual(ids, []int64{3, 2, 1}) {
		t.Fatalf("ids = %v, want [3 2 1]", ids)
	}
	if !reflect.DeepEqual(store.calls, []string{"list"}) {
		t.Fatalf("store calls = %v, want [list]", store.calls)
	}
	if !reflect.DeepEqual(watcher.uris, []string{uri}) {
		t.Fatalf("watched = %v, want [%s]", watcher.uris, uri)
	}
}

func TestQueryItemReturnsSingleRow(t *testing.T) {
	t.Parallel()

	store, watcher, p := newTestProvider(t)
	seed(t, store, "one", "two")
	store.calls = nil

	uri := p.Router().ItemURI(2)
	result, err := p.Query(context.Background(), uri, QueryOptions{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if result.Len() != 1 || result.Rows[0].ID != 2 || result.Rows[0].Msg != "two" {
		t.Fatalf("rows = %+v, want [2 two]", result.Rows)
	}
	if !reflect.DeepEqual(store.calls, []string{"get"}) {
		t.Fatalf("store calls = %v, want [get]", store.calls)
	}
	if len(watcher.uris) != 1 || watcher.uris[0] != uri {
		t.Fatalf("watched = %v, want [%s]", watcher.uris, uri)
	}
}

func TestQueryMissingItemIsEmptyResult(t *testing.T) {
	t.Parallel()

	_, _, p := newTestProvider(t)
	result, err := p.Query(context.Background(), p.Router().ItemURI(99), QueryOptions{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if result == nil || result.Len() != 0 {
		t.Fatalf("result = %+v, want zero rows", result)
	}
}

func TestQueryItemIsRepeatable(t *testing.T) {
	t.Parallel()

	store, _, p := newTestProvider(t)
	seed(t, store, "stable")
	uri := p.Router().ItemURI(1)

	first, err := p.Query(context.Background(), uri, QueryOptions{})
	if err != nil {
		t.Fatalf("first query: %v", err)
	}
	second, err := p.Query(context.Background(), uri, QueryOptions{})
	if err != nil {
		t.Fatalf("second query: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("second = %+v, want %+v", second, first)
	}
}

func TestQueryInvalidAddressSkipsStore(t *testing.T) {
	t.Parallel()

	store, watcher, p := newTestProvider(t)
	for _, uri := range []string{
		"content://com.example.android.hilt.provider/users",
		"content://com.example.android.hilt.provider/logs/abc",
		"content://elsewhere/logs",
	} {
		_, err := p.Query(context.Background(), uri, QueryOptions{})
		if !errors.Is(err, ErrInvalidAddress) {
			t.Fatalf("query %q error = %v, want %v", uri, err, ErrInvalidAddress)
		}
		if !errors.Is(err, address.ErrUnrecognizedAddress) {
			t.Fatalf("query %q error = %v, want wrapped %v", uri, err, address.ErrUnrecognizedAddress)
		}
	}
	if len(store.calls) != 0 {
		t.Fatalf("store calls = %v, want none", store.calls)
	}
	if len(watcher.uris) != 0 {
		t.Fatalf("watched = %v, want none", watcher.uris)
	}
}

func TestQueryAfterDeleteIsEmpty(t *testing.T) {
	t.Parallel()

	store, _, p := newTestProvider(t)
	seed(t, store, "a", "b")
	if err := store.DeleteLogs(context.Background()); err != nil {
		t.Fatalf("delete logs: %v", err)
	}
	result, err := p.Query(context.Background(), p.Router().CollectionURI(), QueryOptions{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if result.Len() != 0 {
		t.Fatalf("rows = %+v, want none", result.Rows)
	}
}

func TestWriteShapedRequestsAreRejected(t *testing.T) {
	t.Parallel()

	store, _, p := newTestProvider(t)
	seed(t, store, "keep")
	store.calls = nil
	uri := p.Router().CollectionURI()
	ctx := context.Background()

	_, insertErr := p.Insert(ctx, uri, map[string]any{"msg": "x"})
	_, updateErr := p.Update(ctx, p.Router().ItemURI(1), map[string]any{"msg": "x"}, "", nil)
	_, deleteErr := p.Delete(ctx, uri, "", nil)
	_, typeErr := p.GetType(ctx, uri)

	for name, err := range map[string]error{
		"insert":   insertErr,
		"update":   updateErr,
		"delete":   deleteErr,
		"get_type": typeErr,
	} {
		if !errors.Is(err, ErrOperationNotSupported) {
			t.Fatalf("%s error = %v, want %v", name, err, ErrOperationNotSupported)
		}
	}
	if len(store.calls) != 0 {
		t.Fatalf("store calls = %v, want none", store.calls)
	}
	logs, err := store.ListLogs(ctx)
	if err != nil {
		t.Fatalf("list logs: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("row count = %d, want 1", len(logs))
	}
}

func TestMetricsObserveOutcomes(t *testing.T) {
	t.Parallel()

	metrics := &recordingMetrics{}
	p, err := New(memory.NewStore(), Options{Metrics: metrics})
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	_, _ = p.Query(context.Background(), p.Router().CollectionURI(), QueryOptions{})
	_, _ = p.Query(context.Background(), "nope", QueryOptions{})
	_, _ = p.GetType(context.Background(), p.Router().CollectionURI())

	if want := []string{"collection:ok", "unrecognized:error"}; !reflect.DeepEqual(metrics.queries, want) {
		t.Fatalf("queries = %v, want %v", metrics.queries, want)
	}
	if want := []string{OperationGetType}; !reflect.DeepEqual(metrics.rejected, want) {
		t.Fatalf("rejected = %v, want %v", metrics.rejected, want)
	}
}

func TestQueriesWithoutSubscribersLeaveHubEmpty(t *testing.T) {
	t.Parallel()

	hub := notify.NewHub()
	t.Cleanup(hub.Close)
	p, err := New(memory.NewStore(), Options{Watcher: hub})
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}

	ctx := context.Background()
	for i := 0; i < 5000; i++ {
		if _, err := p.Query(ctx, p.Router().ItemURI(int64(i)), QueryOptions{}); err != nil {
			t.Fatalf("query item %d: %v", i, err)
		}
		if _, err := p.Query(ctx, fmt.Sprintf("%s?n=%d", p.Router().CollectionURI(), i), QueryOptions{}); err != nil {
			t.Fatalf("query collection %d: %v", i, err)
		}
	}
	if got := hub.Watched(); len(got) != 0 {
		t.Fatalf("hub retained %d uris after reads with no subscribers", len(got))
	}
}

func newTestProvider(t *testing.T) (*recordingStore, *recordingWatcher, *Provider) {
	t.Helper()

	store := &recordingStore{LogStore: memory.NewStore()}
	watcher := &recordingWatcher{}
	p, err := New(store, Options{Watcher: watcher})
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	return store, watcher, p
}

func seed(t *testing.T, store storage.LogStore, msgs ...string) {
	t.Helper()

	logs := make([]storage.Log, 0, len(msgs))
	for _, msg := range msgs {
		logs = append(logs, storage.Log{Msg: msg})
	}
	if _, err := store.InsertLogs(context.Background(), logs...); err != nil {
		t.Fatalf("seed logs: %v", err)
	}
}
