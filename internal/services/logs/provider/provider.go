// Package provider exposes the log table as a read-only, URI-addressed query
// surface.
package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/louisbranch/logsprovider/internal/services/logs/address"
	"github.com/louisbranch/logsprovider/internal/services/logs/storage"
)

var (
	// ErrInvalidAddress rejects a query whose URI matches no known pattern.
	ErrInvalidAddress = errors.New("invalid address")
	// ErrOperationNotSupported rejects every write-shaped request.
	ErrOperationNotSupported = errors.New("only reading operations are allowed")
)

// Operation names used for rejected requests and metrics.
const (
	OperationInsert  = "insert"
	OperationUpdate  = "update"
	OperationDelete  = "delete"
	OperationGetType = "get_type"
)

// Query outcomes reported to MetricsHook.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Watcher receives the URI of every produced result set.
type Watcher interface {
	Register(uri string)
}

// MetricsHook observes query and rejection counts.
type MetricsHook interface {
	ObserveQuery(kind, outcome string)
	ObserveRejected(operation string)
}

type noopWatcher struct{}

func (noopWatcher) Register(string) {}

type noopMetrics struct{}

func (noopMetrics) ObserveQuery(string, string) {}
func (noopMetrics) ObserveRejected(string)      {}

// QueryOptions carries caller hints. They are accepted for interface
// compatibility and ignored; rows are always ordered by id descending.
type QueryOptions struct {
	Projection    []string
	Selection     string
	SelectionArgs []string
	SortOrder     string
}

// ResultSet is the rows answering one query, tagged with the URI they came
// from so callers can watch it for changes.
type ResultSet struct {
	URI  string
	Kind address.Kind
	Rows []storage.Log
}

// Len returns the row count.
func (r *ResultSet) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Rows)
}

// Options configures a Provider.
type Options struct {
	// Router classifies URIs. Defaults to address.NewRouter("", "").
	Router *address.Router
	// Watcher is told about every produced result set. Optional.
	Watcher Watcher
	// Metrics observes query outcomes. Optional.
	Metrics MetricsHook
}

// Provider answers read queries against a LogStore.
type Provider struct {
	store   storage.LogStore
	router  *address.Router
	watcher Watcher
	metrics MetricsHook
}

// New creates a provider over store.
func New(store storage.LogStore, opts Options) (*Provider, error) {
	if store == nil {
		return nil, fmt.Errorf("log store is required")
	}
	router := opts.Router
	if router == nil {
		router = address.NewRouter("", "")
	}
	watcher := opts.Watcher
	if watcher == nil {
		watcher = noopWatcher{}
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &Provider{store: store, router: router, watcher: watcher, metrics: metrics}, nil
}

// Router returns the router used to classify URIs.
func (p *Provider) Router() *address.Router {
	return p.router
}

// Query lists every row for a collection URI or the zero-or-one matching row
// for an item URI. Unrecognized URIs fail with ErrInvalidAddress before the
// store is touched.
func (p *Provider) Query(ctx context.Context, uri string, _ QueryOptions) (*ResultSet, error) {
	addr, err := p.router.Classify(uri)
	if err != nil {
		p.metrics.ObserveQuery("unrecognized", OutcomeError)
		return nil, fmt.Errorf("%w: %w", ErrInvalidAddress, err)
	}

	result := &ResultSet{URI: uri, Kind: addr.Kind}
	switch addr.Kind {
	case address.KindCollection:
		rows, err := p.store.ListLogs(ctx)
		if err != nil {
			p.metrics.ObserveQuery(addr.Kind.String(), OutcomeError)
			return nil, fmt.Errorf("list logs: %w", err)
		}
		result.Rows = rows
	case address.KindItem:
		row, ok, err := p.store.GetLog(ctx, addr.ID)
		if err != nil {
			p.metrics.ObserveQuery(addr.Kind.String(), OutcomeError)
			return nil, fmt.Errorf("get log %d: %w", addr.ID, err)
		}
		result.Rows = []storage.Log{}
		if ok {
			result.Rows = append(result.Rows, row)
		}
	}

	p.watcher.Register(uri)
	p.metrics.ObserveQuery(addr.Kind.String(), OutcomeOK)
	return result, nil
}

// Insert is rejected.
func (p *Provider) Insert(_ context.Context, uri string, _ map[string]any) (string, error) {
	return "", p.reject(OperationInsert, uri)
}

// Update is rejected.
func (p *Provider) Update(_ context.Context, uri string, _ map[string]any, _ string, _ []string) (int, error) {
	return 0, p.reject(OperationUpdate, uri)
}

// Delete is rejected.
func (p *Provider) Delete(_ context.Context, uri string, _ string, _ []string) (int, error) {
	return 0, p.reject(OperationDelete, uri)
}

// GetType is rejected.
func (p *Provider) GetType(_ context.Context, uri string) (string, error) {
	return "", p.reject(OperationGetType, uri)
}

func (p *Provider) reject(operation, uri string) error {
	p.metrics.ObserveRejected(operation)
	return fmt.Errorf("%s %q: %w", operation, uri, ErrOperationNotSupported)
}
