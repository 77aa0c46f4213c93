// Package notify fans out "this URI changed" events to in-process watchers
// and external sinks.
package notify

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/louisbranch/logsprovider/internal/services/logs/address"
)

// Sink receives every published change after local delivery.
type Sink interface {
	NotifyChange(ctx context.Context, uri string) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, uri string) error

// NotifyChange calls f.
func (f SinkFunc) NotifyChange(ctx context.Context, uri string) error {
	return f(ctx, uri)
}

// MetricsHook observes delivered notifications.
type MetricsHook interface {
	ObserveNotification()
}

type noopMetrics struct{}

func (noopMetrics) ObserveNotification() {}

// Subscription is one watcher of a URI. C yields the changed URI; a pending
// value means "re-query", so bursts coalesce into one signal.
type Subscription struct {
	ID  string
	URI string
	C   <-chan string

	ch chan string
}

// Hub tracks live subscriptions and delivers change events. It holds no
// state for URIs nobody is subscribed to.
type Hub struct {
	mu      sync.RWMutex
	subs    map[string]*Subscription
	watched map[string]int // live subscriptions per URI
	sinks   []Sink
	metrics MetricsHook
	closed  bool
}

// NewHub creates a hub forwarding to sinks.
func NewHub(sinks ...Sink) *Hub {
	return &Hub{
		subs:    make(map[string]*Subscription),
		watched: make(map[string]int),
		sinks:   sinks,
		metrics: noopMetrics{},
	}
}

// SetMetrics installs a metrics hook. A nil hook disables observation.
func (h *Hub) SetMetrics(metrics MetricsHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if metrics == nil {
		metrics = noopMetrics{}
	}
	h.metrics = metrics
}

// AddSink appends a sink to the fan-out list.
func (h *Hub) AddSink(sink Sink) {
	if sink == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sinks = append(h.sinks, sink)
}

// Register is told the URI of every produced result set. That URI is the
// tag callers pass to Subscribe, so nothing is retained here; reads of
// unwatched URIs leave the hub unchanged.
func (h *Hub) Register(string) {}

// Watched returns the URIs with at least one live subscription, sorted.
func (h *Hub) Watched() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	uris := make([]string, 0, len(h.watched))
	for uri := range h.watched {
		uris = append(uris, uri)
	}
	sort.Strings(uris)
	return uris
}

// Subscribe starts watching uri. Callers must Unsubscribe when done.
func (h *Hub) Subscribe(uri string) (*Subscription, error) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return nil, fmt.Errorf("subscription uri is required")
	}
	ch := make(chan string, 1)
	sub := &Subscription{ID: uuid.NewString(), URI: uri, C: ch, ch: ch}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, fmt.Errorf("hub is closed")
	}
	h.subs[sub.ID] = sub
	h.watched[uri]++
	return sub, nil
}

// Unsubscribe stops delivery to the subscription and closes its channel.
func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	sub, ok := h.subs[id]
	if !ok {
		return
	}
	delete(h.subs, id)
	if h.watched[sub.URI]--; h.watched[sub.URI] <= 0 {
		delete(h.watched, sub.URI)
	}
	close(sub.ch)
}

// Publish signals that uri changed. Subscribers are woken through Deliver,
// then every sink is called. Sink failures are joined into the returned
// error; local delivery never fails.
func (h *Hub) Publish(ctx context.Context, uri string) error {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return fmt.Errorf("change uri is required")
	}
	h.Deliver(uri)

	h.mu.RLock()
	sinks := append([]Sink(nil), h.sinks...)
	h.mu.RUnlock()

	var errs []error
	for _, sink := range sinks {
		if err := sink.NotifyChange(ctx, uri); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Deliver wakes subscribers watching uri, an ancestor of uri or a
// descendant of uri without calling sinks. Changes arriving from a remote
// broker use it so they are not forwarded back out.
func (h *Hub) Deliver(uri string) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, sub := range h.subs {
		if !related(uri, sub.URI) {
			continue
		}
		select {
		case sub.ch <- uri:
			h.metrics.ObserveNotification()
		default:
		}
	}
}

// Close unsubscribes every watcher.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, sub := range h.subs {
		delete(h.subs, id)
		close(sub.ch)
	}
	clear(h.watched)
	h.closed = true
}

func related(changed, watched string) bool {
	if changed == watched {
		return true
	}
	return address.IsDescendant(changed, watched) || address.IsDescendant(watched, changed)
}
