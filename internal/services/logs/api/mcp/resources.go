// Package mcp exposes the log table as MCP resources with change
// subscriptions.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/louisbranch/logsprovider/internal/services/logs/address"
	"github.com/louisbranch/logsprovider/internal/services/logs/provider"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	serverName    = "logsprovider"
	serverVersion = "1.0.0"
	mimeJSON      = "application/json"
)

// LogEntry is one row in a resource payload.
type LogEntry struct {
	ID        int64  `json:"id"`
	Msg       string `json:"msg"`
	Timestamp string `json:"timestamp"`
}

// ResultPayload is the JSON body of a logs resource.
type ResultPayload struct {
	URI  string     `json:"uri"`
	Kind string     `json:"kind"`
	Logs []LogEntry `json:"logs"`
}

// Server wraps an MCP server whose resources are backed by a provider.
type Server struct {
	mcpServer *mcp.Server
	provider  *provider.Provider

	mu sync.Mutex
	// subscribed maps a session to the URIs it subscribed to. Sessions
	// that disconnect without unsubscribing are pruned against the live
	// session list.
	subscribed map[*mcp.ServerSession]map[string]struct{}
}

// New registers the logs resource and item template on a fresh MCP server.
func New(p *provider.Provider) (*Server, error) {
	if p == nil {
		return nil, fmt.Errorf("provider is required")
	}
	s := &Server{provider: p, subscribed: make(map[*mcp.ServerSession]map[string]struct{})}
	s.mcpServer = mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, &mcp.ServerOptions{
		SubscribeHandler:   s.subscribe,
		UnsubscribeHandler: s.unsubscribe,
	})

	router := p.Router()
	s.mcpServer.AddResource(&mcp.Resource{
		Name:        "logs",
		Title:       "Logs",
		Description: "Every log row, newest first.",
		MIMEType:    mimeJSON,
		URI:         router.CollectionURI(),
	}, s.readResource)
	s.mcpServer.AddResourceTemplate(&mcp.ResourceTemplate{
		Name:        "log",
		Title:       "Log",
		Description: "A single log row by id. URI format: " + router.CollectionURI() + "/{id}",
		MIMEType:    mimeJSON,
		URITemplate: router.CollectionURI() + "/{id}",
	}, s.readResource)
	return s, nil
}

// MCPServer returns the underlying server for transports.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcpServer
}

// Subscribed returns the URIs with at least one live subscription, sorted.
func (s *Server) Subscribed() []string {
	live := s.liveSessions()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked(live)
	set := map[string]struct{}{}
	for _, uris := range s.subscribed {
		for uri := range uris {
			set[uri] = struct{}{}
		}
	}
	uris := make([]string, 0, len(set))
	for uri := range set {
		uris = append(uris, uri)
	}
	sort.Strings(uris)
	return uris
}

func (s *Server) liveSessions() map[*mcp.ServerSession]struct{} {
	live := map[*mcp.ServerSession]struct{}{}
	for session := range s.mcpServer.Sessions() {
		live[session] = struct{}{}
	}
	return live
}

// pruneLocked drops subscriptions of sessions that are gone. A nil
// session stands for in-process callers and is never pruned.
func (s *Server) pruneLocked(live map[*mcp.ServerSession]struct{}) {
	for session := range s.subscribed {
		if session == nil {
			continue
		}
		if _, ok := live[session]; !ok {
			delete(s.subscribed, session)
		}
	}
}

func (s *Server) readResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	if req == nil || req.Params == nil || strings.TrimSpace(req.Params.URI) == "" {
		return nil, fmt.Errorf("resource uri is required")
	}
	uri := req.Params.URI

	result, err := s.provider.Query(ctx, uri, provider.QueryOptions{})
	if err != nil {
		if errors.Is(err, provider.ErrInvalidAddress) {
			return nil, mcp.ResourceNotFoundError(uri)
		}
		return nil, fmt.Errorf("query %s: %w", uri, err)
	}

	payload := ResultPayload{URI: result.URI, Kind: result.Kind.String(), Logs: make([]LogEntry, 0, result.Len())}
	for _, row := range result.Rows {
		payload.Logs = append(payload.Logs, LogEntry{
			ID:        row.ID,
			Msg:       row.Msg,
			Timestamp: row.Timestamp.UTC().Format(time.RFC3339Nano),
		})
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal logs: %w", err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{
				URI:      uri,
				MIMEType: mimeJSON,
				Text:     string(data),
			},
		},
	}, nil
}

func (s *Server) subscribe(_ context.Context, req *mcp.SubscribeRequest) error {
	if req == nil || req.Params == nil || strings.TrimSpace(req.Params.URI) == "" {
		return fmt.Errorf("resource uri is required")
	}
	uri := req.Params.URI
	if _, err := s.provider.Router().Classify(uri); err != nil {
		return mcp.ResourceNotFoundError(uri)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	uris, ok := s.subscribed[req.Session]
	if !ok {
		uris = map[string]struct{}{}
		s.subscribed[req.Session] = uris
	}
	uris[uri] = struct{}{}
	return nil
}

func (s *Server) unsubscribe(_ context.Context, req *mcp.UnsubscribeRequest) error {
	if req == nil || req.Params == nil || strings.TrimSpace(req.Params.URI) == "" {
		return fmt.Errorf("resource uri is required")
	}
	uri := req.Params.URI
	s.mu.Lock()
	defer s.mu.Unlock()
	uris := s.subscribed[req.Session]
	delete(uris, uri)
	if len(uris) == 0 {
		delete(s.subscribed, req.Session)
	}
	return nil
}

// NotifyChange sends resources/updated for every subscribed URI related to
// uri. It satisfies notify.Sink.
func (s *Server) NotifyChange(ctx context.Context, uri string) error {
	if strings.TrimSpace(uri) == "" {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	var errs []error
	for _, subscribed := range s.Subscribed() {
		if !address.IsDescendant(uri, subscribed) && !address.IsDescendant(subscribed, uri) {
			continue
		}
		if err := s.mcpServer.ResourceUpdated(ctx, &mcp.ResourceUpdatedNotificationParams{URI: subscribed}); err != nil {
			log.Printf("mcp resource updated notify failed: uri=%s err=%v", subscribed, err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
