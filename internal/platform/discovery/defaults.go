// Package discovery holds the default addresses of the logs provider.
package discovery

import (
	"strconv"
	"strings"
)

const (
	// ServiceLogs is the logs provider identity.
	ServiceLogs = "logs"
)

const defaultHost = "localhost"

var grpcPorts = map[string]int{
	ServiceLogs: 8095,
}

var httpPorts = map[string]int{
	ServiceLogs: 8096,
}

// DefaultGRPCAddr returns the conventional gRPC address for a service.
func DefaultGRPCAddr(service string) string {
	return defaultAddr(strings.TrimSpace(service), grpcPorts)
}

// DefaultHTTPAddr returns the conventional HTTP address for a service.
func DefaultHTTPAddr(service string) string {
	return defaultAddr(strings.TrimSpace(service), httpPorts)
}

// OrDefaultGRPCAddr returns value when set, otherwise the service convention.
func OrDefaultGRPCAddr(value, service string) string {
	value = strings.TrimSpace(value)
	if value != "" {
		return value
	}
	return DefaultGRPCAddr(service)
}

// OrDefaultHTTPBaseURL returns value when set, otherwise http://<host:port>.
func OrDefaultHTTPBaseURL(value, service string) string {
	value = strings.TrimSpace(value)
	if value != "" {
		return value
	}
	addr := DefaultHTTPAddr(service)
	if addr == "" {
		return ""
	}
	return "http://" + addr
}

func defaultAddr(service string, ports map[string]int) string {
	port, ok := ports[service]
	if !ok || port <= 0 {
		return ""
	}
	return defaultHost + ":" + strconv.Itoa(port)
}
