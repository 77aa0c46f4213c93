// Package timeouts defines the timeout constants shared by the logs
// binaries.
package timeouts

import "time"

// GRPCDial caps the wait for a provider connection to report healthy.
const GRPCDial = 5 * time.Second

// ReadHeader limits how long the HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits graceful shutdown of HTTP servers and telemetry.
const Shutdown = 5 * time.Second

// AMQPPublish caps a single change event publish.
const AMQPPublish = 5 * time.Second
