package discovery

import "testing"

func TestDefaultAddrs(t *testing.T) {
	if got := DefaultGRPCAddr(ServiceLogs); got != "localhost:8095" {
		t.Fatalf("DefaultGRPCAddr(%q) = %q, want %q", ServiceLogs, got, "localhost:8095")
	}
	if got := DefaultHTTPAddr(" logs "); got != "localhost:8096" {
		t.Fatalf("DefaultHTTPAddr(%q) = %q, want %q", "logs", got, "localhost:8096")
	}
	if got := DefaultGRPCAddr("unknown"); got != "" {
		t.Fatalf("DefaultGRPCAddr(unknown) = %q, want empty", got)
	}
}

func TestOrDefaults(t *testing.T) {
	if got := OrDefaultGRPCAddr(" 10.0.0.1:9000 ", ServiceLogs); got != "10.0.0.1:9000" {
		t.Fatalf("OrDefaultGRPCAddr = %q, want explicit value", got)
	}
	if got := OrDefaultGRPCAddr("", ServiceLogs); got != "localhost:8095" {
		t.Fatalf("OrDefaultGRPCAddr = %q, want %q", got, "localhost:8095")
	}
	if got := OrDefaultHTTPBaseURL("", ServiceLogs); got != "http://localhost:8096" {
		t.Fatalf("OrDefaultHTTPBaseURL = %q, want %q", got, "http://localhost:8096")
	}
	if got := OrDefaultHTTPBaseURL("", "unknown"); got != "" {
		t.Fatalf("OrDefaultHTTPBaseURL(unknown) = %q, want empty", got)
	}
}
