package cloudflare

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"sync"
	"testing"
)

type capturedLog struct {
	Level string
	Msg   string
	Attrs []any
}

// captureLogger records warning and error events for assertions.
type captureLogger struct {
	mu   sync.Mutex
	logs []capturedLog
}

func (l *captureLogger) WarnContext(_ context.Context, msg string, args ...any) {
	l.record("warn", msg, args)
}

func (l *captureLogger) ErrorContext(_ context.Context, msg string, args ...any) {
	l.record("error", msg, args)
}

func (l *captureLogger) record(level, msg string, args []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logs = append(l.logs, capturedLog{Level: level, Msg: msg, Attrs: args})
}

func (l *captureLogger) entries() []capturedLog {
	l.mu.Lock()
	defer l.mu.Unlock()
	cloned := make([]capturedLog, len(l.logs))
	copy(cloned, l.logs)
	return cloned
}

// captureMetrics counts recorded decisions, fetches, and security events.
type captureMetrics struct {
	mu        sync.Mutex
	decisions map[string]int
	fetches   map[string]int
	events    map[string]int
}

func newCaptureMetrics() *captureMetrics {
	return &captureMetrics{
		decisions: make(map[string]int),
		fetches:   make(map[string]int),
		events:    make(map[string]int),
	}
}

func (m *captureMetrics) RecordDecision(decision string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.decisions[decision]++
}

func (m *captureMetrics) RecordRangeFetch(result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetches[result]++
}

func (m *captureMetrics) RecordSecurityEvent(event string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[event]++
}

func (m *captureMetrics) decisionCount(decision string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.decisions[decision]
}

func (m *captureMetrics) fetchCount(result string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fetches[result]
}

func (m *captureMetrics) eventCount(event string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.events[event]
}

// listingServer serves a CIDR listing and counts hits.
type listingServer struct {
	*httptest.Server

	mu     sync.Mutex
	hits   int
	body   string
	status int
}

func newListingServer(t *testing.T, body string) *listingServer {
	t.Helper()

	server := &listingServer{body: body, status: http.StatusOK}
	server.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		server.mu.Lock()
		server.hits++
		status := server.status
		payload := server.body
		server.mu.Unlock()

		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(payload))
	}))
	t.Cleanup(server.Close)

	return server
}

func (s *listingServer) hitCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits
}

func (s *listingServer) setResponse(status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
	s.body = body
}

func mustNewRestorer(t *testing.T, opts ...Option) *Restorer {
	t.Helper()

	restorer, err := New(opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	return restorer
}

func mustParseCIDRs(t *testing.T, cidrs ...string) []netip.Prefix {
	t.Helper()

	prefixes, err := ParseCIDRs(cidrs...)
	if err != nil {
		t.Fatalf("ParseCIDRs() error = %v", err)
	}

	return prefixes
}

func mustRangeSet(t *testing.T, cidrs ...string) *RangeSet {
	t.Helper()

	return NewRangeSet(mustParseCIDRs(t, cidrs...)...)
}

func newTestRequest(remoteAddr, claimedIP string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	req.RemoteAddr = remoteAddr
	if claimedIP != "" {
		req.Header.Set(DefaultClientIPHeader, claimedIP)
	}

	return req
}
