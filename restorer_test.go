package cloudflare

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRestoreRewritesRemoteAddr(t *testing.T) {
	v4 := newListingServer(t, testV4Listing)
	v6 := newListingServer(t, testV6Listing)
	restorer := newFetchingRestorer(t, v4, v6)

	req := newTestRequest("203.0.113.5:53211", "198.51.100.9")

	decision, err := restorer.Restore(req)
	if err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	if decision != DecisionRestore {
		t.Fatalf("Restore() = %v, want %v", decision, DecisionRestore)
	}
	if req.RemoteAddr != "198.51.100.9" {
		t.Errorf("RemoteAddr = %q, want %q", req.RemoteAddr, "198.51.100.9")
	}
}

func TestRestoreLeavesRemoteAddrOnRejection(t *testing.T) {
	v4 := newListingServer(t, testV4Listing)
	v6 := newListingServer(t, testV6Listing)
	restorer := newFetchingRestorer(t, v4, v6)

	tests := []struct {
		name       string
		remoteAddr string
		claimedIP  string
		want       Decision
	}{
		{
			name:       "spoof attempt from untrusted peer",
			remoteAddr: "192.0.2.1:443",
			claimedIP:  "198.51.100.9",
			want:       DecisionRejectSpoof,
		},
		{
			name:       "no claim header",
			remoteAddr: "203.0.113.5:443",
			want:       DecisionNotProxied,
		},
		{
			name:       "already restored",
			remoteAddr: "198.51.100.9:443",
			claimedIP:  "198.51.100.9",
			want:       DecisionAlreadyRestored,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := newTestRequest(tt.remoteAddr, tt.claimedIP)

			decision, err := restorer.Restore(req)
			if err != nil {
				t.Fatalf("Restore() error = %v", err)
			}
			if decision != tt.want {
				t.Errorf("Restore() = %v, want %v", decision, tt.want)
			}
			if req.RemoteAddr != tt.remoteAddr {
				t.Errorf("RemoteAddr = %q, want untouched %q", req.RemoteAddr, tt.remoteAddr)
			}
		})
	}
}

func TestRestoreDisabledSkipsFetch(t *testing.T) {
	v4 := newListingServer(t, testV4Listing)
	v6 := newListingServer(t, testV6Listing)
	restorer := newFetchingRestorer(t, v4, v6, WithRestoration(false))

	req := newTestRequest("192.0.2.1:443", "198.51.100.9")

	decision, err := restorer.Restore(req)
	if err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	if decision != DecisionUnchanged {
		t.Errorf("Restore() = %v, want %v", decision, DecisionUnchanged)
	}
	if req.RemoteAddr != "192.0.2.1:443" {
		t.Errorf("RemoteAddr = %q, want untouched", req.RemoteAddr)
	}
	if hits := v4.hitCount() + v6.hitCount(); hits != 0 {
		t.Errorf("disabled restoration performed %d fetches, want 0", hits)
	}
}

func TestRestoreFailsClosedWhenRangesUnavailable(t *testing.T) {
	v4 := newListingServer(t, "")
	v4.setResponse(http.StatusServiceUnavailable, "")
	v6 := newListingServer(t, testV6Listing)
	metrics := newCaptureMetrics()
	restorer := newFetchingRestorer(t, v4, v6, WithMetrics(metrics))

	req := newTestRequest("203.0.113.5:443", "198.51.100.9")

	decision, err := restorer.Restore(req)
	if err == nil {
		t.Fatal("Restore() error = nil, want fetch failure")
	}

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Errorf("error = %v, want *FetchError", err)
	}
	if decision != DecisionUnchanged {
		t.Errorf("Restore() = %v, want %v", decision, DecisionUnchanged)
	}
	if req.RemoteAddr != "203.0.113.5:443" {
		t.Errorf("RemoteAddr = %q, want untouched", req.RemoteAddr)
	}
	if count := metrics.decisionCount(DecisionUnchanged.String()); count != 1 {
		t.Errorf("unchanged decision count = %d, want 1", count)
	}
}

func TestRestoreNormalizesClaimedAddress(t *testing.T) {
	v4 := newListingServer(t, testV4Listing)
	v6 := newListingServer(t, testV6Listing)
	restorer := newFetchingRestorer(t, v4, v6)

	req := newTestRequest("203.0.113.5:443", "  198.51.100.9  ")

	decision, err := restorer.Restore(req)
	if err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	if decision != DecisionRestore {
		t.Fatalf("Restore() = %v, want %v", decision, DecisionRestore)
	}
	if req.RemoteAddr != "198.51.100.9" {
		t.Errorf("RemoteAddr = %q, want normalized %q", req.RemoteAddr, "198.51.100.9")
	}
}

func TestRestoreCustomHeader(t *testing.T) {
	v4 := newListingServer(t, testV4Listing)
	v6 := newListingServer(t, testV6Listing)
	restorer := newFetchingRestorer(t, v4, v6, WithClientIPHeader("True-Client-IP"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.5:443"
	req.Header.Set("True-Client-IP", "198.51.100.9")

	decision, err := restorer.Restore(req)
	if err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	if decision != DecisionRestore {
		t.Errorf("Restore() = %v, want %v", decision, DecisionRestore)
	}
	if got := restorer.ClientIPHeader(); got != "True-Client-IP" {
		t.Errorf("ClientIPHeader() = %q, want %q", got, "True-Client-IP")
	}
}

func TestMiddlewareRestoresBeforeHandler(t *testing.T) {
	v4 := newListingServer(t, testV4Listing)
	v6 := newListingServer(t, testV6Listing)
	restorer := newFetchingRestorer(t, v4, v6)

	var seenRemoteAddr string
	handler := restorer.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenRemoteAddr = r.RemoteAddr
		w.WriteHeader(http.StatusNoContent)
	}))

	req := newTestRequest("203.0.113.5:443", "198.51.100.9")
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", recorder.Code, http.StatusNoContent)
	}
	if seenRemoteAddr != "198.51.100.9" {
		t.Errorf("handler saw RemoteAddr %q, want restored %q", seenRemoteAddr, "198.51.100.9")
	}
}

func TestMiddlewareContinuesOnFetchFailure(t *testing.T) {
	v4 := newListingServer(t, "")
	v4.setResponse(http.StatusBadGateway, "")
	v6 := newListingServer(t, testV6Listing)
	restorer := newFetchingRestorer(t, v4, v6)

	var seenRemoteAddr string
	handler := restorer.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenRemoteAddr = r.RemoteAddr
		w.WriteHeader(http.StatusOK)
	}))

	req := newTestRequest("203.0.113.5:443", "198.51.100.9")
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", recorder.Code, http.StatusOK)
	}
	if seenRemoteAddr != "203.0.113.5:443" {
		t.Errorf("handler saw RemoteAddr %q, want observed peer", seenRemoteAddr)
	}
}

func TestNewRejectsInvalidConfiguration(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
	}{
		{
			name: "empty IPv4 listing URL",
			opts: []Option{WithRangeListingURLs("", DefaultIPv6ListingURL)},
		},
		{
			name: "relative listing URL",
			opts: []Option{WithRangeListingURLs("ips-v4", DefaultIPv6ListingURL)},
		},
		{
			name: "empty header name",
			opts: []Option{WithClientIPHeader("")},
		},
		{
			name: "zero fetch timeout",
			opts: []Option{WithFetchTimeout(0)},
		},
		{
			name: "empty cache key",
			opts: []Option{WithCacheKey("")},
		},
		{
			name: "nil cache",
			opts: []Option{WithCache(nil)},
		},
		{
			name: "nil http client",
			opts: []Option{WithHTTPClient(nil)},
		},
		{
			name: "nil metrics factory",
			opts: []Option{WithMetricsFactory(nil)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.opts...); err == nil {
				t.Error("New() error = nil, want configuration error")
			}
		})
	}
}
