// Package cloudflare restores the true originating client address for
// requests that arrived through Cloudflare's reverse-proxy network, while
// rejecting spoofed claims from untrusted peers.
//
// # Features
//
//   - Lazily fetched, permanently cached trusted range set (IPv4 + IPv6)
//     from Cloudflare's published listings
//   - Per-request trust gate: restore, reject spoof, or leave unchanged
//   - Fail-closed on fetch failures: no restoration without valid ranges,
//     and a previously cached set is never replaced by a bad fetch
//   - Concurrent cache-miss fetches coalesced into one remote cycle
//   - Pluggable cache backends (in-process default, Redis adapter)
//   - Optional observability with context-aware logging and pluggable metrics
//   - Type-safe using modern Go netip.Addr
//
// # Basic Usage
//
// Wrap a handler so downstream code sees the restored address in
// Request.RemoteAddr:
//
//	restorer, err := cloudflare.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	http.ListenAndServe(":8080", restorer.Middleware(mux))
//
// Or drive the decision directly:
//
//	decision, err := restorer.Restore(req)
//	if err != nil {
//	    log.Printf("ranges unavailable: %v", err)
//	}
//	fmt.Println(decision, req.RemoteAddr)
//
// # Decision Model
//
// Every request yields exactly one Decision, evaluated in a fixed order:
//
//   - DecisionUnchanged: restoration disabled, or ranges unavailable
//   - DecisionNotProxied: no claimed-client-address header present
//   - DecisionAlreadyRestored: peer already equals the claim; some other
//     layer performed the substitution (logged as an error-level anomaly)
//   - DecisionRejectSpoof: claim presented from a peer outside the trusted
//     ranges, or the claim is not a valid IP
//   - DecisionRestore: peer is a trusted proxy; the claim becomes the
//     canonical client address
//
// No decision is fatal. The request always continues; the library is
// fail-open with respect to availability and fail-closed with respect to
// trust.
//
// # Range Sources and Caching
//
// On the first request the IPv4 and IPv6 listings are downloaded, parsed,
// and combined into one RangeSet published to the cache as a permanent
// entry. Subsequent requests hit the cache without any network access or
// freshness check. Call InvalidateRanges to force a refresh, for example
// from a periodic job:
//
//	restorer, _ := cloudflare.New(
//	    cloudflare.WithRangeListingURLs(v4URL, v6URL),
//	    cloudflare.WithFetchTimeout(10*time.Second),
//	)
//	// later, from an operator action or cron:
//	restorer.InvalidateRanges(ctx)
//
// A fetch cycle fails as a whole: a transport error, a non-2xx status, an
// empty listing, or a single malformed line in either listing caches
// nothing and leaves any previous entry in place.
//
// # Observability
//
// Add logging and metrics for production monitoring:
// (Prometheus adapter package: github.com/agiza/cloudflare/prometheus)
// The logger receives req.Context(), allowing trace/span IDs to flow through.
//
//	import cfprom "github.com/agiza/cloudflare/prometheus"
//
//	restorer, err := cloudflare.New(
//	    cloudflare.WithLogger(slog.Default()),
//	    cfprom.WithMetrics(),
//	)
//
// # Shared Caches
//
// Multi-process deployments can share one fetched range set through the
// Redis adapter package github.com/agiza/cloudflare/rediscache, which
// stores entries without a TTL so they remain permanent until explicitly
// invalidated.
//
// # Thread Safety
//
// Restorer instances are safe for concurrent use. They are typically
// created once at application startup and reused across all requests.
package cloudflare
