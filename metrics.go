package cloudflare

// Metrics records restoration outcomes and range-fetch activity emitted by
// Restorer.
//
// Implementations should be safe for concurrent use, as a single Restorer
// instance is typically shared across many goroutines.
type Metrics interface {
	// RecordDecision is called once per evaluated request with the
	// canonical decision name.
	RecordDecision(decision string)
	// RecordRangeFetch is called after each remote fetch cycle with
	// "success" or "failure".
	RecordRangeFetch(result string)
	// RecordSecurityEvent is called when the gate observes a
	// security-relevant condition.
	RecordSecurityEvent(event string)
}

// noopMetrics is the default Metrics implementation when metrics are not
// explicitly configured.
type noopMetrics struct{}

func (noopMetrics) RecordDecision(string) {}

func (noopMetrics) RecordRangeFetch(string) {}

func (noopMetrics) RecordSecurityEvent(string) {}
