package cloudflare

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/sync/singleflight"
)

// Restorer resolves the true originating client address for requests that
// arrived through a trusted reverse-proxy network.
//
// It combines a cached range provider (which listings of the proxy's edge
// prefixes to trust) with a per-request trust gate (whether to accept a
// claimed client address from a given peer).
//
// Restorer instances are safe for concurrent reuse.
type Restorer struct {
	config *config

	// fetchGroup coalesces concurrent cache-miss fetches into one remote
	// fetch cycle.
	fetchGroup singleflight.Group
}

// New creates a Restorer from one or more Option builders.
func New(opts ...Option) (*Restorer, error) {
	cfg, err := configFromOptions(opts...)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &Restorer{config: cfg}, nil
}

// Restore evaluates r against the trusted ranges and, on DecisionRestore,
// overwrites r.RemoteAddr with the canonical claimed client address.
//
// When the range fetch fails the request is evaluated fail-closed: the
// decision is DecisionUnchanged, the error is returned for the caller, and
// r is left untouched. No outcome is fatal; the request always continues.
func (c *Restorer) Restore(r *http.Request) (Decision, error) {
	ctx := requestContext(r)
	if r == nil {
		r = &http.Request{}
	}

	var ranges *RangeSet
	if c.config.restorationEnabled {
		var err error
		ranges, err = c.TrustedRanges(ctx)
		if err != nil {
			c.config.metrics.RecordDecision(DecisionUnchanged.String())
			return DecisionUnchanged, err
		}
	}

	input := RequestInput{
		Context:    ctx,
		RemoteAddr: r.RemoteAddr,
		ClaimedIP:  headerValue(r, c.config.clientIPHeader),
		Path:       requestPath(r),
	}

	decision := c.Decide(input, ranges)
	if decision == DecisionRestore {
		r.RemoteAddr = normalizeAddr(parseAddr(input.ClaimedIP)).String()
	}

	return decision, nil
}

// ClientIPHeader returns the configured claimed-client-address header name.
func (c *Restorer) ClientIPHeader() string {
	return c.config.clientIPHeader
}

func requestContext(r *http.Request) context.Context {
	if r == nil {
		return context.Background()
	}

	return r.Context()
}

func requestPath(r *http.Request) string {
	if r.URL == nil {
		return ""
	}
	return r.URL.Path
}

func headerValue(r *http.Request, name string) string {
	if r.Header == nil {
		return ""
	}
	return r.Header.Get(name)
}
