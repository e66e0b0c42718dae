package cloudflare

import (
	"errors"
	"fmt"
	"net/netip"
	"time"
)

var (
	ErrRangesUnavailable = errors.New("trusted proxy ranges unavailable")

	ErrEmptyRangeList = errors.New("range listing contained no prefixes")

	ErrInvalidRangeList = errors.New("range listing contained an invalid prefix")

	ErrUnexpectedStatus = errors.New("unexpected response status from range endpoint")
)

// FetchError reports a failed download of one range listing.
type FetchError struct {
	Err        error
	URL        string
	StatusCode int
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: %v (status=%d)", e.URL, e.Err, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ParseError reports a listing line that is not a valid network prefix.
//
// A single bad line fails the whole fetch cycle; no partially valid range
// set is ever cached.
type ParseError struct {
	Err   error
	URL   string
	Line  int
	Value string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s line %d: %v (value=%q)", e.URL, e.Line, e.Err, e.Value)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Decision is the outcome of evaluating a single request against the
// trusted proxy ranges.
type Decision int

const (
	// Start at 1 to avoid zero-value confusion and make invalid decisions
	// explicit.
	//
	// DecisionUnchanged leaves the observed peer address untouched, either
	// because restoration is disabled or because ranges were unavailable.
	DecisionUnchanged Decision = iota + 1
	// DecisionNotProxied means no claimed client address was present; the
	// request did not arrive through the proxy network.
	DecisionNotProxied
	// DecisionAlreadyRestored means the observed peer already equals the
	// claimed client address; some other layer performed the substitution.
	DecisionAlreadyRestored
	// DecisionRejectSpoof means the peer is outside the trusted ranges (or
	// the claim is not a plausible address) while a claim was presented.
	DecisionRejectSpoof
	// DecisionRestore accepts the claimed client address as the canonical
	// peer address.
	DecisionRestore
)

// String returns the canonical text representation of d.
func (d Decision) String() string {
	switch d {
	case DecisionUnchanged:
		return "unchanged"
	case DecisionNotProxied:
		return "not_proxied"
	case DecisionAlreadyRestored:
		return "already_restored"
	case DecisionRejectSpoof:
		return "reject_spoof"
	case DecisionRestore:
		return "restore"
	default:
		return "unknown"
	}
}

// CacheEntry is a cached trusted range set together with fetch metadata.
//
// Entries are never mutated in place; a refresh publishes a new entry
// wholesale. Permanent entries do not expire and live until explicitly
// invalidated.
type CacheEntry struct {
	Ranges    *RangeSet
	FetchedAt time.Time
	Permanent bool
}

// ParseCIDRs parses CIDR strings into prefixes, failing on the first
// invalid value.
func ParseCIDRs(cidrs ...string) ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(cidrs))
	for _, cidr := range cidrs {
		prefix, err := netip.ParsePrefix(cidr)
		if err != nil {
			return nil, fmt.Errorf("invalid CIDR %q: %w", cidr, err)
		}
		prefixes = append(prefixes, prefix.Masked())
	}
	return prefixes, nil
}
