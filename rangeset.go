package cloudflare

import (
	"bufio"
	"fmt"
	"io"
	"net/netip"
	"strings"
)

// RangeSet is an immutable collection of trusted network prefixes with a
// prebuilt membership index.
//
// A RangeSet is safe for concurrent use once constructed.
type RangeSet struct {
	prefixes []netip.Prefix
	match    prefixMatcher
}

// NewRangeSet builds a RangeSet from the given prefixes.
//
// Prefixes are stored in their masked canonical form. Both IPv4 and IPv6
// prefixes may be mixed freely.
func NewRangeSet(prefixes ...netip.Prefix) *RangeSet {
	normalized := make([]netip.Prefix, 0, len(prefixes))
	for _, prefix := range prefixes {
		if !prefix.IsValid() {
			continue
		}
		normalized = append(normalized, prefix.Masked())
	}

	return &RangeSet{
		prefixes: normalized,
		match:    newPrefixMatcher(normalized),
	}
}

// Contains reports whether ip falls within any prefix of the set.
//
// Invalid addresses are never members; cross-family matches never occur.
func (s *RangeSet) Contains(ip netip.Addr) bool {
	if s == nil {
		return false
	}
	return s.match.contains(normalizeAddr(ip))
}

// ContainsLiteral parses s leniently (whitespace, port suffixes, and IPv6
// brackets are tolerated) and reports membership. Malformed literals are
// not members.
func (s *RangeSet) ContainsLiteral(literal string) bool {
	return s.Contains(parseAddr(literal))
}

// Prefixes returns a copy of the prefixes in insertion order.
func (s *RangeSet) Prefixes() []netip.Prefix {
	if s == nil || s.prefixes == nil {
		return nil
	}
	cloned := make([]netip.Prefix, len(s.prefixes))
	copy(cloned, s.prefixes)
	return cloned
}

// Len returns the number of prefixes in the set.
func (s *RangeSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.prefixes)
}

// parseRangeListing reads a newline-delimited CIDR listing. Lines are
// trimmed; blank lines are skipped. The first invalid line fails the whole
// listing.
func parseRangeListing(r io.Reader, sourceURL string) ([]netip.Prefix, error) {
	var prefixes []netip.Prefix

	scanner := bufio.NewScanner(r)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		prefix, err := netip.ParsePrefix(line)
		if err != nil {
			return nil, &ParseError{
				Err:   ErrInvalidRangeList,
				URL:   sourceURL,
				Line:  lineNumber,
				Value: line,
			}
		}

		prefixes = append(prefixes, prefix.Masked())
	}

	if err := scanner.Err(); err != nil {
		return nil, &FetchError{Err: fmt.Errorf("read listing body: %w", err), URL: sourceURL}
	}

	return prefixes, nil
}
