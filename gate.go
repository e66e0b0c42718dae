package cloudflare

import (
	"context"
	"net/netip"
	"strings"
)

// RequestInput provides framework-agnostic request data for evaluation.
//
// Context defaults to context.Background() when nil. RemoteAddr is the
// network-layer peer address as observed at the connection, with or
// without a port. ClaimedIP is the raw claimed-client-address header
// value; an empty string means the header was absent.
type RequestInput struct {
	Context    context.Context
	RemoteAddr string
	ClaimedIP  string
	Path       string
}

func inputContext(input RequestInput) context.Context {
	if input.Context == nil {
		return context.Background()
	}

	return input.Context
}

// Decide classifies a single request against ranges and returns exactly
// one Decision. It holds no state across calls.
//
// Checks run in a fixed order: restoration disabled, absent claim header,
// peer already equal to the claim, peer outside the trusted ranges, and
// only then restoration. Security-relevant outcomes are logged and
// recorded on the configured Metrics; the decision itself never aborts
// request processing.
func (c *Restorer) Decide(input RequestInput, ranges *RangeSet) Decision {
	ctx := inputContext(input)

	decision, event := classify(c.config.restorationEnabled, input.RemoteAddr, input.ClaimedIP, ranges)

	switch decision {
	case DecisionNotProxied:
		c.config.metrics.RecordSecurityEvent(event)
		c.logGateWarning(ctx, input, event, "request did not arrive through the trusted proxy network")
	case DecisionAlreadyRestored:
		c.config.metrics.RecordSecurityEvent(event)
		c.config.logger.ErrorContext(ctx, "peer address already equals claimed client address - duplicate restoration layer",
			"event", event,
			"path", input.Path,
			"remote_addr", input.RemoteAddr,
			"claimed_ip", input.ClaimedIP,
		)
	case DecisionRejectSpoof:
		c.config.metrics.RecordSecurityEvent(event)
		msg := "claimed client address from peer outside trusted ranges - likely spoofing attempt"
		if event == securityEventInvalidClaim {
			msg = "claimed client address is not a valid IP"
		}
		c.logGateWarning(ctx, input, event, msg)
	}

	c.config.metrics.RecordDecision(decision.String())
	return decision
}

func (c *Restorer) logGateWarning(ctx context.Context, input RequestInput, event, msg string) {
	c.config.logger.WarnContext(ctx, msg,
		"event", event,
		"path", input.Path,
		"remote_addr", input.RemoteAddr,
		"claimed_ip", input.ClaimedIP,
	)
}

// classify is the pure decision function: same inputs, same Decision.
func classify(enabled bool, remoteAddr, claim string, ranges *RangeSet) (Decision, string) {
	if !enabled {
		return DecisionUnchanged, ""
	}

	claim = strings.TrimSpace(claim)
	if claim == "" {
		return DecisionNotProxied, securityEventMissingClaimHeader
	}

	peer := normalizeAddr(parseAddr(remoteAddr))
	claimed := normalizeAddr(parseAddr(claim))

	if peerEqualsClaim(peer, claimed, remoteAddr, claim) {
		return DecisionAlreadyRestored, securityEventAlreadyRestored
	}

	if !ranges.Contains(peer) {
		return DecisionRejectSpoof, securityEventUntrustedPeer
	}

	if !claimed.IsValid() {
		// Never rewrite the canonical address to a non-IP value.
		return DecisionRejectSpoof, securityEventInvalidClaim
	}

	return DecisionRestore, ""
}

// peerEqualsClaim compares by normalized address when both literals parse,
// so "198.51.100.9:443" matches a ported-less claim. Unparseable values
// fall back to exact string comparison.
func peerEqualsClaim(peer, claimed netip.Addr, rawPeer, trimmedClaim string) bool {
	if peer.IsValid() && claimed.IsValid() {
		return peer == claimed
	}

	return strings.TrimSpace(rawPeer) == trimmedClaim
}
