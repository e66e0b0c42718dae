package cloudflare

const (
	securityEventMissingClaimHeader = "missing_claim_header"
	securityEventAlreadyRestored    = "already_restored"
	securityEventUntrustedPeer      = "untrusted_peer"
	securityEventInvalidClaim       = "invalid_claim"
	securityEventRangeFetchFailed   = "range_fetch_failed"
)

const (
	fetchResultSuccess = "success"
	fetchResultFailure = "failure"
)
