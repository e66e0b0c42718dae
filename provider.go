package cloudflare

import (
	"context"
	"io"
	"net/http"
	"net/netip"
	"time"
)

// TrustedRanges returns the current trusted range set.
//
// A cached entry is returned immediately without any freshness check; the
// cache is permanent until explicitly invalidated. On a miss both listings
// are fetched, parsed, combined, and published as one new cache entry.
// Concurrent misses are coalesced into a single fetch cycle.
//
// On failure nothing is cached, a previously cached set is left untouched,
// and the error is returned so the caller can treat ranges as unavailable
// for this request.
func (c *Restorer) TrustedRanges(ctx context.Context) (*RangeSet, error) {
	entry, ok, err := c.config.cache.Get(ctx, c.config.cacheKey)
	if err != nil {
		c.config.logger.WarnContext(ctx, "trusted range cache read failed",
			"cache_key", c.config.cacheKey,
			"error", err,
		)
	} else if ok && entry != nil && entry.Ranges != nil {
		return entry.Ranges, nil
	}

	fetched, err, _ := c.fetchGroup.Do(c.config.cacheKey, func() (any, error) {
		return c.fetchAndCache(ctx)
	})
	if err != nil {
		c.config.metrics.RecordSecurityEvent(securityEventRangeFetchFailed)
		c.config.logger.ErrorContext(ctx, "trusted range fetch failed - client address restoration unavailable",
			"error", err,
		)
		return nil, err
	}

	return fetched.(*RangeSet), nil
}

// InvalidateRanges evicts the cached range set so the next request fetches
// fresh listings. This is the only way a published entry is ever replaced.
func (c *Restorer) InvalidateRanges(ctx context.Context) error {
	return c.config.cache.Delete(ctx, c.config.cacheKey)
}

func (c *Restorer) fetchAndCache(ctx context.Context) (*RangeSet, error) {
	prefixes, err := c.fetchListing(ctx, c.config.ipv4ListingURL)
	if err != nil {
		c.config.metrics.RecordRangeFetch(fetchResultFailure)
		return nil, err
	}

	v6Prefixes, err := c.fetchListing(ctx, c.config.ipv6ListingURL)
	if err != nil {
		c.config.metrics.RecordRangeFetch(fetchResultFailure)
		return nil, err
	}

	prefixes = append(prefixes, v6Prefixes...)
	prefixes = append(prefixes, c.config.additionalPrefixes...)

	set := NewRangeSet(prefixes...)
	entry := &CacheEntry{
		Ranges:    set,
		FetchedAt: time.Now(),
		Permanent: true,
	}

	if err := c.config.cache.Set(ctx, c.config.cacheKey, entry); err != nil {
		// The fetched set is still valid for this request; only the shared
		// cache missed the update.
		c.config.logger.WarnContext(ctx, "trusted range cache write failed",
			"cache_key", c.config.cacheKey,
			"error", err,
		)
	}

	c.config.metrics.RecordRangeFetch(fetchResultSuccess)
	return set, nil
}

func (c *Restorer) fetchListing(ctx context.Context, listingURL string) ([]netip.Prefix, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, listingURL, nil)
	if err != nil {
		return nil, &FetchError{Err: err, URL: listingURL}
	}
	req.Header.Set("Accept", "text/plain")

	resp, err := c.config.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{Err: err, URL: listingURL}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{
			Err:        ErrUnexpectedStatus,
			URL:        listingURL,
			StatusCode: resp.StatusCode,
		}
	}

	prefixes, err := parseRangeListing(io.LimitReader(resp.Body, c.config.maxListingBytes), listingURL)
	if err != nil {
		return nil, err
	}
	if len(prefixes) == 0 {
		return nil, &FetchError{Err: ErrEmptyRangeList, URL: listingURL}
	}

	return prefixes, nil
}
