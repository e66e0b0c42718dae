package cloudflare

import (
	"fmt"
	"net/http"
	"net/netip"
	"time"
)

// WithRangeListingURLs sets the IPv4 and IPv6 range listing endpoints.
func WithRangeListingURLs(ipv4URL, ipv6URL string) Option {
	return func(c *config) error {
		c.ipv4ListingURL = ipv4URL
		c.ipv6ListingURL = ipv6URL
		return nil
	}
}

// WithClientIPHeader sets the header carrying the claimed client address.
func WithClientIPHeader(name string) Option {
	return func(c *config) error {
		c.clientIPHeader = name
		return nil
	}
}

// WithRestoration enables or disables client address restoration.
//
// When disabled, every evaluation returns DecisionUnchanged without
// touching the cache or the network.
func WithRestoration(enabled bool) Option {
	return func(c *config) error {
		c.restorationEnabled = enabled
		return nil
	}
}

// WithHTTPClient sets the client used to download range listings.
func WithHTTPClient(client *http.Client) Option {
	return func(c *config) error {
		if client == nil {
			return fmt.Errorf("http client cannot be nil")
		}

		c.httpClient = client
		return nil
	}
}

// WithFetchTimeout bounds a single range listing download.
func WithFetchTimeout(timeout time.Duration) Option {
	return func(c *config) error {
		c.fetchTimeout = timeout
		return nil
	}
}

// WithCache sets the cache backend holding the fetched range set.
func WithCache(cache Cache) Option {
	return func(c *config) error {
		if cache == nil {
			return fmt.Errorf("cache cannot be nil")
		}

		c.cache = cache
		return nil
	}
}

// WithCacheKey overrides the well-known cache key.
//
// Useful when several restorer instances with different endpoints share
// one cache backend.
func WithCacheKey(key string) Option {
	return func(c *config) error {
		c.cacheKey = key
		return nil
	}
}

// TrustAdditionalPrefixes appends static prefixes to every fetched range
// set, for edge networks that front the proxy with their own addresses.
func TrustAdditionalPrefixes(prefixes ...netip.Prefix) Option {
	prefixes = clonePrefixes(prefixes)

	return func(c *config) error {
		for _, prefix := range prefixes {
			if !prefix.IsValid() {
				return fmt.Errorf("invalid additional trusted prefix %q", prefix)
			}
			c.additionalPrefixes = append(c.additionalPrefixes, prefix.Masked())
		}
		return nil
	}
}

// WithLogger sets the logger implementation used for warning and error
// events.
func WithLogger(logger Logger) Option {
	return func(c *config) error {
		c.logger = logger
		return nil
	}
}

// WithMetrics sets a concrete metrics implementation.
//
// If previously configured, a metrics factory is disabled.
func WithMetrics(metrics Metrics) Option {
	return func(c *config) error {
		c.metrics = metrics
		c.metricsFactory = nil
		c.useMetricsFactory = false
		return nil
	}
}

// WithMetricsFactory configures a lazy metrics constructor.
//
// The factory is invoked only after option validation succeeds.
func WithMetricsFactory(factory func() (Metrics, error)) Option {
	return func(c *config) error {
		if factory == nil {
			return fmt.Errorf("metrics factory cannot be nil")
		}

		c.metricsFactory = factory
		c.useMetricsFactory = true
		return nil
	}
}
