package cloudflare

import (
	"fmt"
	"net/http"
	"net/netip"
	"net/url"
	"time"
)

const (
	// DefaultIPv4ListingURL publishes the proxy network's IPv4 edge
	// prefixes, one CIDR per line.
	DefaultIPv4ListingURL = "https://www.cloudflare.com/ips-v4"
	// DefaultIPv6ListingURL publishes the proxy network's IPv6 edge
	// prefixes, one CIDR per line.
	DefaultIPv6ListingURL = "https://www.cloudflare.com/ips-v6"

	// DefaultClientIPHeader carries the claimed originating client address
	// inserted by the upstream proxy.
	DefaultClientIPHeader = "CF-Connecting-IP"

	// DefaultFetchTimeout bounds a single listing download so a slow remote
	// source cannot stall request handling indefinitely.
	DefaultFetchTimeout = 30 * time.Second

	// DefaultMaxListingBytes caps a listing body. The published listings
	// are a few hundred bytes; anything close to this limit indicates a
	// misbehaving endpoint.
	DefaultMaxListingBytes = 1 << 20
)

// Option configures a Restorer.
//
// Construct options using package-provided option builder functions.
type Option func(*config) error

// config holds restorer configuration state.
//
// It is mutated by Option functions during construction.
type config struct {
	ipv4ListingURL string
	ipv6ListingURL string
	clientIPHeader string

	restorationEnabled bool

	httpClient      *http.Client
	fetchTimeout    time.Duration
	maxListingBytes int64

	cache    Cache
	cacheKey string

	additionalPrefixes []netip.Prefix

	logger  Logger
	metrics Metrics

	metricsFactory    func() (Metrics, error)
	useMetricsFactory bool
}

func defaultConfig() *config {
	return &config{
		ipv4ListingURL:     DefaultIPv4ListingURL,
		ipv6ListingURL:     DefaultIPv6ListingURL,
		clientIPHeader:     DefaultClientIPHeader,
		restorationEnabled: true,
		fetchTimeout:       DefaultFetchTimeout,
		maxListingBytes:    DefaultMaxListingBytes,
		cacheKey:           RangeCacheKey,
		logger:             noopLogger{},
		metrics:            noopMetrics{},
	}
}

func applyOptions(c *config, opts ...Option) error {
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return err
		}
	}

	return nil
}

func configFromOptions(opts ...Option) (*config, error) {
	cfg := defaultConfig()

	if err := applyOptions(cfg, opts...); err != nil {
		return nil, err
	}

	if cfg.cache == nil {
		cfg.cache = newMemoryCache()
	}
	if cfg.httpClient == nil {
		cfg.httpClient = &http.Client{Timeout: cfg.fetchTimeout}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if cfg.useMetricsFactory {
		metrics, err := cfg.metricsFactory()
		if err != nil {
			return nil, err
		}
		cfg.metrics = metrics
	}

	return cfg, nil
}

func (c *config) validate() error {
	if err := validateListingURL("IPv4", c.ipv4ListingURL); err != nil {
		return err
	}
	if err := validateListingURL("IPv6", c.ipv6ListingURL); err != nil {
		return err
	}

	if c.clientIPHeader == "" {
		return fmt.Errorf("client IP header name cannot be empty")
	}
	if c.fetchTimeout <= 0 {
		return fmt.Errorf("fetch timeout must be positive, got %v", c.fetchTimeout)
	}
	if c.maxListingBytes <= 0 {
		return fmt.Errorf("max listing bytes must be positive, got %d", c.maxListingBytes)
	}
	if c.cacheKey == "" {
		return fmt.Errorf("cache key cannot be empty")
	}
	if c.logger == nil {
		return fmt.Errorf("logger cannot be nil")
	}
	if c.metrics == nil {
		return fmt.Errorf("metrics cannot be nil")
	}
	if c.useMetricsFactory && c.metricsFactory == nil {
		return fmt.Errorf("metrics factory cannot be nil")
	}

	for _, prefix := range c.additionalPrefixes {
		if !prefix.IsValid() {
			return fmt.Errorf("invalid additional trusted prefix %q", prefix)
		}
	}

	return nil
}

func validateListingURL(family, rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("%s listing URL cannot be empty", family)
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid %s listing URL %q: %w", family, rawURL, err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("invalid %s listing URL %q: missing scheme or host", family, rawURL)
	}

	return nil
}

func clonePrefixes(prefixes []netip.Prefix) []netip.Prefix {
	if prefixes == nil {
		return nil
	}
	cloned := make([]netip.Prefix, len(prefixes))
	copy(cloned, prefixes)
	return cloned
}
