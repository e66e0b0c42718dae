// Package prometheus provides a Prometheus adapter for
// github.com/agiza/cloudflare.
//
// The package exposes cloudflare options that install a Prometheus-backed
// Metrics implementation on a restorer, using either the default
// registerer or a caller-provided registerer.
package prometheus
