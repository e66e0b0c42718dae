// Package rediscache provides a Redis-backed cache for
// github.com/agiza/cloudflare, so multiple processes share one fetched
// trusted range set.
//
// Entries are written without a TTL: the range set is permanent until an
// explicit invalidation deletes the key, matching the core's cache
// contract.
package rediscache
