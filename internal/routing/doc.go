// Package routing is the per-process answer to "is this function local,
// and if not, where and how do I reach it". It combines the static
// manifest with a TTL-refreshed endpoint map fetched from the coordination
// service, replacing the map wholesale on every successful refresh so
// callers never observe a mix of old and new URLs.
package routing
