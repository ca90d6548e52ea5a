// Package manifest holds the typed representation of function ownership:
// which functions live on which resource, the per-resource metadata the
// build pipeline recorded, and (optionally) the endpoint URLs discovered at
// deploy time. The manifest file is the static half of routing; the dynamic
// half is the registry's endpoint cache.
package manifest
