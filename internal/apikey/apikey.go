// Package apikey carries the coordination-service API key through
// context.Context, so a credential extracted from an inbound request can be
// reused for the outbound calls made on its behalf.
package apikey

import (
	"context"
	"os"
)

// EnvVar is the process-level fallback credential.
const EnvVar = "FNMESH_API_KEY"

type key struct{}

var apiKeyKey = key{}

// WithKey returns a new context carrying the given API key.
func WithKey(ctx context.Context, apiKey string) context.Context {
	return context.WithValue(ctx, apiKeyKey, apiKey)
}

// FromContext returns the API key in ctx, or "" when none was set.
func FromContext(ctx context.Context) string {
	if k, ok := ctx.Value(apiKeyKey).(string); ok {
		return k
	}
	return ""
}

// Resolve picks the key for an outbound call: the explicit override wins,
// then the request context, then the process environment.
func Resolve(ctx context.Context, override string) string {
	if override != "" {
		return override
	}
	if k := FromContext(ctx); k != "" {
		return k
	}
	return os.Getenv(EnvVar)
}
