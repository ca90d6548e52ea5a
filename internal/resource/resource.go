// Package resource declares the contract with the external resource
// manager that provisions and tracks compute endpoints. This runtime only
// consumes it: the queue dispatch path turns a resolved endpoint id into a
// handle and submits jobs through it. Provisioning itself lives outside
// this module.
package resource

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// Config identifies the resource handle a caller wants.
type Config struct {
	// Name labels the handle, e.g. "remote_cpuConfig".
	Name string
	// EndpointID is the provider-assigned id extracted from the resource's
	// endpoint URL.
	EndpointID string
}

// JobResult is the outcome of a synchronous job submission.
type JobResult struct {
	// Error is non-empty when the remote handler failed.
	Error string
	// Output is the decoded handler result.
	Output any
}

// Resource is a handle to one deployed compute endpoint.
type Resource interface {
	// ID returns the provider-assigned endpoint id.
	ID() string
	// RunSync submits a job payload and waits for its result.
	RunSync(ctx context.Context, payload map[string]any) (*JobResult, error)
}

// Manager provisions or looks up resource handles.
type Manager interface {
	GetOrDeployResource(ctx context.Context, cfg Config) (Resource, error)
}

// EndpointIDFromURL extracts the provider endpoint id from a resource URL
// of the form https://{host}/v2/{endpointID}: the last path segment.
func EndpointIDFromURL(endpointURL string) (string, error) {
	parsed, err := url.Parse(endpointURL)
	if err != nil {
		return "", fmt.Errorf("parse endpoint URL %q: %w", endpointURL, err)
	}
	path := strings.TrimRight(parsed.Path, "/")
	id := path[strings.LastIndex(path, "/")+1:]
	if id == "" {
		return "", fmt.Errorf("endpoint URL %q has no endpoint id", endpointURL)
	}
	return id, nil
}
