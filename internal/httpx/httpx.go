// Package httpx builds the authenticated HTTP clients used for all
// cross-endpoint and coordination-service traffic.
package httpx

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/vk/fnmesh/internal/version"
)

// DefaultTimeout bounds every outbound request.
const DefaultTimeout = 30 * time.Second

// UserAgent identifies this runtime on the wire, e.g.
// "fnmesh/0.3.0 (go1.24; linux; amd64)".
func UserAgent() string {
	return fmt.Sprintf("fnmesh/%s (%s; %s; %s)",
		version.Version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// headerTransport injects the standard headers on every request so call
// sites never assemble them by hand.
type headerTransport struct {
	base   http.RoundTripper
	apiKey string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", UserAgent())
	if req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if t.apiKey != "" && req.Header.Get("Authorization") == "" {
		req.Header.Set("Authorization", "Bearer "+t.apiKey)
	}
	return t.base.RoundTrip(req)
}

// NewClient returns an *http.Client with a pooled transport, the standard
// headers, and a bearer credential when apiKey is non-empty. A zero timeout
// selects DefaultTimeout.
func NewClient(apiKey string, timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &headerTransport{
			apiKey: apiKey,
			base: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}
