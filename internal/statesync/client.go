package statesync

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/vk/fnmesh/internal/ctxlog"
	"github.com/vk/fnmesh/internal/httpx"
)

// DefaultMaxRetries bounds attempts per logical operation.
const DefaultMaxRetries = 3

// Config configures a Client. Zero values select the defaults.
type Config struct {
	// BaseURL is the coordination service's query endpoint.
	BaseURL string
	// APIKey overrides context- and environment-provided credentials.
	APIKey string
	// MaxRetries is the total attempt budget (not extra retries).
	MaxRetries int
	// Timeout bounds each HTTP round trip.
	Timeout time.Duration
}

// Client talks to the coordination service. Safe for concurrent use; the
// read-modify-write operations additionally serialize against each other
// through one mutex so their fetch/merge/push cycles never interleave
// within this process.
type Client struct {
	baseURL    string
	apiKey     string
	maxRetries int
	httpc      *http.Client

	// sleep is a seam for backoff tests. Production clients always use the
	// context-aware default.
	sleep func(ctx context.Context, d time.Duration) error

	mu sync.Mutex
}

// New builds a Client from cfg.
func New(cfg Config) *Client {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		maxRetries: cfg.MaxRetries,
		httpc:      httpx.NewClient("", cfg.Timeout),
		sleep:      sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// GetPersistedManifest fetches the canonical manifest for one environment:
// environment(envID) → activeBuildId, then build(activeBuildId) → manifest.
// Transient failures are retried with exponential backoff; remote state
// that is structurally unusable fails immediately as *MalformedStateError.
// After the retry budget it returns *ServiceUnavailableError.
func (c *Client) GetPersistedManifest(ctx context.Context, envID string) (map[string]any, error) {
	logger := ctxlog.FromContext(ctx)

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			if err := c.sleep(ctx, backoff(attempt-1)); err != nil {
				return nil, err
			}
		}

		_, m, err := c.fetchBuildAndManifest(ctx, envID)
		if err == nil {
			logger.Debug("persisted manifest loaded", "environment_id", envID)
			return m, nil
		}

		var malformed *MalformedStateError
		if errors.As(err, &malformed) {
			return nil, err
		}
		lastErr = err
		logger.Debug("state manager request failed",
			"attempt", attempt+1, "max_retries", c.maxRetries, "error", err)
	}

	logger.Warn("state manager unavailable",
		"attempts", c.maxRetries, "error", lastErr)
	return nil, &ServiceUnavailableError{Attempts: c.maxRetries, Err: lastErr}
}

// UpdateResourceState shallow-merges patch into the manifest entry for
// resourceName and pushes the whole manifest back. The fetch-merge-push
// cycle runs under the client mutex, held across the network calls on
// purpose: the lock serializes the logical operation, not just the map
// mutation. There is no cross-process protection; the remote store resolves
// concurrent writers last-writer-wins.
func (c *Client) UpdateResourceState(ctx context.Context, envID, resourceName string, patch map[string]any) error {
	return c.readModifyWrite(ctx, envID, resourceName, func(resources map[string]any) {
		existing, _ := resources[resourceName].(map[string]any)
		merged := make(map[string]any, len(existing)+len(patch))
		for k, v := range existing {
			merged[k] = v
		}
		for k, v := range patch {
			merged[k] = v
		}
		resources[resourceName] = merged
	})
}

// RemoveResourceState deletes the manifest entry for resourceName. Same
// locking and retry semantics as UpdateResourceState.
func (c *Client) RemoveResourceState(ctx context.Context, envID, resourceName string) error {
	return c.readModifyWrite(ctx, envID, resourceName, func(resources map[string]any) {
		delete(resources, resourceName)
	})
}

func (c *Client) readModifyWrite(ctx context.Context, envID, resourceName string, mutate func(resources map[string]any)) error {
	logger := ctxlog.FromContext(ctx)

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			if err := c.sleep(ctx, backoff(attempt-1)); err != nil {
				return err
			}
		}

		err := func() error {
			c.mu.Lock()
			defer c.mu.Unlock()

			buildID, m, err := c.fetchBuildAndManifest(ctx, envID)
			if err != nil {
				return err
			}
			resources, _ := m["resources"].(map[string]any)
			if resources == nil {
				resources = map[string]any{}
				m["resources"] = resources
			}
			mutate(resources)

			return c.post(ctx, updateManifestMutation, map[string]any{
				"buildId":  buildID,
				"manifest": m,
			}, nil)
		}()
		if err == nil {
			logger.Debug("resource state updated",
				"environment_id", envID, "resource", resourceName)
			return nil
		}

		var malformed *MalformedStateError
		if errors.As(err, &malformed) {
			return err
		}
		lastErr = err
		logger.Warn("state manager request failed",
			"attempt", attempt+1, "resource", resourceName, "error", err)
	}

	return &ServiceUnavailableError{Attempts: c.maxRetries, Err: lastErr}
}

// fetchBuildAndManifest resolves the two-hop chain for one environment.
func (c *Client) fetchBuildAndManifest(ctx context.Context, envID string) (string, map[string]any, error) {
	var envResp struct {
		Environment *struct {
			ActiveBuildID string `json:"activeBuildId"`
		} `json:"environment"`
	}
	if err := c.post(ctx, environmentQuery, map[string]any{"id": envID}, &envResp); err != nil {
		return "", nil, err
	}
	if envResp.Environment == nil || envResp.Environment.ActiveBuildID == "" {
		return "", nil, &MalformedStateError{Msg: fmt.Sprintf(
			"no active build for environment %s; environment may not be fully initialized", envID)}
	}
	buildID := envResp.Environment.ActiveBuildID

	var buildResp struct {
		Build *struct {
			ID       string         `json:"id"`
			Manifest map[string]any `json:"manifest"`
		} `json:"build"`
	}
	if err := c.post(ctx, buildQuery, map[string]any{"id": buildID}, &buildResp); err != nil {
		return "", nil, err
	}
	if buildResp.Build == nil || buildResp.Build.Manifest == nil {
		return "", nil, &MalformedStateError{Msg: fmt.Sprintf(
			"no manifest for build %s; build may be corrupted or not yet published", buildID)}
	}

	return buildID, buildResp.Build.Manifest, nil
}

// backoff returns the wait before retry number n (zero-based): 1s, 2s, 4s…
func backoff(n int) time.Duration {
	return time.Duration(1<<uint(n)) * time.Second
}

// ResourceEndpoints extracts the resource→URL map from a persisted
// manifest. Missing or malformed entries yield an empty map, never nil.
func ResourceEndpoints(m map[string]any) map[string]string {
	out := map[string]string{}
	raw, _ := m["resources_endpoints"].(map[string]any)
	for name, v := range raw {
		if url, ok := v.(string); ok {
			out[name] = url
		}
	}
	return out
}
