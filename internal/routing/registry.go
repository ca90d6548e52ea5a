package routing

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/vk/fnmesh/internal/ctxlog"
	"github.com/vk/fnmesh/internal/manifest"
	"github.com/vk/fnmesh/internal/statesync"
)

// DefaultCacheTTL is how long a fetched endpoint map stays fresh.
const DefaultCacheTTL = 5 * time.Minute

// StateClient is the slice of the state-sync client the registry needs.
type StateClient interface {
	GetPersistedManifest(ctx context.Context, envID string) (map[string]any, error)
}

// Options configures a Registry. Zero values select the defaults.
type Options struct {
	// Identity is the resource name (or provider endpoint id) this process
	// runs as. Functions owned by it resolve as local.
	Identity string
	// EnvironmentID selects the coordination environment to refresh from.
	// Empty disables refreshing.
	EnvironmentID string
	// Client fetches the persisted manifest. Nil disables refreshing.
	Client StateClient
	// CacheTTL overrides DefaultCacheTTL.
	CacheTTL time.Duration
	// Now is a clock seam for tests.
	Now func() time.Time
}

// Registry answers "where does function X run" from the static manifest
// plus a TTL-refreshed endpoint map, without contacting the coordination
// service on every call.
type Registry struct {
	manifest *manifest.Manifest
	identity string
	envID    string
	client   StateClient
	cacheTTL time.Duration
	now      func() time.Time

	// makesRemoteCalls is computed once from the manifest entry for this
	// process's own identity; leaf resources skip coordination entirely.
	makesRemoteCalls bool

	mu        sync.Mutex
	endpoints map[string]string
	loadedAt  time.Time
}

// New builds a Registry over an immutable manifest.
func New(m *manifest.Manifest, opts Options) *Registry {
	if m == nil {
		m = manifest.Empty()
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = DefaultCacheTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Registry{
		manifest:         m,
		identity:         opts.Identity,
		envID:            opts.EnvironmentID,
		client:           opts.Client,
		cacheTTL:         opts.CacheTTL,
		now:              opts.Now,
		makesRemoteCalls: m.MakesRemoteCalls(opts.Identity),
		endpoints:        map[string]string{},
	}
}

// Identity returns the resolved current-endpoint identity.
func (r *Registry) Identity() string { return r.identity }

// Manifest returns the static manifest the registry was built over.
func (r *Registry) Manifest() *manifest.Manifest { return r.manifest }

// EnsureFresh refreshes the endpoint map from the coordination service when
// the cache has outlived its TTL. Leaf resources (makes_remote_calls=false)
// and unconfigured registries skip the call entirely. Coordination failures
// never propagate: the map is cleared so routing degrades to "URL unknown"
// and loadedAt is left alone so the next call tries again.
func (r *Registry) EnsureFresh(ctx context.Context) {
	logger := ctxlog.FromContext(ctx)

	if !r.makesRemoteCalls {
		return
	}
	if r.client == nil || r.envID == "" {
		logger.Debug("state manager not configured, skipping endpoint refresh")
		return
	}
	if r.now().Sub(r.freshLoadedAt()) <= r.cacheTTL {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Re-check under the lock: a concurrent caller may have refreshed
	// while we waited. Holding the lock across the fetch makes every
	// other stale caller block and then observe the new map.
	if r.now().Sub(r.loadedAt) <= r.cacheTTL {
		return
	}

	m, err := r.client.GetPersistedManifest(ctx, r.envID)
	if err != nil {
		var unavailable *statesync.ServiceUnavailableError
		var malformed *statesync.MalformedStateError
		switch {
		case errors.As(err, &unavailable):
			logger.Warn("state manager unavailable, cross-endpoint routing degraded", "error", err)
		case errors.As(err, &malformed):
			logger.Warn("persisted state unusable, cross-endpoint routing degraded", "error", err)
		default:
			logger.Warn("endpoint refresh failed", "error", err)
		}
		// Fail open: an empty map says "not yet known", which beats
		// serving stale URLs as if they were fresh. loadedAt stays put so
		// the next query retries instead of trusting the empty map.
		r.endpoints = map[string]string{}
		return
	}

	r.endpoints = statesync.ResourceEndpoints(m)
	r.loadedAt = r.now()
	logger.Debug("endpoint registry refreshed",
		"endpoints", len(r.endpoints), "cache_ttl", r.cacheTTL)
}

func (r *Registry) freshLoadedAt() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loadedAt
}

// ForceRefresh invalidates the cache; the next EnsureFresh refetches
// regardless of TTL.
func (r *Registry) ForceRefresh() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loadedAt = time.Time{}
}

// Resolve answers the routing question for one function (or class) name.
// The result is a value, not an error: "not in manifest" is an expected
// outcome that callers branch on, not an exception.
func (r *Registry) Resolve(ctx context.Context, name string) Decision {
	r.EnsureFresh(ctx)

	owner, ok := r.manifest.OwnerOf(name)
	if !ok {
		return Decision{Kind: Unknown}
	}
	if owner == r.identity {
		return Decision{Kind: Local}
	}

	r.mu.Lock()
	url := r.endpoints[owner]
	r.mu.Unlock()

	info := &RoutingInfo{
		ResourceName: owner,
		EndpointURL:  url,
	}
	if rc, ok := r.manifest.Resources[owner]; ok && rc.IsLoadBalanced {
		info.IsLoadBalanced = true
		if meta := rc.Function(name); meta != nil {
			info.HTTPMethod = meta.HTTPMethod
			info.HTTPPath = meta.HTTPPath
		}
	}
	if url == "" {
		logger := ctxlog.FromContext(ctx)
		logger.Debug("endpoint URL not yet known", "resource", owner)
	}
	return Decision{Kind: Remote, Info: info}
}

// EndpointFor returns the cached URL for a remote function, mirroring
// Resolve but collapsed to the URL. Local and unknown names return "".
func (r *Registry) EndpointFor(ctx context.Context, name string) (string, Decision) {
	d := r.Resolve(ctx, name)
	if d.Kind != Remote {
		return "", d
	}
	return d.Info.EndpointURL, d
}

// ResourceFunctions lists the function metadata for one resource, or nil
// when the resource is not in the manifest.
func (r *Registry) ResourceFunctions(resource string) []manifest.FunctionMetadata {
	rc, ok := r.manifest.Resources[resource]
	if !ok {
		return nil
	}
	return rc.Functions
}
