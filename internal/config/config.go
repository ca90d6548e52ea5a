package config

import (
	"os"
	"time"

	"github.com/vk/fnmesh/internal/apikey"
	"github.com/vk/fnmesh/internal/manifest"
	"github.com/vk/fnmesh/internal/runtimeinfo"
)

// FileName is the options file searched for when no explicit path is given.
const FileName = "fnmesh.hcl"

// StateURLEnvVar overrides the coordination service URL.
const StateURLEnvVar = "FNMESH_STATE_URL"

const (
	// DefaultTimeout bounds each coordination round trip.
	DefaultTimeout = 30 * time.Second
	// DefaultMaxRetries is the attempt budget per coordination operation.
	DefaultMaxRetries = 3
	// DefaultCacheTTL is how long the routing endpoint map stays fresh.
	DefaultCacheTTL = 5 * time.Minute
	// DefaultListen is where the load-balanced HTTP app serves.
	DefaultListen = ":8080"
)

// StateManager configures the coordination service client.
type StateManager struct {
	URL           string
	APIKey        string
	EnvironmentID string
	MaxRetries    int
	Timeout       time.Duration
}

// Routing configures the endpoint registry.
type Routing struct {
	// Identity is the resource name this process runs as.
	Identity string
	// ManifestPath points at the build manifest; empty means the standard
	// search list.
	ManifestPath string
	CacheTTL     time.Duration
}

// Server configures the load-balanced HTTP app.
type Server struct {
	Listen string
}

// Log configures the slog handler.
type Log struct {
	Level  string
	Format string
}

// Config is the merged runtime configuration.
type Config struct {
	StateManager StateManager
	Routing      Routing
	Server       Server
	Log          Log
	// Attributes carries free-form key/values from the options file. They
	// are echoed on the health endpoint and never interpreted here.
	Attributes map[string]any
}

// Default returns a Config with every field at its default.
func Default() *Config {
	return &Config{
		StateManager: StateManager{
			MaxRetries: DefaultMaxRetries,
			Timeout:    DefaultTimeout,
		},
		Routing: Routing{
			CacheTTL: DefaultCacheTTL,
		},
		Server:     Server{Listen: DefaultListen},
		Log:        Log{Level: "info", Format: "text"},
		Attributes: map[string]any{},
	}
}

// applyEnv layers environment variables over file-provided values. Env wins:
// deployed endpoints are configured by their provider template, not by a
// file baked into the bundle.
func (c *Config) applyEnv() {
	if v := os.Getenv(StateURLEnvVar); v != "" {
		c.StateManager.URL = v
	}
	if v := os.Getenv(apikey.EnvVar); v != "" {
		c.StateManager.APIKey = v
	}
	if v := os.Getenv(runtimeinfo.EnvironmentIDEnvVar); v != "" {
		c.StateManager.EnvironmentID = v
	}
	if v := os.Getenv(manifest.PathEnvVar); v != "" {
		c.Routing.ManifestPath = v
	}
	if id := runtimeinfo.CurrentIdentity(); id != "" {
		c.Routing.Identity = id
	}
}

// normalize backfills zero values with defaults after merging.
func (c *Config) normalize() {
	if c.StateManager.MaxRetries <= 0 {
		c.StateManager.MaxRetries = DefaultMaxRetries
	}
	if c.StateManager.Timeout <= 0 {
		c.StateManager.Timeout = DefaultTimeout
	}
	if c.Routing.CacheTTL <= 0 {
		c.Routing.CacheTTL = DefaultCacheTTL
	}
	if c.Server.Listen == "" {
		c.Server.Listen = DefaultListen
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Attributes == nil {
		c.Attributes = map[string]any{}
	}
}
