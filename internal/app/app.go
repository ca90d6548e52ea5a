package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/vk/fnmesh/internal/config"
	"github.com/vk/fnmesh/internal/ctxlog"
	"github.com/vk/fnmesh/internal/dispatch"
	"github.com/vk/fnmesh/internal/httpx"
	"github.com/vk/fnmesh/internal/lbserver"
	"github.com/vk/fnmesh/internal/manifest"
	"github.com/vk/fnmesh/internal/resource"
	"github.com/vk/fnmesh/internal/routing"
	"github.com/vk/fnmesh/internal/statesync"
)

// AppConfig holds the command-line level settings for an App instance.
// File- and environment-provided options are layered underneath it.
type AppConfig struct {
	// ConfigPath points at an fnmesh.hcl options file; empty discovers.
	ConfigPath string
	// ManifestPath overrides the manifest search list.
	ManifestPath string
	// Listen overrides where the load-balanced HTTP app serves.
	Listen string

	LogFormat string
	LogLevel  string
}

// App encapsulates the runtime's dependencies and lifecycle.
type App struct {
	outW   io.Writer
	logger *slog.Logger
	cfg    *config.Config

	manifest *manifest.Manifest
	state    *statesync.Client
	registry *routing.Registry
	wrapper  *dispatch.Wrapper
	routes   lbserver.RouteRegistry
}

// NewApp is the constructor for the runtime. It returns a fully initialized
// App with its own isolated logger, loaded manifest, and routing registry.
// mgr may be nil when no queue-based dispatch is needed; routes may be nil
// when this endpoint serves no load-balanced functions.
func NewApp(outW io.Writer, appCfg *AppConfig, mgr resource.Manager, routes lbserver.RouteRegistry) *App {
	logger := newLogger(appCfg.LogLevel, appCfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	cfg, err := config.Load(ctx, appCfg.ConfigPath)
	if err != nil {
		// A failure to load config is a fatal startup error.
		panic(fmt.Errorf("failed to load configuration: %w", err))
	}
	if appCfg.LogLevel == "" {
		logger = newLogger(cfg.Log.Level, cfg.Log.Format, outW)
		ctx = ctxlog.WithLogger(context.Background(), logger)
	}
	if appCfg.ManifestPath != "" {
		cfg.Routing.ManifestPath = appCfg.ManifestPath
	}
	if appCfg.Listen != "" {
		cfg.Server.Listen = appCfg.Listen
	}
	logger.Debug("Configuration loaded.",
		"identity", cfg.Routing.Identity, "listen", cfg.Server.Listen)

	m := manifest.Discover(cfg.Routing.ManifestPath, func(format string, args ...any) {
		logger.Warn(fmt.Sprintf(format, args...))
	})
	logger.Debug("Manifest loaded.",
		"functions", len(m.FunctionRegistry), "resources", len(m.Resources))

	var state *statesync.Client
	var stateClient routing.StateClient
	if cfg.StateManager.URL != "" {
		state = statesync.New(statesync.Config{
			BaseURL:    cfg.StateManager.URL,
			APIKey:     cfg.StateManager.APIKey,
			MaxRetries: cfg.StateManager.MaxRetries,
			Timeout:    cfg.StateManager.Timeout,
		})
		stateClient = state
	} else {
		logger.Warn("state manager URL not configured, cross-endpoint routing disabled")
	}

	registry := routing.New(m, routing.Options{
		Identity:      cfg.Routing.Identity,
		EnvironmentID: cfg.StateManager.EnvironmentID,
		Client:        stateClient,
		CacheTTL:      cfg.Routing.CacheTTL,
	})

	if mgr == nil {
		mgr = unavailableManager{}
	}
	wrapper := dispatch.NewWrapper(registry, mgr,
		httpx.NewClient(cfg.StateManager.APIKey, cfg.StateManager.Timeout))

	return &App{
		outW:     outW,
		logger:   logger,
		cfg:      cfg,
		manifest: m,
		state:    state,
		registry: registry,
		wrapper:  wrapper,
		routes:   routes,
	}
}

// Wrapper returns the call wrapper decorated functions route through.
func (a *App) Wrapper() *dispatch.Wrapper { return a.wrapper }

// Registry returns the routing registry. This is primarily for testing.
func (a *App) Registry() *routing.Registry { return a.registry }

// StateClient returns the coordination client, or nil when unconfigured.
func (a *App) StateClient() *statesync.Client { return a.state }

// Config returns the merged runtime configuration.
func (a *App) Config() *config.Config { return a.cfg }

// unavailableManager rejects queue dispatch when no resource manager was
// wired at bootstrap.
type unavailableManager struct{}

func (unavailableManager) GetOrDeployResource(ctx context.Context, cfg resource.Config) (resource.Resource, error) {
	return nil, fmt.Errorf("no resource manager configured for %q", cfg.Name)
}
