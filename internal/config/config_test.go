package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vk/fnmesh/internal/config"
)

func writeOptions(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, config.FileName)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	// --- Act ---
	cfg, err := config.Load(context.Background(), filepath.Join(t.TempDir(), "absent.hcl"))

	// --- Assert ---
	require.Error(t, err)

	cfg, err = config.Load(context.Background(), "")
	require.NoError(t, err)
	require.Equal(t, config.DefaultMaxRetries, cfg.StateManager.MaxRetries)
	require.Equal(t, config.DefaultTimeout, cfg.StateManager.Timeout)
	require.Equal(t, config.DefaultCacheTTL, cfg.Routing.CacheTTL)
	require.Equal(t, config.DefaultListen, cfg.Server.Listen)
	require.Equal(t, "info", cfg.Log.Level)
	require.Equal(t, "text", cfg.Log.Format)
}

func TestLoad_FileValuesOverrideDefaults(t *testing.T) {
	// --- Arrange ---
	path := writeOptions(t, `
		state_manager {
			url             = "https://coord.example.test/graphql"
			max_retries     = 5
			timeout_seconds = 10
		}

		routing {
			identity          = "cpuConfig"
			cache_ttl_seconds = 60
		}

		server {
			listen = ":9000"
		}

		log {
			level  = "debug"
			format = "json"
		}
	`)

	// --- Act ---
	cfg, err := config.Load(context.Background(), path)

	// --- Assert ---
	require.NoError(t, err)
	require.Equal(t, "https://coord.example.test/graphql", cfg.StateManager.URL)
	require.Equal(t, 5, cfg.StateManager.MaxRetries)
	require.Equal(t, 10*time.Second, cfg.StateManager.Timeout)
	require.Equal(t, "cpuConfig", cfg.Routing.Identity)
	require.Equal(t, time.Minute, cfg.Routing.CacheTTL)
	require.Equal(t, ":9000", cfg.Server.Listen)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	// --- Arrange ---
	path := writeOptions(t, `
		state_manager {
			url     = "https://file.example.test"
			api_key = "from-file"
		}
	`)
	t.Setenv(config.StateURLEnvVar, "https://env.example.test")
	t.Setenv("FNMESH_API_KEY", "from-env")
	t.Setenv("FNMESH_ENVIRONMENT_ID", "env-42")
	t.Setenv("FNMESH_RESOURCE_NAME", "gpuConfig")

	// --- Act ---
	cfg, err := config.Load(context.Background(), path)

	// --- Assert ---
	require.NoError(t, err)
	require.Equal(t, "https://env.example.test", cfg.StateManager.URL)
	require.Equal(t, "from-env", cfg.StateManager.APIKey)
	require.Equal(t, "env-42", cfg.StateManager.EnvironmentID)
	require.Equal(t, "gpuConfig", cfg.Routing.Identity)
}

func TestLoad_AttributesBlockDecodesToPlainValues(t *testing.T) {
	path := writeOptions(t, `
		attributes {
			team     = "ml-infra"
			replicas = 4
			ratio    = 0.25
			canary   = true
			regions  = ["us-east", "eu-west"]
		}
	`)

	cfg, err := config.Load(context.Background(), path)

	require.NoError(t, err)
	require.Equal(t, map[string]any{
		"team":     "ml-infra",
		"replicas": int64(4),
		"ratio":    0.25,
		"canary":   true,
		"regions":  []any{"us-east", "eu-west"},
	}, cfg.Attributes)
}

func TestLoad_MalformedFileFails(t *testing.T) {
	path := writeOptions(t, `state_manager { url = `)

	_, err := config.Load(context.Background(), path)

	require.Error(t, err)
}
