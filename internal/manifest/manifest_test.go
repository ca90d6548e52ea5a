package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

const sampleManifest = `{
	"version": "1.0",
	"generated_at": "2026-08-01T12:00:00Z",
	"project_name": "demo",
	"function_registry": {
		"gpuTask": "gpuConfig",
		"preprocess": "cpuConfig"
	},
	"resources": {
		"gpuConfig": {
			"resource_type": "ServerlessResource",
			"functions": [{"name": "gpuTask", "module": "tasks", "is_async": true}],
			"makes_remote_calls": true
		},
		"cpuConfig": {
			"resource_type": "LoadBalancerResource",
			"is_load_balanced": true,
			"functions": [
				{"name": "preprocess", "module": "tasks", "is_async": false,
				 "http_method": "POST", "http_path": "/api/preprocess"}
			],
			"makes_remote_calls": false
		}
	}
}`

func TestParse(t *testing.T) {
	t.Parallel()

	m, err := Parse([]byte(sampleManifest))
	require.NoError(t, err)

	require.Equal(t, "demo", m.ProjectName)

	owner, ok := m.OwnerOf("gpuTask")
	require.True(t, ok)
	require.Equal(t, "gpuConfig", owner)

	cpu := m.Resources["cpuConfig"]
	require.True(t, cpu.IsLoadBalanced)
	require.False(t, cpu.MakesRemoteCalls)

	meta := cpu.Function("preprocess")
	require.NotNil(t, meta)
	require.Equal(t, "POST", meta.HTTPMethod)
	require.Equal(t, "/api/preprocess", meta.HTTPPath)
}

func TestParse_MakesRemoteCallsDefaultsTrue(t *testing.T) {
	t.Parallel()

	m, err := Parse([]byte(`{
		"function_registry": {"f": "r"},
		"resources": {"r": {"resource_type": "ServerlessResource", "functions": []}}
	}`))
	require.NoError(t, err)
	require.True(t, m.Resources["r"].MakesRemoteCalls)
}

func TestParse_Invalid(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte(`{not json`))
	require.Error(t, err)
}

func TestMakesRemoteCalls_SafeDefaults(t *testing.T) {
	t.Parallel()

	m, err := Parse([]byte(sampleManifest))
	require.NoError(t, err)

	// Unknown resource and empty identity both fall back to true.
	require.True(t, m.MakesRemoteCalls("missing"))
	require.True(t, m.MakesRemoteCalls(""))
	require.True(t, Empty().MakesRemoteCalls("anything"))

	require.False(t, m.MakesRemoteCalls("cpuConfig"))
}

func TestDiscover_ExplicitPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "m.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleManifest), 0o644))

	m := Discover(path, t.Logf)
	require.Equal(t, "demo", m.ProjectName)
}

func TestDiscover_EnvVar(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "m.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleManifest), 0o644))
	t.Setenv(PathEnvVar, path)

	m := Discover("", t.Logf)
	require.Equal(t, "demo", m.ProjectName)
}

func TestDiscover_MissingFallsBackToEmpty(t *testing.T) {
	t.Setenv(PathEnvVar, filepath.Join(t.TempDir(), "nope.json"))

	m := Discover("", t.Logf)
	if diff := cmp.Diff(Empty(), m); diff != "" {
		t.Fatalf("expected empty manifest (-want +got):\n%s", diff)
	}
}

func TestDiscover_UnparsableSkipped(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{broken"), 0o644))
	t.Setenv(PathEnvVar, bad)

	var warned bool
	m := Discover("", func(string, ...any) { warned = true })
	require.True(t, warned)
	require.Empty(t, m.FunctionRegistry)
}
