package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FileName is the manifest file written next to the deployed bundle at
// build time.
const FileName = "fnmesh_manifest.json"

// PathEnvVar overrides the manifest search list with an explicit path.
const PathEnvVar = "FNMESH_MANIFEST_PATH"

// FunctionMetadata describes one decorated function owned by a resource.
type FunctionMetadata struct {
	Name       string `json:"name"`
	Module     string `json:"module"`
	IsAsync    bool   `json:"is_async"`
	IsClass    bool   `json:"is_class,omitempty"`
	HTTPMethod string `json:"http_method,omitempty"`
	HTTPPath   string `json:"http_path,omitempty"`
}

// ResourceConfig is one resource entry in the manifest.
type ResourceConfig struct {
	ResourceType string             `json:"resource_type"`
	Functions    []FunctionMetadata `json:"functions"`
	// MakesRemoteCalls declares whether this resource ever resolves peers.
	// Leaf resources set it false to skip all coordination traffic.
	MakesRemoteCalls bool `json:"makes_remote_calls"`
	IsLoadBalanced   bool `json:"is_load_balanced,omitempty"`
}

// UnmarshalJSON defaults MakesRemoteCalls to true when the field is absent,
// so a resource with an older manifest is never starved of routing.
func (rc *ResourceConfig) UnmarshalJSON(data []byte) error {
	type alias ResourceConfig
	tmp := struct {
		*alias
		MakesRemoteCalls *bool `json:"makes_remote_calls"`
	}{alias: (*alias)(rc)}
	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}
	rc.MakesRemoteCalls = tmp.MakesRemoteCalls == nil || *tmp.MakesRemoteCalls
	return nil
}

// Function returns the metadata entry for the named function, or nil.
func (rc *ResourceConfig) Function(name string) *FunctionMetadata {
	for i := range rc.Functions {
		if rc.Functions[i].Name == name {
			return &rc.Functions[i]
		}
	}
	return nil
}

// Manifest maps functions to the resources that own them. It is loaded once
// per process from a static file and is read-only afterwards; the dynamic
// endpoint URLs live in the routing registry, not here.
type Manifest struct {
	Version            string                       `json:"version"`
	GeneratedAt        string                       `json:"generated_at"`
	ProjectName        string                       `json:"project_name"`
	FunctionRegistry   map[string]string            `json:"function_registry"`
	Resources          map[string]ResourceConfig    `json:"resources"`
	Routes             map[string]map[string]string `json:"routes,omitempty"`
	ResourcesEndpoints map[string]string            `json:"resources_endpoints,omitempty"`
}

// Empty returns a manifest with no functions. Routing stays disabled but
// every local call still works.
func Empty() *Manifest {
	return &Manifest{
		Version:          "1.0",
		FunctionRegistry: map[string]string{},
		Resources:        map[string]ResourceConfig{},
	}
}

// OwnerOf returns the resource that owns the named function.
func (m *Manifest) OwnerOf(function string) (string, bool) {
	name, ok := m.FunctionRegistry[function]
	return name, ok
}

// MakesRemoteCalls reports whether the named resource declares outbound
// cross-endpoint calls. Unknown resources default to true: starving an
// endpoint of routing is worse than one redundant coordination query.
func (m *Manifest) MakesRemoteCalls(resource string) bool {
	if resource == "" || len(m.Resources) == 0 {
		return true
	}
	rc, ok := m.Resources[resource]
	if !ok {
		return true
	}
	return rc.MakesRemoteCalls
}

// Load reads and parses a manifest file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes manifest JSON.
func Parse(data []byte) (*Manifest, error) {
	m := Empty()
	if err := json.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if m.FunctionRegistry == nil {
		m.FunctionRegistry = map[string]string{}
	}
	if m.Resources == nil {
		m.Resources = map[string]ResourceConfig{}
	}
	return m, nil
}

// Discover loads the manifest from the first usable path in the search
// list: the explicit path (if any), then PathEnvVar, then FileName next to
// the executable, then FileName in the working directory. A path that
// exists but fails to parse is skipped with a warning via warnf. When no
// path is usable Discover returns Empty(); a missing manifest disables
// cross-endpoint routing but is not an error.
func Discover(explicit string, warnf func(format string, args ...any)) *Manifest {
	if warnf == nil {
		warnf = func(string, ...any) {}
	}

	var paths []string
	if explicit != "" {
		paths = append(paths, explicit)
	}
	if envPath := os.Getenv(PathEnvVar); envPath != "" {
		paths = append(paths, envPath)
	}
	if exe, err := os.Executable(); err == nil {
		paths = append(paths, filepath.Join(filepath.Dir(exe), FileName))
	}
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, FileName))
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		m, err := Load(path)
		if err != nil {
			warnf("failed to load manifest from %s: %v", path, err)
			continue
		}
		return m
	}

	warnf("%s not found; cross-endpoint routing disabled", FileName)
	return Empty()
}
