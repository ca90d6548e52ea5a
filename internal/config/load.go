package config

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/fnmesh/internal/ctxlog"
	"github.com/vk/fnmesh/internal/fsutil"
)

// hclFile mirrors the top-level structure of fnmesh.hcl for decoding.
type hclFile struct {
	StateManager *hclStateManager `hcl:"state_manager,block"`
	Routing      *hclRouting      `hcl:"routing,block"`
	Server       *hclServer       `hcl:"server,block"`
	Log          *hclLog          `hcl:"log,block"`
	Attributes   *hclAttributes   `hcl:"attributes,block"`
}

type hclStateManager struct {
	URL            string `hcl:"url,optional"`
	APIKey         string `hcl:"api_key,optional"`
	EnvironmentID  string `hcl:"environment_id,optional"`
	MaxRetries     int    `hcl:"max_retries,optional"`
	TimeoutSeconds int    `hcl:"timeout_seconds,optional"`
}

type hclRouting struct {
	Identity        string `hcl:"identity,optional"`
	ManifestPath    string `hcl:"manifest_path,optional"`
	CacheTTLSeconds int    `hcl:"cache_ttl_seconds,optional"`
}

type hclServer struct {
	Listen string `hcl:"listen,optional"`
}

type hclLog struct {
	Level  string `hcl:"level,optional"`
	Format string `hcl:"format,optional"`
}

type hclAttributes struct {
	Body hcl.Body `hcl:",remain"`
}

// Load reads the options file at path and merges env vars and defaults over
// it. An empty path triggers discovery; a missing file is not an error.
func Load(ctx context.Context, path string) (*Config, error) {
	logger := ctxlog.FromContext(ctx)
	cfg := Default()

	if path == "" {
		path = discover(ctx)
	}
	if path == "" {
		logger.Debug("no options file found, using defaults and environment")
	} else {
		if err := parseFile(path, cfg); err != nil {
			return nil, err
		}
		logger.Debug("options file loaded", "path", path)
	}

	cfg.applyEnv()
	cfg.normalize()
	return cfg, nil
}

// discover searches the working directory tree, then the executable's
// directory, for a file named fnmesh.hcl.
func discover(ctx context.Context) string {
	logger := ctxlog.FromContext(ctx)

	roots := []string{}
	if cwd, err := os.Getwd(); err == nil {
		roots = append(roots, cwd)
	}
	if exe, err := os.Executable(); err == nil {
		roots = append(roots, filepath.Dir(exe))
	}

	for _, root := range roots {
		direct := filepath.Join(root, FileName)
		if _, err := os.Stat(direct); err == nil {
			return direct
		}
		found, err := fsutil.FindNamedFile(root, FileName)
		if err != nil {
			logger.Debug("options file search failed", "root", root, "error", err)
			continue
		}
		if found != "" {
			return found
		}
	}
	return ""
}

func parseFile(path string, cfg *Config) error {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return fmt.Errorf("failed to parse options file %s: %w", path, diags)
	}

	var parsed hclFile
	if diags := gohcl.DecodeBody(file.Body, nil, &parsed); diags.HasErrors() {
		return fmt.Errorf("failed to decode options file %s: %w", path, diags)
	}

	if sm := parsed.StateManager; sm != nil {
		cfg.StateManager.URL = sm.URL
		cfg.StateManager.APIKey = sm.APIKey
		cfg.StateManager.EnvironmentID = sm.EnvironmentID
		cfg.StateManager.MaxRetries = sm.MaxRetries
		cfg.StateManager.Timeout = secondsDuration(sm.TimeoutSeconds)
	}
	if rt := parsed.Routing; rt != nil {
		cfg.Routing.Identity = rt.Identity
		cfg.Routing.ManifestPath = rt.ManifestPath
		cfg.Routing.CacheTTL = secondsDuration(rt.CacheTTLSeconds)
	}
	if srv := parsed.Server; srv != nil {
		cfg.Server.Listen = srv.Listen
	}
	if lg := parsed.Log; lg != nil {
		cfg.Log.Level = lg.Level
		cfg.Log.Format = lg.Format
	}
	if parsed.Attributes != nil {
		attrs, err := decodeAttributes(parsed.Attributes.Body)
		if err != nil {
			return fmt.Errorf("failed to decode attributes in %s: %w", path, err)
		}
		cfg.Attributes = attrs
	}
	return nil
}

// decodeAttributes evaluates every attribute of the free-form block into a
// plain Go value.
func decodeAttributes(body hcl.Body) (map[string]any, error) {
	attrs, diags := body.JustAttributes()
	if diags.HasErrors() {
		return nil, diags
	}
	out := make(map[string]any, len(attrs))
	for name, attr := range attrs {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, diags
		}
		out[name] = goValue(val)
	}
	return out, nil
}

// goValue lowers a cty.Value into the native Go shape JSON encoders expect.
func goValue(v cty.Value) any {
	if v.IsNull() {
		return nil
	}
	t := v.Type()
	switch {
	case t == cty.String:
		return v.AsString()
	case t == cty.Bool:
		return v.True()
	case t == cty.Number:
		bf := v.AsBigFloat()
		if i, acc := bf.Int64(); acc == big.Exact {
			return i
		}
		f, _ := bf.Float64()
		return f
	case t.IsTupleType() || t.IsListType() || t.IsSetType():
		var list []any
		for it := v.ElementIterator(); it.Next(); {
			_, ev := it.Element()
			list = append(list, goValue(ev))
		}
		return list
	case t.IsObjectType() || t.IsMapType():
		m := map[string]any{}
		for it := v.ElementIterator(); it.Next(); {
			kv, ev := it.Element()
			m[kv.AsString()] = goValue(ev)
		}
		return m
	default:
		return v.GoString()
	}
}

func secondsDuration(s int) time.Duration {
	if s <= 0 {
		return 0
	}
	return time.Duration(s) * time.Second
}
