package lbserver

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vk/fnmesh/internal/apikey"
	"github.com/vk/fnmesh/internal/ctxlog"
	"github.com/vk/fnmesh/internal/version"
)

// RouteKey identifies one user route.
type RouteKey struct {
	Method string
	Path   string
}

// RouteRegistry maps (method, path) pairs to their handlers, as collected
// from the load-balanced resource's function metadata.
type RouteRegistry map[RouteKey]gin.HandlerFunc

// Options configures the HTTP app factory.
type Options struct {
	// Identity labels health output and metrics.
	Identity string
	// Attributes is free-form deployment metadata echoed on /health.
	Attributes map[string]any
	// Registry receives the request metrics; nil allocates a private one.
	Registry *prometheus.Registry
}

var modeOnce sync.Once

var supportedMethods = map[string]bool{
	http.MethodGet:    true,
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodDelete: true,
	http.MethodPatch:  true,
}

// New builds the gin application for a load-balanced endpoint: bearer-token
// extraction, request metrics, /health, /metrics, then every user route.
// Routes with unsupported methods are logged and skipped rather than
// failing the whole endpoint.
func New(ctx context.Context, routes RouteRegistry, opts Options) *gin.Engine {
	logger := ctxlog.FromContext(ctx)

	reg := opts.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := newMetrics(reg)

	modeOnce.Do(func() { gin.SetMode(gin.ReleaseMode) })
	app := gin.New()
	app.Use(gin.Recovery())
	app.Use(bearerToContext())
	app.Use(m.middleware(opts.Identity))

	app.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":     "healthy",
			"identity":   opts.Identity,
			"version":    version.Version,
			"attributes": opts.Attributes,
		})
	})
	app.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	for key, handler := range routes {
		method := strings.ToUpper(key.Method)
		if !supportedMethods[method] {
			logger.Warn("unsupported HTTP method for route, skipping",
				"method", key.Method, "path", key.Path)
			continue
		}
		app.Handle(method, key.Path, handler)
	}

	return app
}

// bearerToContext lifts the Authorization bearer token into the request
// context so downstream cross-endpoint calls reuse the caller's credential.
func bearerToContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
			token = strings.TrimSpace(token)
			if token != "" {
				ctx := apikey.WithKey(c.Request.Context(), token)
				c.Request = c.Request.WithContext(ctx)
			}
		}
		c.Next()
	}
}
