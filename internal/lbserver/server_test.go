package lbserver_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/vk/fnmesh/internal/apikey"
	"github.com/vk/fnmesh/internal/lbserver"
)

func serve(t *testing.T, app *gin.Engine, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)
	return rec
}

func TestNew_HealthReportsIdentityAndAttributes(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	app := lbserver.New(context.Background(), nil, lbserver.Options{
		Identity:   "lbConfig",
		Attributes: map[string]any{"team": "ml-infra"},
	})

	// --- Act ---
	rec := serve(t, app, http.MethodGet, "/health", nil)

	// --- Assert ---
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "healthy", body["status"])
	require.Equal(t, "lbConfig", body["identity"])
	require.Equal(t, map[string]any{"team": "ml-infra"}, body["attributes"])
}

func TestNew_RegistersUserRoutes(t *testing.T) {
	t.Parallel()

	routes := lbserver.RouteRegistry{
		{Method: "get", Path: "/report"}: func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"report": "ready"})
		},
		{Method: "POST", Path: "/score"}: func(c *gin.Context) {
			c.JSON(http.StatusCreated, gin.H{"scored": true})
		},
	}
	app := lbserver.New(context.Background(), routes, lbserver.Options{Identity: "lbConfig"})

	rec := serve(t, app, http.MethodGet, "/report", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "ready")

	rec = serve(t, app, http.MethodPost, "/score", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
}

func TestNew_UnsupportedMethodIsSkipped(t *testing.T) {
	t.Parallel()

	routes := lbserver.RouteRegistry{
		{Method: "TRACE", Path: "/debug"}: func(c *gin.Context) {
			c.Status(http.StatusOK)
		},
	}
	app := lbserver.New(context.Background(), routes, lbserver.Options{Identity: "lbConfig"})

	rec := serve(t, app, "TRACE", "/debug", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNew_BearerTokenReachesHandlerContext(t *testing.T) {
	t.Parallel()

	var seen string
	routes := lbserver.RouteRegistry{
		{Method: "GET", Path: "/whoami"}: func(c *gin.Context) {
			seen = apikey.FromContext(c.Request.Context())
			c.Status(http.StatusOK)
		},
	}
	app := lbserver.New(context.Background(), routes, lbserver.Options{Identity: "lbConfig"})

	serve(t, app, http.MethodGet, "/whoami", map[string]string{
		"Authorization": "Bearer secret-key ",
	})

	require.Equal(t, "secret-key", seen)
}

func TestNew_MetricsEndpointCountsRequests(t *testing.T) {
	t.Parallel()

	app := lbserver.New(context.Background(), nil, lbserver.Options{Identity: "lbConfig"})

	serve(t, app, http.MethodGet, "/health", nil)
	rec := serve(t, app, http.MethodGet, "/metrics", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, strings.Contains(rec.Body.String(), "fnmesh_http_requests_total"))
	require.Contains(t, rec.Body.String(), `path="/health"`)
}
