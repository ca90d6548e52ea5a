package httpx

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewClient_InjectsHeaders(t *testing.T) {
	t.Parallel()

	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
	}))
	defer srv.Close()

	client := NewClient("sk-test", 0)
	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	resp.Body.Close()

	require.Equal(t, "Bearer sk-test", got.Get("Authorization"))
	require.Equal(t, "application/json", got.Get("Content-Type"))
	require.True(t, strings.HasPrefix(got.Get("User-Agent"), "fnmesh/"))
}

func TestNewClient_NoKeyNoAuthHeader(t *testing.T) {
	t.Parallel()

	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
	}))
	defer srv.Close()

	client := NewClient("", 0)
	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	resp.Body.Close()

	require.Empty(t, got.Get("Authorization"))
}

func TestNewClient_ExplicitAuthKept(t *testing.T) {
	t.Parallel()

	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
	}))
	defer srv.Close()

	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer caller-key")

	resp, err := NewClient("sk-test", 0).Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	require.Equal(t, "Bearer caller-key", got.Get("Authorization"))
}
