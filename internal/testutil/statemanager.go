// Package testutil provides shared test fixtures: a fake coordination
// service, a thread-safe log buffer, and canned manifests.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
)

// FakeStateManager is an in-memory coordination service for tests. It
// serves the environment/build query chain and the manifest mutation over
// the same wire envelope the real service uses.
type FakeStateManager struct {
	srv *httptest.Server

	mu            sync.Mutex
	activeBuildID string
	manifest      map[string]any

	envCalls   int
	buildCalls int
	mutations  int

	// FailStatus, when non-zero, makes every request answer that HTTP
	// status instead of data.
	FailStatus int
	// GraphQLErr, when non-empty, makes every request answer a
	// server-reported error envelope.
	GraphQLErr string

	// inFlight tracks read-modify-write cycles between the environment
	// query and the mutation, to detect interleaved writers.
	inFlight    int
	maxInFlight int
}

// NewFakeStateManager starts the fake with the given persisted manifest.
// An empty buildID simulates an environment with no active build.
func NewFakeStateManager(buildID string, manifest map[string]any) *FakeStateManager {
	f := &FakeStateManager{activeBuildID: buildID, manifest: manifest}
	f.srv = httptest.NewServer(http.HandlerFunc(f.handle))
	return f
}

// URL is the fake's query endpoint.
func (f *FakeStateManager) URL() string { return f.srv.URL }

// Close shuts the fake down.
func (f *FakeStateManager) Close() { f.srv.Close() }

// Requests returns the per-operation call counts.
func (f *FakeStateManager) Requests() (env, build, mutations int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.envCalls, f.buildCalls, f.mutations
}

// Manifest returns a deep copy of the currently persisted manifest.
func (f *FakeStateManager) Manifest() map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	raw, _ := json.Marshal(f.manifest)
	var out map[string]any
	_ = json.Unmarshal(raw, &out)
	return out
}

// SetManifest replaces the persisted manifest.
func (f *FakeStateManager) SetManifest(m map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.manifest = m
}

// MaxConcurrentWrites reports the largest number of read-modify-write
// cycles ever observed in flight at once.
func (f *FakeStateManager) MaxConcurrentWrites() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.maxInFlight
}

func (f *FakeStateManager) handle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query     string         `json:"query"`
		Variables map[string]any `json:"variables"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.FailStatus != 0 {
		f.countLocked(req.Query)
		http.Error(w, "injected failure", f.FailStatus)
		return
	}
	if f.GraphQLErr != "" {
		f.countLocked(req.Query)
		writeJSON(w, map[string]any{
			"errors": []map[string]any{{"message": f.GraphQLErr}},
		})
		return
	}

	switch {
	case strings.Contains(req.Query, "environment("):
		f.envCalls++
		f.inFlight++
		if f.inFlight > f.maxInFlight {
			f.maxInFlight = f.inFlight
		}
		env := map[string]any{}
		if f.activeBuildID != "" {
			env["activeBuildId"] = f.activeBuildID
		}
		writeJSON(w, map[string]any{"data": map[string]any{"environment": env}})

	case strings.Contains(req.Query, "build("):
		f.buildCalls++
		writeJSON(w, map[string]any{"data": map[string]any{
			"build": map[string]any{"id": f.activeBuildID, "manifest": f.manifest},
		}})

	case strings.Contains(req.Query, "updateBuildManifest("):
		f.mutations++
		if f.inFlight > 0 {
			f.inFlight--
		}
		if m, ok := req.Variables["manifest"].(map[string]any); ok {
			f.manifest = m
		}
		writeJSON(w, map[string]any{"data": map[string]any{
			"updateBuildManifest": map[string]any{"id": f.activeBuildID},
		}})

	default:
		http.Error(w, "unknown query", http.StatusBadRequest)
	}
}

func (f *FakeStateManager) countLocked(query string) {
	switch {
	case strings.Contains(query, "environment("):
		f.envCalls++
	case strings.Contains(query, "build("):
		f.buildCalls++
	case strings.Contains(query, "updateBuildManifest("):
		f.mutations++
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
