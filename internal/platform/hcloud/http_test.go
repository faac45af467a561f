package hcloud

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/imamik/shepherd/internal/config"
)

// testServer mocks the subset of the Hetzner Cloud API the provider uses.
type testServer struct {
	server *httptest.Server
	mux    *http.ServeMux

	mu      sync.Mutex
	servers map[int64]map[string]any
	calls   map[string]int
	// status overrides every response with an error of this HTTP status.
	status int
	code   string
}

// newTestServer creates a new test server for mocking the Hetzner Cloud API.
func newTestServer(t *testing.T) *testServer {
	t.Helper()

	ts := &testServer{
		mux:     http.NewServeMux(),
		servers: make(map[int64]map[string]any),
		calls:   make(map[string]int),
	}
	ts.mux.HandleFunc("GET /locations", ts.handleLocations)
	ts.mux.HandleFunc("GET /servers/{id}", ts.handleGetServer)
	ts.mux.HandleFunc("DELETE /servers/{id}", ts.handleDeleteServer)
	ts.mux.HandleFunc("POST /servers/{id}/actions/{command}", ts.handleAction)
	ts.mux.HandleFunc("GET /networks/{id}", ts.handleGetNetwork)
	ts.server = httptest.NewServer(ts.mux)
	t.Cleanup(ts.server.Close)
	return ts
}

// client returns a provider that talks to the test server.
func (ts *testServer) client(t *testing.T, opts ...ClientOption) *Client {
	t.Helper()

	opts = append([]ClientOption{
		WithHCloudClient(hcloud.NewClient(
			hcloud.WithToken("test-token"),
			hcloud.WithEndpoint(ts.server.URL),
		)),
		WithTimeouts(&config.Timeouts{
			API:               5 * time.Second,
			RetryMaxAttempts:  1,
			RetryInitialDelay: time.Millisecond,
		}),
	}, opts...)

	c, err := New(context.Background(), "", opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func (ts *testServer) addServer(id int64, status, location string) map[string]any {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	s := map[string]any{
		"id":      id,
		"name":    fmt.Sprintf("server-%d", id),
		"status":  status,
		"created": "2024-03-01T12:30:00+00:00",
		"public_net": map[string]any{
			"ipv4": map[string]any{"ip": "203.0.113.9", "dns_ptr": "db1.example.com"},
			"ipv6": map[string]any{"ip": "2001:db8::/64"},
		},
		"private_net": []map[string]any{{"network": 7, "ip": "10.0.0.2"}},
		"server_type": map[string]any{"id": 1, "name": "cx22"},
		"datacenter": map[string]any{
			"id":       1,
			"name":     location + "-dc14",
			"location": map[string]any{"id": 1, "name": location},
		},
		"image": map[string]any{"id": 114690387, "name": "ubuntu-24.04"},
	}
	ts.servers[id] = s
	return s
}

func (ts *testServer) statusOf(id int64) string {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if s, ok := ts.servers[id]; ok {
		return s["status"].(string)
	}
	return ""
}

func (ts *testServer) callCount(name string) int {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.calls[name]
}

func (ts *testServer) failWith(status int, code string) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.status, ts.code = status, code
}

// failed writes the configured error response, if any.
func (ts *testServer) failed(w http.ResponseWriter) bool {
	if ts.status == 0 {
		return false
	}
	errorResponse(w, ts.status, ts.code)
	return true
}

func (ts *testServer) handleLocations(w http.ResponseWriter, _ *http.Request) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.calls["locations"]++
	if ts.failed(w) {
		return
	}
	jsonResponse(w, http.StatusOK, map[string]any{
		"locations": []map[string]any{{"id": 1, "name": "nbg1"}, {"id": 2, "name": "fsn1"}},
		"meta": map[string]any{"pagination": map[string]any{
			"page": 1, "per_page": 50, "previous_page": nil, "next_page": nil, "last_page": 1, "total_entries": 2,
		}},
	})
}

func (ts *testServer) server404(w http.ResponseWriter) {
	errorResponse(w, http.StatusNotFound, "not_found")
}

func (ts *testServer) lookup(w http.ResponseWriter, r *http.Request) (int64, map[string]any, bool) {
	id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
	s, ok := ts.servers[id]
	if !ok {
		ts.server404(w)
	}
	return id, s, ok
}

func (ts *testServer) handleGetServer(w http.ResponseWriter, r *http.Request) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.calls["get"]++
	if ts.failed(w) {
		return
	}
	if _, s, ok := ts.lookup(w, r); ok {
		jsonResponse(w, http.StatusOK, map[string]any{"server": s})
	}
}

func (ts *testServer) handleDeleteServer(w http.ResponseWriter, r *http.Request) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.calls["delete"]++
	if ts.failed(w) {
		return
	}
	if id, _, ok := ts.lookup(w, r); ok {
		delete(ts.servers, id)
		jsonResponse(w, http.StatusOK, map[string]any{"action": action("delete_server")})
	}
}

var commandStatus = map[string]string{
	"poweron":  "running",
	"shutdown": "off",
	"reboot":   "running",
}

func (ts *testServer) handleAction(w http.ResponseWriter, r *http.Request) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	command := r.PathValue("command")
	ts.calls[command]++
	if ts.failed(w) {
		return
	}
	if _, s, ok := ts.lookup(w, r); ok {
		s["status"] = commandStatus[command]
		jsonResponse(w, http.StatusCreated, map[string]any{"action": action(command)})
	}
}

func (ts *testServer) handleGetNetwork(w http.ResponseWriter, r *http.Request) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.calls["network"]++
	if r.PathValue("id") != "7" {
		errorResponse(w, http.StatusNotFound, "not_found")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]any{"network": map[string]any{"id": 7, "name": "backend", "ip_range": "10.0.0.0/16"}})
}

func action(command string) map[string]any {
	return map[string]any{
		"id": 1, "command": command, "status": "running", "progress": 0,
		"started": "2024-03-01T12:30:00+00:00", "finished": nil, "resources": []any{}, "error": nil,
	}
}

// jsonResponse writes a JSON response with the given status code and body.
func jsonResponse(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}

func errorResponse(w http.ResponseWriter, statusCode int, code string) {
	jsonResponse(w, statusCode, map[string]any{"error": map[string]any{"code": code, "message": code}})
}
