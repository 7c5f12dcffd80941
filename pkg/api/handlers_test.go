package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kleaSCM/shadowhunter/internal/broadcast"
)

type fakeSource struct {
	events      uint64
	nodes       int
	edges       int
	snapshotErr error
}

func (f fakeSource) EventCount() uint64 { return f.events }
func (f fakeSource) GraphSnapshot() (int, int, error) {
	return f.nodes, f.edges, f.snapshotErr
}

func TestHealthReturnsOK(t *testing.T) {
	hub := broadcast.NewHub()
	router := NewRouter(hub, fakeSource{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("expected status ok, got %q", body["status"])
	}
}

func TestStatusReportsGraphAndClientCounts(t *testing.T) {
	hub := broadcast.NewHub()
	router := NewRouter(hub, fakeSource{events: 42, nodes: 7, edges: 3})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/status", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body statusResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.EventsProcessed != 42 || body.GraphNodes != 7 || body.GraphEdges != 3 {
		t.Errorf("unexpected status body: %+v", body)
	}
}

func TestStatusPropagatesSnapshotError(t *testing.T) {
	hub := broadcast.NewHub()
	router := NewRouter(hub, fakeSource{snapshotErr: errSnapshot})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/status", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500 on snapshot error, got %d", rec.Code)
	}
}

func TestMetricsEndpointIsRegistered(t *testing.T) {
	hub := broadcast.NewHub()
	router := NewRouter(hub, fakeSource{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("expected /metrics to respond 200, got %d", rec.Code)
	}
}

var errSnapshot = &snapshotError{"graph store unavailable"}

type snapshotError struct{ msg string }

func (e *snapshotError) Error() string { return e.msg }
