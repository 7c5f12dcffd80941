/**
 * API Handlers.
 *
 * Defines HTTP handlers for the web dashboard API, exposing capture data
 * and system status to the frontend, plus the Prometheus scrape
 * endpoint and the WebSocket upgrade. Mirrors
 * original_source/services/api/main.py's open, unauthenticated surface
 * (/health, /ws, /v1/status) — write-side policy/discovery endpoints
 * from that control plane have no equivalent here since Shadow Hunter
 * exposes read-only telemetry, not a management API.
 *
 * Author: KleaSCM
 * Email: KleaSCM@gmail.com
 */

package api

import (
	"encoding/json"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kleaSCM/shadowhunter/internal/broadcast"
	"github.com/kleaSCM/shadowhunter/internal/pipeline"
)

// StatusSource reports point-in-time counters for the /v1/status
// handler. internal/pipeline.Pipeline satisfies this directly.
type StatusSource interface {
	EventCount() uint64
	GraphSnapshot() (nodes, edges int, err error)
}

// NewRouter assembles the dashboard/control HTTP surface: the
// Prometheus scrape endpoint, the WebSocket upgrade, and a couple of
// small JSON status endpoints for a frontend to poll.
func NewRouter(hub *broadcast.Hub, source StatusSource) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", handleHealth)
	mux.HandleFunc("/v1/status", handleStatus(hub, source))
	mux.HandleFunc("/ws", hub.ServeWS)
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"component": "shadowhunter",
	})
}

type statusResponse struct {
	EventsProcessed  uint64 `json:"events_processed"`
	GraphNodes       int    `json:"graph_nodes"`
	GraphEdges       int    `json:"graph_edges"`
	DashboardClients int    `json:"dashboard_clients"`
}

func handleStatus(hub *broadcast.Hub, source StatusSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		nodes, edges, err := source.GraphSnapshot()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, statusResponse{
			EventsProcessed:  source.EventCount(),
			GraphNodes:       nodes,
			GraphEdges:       edges,
			DashboardClients: hub.ClientCount(),
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// compile-time assertion that *pipeline.Pipeline satisfies StatusSource.
var _ StatusSource = (*pipeline.Pipeline)(nil)
