package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"redis-server/internal/health"
	"redis-server/internal/logs"
	"redis-server/internal/metrics"
	"redis-server/internal/server"
	"redis-server/internal/store"
)

// Handler holds dependencies for the debug HTTP handlers.
//
// The debug interface is observability only. Keys are reachable solely
// through the client protocol; nothing here reads or writes the data.
type Handler struct {
	store    *store.Store
	metrics  *metrics.Registry
	logger   *logs.Logger
	analyzer *health.Analyzer
	clients  *server.Registry
	started  time.Time
}

// NewHandler creates a new debug API handler.
func NewHandler(
	st *store.Store,
	reg *metrics.Registry,
	logger *logs.Logger,
	clients *server.Registry,
) *Handler {
	return &Handler{
		store:    st,
		metrics:  reg,
		logger:   logger,
		analyzer: health.NewAnalyzer(reg, logger),
		clients:  clients,
		started:  time.Now(),
	}
}

/* ---------------- GET /metrics ---------------- */

func (h *Handler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.metrics.Snapshot())
}

/* ---------------- GET /health ---------------- */

func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.analyzer.Analyze())
}

/* ---------------- GET /stats ---------------- */

type statsResponse struct {
	UptimeSeconds    int64               `json:"uptime_seconds"`
	ResidentKeys     int                 `json:"resident_keys"`
	ConnectedClients int                 `json:"connected_clients"`
	Clients          []server.ClientInfo `json:"clients"`
}

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, statsResponse{
		UptimeSeconds:    int64(time.Since(h.started).Seconds()),
		ResidentKeys:     h.store.Len(),
		ConnectedClients: h.clients.Count(),
		Clients:          h.clients.Snapshot(),
	})
}

/* ---------------- GET /logs?n= ---------------- */

func (h *Handler) GetLogs(w http.ResponseWriter, r *http.Request) {
	n := 100
	if raw := r.URL.Query().Get("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			http.Error(w, "n must be a positive integer", http.StatusBadRequest)
			return
		}
		n = parsed
	}
	if n > 1000 {
		n = 1000
	}

	writeJSON(w, h.logger.GetLast(n))
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
