package api

import "net/http"

func RegisterRoutes(mux *http.ServeMux, h *Handler) http.Handler {
	// Observability APIs
	mux.HandleFunc("/metrics", h.GetMetrics)
	mux.HandleFunc("/health", h.GetHealth)
	mux.HandleFunc("/stats", h.GetStats)
	mux.HandleFunc("/logs", h.GetLogs)

	// Middlewares
	return Chain(
		mux,
		Recovery(h.logger),
		Logging(h.logger),
	)
}
