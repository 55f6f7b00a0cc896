package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter constructs a ServeMux with operator API routes registered.
func NewRouter(h *Handler) http.Handler {
	mux := http.NewServeMux()

	// Health and instrumentation
	mux.HandleFunc("/healthz", h.HealthCheck)
	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/api/v1/status", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			h.GetStatus(w, r)
		} else {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	mux.HandleFunc("/api/v1/events", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			h.ListEvents(w, r)
		} else {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	mux.HandleFunc("/api/v1/events/stats", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			h.GetEventStats(w, r)
		} else {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	mux.HandleFunc("/api/v1/config/reload", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			h.ReloadConfig(w, r)
		} else {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	mux.HandleFunc("/api/v1/users/", func(w http.ResponseWriter, r *http.Request) {
		userID, action, ok := userRoute(r.URL.Path)
		if !ok {
			http.Error(w, "User ID required", http.StatusBadRequest)
			return
		}

		switch {
		// GET /api/v1/users/:id
		case action == "" && r.Method == http.MethodGet:
			h.ScanUser(w, r, userID)
		// POST /api/v1/users/:id/warn
		case action == "warn" && r.Method == http.MethodPost:
			h.WarnUser(w, r, userID)
		// POST /api/v1/users/:id/timeout
		case action == "timeout" && r.Method == http.MethodPost:
			h.TimeoutUser(w, r, userID)
		// DELETE /api/v1/users/:id/suspicion
		case action == "suspicion" && r.Method == http.MethodDelete:
			h.ClearSuspicion(w, r, userID)
		default:
			http.Error(w, "Not found", http.StatusNotFound)
		}
	})

	return mux
}
