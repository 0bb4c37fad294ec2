// Package v1 provides the REST handlers for the synchronizer's
// operator API.
package v1

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/daaslabs/indexsync/internal/status"
	"github.com/daaslabs/indexsync/internal/sync/coordinator"
	"github.com/daaslabs/indexsync/internal/versions"
)

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusListResponse wraps the per-domain status list
type StatusListResponse struct {
	Domains []status.DomainStatus `json:"domains"`
}

// Routes defines the routes for the operator API with dependency injection
type Routes struct {
	tracker *status.Tracker
	coord   coordinator.Coordinator
}

// NewRoutes creates a new Routes instance
func NewRoutes(tracker *status.Tracker, coord coordinator.Coordinator) *Routes {
	return &Routes{
		tracker: tracker,
		coord:   coord,
	}
}

// Router creates a new router for the operator API
func Router(tracker *status.Tracker, coord coordinator.Coordinator) http.Handler {
	routes := NewRoutes(tracker, coord)

	r := chi.NewRouter()

	r.Get("/status", routes.listStatus)
	r.Get("/status/{domain}", routes.getStatus)
	r.Post("/domains/{domain}/load", routes.triggerLoad)

	return r
}

// listStatus handles GET /v1/status
func (rr *Routes) listStatus(w http.ResponseWriter, _ *http.Request) {
	rr.writeJSONResponse(w, StatusListResponse{Domains: rr.tracker.List()})
}

// getStatus handles GET /v1/status/{domain}
func (rr *Routes) getStatus(w http.ResponseWriter, r *http.Request) {
	domain := chi.URLParam(r, "domain")
	st, ok := rr.tracker.Get(domain)
	if !ok {
		rr.writeErrorResponse(w, "unknown domain: "+domain, http.StatusNotFound)
		return
	}
	rr.writeJSONResponse(w, st)
}

// triggerLoad handles POST /v1/domains/{domain}/load. Without query
// parameters it runs a full load; with from and to (RFC 3339) it
// re-indexes only that modification window. The load runs to
// completion before the response is written.
func (rr *Routes) triggerLoad(w http.ResponseWriter, r *http.Request) {
	domain := chi.URLParam(r, "domain")

	fromRaw := r.URL.Query().Get("from")
	toRaw := r.URL.Query().Get("to")
	if (fromRaw == "") != (toRaw == "") {
		rr.writeErrorResponse(w, "from and to must be provided together", http.StatusBadRequest)
		return
	}

	if fromRaw == "" {
		result, err := rr.coord.TriggerFullLoad(r.Context(), domain)
		if err != nil {
			slog.Error("Full load failed", "domain", domain, "error", err)
			rr.writeErrorResponse(w, err.Error(), http.StatusInternalServerError)
			return
		}
		rr.writeJSONResponse(w, result)
		return
	}

	from, err := time.Parse(time.RFC3339, fromRaw)
	if err != nil {
		rr.writeErrorResponse(w, "invalid from timestamp: "+err.Error(), http.StatusBadRequest)
		return
	}
	to, err := time.Parse(time.RFC3339, toRaw)
	if err != nil {
		rr.writeErrorResponse(w, "invalid to timestamp: "+err.Error(), http.StatusBadRequest)
		return
	}

	var step time.Duration
	if stepRaw := r.URL.Query().Get("step"); stepRaw != "" {
		step, err = time.ParseDuration(stepRaw)
		if err != nil {
			rr.writeErrorResponse(w, "invalid step duration: "+err.Error(), http.StatusBadRequest)
			return
		}
	}

	result, err := rr.coord.TriggerWindowLoad(r.Context(), domain, from, to, step)
	if err != nil {
		slog.Error("Window load failed", "domain", domain, "error", err)
		rr.writeErrorResponse(w, err.Error(), http.StatusInternalServerError)
		return
	}
	rr.writeJSONResponse(w, result)
}

// HealthRouter creates a router for health check endpoints
func HealthRouter(tracker *status.Tracker) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", healthHandler)
	r.Get("/readiness", readinessHandler(tracker))
	r.Get("/version", versionHandler)

	return r
}

// healthHandler handles health check requests
func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy"}`))
}

// readinessHandler reports ready once every domain has finished its
// startup drain and none has failed.
func readinessHandler(tracker *status.Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		for _, st := range tracker.List() {
			switch st.Phase {
			case status.PhaseFailed:
				writeUnready(w, "domain "+st.Domain+" failed: "+st.Message)
				return
			case status.PhaseStarting, status.PhaseRecovering:
				writeUnready(w, "domain "+st.Domain+" is still "+string(st.Phase))
				return
			}
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ready"}`))
	}
}

func writeUnready(w http.ResponseWriter, reason string) {
	w.WriteHeader(http.StatusServiceUnavailable)
	if err := json.NewEncoder(w).Encode(ErrorResponse{Error: reason}); err != nil {
		slog.Error("Failed to encode readiness response", "error", err)
	}
}

// versionHandler handles version information requests
func versionHandler(w http.ResponseWriter, _ *http.Request) {
	info := versions.GetVersionInfo()

	response := map[string]string{
		"version":    info.Version,
		"commit":     info.Commit,
		"build_date": info.BuildDate,
		"go_version": info.GoVersion,
		"platform":   info.Platform,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.Error("Failed to encode version info", "error", err)
	}
}

// writeJSONResponse writes a JSON response with the given data
func (*Routes) writeJSONResponse(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to encode JSON response", "error", err)
	}
}

// writeErrorResponse writes a standardized error response
func (*Routes) writeErrorResponse(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(ErrorResponse{Error: message}); err != nil {
		slog.Error("Failed to encode error response", "error", err)
	}
}
