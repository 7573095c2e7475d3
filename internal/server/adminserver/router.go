package adminserver

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/yndnr/meshterm/internal/infra/buildinfo"
	"github.com/yndnr/meshterm/internal/mesh"
)

// StatusSource reports the local node state.
type StatusSource interface {
	Status() mesh.Status
	Neighbors() []mesh.Neighbor
}

// RouterConfig holds configuration for the admin router.
type RouterConfig struct {
	// Source provides node status. Required.
	Source StatusSource

	// Metrics serves /metrics. Nil disables the route.
	Metrics http.Handler

	// Logger for request logging.
	Logger *slog.Logger
}

type handler struct {
	source  StatusSource
	started time.Time
}

// NewRouter creates the admin router with all routes and middleware.
func NewRouter(cfg *RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	h := &handler{source: cfg.Source, started: time.Now()}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(Recover(logger))
	r.Use(AccessLog(logger))

	r.Get("/healthz", h.handleHealth)
	r.Get("/readyz", h.handleReady)
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Get("/status", h.handleStatus)
		r.Get("/neighbors", h.handleNeighbors)
		r.Get("/version", h.handleVersion)
	})

	return r
}

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *handler) handleReady(w http.ResponseWriter, r *http.Request) {
	st := h.source.Status()
	if st.Addr.IsZero() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "starting"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ready",
		"neighbors": st.Neighbors,
	})
}

func (h *handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.source.Status())
}

func (h *handler) handleNeighbors(w http.ResponseWriter, r *http.Request) {
	neighbors := h.source.Neighbors()
	if neighbors == nil {
		neighbors = []mesh.Neighbor{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":     len(neighbors),
		"neighbors": neighbors,
	})
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, buildinfo.Get())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
