// Package health exposes the gateway's liveness surface: application health
// independent of its dependencies, and a database connectivity probe.
package health

import (
	"encoding/json"
	"net/http"
	"time"

	"gorm.io/gorm"
)

// Status mirrors the original service's two-value health vocabulary.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
)

type applicationHealthResponse struct {
	Status      Status    `json:"status"`
	Application string    `json:"application"`
	Version     string    `json:"version"`
	Timestamp   time.Time `json:"timestamp"`
	Message     string    `json:"message"`
}

type databaseHealthResponse struct {
	Status   Status `json:"status"`
	Database string `json:"database"`
	Message  string `json:"message"`
}

// Handler serves /health and /health/db.
type Handler struct {
	appName string
	version string
	db      *gorm.DB // nil when DATABASE_URL was not configured
}

// NewHandler builds a Handler. db may be nil: the /health/db route then
// always reports unhealthy, since there is nothing configured to probe.
func NewHandler(appName, version string, db *gorm.DB) *Handler {
	return &Handler{appName: appName, version: version, db: db}
}

// Register mounts the handler's routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/health", h.handleApplication)
	mux.HandleFunc("GET /api/v1/health/db", h.handleDatabase)
}

// handleApplication reports the process is up, without touching any
// dependency.
func (h *Handler) handleApplication(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, applicationHealthResponse{
		Status:      StatusHealthy,
		Application: h.appName,
		Version:     h.version,
		Timestamp:   time.Now().UTC(),
		Message:     "Application is running successfully",
	})
}

// handleDatabase pings the configured database and reports the outcome.
func (h *Handler) handleDatabase(w http.ResponseWriter, r *http.Request) {
	if h.db == nil {
		writeJSON(w, http.StatusServiceUnavailable, databaseHealthResponse{
			Status:   StatusUnhealthy,
			Database: "disconnected",
			Message:  "no database configured",
		})
		return
	}

	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(r.Context())
	}
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, databaseHealthResponse{
			Status:   StatusUnhealthy,
			Database: "disconnected",
			Message:  "database connection failed: " + err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, databaseHealthResponse{
		Status:   StatusHealthy,
		Database: "connected",
		Message:  "Database connection is working",
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
