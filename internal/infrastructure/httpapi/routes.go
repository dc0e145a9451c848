package httpapi

import (
	"log/slog"

	"github.com/gorilla/mux"
)

// SetupRoutes registers the trigger API on a new router.
func SetupRoutes(h *RunHandler, logger *slog.Logger) *mux.Router {
	r := mux.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(logger))
	r.Use(RecoveryMiddleware(logger))

	r.HandleFunc("/healthz", h.Health).Methods("GET")
	r.HandleFunc("/api/v1/runs", h.TriggerRun).Methods("POST")
	r.HandleFunc("/api/v1/runs", h.ListRuns).Methods("GET")

	return r
}
