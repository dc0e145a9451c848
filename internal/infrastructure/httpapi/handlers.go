package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"PocketTagger/internal/domain"
)

const defaultHistoryLimit = 20

// Runner is the slice of the run coordinator the API needs.
type Runner interface {
	Run(ctx context.Context, count int) (domain.RunRecord, error)
	History(ctx context.Context, limit int) ([]domain.RunRecord, error)
}

// RunHandler exposes manual triggers and run history over HTTP.
type RunHandler struct {
	runner Runner
	logger *slog.Logger
}

func NewRunHandler(runner Runner, logger *slog.Logger) *RunHandler {
	return &RunHandler{runner: runner, logger: logger}
}

type triggerRequest struct {
	Count int `json:"count"`
}

type runResponse struct {
	Run   domain.RunRecord `json:"run"`
	Error string           `json:"error,omitempty"`
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId,omitempty"`
}

func (h *RunHandler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// TriggerRun runs the pipeline synchronously; the body is optional.
func (h *RunHandler) TriggerRun(w http.ResponseWriter, r *http.Request) {
	var req triggerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, r, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}
	if req.Count < 0 {
		writeError(w, r, http.StatusBadRequest, "count must not be negative")
		return
	}

	// The run outlives a disconnected client; only the request id is carried over.
	run, err := h.runner.Run(context.WithoutCancel(r.Context()), req.Count)
	if err != nil {
		if h.logger != nil {
			h.logger.Error("triggered run failed", "run", run.ID, "request_id", RequestIDFromContext(r.Context()), "error", err)
		}
		writeJSON(w, http.StatusBadGateway, runResponse{Run: run, Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, runResponse{Run: run})
}

// ListRuns returns recent runs, newest first.
func (h *RunHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, r, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	runs, err := h.runner.History(r.Context(), limit)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	if runs == nil {
		runs = []domain.RunRecord{}
	}

	writeJSON(w, http.StatusOK, runs)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg, RequestID: RequestIDFromContext(r.Context())})
}
