package usecase

import (
	"context"
	"sync"

	"PocketTagger/internal/domain"
	"PocketTagger/internal/ports"
)

// Runner serializes runs of one pipeline so that overlapping triggers queue up.
type Runner struct {
	mu       sync.Mutex
	pipeline *Pipeline
	history  ports.RunRecorder
}

// NewRunner wraps a pipeline; history may be nil.
func NewRunner(pipeline *Pipeline, history ports.RunRecorder) *Runner {
	return &Runner{pipeline: pipeline, history: history}
}

// Run executes the pipeline once, waiting for any in-flight run to finish first.
func (r *Runner) Run(ctx context.Context, count int) (domain.RunRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pipeline.Run(ctx, count)
}

// History returns the most recent runs, newest first.
func (r *Runner) History(ctx context.Context, limit int) ([]domain.RunRecord, error) {
	if r.history == nil {
		return []domain.RunRecord{}, nil
	}
	return r.history.ListRuns(ctx, limit)
}
