package domain

import "time"

// RunRecord captures a single pipeline execution for history and reporting.
type RunRecord struct {
	ID         string    `json:"id"`
	Account    string    `json:"account"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
	Articles   int       `json:"articles"`
	Failed     int       `json:"failed"`
	Actions    int       `json:"actions"`
	Stats      Stats     `json:"stats"`
	Error      string    `json:"error,omitempty"`
}

// Succeeded reports whether the run finished without an error.
func (r RunRecord) Succeeded() bool {
	return r.Error == ""
}

// Duration is the wall time spent by the run.
func (r RunRecord) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
