package ports

import (
	"context"
	"time"

	"PocketTagger/internal/domain"
)

// ArticleService talks to the remote read-it-later service.
type ArticleService interface {
	Get(ctx context.Context, req domain.GetRequest) (domain.GetResponse, error)
	Send(ctx context.Context, actions []domain.TagAction) error
}

// Tagger evaluates tagging rules against an article URL.
type Tagger interface {
	Run(ctx context.Context, url string) ([]string, error)
}

// CredentialStore resolves an account name to its API key pair.
type CredentialStore interface {
	Get(account string) (domain.Credentials, error)
}

// PageCache stores downloaded article bodies keyed by URL.
type PageCache interface {
	Get(ctx context.Context, url string) ([]byte, bool)
	Set(ctx context.Context, url string, body []byte) error
}

// RunRecorder keeps the history of pipeline runs.
type RunRecorder interface {
	SaveRun(ctx context.Context, run domain.RunRecord) error
	ListRuns(ctx context.Context, limit int) ([]domain.RunRecord, error)
}

// Notifier publishes run summaries to a chat or other channel.
type Notifier interface {
	Publish(ctx context.Context, message string) error
}

// Scheduler controls when pipelines execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
