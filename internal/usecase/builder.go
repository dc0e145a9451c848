package usecase

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"

	"PocketTagger/internal/domain"
	"PocketTagger/internal/ports"
)

// ServiceFactory opens a remote service client for one account's credentials.
type ServiceFactory func(creds domain.Credentials) ports.ArticleService

// TaggerFactory builds a tagging engine from a rule set and an optional page cache.
type TaggerFactory func(rules domain.RuleSet, cache ports.PageCache) (ports.Tagger, error)

// Builder is the single place where credentials are resolved and a pipeline is assembled.
type Builder struct {
	Credentials ports.CredentialStore
	NewService  ServiceFactory
	NewTagger   TaggerFactory
	Recorder    ports.RunRecorder
	Notifier    ports.Notifier
	Logger      *slog.Logger
	Options     Options
}

// Build resolves the account's credentials and returns a ready-to-run pipeline.
func (b Builder) Build(ctx context.Context, account string, rules domain.RuleSet, cache ports.PageCache) (*Pipeline, error) {
	if b.Credentials == nil || b.NewService == nil || b.NewTagger == nil {
		return nil, errors.Wrap(ErrMissingDependency, "builder")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	creds, err := b.Credentials.Get(account)
	if err != nil {
		var credErr *domain.CredentialError
		if errors.As(err, &credErr) {
			return nil, err
		}
		return nil, &domain.CredentialError{Account: account, Err: err}
	}

	tagger, err := b.NewTagger(rules, cache)
	if err != nil {
		return nil, errors.Wrap(err, "build tagger")
	}

	return NewPipeline(PipelineDeps{
		Service:  b.NewService(creds),
		Tagger:   tagger,
		Recorder: b.Recorder,
		Notifier: b.Notifier,
		Logger:   b.Logger,
		Account:  account,
		Options:  b.Options,
	})
}
