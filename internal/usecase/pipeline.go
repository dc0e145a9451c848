package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"PocketTagger/internal/domain"
	"PocketTagger/internal/ports"
)

const (
	DefaultFetchCount = 500
	DefaultChunkSize  = 20
)

// ErrMissingDependency is returned when a required collaborator is not wired.
var ErrMissingDependency = errors.New("missing pipeline dependency")

// Options tunes the pipeline. Zero values fall back to the defaults.
type Options struct {
	FetchCount        int
	ChunkSize         int
	SequentialPersist bool
	// TagConcurrency caps in-flight tagging calls; zero means one goroutine per article.
	TagConcurrency int
}

func (o Options) fetchCount() int {
	if o.FetchCount > 0 {
		return o.FetchCount
	}
	return DefaultFetchCount
}

func (o Options) chunkSize() int {
	if o.ChunkSize > 0 {
		return o.ChunkSize
	}
	return DefaultChunkSize
}

// PipelineDeps wires all driven adapters into the tagging pipeline.
type PipelineDeps struct {
	Service  ports.ArticleService
	Tagger   ports.Tagger
	Recorder ports.RunRecorder
	Notifier ports.Notifier
	Logger   *slog.Logger
	Account  string
	Options  Options
}

// Pipeline fetches unread articles, tags them and writes the tags back.
type Pipeline struct {
	service  ports.ArticleService
	tagger   ports.Tagger
	recorder ports.RunRecorder
	notifier ports.Notifier
	logger   *slog.Logger
	account  string
	opts     Options
	ids      *runIDs
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) (*Pipeline, error) {
	if deps.Service == nil {
		return nil, errors.Wrap(ErrMissingDependency, "article service")
	}
	if deps.Tagger == nil {
		return nil, errors.Wrap(ErrMissingDependency, "tagger")
	}

	return &Pipeline{
		service:  deps.Service,
		tagger:   deps.Tagger,
		recorder: deps.Recorder,
		notifier: deps.Notifier,
		logger:   deps.Logger,
		account:  deps.Account,
		opts:     deps.Options,
		ids:      newRunIDs(),
	}, nil
}

// FetchArticles retrieves the newest unread articles; count <= 0 uses the configured default.
func (p *Pipeline) FetchArticles(ctx context.Context, count int) ([]domain.Article, error) {
	if count <= 0 {
		count = p.opts.fetchCount()
	}

	resp, err := p.service.Get(ctx, domain.GetRequest{
		Count: count,
		State: domain.StateUnread,
		Sort:  domain.SortNewest,
	})
	if err != nil {
		return nil, &domain.FetchError{Err: err}
	}

	articles := make([]domain.Article, 0, len(resp.List))
	for _, item := range resp.List {
		articles = append(articles, domain.Article{ID: item.ID, URL: item.ResolvedURL})
	}

	p.debug("articles fetched", "requested", count, "received", len(articles))
	return articles, nil
}

// FetchTags runs the tagger once per article and waits for every call to settle.
// The result holds one outcome per article, in input order.
func (p *Pipeline) FetchTags(ctx context.Context, articles []domain.Article) []domain.TagOutcome {
	outcomes := make([]domain.TagOutcome, len(articles))
	if len(articles) == 0 {
		return outcomes
	}

	var group errgroup.Group
	if p.opts.TagConcurrency > 0 {
		group.SetLimit(p.opts.TagConcurrency)
	}

	for i, article := range articles {
		group.Go(func() error {
			outcomes[i] = p.tagOne(ctx, article)
			return nil
		})
	}
	_ = group.Wait()

	return outcomes
}

func (p *Pipeline) tagOne(ctx context.Context, article domain.Article) (outcome domain.TagOutcome) {
	defer func() {
		if r := recover(); r != nil {
			outcome = p.failed(article, errors.Errorf("tagger panic: %v", r))
		}
	}()

	tags, err := p.tagger.Run(ctx, article.URL)
	if err != nil {
		return p.failed(article, err)
	}
	return domain.Tagged(article.ID, tags)
}

func (p *Pipeline) failed(article domain.Article, err error) domain.TagOutcome {
	tagErr := &domain.TaggingError{ArticleID: article.ID, URL: article.URL, Err: err}
	if p.logger != nil {
		p.logger.Warn("tagging failed", "article", article.ID, "url", article.URL, "error", err)
	}
	return domain.Failed(article.ID, tagErr)
}

// BuildActions maps tagging outcomes to persist actions and tallies successful results.
func BuildActions(outcomes []domain.TagOutcome) ([]domain.TagAction, domain.Stats) {
	var stats domain.Stats
	actions := make([]domain.TagAction, 0, len(outcomes))

	for _, outcome := range outcomes {
		if !outcome.OK() {
			actions = append(actions, domain.Replace(outcome.ArticleID, domain.ErrorFetchingTag))
			continue
		}

		stats.URLs++
		stats.Tags += len(outcome.Tags)

		if len(outcome.Tags) == 0 {
			actions = append(actions, domain.Clear(outcome.ArticleID))
			continue
		}
		actions = append(actions, domain.Replace(outcome.ArticleID, slices.Clone(outcome.Tags)...))
	}

	return actions, stats
}

// Persist sends actions in chunks, one after another or all at once depending on Options.
// An empty action list issues no request.
func (p *Pipeline) Persist(ctx context.Context, actions []domain.TagAction) error {
	if len(actions) == 0 {
		return nil
	}

	chunks := slices.Collect(slices.Chunk(actions, p.opts.chunkSize()))
	p.debug("persisting tags", "actions", len(actions), "chunks", len(chunks), "sequential", p.opts.SequentialPersist)

	if p.opts.SequentialPersist {
		for i, chunk := range chunks {
			if err := p.service.Send(ctx, chunk); err != nil {
				return &domain.PersistError{Chunk: i, Err: err}
			}
		}
		return nil
	}

	var group errgroup.Group
	for i, chunk := range chunks {
		group.Go(func() error {
			if err := p.service.Send(ctx, chunk); err != nil {
				return &domain.PersistError{Chunk: i, Err: err}
			}
			return nil
		})
	}
	return group.Wait()
}

// Run executes fetch, tag, build and persist in sequence and returns the run record.
// count <= 0 uses the configured default.
func (p *Pipeline) Run(ctx context.Context, count int) (domain.RunRecord, error) {
	run := domain.RunRecord{
		ID:        p.ids.next(),
		Account:   p.account,
		StartedAt: time.Now().UTC(),
	}
	p.info("run started", "run", run.ID, "count", count)

	err := p.execute(ctx, count, &run)

	run.FinishedAt = time.Now().UTC()
	if err != nil {
		run.Error = err.Error()
	}
	p.finish(ctx, run)

	return run, err
}

func (p *Pipeline) execute(ctx context.Context, count int, run *domain.RunRecord) error {
	articles, err := p.FetchArticles(ctx, count)
	if err != nil {
		return err
	}
	run.Articles = len(articles)

	outcomes := p.FetchTags(ctx, articles)
	for _, outcome := range outcomes {
		if !outcome.OK() {
			run.Failed++
		}
	}

	actions, stats := BuildActions(outcomes)
	run.Actions = len(actions)
	run.Stats = stats

	return p.Persist(ctx, actions)
}

func (p *Pipeline) finish(ctx context.Context, run domain.RunRecord) {
	if run.Succeeded() {
		p.info("run finished", "run", run.ID, "articles", run.Articles, "urls", run.Stats.URLs,
			"tags", run.Stats.Tags, "failed", run.Failed, "duration", run.Duration())
	} else if p.logger != nil {
		p.logger.Error("run failed", "run", run.ID, "error", run.Error, "duration", run.Duration())
	}

	if p.recorder != nil {
		if err := p.recorder.SaveRun(ctx, run); err != nil && p.logger != nil {
			p.logger.Error("record run", "run", run.ID, "error", err)
		}
	}

	if p.notifier != nil {
		if err := p.notifier.Publish(ctx, Summary(run)); err != nil && p.logger != nil {
			p.logger.Error("publish run summary", "run", run.ID, "error", err)
		}
	}
}

// Summary renders a one-line description of a run.
func Summary(run domain.RunRecord) string {
	if !run.Succeeded() {
		return fmt.Sprintf("pocket-tagger run %s failed after %s: %s", run.ID, run.Duration().Round(time.Millisecond), run.Error)
	}
	return fmt.Sprintf("pocket-tagger run %s: %d articles, %d tagged with %d tags, %d failed (%s)",
		run.ID, run.Articles, run.Stats.URLs, run.Stats.Tags, run.Failed, run.Duration().Round(time.Millisecond))
}

func (p *Pipeline) debug(msg string, args ...interface{}) {
	if p.logger != nil {
		p.logger.Debug(msg, args...)
	}
}

func (p *Pipeline) info(msg string, args ...interface{}) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}
