package storage

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"PocketTagger/internal/domain"
	"PocketTagger/internal/infrastructure/cache"
	"PocketTagger/internal/ports"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	account TEXT NOT NULL,
	started_at INTEGER NOT NULL,
	finished_at INTEGER NOT NULL,
	articles INTEGER NOT NULL DEFAULT 0,
	failed INTEGER NOT NULL DEFAULT 0,
	actions INTEGER NOT NULL DEFAULT 0,
	urls INTEGER NOT NULL DEFAULT 0,
	tags INTEGER NOT NULL DEFAULT 0,
	error TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);

CREATE TABLE IF NOT EXISTS pages (
	key TEXT PRIMARY KEY,
	url TEXT NOT NULL,
	body BLOB NOT NULL,
	fetched_at INTEGER NOT NULL
);
`

// SQLiteStore persists run history and downloaded pages in a local SQLite file.
type SQLiteStore struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

var (
	_ ports.RunRecorder = (*SQLiteStore)(nil)
	_ ports.PageCache   = (*SQLiteStore)(nil)
)

// OpenSQLite opens (or creates) the database at path. A zero pageTTL keeps pages forever.
func OpenSQLite(ctx context.Context, path string, pageTTL time.Duration) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "enable wal")
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "init schema")
	}

	return &SQLiteStore{db: db, ttl: pageTTL, now: time.Now}, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveRun inserts or replaces a run record.
func (s *SQLiteStore) SaveRun(ctx context.Context, run domain.RunRecord) error {
	_, err := sq.Insert("runs").
		Columns("id", "account", "started_at", "finished_at", "articles", "failed", "actions", "urls", "tags", "error").
		Values(run.ID, run.Account, run.StartedAt.UnixNano(), run.FinishedAt.UnixNano(),
			run.Articles, run.Failed, run.Actions, run.Stats.URLs, run.Stats.Tags, run.Error).
		Suffix(`ON CONFLICT(id) DO UPDATE SET
			finished_at = excluded.finished_at,
			articles = excluded.articles,
			failed = excluded.failed,
			actions = excluded.actions,
			urls = excluded.urls,
			tags = excluded.tags,
			error = excluded.error`).
		RunWith(s.db).
		ExecContext(ctx)
	if err != nil {
		return errors.Wrapf(err, "save run %s", run.ID)
	}
	return nil
}

// ListRuns returns up to limit runs, newest first. limit <= 0 returns every run.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]domain.RunRecord, error) {
	query := sq.Select("id", "account", "started_at", "finished_at", "articles", "failed", "actions", "urls", "tags", "error").
		From("runs").
		OrderBy("started_at DESC", "id DESC")
	if limit > 0 {
		query = query.Limit(uint64(limit))
	}

	rows, err := query.RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "query runs")
	}
	defer rows.Close()

	runs := []domain.RunRecord{}
	for rows.Next() {
		var (
			run              domain.RunRecord
			started, finished int64
		)
		if err := rows.Scan(&run.ID, &run.Account, &started, &finished, &run.Articles, &run.Failed,
			&run.Actions, &run.Stats.URLs, &run.Stats.Tags, &run.Error); err != nil {
			return nil, errors.Wrap(err, "scan run")
		}
		run.StartedAt = time.Unix(0, started).UTC()
		run.FinishedAt = time.Unix(0, finished).UTC()
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate runs")
	}

	return runs, nil
}

// Get returns a cached page body unless it is missing or expired.
func (s *SQLiteStore) Get(ctx context.Context, url string) ([]byte, bool) {
	var (
		body      []byte
		fetchedAt int64
	)
	err := sq.Select("body", "fetched_at").
		From("pages").
		Where(sq.Eq{"key": cache.Key(url)}).
		RunWith(s.db).
		QueryRowContext(ctx).
		Scan(&body, &fetchedAt)
	if err != nil {
		return nil, false
	}

	if s.ttl > 0 && s.now().Sub(time.Unix(0, fetchedAt)) > s.ttl {
		return nil, false
	}
	return body, true
}

// Set stores a page body, replacing any previous copy.
func (s *SQLiteStore) Set(ctx context.Context, url string, body []byte) error {
	_, err := sq.Insert("pages").
		Columns("key", "url", "body", "fetched_at").
		Values(cache.Key(url), url, body, s.now().UnixNano()).
		Suffix("ON CONFLICT(key) DO UPDATE SET body = excluded.body, fetched_at = excluded.fetched_at").
		RunWith(s.db).
		ExecContext(ctx)
	if err != nil {
		return errors.Wrap(err, "cache page")
	}
	return nil
}

// PurgePages deletes pages older than the TTL and returns how many were removed.
func (s *SQLiteStore) PurgePages(ctx context.Context) (int64, error) {
	if s.ttl <= 0 {
		return 0, nil
	}
	res, err := sq.Delete("pages").
		Where(sq.Lt{"fetched_at": s.now().Add(-s.ttl).UnixNano()}).
		RunWith(s.db).
		ExecContext(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "purge pages")
	}
	return res.RowsAffected()
}
