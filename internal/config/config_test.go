package config

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PocketTagger/internal/domain"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		configPathEnv, accountEnv, credentialsPathEnv, rulesPathEnv, fetchCountEnv,
		chunkSizeEnv, sequentialEnv, logLevelEnv, telegramTokenEnv, telegramChatIDEnv,
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()

	assert.Equal(t, "default", cfg.Pocket.Account)
	assert.Equal(t, 500, cfg.Pipeline.FetchCount)
	assert.Equal(t, 20, cfg.Pipeline.ChunkSize)
	assert.False(t, cfg.Pipeline.SequentialPersist)
	assert.Equal(t, CacheMemory, cfg.Cache.Driver)
	assert.Equal(t, "https://getpocket.com", cfg.Pocket.BaseURL)
	assert.Zero(t, cfg.Scheduler.Interval)
}

func TestLoadFileAndEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
logging:
  level: debug
  format: json
pocket:
  account: work
  timeout: 5s
pipeline:
  chunkSize: 10
  sequentialPersist: true
cache:
  driver: SQLite
  ttl: 1h
scheduler:
  interval: 30m
`), 0o600))

	t.Setenv(configPathEnv, path)
	t.Setenv(fetchCountEnv, "42")
	t.Setenv(accountEnv, "personal")
	t.Setenv(telegramTokenEnv, "token")

	cfg := Load()

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "personal", cfg.Pocket.Account)
	assert.Equal(t, 5*time.Second, cfg.Pocket.Timeout)
	assert.Equal(t, 42, cfg.Pipeline.FetchCount)
	assert.Equal(t, 10, cfg.Pipeline.ChunkSize)
	assert.True(t, cfg.Pipeline.SequentialPersist)
	assert.Equal(t, CacheSQLite, cfg.Cache.Driver)
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
	assert.Equal(t, 30*time.Minute, cfg.Scheduler.Interval)
	assert.Equal(t, "token", cfg.Notifications.Telegram.BotToken)
	// untouched by the file
	assert.Equal(t, "~/.pocket/credentials", cfg.Pocket.CredentialsPath)
}

func TestLoadIgnoresBadEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv(chunkSizeEnv, "lots")
	t.Setenv(sequentialEnv, "maybe")
	t.Setenv(fetchCountEnv, "-3")

	cfg := Load()

	assert.Equal(t, 20, cfg.Pipeline.ChunkSize)
	assert.False(t, cfg.Pipeline.SequentialPersist)
	assert.Equal(t, 500, cfg.Pipeline.FetchCount)
}

func TestLoadMissingFileFallsBack(t *testing.T) {
	clearEnv(t)
	t.Setenv(configPathEnv, filepath.Join(t.TempDir(), "nope.yaml"))

	cfg := Load()
	assert.Equal(t, defaultConfig().Pipeline, cfg.Pipeline)
}

func TestValidateUnknownCacheDriver(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	cfg.Cache.Driver = "redis"
	cfg.Tagger.Concurrency = -1
	cfg.Validate()

	assert.Equal(t, CacheNone, cfg.Cache.Driver)
	assert.Zero(t, cfg.Tagger.Concurrency)
}

func TestParseRuleSet(t *testing.T) {
	t.Parallel()

	rules, err := ParseRuleSet([]byte(`
regexes:
  php: php
  terraform: terraform
  consul: consul
rules:
  url:
    php: [php]
  content:
    hashicorp:
      - terraform
      - consul
  html:
    non-hashicorp:
      - ["!terraform", "!consul"]
`))
	require.NoError(t, err)

	assert.Equal(t, "terraform", rules.Regexes["terraform"])
	assert.Equal(t, []domain.Condition{{"php"}}, rules.URL["php"])
	assert.Equal(t, []domain.Condition{{"terraform"}, {"consul"}}, rules.Content["hashicorp"])
	assert.Equal(t, []domain.Condition{{"!terraform", "!consul"}}, rules.HTML["non-hashicorp"])
	assert.True(t, rules.NeedsPage())
}

func TestParseRuleSetURLOnly(t *testing.T) {
	t.Parallel()

	rules, err := ParseRuleSet([]byte("regexes:\n  go: golang\nrules:\n  url:\n    go: [go]\n"))
	require.NoError(t, err)

	assert.Nil(t, rules.Content)
	assert.Nil(t, rules.HTML)
	assert.False(t, rules.NeedsPage())
}

func TestParseRuleSetRejectsMapCondition(t *testing.T) {
	t.Parallel()

	_, err := ParseRuleSet([]byte("rules:\n  url:\n    go:\n      - {a: b}\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse rules")
	assert.Contains(t, err.Error(), "condition must be a name or a list of names")
}

func TestLoadRuleSetMissingFile(t *testing.T) {
	t.Parallel()

	_, err := LoadRuleSet(filepath.Join(t.TempDir(), "rules.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.Contains(t, err.Error(), "read rules")
}
