package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultAccount    = "default"
	defaultFetchCount = 500
	defaultChunkSize  = 20

	configPathEnv      = "POCKET_TAGGER_CONFIG"
	accountEnv         = "POCKET_ACCOUNT"
	credentialsPathEnv = "POCKET_CREDENTIALS"
	rulesPathEnv       = "POCKET_TAGGER_RULES"
	fetchCountEnv      = "POCKET_TAGGER_FETCH_COUNT"
	chunkSizeEnv       = "POCKET_TAGGER_CHUNK_SIZE"
	sequentialEnv      = "POCKET_TAGGER_SEQUENTIAL"
	logLevelEnv        = "POCKET_TAGGER_LOG_LEVEL"
	telegramTokenEnv   = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv  = "TELEGRAM_CHAT_ID"
)

// Cache drivers.
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheSQLite = "sqlite"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging       LoggingConfig      `yaml:"logging"`
	Pocket        PocketConfig       `yaml:"pocket"`
	Rules         RulesConfig        `yaml:"rules"`
	Tagger        TaggerConfig       `yaml:"tagger"`
	Pipeline      PipelineConfig     `yaml:"pipeline"`
	Cache         CacheConfig        `yaml:"cache"`
	Storage       StorageConfig      `yaml:"storage"`
	Server        ServerConfig       `yaml:"server"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
	Notifications NotificationConfig `yaml:"notifications"`
}

// LoggingConfig selects the slog level and handler format (text or json).
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// PocketConfig describes how to reach the read-it-later service.
type PocketConfig struct {
	BaseURL         string        `yaml:"baseUrl"`
	Account         string        `yaml:"account"`
	CredentialsPath string        `yaml:"credentialsPath"`
	Timeout         time.Duration `yaml:"timeout"`
}

// RulesConfig points at the regex and rule definitions.
type RulesConfig struct {
	Path string `yaml:"path"`
}

// TaggerConfig tunes page downloads done by the tagging engine.
type TaggerConfig struct {
	Timeout      time.Duration `yaml:"timeout"`
	UserAgent    string        `yaml:"userAgent"`
	Concurrency  int           `yaml:"concurrency"`
	MaxBodyBytes int64         `yaml:"maxBodyBytes"`
}

// PipelineConfig controls fetch size and how tag updates are written back.
type PipelineConfig struct {
	FetchCount        int  `yaml:"fetchCount"`
	ChunkSize         int  `yaml:"chunkSize"`
	SequentialPersist bool `yaml:"sequentialPersist"`
}

// CacheConfig selects the page cache backend.
type CacheConfig struct {
	Driver string        `yaml:"driver"`
	TTL    time.Duration `yaml:"ttl"`
}

// StorageConfig locates the SQLite database for run history.
type StorageConfig struct {
	SQLitePath string `yaml:"sqlitePath"`
}

// ServerConfig configures the trigger API.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// SchedulerConfig defines how often serve mode runs the pipeline; zero disables it.
type SchedulerConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// NotificationConfig encapsulates outbound channels (Telegram, etc.).
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if fileCfg, err := LoadFile(path); err != nil {
			log.Printf("config: %v (falling back to defaults)", err)
		} else {
			cfg = mergeConfig(cfg, fileCfg)
		}
	}

	cfg.applyEnvOverrides()
	cfg.Validate()

	return cfg
}

// LoadFile parses a YAML configuration file without applying defaults.
func LoadFile(path string) (Config, error) {
	var fileCfg Config
	raw, err := os.ReadFile(path)
	if err != nil {
		return fileCfg, err
	}
	if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
		return fileCfg, err
	}
	return fileCfg, nil
}

// Validate resets out-of-range values to their defaults.
func (c *Config) Validate() {
	def := defaultConfig()

	if c.Pipeline.FetchCount <= 0 {
		c.Pipeline.FetchCount = def.Pipeline.FetchCount
	}
	if c.Pipeline.ChunkSize <= 0 {
		c.Pipeline.ChunkSize = def.Pipeline.ChunkSize
	}
	if c.Tagger.Concurrency < 0 {
		c.Tagger.Concurrency = 0
	}
	if strings.TrimSpace(c.Pocket.Account) == "" {
		c.Pocket.Account = def.Pocket.Account
	}

	switch strings.ToLower(strings.TrimSpace(c.Cache.Driver)) {
	case CacheMemory:
		c.Cache.Driver = CacheMemory
	case CacheSQLite:
		c.Cache.Driver = CacheSQLite
	default:
		c.Cache.Driver = CacheNone
	}
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(accountEnv); v != "" {
		c.Pocket.Account = v
	}

	if v := os.Getenv(credentialsPathEnv); v != "" {
		c.Pocket.CredentialsPath = v
	}

	if v := os.Getenv(rulesPathEnv); v != "" {
		c.Rules.Path = v
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v, ok := envInt(fetchCountEnv); ok {
		c.Pipeline.FetchCount = v
	}

	if v, ok := envInt(chunkSizeEnv); ok {
		c.Pipeline.ChunkSize = v
	}

	if v := os.Getenv(sequentialEnv); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			c.Pipeline.SequentialPersist = parsed
		} else {
			log.Printf("config: ignoring %s=%q: %v", sequentialEnv, v, err)
		}
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}

	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}
}

func envInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("config: ignoring %s=%q: %v", key, v, err)
		return 0, false
	}
	return parsed, true
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		base.Logging.Format = override.Logging.Format
	}

	if override.Pocket.BaseURL != "" {
		base.Pocket.BaseURL = override.Pocket.BaseURL
	}
	if override.Pocket.Account != "" {
		base.Pocket.Account = override.Pocket.Account
	}
	if override.Pocket.CredentialsPath != "" {
		base.Pocket.CredentialsPath = override.Pocket.CredentialsPath
	}
	if override.Pocket.Timeout > 0 {
		base.Pocket.Timeout = override.Pocket.Timeout
	}

	if override.Rules.Path != "" {
		base.Rules.Path = override.Rules.Path
	}

	if override.Tagger.Timeout > 0 {
		base.Tagger.Timeout = override.Tagger.Timeout
	}
	if override.Tagger.UserAgent != "" {
		base.Tagger.UserAgent = override.Tagger.UserAgent
	}
	if override.Tagger.Concurrency > 0 {
		base.Tagger.Concurrency = override.Tagger.Concurrency
	}
	if override.Tagger.MaxBodyBytes > 0 {
		base.Tagger.MaxBodyBytes = override.Tagger.MaxBodyBytes
	}

	if override.Pipeline.FetchCount > 0 {
		base.Pipeline.FetchCount = override.Pipeline.FetchCount
	}
	if override.Pipeline.ChunkSize > 0 {
		base.Pipeline.ChunkSize = override.Pipeline.ChunkSize
	}
	if override.Pipeline.SequentialPersist {
		base.Pipeline.SequentialPersist = true
	}

	if override.Cache.Driver != "" {
		base.Cache.Driver = override.Cache.Driver
	}
	if override.Cache.TTL > 0 {
		base.Cache.TTL = override.Cache.TTL
	}

	if override.Storage.SQLitePath != "" {
		base.Storage.SQLitePath = override.Storage.SQLitePath
	}

	if override.Server.Addr != "" {
		base.Server.Addr = override.Server.Addr
	}

	if override.Scheduler.Interval > 0 {
		base.Scheduler.Interval = override.Scheduler.Interval
	}

	if override.Notifications.Telegram.BotToken != "" {
		base.Notifications.Telegram.BotToken = override.Notifications.Telegram.BotToken
	}
	if override.Notifications.Telegram.ChatID != "" {
		base.Notifications.Telegram.ChatID = override.Notifications.Telegram.ChatID
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Pocket: PocketConfig{
			BaseURL:         "https://getpocket.com",
			Account:         defaultAccount,
			CredentialsPath: "~/.pocket/credentials",
			Timeout:         30 * time.Second,
		},
		Rules: RulesConfig{Path: "rules.yaml"},
		Tagger: TaggerConfig{
			Timeout:      20 * time.Second,
			UserAgent:    "PocketTagger/1.0",
			MaxBodyBytes: 2 << 20,
		},
		Pipeline: PipelineConfig{
			FetchCount: defaultFetchCount,
			ChunkSize:  defaultChunkSize,
		},
		Cache:   CacheConfig{Driver: CacheMemory, TTL: 24 * time.Hour},
		Storage: StorageConfig{SQLitePath: "pocket-tagger.db"},
		Server:  ServerConfig{Addr: ":8080"},
	}
}
