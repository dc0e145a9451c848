package tagger

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/pkg/errors"
	"golang.org/x/net/html/charset"

	"PocketTagger/internal/domain"
	"PocketTagger/internal/ports"
)

const (
	defaultUserAgent    = "PocketTagger/1.0"
	defaultMaxBodyBytes = 2 << 20
)

// Engine tags article URLs using regex rules over the URL, the page text and the raw HTML.
type Engine struct {
	urlRules     []tagRule
	contentRules []tagRule
	htmlRules    []tagRule

	cache        ports.PageCache
	client       *http.Client
	userAgent    string
	maxBodyBytes int64
	logger       *slog.Logger
}

var _ ports.Tagger = (*Engine)(nil)

// Option customizes an Engine.
type Option func(e *Engine)

// WithHTTPClient replaces the page download client.
func WithHTTPClient(client *http.Client) Option {
	return func(e *Engine) {
		if client != nil {
			e.client = client
		}
	}
}

// WithUserAgent sets the User-Agent header used for downloads.
func WithUserAgent(ua string) Option {
	return func(e *Engine) {
		if ua != "" {
			e.userAgent = ua
		}
	}
}

// WithMaxBodyBytes caps how much of a page is read.
func WithMaxBodyBytes(n int64) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxBodyBytes = n
		}
	}
}

// WithLogger attaches a logger for cache and download diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New compiles the rule set. cache may be nil.
func New(rules domain.RuleSet, cache ports.PageCache, opts ...Option) (*Engine, error) {
	regexes, err := compileRegexes(rules.Regexes)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		cache:        cache,
		client:       &http.Client{Timeout: 20 * time.Second},
		userAgent:    defaultUserAgent,
		maxBodyBytes: defaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.urlRules, err = compileRules("url", rules.URL, regexes); err != nil {
		return nil, err
	}
	if e.contentRules, err = compileRules("content", rules.Content, regexes); err != nil {
		return nil, err
	}
	if e.htmlRules, err = compileRules("html", rules.HTML, regexes); err != nil {
		return nil, err
	}

	return e, nil
}

// Run returns the tags for rawURL: url rules first, then content, then html.
func (e *Engine) Run(ctx context.Context, rawURL string) ([]string, error) {
	if err := validateURL(rawURL); err != nil {
		return nil, err
	}

	tags := newTagSet()
	tags.apply(e.urlRules, rawURL)

	if len(e.contentRules) == 0 && len(e.htmlRules) == 0 {
		return tags.tags, nil
	}

	body, err := e.page(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	if len(e.contentRules) > 0 {
		text, err := extractText(body)
		if err != nil {
			return nil, err
		}
		tags.apply(e.contentRules, text)
	}
	if len(e.htmlRules) > 0 {
		tags.apply(e.htmlRules, string(body))
	}

	return tags.tags, nil
}

func validateURL(rawURL string) error {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return errors.Wrapf(domain.ErrInvalidURL, "%q: %v", rawURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return errors.Wrapf(domain.ErrInvalidURL, "%q: unsupported scheme", rawURL)
	}
	if parsed.Host == "" {
		return errors.Wrapf(domain.ErrInvalidURL, "%q: missing host", rawURL)
	}
	return nil
}

// page returns the UTF-8 body of rawURL, from the cache when possible.
func (e *Engine) page(ctx context.Context, rawURL string) ([]byte, error) {
	if e.cache != nil {
		if body, ok := e.cache.Get(ctx, rawURL); ok {
			e.debug("page cache hit", "url", rawURL)
			return body, nil
		}
	}

	body, err := e.download(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	if e.cache != nil {
		if err := e.cache.Set(ctx, rawURL, body); err != nil && e.logger != nil {
			e.logger.Warn("page cache write failed", "url", rawURL, "error", err)
		}
	}
	return body, nil
}

func (e *Engine) download(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	req.Header.Set("User-Agent", e.userAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "request page")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("page returned %s", resp.Status)
	}

	reader, err := charset.NewReader(io.LimitReader(resp.Body, e.maxBodyBytes), resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, errors.Wrap(err, "detect charset")
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, errors.Wrap(err, "read page")
	}
	return body, nil
}

// extractText returns the visible body text with whitespace collapsed.
func extractText(body []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(err, "parse page")
	}

	doc.Find("script, style, noscript").Remove()
	selection := doc.Find("body")
	if selection.Length() == 0 {
		selection = doc.Selection
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	text := strings.Join(strings.Fields(selection.Text()), " ")
	if title != "" {
		text = title + " " + text
	}
	return text, nil
}

func (e *Engine) debug(msg string, args ...interface{}) {
	if e.logger != nil {
		e.logger.Debug(msg, args...)
	}
}
