package log

import (
	"context"
	"io"
	"log/slog"
	"net/url"
	"strings"
)

// MaxAttrLen is the maximum length of a logged string attribute value.
// Crawl code routinely has page text and markup snapshots in scope; a
// stray debug line must not dump kilobytes of HTML into the log stream.
const MaxAttrLen = 512

// MaskValue is the string used to replace redacted values.
const MaskValue = "***REDACTED***"

// secretParams contains query-parameter names whose values are redacted
// when they appear inside logged URLs. Seed URLs are operator input and
// occasionally arrive with tokens or session identifiers attached.
var secretParams = map[string]bool{
	"token":        true,
	"access_token": true,
	"api_key":      true,
	"apikey":       true,
	"key":          true,
	"secret":       true,
	"session":      true,
	"sid":          true,
	"auth":         true,
	"password":     true,
}

// sensitiveKeys contains attribute keys whose values are always masked.
// These cover the request credentials a fetcher might be configured with.
var sensitiveKeys = map[string]bool{
	"authorization": true,
	"cookie":        true,
	"set-cookie":    true,
	"password":      true,
	"secret":        true,
	"token":         true,
	"api_key":       true,
	"apikey":        true,
}

// CrawlHandler wraps an slog.Handler to sanitize crawl-domain log output.
// It scrubs credentials from URL-shaped values, redacts sensitive keys,
// and truncates oversized values before passing records on.
//
// Design decision: We use a handler wrapper rather than a custom logger
// because:
//  1. It integrates seamlessly with standard slog APIs
//  2. It works with any underlying handler (text, JSON, etc.)
//  3. Call sites stay ordinary slog calls with no discipline required
type CrawlHandler struct {
	// handler is the underlying slog handler that receives cleaned records.
	handler slog.Handler
}

// NewCrawlHandler creates a new CrawlHandler wrapping the given handler.
// If handler is nil, the returned CrawlHandler uses slog.Default().Handler().
func NewCrawlHandler(handler slog.Handler) *CrawlHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &CrawlHandler{handler: handler}
}

// Enabled reports whether the handler handles records at the given level.
// It delegates to the underlying handler.
func (h *CrawlHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle cleans the record's attributes and passes it to the underlying handler.
func (h *CrawlHandler) Handle(ctx context.Context, r slog.Record) error {
	cleaned := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)

	r.Attrs(func(a slog.Attr) bool {
		cleaned.AddAttrs(h.cleanAttr(a))
		return true
	})

	return h.handler.Handle(ctx, cleaned)
}

// WithAttrs returns a new handler with the given attributes added.
// Attributes are cleaned before being added.
func (h *CrawlHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	cleanedAttrs := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		cleanedAttrs[i] = h.cleanAttr(a)
	}
	return &CrawlHandler{handler: h.handler.WithAttrs(cleanedAttrs)}
}

// WithGroup returns a new handler with the given group name.
func (h *CrawlHandler) WithGroup(name string) slog.Handler {
	return &CrawlHandler{handler: h.handler.WithGroup(name)}
}

// cleanAttr sanitizes a single attribute, recursively handling groups.
func (h *CrawlHandler) cleanAttr(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		cleanedAttrs := make([]slog.Attr, len(attrs))
		for i, groupAttr := range attrs {
			cleanedAttrs[i] = h.cleanAttr(groupAttr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(cleanedAttrs...)}
	}

	if sensitiveKeys[strings.ToLower(a.Key)] {
		return slog.String(a.Key, MaskValue)
	}

	if a.Value.Kind() == slog.KindString {
		val := a.Value.String()
		if looksLikeURL(val) {
			val = ScrubURL(val)
		}
		if len(val) > MaxAttrLen {
			val = val[:MaxAttrLen] + "...(truncated)"
		}
		return slog.String(a.Key, val)
	}

	return a
}

// looksLikeURL is a cheap precheck so we only pay for URL parsing on
// values that could plausibly be URLs.
func looksLikeURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// ScrubURL removes credentials and secret-named query parameters from a
// URL string. Unparsable input is returned unchanged: a broken URL cannot
// carry parseable credentials either.
func ScrubURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	changed := false
	if u.User != nil {
		u.User = nil
		changed = true
	}

	q := u.Query()
	for name := range q {
		if secretParams[strings.ToLower(name)] {
			q.Set(name, MaskValue)
			changed = true
		}
	}
	if changed {
		// Encode percent-escapes the asterisks in the mask. Restore the
		// literal marker so log readers can grep for it.
		u.RawQuery = strings.ReplaceAll(q.Encode(), url.QueryEscape(MaskValue), MaskValue)
	}

	if !changed {
		return rawURL
	}
	return u.String()
}

// NewLogger creates a new slog.Logger for crawl output.
// Output is text format to the given writer; verbose enables debug level,
// otherwise only warnings and errors are logged.
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	textHandler := slog.NewTextHandler(w, opts)
	return slog.New(NewCrawlHandler(textHandler))
}

// NewJSONLogger creates a new slog.Logger that outputs JSON records.
// Useful for structured log aggregation.
func NewJSONLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	jsonHandler := slog.NewJSONHandler(w, opts)
	return slog.New(NewCrawlHandler(jsonHandler))
}
