package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/2020visiontrader/competitorscan/internal/model"
)

// JSONWriter outputs crawl results in JSON format for machine consumption
// and downstream pipelines.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed output.
	indent bool

	// indentPrefix is the prefix applied to each indented line.
	indentPrefix string

	// indentString is the indentation unit.
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON with the given prefix and indent.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with two-space indentation.
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
// By default the output is compact; use WithPrettyPrint for readability.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the crawl result as a JSON document followed by a newline.
func (w *JSONWriter) Write(result *model.CrawlResult) (int, error) {
	var (
		data []byte
		err  error
	)

	if w.indent {
		data, err = json.MarshalIndent(result, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(result)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to marshal crawl result: %w", err)
	}

	n, err := w.output.Write(data)
	if err != nil {
		return n, err
	}

	m, err := w.output.Write([]byte("\n"))
	return n + m, err
}
