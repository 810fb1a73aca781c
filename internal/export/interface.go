// Package export renders notebook documents into concrete output formats.
// Each exporter supplies a display.Renderer and lets the dispatcher drive it.
package export

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/dgallion1/nbview/internal/display"
	"github.com/dgallion1/nbview/internal/notebook"
)

// Exporter defines the interface for all export formats.
type Exporter interface {
	Export(doc *notebook.Document, w io.Writer) error
	Extension() string
	ContentType() string
}

// Options tunes exporters. Zero values fall back to defaults.
type Options struct {
	// CodeStyle is the chroma style used for HTML and terminal highlighting.
	CodeStyle string
	// TermStyle is the glamour standard style for terminal output.
	TermStyle string
	// Title is used for the HTML page title.
	Title string
	// MaxImagePixels caps decoded image size; zero uses the display default.
	MaxImagePixels int64
	Logger         *slog.Logger
}

const (
	defaultCodeStyle = "github"
	defaultTermStyle = "dark"
	defaultTitle     = "Notebook"
)

func (o Options) withDefaults() Options {
	if o.CodeStyle == "" {
		o.CodeStyle = defaultCodeStyle
	}
	if o.TermStyle == "" {
		o.TermStyle = defaultTermStyle
	}
	if o.Title == "" {
		o.Title = defaultTitle
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	return o
}

// Formats lists the names accepted by NewExporter.
func Formats() []string {
	return []string{"html", "docx", "term", "json", "yaml"}
}

// NewExporter creates a new exporter based on format.
func NewExporter(format string, opts Options) (Exporter, error) {
	opts = opts.withDefaults()
	switch format {
	case "html":
		return &HTMLExporter{opts: opts}, nil
	case "docx":
		return &DOCXExporter{opts: opts}, nil
	case "term", "terminal":
		return &TerminalExporter{opts: opts}, nil
	case "json":
		return &JSONExporter{opts: opts}, nil
	case "yaml", "yml":
		return &YAMLExporter{opts: opts}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (supported: html, docx, term, json, yaml)", format)
	}
}

// renderDocument runs the dispatcher over doc with r.
func renderDocument(doc *notebook.Document, r display.Renderer, opts Options) error {
	d, err := display.NewDispatcher(opts.Logger, display.WithMaxImagePixels(opts.MaxImagePixels))
	if err != nil {
		return err
	}
	return d.RenderDocument(doc, r)
}
