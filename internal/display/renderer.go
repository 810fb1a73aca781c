// Package display routes notebook cells to a Renderer according to cell
// tags and output kinds.
package display

import (
	"encoding/json"

	"github.com/dgallion1/nbview/internal/notebook"
)

// Renderer is the set of display primitives a backend provides. Every
// method may fail; the dispatcher returns the first failure unchanged.
type Renderer interface {
	Text(block TextBlock) error
	Code(source, language string) error
	Image(img Image) error
	Table(t Table) error
	Chart(fig notebook.Figure) error
	DeclarativeChart(spec json.RawMessage) error
	Error(name string) error
	Collapsible(label string, body func() error) error
}

// TextBlock is markdown source for a text cell or one of its segments.
type TextBlock struct {
	Markdown  string
	AllowHTML bool
}

// Image is a PNG composited onto an opaque white canvas.
type Image struct {
	Width  int
	Height int
	PNG    []byte
}

// Table is an HTML table reduced to text cells. Columns[0] labels the
// index column; each row's first value is its index.
type Table struct {
	Columns []string
	Rows    [][]string
}
