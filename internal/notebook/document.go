package notebook

import "fmt"

// Document is an ordered, immutable sequence of cells plus notebook metadata.
type Document struct {
	cells    []Cell
	metadata *Metadata
	language string
}

// Option configures document construction.
type Option func(*docConfig)

type docConfig struct {
	classifier *Classifier
}

// WithClassifier overrides the classifier used for code cell outputs.
func WithClassifier(c *Classifier) Option {
	return func(cfg *docConfig) { cfg.classifier = c }
}

// New builds a Document from raw cell records and notebook metadata.
func New(cells []RawCell, meta Metadata, opts ...Option) (*Document, error) {
	cfg := docConfig{classifier: defaultClassifier}
	for _, o := range opts {
		o(&cfg)
	}

	lang := meta.Language()
	if lang == "" {
		return nil, missing("metadata.kernelspec.language")
	}

	doc := &Document{
		cells:    make([]Cell, 0, len(cells)),
		metadata: &meta,
		language: lang,
	}
	for i, raw := range cells {
		c, err := newCell(raw, lang, cfg.classifier)
		if err != nil {
			return nil, prefixPath(fmt.Sprintf("cells[%d]", i), err)
		}
		doc.cells = append(doc.cells, c)
	}
	return doc, nil
}

// Language is the source language used for code blocks.
func (d *Document) Language() string { return d.language }

// Metadata returns a copy of the notebook metadata.
func (d *Document) Metadata() Metadata { return *d.metadata }

// Len is the number of cells.
func (d *Document) Len() int { return len(d.cells) }

// Cell returns the cell at index i. It panics if i is out of range.
func (d *Document) Cell(i int) Cell { return d.cells[i] }

// Cells returns the cells in order.
func (d *Document) Cells() []Cell {
	out := make([]Cell, len(d.cells))
	copy(out, d.cells)
	return out
}

// Slice returns a document holding cells [from, to), clamped to the
// document bounds. It shares the metadata, like Split.
func (d *Document) Slice(from, to int) *Document {
	from, to = clamp(from, len(d.cells)), clamp(to, len(d.cells))
	if from >= to {
		return d.withCells(nil)
	}
	return d.withCells(d.cells[from:to])
}

// Split partitions the document into cells [0, i) and [i, n). Both halves
// share the metadata. An index outside [0, n] is clamped, leaving one half
// empty.
func (d *Document) Split(i int) (*Document, *Document) {
	i = clamp(i, len(d.cells))
	return d.withCells(d.cells[:i]), d.withCells(d.cells[i:])
}

func (d *Document) withCells(cells []Cell) *Document {
	out := make([]Cell, len(cells))
	copy(out, cells)
	return &Document{cells: out, metadata: d.metadata, language: d.language}
}

func (d *Document) String() string {
	return fmt.Sprintf("<notebook with %d cells>", len(d.cells))
}

func clamp(i, n int) int {
	if i < 0 {
		return 0
	}
	if i > n {
		return n
	}
	return i
}
