package notebook

import "fmt"

// CellType is the nbformat cell_type value.
type CellType string

const (
	TypeCode     CellType = "code"
	TypeMarkdown CellType = "markdown"
	TypeRaw      CellType = "raw"
)

// Cell is either a *TextCell or a *CodeCell. Cells are immutable.
type Cell interface {
	Type() CellType
	Source() string
	Tags() Tags
	String() string
	isCell()
}

type cellBase struct {
	cellType CellType
	source   string
	tags     Tags
}

func (c cellBase) Type() CellType { return c.cellType }
func (c cellBase) Source() string { return c.source }
func (c cellBase) Tags() Tags     { return c.tags }
func (c cellBase) isCell()        {}

func (c cellBase) String() string {
	return fmt.Sprintf("<cell type %q>", c.cellType)
}

// TextCell is a markdown cell (or any non-code cell) with optional attachments.
type TextCell struct {
	cellBase
	attachments Attachments
}

// Attachments returns the cell's attachments in document order.
func (c *TextCell) Attachments() Attachments {
	out := make(Attachments, len(c.attachments))
	copy(out, c.attachments)
	return out
}

// Segments runs the attachment resolver over the cell source.
func (c *TextCell) Segments() []Segment {
	return ResolveAttachments(c.source, c.attachments.Payloads())
}

// CodeCell is a code cell with its classified outputs.
type CodeCell struct {
	cellBase
	language string
	raw      []RawOutput
	outputs  []Output
}

// Language is the notebook kernel language.
func (c *CodeCell) Language() string { return c.language }

// Outputs returns the classified outputs in capture order.
func (c *CodeCell) Outputs() []Output {
	out := make([]Output, len(c.outputs))
	copy(out, c.outputs)
	return out
}

// RawOutputs returns the records as captured, including unclassified ones.
func (c *CodeCell) RawOutputs() []RawOutput {
	out := make([]RawOutput, len(c.raw))
	copy(out, c.raw)
	return out
}

func newCell(raw RawCell, language string, cls *Classifier) (Cell, error) {
	if raw.CellType == "" {
		return nil, missing("cell_type")
	}
	if raw.Metadata == nil {
		return nil, missing("metadata")
	}
	if raw.Source == nil {
		return nil, missing("source")
	}
	base := cellBase{
		cellType: CellType(raw.CellType),
		source:   raw.Source.String(),
		tags:     newTags(raw.Metadata.Tags),
	}

	if base.cellType != TypeCode {
		return &TextCell{cellBase: base, attachments: raw.Attachments}, nil
	}

	if raw.Outputs == nil {
		return nil, missing("outputs")
	}
	outputs, err := cls.ClassifyAll(raw.Outputs)
	if err != nil {
		return nil, err
	}
	return &CodeCell{
		cellBase: base,
		language: language,
		raw:      raw.Outputs,
		outputs:  outputs,
	}, nil
}
