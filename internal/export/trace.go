package export

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/dgallion1/nbview/internal/display"
	"github.com/dgallion1/nbview/internal/notebook"
)

// Call is one recorded renderer invocation. Collapsible calls carry the
// calls made by their body as Children.
type Call struct {
	Kind      string     `json:"kind" yaml:"kind"`
	Text      string     `json:"text,omitempty" yaml:"text,omitempty"`
	Language  string     `json:"language,omitempty" yaml:"language,omitempty"`
	AllowHTML bool       `json:"allow_html,omitempty" yaml:"allow_html,omitempty"`
	Width     int        `json:"width,omitempty" yaml:"width,omitempty"`
	Height    int        `json:"height,omitempty" yaml:"height,omitempty"`
	Bytes     int        `json:"bytes,omitempty" yaml:"bytes,omitempty"`
	Columns   []string   `json:"columns,omitempty" yaml:"columns,omitempty"`
	Rows      [][]string `json:"rows,omitempty" yaml:"rows,omitempty"`
	Payload   any        `json:"payload,omitempty" yaml:"payload,omitempty"`
	Children  []Call     `json:"children,omitempty" yaml:"children,omitempty"`
}

// Trace is the full call sequence for one document.
type Trace struct {
	Language string `json:"language" yaml:"language"`
	Cells    int    `json:"cells" yaml:"cells"`
	Calls    []Call `json:"calls" yaml:"calls"`
}

// Recorder is a Renderer that records calls instead of drawing anything.
type Recorder struct {
	stack [][]Call
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{stack: [][]Call{nil}}
}

// Calls returns the top-level calls recorded so far.
func (r *Recorder) Calls() []Call { return r.stack[0] }

func (r *Recorder) add(c Call) {
	top := len(r.stack) - 1
	r.stack[top] = append(r.stack[top], c)
}

func (r *Recorder) Text(block display.TextBlock) error {
	r.add(Call{Kind: "text", Text: block.Markdown, AllowHTML: block.AllowHTML})
	return nil
}

func (r *Recorder) Code(source, language string) error {
	r.add(Call{Kind: "code", Text: source, Language: language})
	return nil
}

func (r *Recorder) Image(img display.Image) error {
	r.add(Call{Kind: "image", Width: img.Width, Height: img.Height, Bytes: len(img.PNG)})
	return nil
}

func (r *Recorder) Table(t display.Table) error {
	r.add(Call{Kind: "table", Columns: t.Columns, Rows: t.Rows})
	return nil
}

func (r *Recorder) Chart(fig notebook.Figure) error {
	payload, err := decodeAny(fig)
	if err != nil {
		return err
	}
	r.add(Call{Kind: "chart", Payload: payload})
	return nil
}

func (r *Recorder) DeclarativeChart(spec json.RawMessage) error {
	payload, err := decodeAny(spec)
	if err != nil {
		return err
	}
	r.add(Call{Kind: "declarative_chart", Payload: payload})
	return nil
}

func (r *Recorder) Error(name string) error {
	r.add(Call{Kind: "error", Text: name})
	return nil
}

func (r *Recorder) Collapsible(label string, body func() error) error {
	r.stack = append(r.stack, nil)
	err := body()
	children := r.stack[len(r.stack)-1]
	r.stack = r.stack[:len(r.stack)-1]
	if err != nil {
		return err
	}
	r.add(Call{Kind: "collapsible", Text: label, Children: children})
	return nil
}

// decodeAny converts JSON into generic values so YAML output stays readable.
func decodeAny(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode chart: %w", err)
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("decode chart: %w", err)
	}
	return out, nil
}

func recordTrace(doc *notebook.Document, opts Options) (*Trace, error) {
	rec := NewRecorder()
	if err := renderDocument(doc, rec, opts); err != nil {
		return nil, err
	}
	return &Trace{Language: doc.Language(), Cells: doc.Len(), Calls: rec.Calls()}, nil
}

// JSONExporter exports the render trace as pretty-printed JSON.
type JSONExporter struct {
	opts Options
}

func (e *JSONExporter) Export(doc *notebook.Document, w io.Writer) error {
	trace, err := recordTrace(doc, e.opts)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(trace)
}

func (e *JSONExporter) Extension() string   { return "json" }
func (e *JSONExporter) ContentType() string { return "application/json" }

// YAMLExporter exports the render trace as YAML.
type YAMLExporter struct {
	opts Options
}

func (e *YAMLExporter) Export(doc *notebook.Document, w io.Writer) error {
	trace, err := recordTrace(doc, e.opts)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	defer func() { _ = enc.Close() }()

	return enc.Encode(trace)
}

func (e *YAMLExporter) Extension() string   { return "yaml" }
func (e *YAMLExporter) ContentType() string { return "application/yaml" }
