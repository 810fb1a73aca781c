package display

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/dgallion1/nbview/internal/notebook"
)

// ErrMissingHandler is returned by NewDispatcher when an output kind has no
// renderer mapping.
var ErrMissingHandler = errors.New("no renderer for output kind")

// Collapsible section labels.
const (
	LabelCollapsedCell   = "See collapsed cell"
	LabelCollapsedSource = "See hidden source code..."
	LabelCollapsedOutput = "See hidden output..."
)

// Action is what the dispatcher does with a cell.
type Action string

const (
	ActionSkip           Action = "skip"
	ActionCollapseCell   Action = "collapse_cell"
	ActionHideInput      Action = "hide_input"
	ActionHideOutput     Action = "hide_output"
	ActionCollapseInput  Action = "collapse_input"
	ActionCollapseOutput Action = "collapse_output"
	ActionShowAll        Action = "show_all"
)

type rule struct {
	action  Action
	applies func(notebook.Cell) bool
}

// rules are evaluated top to bottom; the first that applies decides.
var rules = []rule{
	{ActionSkip, tagged("skip")},
	{ActionCollapseCell, textTagged("ci")},
	{ActionHideInput, codeTagged("hi", "hide_input")},
	{ActionHideOutput, codeTagged("ho", "hide_output")},
	{ActionCollapseInput, codeTagged("ci", "collapsed_input")},
	{ActionCollapseOutput, codeTagged("co", "collapsed_output")},
}

func tagged(tags ...string) func(notebook.Cell) bool {
	return func(c notebook.Cell) bool { return c.Tags().Has(tags...) }
}

func textTagged(tags ...string) func(notebook.Cell) bool {
	return func(c notebook.Cell) bool {
		_, ok := c.(*notebook.TextCell)
		return ok && c.Tags().Has(tags...)
	}
}

func codeTagged(tags ...string) func(notebook.Cell) bool {
	return func(c notebook.Cell) bool {
		_, ok := c.(*notebook.CodeCell)
		return ok && c.Tags().Has(tags...)
	}
}

// Resolve returns the action for a cell from its tags.
func Resolve(c notebook.Cell) Action {
	for _, r := range rules {
		if r.applies(c) {
			return r.action
		}
	}
	return ActionShowAll
}

type outputHandler func(r Renderer, cell *notebook.CodeCell, out notebook.Output) error

func defaultHandlers(maxPixels int64) map[notebook.Kind]outputHandler {
	code := func(r Renderer, cell *notebook.CodeCell, out notebook.Output) error {
		return r.Code(out.Text, cell.Language())
	}
	return map[notebook.Kind]outputHandler{
		notebook.KindStdout: code,
		notebook.KindPlain:  code,
		notebook.KindPNG: func(r Renderer, _ *notebook.CodeCell, out notebook.Output) error {
			img, err := CompositeImage(out.Text, maxPixels)
			if err != nil {
				return err
			}
			return r.Image(img)
		},
		notebook.KindHTML: func(r Renderer, _ *notebook.CodeCell, out notebook.Output) error {
			t, err := ParseTable(out.Text)
			if err != nil {
				return err
			}
			return r.Table(t)
		},
		notebook.KindPlotly: func(r Renderer, _ *notebook.CodeCell, out notebook.Output) error {
			return r.Chart(*out.Figure)
		},
		notebook.KindAltair: func(r Renderer, _ *notebook.CodeCell, out notebook.Output) error {
			return r.DeclarativeChart(out.Spec)
		},
		notebook.KindError: func(r Renderer, _ *notebook.CodeCell, out notebook.Output) error {
			return r.Error(out.Text)
		},
	}
}

// Dispatcher renders cells through a Renderer.
type Dispatcher struct {
	handlers  map[notebook.Kind]outputHandler
	log       *slog.Logger
	maxPixels int64
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithMaxImagePixels caps the size of images the dispatcher will composite.
// Zero or negative keeps DefaultMaxImagePixels.
func WithMaxImagePixels(n int64) DispatcherOption {
	return func(d *Dispatcher) {
		if n > 0 {
			d.maxPixels = n
		}
	}
}

// NewDispatcher builds a dispatcher. A nil logger discards debug output.
func NewDispatcher(log *slog.Logger, opts ...DispatcherOption) (*Dispatcher, error) {
	cfg := Dispatcher{maxPixels: DefaultMaxImagePixels}
	for _, o := range opts {
		o(&cfg)
	}
	d, err := newDispatcher(defaultHandlers(cfg.maxPixels), log)
	if err != nil {
		return nil, err
	}
	d.maxPixels = cfg.maxPixels
	return d, nil
}

func newDispatcher(handlers map[notebook.Kind]outputHandler, log *slog.Logger) (*Dispatcher, error) {
	for _, k := range notebook.AllKinds() {
		if _, ok := handlers[k]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingHandler, k)
		}
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Dispatcher{handlers: handlers, log: log, maxPixels: DefaultMaxImagePixels}, nil
}

// RenderDocument renders every cell in order and stops at the first error.
func (d *Dispatcher) RenderDocument(doc *notebook.Document, r Renderer) error {
	for i, c := range doc.Cells() {
		if err := d.Render(c, r); err != nil {
			return fmt.Errorf("cell %d: %w", i, err)
		}
	}
	return nil
}

// Render renders one cell according to its tags.
func (d *Dispatcher) Render(c notebook.Cell, r Renderer) error {
	action := Resolve(c)
	d.log.Debug("render cell", "type", c.Type(), "action", action, "tags", c.Tags().List())

	switch cell := c.(type) {
	case *notebook.TextCell:
		return d.renderText(cell, action, r)
	case *notebook.CodeCell:
		return d.renderCode(cell, action, r)
	default:
		return fmt.Errorf("unsupported cell %T", c)
	}
}

func (d *Dispatcher) renderText(cell *notebook.TextCell, action Action, r Renderer) error {
	switch action {
	case ActionSkip:
		return nil
	case ActionCollapseCell:
		return r.Collapsible(LabelCollapsedCell, func() error { return d.textBody(cell, r) })
	default:
		return d.textBody(cell, r)
	}
}

func (d *Dispatcher) textBody(cell *notebook.TextCell, r Renderer) error {
	allowHTML := len(cell.Attachments().Payloads()) == 0
	for _, seg := range cell.Segments() {
		if err := r.Text(TextBlock{Markdown: seg.Text, AllowHTML: allowHTML}); err != nil {
			return err
		}
		if !seg.HasImage {
			continue
		}
		img, err := CompositeImage(seg.Image, d.maxPixels)
		if err != nil {
			return err
		}
		if err := r.Image(img); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dispatcher) renderCode(cell *notebook.CodeCell, action Action, r Renderer) error {
	source := func() error { return d.source(cell, r) }
	outputs := func() error { return d.outputs(cell, r) }

	switch action {
	case ActionSkip:
		return nil
	case ActionHideInput:
		return outputs()
	case ActionHideOutput:
		return source()
	case ActionCollapseInput:
		if err := r.Collapsible(LabelCollapsedSource, source); err != nil {
			return err
		}
		return outputs()
	case ActionCollapseOutput:
		if err := source(); err != nil {
			return err
		}
		return r.Collapsible(LabelCollapsedOutput, outputs)
	default:
		if err := source(); err != nil {
			return err
		}
		return outputs()
	}
}

func (d *Dispatcher) source(cell *notebook.CodeCell, r Renderer) error {
	if cell.Source() == "" {
		return nil
	}
	return r.Code(cell.Source(), cell.Language())
}

func (d *Dispatcher) outputs(cell *notebook.CodeCell, r Renderer) error {
	for _, out := range cell.Outputs() {
		h, ok := d.handlers[out.Kind]
		if !ok {
			return fmt.Errorf("%w: %s", ErrMissingHandler, out.Kind)
		}
		if err := h(r, cell, out); err != nil {
			return fmt.Errorf("render %s output: %w", out.Kind, err)
		}
	}
	return nil
}

// kinds lists the kinds this dispatcher can render, sorted.
func (d *Dispatcher) kinds() []notebook.Kind {
	out := make([]notebook.Kind, 0, len(d.handlers))
	for k := range d.handlers {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
