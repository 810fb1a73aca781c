package notebook

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Output types written by the kernel.
const (
	OutputStream        = "stream"
	OutputDisplayData   = "display_data"
	OutputExecuteResult = "execute_result"
	OutputError         = "error"
)

// MIME keys the classifier recognizes.
const (
	MIMEPlotly = "application/vnd.plotly.v1+json"
	MIMEHTML   = "text/html"
	MIMEPNG    = "image/png"
	MIMEPlain  = "text/plain"
)

// VegaLiteMIMEs are the declarative chart keys, newest first.
var VegaLiteMIMEs = []string{
	"application/vnd.vegalite.v5+json",
	"application/vnd.vegalite.v4+json",
	"application/vnd.vegalite.v3+json",
	"application/vnd.vegalite.v2+json",
}

// Kind is the canonical kind of a classified output.
type Kind string

const (
	KindNone   Kind = ""
	KindStdout Kind = "stdout"
	KindPlotly Kind = "plotly_fig"
	KindHTML   Kind = "text/html"
	KindPNG    Kind = "image/png"
	KindPlain  Kind = "text/plain"
	KindAltair Kind = "altair_fig"
	KindError  Kind = "error"
)

// AllKinds lists every kind a Classifier can produce, whatever its options.
func AllKinds() []Kind {
	return []Kind{KindStdout, KindPlotly, KindHTML, KindPNG, KindPlain, KindAltair, KindError}
}

// Figure is a Plotly figure split into its data/layout/config parts.
// Config is nil when the notebook did not carry one.
type Figure struct {
	Data   json.RawMessage `json:"data"`
	Layout json.RawMessage `json:"layout"`
	Config json.RawMessage `json:"config,omitempty"`
}

// Output is a classified output: exactly one kind and its payload.
//
// Text carries the payload for stdout, text/html, image/png (base64),
// text/plain and error (the error name). Figure is set for plotly_fig and
// Spec for altair_fig.
type Output struct {
	Kind   Kind            `json:"kind"`
	Text   string          `json:"text,omitempty"`
	Figure *Figure         `json:"figure,omitempty"`
	Spec   json.RawMessage `json:"spec,omitempty"`
}

// Matched reports whether a classifier claimed the record.
func (o Output) Matched() bool { return o.Kind != KindNone }

type matcher struct {
	kind    Kind
	applies func(RawOutput) bool
	extract func(RawOutput) (Output, error)
}

// Classifier resolves raw output records to a single Kind using a fixed,
// ordered matcher list. The first matcher that applies wins.
type Classifier struct {
	matchers []matcher
}

// ClassifierOption configures a Classifier.
type ClassifierOption func(*classifierConfig)

type classifierConfig struct {
	declarativeCharts bool
}

// WithDeclarativeCharts enables the vega-lite matcher, placed right after plotly.
func WithDeclarativeCharts(enabled bool) ClassifierOption {
	return func(c *classifierConfig) { c.declarativeCharts = enabled }
}

// NewClassifier builds the matcher list.
func NewClassifier(opts ...ClassifierOption) *Classifier {
	var cfg classifierConfig
	for _, o := range opts {
		o(&cfg)
	}

	ms := []matcher{
		{KindStdout, isStream, extractStream},
		{KindPlotly, media(hasKey(MIMEPlotly)), extractPlotly},
	}
	if cfg.declarativeCharts {
		ms = append(ms, matcher{KindAltair, media(hasVegaLite), extractVegaLite})
	}
	ms = append(ms,
		matcher{KindHTML, media(all(hasKey(MIMEHTML), lacksKey(MIMEPlotly))), extractText(KindHTML, MIMEHTML)},
		matcher{KindPNG, media(all(hasKey(MIMEPNG), lacksKey(MIMEPlotly))), extractPNG},
		matcher{KindPlain, media(all(hasKey(MIMEPlain), lacksKey(MIMEHTML))), extractText(KindPlain, MIMEPlain)},
		matcher{KindError, isError, extractError},
	)
	return &Classifier{matchers: ms}
}

// Kinds lists the kinds this classifier may produce, in matcher order.
func (c *Classifier) Kinds() []Kind {
	out := make([]Kind, len(c.matchers))
	for i, m := range c.matchers {
		out[i] = m.kind
	}
	return out
}

// Classify returns the classified output for raw, or a zero Output if no
// matcher applies. An error means the record is missing a field its
// output_type requires.
func (c *Classifier) Classify(raw RawOutput) (Output, error) {
	if err := validateOutput(raw); err != nil {
		return Output{}, err
	}
	for _, m := range c.matchers {
		if !m.applies(raw) {
			continue
		}
		return m.extract(raw)
	}
	return Output{}, nil
}

// ClassifyAll classifies records in order and drops the unmatched ones.
func (c *Classifier) ClassifyAll(raws []RawOutput) ([]Output, error) {
	var out []Output
	for i, raw := range raws {
		o, err := c.Classify(raw)
		if err != nil {
			return nil, prefixPath(fmt.Sprintf("outputs[%d]", i), err)
		}
		if o.Matched() {
			out = append(out, o)
		}
	}
	return out, nil
}

var defaultClassifier = NewClassifier()

// Classify runs the default classifier.
func Classify(raw RawOutput) (Output, error) {
	return defaultClassifier.Classify(raw)
}

func validateOutput(raw RawOutput) error {
	switch raw.OutputType {
	case "":
		return missing("output_type")
	case OutputStream:
		if raw.Text == nil {
			return missing("text")
		}
	case OutputDisplayData, OutputExecuteResult:
		if raw.Data == nil {
			return missing("data")
		}
	case OutputError:
		if raw.EName == nil {
			return missing("ename")
		}
	}
	return nil
}

func isStream(o RawOutput) bool { return o.OutputType == OutputStream }

func isError(o RawOutput) bool { return o.OutputType == OutputError }

func isMedia(o RawOutput) bool {
	return o.OutputType == OutputDisplayData || o.OutputType == OutputExecuteResult
}

// media guards a payload predicate so it only ever sees rich output records.
func media(pred func(RawOutput) bool) func(RawOutput) bool {
	return func(o RawOutput) bool { return isMedia(o) && pred(o) }
}

func hasKey(key string) func(RawOutput) bool {
	return func(o RawOutput) bool {
		_, ok := o.Data[key]
		return ok
	}
}

func lacksKey(key string) func(RawOutput) bool {
	has := hasKey(key)
	return func(o RawOutput) bool { return !has(o) }
}

func all(preds ...func(RawOutput) bool) func(RawOutput) bool {
	return func(o RawOutput) bool {
		for _, p := range preds {
			if !p(o) {
				return false
			}
		}
		return true
	}
}

func hasVegaLite(o RawOutput) bool {
	return vegaLiteKey(o) != ""
}

func vegaLiteKey(o RawOutput) string {
	for _, k := range VegaLiteMIMEs {
		if _, ok := o.Data[k]; ok {
			return k
		}
	}
	return ""
}

func extractStream(o RawOutput) (Output, error) {
	return Output{Kind: KindStdout, Text: o.Text.String()}, nil
}

func extractError(o RawOutput) (Output, error) {
	return Output{Kind: KindError, Text: *o.EName}, nil
}

func extractText(kind Kind, key string) func(RawOutput) (Output, error) {
	return func(o RawOutput) (Output, error) {
		text, err := dataText(o, key)
		if err != nil {
			return Output{}, err
		}
		return Output{Kind: kind, Text: text}, nil
	}
}

func extractPNG(o RawOutput) (Output, error) {
	text, err := dataText(o, MIMEPNG)
	if err != nil {
		return Output{}, err
	}
	return Output{Kind: KindPNG, Text: strings.TrimSpace(text)}, nil
}

func extractPlotly(o RawOutput) (Output, error) {
	var fig Figure
	if err := json.Unmarshal(o.Data[MIMEPlotly], &fig); err != nil {
		return Output{}, &MalformedError{Path: "data." + MIMEPlotly, Err: err}
	}
	if fig.Data == nil {
		return Output{}, missing("data." + MIMEPlotly + ".data")
	}
	if fig.Layout == nil {
		return Output{}, missing("data." + MIMEPlotly + ".layout")
	}
	if isJSONNull(fig.Config) {
		fig.Config = nil
	}
	return Output{Kind: KindPlotly, Figure: &fig}, nil
}

func extractVegaLite(o RawOutput) (Output, error) {
	spec := o.Data[vegaLiteKey(o)]
	return Output{Kind: KindAltair, Spec: append(json.RawMessage(nil), spec...)}, nil
}

func dataText(o RawOutput, key string) (string, error) {
	var f Fragments
	if err := json.Unmarshal(o.Data[key], &f); err != nil {
		return "", &MalformedError{Path: "data." + key, Err: err}
	}
	return f.String(), nil
}

func isJSONNull(b json.RawMessage) bool {
	return b == nil || bytes.Equal(bytes.TrimSpace(b), []byte("null"))
}
