package notebook

import (
	"encoding/json"
	"errors"
	"testing"
)

func strPtr(s string) *string { return &s }

func bundle(t *testing.T, kv map[string]any) map[string]json.RawMessage {
	t.Helper()
	out := make(map[string]json.RawMessage, len(kv))
	for k, v := range kv {
		b, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("marshal %s: %v", k, err)
		}
		out[k] = b
	}
	return out
}

var plotlyPayload = map[string]any{
	"data":   []any{map[string]any{"type": "bar", "y": []int{1, 2}}},
	"layout": map[string]any{"title": "t"},
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		raw      func(t *testing.T) RawOutput
		wantKind Kind
		wantText string
	}{
		{
			name: "stream joins fragments",
			raw: func(t *testing.T) RawOutput {
				return RawOutput{OutputType: OutputStream, Text: Fragments{"a", "b"}}
			},
			wantKind: KindStdout,
			wantText: "ab",
		},
		{
			name: "error yields ename even with data present",
			raw: func(t *testing.T) RawOutput {
				return RawOutput{
					OutputType: OutputError,
					EName:      strPtr("ValueError"),
					Data:       bundle(t, map[string]any{MIMEHTML: "<b>x</b>"}),
				}
			},
			wantKind: KindError,
			wantText: "ValueError",
		},
		{
			name: "error without data map",
			raw: func(t *testing.T) RawOutput {
				return RawOutput{OutputType: OutputError, EName: strPtr("KeyError")}
			},
			wantKind: KindError,
			wantText: "KeyError",
		},
		{
			name: "plotly beats html and plain",
			raw: func(t *testing.T) RawOutput {
				return RawOutput{
					OutputType: OutputDisplayData,
					Data: bundle(t, map[string]any{
						MIMEPlotly: plotlyPayload,
						MIMEHTML:   "<div>plot</div>",
						MIMEPlain:  "Figure()",
					}),
				}
			},
			wantKind: KindPlotly,
		},
		{
			name: "html joins fragments",
			raw: func(t *testing.T) RawOutput {
				return RawOutput{
					OutputType: OutputExecuteResult,
					Data: bundle(t, map[string]any{
						MIMEHTML:  []string{"<table>", "</table>"},
						MIMEPlain: "df",
					}),
				}
			},
			wantKind: KindHTML,
			wantText: "<table></table>",
		},
		{
			name: "png is trimmed",
			raw: func(t *testing.T) RawOutput {
				return RawOutput{
					OutputType: OutputDisplayData,
					Data: bundle(t, map[string]any{
						MIMEPNG:   "iVBORw0KGgo=\n",
						MIMEPlain: "<Figure size 640x480>",
					}),
				}
			},
			wantKind: KindPNG,
			wantText: "iVBORw0KGgo=",
		},
		{
			name: "plain only",
			raw: func(t *testing.T) RawOutput {
				return RawOutput{
					OutputType: OutputExecuteResult,
					Data:       bundle(t, map[string]any{MIMEPlain: []string{"4", "2"}}),
				}
			},
			wantKind: KindPlain,
			wantText: "42",
		},
		{
			name: "unrecognized mime yields none",
			raw: func(t *testing.T) RawOutput {
				return RawOutput{
					OutputType: OutputDisplayData,
					Data:       bundle(t, map[string]any{"application/json": map[string]int{"a": 1}}),
				}
			},
			wantKind: KindNone,
		},
		{
			name: "unknown output type yields none",
			raw: func(t *testing.T) RawOutput {
				return RawOutput{OutputType: "update_display_data", Data: bundle(t, map[string]any{MIMEPlain: "x"})}
			},
			wantKind: KindNone,
		},
		{
			name: "vega-lite is not claimed by default",
			raw: func(t *testing.T) RawOutput {
				return RawOutput{
					OutputType: OutputDisplayData,
					Data: bundle(t, map[string]any{
						VegaLiteMIMEs[1]: map[string]any{"mark": "bar"},
						MIMEPlain:        "alt.Chart(...)",
					}),
				}
			},
			wantKind: KindPlain,
			wantText: "alt.Chart(...)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Classify(tt.raw(t))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Kind != tt.wantKind {
				t.Fatalf("expected kind %q, got %q", tt.wantKind, got.Kind)
			}
			if got.Text != tt.wantText {
				t.Errorf("expected text %q, got %q", tt.wantText, got.Text)
			}
			if got.Matched() != (tt.wantKind != KindNone) {
				t.Errorf("Matched() = %v for kind %q", got.Matched(), got.Kind)
			}
		})
	}
}

func TestClassify_PlotlyFigure(t *testing.T) {
	raw := RawOutput{
		OutputType: OutputDisplayData,
		Data:       bundle(t, map[string]any{MIMEPlotly: plotlyPayload}),
	}
	got, err := Classify(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Figure == nil {
		t.Fatal("expected figure payload")
	}
	if got.Figure.Config != nil {
		t.Errorf("expected nil config when absent, got %s", got.Figure.Config)
	}
	var layout map[string]any
	if err := json.Unmarshal(got.Figure.Layout, &layout); err != nil {
		t.Fatalf("layout: %v", err)
	}
	if layout["title"] != "t" {
		t.Errorf("expected layout title %q, got %v", "t", layout["title"])
	}

	withConfig := map[string]any{"data": []any{}, "layout": map[string]any{}, "config": map[string]any{"responsive": true}}
	got, err = Classify(RawOutput{OutputType: OutputExecuteResult, Data: bundle(t, map[string]any{MIMEPlotly: withConfig})})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got.Figure.Config) != `{"responsive":true}` {
		t.Errorf("expected config to be kept, got %s", got.Figure.Config)
	}

	nullConfig := map[string]any{"data": []any{}, "layout": map[string]any{}, "config": nil}
	got, err = Classify(RawOutput{OutputType: OutputExecuteResult, Data: bundle(t, map[string]any{MIMEPlotly: nullConfig})})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Figure.Config != nil {
		t.Errorf("expected null config to read as absent, got %s", got.Figure.Config)
	}
}

func TestClassify_PlotlyNeverYieldsHTMLOrPlain(t *testing.T) {
	for _, outputType := range []string{OutputDisplayData, OutputExecuteResult} {
		raws := []RawOutput{{
			OutputType: outputType,
			Data: bundle(t, map[string]any{
				MIMEPlotly: plotlyPayload,
				MIMEHTML:   "<div></div>",
				MIMEPlain:  "Figure",
				MIMEPNG:    "AAAA",
			}),
		}}
		outs, err := NewClassifier().ClassifyAll(raws)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(outs) != 1 {
			t.Fatalf("%s: expected exactly 1 output, got %d", outputType, len(outs))
		}
		if outs[0].Kind != KindPlotly {
			t.Errorf("%s: expected plotly_fig, got %q", outputType, outs[0].Kind)
		}
	}
}

func TestClassify_MalformedRecords(t *testing.T) {
	tests := []struct {
		name     string
		raw      RawOutput
		wantPath string
	}{
		{"missing output type", RawOutput{}, "output_type"},
		{"stream without text", RawOutput{OutputType: OutputStream}, "text"},
		{"display without data", RawOutput{OutputType: OutputDisplayData}, "data"},
		{"error without ename", RawOutput{OutputType: OutputError}, "ename"},
		{
			"plotly without layout",
			RawOutput{OutputType: OutputDisplayData, Data: map[string]json.RawMessage{MIMEPlotly: json.RawMessage(`{"data":[]}`)}},
			"data." + MIMEPlotly + ".layout",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Classify(tt.raw)
			var me *MalformedError
			if !errors.As(err, &me) {
				t.Fatalf("expected MalformedError, got %v", err)
			}
			if me.Path != tt.wantPath {
				t.Errorf("expected path %q, got %q", tt.wantPath, me.Path)
			}
		})
	}
}

func TestClassifier_DeclarativeCharts(t *testing.T) {
	c := NewClassifier(WithDeclarativeCharts(true))
	raw := RawOutput{
		OutputType: OutputDisplayData,
		Data: bundle(t, map[string]any{
			VegaLiteMIMEs[0]: map[string]any{"mark": "point"},
			MIMEPlain:        "alt.Chart(...)",
			MIMEPNG:          "AAAA",
		}),
	}
	got, err := c.Classify(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Kind != KindAltair {
		t.Fatalf("expected altair_fig, got %q", got.Kind)
	}
	if string(got.Spec) != `{"mark":"point"}` {
		t.Errorf("unexpected spec %s", got.Spec)
	}
}

func TestClassifier_Kinds(t *testing.T) {
	want := []Kind{KindStdout, KindPlotly, KindHTML, KindPNG, KindPlain, KindError}
	got := NewClassifier().Kinds()
	if len(got) != len(want) {
		t.Fatalf("expected %d matchers, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("matcher %d: expected %q, got %q", i, want[i], got[i])
		}
	}

	withVega := NewClassifier(WithDeclarativeCharts(true)).Kinds()
	if len(withVega) != 7 || withVega[2] != KindAltair {
		t.Errorf("expected altair matcher after plotly, got %v", withVega)
	}
}

func TestClassifyAll_DropsUnmatchedKeepsOrder(t *testing.T) {
	raws := []RawOutput{
		{OutputType: OutputStream, Text: Fragments{"first"}},
		{OutputType: OutputDisplayData, Data: bundle(t, map[string]any{"application/json": 1})},
		{OutputType: OutputError, EName: strPtr("ZeroDivisionError")},
	}
	outs, err := NewClassifier().ClassifyAll(raws)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(outs) != 2 {
		t.Fatalf("expected 2 outputs, got %d", len(outs))
	}
	if outs[0].Kind != KindStdout || outs[1].Kind != KindError {
		t.Errorf("unexpected order: %q, %q", outs[0].Kind, outs[1].Kind)
	}
}
