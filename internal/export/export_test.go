package export

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/dgallion1/nbview/internal/notebook"
)

func testPNG(t *testing.T) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 4, 3))
	img.Set(1, 1, color.NRGBA{R: 200, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

// testDoc builds a notebook exercising every output kind and a collapsed cell.
func testDoc(t *testing.T) *notebook.Document {
	t.Helper()
	pngData := testPNG(t)
	nb := map[string]any{
		"metadata": map[string]any{
			"kernelspec": map[string]any{"name": "python3", "language": "python"},
		},
		"nbformat": 4,
		"cells": []any{
			map[string]any{
				"cell_type": "markdown",
				"metadata":  map[string]any{},
				"source":    []string{"# Results\n", "\n", "Some *analysis* here.\n", "\n", "- first\n", "- second\n"},
			},
			map[string]any{
				"cell_type": "code",
				"metadata":  map[string]any{},
				"source":    "print('hello')",
				"outputs": []any{
					map[string]any{"output_type": "stream", "name": "stdout", "text": []string{"hello\n"}},
					map[string]any{"output_type": "display_data", "data": map[string]any{"image/png": pngData + "\n"}, "metadata": map[string]any{}},
					map[string]any{"output_type": "execute_result", "execution_count": 2, "metadata": map[string]any{},
						"data": map[string]any{
							"text/html":  "<table><thead><tr><th></th><th>x</th></tr></thead><tbody><tr><th>0</th><td>1.5</td></tr></tbody></table>",
							"text/plain": "   x\n0  1.5",
						}},
					map[string]any{"output_type": "display_data", "metadata": map[string]any{},
						"data": map[string]any{
							notebook.MIMEPlotly: map[string]any{
								"data":   []any{map[string]any{"type": "bar", "y": []int{1, 2}}},
								"layout": map[string]any{"title": map[string]any{"text": "Sales"}},
							},
							"text/html": "<div>plotly</div>",
						}},
					map[string]any{"output_type": "error", "ename": "ValueError", "evalue": "bad", "traceback": []string{}},
				},
			},
			map[string]any{
				"cell_type": "code",
				"metadata":  map[string]any{"tags": []string{"co"}},
				"source":    "x = 1",
				"outputs": []any{
					map[string]any{"output_type": "execute_result", "execution_count": 3, "metadata": map[string]any{},
						"data": map[string]any{"text/plain": "1"}},
				},
			},
			map[string]any{
				"cell_type": "markdown",
				"metadata":  map[string]any{"tags": []string{"skip"}},
				"source":    "secret notes",
			},
		},
	}
	b, err := json.Marshal(nb)
	if err != nil {
		t.Fatalf("marshal notebook: %v", err)
	}
	doc, err := notebook.Decode(bytes.NewReader(b))
	if err != nil {
		t.Fatalf("decode notebook: %v", err)
	}
	return doc
}

func TestNewExporter(t *testing.T) {
	tests := []struct {
		format  string
		wantExt string
		wantErr bool
	}{
		{format: "html", wantExt: "html"},
		{format: "docx", wantExt: "docx"},
		{format: "term", wantExt: "txt"},
		{format: "terminal", wantExt: "txt"},
		{format: "json", wantExt: "json"},
		{format: "yaml", wantExt: "yaml"},
		{format: "yml", wantExt: "yaml"},
		{format: "pdf", wantErr: true},
		{format: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			exp, err := NewExporter(tt.format, Options{})
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewExporter(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if got := exp.Extension(); got != tt.wantExt {
				t.Errorf("Extension() = %q, want %q", got, tt.wantExt)
			}
			if exp.ContentType() == "" {
				t.Error("ContentType() is empty")
			}
		})
	}
}

func TestExporters_ProduceOutput(t *testing.T) {
	doc := testDoc(t)
	for _, format := range Formats() {
		t.Run(format, func(t *testing.T) {
			exp, err := NewExporter(format, Options{TermStyle: "notty"})
			if err != nil {
				t.Fatalf("NewExporter: %v", err)
			}
			var buf bytes.Buffer
			if err := exp.Export(doc, &buf); err != nil {
				t.Fatalf("Export: %v", err)
			}
			if buf.Len() == 0 {
				t.Error("expected non-empty output")
			}
		})
	}
}

func TestFlattenMarkdown(t *testing.T) {
	blocks := flattenMarkdown("# Title\n\nSome *bold* text.\n\n- a\n- b\n\n```py\nx = 1\n```\n\n<div>raw</div>\n")
	want := []mdBlock{
		{kind: blockHeading, level: 1, text: "Title"},
		{kind: blockParagraph, text: "Some bold text."},
		{kind: blockListItem, text: "a"},
		{kind: blockListItem, text: "b"},
		{kind: blockCode, text: "x = 1"},
	}
	if len(blocks) != len(want) {
		t.Fatalf("expected %d blocks, got %d: %+v", len(want), len(blocks), blocks)
	}
	for i := range want {
		if blocks[i] != want[i] {
			t.Errorf("block %d: expected %+v, got %+v", i, want[i], blocks[i])
		}
	}
}

func TestChartMark(t *testing.T) {
	if got := chartMark(json.RawMessage(`{"mark":"bar"}`)); got != "bar" {
		t.Errorf("expected bar, got %q", got)
	}
	if got := chartMark(json.RawMessage(`{"mark":{"type":"line","point":true}}`)); got != "line" {
		t.Errorf("expected line, got %q", got)
	}
	if got := chartTitle(notebook.Figure{Layout: json.RawMessage(`{"title":"plain"}`)}); got != "plain" {
		t.Errorf("expected plain, got %q", got)
	}
	if got := scriptJSON(json.RawMessage(`{"a":"</script><!--&"}`)); got != `{"a":"\u003c/script\u003e\u003c!--\u0026"}` {
		t.Errorf("expected markup characters escaped, got %s", got)
	}
}
