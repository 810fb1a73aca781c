package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/dgallion1/nbview/internal/display"
)

var errBoom = errors.New("boom")

func TestJSONExporter_Trace(t *testing.T) {
	exp, err := NewExporter("json", Options{})
	if err != nil {
		t.Fatalf("NewExporter: %v", err)
	}
	var buf bytes.Buffer
	if err := exp.Export(testDoc(t), &buf); err != nil {
		t.Fatalf("Export: %v", err)
	}

	var trace Trace
	if err := json.Unmarshal(buf.Bytes(), &trace); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, buf.String())
	}
	if trace.Language != "python" || trace.Cells != 4 {
		t.Errorf("unexpected header: language=%q cells=%d", trace.Language, trace.Cells)
	}

	var kinds []string
	for _, c := range trace.Calls {
		kinds = append(kinds, c.Kind)
	}
	want := []string{"text", "code", "code", "image", "table", "chart", "error", "code", "collapsible"}
	if strings.Join(kinds, ",") != strings.Join(want, ",") {
		t.Fatalf("expected calls %v, got %v", want, kinds)
	}

	text := trace.Calls[0]
	if !text.AllowHTML {
		t.Error("expected text cell without attachments to allow html")
	}
	if img := trace.Calls[3]; img.Width != 4 || img.Height != 3 || img.Bytes == 0 {
		t.Errorf("unexpected image call %+v", img)
	}
	collapsed := trace.Calls[8]
	if collapsed.Text != display.LabelCollapsedOutput || len(collapsed.Children) != 1 || collapsed.Children[0].Text != "1" {
		t.Errorf("unexpected collapsible call %+v", collapsed)
	}
}

func TestYAMLExporter_Trace(t *testing.T) {
	exp, err := NewExporter("yaml", Options{})
	if err != nil {
		t.Fatalf("NewExporter: %v", err)
	}
	var buf bytes.Buffer
	if err := exp.Export(testDoc(t), &buf); err != nil {
		t.Fatalf("Export: %v", err)
	}

	var trace Trace
	if err := yaml.Unmarshal(buf.Bytes(), &trace); err != nil {
		t.Fatalf("output is not valid YAML: %v\n%s", err, buf.String())
	}
	if len(trace.Calls) != 9 {
		t.Errorf("expected 9 calls, got %d", len(trace.Calls))
	}
	if !strings.Contains(buf.String(), "kind: chart") || !strings.Contains(buf.String(), "Sales") {
		t.Errorf("expected chart payload in YAML:\n%s", buf.String())
	}
}

func TestRecorder_NestedCollapsible(t *testing.T) {
	r := NewRecorder()
	err := r.Collapsible("outer", func() error {
		if err := r.Code("x", "python"); err != nil {
			return err
		}
		return r.Collapsible("inner", func() error { return r.Error("KeyError") })
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	calls := r.Calls()
	if len(calls) != 1 || calls[0].Text != "outer" {
		t.Fatalf("expected one outer call, got %+v", calls)
	}
	inner := calls[0].Children
	if len(inner) != 2 || inner[1].Kind != "collapsible" || inner[1].Children[0].Text != "KeyError" {
		t.Errorf("unexpected nesting %+v", inner)
	}
}

func TestRecorder_CollapsibleError(t *testing.T) {
	r := NewRecorder()
	err := r.Collapsible("label", func() error {
		_ = r.Code("x", "python")
		return errBoom
	})
	if !errors.Is(err, errBoom) {
		t.Fatalf("expected errBoom, got %v", err)
	}
	if len(r.Calls()) != 0 {
		t.Errorf("expected failed collapsible to record nothing, got %+v", r.Calls())
	}
}
