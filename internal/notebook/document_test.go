package notebook

import (
	"encoding/json"
	"fmt"
	"testing"
)

func testCells(n int) []RawCell {
	cells := make([]RawCell, n)
	for i := range cells {
		if i%2 == 0 {
			cells[i] = RawCell{
				CellType: string(TypeMarkdown),
				Metadata: &CellMetadata{},
				Source:   Fragments{fmt.Sprintf("cell %d", i)},
			}
			continue
		}
		cells[i] = RawCell{
			CellType: string(TypeCode),
			Metadata: &CellMetadata{Tags: []string{"hi"}},
			Source:   Fragments{fmt.Sprintf("x = %d", i)},
			Outputs:  []RawOutput{{OutputType: OutputStream, Text: Fragments{"out"}}},
		}
	}
	return cells
}

func testMetadata() Metadata {
	var m Metadata
	m.Kernelspec.Language = "python"
	return m
}

func TestDocument_SplitConcatenatesToOriginal(t *testing.T) {
	const n = 5
	doc, err := New(testCells(n), testMetadata())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := 0; i <= n; i++ {
		first, second := doc.Split(i)
		if first.Len() != i || second.Len() != n-i {
			t.Fatalf("split(%d): expected %d/%d cells, got %d/%d", i, i, n-i, first.Len(), second.Len())
		}
		joined := append(first.Cells(), second.Cells()...)
		for j, c := range doc.Cells() {
			if joined[j] != c {
				t.Errorf("split(%d): cell %d differs after concatenation", i, j)
			}
		}
		if first.metadata != doc.metadata || second.metadata != doc.metadata {
			t.Errorf("split(%d): expected halves to share metadata", i)
		}
		if first.Language() != "python" || second.Language() != "python" {
			t.Errorf("split(%d): expected language to carry over", i)
		}
	}
}

func TestDocument_SplitClampsOutOfRange(t *testing.T) {
	doc, err := New(testCells(3), testMetadata())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	first, second := doc.Split(10)
	if first.Len() != 3 || second.Len() != 0 {
		t.Errorf("split(10): expected 3/0, got %d/%d", first.Len(), second.Len())
	}
	first, second = doc.Split(-2)
	if first.Len() != 0 || second.Len() != 3 {
		t.Errorf("split(-2): expected 0/3, got %d/%d", first.Len(), second.Len())
	}
}

func TestDocument_SplitDoesNotAlias(t *testing.T) {
	doc, err := New(testCells(4), testMetadata())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	first, _ := doc.Split(2)
	cells := first.Cells()
	cells[0] = nil
	if first.Cell(0) == nil || doc.Cell(0) == nil {
		t.Error("mutating a returned slice must not affect documents")
	}
}

func TestDocument_Slice(t *testing.T) {
	doc, err := New(testCells(4), testMetadata())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tests := []struct {
		from, to int
		want     int
	}{
		{0, 4, 4},
		{1, 3, 2},
		{3, 1, 0},
		{-5, 2, 2},
		{2, 99, 2},
	}
	for _, tt := range tests {
		part := doc.Slice(tt.from, tt.to)
		if got := part.Len(); got != tt.want {
			t.Errorf("Slice(%d, %d): expected %d cells, got %d", tt.from, tt.to, tt.want, got)
		}
		if part.Language() != doc.Language() {
			t.Errorf("Slice(%d, %d): expected language %q, got %q", tt.from, tt.to, doc.Language(), part.Language())
		}
	}
}

func TestDocument_CellsAreTyped(t *testing.T) {
	doc, err := New(testCells(2), testMetadata())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Cell(0).Type() != TypeMarkdown {
		t.Errorf("expected markdown, got %q", doc.Cell(0).Type())
	}
	code := doc.Cell(1).(*CodeCell)
	if !code.Tags().Has("hide_input", "hi") {
		t.Errorf("expected hi tag, got %v", code.Tags().List())
	}
	if len(code.RawOutputs()) != 1 || len(code.Outputs()) != 1 {
		t.Errorf("expected one raw and one classified output")
	}
	if doc.String() != "<notebook with 2 cells>" {
		t.Errorf("unexpected String(): %q", doc.String())
	}
}

func TestNew_WithClassifier(t *testing.T) {
	cells := []RawCell{{
		CellType: string(TypeCode),
		Metadata: &CellMetadata{},
		Source:   Fragments{"chart"},
		Outputs: []RawOutput{{
			OutputType: OutputDisplayData,
			Data: map[string]json.RawMessage{
				VegaLiteMIMEs[0]: json.RawMessage(`{"mark":"bar"}`),
			},
		}},
	}}

	doc, err := New(cells, testMetadata())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := len(doc.Cell(0).(*CodeCell).Outputs()); n != 0 {
		t.Errorf("expected vega-lite output dropped by default, got %d outputs", n)
	}

	doc, err = New(cells, testMetadata(), WithClassifier(NewClassifier(WithDeclarativeCharts(true))))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	outs := doc.Cell(0).(*CodeCell).Outputs()
	if len(outs) != 1 || outs[0].Kind != KindAltair {
		t.Errorf("expected one altair_fig output, got %+v", outs)
	}
}
