package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fumiama/go-docx"
	"github.com/tidwall/gjson"

	"github.com/dgallion1/nbview/internal/display"
	"github.com/dgallion1/nbview/internal/notebook"
)

// Run sizes are in half-points.
const (
	docxBodySize  = "22"
	docxCodeSize  = "18"
	docxLabelSize = "20"
	docxCodeColor = "24292F"
	docxNoteColor = "57606A"
	docxErrColor  = "CF222E"
)

var docxHeadingSizes = map[int]string{1: "36", 2: "32", 3: "28", 4: "26", 5: "24", 6: "22"}

// DOCXExporter renders a Word document.
type DOCXExporter struct {
	opts Options
}

func (e *DOCXExporter) Export(doc *notebook.Document, w io.Writer) error {
	r := &docxRenderer{doc: docx.New().WithDefaultTheme()}
	if err := renderDocument(doc, r, e.opts); err != nil {
		return err
	}
	if _, err := r.doc.WriteTo(w); err != nil {
		return fmt.Errorf("write docx: %w", err)
	}
	return nil
}

func (e *DOCXExporter) Extension() string { return "docx" }
func (e *DOCXExporter) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
}

// docxRenderer has no collapsible widgets, so collapsed sections are written
// inline under an italic label.
type docxRenderer struct {
	doc *docx.Docx
}

func (d *docxRenderer) Text(block display.TextBlock) error {
	for _, b := range flattenMarkdown(block.Markdown) {
		switch b.kind {
		case blockHeading:
			size, ok := docxHeadingSizes[b.level]
			if !ok {
				size = docxBodySize
			}
			d.doc.AddParagraph().AddText(b.text).Bold().Size(size)
		case blockCode:
			d.codeLines(b.text)
		case blockListItem:
			d.doc.AddParagraph().AddText("• " + b.text).Size(docxBodySize)
		default:
			d.doc.AddParagraph().AddText(b.text).Size(docxBodySize)
		}
	}
	return nil
}

func (d *docxRenderer) Code(source, _ string) error {
	d.codeLines(source)
	return nil
}

func (d *docxRenderer) codeLines(source string) {
	for _, line := range strings.Split(strings.TrimRight(source, "\n"), "\n") {
		d.doc.AddParagraph().AddText(line).Size(docxCodeSize).Color(docxCodeColor)
	}
}

func (d *docxRenderer) Image(img display.Image) error {
	if _, err := d.doc.AddParagraph().AddInlineDrawing(img.PNG); err != nil {
		return fmt.Errorf("add image: %w", err)
	}
	return nil
}

func (d *docxRenderer) Table(t display.Table) error {
	if len(t.Columns) == 0 {
		return nil
	}
	tbl := d.doc.AddTable(len(t.Rows)+1, len(t.Columns), 0, nil)
	for j, c := range t.Columns {
		tbl.TableRows[0].TableCells[j].AddParagraph().AddText(c).Bold().Size(docxCodeSize)
	}
	for i, row := range t.Rows {
		for j, v := range row {
			run := tbl.TableRows[i+1].TableCells[j].AddParagraph().AddText(v).Size(docxCodeSize)
			if j == 0 {
				run.Bold()
			}
		}
	}
	return nil
}

func (d *docxRenderer) Chart(fig notebook.Figure) error {
	d.note(fmt.Sprintf("[Plotly chart %q, %d trace(s); interactive charts are not embedded in DOCX]",
		chartTitle(fig), gjson.GetBytes(fig.Data, "#").Int()))
	return nil
}

// chartTitle reads layout.title, which Plotly accepts as a string or {"text": ...}.
func chartTitle(fig notebook.Figure) string {
	title := gjson.GetBytes(fig.Layout, "title")
	if title.IsObject() {
		return title.Get("text").String()
	}
	return title.String()
}

func (d *docxRenderer) DeclarativeChart(spec json.RawMessage) error {
	d.note(fmt.Sprintf("[Vega-Lite chart, mark %q; interactive charts are not embedded in DOCX]", chartMark(spec)))
	return nil
}

func (d *docxRenderer) Error(name string) error {
	d.doc.AddParagraph().AddText(name).Bold().Color(docxErrColor).Size(docxBodySize)
	return nil
}

func (d *docxRenderer) Collapsible(label string, body func() error) error {
	d.doc.AddParagraph().AddText(label).Italic().Color(docxNoteColor).Size(docxLabelSize)
	return body()
}

func (d *docxRenderer) note(s string) {
	d.doc.AddParagraph().AddText(s).Italic().Color(docxNoteColor).Size(docxLabelSize)
}

// chartMark reads a vega-lite mark, which is either a string or {"type": ...}.
func chartMark(spec json.RawMessage) string {
	mark := gjson.GetBytes(spec, "mark")
	if mark.IsObject() {
		return mark.Get("type").String()
	}
	return mark.String()
}
