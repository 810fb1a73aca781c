package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/tidwall/gjson"

	"github.com/dgallion1/nbview/internal/display"
	"github.com/dgallion1/nbview/internal/notebook"
)

const termWidth = 100

var (
	collapsedStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243")).
			Italic(true)

	termErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true).
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("196")).
			PaddingLeft(1)

	placeholderStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("39"))

	tableHeaderStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("62")).
				Bold(true).
				Padding(0, 1)

	tableCellStyle = lipgloss.NewStyle().Padding(0, 1)
)

// TerminalExporter renders ANSI-styled text for a terminal.
type TerminalExporter struct {
	opts Options
}

func (e *TerminalExporter) Export(doc *notebook.Document, w io.Writer) error {
	md, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(e.opts.TermStyle),
		glamour.WithWordWrap(termWidth),
	)
	if err != nil {
		return fmt.Errorf("create markdown renderer: %w", err)
	}
	r := &termRenderer{md: md, style: e.opts.CodeStyle}
	r.push()
	if err := renderDocument(doc, r, e.opts); err != nil {
		return err
	}
	_, err = w.Write(r.pop())
	return err
}

func (e *TerminalExporter) Extension() string   { return "txt" }
func (e *TerminalExporter) ContentType() string { return "text/plain; charset=utf-8" }

// termRenderer writes into a stack of buffers so a collapsible body can be
// boxed once it is complete.
type termRenderer struct {
	md    *glamour.TermRenderer
	style string
	stack []*bytes.Buffer
}

func (t *termRenderer) push() { t.stack = append(t.stack, &bytes.Buffer{}) }

func (t *termRenderer) pop() []byte {
	top := t.stack[len(t.stack)-1]
	t.stack = t.stack[:len(t.stack)-1]
	return top.Bytes()
}

func (t *termRenderer) out() *bytes.Buffer { return t.stack[len(t.stack)-1] }

func (t *termRenderer) line(s string) {
	t.out().WriteString(strings.TrimRight(s, "\n"))
	t.out().WriteByte('\n')
}

func (t *termRenderer) Text(block display.TextBlock) error {
	if strings.TrimSpace(block.Markdown) == "" {
		return nil
	}
	s, err := t.md.Render(block.Markdown)
	if err != nil {
		return fmt.Errorf("render markdown: %w", err)
	}
	t.line(s)
	return nil
}

func (t *termRenderer) Code(source, language string) error {
	var buf bytes.Buffer
	if err := quick.Highlight(&buf, source, language, "terminal256", t.style); err != nil {
		return fmt.Errorf("highlight %s: %w", language, err)
	}
	t.line(buf.String())
	return nil
}

func (t *termRenderer) Image(img display.Image) error {
	t.line(placeholderStyle.Render(fmt.Sprintf("[image %dx%d, %s]",
		img.Width, img.Height, humanize.Bytes(uint64(len(img.PNG))))))
	return nil
}

func (t *termRenderer) Table(tbl display.Table) error {
	lt := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(tbl.Columns...).
		Rows(tbl.Rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			return tableCellStyle
		})
	t.line(lt.String())
	return nil
}

func (t *termRenderer) Chart(fig notebook.Figure) error {
	t.line(placeholderStyle.Render(fmt.Sprintf("[plotly chart %q, %d trace(s)]",
		chartTitle(fig), gjson.GetBytes(fig.Data, "#").Int())))
	return nil
}

func (t *termRenderer) DeclarativeChart(spec json.RawMessage) error {
	t.line(placeholderStyle.Render(fmt.Sprintf("[vega-lite chart, mark %q]", chartMark(spec))))
	return nil
}

func (t *termRenderer) Error(name string) error {
	t.line(termErrorStyle.Render(name))
	return nil
}

func (t *termRenderer) Collapsible(label string, body func() error) error {
	t.push()
	err := body()
	inner := strings.TrimRight(string(t.pop()), "\n")
	if err != nil {
		return err
	}
	t.line(collapsedStyle.Render(labelStyle.Render(label) + "\n" + inner))
	return nil
}
