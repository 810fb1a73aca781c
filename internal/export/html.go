package export

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"html"
	"io"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	"github.com/dgallion1/nbview/internal/display"
	"github.com/dgallion1/nbview/internal/notebook"
)

const (
	plotlyScript = "https://cdn.plot.ly/plotly-2.35.2.min.js"
	vegaScripts  = `<script src="https://cdn.jsdelivr.net/npm/vega@5"></script>
<script src="https://cdn.jsdelivr.net/npm/vega-lite@5"></script>
<script src="https://cdn.jsdelivr.net/npm/vega-embed@6"></script>`
)

const pageCSS = `body{font-family:-apple-system,BlinkMacSystemFont,"Segoe UI",Helvetica,Arial,sans-serif;max-width:960px;margin:2rem auto;padding:0 1rem;line-height:1.5;color:#1f2328}
pre.chroma{padding:.75rem;border-radius:6px;overflow-x:auto;font-size:.85rem}
table.dataframe{border-collapse:collapse;margin:1rem 0;font-size:.85rem}
table.dataframe th,table.dataframe td{border:1px solid #d0d7de;padding:.25rem .5rem;text-align:right}
table.dataframe thead th{background:#f6f8fa}
details{margin:.5rem 0}
summary{cursor:pointer;color:#57606a}
.nb-error{border-left:4px solid #cf222e;background:#ffebe9;padding:.5rem .75rem;margin:.5rem 0;font-family:monospace}
.nb-image{max-width:100%}`

// HTMLExporter renders a standalone HTML page.
type HTMLExporter struct {
	opts Options
}

func (e *HTMLExporter) Export(doc *notebook.Document, w io.Writer) error {
	r := newHTMLRenderer(e.opts.CodeStyle)
	if err := renderDocument(doc, r, e.opts); err != nil {
		return err
	}
	return r.writePage(w, e.opts.Title)
}

func (e *HTMLExporter) Extension() string   { return "html" }
func (e *HTMLExporter) ContentType() string { return "text/html; charset=utf-8" }

// htmlRenderer accumulates the page body; scripts are only linked when a
// chart was rendered.
type htmlRenderer struct {
	body      bytes.Buffer
	trusted   goldmark.Markdown
	plain     goldmark.Markdown
	policy    *bluemonday.Policy
	formatter *chromahtml.Formatter
	style     *chroma.Style
	charts    int
	plotly    bool
	vega      bool
}

func newHTMLRenderer(codeStyle string) *htmlRenderer {
	return &htmlRenderer{
		trusted: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
		),
		plain:     goldmark.New(goldmark.WithExtensions(extension.GFM)),
		policy:    bluemonday.UGCPolicy(),
		formatter: chromahtml.New(chromahtml.WithClasses(true)),
		style:     styles.Get(codeStyle),
	}
}

// Text converts markdown. Raw HTML is kept only when the block allows it,
// and the result is sanitized either way.
func (h *htmlRenderer) Text(block display.TextBlock) error {
	md := h.plain
	if block.AllowHTML {
		md = h.trusted
	}
	var buf bytes.Buffer
	if err := md.Convert([]byte(block.Markdown), &buf); err != nil {
		return fmt.Errorf("convert markdown: %w", err)
	}
	h.body.Write(h.policy.SanitizeBytes(buf.Bytes()))
	return nil
}

func (h *htmlRenderer) Code(source, language string) error {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	it, err := chroma.Coalesce(lexer).Tokenise(nil, source)
	if err != nil {
		return fmt.Errorf("tokenise %s: %w", language, err)
	}
	return h.formatter.Format(&h.body, h.style, it)
}

func (h *htmlRenderer) Image(img display.Image) error {
	fmt.Fprintf(&h.body, `<img class="nb-image" width="%d" height="%d" src="data:image/png;base64,%s">`+"\n",
		img.Width, img.Height, base64.StdEncoding.EncodeToString(img.PNG))
	return nil
}

func (h *htmlRenderer) Table(t display.Table) error {
	h.body.WriteString(`<table class="dataframe">` + "\n<thead><tr>")
	for _, c := range t.Columns {
		fmt.Fprintf(&h.body, "<th>%s</th>", html.EscapeString(c))
	}
	h.body.WriteString("</tr></thead>\n<tbody>\n")
	for _, row := range t.Rows {
		h.body.WriteString("<tr>")
		for i, v := range row {
			tag := "td"
			if i == 0 {
				tag = "th"
			}
			fmt.Fprintf(&h.body, "<%s>%s</%s>", tag, html.EscapeString(v), tag)
		}
		h.body.WriteString("</tr>\n")
	}
	h.body.WriteString("</tbody>\n</table>\n")
	return nil
}

func (h *htmlRenderer) Chart(fig notebook.Figure) error {
	h.charts++
	h.plotly = true
	config := fig.Config
	if len(config) == 0 {
		config = json.RawMessage("{}")
	}
	id := fmt.Sprintf("nb-chart-%d", h.charts)
	fmt.Fprintf(&h.body, "<div id=%q></div>\n<script>Plotly.newPlot(%q, %s, %s, %s);</script>\n",
		id, id, scriptJSON(fig.Data), scriptJSON(fig.Layout), scriptJSON(config))
	return nil
}

func (h *htmlRenderer) DeclarativeChart(spec json.RawMessage) error {
	h.charts++
	h.vega = true
	id := fmt.Sprintf("nb-chart-%d", h.charts)
	fmt.Fprintf(&h.body, "<div id=%q></div>\n<script>vegaEmbed(%q, %s);</script>\n",
		id, "#"+id, scriptJSON(spec))
	return nil
}

func (h *htmlRenderer) Error(name string) error {
	fmt.Fprintf(&h.body, `<div class="nb-error">%s</div>`+"\n", html.EscapeString(name))
	return nil
}

func (h *htmlRenderer) Collapsible(label string, body func() error) error {
	fmt.Fprintf(&h.body, "<details>\n<summary>%s</summary>\n", html.EscapeString(label))
	if err := body(); err != nil {
		return err
	}
	h.body.WriteString("</details>\n")
	return nil
}

func (h *htmlRenderer) writePage(w io.Writer, title string) error {
	var css bytes.Buffer
	if err := h.formatter.WriteCSS(&css, h.style); err != nil {
		return fmt.Errorf("write chroma css: %w", err)
	}

	var page bytes.Buffer
	page.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&page, "<title>%s</title>\n", html.EscapeString(title))
	fmt.Fprintf(&page, "<style>\n%s\n%s</style>\n", pageCSS, css.String())
	if h.plotly {
		fmt.Fprintf(&page, "<script src=%q></script>\n", plotlyScript)
	}
	if h.vega {
		page.WriteString(vegaScripts + "\n")
	}
	page.WriteString("</head>\n<body>\n")
	page.Write(h.body.Bytes())
	page.WriteString("</body>\n</html>\n")

	_, err := w.Write(page.Bytes())
	return err
}

// scriptJSON makes raw JSON safe to embed inside a <script> element: '<',
// '>' and '&' become \u escapes, so no string value can open or close markup.
func scriptJSON(b json.RawMessage) string {
	var buf bytes.Buffer
	json.HTMLEscape(&buf, b)
	return buf.String()
}
