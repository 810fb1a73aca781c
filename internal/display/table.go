package display

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// ErrNoTable is returned when an HTML output contains no <table>.
var ErrNoTable = errors.New("no table found in html output")

// placeholderPrefix marks column names generated for empty header cells.
const placeholderPrefix = "Unnamed:"

// ParseTable extracts the first table from an HTML fragment. Header rows come
// from <thead>, or failing that from leading rows made only of <th> cells.
// Only text survives: attributes, inline styles and <style> blocks are dropped.
func ParseTable(src string) (Table, error) {
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return Table{}, fmt.Errorf("parse html: %w", err)
	}

	tbl := findElement(doc, "table")
	if tbl == nil {
		return Table{}, ErrNoTable
	}

	var head, body [][]string
	rows := tableRows(tbl)
	hasHead := false
	for _, row := range rows {
		if row.inHead {
			hasHead = true
			break
		}
	}
	for _, row := range rows {
		if len(row.cells) == 0 {
			continue
		}
		switch {
		case hasHead && row.inHead:
			head = append(head, row.cells)
		case !hasHead && row.allTH && len(body) == 0:
			head = append(head, row.cells)
		default:
			body = append(body, row.cells)
		}
	}

	width := 0
	for _, r := range head {
		width = max(width, len(r))
	}
	for _, r := range body {
		width = max(width, len(r))
	}

	t := Table{Columns: make([]string, width)}
	for j := range t.Columns {
		if len(head) == 0 {
			t.Columns[j] = strconv.Itoa(j)
			continue
		}
		t.Columns[j] = columnName(head, j)
	}
	for _, r := range body {
		row := make([]string, width)
		copy(row, r)
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// columnName merges stacked header rows, taking the first non-empty label.
// Placeholder names are blanked.
func columnName(head [][]string, j int) string {
	for _, h := range head {
		if j >= len(h) || h[j] == "" {
			continue
		}
		if strings.Contains(h[j], placeholderPrefix) {
			return ""
		}
		return h[j]
	}
	return ""
}

type tableRow struct {
	cells  []string
	inHead bool
	allTH  bool
}

// tableRows returns the rows of tbl in order, skipping nested tables.
func tableRows(tbl *html.Node) []tableRow {
	var rows []tableRow
	var walk func(n *html.Node, inHead bool)
	walk = func(n *html.Node, inHead bool) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch c.Data {
			case "table":
				continue
			case "thead":
				walk(c, true)
			case "tbody", "tfoot":
				walk(c, false)
			case "tr":
				rows = append(rows, readRow(c, inHead))
			}
		}
	}
	walk(tbl, false)
	return rows
}

func readRow(tr *html.Node, inHead bool) tableRow {
	row := tableRow{inHead: inHead, allTH: true}
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || (c.Data != "td" && c.Data != "th") {
			continue
		}
		if c.Data == "td" {
			row.allTH = false
		}
		text := cellText(c)
		for range colspan(c) {
			row.cells = append(row.cells, text)
		}
	}
	if len(row.cells) == 0 {
		row.allTH = false
	}
	return row
}

func colspan(n *html.Node) int {
	for _, a := range n.Attr {
		if a.Key != "colspan" {
			continue
		}
		if v, err := strconv.Atoi(strings.TrimSpace(a.Val)); err == nil && v > 1 {
			return v
		}
	}
	return 1
}

// cellText collects visible text, collapsing whitespace runs.
func cellText(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "style" || n.Data == "script") {
			return
		}
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
			buf.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.Join(strings.Fields(buf.String()), " ")
}

func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}
