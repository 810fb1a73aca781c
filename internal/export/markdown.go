package export

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

type blockKind int

const (
	blockParagraph blockKind = iota
	blockHeading
	blockCode
	blockListItem
)

// mdBlock is a flattened markdown block for formats without markup, such as
// DOCX paragraphs.
type mdBlock struct {
	kind  blockKind
	level int
	text  string
}

var blockParser = goldmark.New(goldmark.WithExtensions(extension.GFM))

// flattenMarkdown parses src and returns its top-level blocks as plain text.
// Lists are expanded into one block per item. Raw HTML blocks are dropped.
func flattenMarkdown(src string) []mdBlock {
	source := []byte(src)
	doc := blockParser.Parser().Parse(text.NewReader(source))

	var blocks []mdBlock
	var walk func(n ast.Node)
	walk = func(n ast.Node) {
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			switch node := c.(type) {
			case *ast.Heading:
				blocks = appendBlock(blocks, mdBlock{kind: blockHeading, level: node.Level, text: inlineText(node, source)})
			case *ast.FencedCodeBlock, *ast.CodeBlock:
				blocks = appendBlock(blocks, mdBlock{kind: blockCode, text: blockLines(c, source)})
			case *ast.List:
				for item := node.FirstChild(); item != nil; item = item.NextSibling() {
					blocks = appendBlock(blocks, mdBlock{kind: blockListItem, text: inlineText(item, source)})
				}
			case *ast.Blockquote:
				walk(c)
			case *ast.HTMLBlock, *ast.ThematicBreak:
			default:
				blocks = appendBlock(blocks, mdBlock{kind: blockParagraph, text: inlineText(c, source)})
			}
		}
	}
	walk(doc)
	return blocks
}

func appendBlock(blocks []mdBlock, b mdBlock) []mdBlock {
	if strings.TrimSpace(b.text) == "" {
		return blocks
	}
	return append(blocks, b)
}

// inlineText collects the text of the inline descendants of n.
func inlineText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	var collect func(ast.Node)
	collect = func(n ast.Node) {
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			switch t := c.(type) {
			case *ast.Text:
				buf.Write(t.Segment.Value(src))
				if t.HardLineBreak() || t.SoftLineBreak() {
					buf.WriteByte('\n')
				}
			case *ast.String:
				buf.Write(t.Value)
			case *ast.CodeSpan:
				collect(c)
			default:
				if c.Type() == ast.TypeBlock && buf.Len() > 0 {
					buf.WriteByte('\n')
				}
				collect(c)
			}
		}
	}
	collect(n)
	return strings.TrimSpace(buf.String())
}

func blockLines(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		buf.Write(line.Value(src))
	}
	return strings.TrimRight(buf.String(), "\n")
}
