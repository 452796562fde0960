package parser

import (
	"bytes"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/dgallion1/readaloud/internal/document"
)

// MarkdownParser handles Markdown files using goldmark. The result is a
// single page; headings are kept in the outline.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*document.Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	md := goldmark.New()
	root := md.Parser().Parse(text.NewReader(src))

	b := document.NewBuilder(baseTitle(filename), document.TypeMarkdown)
	titled := false
	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			title := extractText(node, src)
			if node.Level == 1 && !titled {
				b.SetTitle(title)
				titled = true
			}
			b.Heading(node.Level, title)
		case *ast.ThematicBreak, *ast.HTMLBlock:
			// Nothing to read aloud.
		case *ast.List:
			for item := node.FirstChild(); item != nil; item = item.NextSibling() {
				b.Paragraph(extractText(item, src))
			}
		default:
			b.Paragraph(extractText(n, src))
		}
	}

	return b.Build()
}

// extractText gets the text content of a goldmark AST node.
func extractText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	if n.Type() == ast.TypeBlock && n.FirstChild() == nil {
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			buf.Write(line.Value(src))
		}
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Value(src))
			if t.HardLineBreak() || t.SoftLineBreak() {
				buf.WriteByte('\n')
			}
			continue
		}
		if c.Type() == ast.TypeBlock && buf.Len() > 0 {
			buf.WriteByte('\n')
		}
		// Recurse for nested inlines and blocks.
		buf.WriteString(extractText(c, src))
	}
	return strings.TrimSpace(buf.String())
}
