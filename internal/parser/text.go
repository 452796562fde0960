package parser

import (
	"bufio"
	"io"
	"strings"

	"github.com/dgallion1/readaloud/internal/document"
)

// TextParser handles plain text files. Paragraphs are separated by blank
// lines; form feeds start a new page.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*document.Document, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	b := document.NewBuilder(baseTitle(filename), document.TypeText)
	var current strings.Builder
	flush := func() {
		b.Paragraph(current.String())
		current.Reset()
	}

	for scanner.Scan() {
		for i, line := range strings.Split(scanner.Text(), "\f") {
			if i > 0 {
				flush()
				b.PageBreak()
			}
			if strings.TrimSpace(line) == "" {
				flush()
				continue
			}
			if current.Len() > 0 {
				current.WriteString("\n")
			}
			current.WriteString(line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	flush()

	return b.Build()
}
