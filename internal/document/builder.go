package document

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Builder accumulates paragraphs into pages. Paragraphs on a page are
// separated by a blank line.
type Builder struct {
	title   string
	typ     Type
	pages   []string
	outline []Heading
	current strings.Builder
	runes   int
}

func NewBuilder(title string, typ Type) *Builder {
	return &Builder{title: title, typ: typ}
}

// SetTitle replaces the title, e.g. with one found in document metadata.
func (b *Builder) SetTitle(title string) {
	if t := strings.TrimSpace(title); t != "" {
		b.title = t
	}
}

// Heading writes a section heading as its own paragraph and records it in
// the outline.
func (b *Builder) Heading(level int, title string) {
	title = strings.TrimSpace(norm.NFC.String(title))
	if title == "" {
		return
	}
	offset := b.runes
	if b.current.Len() > 0 {
		offset += 2
	}
	b.outline = append(b.outline, Heading{
		Title:  title,
		Level:  level,
		Page:   len(b.pages) + 1,
		Offset: offset,
	})
	b.Paragraph(title)
}

// Paragraph appends text to the current page. Blank text is ignored.
func (b *Builder) Paragraph(text string) {
	text = strings.TrimSpace(norm.NFC.String(text))
	if text == "" {
		return
	}
	if b.current.Len() > 0 {
		b.current.WriteString("\n\n")
		b.runes += 2
	}
	b.current.WriteString(text)
	b.runes += utf8.RuneCountInString(text)
}

// PageBreak ends the current page. Empty pages are dropped.
func (b *Builder) PageBreak() {
	if b.current.Len() == 0 {
		return
	}
	b.pages = append(b.pages, b.current.String())
	b.current.Reset()
	b.runes = 0
}

// Build finishes the document. It fails with ErrNoText if no page has text.
func (b *Builder) Build() (*Document, error) {
	b.PageBreak()
	if len(b.pages) == 0 {
		return nil, ErrNoText
	}
	return &Document{
		Title:       b.title,
		Type:        b.typ,
		Pages:       b.pages,
		Outline:     b.outline,
		ContentHash: Hash(b.pages),
	}, nil
}
