// Package document holds extracted document text split into pages.
package document

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/dgallion1/readaloud/internal/chunker"
)

// ErrNoText is returned when extraction yields nothing readable.
var ErrNoText = errors.New("no extractable text")

// Type is the source format of a document.
type Type string

const (
	TypePDF      Type = "pdf"
	TypeDOCX     Type = "docx"
	TypeText     Type = "text"
	TypeMarkdown Type = "markdown"
	TypeHTML     Type = "html"
	TypeCSV      Type = "csv"
	TypeEPUB     Type = "epub"
)

// Heading is an outline entry. Offset is a rune offset into the page text.
type Heading struct {
	Title  string `json:"title"`
	Level  int    `json:"level"`
	Page   int    `json:"page"`
	Offset int    `json:"offset"`
}

// Document is an extracted document. Pages are NFC-normalized and never empty;
// non-paginated formats have exactly one page.
type Document struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Type        Type      `json:"type"`
	Filename    string    `json:"filename,omitempty"`
	Pages       []string  `json:"-"`
	Outline     []Heading `json:"outline,omitempty"`
	ContentHash string    `json:"content_hash"`
	CreatedAt   time.Time `json:"created_at"`
}

// PageCount returns the number of pages.
func (d *Document) PageCount() int { return len(d.Pages) }

// Page returns the text of 1-based page n.
func (d *Document) Page(n int) (string, bool) {
	if n < 1 || n > len(d.Pages) {
		return "", false
	}
	return d.Pages[n-1], true
}

// Text returns the full text with pages separated by blank lines.
func (d *Document) Text() string {
	return strings.Join(d.Pages, "\n\n")
}

func (d *Document) WordCount() int {
	n := 0
	for _, p := range d.Pages {
		n += chunker.WordCount(p)
	}
	return n
}

// Hash returns the hex SHA-256 of the pages separated by form feeds.
func Hash(pages []string) string {
	h := sha256.New()
	for i, p := range pages {
		if i > 0 {
			h.Write([]byte{'\f'})
		}
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))
}
