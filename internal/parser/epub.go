package parser

import (
	"fmt"
	"io"

	"github.com/taylorskalyo/goreader/epub"
	"golang.org/x/net/html"

	"github.com/dgallion1/readaloud/internal/document"
)

// EPUBParser handles EPUB books, one page per spine item.
type EPUBParser struct{}

func (p *EPUBParser) Parse(r io.Reader, filename string) (*document.Document, error) {
	path, _, cleanup, err := spool(r, "readaloud-epub-*.epub")
	if err != nil {
		return nil, err
	}
	defer cleanup()

	rc, err := epub.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open epub: %w", err)
	}
	defer rc.Close()

	if len(rc.Rootfiles) == 0 {
		return nil, fmt.Errorf("no rootfiles found in epub")
	}
	book := rc.Rootfiles[0]

	b := document.NewBuilder(baseTitle(filename), document.TypeEPUB)
	b.SetTitle(book.Metadata.Title)
	for _, ref := range book.Spine.Itemrefs {
		if ref.Item == nil {
			continue
		}
		item, err := ref.Item.Open()
		if err != nil {
			continue
		}
		root, err := html.Parse(item)
		item.Close()
		if err != nil {
			continue
		}
		walkHTML(root, b)
		b.PageBreak()
	}

	return b.Build()
}
