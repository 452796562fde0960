package document

// Navigator tracks the current page of a document. Page numbers are 1-based
// and requests outside [1, TotalPages] are rejected without moving.
// It is not safe for concurrent use.
type Navigator struct {
	doc  *Document
	page int
}

func NewNavigator(doc *Document) *Navigator {
	return &Navigator{doc: doc, page: 1}
}

func (n *Navigator) Document() *Document { return n.doc }

func (n *Navigator) CurrentPage() int { return n.page }

func (n *Navigator) TotalPages() int { return n.doc.PageCount() }

func (n *Navigator) GoToPage(page int) bool {
	if page < 1 || page > n.TotalPages() {
		return false
	}
	n.page = page
	return true
}

func (n *Navigator) NextPage() bool { return n.GoToPage(n.page + 1) }

func (n *Navigator) PrevPage() bool { return n.GoToPage(n.page - 1) }

// Text returns the current page's text.
func (n *Navigator) Text() string {
	text, _ := n.doc.Page(n.page)
	return text
}
