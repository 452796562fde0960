// Package library keeps extracted documents in memory, indexed by ID and by
// content hash, evicting those not accessed within a TTL.
package library

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/dgallion1/readaloud/internal/chunker"
	"github.com/dgallion1/readaloud/internal/document"
)

var ErrMissingID = errors.New("document has no id")

type entry struct {
	doc        *document.Document
	lastAccess time.Time
}

// Summary is the list view of a document.
type Summary struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Type        document.Type `json:"type"`
	Filename    string        `json:"filename,omitempty"`
	Pages       int           `json:"pages"`
	Words       int           `json:"words"`
	ReadingMins int           `json:"reading_minutes"`
	ContentHash string        `json:"content_hash"`
	CreatedAt   time.Time     `json:"created_at"`
}

// Summarize builds the list view of doc.
func Summarize(doc *document.Document) Summary {
	words := doc.WordCount()
	return Summary{
		ID:          doc.ID,
		Title:       doc.Title,
		Type:        doc.Type,
		Filename:    doc.Filename,
		Pages:       doc.PageCount(),
		Words:       words,
		ReadingMins: int(chunker.ReadingTime(doc.Text()) / time.Minute),
		ContentHash: doc.ContentHash,
		CreatedAt:   doc.CreatedAt,
	}
}

// Library is a thread-safe in-memory document registry with TTL eviction.
// A zero TTL disables eviction.
type Library struct {
	mu     sync.Mutex
	docs   map[string]*entry
	byHash map[string]string
	ttl    time.Duration
}

func New(ttl time.Duration) *Library {
	return &Library{
		docs:   make(map[string]*entry),
		byHash: make(map[string]string),
		ttl:    ttl,
	}
}

// Put stores doc, replacing any document with the same ID.
func (l *Library) Put(doc *document.Document) error {
	if doc.ID == "" {
		return ErrMissingID
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now()
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if old, ok := l.docs[doc.ID]; ok {
		l.unindexLocked(old.doc)
	}
	l.docs[doc.ID] = &entry{doc: doc, lastAccess: time.Now()}
	if doc.ContentHash != "" {
		l.byHash[doc.ContentHash] = doc.ID
	}
	return nil
}

func (l *Library) Get(id string) (*document.Document, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.docs[id]
	if !ok {
		return nil, false
	}
	e.lastAccess = time.Now()
	return e.doc, true
}

// FindByHash returns the document with the given content hash.
func (l *Library) FindByHash(hash string) (*document.Document, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	id, ok := l.byHash[hash]
	if !ok {
		return nil, false
	}
	e := l.docs[id]
	e.lastAccess = time.Now()
	return e.doc, true
}

// List returns summaries, newest first.
func (l *Library) List() []Summary {
	l.mu.Lock()
	out := make([]Summary, 0, len(l.docs))
	for _, e := range l.docs {
		out = append(out, Summarize(e.doc))
	}
	l.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (l *Library) Delete(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.docs[id]
	if !ok {
		return false
	}
	l.unindexLocked(e.doc)
	delete(l.docs, id)
	return true
}

func (l *Library) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.docs)
}

// Cleanup removes documents not accessed within the TTL and returns how many
// were removed.
func (l *Library) Cleanup() int {
	if l.ttl <= 0 {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now()
	removed := 0
	for id, e := range l.docs {
		if now.Sub(e.lastAccess) > l.ttl {
			l.unindexLocked(e.doc)
			delete(l.docs, id)
			removed++
		}
	}
	return removed
}

func (l *Library) unindexLocked(doc *document.Document) {
	if l.byHash[doc.ContentHash] == doc.ID {
		delete(l.byHash, doc.ContentHash)
	}
}
