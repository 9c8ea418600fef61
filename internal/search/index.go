// Package search holds the in-memory document index searched by the AI relevance ranker.
package search

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/casebuddy/casebuddy-api/internal/models"
)

// Index is an insertion-ordered, process-local document store. Writers are
// serialised and readers receive copies, so callers may mutate what they get.
// Entries live until removed or the process exits.
type Index struct {
	mu   sync.RWMutex
	docs []models.IndexedDocument
	pos  map[string]int
	now  func() time.Time
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{pos: make(map[string]int), now: time.Now}
}

// Add stores doc and returns the stored copy. A missing id or indexed_at is
// filled in; an existing id is replaced in place, keeping its position.
func (ix *Index) Add(doc models.IndexedDocument) models.IndexedDocument {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.IndexedAt.IsZero() {
		doc.IndexedAt = ix.now().UTC()
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	if i, ok := ix.pos[doc.ID]; ok {
		ix.docs[i] = doc
		return doc
	}
	ix.pos[doc.ID] = len(ix.docs)
	ix.docs = append(ix.docs, doc)
	return doc
}

// Update applies fn to the entry with id under the write lock.
func (ix *Index) Update(id string, fn func(*models.IndexedDocument)) (models.IndexedDocument, bool) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	i, ok := ix.pos[id]
	if !ok {
		return models.IndexedDocument{}, false
	}
	fn(&ix.docs[i])
	ix.docs[i].ID = id
	return ix.docs[i], true
}

// Get returns the entry with id.
func (ix *Index) Get(id string) (models.IndexedDocument, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	i, ok := ix.pos[id]
	if !ok {
		return models.IndexedDocument{}, false
	}
	return ix.docs[i], true
}

// Remove deletes the entry with id, preserving the order of the rest.
func (ix *Index) Remove(id string) (models.IndexedDocument, bool) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	i, ok := ix.pos[id]
	if !ok {
		return models.IndexedDocument{}, false
	}
	removed := ix.docs[i]
	ix.docs = append(ix.docs[:i], ix.docs[i+1:]...)
	delete(ix.pos, id)
	for j := i; j < len(ix.docs); j++ {
		ix.pos[ix.docs[j].ID] = j
	}
	return removed, true
}

// Len reports the number of entries.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.docs)
}

// Filter returns matching entries in insertion order.
func (ix *Index) Filter(f models.DocumentFilter) []models.IndexedDocument {
	var types map[string]struct{}
	if len(f.Types) > 0 {
		types = make(map[string]struct{}, len(f.Types))
		for _, t := range f.Types {
			types[t] = struct{}{}
		}
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()
	out := make([]models.IndexedDocument, 0, len(ix.docs))
	for _, doc := range ix.docs {
		if matches(doc, f, types) {
			out = append(out, doc)
		}
	}
	return out
}

func matches(doc models.IndexedDocument, f models.DocumentFilter, types map[string]struct{}) bool {
	if f.UserID != "" && doc.UserID != f.UserID {
		return false
	}
	if f.CaseID != "" && doc.CaseID != f.CaseID {
		return false
	}
	if types != nil {
		if _, ok := types[doc.Type]; !ok {
			return false
		}
	}
	if f.From != nil && doc.IndexedAt.Before(*f.From) {
		return false
	}
	if f.To != nil && doc.IndexedAt.After(*f.To) {
		return false
	}
	return true
}
