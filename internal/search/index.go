// Package search keeps a full-text view of tasks eventually consistent
// with the primary store. The production deployment points Index at an
// external document store; MemoryIndex is the in-process implementation
// used by default and in tests.
package search

import (
	"sort"
	"strings"
	"sync"
)

// Document is the indexed projection of a task.
type Document struct {
	TaskID      int64    `json:"taskId"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	IsCompleted bool     `json:"isCompleted"`
	Comments    []string `json:"-"`
}

// Index receives change notifications from the write path and answers
// free-text queries. Implementations may lag behind the primary store.
type Index interface {
	IndexTask(doc Document)
	RemoveTask(taskID int64)
	Search(query string, limit int) []Document
}

type MemoryIndex struct {
	mu   sync.RWMutex
	docs map[int64]Document
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{docs: make(map[int64]Document)}
}

func (m *MemoryIndex) IndexTask(doc Document) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[doc.TaskID] = doc
}

func (m *MemoryIndex) RemoveTask(taskID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, taskID)
}

// Search matches the query case-insensitively against title,
// description and comment bodies, returning up to limit documents in
// ascending task-id order.
func (m *MemoryIndex) Search(query string, limit int) []Document {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" || limit < 1 {
		return nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	matches := make([]Document, 0)
	for _, doc := range m.docs {
		if matchesDocument(doc, needle) {
			matches = append(matches, doc)
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].TaskID < matches[j].TaskID })
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

func matchesDocument(doc Document, needle string) bool {
	if strings.Contains(strings.ToLower(doc.Title), needle) {
		return true
	}
	if strings.Contains(strings.ToLower(doc.Description), needle) {
		return true
	}
	for _, body := range doc.Comments {
		if strings.Contains(strings.ToLower(body), needle) {
			return true
		}
	}
	return false
}
