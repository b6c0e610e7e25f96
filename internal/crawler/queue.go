package crawler

import "sync"

// PageEntry is one page waiting to be analyzed
type PageEntry struct {
	URL string
}

// Queue is a FIFO of pages with a visited set. A URL is accepted at most once
// per run, which keeps circular internal links from being processed twice.
type Queue struct {
	mu      sync.Mutex
	items   []PageEntry
	visited map[string]bool
}

// NewQueue creates an empty page queue
func NewQueue() *Queue {
	return &Queue{
		items:   make([]PageEntry, 0),
		visited: make(map[string]bool),
	}
}

// Push adds an entry unless its URL was already queued
// Returns true if added, false if duplicate
func (q *Queue) Push(entry PageEntry) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if entry.URL == "" || q.visited[entry.URL] {
		return false
	}

	q.visited[entry.URL] = true
	q.items = append(q.items, entry)
	return true
}

// Pop removes and returns the first entry, or false when the queue is drained
func (q *Queue) Pop() (PageEntry, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return PageEntry{}, false
	}
	entry := q.items[0]
	q.items = q.items[1:]
	return entry, true
}

// Size returns the current number of items in the queue
func (q *Queue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Remaining returns a snapshot of the entries not processed yet
func (q *Queue) Remaining() []PageEntry {
	q.mu.Lock()
	defer q.mu.Unlock()

	entries := make([]PageEntry, len(q.items))
	copy(entries, q.items)
	return entries
}
