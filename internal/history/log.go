// Package history keeps the ordered in-memory record of prompt/response
// pairs for the running session.
package history

import (
	"iter"
	"sync"

	"github.com/jmallory/llm-desk-tui/internal/models"
)

// Log is an append-only, insertion-ordered record of history entries.
// The single-in-flight request model means appends never race with each
// other, but the UI reads from a different goroutine, hence the lock.
type Log struct {
	mu      sync.RWMutex
	entries []models.HistoryEntry
}

// New creates an empty log.
func New() *Log {
	return &Log{}
}

// Append adds an entry at the end of the log.
func (l *Log) Append(entry models.HistoryEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)
}

// Entries returns a restartable sequence over the entries in insertion
// order, newest last. The sequence iterates over a snapshot, so it is
// safe to append while iterating.
func (l *Log) Entries() iter.Seq[models.HistoryEntry] {
	l.mu.RLock()
	snapshot := make([]models.HistoryEntry, len(l.entries))
	copy(snapshot, l.entries)
	l.mu.RUnlock()

	return func(yield func(models.HistoryEntry) bool) {
		for _, e := range snapshot {
			if !yield(e) {
				return
			}
		}
	}
}

// All returns a copy of the entries slice in insertion order.
func (l *Log) All() []models.HistoryEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]models.HistoryEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of entries.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Clear empties the log. Only invoked on explicit user action.
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
}
