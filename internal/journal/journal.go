// Package journal keeps the rolling buffer of operator-log entries behind
// the console panes and decides when a reconnect backlog is too large to
// replay.
package journal

import (
	"sync"
	"time"
)

// Entry is one retained log line. The journal stores what the console
// renders; full envelopes are not retained (no persistent local history).
type Entry struct {
	Sequence   uint64
	Kind       string
	Actor      string
	Phase      string
	Text       string
	ReceivedAt time.Time
}

// Journal accumulates entries with retention bounded by count and age.
// Single writer (the event dispatcher); read by the console.
type Journal struct {
	mu         sync.RWMutex
	entries    []Entry
	maxEntries int
	maxAge     time.Duration
}

// New constructs a journal retaining at most maxEntries entries no older
// than maxAge. Zero maxAge disables age-based eviction.
func New(maxEntries int, maxAge time.Duration) *Journal {
	if maxEntries <= 0 {
		maxEntries = 500
	}
	if maxAge < 0 {
		maxAge = 0
	}
	return &Journal{
		entries:    make([]Entry, 0, maxEntries),
		maxEntries: maxEntries,
		maxAge:     maxAge,
	}
}

// Append records an entry and enforces the retention bounds.
func (j *Journal) Append(entry Entry) {
	if entry.ReceivedAt.IsZero() {
		entry.ReceivedAt = time.Now()
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, entry)

	if j.maxAge > 0 {
		cutoff := entry.ReceivedAt.Add(-j.maxAge)
		idx := 0
		for idx < len(j.entries) && j.entries[idx].ReceivedAt.Before(cutoff) {
			idx++
		}
		if idx > 0 {
			copy(j.entries, j.entries[idx:])
			j.entries = j.entries[:len(j.entries)-idx]
		}
	}

	if overflow := len(j.entries) - j.maxEntries; overflow > 0 {
		copy(j.entries, j.entries[overflow:])
		j.entries = j.entries[:len(j.entries)-overflow]
	}
}

// Entries returns the retained entries in arrival order. Callers receive a
// copy.
func (j *Journal) Entries() []Entry {
	j.mu.RLock()
	defer j.mu.RUnlock()
	if len(j.entries) == 0 {
		return nil
	}
	copied := make([]Entry, len(j.entries))
	copy(copied, j.entries)
	return copied
}

// Len reports the number of retained entries.
func (j *Journal) Len() int {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return len(j.entries)
}

// Clear drops every retained entry. Used on explicit restart.
func (j *Journal) Clear() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = j.entries[:0]
}
