package stream

import "sync/atomic"

// Tracker holds the highest event sequence seen so far. Reconnects read it
// to build the resume query; the dispatcher advances it as frames arrive.
type Tracker struct {
	cursor atomic.Uint64
}

func NewTracker() *Tracker {
	return &Tracker{}
}

// Observe adopts seq when it is ahead of the cursor. Stale or duplicate
// sequences leave the cursor alone and return false.
func (t *Tracker) Observe(seq uint64) bool {
	for {
		current := t.cursor.Load()
		if seq <= current {
			return false
		}
		if t.cursor.CompareAndSwap(current, seq) {
			return true
		}
	}
}

// Cursor returns the highest sequence observed.
func (t *Tracker) Cursor() uint64 {
	return t.cursor.Load()
}

// Reset drops the cursor to zero so the next connect replays from the start.
func (t *Tracker) Reset() {
	t.cursor.Store(0)
}
