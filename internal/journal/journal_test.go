package journal

import (
	"fmt"
	"testing"
	"time"
)

func TestJournalRetainsArrivalOrder(t *testing.T) {
	j := New(10, 0)
	for i := 1; i <= 3; i++ {
		j.Append(Entry{Sequence: uint64(i), Kind: "narrative", Text: fmt.Sprintf("line %d", i)})
	}

	entries := j.Entries()
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	for i, entry := range entries {
		if entry.Sequence != uint64(i+1) {
			t.Fatalf("expected sequence %d at index %d, got %d", i+1, i, entry.Sequence)
		}
		if entry.ReceivedAt.IsZero() {
			t.Fatalf("expected receive time to be stamped")
		}
	}
}

func TestJournalEvictsByCount(t *testing.T) {
	j := New(2, 0)
	for i := 1; i <= 4; i++ {
		j.Append(Entry{Sequence: uint64(i), Kind: "narrative"})
	}

	entries := j.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected count bound of 2, got %d", len(entries))
	}
	if entries[0].Sequence != 3 || entries[1].Sequence != 4 {
		t.Fatalf("expected oldest entries evicted, got %d,%d", entries[0].Sequence, entries[1].Sequence)
	}
}

func TestJournalEvictsByAge(t *testing.T) {
	j := New(10, time.Minute)
	now := time.Now()
	j.Append(Entry{Sequence: 1, Kind: "narrative", ReceivedAt: now.Add(-2 * time.Minute)})
	j.Append(Entry{Sequence: 2, Kind: "narrative", ReceivedAt: now})

	entries := j.Entries()
	if len(entries) != 1 || entries[0].Sequence != 2 {
		t.Fatalf("expected expired entry evicted, got %v", entries)
	}
}

func TestJournalClear(t *testing.T) {
	j := New(10, 0)
	j.Append(Entry{Sequence: 1, Kind: "narrative"})
	j.Clear()
	if j.Len() != 0 {
		t.Fatalf("expected empty journal after clear, got %d", j.Len())
	}
}

func TestCatchupPolicyWithinWindow(t *testing.T) {
	p := NewCatchupPolicy(100)
	if p.Evaluate(50, 120) {
		t.Fatalf("gap of 70 within window must not force resync")
	}
	if _, ok := p.Consume(); ok {
		t.Fatalf("no signal expected when within window")
	}
}

func TestCatchupPolicyOverflowLatchesUntilConsumed(t *testing.T) {
	p := NewCatchupPolicy(100)
	if !p.Evaluate(0, 500) {
		t.Fatalf("gap of 500 over window 100 must force resync")
	}
	signal, ok := p.Consume()
	if !ok {
		t.Fatalf("expected latched signal")
	}
	if signal.Gap() != 500 {
		t.Fatalf("expected gap 500, got %d", signal.Gap())
	}
	if _, ok := p.Consume(); ok {
		t.Fatalf("signal must reset after consumption")
	}
}

func TestCatchupPolicyUnbounded(t *testing.T) {
	p := NewCatchupPolicy(0)
	if p.Evaluate(0, 1_000_000) {
		t.Fatalf("zero window means replay is always accepted")
	}
}
