package journal

import "fmt"

// ResyncSignal describes one forced-resync decision so the console can show
// why history was skipped.
type ResyncSignal struct {
	Cursor uint64
	Head   uint64
}

// Gap reports how many events were behind the server head.
func (s ResyncSignal) Gap() uint64 {
	if s.Head <= s.Cursor {
		return 0
	}
	return s.Head - s.Cursor
}

func (s ResyncSignal) Summary() string {
	return fmt.Sprintf("gap=%d cursor=%d head=%d", s.Gap(), s.Cursor, s.Head)
}

// CatchupPolicy bounds how much history the client asks the server to replay
// after a reconnect. When the gap between the local cursor and the server's
// head exceeds the window, replay would be an unbounded backlog; the client
// instead adopts the hello snapshot wholesale and skips ahead.
type CatchupPolicy struct {
	window  uint64
	pending bool
	signal  ResyncSignal
}

// NewCatchupPolicy constructs a policy for the given window. Zero means no
// bound (always replay).
func NewCatchupPolicy(window uint64) *CatchupPolicy {
	return &CatchupPolicy{window: window}
}

// Evaluate inspects a hello's head sequence against the local cursor and
// reports whether a full resync is required. The decision latches until
// consumed.
func (p *CatchupPolicy) Evaluate(cursor, head uint64) bool {
	if p == nil || p.window == 0 {
		return false
	}
	if head <= cursor {
		return false
	}
	if head-cursor <= p.window {
		return false
	}
	p.pending = true
	p.signal = ResyncSignal{Cursor: cursor, Head: head}
	return true
}

// Consume returns the latched resync decision and resets it so the caller
// can re-evaluate on later reconnects.
func (p *CatchupPolicy) Consume() (ResyncSignal, bool) {
	if p == nil || !p.pending {
		return ResyncSignal{}, false
	}
	signal := p.signal
	p.pending = false
	p.signal = ResyncSignal{}
	return signal, true
}
