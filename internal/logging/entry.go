// Package logging fans operator-log entries out to pluggable sinks.
//
// The event dispatcher publishes one Entry per displayable occurrence
// (narrative line, tool summary, server error, lifecycle note); a router
// queues them and per-sink workers write without blocking frame handling.
package logging

import (
	"context"
	"time"
)

// EntryKind mirrors the envelope classification of the entry's origin.
type EntryKind string

const (
	KindNarrative  EntryKind = "narrative"
	KindToolCall   EntryKind = "tool_call"
	KindToolResult EntryKind = "tool_result"
	KindError      EntryKind = "error"
	KindSystem     EntryKind = "system"
	KindStatus     EntryKind = "status"
)

type Severity int

const (
	SeverityDebug Severity = iota
	SeverityInfo
	SeverityWarn
	SeverityError
)

// Entry is one operator-visible log line plus its provenance.
type Entry struct {
	Sequence uint64         `json:"sequence,omitempty"`
	Kind     EntryKind      `json:"kind"`
	Actor    string         `json:"actor,omitempty"`
	Phase    string         `json:"phase,omitempty"`
	Text     string         `json:"text"`
	Severity Severity       `json:"severity"`
	Time     time.Time      `json:"time"`
	Extra    map[string]any `json:"extra,omitempty"`
}

// Publisher accepts entries for asynchronous delivery.
type Publisher interface {
	Publish(ctx context.Context, entry Entry)
}

type PublisherFunc func(ctx context.Context, entry Entry)

func (f PublisherFunc) Publish(ctx context.Context, entry Entry) {
	if f == nil {
		return
	}
	f(ctx, entry)
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, Entry) {}

func NopPublisher() Publisher {
	return nopPublisher{}
}

func cloneEntry(entry Entry) Entry {
	cloned := entry
	if entry.Extra != nil {
		copied := make(map[string]any, len(entry.Extra))
		for k, v := range entry.Extra {
			copied[k] = v
		}
		cloned.Extra = copied
	}
	return cloned
}
