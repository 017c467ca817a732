// Package protocol defines the wire contract spoken on the event stream.
//
// The server pushes UTF-8 JSON text frames. A frame is either a bare
// lifecycle signal (hello/paused/resumed/end) or wraps exactly one sequenced
// event envelope. Frames and envelopes are immutable once decoded; the client
// never re-emits them.
package protocol

import (
	"encoding/json"
	"fmt"
)

// FrameType identifies one of the closed set of stream frame kinds.
type FrameType string

const (
	FrameHello   FrameType = "hello"
	FrameEvent   FrameType = "event"
	FramePaused  FrameType = "paused"
	FrameResumed FrameType = "resumed"
	FrameEnd     FrameType = "end"
)

// Frame is one message on the streaming channel.
//
// Only the fields matching Type are populated: hello carries the resume
// cursor, the authoritative paused flag, and usually a full snapshot; event
// carries one envelope; paused carries the safe-point context it was taken
// at; resumed and end are bare.
type Frame struct {
	Type FrameType `json:"type"`

	// hello
	LastSequence uint64          `json:"last_sequence,omitempty"`
	Paused       bool            `json:"paused,omitempty"`
	State        json.RawMessage `json:"state,omitempty"`
	SessionID    string          `json:"session_id,omitempty"`

	// event
	Event *Envelope `json:"event,omitempty"`

	// paused
	AfterActor string `json:"after_actor,omitempty"`
	Round      int    `json:"round,omitempty"`
}

// DecodeFrame parses a raw text frame into the frame union. It rejects
// unknown frame types and event frames with no envelope so a single switch
// over Type downstream covers every case.
func DecodeFrame(data []byte) (Frame, error) {
	var frame Frame
	if err := json.Unmarshal(data, &frame); err != nil {
		return Frame{}, fmt.Errorf("decode frame: %w", err)
	}
	switch frame.Type {
	case FrameHello, FramePaused, FrameResumed, FrameEnd:
	case FrameEvent:
		if frame.Event == nil {
			return Frame{}, fmt.Errorf("event frame missing envelope")
		}
	default:
		return Frame{}, fmt.Errorf("unknown frame type %q", frame.Type)
	}
	return frame, nil
}
