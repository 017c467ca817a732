package protocol

import "encoding/json"

// EventKind classifies one sequenced occurrence in the simulation.
type EventKind string

const (
	EventStateUpdate EventKind = "state_update"
	EventNarrative   EventKind = "narrative"
	EventToolCall    EventKind = "tool_call"
	EventToolResult  EventKind = "tool_result"
	EventError       EventKind = "error"
	EventSystem      EventKind = "system"

	// Bookkeeping kinds the server emits for its own logs. Valid on the
	// wire but carry nothing this client projects.
	EventTurnStart EventKind = "turn_start"
	EventTurnEnd   EventKind = "turn_end"
	EventAction    EventKind = "action"
)

// System envelope phases that gate operator input.
const (
	PhasePlayerInput    = "player_input"
	PhasePlayerInputEnd = "player_input_end"
	PhaseFinal          = "final"
)

// Envelope is one sequenced event. The server flattens kind-specific payload
// fields into the envelope object, so the struct is the union of every kind's
// fields; only the ones matching Kind are meaningful.
type Envelope struct {
	EventID       string    `json:"event_id,omitempty"`
	Sequence      uint64    `json:"sequence"`
	Timestamp     string    `json:"timestamp,omitempty"`
	Kind          EventKind `json:"event_type"`
	Actor         string    `json:"actor,omitempty"`
	Phase         string    `json:"phase,omitempty"`
	Turn          int       `json:"turn,omitempty"`
	CorrelationID string    `json:"correlation_id,omitempty"`

	// state_update: either a full snapshot or any of the partial fields.
	State             json.RawMessage `json:"state,omitempty"`
	Positions         json.RawMessage `json:"positions,omitempty"`
	InCombat          *bool           `json:"in_combat,omitempty"`
	ReactionAvailable json.RawMessage `json:"reaction_available,omitempty"`

	// narrative carries a plain string, tool_result a list of lines; Text
	// stays raw and is read through NarrativeText / ResultLines.
	Text json.RawMessage `json:"text,omitempty"`
	Role string          `json:"role,omitempty"`

	// tool_call / tool_result
	Tool     string         `json:"tool,omitempty"`
	Params   map[string]any `json:"params,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`

	// error (and system "final" markers, which reuse message)
	Message   string `json:"message,omitempty"`
	ErrorType string `json:"error_type,omitempty"`
}

// HasSnapshot reports whether a state_update carries a full snapshot.
func (e *Envelope) HasSnapshot() bool {
	return len(e.State) > 0
}

// HasPartial reports whether a state_update carries any recognized partial
// field. A state_update with neither a snapshot nor a partial is a valid
// no-op: the sequence number is consumed and nothing visible changes.
func (e *Envelope) HasPartial() bool {
	return len(e.Positions) > 0 || e.InCombat != nil || len(e.ReactionAvailable) > 0
}

// NarrativeText returns the narrative line, or "" when Text is absent or not
// a string.
func (e *Envelope) NarrativeText() string {
	if len(e.Text) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(e.Text, &s); err != nil {
		return ""
	}
	return s
}

// ResultLines returns the tool_result output lines. A bare string is treated
// as a single line.
func (e *Envelope) ResultLines() []string {
	if len(e.Text) == 0 {
		return nil
	}
	var lines []string
	if err := json.Unmarshal(e.Text, &lines); err == nil {
		return lines
	}
	var s string
	if err := json.Unmarshal(e.Text, &s); err == nil && s != "" {
		return []string{s}
	}
	return nil
}
