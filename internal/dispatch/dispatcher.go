// Package dispatch routes decoded stream frames: sequenced events advance
// the tracker and the world projection, lifecycle frames drive run control,
// and displayable occurrences become journal and log entries.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/TARATRAOVO/rhodes-resonance/internal/journal"
	"github.com/TARATRAOVO/rhodes-resonance/internal/logging"
	"github.com/TARATRAOVO/rhodes-resonance/internal/protocol"
	"github.com/TARATRAOVO/rhodes-resonance/internal/runctl"
	"github.com/TARATRAOVO/rhodes-resonance/internal/stream"
	"github.com/TARATRAOVO/rhodes-resonance/internal/world"
)

// Narrative phases that exist only for server-side bookkeeping; they carry
// no state and are not shown to the operator.
var suppressedNarrativePhases = map[string]struct{}{
	"round-start":   {},
	"context:world": {},
	"context:recap": {},
}

// Config wires the dispatcher's collaborators.
type Config struct {
	Tracker    *stream.Tracker
	Projection *world.Projection
	Machine    *runctl.Machine
	Journal    *journal.Journal
	Catchup    *journal.CatchupPolicy
	Publisher  logging.Publisher
	Logger     *log.Logger

	// OnChange fires after any frame that altered visible state. The
	// console uses it to schedule a repaint; nil is fine.
	OnChange func()
}

// Dispatcher applies frames strictly in arrival order. It is the single
// writer of the tracker and the projection.
//
// floor is the replay watermark: the cursor value at the last hello, i.e.
// the `since` the connection was dialed with. The server replays every event
// with sequence > since after the hello, so events at or below the floor are
// duplicates from before the reconnect and everything above is applied.
type Dispatcher struct {
	cfg    Config
	logger *log.Logger
	floor  atomic.Uint64
}

func New(cfg Config) *Dispatcher {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	if cfg.Publisher == nil {
		cfg.Publisher = logging.NopPublisher()
	}
	return &Dispatcher{cfg: cfg, logger: logger}
}

// HandleFrame routes one decoded frame. Malformed payload inside an
// otherwise valid frame is dropped with a warning, never propagated.
func (d *Dispatcher) HandleFrame(frame protocol.Frame) {
	switch frame.Type {
	case protocol.FrameHello:
		d.handleHello(frame)
	case protocol.FrameEvent:
		d.handleEvent(frame.Event)
	case protocol.FramePaused:
		d.cfg.Machine.ServerPaused(frame.AfterActor, frame.Round)
		text := "run paused"
		if frame.AfterActor != "" {
			text = fmt.Sprintf("run paused after %s (round %d)", frame.AfterActor, frame.Round)
		}
		d.publishStatus(text)
		d.changed()
	case protocol.FrameResumed:
		d.cfg.Machine.ServerResumed()
		d.publishStatus("run resumed")
		d.changed()
	case protocol.FrameEnd:
		d.cfg.Machine.ServerEnded()
		d.publishStatus("run ended")
		d.changed()
	}
}

func (d *Dispatcher) handleHello(frame protocol.Frame) {
	// The replay for this connection starts just above the current cursor;
	// the cursor itself advances event by event, so a drop mid-replay
	// resumes from the last applied sequence, not the server head.
	since := d.cfg.Tracker.Cursor()
	d.floor.Store(since)

	if d.cfg.Catchup != nil && d.cfg.Catchup.Evaluate(since, frame.LastSequence) {
		if signal, ok := d.cfg.Catchup.Consume(); ok {
			d.logger.Printf("dispatch: %s", signal.Summary())
			d.publishStatus(fmt.Sprintf("resynced from snapshot, %d events skipped", signal.Gap()))
		}
		// Replaying a backlog wider than the window is not worth waiting
		// out: the snapshot already reflects the head, so jump to it and
		// discard the replayed history.
		d.cfg.Tracker.Observe(frame.LastSequence)
		d.floor.Store(frame.LastSequence)
	}

	if len(frame.State) > 0 {
		snap, err := world.DecodeSnapshot(frame.State)
		if err != nil {
			d.logger.Printf("dispatch: discarding hello snapshot: %v", err)
		} else {
			d.cfg.Projection.Replace(snap)
		}
	}
	d.cfg.Machine.AdoptHello(frame.Paused)
	d.changed()
}

func (d *Dispatcher) handleEvent(env *protocol.Envelope) {
	if env == nil {
		return
	}
	// Events at or below the replay floor were applied before the
	// reconnect; re-applying would be safe for state_update but would
	// duplicate log entries. Everything above the floor is live or
	// replayed backlog and advances the cursor as it is applied.
	if env.Sequence > 0 && env.Sequence <= d.floor.Load() {
		return
	}
	d.cfg.Tracker.Observe(env.Sequence)

	switch env.Kind {
	case protocol.EventStateUpdate:
		d.applyStateUpdate(env)
	case protocol.EventNarrative:
		d.applyNarrative(env)
	case protocol.EventToolCall:
		d.record(env, logging.KindToolCall, CallSummary(env.Tool, env.Params), logging.SeverityInfo)
	case protocol.EventToolResult:
		d.applyToolResult(env)
	case protocol.EventError:
		d.applyError(env)
	case protocol.EventSystem:
		d.applySystem(env)
	case protocol.EventTurnStart, protocol.EventTurnEnd, protocol.EventAction:
		// Server bookkeeping; nothing to project.
	default:
		d.logger.Printf("dispatch: ignoring unknown event kind %q (seq=%d)", env.Kind, env.Sequence)
	}
}

func (d *Dispatcher) applyStateUpdate(env *protocol.Envelope) {
	if env.HasSnapshot() {
		snap, err := world.DecodeSnapshot(env.State)
		if err != nil {
			d.logger.Printf("dispatch: discarding state_update snapshot (seq=%d): %v", env.Sequence, err)
			return
		}
		d.cfg.Projection.Replace(snap)
		d.changed()
		return
	}

	patch, err := decodePatch(env)
	if err != nil {
		d.logger.Printf("dispatch: discarding state_update patch (seq=%d): %v", env.Sequence, err)
		return
	}
	// An empty patch is a valid no-op; the sequence was already consumed.
	d.cfg.Projection.Merge(patch)
	if !patch.IsEmpty() {
		d.changed()
	}
}

func decodePatch(env *protocol.Envelope) (world.Patch, error) {
	var patch world.Patch
	if len(env.Positions) > 0 {
		if err := json.Unmarshal(env.Positions, &patch.Positions); err != nil {
			return world.Patch{}, fmt.Errorf("positions: %w", err)
		}
	}
	patch.InCombat = env.InCombat
	if len(env.ReactionAvailable) > 0 {
		if err := json.Unmarshal(env.ReactionAvailable, &patch.ReactionAvailable); err != nil {
			return world.Patch{}, fmt.Errorf("reaction_available: %w", err)
		}
	}
	return patch, nil
}

func (d *Dispatcher) applyNarrative(env *protocol.Envelope) {
	if _, suppressed := suppressedNarrativePhases[env.Phase]; suppressed {
		return
	}
	text := env.NarrativeText()
	if text == "" {
		return
	}
	d.record(env, logging.KindNarrative, text, logging.SeverityInfo)
}

func (d *Dispatcher) applyToolResult(env *protocol.Envelope) {
	lines := env.ResultLines()
	text := ResultSummary(env.Tool, lines)
	if text == "" {
		return
	}
	d.record(env, logging.KindToolResult, text, logging.SeverityInfo)
}

func (d *Dispatcher) applyError(env *protocol.Envelope) {
	text := env.Message
	if text == "" {
		text = "server error"
	}
	if env.ErrorType != "" {
		text = fmt.Sprintf("[%s] %s", env.ErrorType, text)
	}
	d.record(env, logging.KindError, text, logging.SeverityError)
}

func (d *Dispatcher) applySystem(env *protocol.Envelope) {
	switch env.Phase {
	case protocol.PhasePlayerInput:
		d.cfg.Machine.SetAwaitingInput(env.Actor)
		d.record(env, logging.KindSystem, fmt.Sprintf("waiting for input from %s", env.Actor), logging.SeverityInfo)
		d.changed()
	case protocol.PhasePlayerInputEnd:
		d.cfg.Machine.ClearAwaitingInput()
		d.changed()
	case protocol.PhaseFinal:
		if env.Message != "" {
			d.record(env, logging.KindSystem, env.Message, logging.SeverityInfo)
		}
	}
}

func (d *Dispatcher) record(env *protocol.Envelope, kind logging.EntryKind, text string, severity logging.Severity) {
	if d.cfg.Journal != nil {
		d.cfg.Journal.Append(journal.Entry{
			Sequence: env.Sequence,
			Kind:     string(kind),
			Actor:    env.Actor,
			Phase:    env.Phase,
			Text:     text,
		})
	}
	d.cfg.Publisher.Publish(context.Background(), logging.Entry{
		Sequence: env.Sequence,
		Kind:     kind,
		Actor:    env.Actor,
		Phase:    env.Phase,
		Text:     text,
		Severity: severity,
		Time:     time.Now(),
	})
	d.changed()
}

func (d *Dispatcher) publishStatus(text string) {
	if d.cfg.Journal != nil {
		d.cfg.Journal.Append(journal.Entry{Kind: string(logging.KindStatus), Text: text})
	}
	d.cfg.Publisher.Publish(context.Background(), logging.Entry{
		Kind:     logging.KindStatus,
		Text:     text,
		Severity: logging.SeverityInfo,
		Time:     time.Now(),
	})
}

func (d *Dispatcher) changed() {
	if d.cfg.OnChange != nil {
		d.cfg.OnChange()
	}
}
