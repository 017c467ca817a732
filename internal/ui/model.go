// Package ui is the operator console: one bubbletea model rendering the run
// status, the HUD and map projections, and the narrative log, with keyboard
// control over the run lifecycle.
package ui

import (
	"context"
	"log"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/TARATRAOVO/rhodes-resonance/internal/control"
	"github.com/TARATRAOVO/rhodes-resonance/internal/journal"
	"github.com/TARATRAOVO/rhodes-resonance/internal/runctl"
	"github.com/TARATRAOVO/rhodes-resonance/internal/stream"
	"github.com/TARATRAOVO/rhodes-resonance/internal/world"
)

// StateChangedMsg is sent from the dispatcher goroutine whenever a frame
// altered visible state; the model repaints on receipt.
type StateChangedMsg struct{}

// StreamStatusMsg carries connection lifecycle changes into the model.
type StreamStatusMsg struct {
	Status stream.Status
}

type controlAction string

const (
	actionStart       controlAction = "start"
	actionStop        controlAction = "stop"
	actionRestart     controlAction = "restart"
	actionSay         controlAction = "say"
	actionSelectStory controlAction = "select_story"
)

type controlResultMsg struct {
	action controlAction
	ack    control.Ack
	prior  runctl.State
	story  string
	err    error
}

type storyListMsg struct {
	list control.StoryList
	err  error
}

type refreshTickMsg struct{}

// Deps bundles the collaborators the console reads and drives.
type Deps struct {
	Machine    *runctl.Machine
	Projection *world.Projection
	Journal    *journal.Journal
	Tracker    *stream.Tracker
	Stream     *stream.Client
	Control    *control.Client
	Logger     *log.Logger
}

// Model is the console's single bubbletea model.
type Model struct {
	deps Deps

	width  int
	height int

	logView   viewport.Model
	input     textinput.Model
	streamSt  stream.Status
	lastError string
	journalAt int

	pickingStory bool
	storyIDs     []string
	storyCursor  int
	storyID      string
}

func NewModel(deps Deps) Model {
	if deps.Logger == nil {
		deps.Logger = log.Default()
	}

	input := textinput.New()
	input.Placeholder = "say something..."
	input.CharLimit = 500

	logView := viewport.New(80, 16)

	return Model{
		deps:    deps,
		input:   input,
		logView: logView,
	}
}

func (m Model) Init() tea.Cmd {
	return refreshTickCmd()
}

func refreshTickCmd() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(time.Time) tea.Msg {
		return refreshTickMsg{}
	})
}

func startCmd(client *control.Client, machine *runctl.Machine, storyID string) tea.Cmd {
	prior := machine.BeginStart()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		ack, err := client.Start(ctx, storyID)
		return controlResultMsg{action: actionStart, ack: ack, prior: prior, err: err}
	}
}

func stopCmd(client *control.Client, machine *runctl.Machine) tea.Cmd {
	if !machine.RequestStop() {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		ack, err := client.Stop(ctx)
		return controlResultMsg{action: actionStop, ack: ack, err: err}
	}
}

func restartCmd(client *control.Client, storyID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()
		ack, err := client.Restart(ctx, storyID)
		return controlResultMsg{action: actionRestart, ack: ack, err: err}
	}
}

func storiesCmd(client *control.Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		list, err := client.Stories(ctx)
		return storyListMsg{list: list, err: err}
	}
}

func selectStoryCmd(client *control.Client, storyID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		ack, err := client.SelectStory(ctx, storyID)
		return controlResultMsg{action: actionSelectStory, ack: ack, story: storyID, err: err}
	}
}

func sayCmd(client *control.Client, name, text string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		ack, err := client.PlayerSay(ctx, name, text)
		return controlResultMsg{action: actionSay, ack: ack, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		return m, nil

	case refreshTickMsg:
		m.syncJournal()
		m.syncInputFocus()
		return m, refreshTickCmd()

	case StateChangedMsg:
		m.syncJournal()
		m.syncInputFocus()
		return m, nil

	case StreamStatusMsg:
		m.streamSt = msg.Status
		return m, nil

	case storyListMsg:
		return m.handleStoryList(msg)

	case controlResultMsg:
		return m.handleControlResult(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.logView, cmd = m.logView.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.input.Focused() {
		switch msg.String() {
		case "enter":
			text := m.input.Value()
			actor := m.deps.Machine.AwaitingInput()
			if text == "" || actor == "" {
				return m, nil
			}
			m.input.Reset()
			return m, sayCmd(m.deps.Control, actor, text)
		case "esc":
			m.input.Blur()
			return m, nil
		case "ctrl+c":
			return m, tea.Quit
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	if m.pickingStory {
		return m.handlePickerKey(msg)
	}

	controls := m.deps.Machine.Controls()
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "s":
		if controls.Start {
			m.lastError = ""
			return m, startCmd(m.deps.Control, m.deps.Machine, m.storyID)
		}
	case "x":
		if controls.Stop {
			m.lastError = ""
			return m, stopCmd(m.deps.Control, m.deps.Machine)
		}
	case "r":
		if controls.Restart {
			m.lastError = ""
			return m, restartCmd(m.deps.Control, m.storyID)
		}
	case "t":
		if controls.Start {
			m.lastError = ""
			return m, storiesCmd(m.deps.Control)
		}
	case "enter", "i":
		if controls.Say {
			m.input.Focus()
			return m, textinput.Blink
		}
	case "up", "down", "pgup", "pgdown":
		var cmd tea.Cmd
		m.logView, cmd = m.logView.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handlePickerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.storyCursor > 0 {
			m.storyCursor--
		}
	case "down", "j":
		if m.storyCursor < len(m.storyIDs)-1 {
			m.storyCursor++
		}
	case "enter":
		m.pickingStory = false
		if m.storyCursor >= 0 && m.storyCursor < len(m.storyIDs) {
			return m, selectStoryCmd(m.deps.Control, m.storyIDs[m.storyCursor])
		}
	case "esc", "t", "q":
		m.pickingStory = false
	case "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) handleStoryList(msg storyListMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.lastError = msg.err.Error()
		m.deps.Logger.Printf("ui: stories failed: %v", msg.err)
		return m, nil
	}
	m.pickingStory = true
	m.storyIDs = msg.list.IDs
	m.storyCursor = 0
	for i, id := range msg.list.IDs {
		if id == msg.list.Selected {
			m.storyCursor = i
			break
		}
	}
	if m.storyID == "" {
		m.storyID = msg.list.Selected
	}
	return m, nil
}

func (m Model) handleControlResult(msg controlResultMsg) (tea.Model, tea.Cmd) {
	switch msg.action {
	case actionStart:
		if msg.err != nil {
			m.deps.Machine.Rollback(msg.prior)
			m.lastError = msg.err.Error()
			m.deps.Logger.Printf("ui: start failed: %v", msg.err)
			return m, nil
		}
		m.deps.Machine.ConfirmStart(msg.ack.Resumed)

	case actionStop:
		if msg.err != nil {
			// The machine stays in "stop requested" only while the
			// request is live; a failed request reopens the control.
			m.deps.Machine.ServerResumed()
			m.lastError = msg.err.Error()
			m.deps.Logger.Printf("ui: stop failed: %v", msg.err)
		}

	case actionRestart:
		if msg.err != nil {
			m.lastError = msg.err.Error()
			m.deps.Logger.Printf("ui: restart failed: %v", msg.err)
			return m, nil
		}
		// Fresh run: drop every piece of replicated state, then force a
		// new connection so the next hello arrives immediately.
		m.deps.Tracker.Reset()
		m.deps.Projection.Reset()
		m.deps.Journal.Clear()
		m.deps.Machine.BeginRestart()
		m.journalAt = 0
		m.logView.SetContent("")
		m.deps.Stream.ForceReconnect()

	case actionSay:
		if msg.err != nil {
			m.lastError = msg.err.Error()
			m.deps.Logger.Printf("ui: player_say failed: %v", msg.err)
		}

	case actionSelectStory:
		if msg.err != nil {
			m.lastError = msg.err.Error()
			m.deps.Logger.Printf("ui: select_story failed: %v", msg.err)
			return m, nil
		}
		m.storyID = msg.story
	}
	m.syncJournal()
	return m, nil
}

func (m *Model) layout() {
	logHeight := m.height - hudMapHeight - 6
	if logHeight < 4 {
		logHeight = 4
	}
	width := m.width - 4
	if width < 20 {
		width = 20
	}
	m.logView.Width = width
	m.logView.Height = logHeight
	m.syncJournal()
}

// syncJournal re-renders the log viewport when new entries arrived, keeping
// the view pinned to the bottom unless the operator scrolled up.
func (m *Model) syncJournal() {
	entries := m.deps.Journal.Entries()
	if len(entries) == m.journalAt {
		return
	}
	pinned := m.logView.AtBottom() || m.journalAt == 0
	m.logView.SetContent(renderJournal(entries))
	m.journalAt = len(entries)
	if pinned {
		m.logView.GotoBottom()
	}
}

func (m *Model) syncInputFocus() {
	if m.deps.Machine.AwaitingInput() == "" && m.input.Focused() {
		m.input.Blur()
		m.input.Reset()
	}
}
