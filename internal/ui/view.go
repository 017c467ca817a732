package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/TARATRAOVO/rhodes-resonance/internal/journal"
	"github.com/TARATRAOVO/rhodes-resonance/internal/logging"
	"github.com/TARATRAOVO/rhodes-resonance/internal/world"
)

// hudMapHeight is the fixed height of the HUD/map row; the log viewport
// takes the rest of the terminal.
const hudMapHeight = 14

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	hud := m.renderHud()
	mp := m.renderMap()
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, hud, mp))
	b.WriteString("\n")

	b.WriteString(panelStyle.Render(m.logView.View()))
	b.WriteString("\n")

	if m.input.Focused() {
		actor := m.deps.Machine.AwaitingInput()
		b.WriteString(statusStyle.Render(fmt.Sprintf("%s> ", actor)))
		b.WriteString(m.input.View())
		b.WriteString("\n")
	}

	if m.pickingStory {
		b.WriteString(panelStyle.Render(m.renderStoryPicker()))
		b.WriteString("\n")
	}

	if m.lastError != "" {
		b.WriteString(errorStyle.Render("error: " + m.lastError))
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render(m.renderHelp()))
	return b.String()
}

func (m Model) renderHeader() string {
	title := headerStyle.Render("rhodes resonance")
	status := statusStyle.Render(m.deps.Machine.StatusLabel())
	conn := mutedStyle.Render(fmt.Sprintf("[%s seq=%d]", m.streamSt, m.deps.Tracker.Cursor()))
	return lipgloss.JoinHorizontal(lipgloss.Center, title, " ", status, " ", conn)
}

func (m Model) renderHud() string {
	hud := m.deps.Projection.HudView()
	var b strings.Builder

	b.WriteString(panelTitleStyle.Render("situation"))
	b.WriteString("\n")

	location := hud.Location
	if location == "" {
		location = "unknown"
	}
	b.WriteString(location)
	if hud.Weather != "" {
		b.WriteString("  " + mutedStyle.Render(hud.Weather))
	}
	if hud.TimeMin > 0 {
		b.WriteString("  " + mutedStyle.Render(fmt.Sprintf("%02d:%02d", hud.TimeMin/60, hud.TimeMin%60)))
	}
	if hud.InCombat {
		b.WriteString("  " + errorStyle.Render("COMBAT"))
	}
	b.WriteString("\n")

	for _, p := range hud.Participants {
		line := p.Name
		if p.MaxHP > 0 {
			line += fmt.Sprintf(" %d/%d", p.HP, p.MaxHP)
		}
		if p.Scene != "" {
			line += mutedStyle.Render(" @" + p.Scene)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	if len(hud.Objectives) > 0 {
		b.WriteString(panelTitleStyle.Render("objectives"))
		b.WriteString("\n")
		for _, o := range hud.Objectives {
			marker := "·"
			if o.Status == "done" || o.Status == "completed" {
				marker = "✓"
			}
			b.WriteString(fmt.Sprintf("%s %s %s\n", marker, o.Name, mutedStyle.Render(o.Status)))
		}
	}

	return panelStyle.Height(hudMapHeight).Render(b.String())
}

func (m Model) renderMap() string {
	mp := m.deps.Projection.MapView()
	var b strings.Builder

	title := "map"
	if mp.FocusName != "" {
		title = "map · " + mp.FocusName
	} else if mp.FocusScene != "" {
		title = "map · " + mp.FocusScene
	}
	b.WriteString(panelTitleStyle.Render(title))
	b.WriteString("\n")

	if mp.NoData {
		b.WriteString(mutedStyle.Render("no positions"))
	} else {
		b.WriteString(renderMapGrid(mp, 36, hudMapHeight-4))
	}

	return panelStyle.Height(hudMapHeight).Render(b.String())
}

// renderMapGrid plots visible positions and entrances onto a fixed character
// grid scaled from the view's bounding box. Actors show as the first rune of
// their name, entrances as '+'; collisions keep the actor.
func renderMapGrid(mp world.MapModel, cols, rows int) string {
	if cols < 2 || rows < 2 {
		return ""
	}
	grid := make([][]rune, rows)
	for i := range grid {
		grid[i] = make([]rune, cols)
		for j := range grid[i] {
			grid[i][j] = '·'
		}
	}

	spanX := mp.Bounds.MaxX - mp.Bounds.MinX
	spanY := mp.Bounds.MaxY - mp.Bounds.MinY
	plot := func(pos world.Position, mark rune) {
		col := int((pos.X - mp.Bounds.MinX) / spanX * float64(cols-1))
		row := int((pos.Y - mp.Bounds.MinY) / spanY * float64(rows-1))
		if col < 0 || col >= cols || row < 0 || row >= rows {
			return
		}
		grid[row][col] = mark
	}

	for _, ent := range mp.Entrances {
		plot(ent.At, '+')
	}
	for name, pos := range mp.Positions {
		mark := '?'
		for _, r := range name {
			mark = r
			break
		}
		plot(pos, mark)
	}

	lines := make([]string, rows)
	for i, row := range grid {
		lines[i] = string(row)
	}
	return strings.Join(lines, "\n")
}

func renderJournal(entries []journal.Entry) string {
	var b strings.Builder
	for _, entry := range entries {
		b.WriteString(renderEntry(entry))
		b.WriteString("\n")
	}
	return b.String()
}

func renderEntry(entry journal.Entry) string {
	switch logging.EntryKind(entry.Kind) {
	case logging.KindNarrative:
		if entry.Actor != "" {
			return narrativeStyle.Render(fmt.Sprintf("%s: %s", entry.Actor, entry.Text))
		}
		return narrativeStyle.Render(entry.Text)
	case logging.KindToolCall:
		return toolStyle.Render("⚙ " + entry.Text)
	case logging.KindToolResult:
		return toolStyle.Render("→ " + entry.Text)
	case logging.KindError:
		return errorLineStyle.Render("✗ " + entry.Text)
	case logging.KindSystem, logging.KindStatus:
		return systemLineStyle.Render("· " + entry.Text)
	default:
		return entry.Text
	}
}

func (m Model) renderStoryPicker() string {
	var b strings.Builder
	b.WriteString(panelTitleStyle.Render("select story"))
	b.WriteString("\n")
	if len(m.storyIDs) == 0 {
		b.WriteString(mutedStyle.Render("no stories"))
		return b.String()
	}
	for i, id := range m.storyIDs {
		marker := "  "
		if i == m.storyCursor {
			marker = "> "
		}
		line := marker + id
		if id == m.storyID {
			line += mutedStyle.Render(" (current)")
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString(mutedStyle.Render("enter select · esc cancel"))
	return b.String()
}

func (m Model) renderHelp() string {
	controls := m.deps.Machine.Controls()
	parts := make([]string, 0, 5)
	if controls.Start {
		parts = append(parts, "s start", "t story")
	}
	if controls.Stop {
		parts = append(parts, "x stop")
	}
	if controls.Restart {
		parts = append(parts, "r restart")
	}
	if controls.Say && !m.input.Focused() {
		parts = append(parts, "enter speak")
	}
	parts = append(parts, "q quit")
	return strings.Join(parts, " · ")
}
