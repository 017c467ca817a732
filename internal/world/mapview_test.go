package world

import "testing"

func TestFocusFollowsPlayerScene(t *testing.T) {
	snap := Snapshot{
		Characters: map[string]Character{
			"hero":  {HP: 10, MaxHP: 10, Type: "player"},
			"npc-1": {HP: 5, MaxHP: 5, Type: "npc"},
			"npc-2": {HP: 5, MaxHP: 5, Type: "npc"},
		},
		SceneOf: map[string]string{
			"hero":  "hall",
			"npc-1": "hall",
			"npc-2": "yard",
		},
		Scenes: map[string]Scene{
			"hall": {Name: "Great Hall"},
			"yard": {Name: "Courtyard"},
		},
		Positions: map[string]Position{
			"hero":  {X: 1, Y: 1},
			"npc-1": {X: 4, Y: 2},
			"npc-2": {X: 40, Y: 40},
		},
	}

	m := buildMap(snap)
	if m.FocusScene != "hall" || m.FocusName != "Great Hall" {
		t.Fatalf("expected focus on hall, got %q (%q)", m.FocusScene, m.FocusName)
	}
	if len(m.Positions) != 2 {
		t.Fatalf("expected only hall positions, got %v", m.Positions)
	}
	if _, ok := m.Positions["npc-2"]; ok {
		t.Fatalf("off-scene position must be excluded")
	}
}

func TestFocusFallsBackToLocationName(t *testing.T) {
	snap := Snapshot{
		Location: "Courtyard",
		Scenes: map[string]Scene{
			"hall": {Name: "Great Hall"},
			"yard": {Name: "Courtyard"},
		},
		SceneOf:   map[string]string{"npc": "yard"},
		Positions: map[string]Position{"npc": {X: 3, Y: 3}},
	}

	m := buildMap(snap)
	if m.FocusScene != "yard" {
		t.Fatalf("expected location-name fallback to yard, got %q", m.FocusScene)
	}
}

func TestNoFocusUsesParticipantPositions(t *testing.T) {
	snap := Snapshot{
		Participants: []string{"a", "b"},
		Positions: map[string]Position{
			"a": {X: 0, Y: 0},
			"b": {X: 2, Y: 2},
			"c": {X: 99, Y: 99},
		},
	}

	m := buildMap(snap)
	if m.FocusScene != "" {
		t.Fatalf("expected no focus, got %q", m.FocusScene)
	}
	if len(m.Positions) != 2 {
		t.Fatalf("expected participant positions only, got %v", m.Positions)
	}
	if _, ok := m.Positions["c"]; ok {
		t.Fatalf("non-participant must be excluded when participants exist")
	}
}

func TestFocusSceneEntrancesInBounds(t *testing.T) {
	at := Position{X: 10, Y: 0}
	snap := Snapshot{
		Characters: map[string]Character{"hero": {Type: "player"}},
		SceneOf:    map[string]string{"hero": "hall"},
		Scenes:     map[string]Scene{"hall": {Name: "Great Hall"}},
		Positions:  map[string]Position{"hero": {X: 1, Y: 1}},
		Entrances: map[string]Entrance{
			"door": {Label: "North Door", FromScene: "hall", ToScene: "yard", At: &at},
			"far":  {Label: "Far Gate", FromScene: "yard", ToScene: "hall", At: &Position{X: -50, Y: -50}},
		},
	}

	m := buildMap(snap)
	if len(m.Entrances) != 1 || m.Entrances[0].ID != "door" {
		t.Fatalf("expected only the focus-scene entrance, got %+v", m.Entrances)
	}
	if m.Bounds.MaxX != 10 {
		t.Fatalf("entrance must extend the bounds, got %+v", m.Bounds)
	}
	if m.Bounds.MinX == -50 {
		t.Fatalf("other-scene entrance must not affect bounds")
	}
}

func TestDegenerateAxisPadding(t *testing.T) {
	snap := Snapshot{Positions: map[string]Position{"only": {X: 5, Y: 7}}}

	m := buildMap(snap)
	if m.NoData {
		t.Fatalf("one point is still plottable")
	}
	if m.Bounds.MinX != 3 || m.Bounds.MaxX != 7 {
		t.Fatalf("expected x axis padded to [3,7], got %+v", m.Bounds)
	}
	if m.Bounds.MinY != 5 || m.Bounds.MaxY != 9 {
		t.Fatalf("expected y axis padded to [5,9], got %+v", m.Bounds)
	}
}

func TestNoDataWhenNothingPlottable(t *testing.T) {
	m := buildMap(Snapshot{Location: "hall"})
	if !m.NoData {
		t.Fatalf("expected no-data with zero positions and entrances")
	}
}

func TestHudObjectiveDefaultsPending(t *testing.T) {
	snap := Snapshot{
		Objectives:      []string{"escape", "rescue"},
		ObjectiveStatus: map[string]string{"rescue": "done"},
	}
	hud := buildHud(snap)
	if len(hud.Objectives) != 2 {
		t.Fatalf("expected both objectives, got %+v", hud.Objectives)
	}
	if hud.Objectives[0].Status != "pending" || hud.Objectives[1].Status != "done" {
		t.Fatalf("unexpected objective statuses %+v", hud.Objectives)
	}
}
