package world

import (
	"reflect"
	"testing"
)

func TestReplaceThenViews(t *testing.T) {
	p := NewProjection()
	snap, err := DecodeSnapshot([]byte(`{
		"location": "hall",
		"weather": "rain",
		"time_min": 90,
		"positions": {"A": [1, 2]},
		"characters": {"A": {"hp": 10, "max_hp": 12, "type": "player"}},
		"participants": ["A"],
		"objectives": ["escape"],
		"objective_status": {"escape": "pending"}
	}`))
	if err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	p.Replace(snap)

	hud := p.HudView()
	if hud.Location != "hall" || hud.Weather != "rain" || hud.TimeMin != 90 {
		t.Fatalf("unexpected hud header %+v", hud)
	}
	if hud.Tracked != 1 {
		t.Fatalf("expected 1 tracked position, got %d", hud.Tracked)
	}
	if len(hud.Participants) != 1 || hud.Participants[0].Name != "A" || hud.Participants[0].HP != 10 {
		t.Fatalf("unexpected participants %+v", hud.Participants)
	}
	if len(hud.Objectives) != 1 || hud.Objectives[0].Status != "pending" {
		t.Fatalf("unexpected objectives %+v", hud.Objectives)
	}
}

func TestMergeIsIdempotent(t *testing.T) {
	p := NewProjection()
	p.Replace(Snapshot{Positions: map[string]Position{"A": {X: 0, Y: 0}}})

	patch := Patch{Positions: map[string]Position{"A": {X: 3, Y: 4}}}
	p.Merge(patch)
	once := p.Snapshot()
	p.Merge(patch)
	twice := p.Snapshot()

	if !reflect.DeepEqual(once.Positions, twice.Positions) {
		t.Fatalf("re-applying the same patch changed the snapshot: %v vs %v", once.Positions, twice.Positions)
	}
	if got := twice.Positions["A"]; got != (Position{X: 3, Y: 4}) {
		t.Fatalf("expected merged position (3,4), got %+v", got)
	}
}

func TestMergeEmptyPatchIsNoOp(t *testing.T) {
	p := NewProjection()
	p.Replace(Snapshot{Location: "hall"})
	before := p.Revision()

	p.Merge(Patch{})

	if p.Revision() != before {
		t.Fatalf("empty patch must not bump the revision")
	}
	if p.Snapshot().Location != "hall" {
		t.Fatalf("empty patch must not change the snapshot")
	}
}

func TestMergePartialFields(t *testing.T) {
	p := NewProjection()
	p.Replace(Snapshot{
		Location:  "hall",
		Positions: map[string]Position{"A": {X: 1, Y: 1}, "B": {X: 5, Y: 5}},
	})

	combat := true
	p.Merge(Patch{
		Positions: map[string]Position{"A": {X: 2, Y: 2}},
		InCombat:  &combat,
	})

	snap := p.Snapshot()
	if snap.Location != "hall" {
		t.Fatalf("merge must not touch unrelated fields")
	}
	if snap.Positions["A"] != (Position{X: 2, Y: 2}) {
		t.Fatalf("expected A moved, got %+v", snap.Positions["A"])
	}
	if snap.Positions["B"] != (Position{X: 5, Y: 5}) {
		t.Fatalf("expected B untouched, got %+v", snap.Positions["B"])
	}
	if !snap.InCombat {
		t.Fatalf("expected in_combat adopted")
	}
}

func TestViewsAreMemoized(t *testing.T) {
	p := NewProjection()
	p.Replace(Snapshot{Positions: map[string]Position{"A": {X: 1, Y: 2}}})

	first := p.MapView()
	second := p.MapView()
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("repeated MapView with unchanged snapshot must match")
	}

	p.Merge(Patch{Positions: map[string]Position{"A": {X: 9, Y: 9}}})
	third := p.MapView()
	if reflect.DeepEqual(first.Positions, third.Positions) {
		t.Fatalf("view must recompute after a merge")
	}
}

func TestResetClearsSnapshot(t *testing.T) {
	p := NewProjection()
	p.Replace(Snapshot{Location: "hall"})
	p.Reset()
	if p.Snapshot().Location != "" {
		t.Fatalf("expected snapshot cleared on reset")
	}
	if !p.MapView().NoData {
		t.Fatalf("expected no-data map after reset")
	}
}
