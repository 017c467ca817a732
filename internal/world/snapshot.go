// Package world maintains the latest known world-state snapshot and derives
// the HUD and map views from it.
package world

import (
	"encoding/json"
	"fmt"
)

// Position is one grid coordinate, decoded from the server's [x, y] pairs.
type Position struct {
	X float64
	Y float64
}

// UnmarshalJSON accepts the wire form [x, y] (extra elements ignored).
func (p *Position) UnmarshalJSON(data []byte) error {
	var coords []float64
	if err := json.Unmarshal(data, &coords); err != nil {
		return err
	}
	if len(coords) < 2 {
		return fmt.Errorf("position needs two coordinates, got %d", len(coords))
	}
	p.X = coords[0]
	p.Y = coords[1]
	return nil
}

// Character carries the HUD-relevant fields of one cast member. The server
// sends more; the projection only keeps what its views read.
type Character struct {
	HP    int    `json:"hp"`
	MaxHP int    `json:"max_hp"`
	Type  string `json:"type"`
}

// Scene names one scene of the story.
type Scene struct {
	Name string `json:"name"`
}

// Entrance links two scenes at a coordinate. At anchors the entrance in its
// from-scene; Spawn is where an actor lands in the to-scene.
type Entrance struct {
	Label     string    `json:"label"`
	FromScene string    `json:"from_scene"`
	ToScene   string    `json:"to_scene"`
	At        *Position `json:"at"`
	Spawn     *Position `json:"spawn"`
}

// Snapshot is the client's copy of the simulation state. It is replaced
// wholesale by full state_updates and shallow-merged by partial ones; the
// client never computes deltas against it.
type Snapshot struct {
	TimeMin           int                  `json:"time_min"`
	Weather           string               `json:"weather"`
	Location          string               `json:"location"`
	Positions         map[string]Position  `json:"positions"`
	Characters        map[string]Character `json:"characters"`
	Participants      []string             `json:"participants"`
	SceneOf           map[string]string    `json:"scene_of"`
	Scenes            map[string]Scene     `json:"scenes"`
	Entrances         map[string]Entrance  `json:"entrances"`
	Objectives        []string             `json:"objectives"`
	ObjectiveStatus   map[string]string    `json:"objective_status"`
	InCombat          bool                 `json:"in_combat"`
	ReactionAvailable map[string]any       `json:"reaction_available"`
}

// DecodeSnapshot parses a full snapshot payload.
func DecodeSnapshot(data []byte) (Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, nil
}

// Patch carries the recognized partial fields of a state_update. Nil fields
// were absent on the wire and leave the snapshot untouched.
type Patch struct {
	Positions         map[string]Position
	InCombat          *bool
	ReactionAvailable map[string]any
}

// IsEmpty reports whether the patch changes nothing. An empty patch is a
// valid no-op: the event's sequence number is still consumed.
func (p Patch) IsEmpty() bool {
	return p.Positions == nil && p.InCombat == nil && p.ReactionAvailable == nil
}
