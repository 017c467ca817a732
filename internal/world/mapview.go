package world

import "sort"

// degeneratePad widens a zero-span bounding-box axis so renderers always
// have a non-zero extent to scale into.
const degeneratePad = 2

// EntrancePoint is one focus-scene entrance placed on the map.
type EntrancePoint struct {
	ID    string
	Label string
	At    Position
}

// Rect is an axis-aligned bounding box.
type Rect struct {
	MinX, MinY float64
	MaxX, MaxY float64
}

// MapModel is the spatial view of the current snapshot. When NoData is set
// the snapshot holds no plottable point and the remaining fields are zero.
type MapModel struct {
	FocusScene string
	FocusName  string
	Positions  map[string]Position
	Entrances  []EntrancePoint
	Bounds     Rect
	NoData     bool
}

func buildMap(snap Snapshot) MapModel {
	focus := resolveFocusScene(snap)
	model := MapModel{FocusScene: focus}
	if focus != "" {
		if scene, ok := snap.Scenes[focus]; ok {
			model.FocusName = scene.Name
		}
	}

	model.Positions = visiblePositions(snap, focus)

	if focus != "" {
		ids := make([]string, 0, len(snap.Entrances))
		for id, ent := range snap.Entrances {
			if ent.FromScene == focus && ent.At != nil {
				ids = append(ids, id)
			}
		}
		sort.Strings(ids)
		for _, id := range ids {
			ent := snap.Entrances[id]
			model.Entrances = append(model.Entrances, EntrancePoint{ID: id, Label: ent.Label, At: *ent.At})
		}
	}

	bounds, ok := boundsOf(model.Positions, model.Entrances)
	if !ok {
		return MapModel{FocusScene: focus, FocusName: model.FocusName, NoData: true}
	}
	model.Bounds = bounds
	return model
}

// resolveFocusScene picks the single scene the map renders: the scene of any
// player-typed character, else the scene whose name matches the current
// location, else none.
func resolveFocusScene(snap Snapshot) string {
	names := make([]string, 0, len(snap.Characters))
	for name := range snap.Characters {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if snap.Characters[name].Type != "player" {
			continue
		}
		if scene := snap.SceneOf[name]; scene != "" {
			return scene
		}
	}

	if snap.Location != "" {
		ids := make([]string, 0, len(snap.Scenes))
		for id := range snap.Scenes {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			if snap.Scenes[id].Name == snap.Location {
				return id
			}
		}
	}
	return ""
}

// visiblePositions scopes the position set: focus scene when resolved, else
// the participant list, else every known position.
func visiblePositions(snap Snapshot, focus string) map[string]Position {
	if focus != "" {
		visible := make(map[string]Position)
		for name, pos := range snap.Positions {
			if snap.SceneOf[name] == focus {
				visible[name] = pos
			}
		}
		return visible
	}

	if len(snap.Participants) > 0 {
		visible := make(map[string]Position, len(snap.Participants))
		for _, name := range snap.Participants {
			if pos, ok := snap.Positions[name]; ok {
				visible[name] = pos
			}
		}
		return visible
	}

	visible := make(map[string]Position, len(snap.Positions))
	for name, pos := range snap.Positions {
		visible[name] = pos
	}
	return visible
}

func boundsOf(positions map[string]Position, entrances []EntrancePoint) (Rect, bool) {
	points := make([]Position, 0, len(positions)+len(entrances))
	for _, pos := range positions {
		points = append(points, pos)
	}
	for _, ent := range entrances {
		points = append(points, ent.At)
	}
	if len(points) == 0 {
		return Rect{}, false
	}

	rect := Rect{MinX: points[0].X, MaxX: points[0].X, MinY: points[0].Y, MaxY: points[0].Y}
	for _, pt := range points[1:] {
		if pt.X < rect.MinX {
			rect.MinX = pt.X
		}
		if pt.X > rect.MaxX {
			rect.MaxX = pt.X
		}
		if pt.Y < rect.MinY {
			rect.MinY = pt.Y
		}
		if pt.Y > rect.MaxY {
			rect.MaxY = pt.Y
		}
	}

	if rect.MinX == rect.MaxX {
		rect.MinX -= degeneratePad
		rect.MaxX += degeneratePad
	}
	if rect.MinY == rect.MaxY {
		rect.MinY -= degeneratePad
		rect.MaxY += degeneratePad
	}
	return rect, true
}
