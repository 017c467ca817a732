package world

import "sort"

// ParticipantStatus is one cast member's HUD line.
type ParticipantStatus struct {
	Name  string
	HP    int
	MaxHP int
	Type  string
	Scene string
}

// ObjectiveStatus pairs an objective with its progress marker.
type ObjectiveStatus struct {
	Name   string
	Status string
}

// HudModel is the summary view of the current snapshot.
type HudModel struct {
	Location     string
	Weather      string
	TimeMin      int
	InCombat     bool
	Participants []ParticipantStatus
	Objectives   []ObjectiveStatus
	Tracked      int
}

func buildHud(snap Snapshot) HudModel {
	hud := HudModel{
		Location: snap.Location,
		Weather:  snap.Weather,
		TimeMin:  snap.TimeMin,
		InCombat: snap.InCombat,
		Tracked:  len(snap.Positions),
	}

	names := snap.Participants
	if len(names) == 0 {
		names = make([]string, 0, len(snap.Characters))
		for name := range snap.Characters {
			names = append(names, name)
		}
		sort.Strings(names)
	}
	for _, name := range names {
		status := ParticipantStatus{Name: name, Scene: snap.SceneOf[name]}
		if ch, ok := snap.Characters[name]; ok {
			status.HP = ch.HP
			status.MaxHP = ch.MaxHP
			status.Type = ch.Type
		}
		hud.Participants = append(hud.Participants, status)
	}

	for _, objective := range snap.Objectives {
		state := snap.ObjectiveStatus[objective]
		if state == "" {
			state = "pending"
		}
		hud.Objectives = append(hud.Objectives, ObjectiveStatus{Name: objective, Status: state})
	}
	return hud
}
