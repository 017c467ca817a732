package world

import "sync"

// Projection holds exactly one current snapshot and memoizes the two views
// derived from it. It is written only by the event dispatcher; the console
// reads it concurrently, hence the lock.
type Projection struct {
	mu   sync.RWMutex
	snap Snapshot
	rev  uint64

	hudRev uint64
	hud    HudModel
	mapRev uint64
	mapped MapModel
}

func NewProjection() *Projection {
	return &Projection{}
}

// Replace adopts a full snapshot wholesale.
func (p *Projection) Replace(snap Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snap = snap
	p.rev++
}

// Merge shallow-merges the recognized partial fields into the current
// snapshot. Re-applying the same patch is idempotent; an empty patch leaves
// the revision untouched so memoized views stay valid.
func (p *Projection) Merge(patch Patch) {
	if patch.IsEmpty() {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if patch.Positions != nil {
		if p.snap.Positions == nil {
			p.snap.Positions = make(map[string]Position, len(patch.Positions))
		}
		for name, pos := range patch.Positions {
			p.snap.Positions[name] = pos
		}
	}
	if patch.InCombat != nil {
		p.snap.InCombat = *patch.InCombat
	}
	if patch.ReactionAvailable != nil {
		p.snap.ReactionAvailable = patch.ReactionAvailable
	}
	p.rev++
}

// Reset drops the snapshot entirely. Used on explicit restart.
func (p *Projection) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snap = Snapshot{}
	p.rev++
}

// Snapshot returns a shallow copy of the current snapshot.
func (p *Projection) Snapshot() Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snap
}

// Revision increments on every visible change; the console polls it to know
// when to re-render.
func (p *Projection) Revision() uint64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.rev
}

// HudView returns the summary view, recomputing only when the snapshot
// changed since the last call.
func (p *Projection) HudView() HudModel {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.hudRev == p.rev && p.rev != 0 {
		return p.hud
	}
	p.hud = buildHud(p.snap)
	p.hudRev = p.rev
	return p.hud
}

// MapView returns the spatial view, recomputing only when the snapshot
// changed since the last call.
func (p *Projection) MapView() MapModel {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.mapRev == p.rev && p.rev != 0 {
		return p.mapped
	}
	p.mapped = buildMap(p.snap)
	p.mapRev = p.rev
	return p.mapped
}
