package interaction

import (
	"sync"

	"cardiacxr/pkg/scene"
)

// Arbiter grants an object to at most one machine at a time so that two
// devices cannot drive the same transform concurrently.
type Arbiter struct {
	mu     sync.Mutex
	owners map[*scene.ManipulableObject]*Machine
}

// NewArbiter returns an empty arbiter.
func NewArbiter() *Arbiter {
	return &Arbiter{owners: make(map[*scene.ManipulableObject]*Machine)}
}

// Claim grants target to m. It succeeds when target is free or already held
// by m.
func (a *Arbiter) Claim(target *scene.ManipulableObject, m *Machine) bool {
	if target == nil {
		return false
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if owner, ok := a.owners[target]; ok && owner != m {
		return false
	}
	a.owners[target] = m
	return true
}

// Release drops m's claim on target. Claims held by other machines are left
// alone.
func (a *Arbiter) Release(target *scene.ManipulableObject, m *Machine) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.owners[target] == m {
		delete(a.owners, target)
	}
}

// Owner returns the machine holding target, or nil.
func (a *Arbiter) Owner(target *scene.ManipulableObject) *Machine {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.owners[target]
}

// ViewGuard keeps the ambient view control disabled while any of its
// machines is in a non-Idle mode.
type ViewGuard struct {
	view     ViewControl
	machines []*Machine
	enabled  bool
}

// NewViewGuard starts with the view enabled.
func NewViewGuard(view ViewControl, machines ...*Machine) *ViewGuard {
	g := &ViewGuard{view: view, machines: machines, enabled: true}
	if view != nil {
		view.SetEnabled(true)
	}
	return g
}

// Add registers another machine.
func (g *ViewGuard) Add(m *Machine) { g.machines = append(g.machines, m) }

// Remove unregisters a machine.
func (g *ViewGuard) Remove(m *Machine) {
	for i, other := range g.machines {
		if other == m {
			g.machines = append(g.machines[:i], g.machines[i+1:]...)
			return
		}
	}
}

// Sync re-evaluates the machines and toggles the view control when the
// aggregate state changed. It returns whether view control is enabled.
func (g *ViewGuard) Sync() bool {
	idle := true
	for _, m := range g.machines {
		if m.Mode() != Idle {
			idle = false
			break
		}
	}
	if idle != g.enabled {
		g.enabled = idle
		if g.view != nil {
			g.view.SetEnabled(idle)
		}
	}
	return g.enabled
}

// Enabled reports the last synced state.
func (g *ViewGuard) Enabled() bool { return g.enabled }
