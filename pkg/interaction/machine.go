package interaction

import (
	"image/color"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"cardiacxr/pkg/hittest"
	"cardiacxr/pkg/logger"
	"cardiacxr/pkg/scene"
)

// Machine is the gesture state machine of one device. At most one of
// Rotating, Scaling and Moving is active, and a new mode is only entered
// after the previous one has been cleared.
type Machine struct {
	device    string
	gains     Gains
	threshold float64
	arbiter   *Arbiter
	log       logger.Logger

	mode      Mode
	primary   bool
	secondary bool
	target    *scene.ManipulableObject
	anchor    r3.Vec
}

// NewMachine creates an Idle machine for device. threshold is the hit-test
// widening used on press starts. arbiter may be shared by every machine that
// can reach the same targets; nil means no sharing.
func NewMachine(device string, gains Gains, threshold float64, arbiter *Arbiter, log logger.Logger) *Machine {
	if arbiter == nil {
		arbiter = NewArbiter()
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Machine{
		device:    device,
		gains:     gains,
		threshold: threshold,
		arbiter:   arbiter,
		log:       log.With(logger.F("device", device)),
	}
}

// Device returns the device name.
func (m *Machine) Device() string { return m.device }

// Mode returns the active mode.
func (m *Machine) Mode() Mode { return m.mode }

// Target returns the engaged object, or nil when Idle.
func (m *Machine) Target() *scene.ManipulableObject { return m.target }

// Anchor returns the device position the next delta is measured from.
func (m *Machine) Anchor() r3.Vec { return m.anchor }

// PrimaryHeld and SecondaryHeld report the latest control states.
func (m *Machine) PrimaryHeld() bool   { return m.primary }
func (m *Machine) SecondaryHeld() bool { return m.secondary }

// Feedback returns the indicator colour for the current mode.
func (m *Machine) Feedback() color.RGBA { return Feedback(m.mode) }

// Handle applies one event. target is the current manipulable object and may
// be nil when no dataset is loaded, in which case press starts change
// nothing but the held-control bookkeeping.
func (m *Machine) Handle(ev Event, target *scene.ManipulableObject) {
	switch ev.Kind {
	case PressStart:
		m.primary = true
		if m.mode != Idle || m.secondary || !m.hits(ev, target) {
			return
		}
		m.enter(Rotating, target, ev.Position)

	case SecondaryPressStart:
		m.secondary = true
		switch m.mode {
		case Rotating:
			engaged := m.target
			m.exit()
			m.enter(Moving, engaged, ev.Position)
		case Idle:
			if !m.hits(ev, target) {
				return
			}
			if m.primary {
				m.enter(Moving, target, ev.Position)
			} else {
				m.enter(Scaling, target, ev.Position)
			}
		}

	case PressEnd:
		m.primary = false
		if m.mode == Rotating || m.mode == Moving {
			m.exit()
		}

	case SecondaryPressEnd:
		m.secondary = false
		if m.mode == Scaling || m.mode == Moving {
			m.exit()
		}

	case Move:
		m.Update(ev.Position)
	}
}

// Update applies the delta between position and the anchor to the engaged
// object and moves the anchor to position.
func (m *Machine) Update(position r3.Vec) {
	if m.mode == Idle || m.target == nil {
		return
	}
	if !finite(position) {
		return
	}
	delta := r3.Sub(position, m.anchor)

	t := m.target.Snapshot()
	switch m.mode {
	case Rotating:
		t.Rotation.Y += delta.X * m.gains.Rotation
		t.Rotation.X += delta.Y * m.gains.Rotation
	case Scaling:
		t.Scale = scene.ClampScale(t.Scale * (1 + delta.Y*m.gains.Scale))
	case Moving:
		t.Position = r3.Add(t.Position, r3.Scale(m.gains.Move, delta))
	}
	if finite(t.Position) && finite(r3.Vec(t.Rotation)) && finite(r3.Vec{X: t.Scale}) {
		m.target.SetTransform(t)
	}
	m.anchor = position
}

// Reset returns the machine to Idle and releases its target. Held-control
// state is kept so a later release is still matched.
func (m *Machine) Reset() {
	if m.mode != Idle {
		m.exit()
	}
}

func (m *Machine) hits(ev Event, target *scene.ManipulableObject) bool {
	if target == nil {
		return false
	}
	_, ok := hittest.Test(ev.Ray, []hittest.Target{target}, m.threshold)
	return ok
}

func (m *Machine) enter(mode Mode, target *scene.ManipulableObject, position r3.Vec) {
	if !m.arbiter.Claim(target, m) {
		m.log.Debug("target busy", logger.F("mode", mode.String()))
		return
	}
	m.mode = mode
	m.target = target
	m.anchor = position
	m.log.Debug("gesture started",
		logger.F("mode", mode.String()),
		logger.F("target", target.ID.String()),
	)
}

func (m *Machine) exit() {
	m.log.Debug("gesture ended", logger.F("mode", m.mode.String()))
	m.arbiter.Release(m.target, m)
	m.mode = Idle
	m.target = nil
}

func finite(v r3.Vec) bool {
	for _, c := range []float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}
