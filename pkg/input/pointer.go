package input

import (
	"gonum.org/v1/gonum/spatial/r3"

	"cardiacxr/internal/models"
	"cardiacxr/pkg/interaction"
)

// PointerState is a snapshot of a 2D pointer in screen pixels, origin top
// left.
type PointerState struct {
	X, Y float64

	// Primary is the main button
	Primary bool

	// Modifier is the key that turns a click into a secondary press
	Modifier bool
}

// PointerSource reports the latest pointer state.
type PointerSource interface {
	PointerState() PointerState
}

// Viewport turns a screen position into a world ray.
type Viewport interface {
	RayThrough(x, y float64) models.Ray
}

// Pointer adapts a mouse-like device. A plain click is the primary press; a
// click with the modifier held is the secondary press, and pressing the
// modifier while the primary is held adds the secondary press on top.
type Pointer struct {
	name   string
	source PointerSource
	view   Viewport

	last      PointerState
	primary   bool
	secondary bool
	sampled   bool
	closed    bool
}

// NewPointer creates a pointer adapter.
func NewPointer(name string, source PointerSource, view Viewport) *Pointer {
	return &Pointer{name: name, source: source, view: view}
}

func (p *Pointer) Name() string { return p.name }

// CastRay goes through the last sampled pointer position.
func (p *Pointer) CastRay() models.Ray {
	return p.view.RayThrough(p.last.X, p.last.Y)
}

// position maps screen pixels to the device frame, Y up.
func position(s PointerState) r3.Vec {
	return r3.Vec{X: s.X, Y: -s.Y}
}

func (p *Pointer) Poll() []interaction.Event {
	if p.closed {
		return nil
	}
	cur := p.source.PointerState()
	prev := p.last
	if !p.sampled {
		prev = cur
		prev.Primary = false
		prev.Modifier = false
		p.sampled = true
	}
	p.last = cur

	clicked := cur.Primary && !prev.Primary
	primary := cur.Primary && (p.primary || (clicked && !cur.Modifier))
	secondary := cur.Primary && cur.Modifier

	base := interaction.Event{
		Position: position(cur),
		Ray:      p.view.RayThrough(cur.X, cur.Y),
	}

	var events []interaction.Event
	events = diff(events, p.secondary, secondary, interaction.SecondaryPressStart, interaction.SecondaryPressEnd, base)
	events = diff(events, p.primary, primary, interaction.PressStart, interaction.PressEnd, base)
	p.primary = primary
	p.secondary = secondary

	move := base
	move.Kind = interaction.Move
	move.Delta = r3.Sub(position(cur), position(prev))
	return append(events, move)
}

func (p *Pointer) Close() []interaction.Event {
	if p.closed {
		return nil
	}
	p.closed = true
	base := interaction.Event{Position: position(p.last)}
	var events []interaction.Event
	events = diff(events, p.secondary, false, interaction.SecondaryPressStart, interaction.SecondaryPressEnd, base)
	events = diff(events, p.primary, false, interaction.PressStart, interaction.PressEnd, base)
	p.primary, p.secondary = false, false
	return events
}
