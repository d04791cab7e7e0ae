package input

import (
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"cardiacxr/internal/models"
	"cardiacxr/pkg/interaction"
	"cardiacxr/pkg/scene"
)

// Pose is a tracked controller pose in world space.
type Pose struct {
	Position    r3.Vec
	Orientation quat.Number
}

// ControllerState is a snapshot of one tracked controller.
type ControllerState struct {
	Connected bool
	Pose      Pose

	// Trigger is the primary control, Grip the secondary
	Trigger bool
	Grip    bool
}

// ControllerSource reports the latest controller state.
type ControllerSource interface {
	ControllerState() ControllerState
}

var forward = r3.Vec{Z: -1}

// Controller adapts one tracked controller. Each controller has its own
// trigger and grip, so two controllers drive independent gestures.
type Controller struct {
	name   string
	source ControllerSource

	last    ControllerState
	sampled bool
	closed  bool
}

// NewController creates a controller adapter.
func NewController(name string, source ControllerSource) *Controller {
	return &Controller{name: name, source: source}
}

func (c *Controller) Name() string { return c.name }

// CastRay points along the controller's local -Z axis.
func (c *Controller) CastRay() models.Ray {
	return castRay(c.last.Pose)
}

func castRay(p Pose) models.Ray {
	q := p.Orientation
	if q == (quat.Number{}) {
		q = quat.Number{Real: 1}
	}
	dir := scene.Rotate(q, forward)
	if n := r3.Norm(dir); n > 0 {
		dir = r3.Scale(1/n, dir)
	}
	return models.Ray{Origin: p.Position, Direction: dir}
}

func (c *Controller) Poll() []interaction.Event {
	if c.closed {
		return nil
	}
	cur := c.source.ControllerState()
	prev := c.last
	if !c.sampled {
		prev = ControllerState{Pose: cur.Pose}
		c.sampled = true
	}

	if !cur.Connected {
		// A lost controller releases whatever it held.
		cur.Trigger, cur.Grip = false, false
		cur.Pose = prev.Pose
	}
	c.last = cur

	base := interaction.Event{Position: cur.Pose.Position, Ray: castRay(cur.Pose)}

	var events []interaction.Event
	events = diff(events, prev.Trigger, cur.Trigger, interaction.PressStart, interaction.PressEnd, base)
	events = diff(events, prev.Grip, cur.Grip, interaction.SecondaryPressStart, interaction.SecondaryPressEnd, base)
	if !cur.Connected {
		return events
	}

	move := base
	move.Kind = interaction.Move
	move.Delta = r3.Sub(cur.Pose.Position, prev.Pose.Position)
	return append(events, move)
}

func (c *Controller) Close() []interaction.Event {
	if c.closed {
		return nil
	}
	c.closed = true
	base := interaction.Event{Position: c.last.Pose.Position, Ray: castRay(c.last.Pose)}
	var events []interaction.Event
	events = diff(events, c.last.Trigger, false, interaction.PressStart, interaction.PressEnd, base)
	events = diff(events, c.last.Grip, false, interaction.SecondaryPressStart, interaction.SecondaryPressEnd, base)
	c.last.Trigger, c.last.Grip = false, false
	return events
}
