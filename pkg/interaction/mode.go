// Package interaction arbitrates pointer and controller input into rotate,
// scale and move gestures on a manipulable object.
package interaction

import (
	"fmt"
	"image/color"

	"gonum.org/v1/gonum/spatial/r3"

	"cardiacxr/internal/models"
)

// Mode is the gesture currently driven by one device.
type Mode int

const (
	Idle Mode = iota
	Rotating
	Scaling
	Moving
)

func (m Mode) String() string {
	switch m {
	case Idle:
		return "idle"
	case Rotating:
		return "rotating"
	case Scaling:
		return "scaling"
	case Moving:
		return "moving"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Feedback colours, one per mode.
var (
	IdleColor     = color.RGBA{0x00, 0xff, 0x00, 0xff}
	RotatingColor = color.RGBA{0xff, 0x00, 0x00, 0xff}
	ScalingColor  = color.RGBA{0x00, 0x00, 0xff, 0xff}
	MovingColor   = color.RGBA{0xff, 0xff, 0x00, 0xff}
)

// Feedback maps a mode to its indicator colour.
func Feedback(m Mode) color.RGBA {
	switch m {
	case Rotating:
		return RotatingColor
	case Scaling:
		return ScalingColor
	case Moving:
		return MovingColor
	default:
		return IdleColor
	}
}

// EventKind enumerates the normalized device events.
type EventKind int

const (
	PressStart EventKind = iota
	PressEnd
	SecondaryPressStart
	SecondaryPressEnd
	Move
)

func (k EventKind) String() string {
	switch k {
	case PressStart:
		return "pressStart"
	case PressEnd:
		return "pressEnd"
	case SecondaryPressStart:
		return "secondaryPressStart"
	case SecondaryPressEnd:
		return "secondaryPressEnd"
	case Move:
		return "move"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event is one normalized input event produced by a device adapter.
type Event struct {
	Kind EventKind

	// Position is the device position when the event was sampled. Pointer
	// positions are in pixels with Y pointing up; controller positions are
	// in world units.
	Position r3.Vec

	// Delta is the change in Position since the previous sample (Move only)
	Delta r3.Vec

	// Ray is the device pointing ray at the time of the event
	Ray models.Ray
}

// Gains scale device deltas into transform increments.
type Gains struct {
	Rotation float64 `yaml:"rotationGain"`
	Scale    float64 `yaml:"scaleGain"`
	Move     float64 `yaml:"moveGain"`
}

// ViewControl is the ambient camera control that must stay disabled while a
// gesture is active.
type ViewControl interface {
	SetEnabled(enabled bool)
}
