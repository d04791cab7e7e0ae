package models

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// ObjectKind tags every hit-testable entity in the scene
type ObjectKind int

const (
	// Heart is the manipulable instanced point cloud
	Heart ObjectKind = iota

	// SlateButton is a clickable dataset selector on the slate panel
	SlateButton
)

func (k ObjectKind) String() string {
	switch k {
	case Heart:
		return "heart"
	case SlateButton:
		return "slateButton"
	default:
		return fmt.Sprintf("ObjectKind(%d)", int(k))
	}
}

// Euler holds rotation angles in radians, applied in X, Y, Z order.
type Euler struct {
	X, Y, Z float64
}

// Transform is the rigid-body state of a manipulable object.
type Transform struct {
	// Position is the world-space translation
	Position r3.Vec

	// Rotation is the object orientation
	Rotation Euler

	// Scale is the uniform scale factor
	Scale float64
}

// Ray is a half-line with a unit direction.
type Ray struct {
	Origin    r3.Vec
	Direction r3.Vec
}

// At returns the point at parameter t along the ray.
func (r Ray) At(t float64) r3.Vec {
	return r3.Add(r.Origin, r3.Scale(t, r.Direction))
}
