// Package scene holds the hit-testable entities of the viewer: the
// manipulable heart point cloud, the dataset selection slate and the camera.
package scene

import (
	"math"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"cardiacxr/internal/models"
)

const (
	// MinScale and MaxScale bound the uniform scale of every object
	MinScale = 0.1
	MaxScale = 5.0

	// DefaultFootprint is the edge length of one instanced cube
	DefaultFootprint = 0.008
)

// ClampScale restricts s to [MinScale, MaxScale]. Non-finite values map to
// the nearest bound (NaN to MinScale).
func ClampScale(s float64) float64 {
	if math.IsNaN(s) || s < MinScale {
		return MinScale
	}
	if s > MaxScale {
		return MaxScale
	}
	return s
}

// ManipulableObject is an instanced point cloud with a rigid-body transform.
// Instance centres never change after construction; a new dataset produces a
// new object.
type ManipulableObject struct {
	// ID identifies the object across loads
	ID uuid.UUID

	// Name is the dataset the object was built from
	Name string

	centres   []r3.Vec
	footprint float64
	transform models.Transform
	index     *Index
}

// NewHeart builds the manipulable object for a decoded point sequence.
func NewHeart(name string, points []models.Point3D, footprint float64, initial models.Transform) *ManipulableObject {
	if footprint <= 0 {
		footprint = DefaultFootprint
	}
	centres := make([]r3.Vec, len(points))
	for i, p := range points {
		centres[i] = p.Vec()
	}
	initial.Scale = ClampScale(initial.Scale)

	return &ManipulableObject{
		ID:        uuid.New(),
		Name:      name,
		centres:   centres,
		footprint: footprint,
		transform: initial,
		index:     newIndex(centres),
	}
}

// Kind reports the object tag used for hit dispatch.
func (o *ManipulableObject) Kind() models.ObjectKind { return models.Heart }

// InstanceCount returns the number of rendered instances.
func (o *ManipulableObject) InstanceCount() int { return len(o.centres) }

// Instance returns the object-local centre of instance i.
func (o *ManipulableObject) Instance(i int) r3.Vec { return o.centres[i] }

// Footprint returns the edge length of one instance cube in local units.
func (o *ManipulableObject) Footprint() float64 { return o.footprint }

// Index returns the spatial index over local instance centres.
func (o *ManipulableObject) Index() *Index { return o.index }

// Snapshot returns a copy of the current transform.
func (o *ManipulableObject) Snapshot() models.Transform { return o.transform }

// SetTransform replaces the transform. Scale is clamped and rotation angles
// are wrapped into (-pi, pi].
func (o *ManipulableObject) SetTransform(t models.Transform) {
	t.Scale = ClampScale(t.Scale)
	t.Rotation = models.Euler{X: WrapAngle(t.Rotation.X), Y: WrapAngle(t.Rotation.Y), Z: WrapAngle(t.Rotation.Z)}
	o.transform = t
}

// LocalToWorld maps an object-local point into world space.
func LocalToWorld(t models.Transform, p r3.Vec) r3.Vec {
	return r3.Add(t.Position, r3.Scale(t.Scale, Rotate(Quaternion(t.Rotation), p)))
}

// WorldRayToLocal maps a world ray into the local frame of t. The returned
// direction stays unit length; a local parameter tl corresponds to the world
// parameter tl*t.Scale.
func WorldRayToLocal(t models.Transform, ray models.Ray) models.Ray {
	inv := quat.Conj(Quaternion(t.Rotation))
	return models.Ray{
		Origin:    r3.Scale(1/t.Scale, Rotate(inv, r3.Sub(ray.Origin, t.Position))),
		Direction: Rotate(inv, ray.Direction),
	}
}

// WorldInstances returns every instance centre in world space for the
// given transform snapshot.
func (o *ManipulableObject) WorldInstances(t models.Transform) []r3.Vec {
	q := Quaternion(t.Rotation)
	out := make([]r3.Vec, len(o.centres))
	for i, c := range o.centres {
		out[i] = r3.Add(t.Position, r3.Scale(t.Scale, Rotate(q, c)))
	}
	return out
}
