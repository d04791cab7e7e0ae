package scene

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"cardiacxr/internal/models"
)

// Camera is a perspective look-at camera over a Width x Height viewport.
type Camera struct {
	Position r3.Vec
	Target   r3.Vec
	Up       r3.Vec

	// FovY is the vertical field of view in radians
	FovY float64

	Near, Far float64

	Width, Height int
}

func (c *Camera) basis() (forward, right, up r3.Vec) {
	worldUp := c.Up
	if r3.Norm2(worldUp) == 0 {
		worldUp = r3.Vec{Y: 1}
	}
	forward = r3.Unit(r3.Sub(c.Target, c.Position))
	right = r3.Unit(r3.Cross(forward, worldUp))
	up = r3.Cross(right, forward)
	return forward, right, up
}

func (c *Camera) aspect() float64 {
	if c.Height == 0 {
		return 1
	}
	return float64(c.Width) / float64(c.Height)
}

// Project maps a world point to viewport pixels. ok is false when the point
// lies outside the near/far range.
func (c *Camera) Project(p r3.Vec) (x, y, depth float64, ok bool) {
	forward, right, up := c.basis()
	v := r3.Sub(p, c.Position)
	depth = r3.Dot(v, forward)
	if depth < c.Near || depth > c.Far {
		return 0, 0, depth, false
	}
	f := 1 / math.Tan(c.FovY/2)
	ndcX := r3.Dot(v, right) * f / (c.aspect() * depth)
	ndcY := r3.Dot(v, up) * f / depth
	x = (ndcX + 1) / 2 * float64(c.Width)
	y = (1 - ndcY) / 2 * float64(c.Height)
	return x, y, depth, true
}

// RayThrough returns the world ray from the eye through viewport pixel (x, y).
func (c *Camera) RayThrough(x, y float64) models.Ray {
	forward, right, up := c.basis()
	f := 1 / math.Tan(c.FovY/2)
	ndcX := 2*x/float64(c.Width) - 1
	ndcY := 1 - 2*y/float64(c.Height)
	dir := r3.Add(forward, r3.Add(
		r3.Scale(ndcX*c.aspect()/f, right),
		r3.Scale(ndcY/f, up),
	))
	return models.Ray{Origin: c.Position, Direction: r3.Unit(dir)}
}

// Orbit rotates the eye around the target by dAzimuth about world Y and
// dPolar towards or away from the pole.
func (c *Camera) Orbit(dAzimuth, dPolar float64) {
	offset := r3.Sub(c.Position, c.Target)
	radius := r3.Norm(offset)
	if radius == 0 {
		return
	}
	azimuth := math.Atan2(offset.X, offset.Z) + dAzimuth
	polar := math.Acos(offset.Y/radius) + dPolar
	polar = math.Max(0.01, math.Min(math.Pi-0.01, polar))

	c.Position = r3.Add(c.Target, r3.Vec{
		X: radius * math.Sin(polar) * math.Sin(azimuth),
		Y: radius * math.Cos(polar),
		Z: radius * math.Sin(polar) * math.Cos(azimuth),
	})
}

// Zoom scales the eye distance to the target by factor, kept within [0.2, 50].
func (c *Camera) Zoom(factor float64) {
	offset := r3.Sub(c.Position, c.Target)
	radius := r3.Norm(offset)
	if radius == 0 || factor <= 0 {
		return
	}
	next := math.Max(0.2, math.Min(50, radius*factor))
	c.Position = r3.Add(c.Target, r3.Scale(next/radius, offset))
}
