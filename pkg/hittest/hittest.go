// Package hittest finds the nearest scene entity along a ray.
//
// Instanced hearts are tested as one sphere per instance whose radius is half
// the cube footprint plus a per-modality threshold. The object's kd-tree over
// local instance centres serves as the broad phase: the ray segment inside the
// padded bounding box is sampled and only instances near a sample are tested
// exactly.
package hittest

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"cardiacxr/internal/models"
	"cardiacxr/pkg/scene"
)

// Target is anything hit-testable. *scene.ManipulableObject and
// *scene.Button are the supported implementations.
type Target interface {
	Kind() models.ObjectKind
}

// Hit describes the nearest intersection found by Test.
type Hit struct {
	Kind models.ObjectKind

	// Object is set when Kind is models.Heart
	Object *scene.ManipulableObject

	// Instance is the hit instance of Object
	Instance int

	// Button is set when Kind is models.SlateButton
	Button *scene.Button

	// T is the world-space ray parameter of the hit
	T float64

	// Point is the world-space hit position
	Point r3.Vec
}

// Test returns the closest hit of ray against candidates, by ray parameter.
// threshold widens instance hit spheres in world units. Nil candidates are
// skipped. Test never mutates a candidate.
func Test(ray models.Ray, candidates []Target, threshold float64) (Hit, bool) {
	if r3.Norm2(ray.Direction) == 0 {
		return Hit{}, false
	}
	ray.Direction = r3.Unit(ray.Direction)
	threshold = math.Max(0, threshold)

	var best Hit
	found := false
	for _, c := range candidates {
		var (
			h  Hit
			ok bool
		)
		switch target := c.(type) {
		case *scene.ManipulableObject:
			if target == nil {
				continue
			}
			h, ok = testObject(ray, target, threshold)
		case *scene.Button:
			if target == nil {
				continue
			}
			h, ok = testButton(ray, target)
		default:
			continue
		}
		if ok && (!found || h.T < best.T) {
			best, found = h, true
		}
	}
	return best, found
}

func testObject(ray models.Ray, obj *scene.ManipulableObject, threshold float64) (Hit, bool) {
	idx := obj.Index()
	if idx.Len() == 0 {
		return Hit{}, false
	}

	tr := obj.Snapshot()
	local := scene.WorldRayToLocal(tr, ray)
	radius := obj.Footprint()/2 + threshold/tr.Scale

	lo, hi := idx.Bounds()
	pad := r3.Vec{X: radius, Y: radius, Z: radius}
	t0, t1, ok := slab(local, r3.Sub(lo, pad), r3.Add(hi, pad))
	if !ok {
		return Hit{}, false
	}

	bestT := math.Inf(1)
	bestI := -1
	try := func(i int) {
		if t, ok := sphere(local, obj.Instance(i), radius); ok && t < bestT {
			bestT, bestI = t, i
		}
	}

	step := 2 * radius
	samples := math.Ceil((t1 - t0) / step)
	// Far from the origin a step no longer changes t, so sampling cannot
	// cover the segment.
	if samples > float64(idx.Len()) || t0+step == t0 || t1+step == t1 {
		for i := 0; i < obj.InstanceCount(); i++ {
			try(i)
		}
	} else {
		seen := make(map[int]struct{})
		query := radius * math.Sqrt2
		n := int(samples)
		for k := 0; k <= n+1; k++ {
			s := t0 + float64(k)*step
			idx.Within(local.At(s), query, func(i int) {
				if _, dup := seen[i]; dup {
					return
				}
				seen[i] = struct{}{}
				try(i)
			})
		}
	}

	if bestI < 0 {
		return Hit{}, false
	}
	worldT := bestT * tr.Scale
	return Hit{
		Kind:     models.Heart,
		Object:   obj,
		Instance: bestI,
		T:        worldT,
		Point:    ray.At(worldT),
	}, true
}

// slab clips ray against the box [lo, hi] and returns the non-negative
// parameter interval inside it.
func slab(ray models.Ray, lo, hi r3.Vec) (t0, t1 float64, ok bool) {
	t0, t1 = 0, math.Inf(1)
	o := [3]float64{ray.Origin.X, ray.Origin.Y, ray.Origin.Z}
	d := [3]float64{ray.Direction.X, ray.Direction.Y, ray.Direction.Z}
	l := [3]float64{lo.X, lo.Y, lo.Z}
	h := [3]float64{hi.X, hi.Y, hi.Z}
	for a := 0; a < 3; a++ {
		if math.Abs(d[a]) < 1e-12 {
			if o[a] < l[a] || o[a] > h[a] {
				return 0, 0, false
			}
			continue
		}
		near := (l[a] - o[a]) / d[a]
		far := (h[a] - o[a]) / d[a]
		if near > far {
			near, far = far, near
		}
		t0 = math.Max(t0, near)
		t1 = math.Min(t1, far)
		if t0 > t1 {
			return 0, 0, false
		}
	}
	return t0, t1, true
}

// sphere intersects a unit-direction ray with a sphere. A ray starting
// inside the sphere hits at t=0.
func sphere(ray models.Ray, centre r3.Vec, radius float64) (float64, bool) {
	oc := r3.Sub(ray.Origin, centre)
	b := r3.Dot(oc, ray.Direction)
	c := r3.Norm2(oc) - radius*radius
	if c <= 0 {
		return 0, true
	}
	disc := b*b - c
	if disc < 0 || b > 0 {
		return 0, false
	}
	return -b - math.Sqrt(disc), true
}

func testButton(ray models.Ray, b *scene.Button) (Hit, bool) {
	normal := b.Normal()
	denom := r3.Dot(ray.Direction, normal)
	if math.Abs(denom) < 1e-9 {
		return Hit{}, false
	}
	t := r3.Dot(r3.Sub(b.Center, ray.Origin), normal) / denom
	if t < 0 {
		return Hit{}, false
	}
	p := ray.At(t)
	local := scene.Rotate(quat.Conj(b.Orientation), r3.Sub(p, b.Center))
	if math.Abs(local.X) > b.HalfWidth || math.Abs(local.Y) > b.HalfHeight {
		return Hit{}, false
	}
	return Hit{Kind: models.SlateButton, Button: b, T: t, Point: p}, true
}
