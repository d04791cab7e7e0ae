package scene

import (
	"math"
	"sort"
	"testing"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"cardiacxr/internal/models"
)

func vecNear(a, b r3.Vec, tol float64) bool {
	return r3.Norm(r3.Sub(a, b)) < tol
}

func TestClampScale(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{1, 1},
		{0.05, MinScale},
		{-3, MinScale},
		{7, MaxScale},
		{math.Inf(1), MaxScale},
		{math.Inf(-1), MinScale},
		{math.NaN(), MinScale},
	}
	for _, tt := range tests {
		if got := ClampScale(tt.in); got != tt.want {
			t.Errorf("ClampScale(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestWrapAngle(t *testing.T) {
	for _, a := range []float64{0, 1, -1, math.Pi, -math.Pi, 7, -7, 1000} {
		w := WrapAngle(a)
		if w <= -math.Pi || w > math.Pi {
			t.Errorf("WrapAngle(%v) = %v out of range", a, w)
		}
		if math.Abs(math.Sin(w)-math.Sin(a)) > 1e-9 || math.Abs(math.Cos(w)-math.Cos(a)) > 1e-9 {
			t.Errorf("WrapAngle(%v) = %v changes the angle", a, w)
		}
	}
}

func TestQuaternionMatchesAxisRotation(t *testing.T) {
	q := Quaternion(models.Euler{Y: math.Pi / 2})
	got := Rotate(q, r3.Vec{X: 1})
	if !vecNear(got, r3.Vec{Z: -1}, 1e-9) {
		t.Errorf("Rotating +X by pi/2 about Y gave %+v", got)
	}

	q = Quaternion(models.Euler{X: math.Pi / 2})
	got = Rotate(q, r3.Vec{Y: 1})
	if !vecNear(got, r3.Vec{Z: 1}, 1e-9) {
		t.Errorf("Rotating +Y by pi/2 about X gave %+v", got)
	}
}

func TestObjectTransform(t *testing.T) {
	points := []models.Point3D{{X: 0.25}, {Y: -0.25}, {Z: 0.5}}
	obj := NewHeart("test.json", points, 0, models.Transform{Position: r3.Vec{Y: 1.6, Z: -2}, Scale: 9})

	if obj.InstanceCount() != 3 {
		t.Fatalf("Expected 3 instances, got %d", obj.InstanceCount())
	}
	if obj.Footprint() != DefaultFootprint {
		t.Errorf("Expected default footprint, got %f", obj.Footprint())
	}
	if obj.Snapshot().Scale != MaxScale {
		t.Errorf("Expected initial scale clamped to %f, got %f", MaxScale, obj.Snapshot().Scale)
	}
	if obj.Kind() != models.Heart {
		t.Errorf("Expected Heart kind, got %v", obj.Kind())
	}

	obj.SetTransform(models.Transform{
		Position: r3.Vec{X: 1},
		Rotation: models.Euler{X: 0.3, Y: 7, Z: -0.2},
		Scale:    0.01,
	})
	snap := obj.Snapshot()
	if snap.Scale != MinScale {
		t.Errorf("Expected scale clamped to %f, got %f", MinScale, snap.Scale)
	}
	if snap.Rotation.Y > math.Pi {
		t.Errorf("Expected wrapped rotation, got %f", snap.Rotation.Y)
	}

	// Mutating the snapshot must not touch the object
	snap.Position.X = 99
	if obj.Snapshot().Position.X != 1 {
		t.Error("Snapshot aliases object state")
	}
}

func TestWorldRayToLocalRoundTrip(t *testing.T) {
	tr := models.Transform{
		Position: r3.Vec{X: 0.5, Y: 1.6, Z: -2},
		Rotation: models.Euler{X: 0.4, Y: -1.1, Z: 0.2},
		Scale:    2.5,
	}
	local := r3.Vec{X: 0.1, Y: -0.2, Z: 0.3}
	world := LocalToWorld(tr, local)

	ray := models.Ray{Origin: r3.Vec{Z: 3}, Direction: r3.Unit(r3.Sub(world, r3.Vec{Z: 3}))}
	worldT := r3.Norm(r3.Sub(world, ray.Origin))

	lr := WorldRayToLocal(tr, ray)
	if math.Abs(r3.Norm(lr.Direction)-1) > 1e-9 {
		t.Errorf("Local direction not unit: %f", r3.Norm(lr.Direction))
	}
	if got := lr.At(worldT / tr.Scale); !vecNear(got, local, 1e-9) {
		t.Errorf("Expected local point %+v, got %+v", local, got)
	}
}

func TestIndexWithin(t *testing.T) {
	points := make([]models.Point3D, 0, 100)
	for i := 0; i < 100; i++ {
		points = append(points, models.Point3D{X: float64(i)/100 - 0.5})
	}
	obj := NewHeart("line", points, 0.01, models.Transform{Scale: 1})

	var got []int
	obj.Index().Within(r3.Vec{X: 0}, 0.025, func(i int) { got = append(got, i) })
	sort.Ints(got)

	want := []int{48, 49, 50, 51, 52}
	if len(got) != len(want) {
		t.Fatalf("Expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Expected %v, got %v", want, got)
			break
		}
	}

	lo, hi := obj.Index().Bounds()
	if lo.X != -0.5 || math.Abs(hi.X-0.49) > 1e-12 {
		t.Errorf("Unexpected bounds %+v %+v", lo, hi)
	}
}

func TestEmptyIndex(t *testing.T) {
	obj := NewHeart("empty", nil, 0, models.Transform{Scale: 1})
	called := false
	obj.Index().Within(r3.Vec{}, 10, func(int) { called = true })
	if called {
		t.Error("Expected no results from empty index")
	}
}

func TestCameraProjectRayRoundTrip(t *testing.T) {
	cam := &Camera{
		Position: r3.Vec{X: 1, Y: 2, Z: 1},
		Target:   r3.Vec{Y: 1.6, Z: -2},
		FovY:     75 * math.Pi / 180,
		Near:     0.1,
		Far:      1000,
		Width:    800,
		Height:   600,
	}

	x, y, _, ok := cam.Project(cam.Target)
	if !ok {
		t.Fatal("Target should be visible")
	}
	if math.Abs(x-400) > 1e-6 || math.Abs(y-300) > 1e-6 {
		t.Errorf("Target should project to the centre, got (%f, %f)", x, y)
	}

	ray := cam.RayThrough(120, 450)
	p := ray.At(5)
	px, py, _, ok := cam.Project(p)
	if !ok || math.Abs(px-120) > 1e-6 || math.Abs(py-450) > 1e-6 {
		t.Errorf("Expected (120, 450), got (%f, %f) ok=%v", px, py, ok)
	}

	if _, _, _, ok := cam.Project(r3.Vec{X: 2, Y: 2.4, Z: 4}); ok {
		t.Error("Point behind the camera should not project")
	}
}

func TestCameraOrbitAndZoom(t *testing.T) {
	cam := &Camera{Position: r3.Vec{Z: 3}, Target: r3.Vec{}, FovY: 1, Near: 0.1, Far: 100, Width: 10, Height: 10}

	cam.Orbit(0.5, 0.2)
	if d := r3.Norm(cam.Position); math.Abs(d-3) > 1e-9 {
		t.Errorf("Orbit changed distance to %f", d)
	}

	cam.Zoom(0.5)
	if d := r3.Norm(cam.Position); math.Abs(d-1.5) > 1e-9 {
		t.Errorf("Expected distance 1.5 after zoom, got %f", d)
	}

	cam.Zoom(0.0001)
	if d := r3.Norm(cam.Position); math.Abs(d-0.2) > 1e-9 {
		t.Errorf("Expected zoom clamped to 0.2, got %f", d)
	}
}

func TestSlateLayout(t *testing.T) {
	entries := []SlateEntry{
		{Label: "A", Dataset: "a.json"},
		{Label: "B", Dataset: "b.json"},
		{Label: "C", Dataset: "c.json"},
		{Label: "D", Dataset: "d.json"},
	}
	s := NewSlate(entries)
	if len(s.Buttons) != 4 {
		t.Fatalf("Expected 4 buttons, got %d", len(s.Buttons))
	}

	normal := Rotate(s.Orientation, r3.Vec{Z: 1})
	for _, b := range s.Buttons {
		if b.Kind() != models.SlateButton {
			t.Errorf("Button %d has kind %v", b.Index, b.Kind())
		}
		// Buttons float just in front of the panel
		d := r3.Dot(r3.Sub(b.Center, s.Position), normal)
		if math.Abs(d-buttonLift) > 1e-9 {
			t.Errorf("Button %d is %f from the panel", b.Index, d)
		}
	}

	// Fourth button wraps to the second row
	if s.Buttons[3].Center.Y >= s.Buttons[0].Center.Y {
		t.Error("Expected second row below the first")
	}

	now := time.Now()
	b := s.Buttons[0]
	b.Flash(now)
	if b.Color(now.Add(100*time.Millisecond)) != ButtonFlash {
		t.Error("Expected highlight during flash")
	}
	if b.Color(now.Add(FlashDuration)) != ButtonColor {
		t.Error("Expected base colour after flash")
	}
}
