package render

import (
	"context"
	"image/color"
	"math"
	"testing"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"cardiacxr/internal/models"
	"cardiacxr/pkg/interaction"
	"cardiacxr/pkg/scene"
	"cardiacxr/pkg/session"
)

var red = color.RGBA{0xff, 0, 0, 0xff}

func testCamera() *scene.Camera {
	return &scene.Camera{
		Position: r3.Vec{Y: 1.6, Z: 0},
		Target:   r3.Vec{Y: 1.6, Z: -2},
		Up:       r3.Vec{Y: 1},
		FovY:     75 * math.Pi / 180,
		Near:     0.1,
		Far:      100,
		Width:    320,
		Height:   240,
	}
}

func TestRasterDepth(t *testing.T) {
	r := NewRaster(10, 10)
	r.Clear(backgroundColor)

	r.Splat(5, 5, 2, 3, red)
	if r.At(5, 5) != red {
		t.Fatalf("At(5,5) = %v", r.At(5, 5))
	}
	blue := color.RGBA{0, 0, 0xff, 0xff}
	r.Splat(5, 5, 3, 3, blue)
	if r.At(5, 5) != red {
		t.Error("farther splat overwrote a nearer one")
	}
	r.Splat(5, 5, 1, 1, blue)
	if r.At(5, 5) != blue {
		t.Error("nearer splat was hidden")
	}
	if r.At(0, 0) != backgroundColor {
		t.Errorf("untouched pixel = %v", r.At(0, 0))
	}

	// Off-canvas writes are clipped.
	r.Splat(-5, 50, 1, 4, red)
}

func TestRasterBlend(t *testing.T) {
	r := NewRaster(2, 2)
	r.Clear(color.RGBA{0, 0, 0, 0xff})
	r.Splat(0.5, 0.5, 1, 1, color.RGBA{0xff, 0xff, 0xff, 0x80})
	got := r.At(0, 0)
	if got.R < 0x7e || got.R > 0x81 || got.A != 0xff {
		t.Errorf("blended pixel = %v", got)
	}
}

func TestFillPolygon(t *testing.T) {
	r := NewRaster(20, 20)
	r.Clear(backgroundColor)
	square := [][2]float64{{5, 5}, {15, 5}, {15, 15}, {5, 15}}
	r.FillPolygon(square, 1, red)

	if r.At(10, 10) != red {
		t.Error("centre not filled")
	}
	if r.At(2, 2) != backgroundColor || r.At(17, 10) != backgroundColor {
		t.Error("fill leaked outside the polygon")
	}

	// Reverse winding fills the same area.
	r.Clear(backgroundColor)
	r.FillPolygon([][2]float64{{5, 15}, {15, 15}, {15, 5}, {5, 5}}, 1, red)
	if r.At(10, 10) != red {
		t.Error("reverse winding not filled")
	}
}

func TestLine(t *testing.T) {
	r := NewRaster(10, 10)
	r.Clear(backgroundColor)
	r.Line(0, 0, 9, 9, red)
	for i := 0; i < 10; i++ {
		if r.At(i, i) != red {
			t.Errorf("pixel (%d,%d) not drawn", i, i)
		}
	}
	r.Line(-20, 5, 30, 5, red)
	if r.At(0, 5) != red || r.At(9, 5) != red {
		t.Error("clipped line missing")
	}
}

func TestOrbit(t *testing.T) {
	cam := testCamera()
	o := NewOrbit(cam)
	start := cam.Position

	o.Step(100, 100, true, 0)
	if cam.Position != start {
		t.Fatal("first drag frame moved the camera")
	}
	o.Step(140, 100, true, 0)
	if cam.Position == start {
		t.Fatal("drag did not orbit")
	}
	radius := r3.Norm(r3.Sub(cam.Position, cam.Target))
	if math.Abs(radius-2) > 1e-9 {
		t.Errorf("orbit changed the radius to %v", radius)
	}

	o.SetEnabled(false)
	moved := cam.Position
	o.Step(200, 100, true, 1)
	if cam.Position != moved {
		t.Error("disabled orbit moved the camera")
	}

	o.SetEnabled(true)
	o.Step(200, 100, false, 1)
	if got := r3.Norm(r3.Sub(cam.Position, cam.Target)); math.Abs(got-1.8) > 1e-9 {
		t.Errorf("zoom radius = %v, want 1.8", got)
	}
}

func TestDrawFrame(t *testing.T) {
	cam := testCamera()
	r := NewRaster(cam.Width, cam.Height)
	heart := scene.NewHeart("h", []models.Point3D{{}}, 0.05, models.Transform{Position: r3.Vec{Y: 1.6, Z: -2}, Scale: 1})

	fs := session.FrameState{
		Object:    heart,
		Transform: heart.Snapshot(),
		Devices: []session.DeviceState{{
			Name:     "right",
			Mode:     interaction.Rotating,
			Feedback: interaction.RotatingColor,
			Ray:      models.Ray{Origin: r3.Vec{X: 0.3, Y: 1.5, Z: -1}, Direction: r3.Vec{Z: -1}},
		}},
	}
	DrawFrame(r, cam, fs, nil, time.Now())

	if got := r.At(cam.Width/2, cam.Height/2); got == backgroundColor {
		t.Error("heart instance not drawn at the image centre")
	}
	found := false
	for x := 0; x < cam.Width && !found; x++ {
		for y := 0; y < cam.Height; y++ {
			if r.At(x, y) == interaction.RotatingColor {
				found = true
				break
			}
		}
	}
	if !found {
		t.Error("device ray not drawn in its feedback colour")
	}
}

func TestGameLayout(t *testing.T) {
	cam := testCamera()
	orbit := NewOrbit(cam)
	s := session.New(context.Background(), nil, nil, orbit, nil)
	g := NewGame(s, cam, orbit, nil)

	w, h := g.Layout(1920, 1080)
	if w != 320 || h != 240 {
		t.Errorf("Layout() = %dx%d, want 320x240", w, h)
	}
	if !orbit.Enabled() {
		t.Error("orbit disabled on a fresh session")
	}
}
