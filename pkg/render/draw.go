package render

import (
	"image/color"
	"math"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"cardiacxr/pkg/scene"
	"cardiacxr/pkg/session"
)

var (
	backgroundColor = color.RGBA{0x10, 0x12, 0x1a, 0xff}
	textColor       = color.RGBA{0xff, 0xff, 0xff, 0xff}
	errorColor      = color.RGBA{0xff, 0x60, 0x60, 0xff}
)

// rayLength is how far device rays are drawn, in world units.
const rayLength = 3.0

// focal returns the pixels-per-unit factor at unit depth.
func focal(cam *scene.Camera) float64 {
	return float64(cam.Height) / 2 / math.Tan(cam.FovY/2)
}

// instanceColor shades an instance by its object-local position.
func instanceColor(local r3.Vec) color.RGBA {
	return color.RGBA{
		R: 0xe0,
		G: uint8(40 + (local.Y+0.5)*150),
		B: uint8(40 + (local.Z+0.5)*150),
		A: 0xff,
	}
}

func project(cam *scene.Camera, corners [4]r3.Vec) ([][2]float64, float64, bool) {
	pts := make([][2]float64, 0, 4)
	depth := 0.0
	for _, c := range corners {
		x, y, d, ok := cam.Project(c)
		if !ok {
			return nil, 0, false
		}
		pts = append(pts, [2]float64{x, y})
		depth += d / 4
	}
	return pts, depth, true
}

// DrawFrame rasterises one frame: the slate, every heart instance and the
// device rays in their feedback colours.
func DrawFrame(r *Raster, cam *scene.Camera, fs session.FrameState, slate *scene.Slate, now time.Time) {
	r.Clear(backgroundColor)

	if slate != nil {
		if pts, depth, ok := project(cam, slate.Corners()); ok {
			r.FillPolygon(pts, depth, scene.SlateColor)
		}
		for _, b := range slate.Buttons {
			if pts, depth, ok := project(cam, b.Corners()); ok {
				r.FillPolygon(pts, depth-1e-3, b.Color(now))
			}
		}
	}

	if obj := fs.Object; obj != nil {
		world := obj.WorldInstances(fs.Transform)
		edge := obj.Footprint() * fs.Transform.Scale * focal(cam)
		for i, p := range world {
			x, y, d, ok := cam.Project(p)
			if !ok {
				continue
			}
			r.Splat(x, y, d, edge/d, instanceColor(obj.Instance(i)))
		}
	}

	for _, dev := range fs.Devices {
		x0, y0, _, ok := cam.Project(dev.Ray.Origin)
		if !ok {
			continue
		}
		x1, y1, _, ok := cam.Project(dev.Ray.At(rayLength))
		if !ok {
			continue
		}
		r.Line(x0, y0, x1, y1, dev.Feedback)
	}
}
