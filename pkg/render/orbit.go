package render

import (
	"math"

	"cardiacxr/pkg/scene"
)

// Orbit is the ambient view control: dragging on empty space orbits the
// camera around its target and the wheel zooms. It is switched off while a
// gesture owns the pointer.
type Orbit struct {
	cam *scene.Camera

	// Sensitivity is radians per dragged pixel
	Sensitivity float64

	enabled  bool
	dragging bool
	lastX    float64
	lastY    float64
}

// NewOrbit creates an enabled orbit control.
func NewOrbit(cam *scene.Camera) *Orbit {
	return &Orbit{cam: cam, Sensitivity: 0.005, enabled: true}
}

// SetEnabled toggles the control. Disabling drops any drag in progress.
func (o *Orbit) SetEnabled(enabled bool) {
	o.enabled = enabled
	if !enabled {
		o.dragging = false
	}
}

// Enabled reports whether the control reacts to input.
func (o *Orbit) Enabled() bool { return o.enabled }

// Step consumes one frame of pointer input.
func (o *Orbit) Step(x, y float64, held bool, wheel float64) {
	if !o.enabled {
		return
	}
	if held {
		if o.dragging {
			o.cam.Orbit(-(x-o.lastX)*o.Sensitivity, -(y-o.lastY)*o.Sensitivity)
		}
		o.dragging = true
		o.lastX, o.lastY = x, y
	} else {
		o.dragging = false
	}
	if wheel != 0 {
		o.cam.Zoom(math.Pow(0.9, wheel))
	}
}
