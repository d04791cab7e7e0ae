package scene

import (
	"image/color"
	"math"
	"time"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"cardiacxr/internal/models"
)

// Slate layout, in panel-local units.
const (
	SlateWidth    = 1.2
	SlateHeight   = 0.8
	ButtonWidth   = 0.35
	ButtonHeight  = 0.15
	buttonColumns = 3
	buttonSpaceX  = 0.4
	buttonSpaceY  = 0.25
	buttonStartX  = -0.4
	buttonStartY  = 0.125
	buttonLift    = 0.001

	// FlashDuration is how long a clicked button keeps its highlight colour
	FlashDuration = 200 * time.Millisecond
)

var (
	ButtonColor     = color.RGBA{0x4a, 0x9e, 0xff, 0xcc}
	ButtonFlash     = color.RGBA{0x00, 0xff, 0x00, 0xcc}
	SlateColor      = color.RGBA{0x33, 0x33, 0x33, 0xe6}
	defaultSlatePos = r3.Vec{X: -1.5, Y: 1.6, Z: -1.5}
)

// SlateEntry binds a button label to the dataset it loads.
type SlateEntry struct {
	Label   string `yaml:"label"`
	Dataset string `yaml:"dataset"`
}

// Button is one clickable selector on the slate.
type Button struct {
	Index   int
	Label   string
	Dataset string

	// Center is the world-space centre of the button face
	Center r3.Vec

	// Orientation rotates button-local axes into world space
	Orientation quat.Number

	HalfWidth, HalfHeight float64

	flashUntil time.Time
}

// Kind reports the object tag used for hit dispatch.
func (b *Button) Kind() models.ObjectKind { return models.SlateButton }

// Normal returns the world-space facing direction of the button.
func (b *Button) Normal() r3.Vec { return Rotate(b.Orientation, r3.Vec{Z: 1}) }

// Corners returns the four world-space corners, counter-clockwise from the
// bottom left.
func (b *Button) Corners() [4]r3.Vec {
	var out [4]r3.Vec
	for i, c := range [4][2]float64{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}} {
		local := r3.Vec{X: c[0] * b.HalfWidth, Y: c[1] * b.HalfHeight}
		out[i] = r3.Add(b.Center, Rotate(b.Orientation, local))
	}
	return out
}

// Flash starts the click highlight.
func (b *Button) Flash(now time.Time) { b.flashUntil = now.Add(FlashDuration) }

// Color returns the display colour at now.
func (b *Button) Color(now time.Time) color.RGBA {
	if now.Before(b.flashUntil) {
		return ButtonFlash
	}
	return ButtonColor
}

// Slate is the dataset selection panel.
type Slate struct {
	Position    r3.Vec
	Orientation quat.Number
	Buttons     []*Button
}

// NewSlate lays entries out on a three-column grid on a panel placed to the
// viewer's left and turned pi/6 towards them.
func NewSlate(entries []SlateEntry) *Slate {
	s := &Slate{
		Position:    defaultSlatePos,
		Orientation: Quaternion(models.Euler{Y: math.Pi / 6}),
	}
	for i, e := range entries {
		row := i / buttonColumns
		col := i % buttonColumns
		local := r3.Vec{
			X: buttonStartX + float64(col)*buttonSpaceX,
			Y: buttonStartY - float64(row)*buttonSpaceY,
			Z: buttonLift,
		}
		s.Buttons = append(s.Buttons, &Button{
			Index:       i,
			Label:       e.Label,
			Dataset:     e.Dataset,
			Center:      r3.Add(s.Position, Rotate(s.Orientation, local)),
			Orientation: s.Orientation,
			HalfWidth:   ButtonWidth / 2,
			HalfHeight:  ButtonHeight / 2,
		})
	}
	return s
}

// Corners returns the panel outline in world space.
func (s *Slate) Corners() [4]r3.Vec {
	var out [4]r3.Vec
	for i, c := range [4][2]float64{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}} {
		local := r3.Vec{X: c[0] * SlateWidth / 2, Y: c[1] * SlateHeight / 2}
		out[i] = r3.Add(s.Position, Rotate(s.Orientation, local))
	}
	return out
}
