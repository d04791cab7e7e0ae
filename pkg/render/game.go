// Package render is the desktop viewer: an ebiten game that drives a
// session once per frame and rasterises the heart, the selection slate and
// the device rays.
package render

import (
	"fmt"
	"image/color"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"golang.org/x/image/font/basicfont"

	"cardiacxr/pkg/input"
	"cardiacxr/pkg/logger"
	"cardiacxr/pkg/scene"
	"cardiacxr/pkg/session"
)

var defaultFace = text.NewGoXFace(basicfont.Face7x13)

// slateKeys select slate buttons by position.
var slateKeys = []ebiten.Key{
	ebiten.Key1, ebiten.Key2, ebiten.Key3,
	ebiten.Key4, ebiten.Key5, ebiten.Key6,
}

const helpText = "drag: rotate   alt+drag: scale   drag+alt: move   1-6: dataset   wheel: zoom   esc: quit"

// MouseSource reads the ebiten cursor. The left button is the primary
// control and either Alt key is the modifier.
type MouseSource struct{}

func (MouseSource) PointerState() input.PointerState {
	x, y := ebiten.CursorPosition()
	alt := ebiten.IsKeyPressed(ebiten.KeyAltLeft) || ebiten.IsKeyPressed(ebiten.KeyAltRight)
	return input.PointerState{
		X:        float64(x),
		Y:        float64(y),
		Primary:  ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft),
		Modifier: alt,
	}
}

// Game implements ebiten.Game over a session.
type Game struct {
	session *session.Session
	cam     *scene.Camera
	orbit   *Orbit
	raster  *Raster
	canvas  *ebiten.Image
	log     logger.Logger

	state session.FrameState
	now   func() time.Time
}

// NewGame creates the viewer. orbit must be the view control the session
// was built with.
func NewGame(s *session.Session, cam *scene.Camera, orbit *Orbit, log logger.Logger) *Game {
	if log == nil {
		log = logger.NewNop()
	}
	return &Game{
		session: s,
		cam:     cam,
		orbit:   orbit,
		raster:  NewRaster(cam.Width, cam.Height),
		log:     log,
		now:     time.Now,
	}
}

// Update advances one frame (called by ebiten every tick).
func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	now := g.now()
	for i, k := range slateKeys {
		if inpututil.IsKeyJustPressed(k) {
			g.session.Activate(i, now)
		}
	}

	g.state = g.session.Frame(now)

	x, y := ebiten.CursorPosition()
	_, wheel := ebiten.Wheel()
	g.orbit.Step(float64(x), float64(y), ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft), wheel)
	return nil
}

// Draw renders the last frame state.
func (g *Game) Draw(screen *ebiten.Image) {
	now := g.now()
	DrawFrame(g.raster, g.cam, g.state, g.session.Slate(), now)

	if g.canvas == nil {
		g.canvas = ebiten.NewImage(g.cam.Width, g.cam.Height)
	}
	g.canvas.WritePixels(g.raster.Image.Pix)
	screen.DrawImage(g.canvas, nil)

	g.drawLabels(screen)
	g.drawHUD(screen)
}

func (g *Game) drawLabels(screen *ebiten.Image) {
	slate := g.session.Slate()
	if slate == nil {
		return
	}
	for _, b := range slate.Buttons {
		x, y, _, ok := g.cam.Project(b.Center)
		if !ok {
			continue
		}
		w, h := text.Measure(b.Label, defaultFace, 0)
		op := &text.DrawOptions{}
		op.GeoM.Translate(x-w/2, y-h/2)
		op.ColorScale.ScaleWithColor(textColor)
		text.Draw(screen, b.Label, defaultFace, op)
	}
}

func (g *Game) drawHUD(screen *ebiten.Image) {
	y := 10.0
	line := func(s string, c color.RGBA) {
		op := &text.DrawOptions{}
		op.GeoM.Translate(10, y)
		op.ColorScale.ScaleWithColor(c)
		text.Draw(screen, s, defaultFace, op)
		y += 16
	}

	dataset := g.state.Dataset
	if dataset == "" {
		dataset = "(none)"
	}
	line("dataset: "+dataset, textColor)
	if g.state.Loading != "" {
		line("loading: "+g.state.Loading, textColor)
	}
	if g.state.LastError != nil {
		line("error: "+g.state.LastError.Error(), errorColor)
	}
	if g.state.Object != nil {
		t := g.state.Transform
		line(fmt.Sprintf("instances: %d  scale: %.2f  rot: (%.2f, %.2f)",
			g.state.Object.InstanceCount(), t.Scale, t.Rotation.X, t.Rotation.Y), textColor)
	}
	for _, d := range g.state.Devices {
		line(fmt.Sprintf("%s: %s", d.Name, d.Mode), d.Feedback)
	}

	op := &text.DrawOptions{}
	op.GeoM.Translate(10, float64(g.cam.Height)-20)
	op.ColorScale.ScaleWithColor(textColor)
	text.Draw(screen, helpText, defaultFace, op)
}

// Layout keeps the logical screen at the camera viewport size.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.cam.Width, g.cam.Height
}

// Run opens the window and blocks until it is closed.
func Run(g *Game, title string) error {
	ebiten.SetWindowSize(g.cam.Width, g.cam.Height)
	ebiten.SetWindowTitle(title)
	if err := ebiten.RunGame(g); err != nil {
		return fmt.Errorf("failed to run viewer: %w", err)
	}
	return nil
}
