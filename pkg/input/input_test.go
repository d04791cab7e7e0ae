package input

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"cardiacxr/internal/models"
	"cardiacxr/pkg/interaction"
)

type scriptedPointer struct {
	state PointerState
}

func (s *scriptedPointer) PointerState() PointerState { return s.state }

type flatViewport struct{}

func (flatViewport) RayThrough(x, y float64) models.Ray {
	return models.Ray{Origin: r3.Vec{X: x, Y: y}, Direction: r3.Vec{Z: -1}}
}

type scriptedController struct {
	state ControllerState
}

func (s *scriptedController) ControllerState() ControllerState { return s.state }

func kinds(events []interaction.Event) []interaction.EventKind {
	out := make([]interaction.EventKind, len(events))
	for i, e := range events {
		out[i] = e.Kind
	}
	return out
}

func sameKinds(a, b []interaction.EventKind) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestPointerEvents(t *testing.T) {
	src := &scriptedPointer{}
	p := NewPointer("mouse", src, flatViewport{})

	steps := []struct {
		name  string
		state PointerState
		want  []interaction.EventKind
	}{
		{"hover", PointerState{X: 10, Y: 20}, []interaction.EventKind{interaction.Move}},
		{"click", PointerState{X: 12, Y: 18, Primary: true}, []interaction.EventKind{interaction.PressStart, interaction.Move}},
		{"add modifier", PointerState{X: 12, Y: 18, Primary: true, Modifier: true}, []interaction.EventKind{interaction.SecondaryPressStart, interaction.Move}},
		{"drop modifier", PointerState{X: 12, Y: 18, Primary: true}, []interaction.EventKind{interaction.SecondaryPressEnd, interaction.Move}},
		{"release", PointerState{X: 12, Y: 18}, []interaction.EventKind{interaction.PressEnd, interaction.Move}},
		{"modifier click", PointerState{X: 12, Y: 18, Primary: true, Modifier: true}, []interaction.EventKind{interaction.SecondaryPressStart, interaction.Move}},
		{"modifier up while held", PointerState{X: 12, Y: 18, Primary: true}, []interaction.EventKind{interaction.SecondaryPressEnd, interaction.Move}},
		{"release after modifier click", PointerState{X: 12, Y: 18}, []interaction.EventKind{interaction.Move}},
		{"click then release together", PointerState{X: 12, Y: 18, Primary: true, Modifier: true}, []interaction.EventKind{interaction.SecondaryPressStart, interaction.Move}},
		{"release both", PointerState{X: 12, Y: 18}, []interaction.EventKind{interaction.SecondaryPressEnd, interaction.Move}},
	}

	for _, step := range steps {
		src.state = step.state
		got := kinds(p.Poll())
		if !sameKinds(got, step.want) {
			t.Fatalf("%s: events = %v, want %v", step.name, got, step.want)
		}
	}
}

func TestPointerPositionAndRay(t *testing.T) {
	src := &scriptedPointer{state: PointerState{X: 10, Y: 20}}
	p := NewPointer("mouse", src, flatViewport{})
	p.Poll()

	src.state = PointerState{X: 12, Y: 18, Primary: true}
	events := p.Poll()
	press := events[0]
	if press.Ray.Origin != (r3.Vec{X: 12, Y: 18}) {
		t.Errorf("press ray origin = %v", press.Ray.Origin)
	}
	move := events[len(events)-1]
	if move.Position != (r3.Vec{X: 12, Y: -18}) {
		t.Errorf("Position = %v, want Y flipped", move.Position)
	}
	// Moving the pointer up the screen is a positive Y delta.
	if move.Delta != (r3.Vec{X: 2, Y: 2}) {
		t.Errorf("Delta = %v, want (2, 2, 0)", move.Delta)
	}
	if ray := p.CastRay(); ray.Origin != (r3.Vec{X: 12, Y: 18}) {
		t.Errorf("CastRay() origin = %v", ray.Origin)
	}
}

func TestPointerClose(t *testing.T) {
	src := &scriptedPointer{}
	p := NewPointer("mouse", src, flatViewport{})
	p.Poll()
	src.state = PointerState{Primary: true}
	p.Poll()
	src.state = PointerState{Primary: true, Modifier: true}
	p.Poll()

	got := kinds(p.Close())
	want := []interaction.EventKind{interaction.SecondaryPressEnd, interaction.PressEnd}
	if !sameKinds(got, want) {
		t.Fatalf("Close() = %v, want %v", got, want)
	}
	if events := p.Poll(); events != nil {
		t.Errorf("Poll() after Close = %v", events)
	}
	if events := p.Close(); events != nil {
		t.Errorf("second Close() = %v", events)
	}
}

func TestControllerEvents(t *testing.T) {
	src := &scriptedController{state: ControllerState{Connected: true, Pose: Pose{Position: r3.Vec{Y: 1.5}}}}
	c := NewController("right", src)

	if got := kinds(c.Poll()); !sameKinds(got, []interaction.EventKind{interaction.Move}) {
		t.Fatalf("first poll = %v", got)
	}

	src.state.Trigger = true
	events := c.Poll()
	if got := kinds(events); !sameKinds(got, []interaction.EventKind{interaction.PressStart, interaction.Move}) {
		t.Fatalf("trigger = %v", got)
	}
	if dir := events[0].Ray.Direction; r3.Norm(r3.Sub(dir, r3.Vec{Z: -1})) > 1e-12 {
		t.Errorf("default direction = %v", dir)
	}

	src.state.Grip = true
	src.state.Pose.Position = r3.Vec{X: 0.25, Y: 1.5}
	events = c.Poll()
	if got := kinds(events); !sameKinds(got, []interaction.EventKind{interaction.SecondaryPressStart, interaction.Move}) {
		t.Fatalf("grip = %v", got)
	}
	if d := events[len(events)-1].Delta; d != (r3.Vec{X: 0.25}) {
		t.Errorf("Delta = %v", d)
	}

	src.state.Connected = false
	if got := kinds(c.Poll()); !sameKinds(got, []interaction.EventKind{interaction.PressEnd, interaction.SecondaryPressEnd}) {
		t.Fatalf("disconnect = %v", got)
	}
	if got := c.Close(); len(got) != 0 {
		t.Errorf("Close() after disconnect = %v", kinds(got))
	}
}

func TestControllerRay(t *testing.T) {
	half := math.Pi / 4
	src := &scriptedController{state: ControllerState{
		Connected: true,
		Pose: Pose{
			Position:    r3.Vec{X: 1, Y: 1.2},
			Orientation: quat.Number{Real: math.Cos(half), Jmag: math.Sin(half)},
		},
	}}
	c := NewController("left", src)
	c.Poll()

	ray := c.CastRay()
	if ray.Origin != (r3.Vec{X: 1, Y: 1.2}) {
		t.Errorf("origin = %v", ray.Origin)
	}
	if r3.Norm(r3.Sub(ray.Direction, r3.Vec{X: -1})) > 1e-9 {
		t.Errorf("direction = %v, want (-1, 0, 0)", ray.Direction)
	}
}

func TestControllerClose(t *testing.T) {
	src := &scriptedController{state: ControllerState{Connected: true, Trigger: true}}
	c := NewController("left", src)
	c.Poll()

	got := kinds(c.Close())
	if !sameKinds(got, []interaction.EventKind{interaction.PressEnd}) {
		t.Fatalf("Close() = %v", got)
	}
	if c.Poll() != nil {
		t.Error("Poll() after Close returned events")
	}
}
