// Package session runs the per-frame pipeline of the viewer: dataset
// reloads, device polling, hit dispatch, gesture updates and view-control
// arbitration.
package session

import (
	"context"
	"errors"
	"image/color"
	"time"

	"github.com/google/uuid"

	"cardiacxr/internal/models"
	"cardiacxr/pkg/dataset"
	"cardiacxr/pkg/hittest"
	"cardiacxr/pkg/input"
	"cardiacxr/pkg/interaction"
	"cardiacxr/pkg/logger"
	"cardiacxr/pkg/scene"
)

var errNoLoader = errors.New("session has no dataset loader")

// Loader starts background dataset loads.
type Loader interface {
	Request(ctx context.Context, name string) (uuid.UUID, error)
	Results() <-chan dataset.LoadResult
}

type device struct {
	adapter   input.Adapter
	machine   *interaction.Machine
	threshold float64
}

// DeviceState is the per-device part of a frame.
type DeviceState struct {
	Name     string
	Mode     interaction.Mode
	Feedback color.RGBA
	Ray      models.Ray
}

// FrameState is the read-only snapshot handed to the renderer.
type FrameState struct {
	// Object is nil until the first dataset loads
	Object    *scene.ManipulableObject
	Transform models.Transform

	Dataset string
	Loading string

	Devices     []DeviceState
	ViewEnabled bool

	// LastError is the most recent load failure, cleared by a successful load
	LastError error
}

// Session owns the current heart and every device driving it.
type Session struct {
	ctx    context.Context
	loader Loader
	slate  *scene.Slate
	log    logger.Logger

	arbiter *interaction.Arbiter
	guard   *interaction.ViewGuard
	devices []*device

	object  *scene.ManipulableObject
	current string

	pendingID   uuid.UUID
	pendingName string
	lastErr     error
}

// New creates a session. loader may be nil when objects are only set through
// Replace, slate may be nil when no selection panel is shown and view may be
// nil when there is no ambient camera control. A nil log falls back to the
// logger carried by ctx.
func New(ctx context.Context, loader Loader, slate *scene.Slate, view interaction.ViewControl, log logger.Logger) *Session {
	if log == nil {
		log = logger.FromContext(ctx)
	}
	return &Session{
		ctx:     logger.WithLogger(ctx, log),
		loader:  loader,
		slate:   slate,
		log:     log,
		arbiter: interaction.NewArbiter(),
		guard:   interaction.NewViewGuard(view),
	}
}

// AddDevice attaches an adapter with its own state machine.
func (s *Session) AddDevice(a input.Adapter, gains interaction.Gains, threshold float64) *interaction.Machine {
	m := interaction.NewMachine(a.Name(), gains, threshold, s.arbiter, s.log)
	s.devices = append(s.devices, &device{adapter: a, machine: m, threshold: threshold})
	s.guard.Add(m)
	return m
}

// RemoveDevice closes the named adapter, feeds its release events to its
// machine and detaches both.
func (s *Session) RemoveDevice(name string) bool {
	for i, d := range s.devices {
		if d.adapter.Name() != name {
			continue
		}
		s.teardown(d)
		s.devices = append(s.devices[:i], s.devices[i+1:]...)
		s.guard.Remove(d.machine)
		s.guard.Sync()
		return true
	}
	return false
}

// Close tears down every device.
func (s *Session) Close() {
	for _, d := range s.devices {
		s.teardown(d)
	}
	s.guard.Sync()
}

func (s *Session) teardown(d *device) {
	for _, ev := range d.adapter.Close() {
		d.machine.Handle(ev, s.object)
	}
	d.machine.Reset()
	s.log.Debug("device detached", logger.F("device", d.adapter.Name()))
}

// Object returns the current heart, or nil.
func (s *Session) Object() *scene.ManipulableObject { return s.object }

// Select asks for dataset name. Selecting the dataset already shown does
// nothing; a newer selection supersedes one still loading.
func (s *Session) Select(name string) error {
	if name == "" || (name == s.current && s.object != nil && s.pendingName == "") {
		return nil
	}
	if name == s.pendingName {
		return nil
	}
	if s.loader == nil {
		s.lastErr = errNoLoader
		return errNoLoader
	}
	id, err := s.loader.Request(s.ctx, name)
	if err != nil {
		s.log.Warn("dataset request rejected", logger.F("dataset", name), logger.Err(err))
		s.lastErr = err
		return err
	}
	s.pendingID = id
	s.pendingName = name
	return nil
}

// Replace swaps in a new heart. Every gesture on the old one ends first.
func (s *Session) Replace(obj *scene.ManipulableObject) {
	for _, d := range s.devices {
		d.machine.Reset()
	}
	s.object = obj
	if obj != nil {
		s.current = obj.Name
	}
	s.guard.Sync()
}

func (s *Session) drain() {
	if s.loader == nil {
		return
	}
	for {
		select {
		case res := <-s.loader.Results():
			s.receive(res)
		default:
			return
		}
	}
}

func (s *Session) receive(res dataset.LoadResult) {
	if res.RequestID != s.pendingID {
		s.log.Debug("stale load result dropped", logger.F("dataset", res.Name))
		return
	}
	s.pendingID = uuid.Nil
	s.pendingName = ""

	if res.Err != nil {
		s.lastErr = res.Err
		s.log.Warn("dataset load failed, keeping current object",
			logger.F("dataset", res.Name),
			logger.Err(res.Err),
		)
		return
	}
	s.lastErr = nil
	s.Replace(res.Object)
	s.log.Info("dataset shown",
		logger.F("dataset", res.Name),
		logger.F("instances", res.Object.InstanceCount()),
		logger.F("elapsed", res.Elapsed),
	)
}

func (s *Session) targets() []hittest.Target {
	var out []hittest.Target
	if s.object != nil {
		out = append(out, s.object)
	}
	if s.slate != nil {
		for _, b := range s.slate.Buttons {
			out = append(out, b)
		}
	}
	return out
}

// Frame advances one display refresh: load results are applied, then each
// device is polled and its events dispatched in order, then view control
// is re-evaluated.
func (s *Session) Frame(now time.Time) FrameState {
	s.drain()

	for _, d := range s.devices {
		for _, ev := range d.adapter.Poll() {
			s.dispatch(d, ev, now)
		}
		s.guard.Sync()
	}

	return s.state()
}

func (s *Session) dispatch(d *device, ev interaction.Event, now time.Time) {
	starts := ev.Kind == interaction.PressStart || ev.Kind == interaction.SecondaryPressStart
	if !starts || d.machine.Mode() != interaction.Idle {
		d.machine.Handle(ev, s.object)
		return
	}

	hit, ok := hittest.Test(ev.Ray, s.targets(), d.threshold)
	if !ok {
		d.machine.Handle(ev, s.object)
		return
	}

	switch hit.Kind {
	case models.Heart:
		d.machine.Handle(ev, hit.Object)
	case models.SlateButton:
		// The machine still records the held control, without a target.
		d.machine.Handle(ev, nil)
		if ev.Kind == interaction.PressStart {
			s.click(hit.Button, now)
		}
	}
}

func (s *Session) click(b *scene.Button, now time.Time) {
	b.Flash(now)
	s.log.Info("slate button pressed", logger.F("label", b.Label), logger.F("dataset", b.Dataset))
	_ = s.Select(b.Dataset)
}

// Activate presses slate button index without a device, as a keyboard
// shortcut does. It reports whether the button exists.
func (s *Session) Activate(index int, now time.Time) bool {
	if s.slate == nil || index < 0 || index >= len(s.slate.Buttons) {
		return false
	}
	s.click(s.slate.Buttons[index], now)
	return true
}

// Slate returns the selection panel, or nil.
func (s *Session) Slate() *scene.Slate { return s.slate }

func (s *Session) state() FrameState {
	fs := FrameState{
		Object:      s.object,
		Dataset:     s.current,
		Loading:     s.pendingName,
		ViewEnabled: s.guard.Enabled(),
		LastError:   s.lastErr,
	}
	if s.object != nil {
		fs.Transform = s.object.Snapshot()
	}
	for _, d := range s.devices {
		fs.Devices = append(fs.Devices, DeviceState{
			Name:     d.adapter.Name(),
			Mode:     d.machine.Mode(),
			Feedback: d.machine.Feedback(),
			Ray:      d.adapter.CastRay(),
		})
	}
	return fs
}
