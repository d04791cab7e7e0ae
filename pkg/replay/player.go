package replay

import (
	"time"

	"cardiacxr/internal/models"
	"cardiacxr/pkg/input"
	"cardiacxr/pkg/interaction"
	"cardiacxr/pkg/logger"
	"cardiacxr/pkg/session"
)

// Track feeds one expanded sample track to a controller adapter. After the
// last sample the final state is held.
type Track struct {
	states []input.ControllerState
	frame  int
}

func (t *Track) ControllerState() input.ControllerState {
	if len(t.states) == 0 {
		return input.ControllerState{}
	}
	if t.frame >= len(t.states) {
		return t.states[len(t.states)-1]
	}
	return t.states[t.frame]
}

// Transition records a mode change seen in a frame.
type Transition struct {
	Frame  int
	Device string
	From   interaction.Mode
	To     interaction.Mode
}

// Result summarizes a replay.
type Result struct {
	Frames      int
	Final       models.Transform
	Transitions []Transition
	State       session.FrameState
}

// Player attaches one controller per track to a session and steps them.
type Player struct {
	script *Script
	tracks map[string]*Track
	frames int
	log    logger.Logger
}

// NewPlayer registers a controller adapter on sess for every track of
// script, using gains and threshold for all of them.
func NewPlayer(script *Script, sess *session.Session, gains interaction.Gains, threshold float64, log logger.Logger) *Player {
	if log == nil {
		log = logger.NewNop()
	}
	p := &Player{script: script, tracks: make(map[string]*Track), log: log}
	for _, name := range script.Devices() {
		tr := &Track{states: expand(script.Tracks[name])}
		if len(tr.states) > p.frames {
			p.frames = len(tr.states)
		}
		p.tracks[name] = tr
		sess.AddDevice(input.NewController(name, tr), gains, threshold)
	}
	return p
}

// Frames is the length of the longest track.
func (p *Player) Frames() int { return p.frames }

// Run plays every frame through sess, starting the simulated clock at
// start.
func (p *Player) Run(sess *session.Session, start time.Time) Result {
	step := time.Duration(float64(time.Second) / p.script.FrameRate)
	modes := make(map[string]interaction.Mode)

	var res Result
	for frame := 0; frame < p.frames; frame++ {
		for _, tr := range p.tracks {
			tr.frame = frame
		}
		fs := sess.Frame(start.Add(time.Duration(frame) * step))
		for _, d := range fs.Devices {
			if prev := modes[d.Name]; prev != d.Mode {
				res.Transitions = append(res.Transitions, Transition{Frame: frame, Device: d.Name, From: prev, To: d.Mode})
				p.log.Debug("mode changed",
					logger.F("frame", frame),
					logger.F("device", d.Name),
					logger.F("mode", d.Mode.String()),
				)
			}
			modes[d.Name] = d.Mode
		}
		res.State = fs
	}
	res.Frames = p.frames
	res.Final = res.State.Transform
	return res
}
