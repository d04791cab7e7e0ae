// Package replay drives controller adapters from a recorded YAML gesture
// script so the controller path can run without a VR runtime.
package replay

import (
	"fmt"
	"math"
	"os"
	"sort"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"

	"cardiacxr/internal/models"
	"cardiacxr/pkg/input"
	"cardiacxr/pkg/scene"
)

// Sample is one controller state held for Repeat frames.
type Sample struct {
	Position [3]float64 `yaml:"position"`

	// Orientation is a unit quaternion (w, x, y, z). When absent the pose
	// is built from Yaw and Pitch in degrees.
	Orientation *[4]float64 `yaml:"orientation,omitempty"`
	Yaw         float64     `yaml:"yaw"`
	Pitch       float64     `yaml:"pitch"`

	Trigger bool `yaml:"trigger"`
	Grip    bool `yaml:"grip"`

	// Disconnected marks frames where tracking is lost
	Disconnected bool `yaml:"disconnected"`

	Repeat int `yaml:"repeat"`
}

// Script is a set of per-controller sample tracks played in lockstep.
type Script struct {
	Name    string `yaml:"name"`
	Dataset string `yaml:"dataset"`

	// FrameRate is the simulated display refresh in Hz
	FrameRate float64 `yaml:"frameRate"`

	Tracks map[string][]Sample `yaml:"tracks"`
}

// ParseScript decodes and validates a YAML script.
func ParseScript(data []byte) (*Script, error) {
	s := &Script{FrameRate: 90}
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("error parsing replay script: %w", err)
	}
	if len(s.Tracks) == 0 {
		return nil, fmt.Errorf("replay script %q has no tracks", s.Name)
	}
	if s.FrameRate <= 0 {
		return nil, fmt.Errorf("replay script %q: frameRate must be positive", s.Name)
	}
	for name, track := range s.Tracks {
		for i, sm := range track {
			if sm.Repeat < 0 {
				return nil, fmt.Errorf("track %s sample %d: negative repeat", name, i)
			}
			if sm.Orientation != nil {
				o := *sm.Orientation
				n := math.Sqrt(o[0]*o[0] + o[1]*o[1] + o[2]*o[2] + o[3]*o[3])
				if n == 0 || math.IsNaN(n) {
					return nil, fmt.Errorf("track %s sample %d: orientation is not a rotation", name, i)
				}
			}
		}
	}
	return s, nil
}

// LoadScript reads a script file.
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading replay script: %w", err)
	}
	return ParseScript(data)
}

// Devices returns the track names in a stable order.
func (s *Script) Devices() []string {
	names := make([]string, 0, len(s.Tracks))
	for name := range s.Tracks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (sm Sample) state() input.ControllerState {
	return input.ControllerState{
		Connected: !sm.Disconnected,
		Pose: input.Pose{
			Position:    r3.Vec{X: sm.Position[0], Y: sm.Position[1], Z: sm.Position[2]},
			Orientation: sm.orientation(),
		},
		Trigger: sm.Trigger,
		Grip:    sm.Grip,
	}
}

func (sm Sample) orientation() quat.Number {
	if sm.Orientation != nil {
		o := *sm.Orientation
		q := quat.Number{Real: o[0], Imag: o[1], Jmag: o[2], Kmag: o[3]}
		return quat.Scale(1/quat.Abs(q), q)
	}
	yaw := scene.Quaternion(models.Euler{Y: sm.Yaw * math.Pi / 180})
	pitch := scene.Quaternion(models.Euler{X: sm.Pitch * math.Pi / 180})
	return quat.Mul(yaw, pitch)
}

// expand unrolls repeats into one state per frame.
func expand(track []Sample) []input.ControllerState {
	var out []input.ControllerState
	for _, sm := range track {
		n := sm.Repeat
		if n == 0 {
			n = 1
		}
		st := sm.state()
		for i := 0; i < n; i++ {
			out = append(out, st)
		}
	}
	return out
}
