// Package input normalizes pointer and tracked-controller state into the
// event stream consumed by the interaction state machines.
package input

import (
	"cardiacxr/internal/models"
	"cardiacxr/pkg/interaction"
)

// Adapter is one input device. Poll is called once per frame and samples
// the most recent device state, so sub-frame press/release pairs may be
// coalesced.
type Adapter interface {
	// Name identifies the device in logs and frame state
	Name() string

	// Poll returns the events since the previous call, ending with a Move
	// carrying the current device position.
	Poll() []interaction.Event

	// CastRay returns the current pointing ray
	CastRay() models.Ray

	// Close detaches the adapter and returns release events for every
	// control still held. Poll returns nothing after Close.
	Close() []interaction.Event
}

// diff appends the start/end events for one boolean control.
func diff(events []interaction.Event, was, now bool, start, end interaction.EventKind, ev interaction.Event) []interaction.Event {
	switch {
	case !was && now:
		ev.Kind = start
		return append(events, ev)
	case was && !now:
		ev.Kind = end
		return append(events, ev)
	}
	return events
}
