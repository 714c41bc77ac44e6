// Package provider defines the Provider abstraction: a source of
// position, heading and velocity updates that the Engine can enable,
// disable, activate and deactivate independently, and that advertises
// what it requires and what it can satisfy so the Engine's selection
// policy can choose between several of them.
package provider

import (
	"github.com/ubports/location-service-sub002/event"
	"github.com/ubports/location-service-sub002/units"
)

// State is a Provider's lifecycle state.  A Provider starts Disabled;
// Enable moves it to Enabled; Activate moves an Enabled provider to
// Active, meaning it is actually feeding at least one Session.
type State int

const (
	Disabled State = iota
	Enabled
	Active
)

func (s State) String() string {
	switch s {
	case Disabled:
		return "disabled"
	case Enabled:
		return "enabled"
	case Active:
		return "active"
	default:
		return "unknown"
	}
}

// Provider is the interface every position source implements, whether
// it's backed by a physical GNSS receiver, a network location service,
// or (for tests) a canned sequence of updates.
type Provider interface {
	// Requirements describes what this Provider needs from its
	// environment - e.g. satellite visibility, network access - used
	// to decide whether it can even be asked to run.
	Requirements() units.Criteria

	// Satisfies reports whether this Provider can meet the given
	// Criteria - e.g. can it reach the requested position accuracy.
	Satisfies(units.Criteria) bool

	// Enable and Disable bracket the provider's willingness to run;
	// Activate and Deactivate bracket it actually running and
	// delivering updates.  Whether repeated calls are idempotent or
	// reference-counted depends on the implementation;
	// StateTrackingProvider counts them and rejects an unmatched
	// Deactivate.
	Enable() error
	Disable() error
	Activate() error
	Deactivate() error

	// State reports the provider's current lifecycle state.
	State() State

	// OnEvent delivers reference-position and reporting-state changes
	// from the Engine's event bus - most providers ignore most events.
	OnEvent(event.Event)

	// Position, Heading and Velocity channels are shared by every
	// Session subscribed to this provider while it is Active; they
	// must be safe for concurrent reads by multiple goroutines
	// (fan-out happens one level up, in Session).
	Positions() <-chan units.PositionUpdate
	Headings() <-chan units.HeadingUpdate
	Velocities() <-chan units.VelocityUpdate
}
