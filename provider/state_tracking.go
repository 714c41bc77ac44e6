package provider

import (
	"fmt"
	"sync"

	"github.com/ubports/location-service-sub002/event"
	"github.com/ubports/location-service-sub002/units"
)

// StateTrackingProvider wraps a Provider and turns its Enable/Disable
// and Activate/Deactivate calls into reference-counted transitions: the
// wrapped Provider's Enable is only called on the 0-to-1 transition,
// its Disable only on the 1-to-0 transition, and likewise for
// Activate/Deactivate.  This lets an Engine and several Sessions share
// one Provider without each caller having to know whether anyone else
// is already using it.
//
// A Provider must be enabled before it can be activated; Deactivate
// never outlives Disable, since Disable forces activateRefs back to
// zero first.
type StateTrackingProvider struct {
	inner Provider

	mutex        sync.Mutex
	enableRefs   int
	activateRefs int
	state        State
}

// NewStateTrackingProvider wraps inner.
func NewStateTrackingProvider(inner Provider) *StateTrackingProvider {
	return &StateTrackingProvider{inner: inner}
}

// InvalidStateTransition reports an illegal lifecycle transition
// attempted on a StateTrackingProvider, naming the state it was in and
// the state the caller asked it to move to.
type InvalidStateTransition struct {
	From State
	To   State
}

func (e InvalidStateTransition) Error() string {
	return fmt.Sprintf("provider: invalid transition from %v to %v", e.From, e.To)
}

// ErrNotEnabled is returned by Activate when the provider has no active
// Enable reference.
var ErrNotEnabled error = InvalidStateTransition{From: Disabled, To: Active}

func (p *StateTrackingProvider) Enable() error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.enableRefs++
	if p.enableRefs > 1 {
		return nil
	}
	if err := p.inner.Enable(); err != nil {
		p.enableRefs--
		return err
	}
	p.state = Enabled
	return nil
}

func (p *StateTrackingProvider) Disable() error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.enableRefs == 0 {
		return nil
	}
	p.enableRefs--
	if p.enableRefs > 0 {
		return nil
	}

	// Disabling forces any outstanding activation to end too: there is
	// no such thing as an active-but-disabled provider.
	if p.activateRefs > 0 {
		p.activateRefs = 0
		_ = p.inner.Deactivate()
	}
	if err := p.inner.Disable(); err != nil {
		p.enableRefs++
		return err
	}
	p.state = Disabled
	return nil
}

func (p *StateTrackingProvider) Activate() error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.enableRefs == 0 {
		return ErrNotEnabled
	}
	p.activateRefs++
	if p.activateRefs > 1 {
		return nil
	}
	if err := p.inner.Activate(); err != nil {
		p.activateRefs--
		return err
	}
	p.state = Active
	return nil
}

func (p *StateTrackingProvider) Deactivate() error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.activateRefs == 0 {
		return InvalidStateTransition{From: p.state, To: p.state}
	}
	p.activateRefs--
	if p.activateRefs > 0 {
		return nil
	}
	if err := p.inner.Deactivate(); err != nil {
		p.activateRefs++
		return err
	}
	if p.enableRefs > 0 {
		p.state = Enabled
	} else {
		p.state = Disabled
	}
	return nil
}

func (p *StateTrackingProvider) State() State {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.state
}

func (p *StateTrackingProvider) Requirements() units.Criteria { return p.inner.Requirements() }
func (p *StateTrackingProvider) Satisfies(c units.Criteria) bool { return p.inner.Satisfies(c) }
func (p *StateTrackingProvider) OnEvent(e event.Event)           { p.inner.OnEvent(e) }

func (p *StateTrackingProvider) Positions() <-chan units.PositionUpdate { return p.inner.Positions() }
func (p *StateTrackingProvider) Headings() <-chan units.HeadingUpdate   { return p.inner.Headings() }
func (p *StateTrackingProvider) Velocities() <-chan units.VelocityUpdate {
	return p.inner.Velocities()
}

var _ Provider = (*StateTrackingProvider)(nil)
