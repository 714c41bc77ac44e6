// Package session implements Session: a client's live subscription to
// position, heading and velocity updates from a single Provider, each
// of the three streams independently start/stoppable.
package session

import (
	"sync"

	"github.com/ubports/location-service-sub002/provider"
	"github.com/ubports/location-service-sub002/units"
)

// Session forwards updates from an underlying Provider to a client for
// as long as the client has asked for them.  Position, heading and
// velocity updates are gated independently: a client can be receiving
// position updates while heading and velocity remain stopped.
//
// A Session holds one activation reference on its Provider (see
// provider.StateTrackingProvider) for as long as any of its three
// streams is enabled; stopping the last enabled stream releases it.
// Close is equivalent to stopping all three - it is the destruction
// path, and destruction is just another disabling transition.
type Session struct {
	p provider.Provider

	mutex           sync.Mutex
	positionEnabled bool
	headingEnabled  bool
	velocityEnabled bool

	positionOut chan units.PositionUpdate
	headingOut  chan units.HeadingUpdate
	velocityOut chan units.VelocityUpdate

	stop chan struct{}
	done chan struct{}
}

// New creates a Session over p.  No stream is enabled until one of
// StartPositionUpdates, StartHeadingUpdates or StartVelocityUpdates is
// called.
func New(p provider.Provider) *Session {
	const depth = 16
	s := &Session{
		p:           p,
		positionOut: make(chan units.PositionUpdate, depth),
		headingOut:  make(chan units.HeadingUpdate, depth),
		velocityOut: make(chan units.VelocityUpdate, depth),
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}
	go s.pump()
	return s
}

// pump copies updates from the Provider's shared channels into this
// Session's own channels, for as long as the corresponding stream is
// enabled.  Every Session pumps independently, so one slow client never
// blocks another's delivery from the same Provider.
func (s *Session) pump() {
	defer close(s.done)
	for {
		select {
		case <-s.stop:
			return
		case v, ok := <-s.p.Positions():
			if !ok {
				return
			}
			if s.isPositionEnabled() {
				trySend(s.positionOut, v)
			}
		case v, ok := <-s.p.Headings():
			if !ok {
				return
			}
			if s.isHeadingEnabled() {
				trySend(s.headingOut, v)
			}
		case v, ok := <-s.p.Velocities():
			if !ok {
				return
			}
			if s.isVelocityEnabled() {
				trySend(s.velocityOut, v)
			}
		}
	}
}

func trySend[T any](ch chan T, v T) {
	select {
	case ch <- v:
	default:
	}
}

func (s *Session) isPositionEnabled() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.positionEnabled
}

func (s *Session) isHeadingEnabled() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.headingEnabled
}

func (s *Session) isVelocityEnabled() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.velocityEnabled
}

// anyEnabledLocked reports whether any of the three streams is enabled.
// Callers must hold s.mutex.
func (s *Session) anyEnabledLocked() bool {
	return s.positionEnabled || s.headingEnabled || s.velocityEnabled
}

// StartPositionUpdates enables the position stream, activating the
// underlying Provider if this is the first stream enabled on this
// Session.
func (s *Session) StartPositionUpdates() error {
	return s.start(&s.positionEnabled)
}

// StopPositionUpdates disables the position stream, deactivating the
// underlying Provider if no stream remains enabled.
func (s *Session) StopPositionUpdates() error {
	return s.stopStream(&s.positionEnabled)
}

// StartHeadingUpdates enables the heading stream.
func (s *Session) StartHeadingUpdates() error {
	return s.start(&s.headingEnabled)
}

// StopHeadingUpdates disables the heading stream.
func (s *Session) StopHeadingUpdates() error {
	return s.stopStream(&s.headingEnabled)
}

// StartVelocityUpdates enables the velocity stream.
func (s *Session) StartVelocityUpdates() error {
	return s.start(&s.velocityEnabled)
}

// StopVelocityUpdates disables the velocity stream.
func (s *Session) StopVelocityUpdates() error {
	return s.stopStream(&s.velocityEnabled)
}

func (s *Session) start(flag *bool) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if *flag {
		return nil
	}
	wasIdle := !s.anyEnabledLocked()
	*flag = true
	if wasIdle {
		return s.p.Activate()
	}
	return nil
}

func (s *Session) stopStream(flag *bool) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if !*flag {
		return nil
	}
	*flag = false
	if !s.anyEnabledLocked() {
		return s.p.Deactivate()
	}
	return nil
}

// Positions returns the channel this Session's enabled position updates
// are delivered on.
func (s *Session) Positions() <-chan units.PositionUpdate { return s.positionOut }

// Headings returns the channel this Session's enabled heading updates
// are delivered on.
func (s *Session) Headings() <-chan units.HeadingUpdate { return s.headingOut }

// Velocities returns the channel this Session's enabled velocity
// updates are delivered on.
func (s *Session) Velocities() <-chan units.VelocityUpdate { return s.velocityOut }

// Close stops all three streams, releases the Session's pump goroutine
// and closes the Positions, Headings and Velocities channels.  It is the
// destruction path: from the Provider's point of view, closing a Session
// is the same disabling transition as stopping every stream
// individually.
func (s *Session) Close() error {
	_ = s.StopPositionUpdates()
	_ = s.StopHeadingUpdates()
	_ = s.StopVelocityUpdates()
	close(s.stop)
	<-s.done
	close(s.positionOut)
	close(s.headingOut)
	close(s.velocityOut)
	return nil
}
