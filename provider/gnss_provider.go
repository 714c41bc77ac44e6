package provider

import (
	"context"
	"sync"

	"github.com/ubports/location-service-sub002/event"
	"github.com/ubports/location-service-sub002/gnss/receiver"
	"github.com/ubports/location-service-sub002/units"
)

// GNSSProvider is a Provider backed by a physical receiver.Receiver.
// Enable opens the serial connection and starts decoding; Disable tears
// it down.  Activate and Deactivate are no-ops beyond bookkeeping - a
// receiver keeps producing fixes whether or not any Session is actually
// listening, since GNSS receivers generally can't be cheaply paused.
type GNSSProvider struct {
	receiver *receiver.Receiver

	mutex  sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewGNSSProvider wraps r.
func NewGNSSProvider(r *receiver.Receiver) *GNSSProvider {
	return &GNSSProvider{receiver: r}
}

// Requirements returns an empty Criteria: a GNSSProvider declares no
// requirement on any dimension.
func (g *GNSSProvider) Requirements() units.Criteria {
	return units.NewCriteria()
}

// Satisfies always reports true.  A GNSSProvider has no configured
// accuracy ceiling, so it accepts any criteria.
func (g *GNSSProvider) Satisfies(criteria units.Criteria) bool {
	return true
}

func (g *GNSSProvider) Enable() error {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	if g.cancel != nil {
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	g.cancel = cancel
	g.done = make(chan struct{})
	go func() {
		defer close(g.done)
		_ = g.receiver.Run(ctx)
	}()
	return nil
}

func (g *GNSSProvider) Disable() error {
	g.mutex.Lock()
	cancel := g.cancel
	done := g.done
	g.cancel = nil
	g.done = nil
	g.mutex.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	<-done
	return nil
}

// Activate and Deactivate are no-ops: the underlying receiver runs
// continuously once enabled.
func (g *GNSSProvider) Activate() error   { return nil }
func (g *GNSSProvider) Deactivate() error { return nil }

func (g *GNSSProvider) State() State {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	if g.cancel == nil {
		return Disabled
	}
	return Active
}

// OnEvent ignores every event: a raw GNSS receiver has no use for a
// reference position or a reporting-state change.
func (g *GNSSProvider) OnEvent(event.Event) {}

func (g *GNSSProvider) Positions() <-chan units.PositionUpdate  { return g.receiver.Updates.Position }
func (g *GNSSProvider) Headings() <-chan units.HeadingUpdate    { return g.receiver.Updates.Heading }
func (g *GNSSProvider) Velocities() <-chan units.VelocityUpdate { return g.receiver.Updates.Velocity }

var _ Provider = (*GNSSProvider)(nil)
