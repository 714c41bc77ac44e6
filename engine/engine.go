// Package engine implements the Engine: the set of Providers known to
// the daemon, the reference position and reporting-state it publishes
// to them, and the SelectionPolicy that decides which Provider a new
// Session should be wired to for a given set of Criteria.
package engine

import (
	"sync"

	"github.com/ubports/location-service-sub002/event"
	"github.com/ubports/location-service-sub002/provider"
	"github.com/ubports/location-service-sub002/units"
)

// Configuration is the Engine's set of process-wide switches.  A change
// to DoesReportCellAndWifiIds is published to every Provider as an
// event; the other two switches are only stored and are not published.
type Configuration struct {
	DoesSatelliteBasedPositioning bool
	DoesReportCellAndWifiIds      bool
	IsOnline                      bool
}

// SelectionPolicy picks a Provider able to satisfy the given Criteria
// from the Engine's current provider set, or reports that none can.
type SelectionPolicy interface {
	Select(providers []provider.Provider, criteria units.Criteria) (provider.Provider, bool)
}

// Engine owns a set of Providers and the process-wide Configuration
// that flows out to them as events.  Engine is safe for concurrent use.
type Engine struct {
	mutex     sync.RWMutex
	providers map[provider.Provider]struct{}
	config    Configuration
	policy    SelectionPolicy
	bus       *event.Bus

	referencePosition units.PositionUpdate
	hasReference      bool
}

// New creates an Engine using policy to select among its Providers and
// bus to publish configuration-change events.
func New(policy SelectionPolicy, bus *event.Bus) *Engine {
	return &Engine{
		providers: make(map[provider.Provider]struct{}),
		policy:    policy,
		bus:       bus,
	}
}

// AddProvider registers p with the Engine.  Adding the same Provider
// twice has no additional effect.
func (e *Engine) AddProvider(p provider.Provider) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.providers[p] = struct{}{}
}

// RemoveProvider unregisters p.  Removing a Provider that was never
// added, or already removed, has no effect.
func (e *Engine) RemoveProvider(p provider.Provider) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	delete(e.providers, p)
}

// HasProvider reports whether p is currently registered.
func (e *Engine) HasProvider(p provider.Provider) bool {
	e.mutex.RLock()
	defer e.mutex.RUnlock()
	_, ok := e.providers[p]
	return ok
}

// Providers returns a snapshot of the currently registered Providers.
func (e *Engine) Providers() []provider.Provider {
	e.mutex.RLock()
	defer e.mutex.RUnlock()
	out := make([]provider.Provider, 0, len(e.providers))
	for p := range e.providers {
		out = append(out, p)
	}
	return out
}

// SelectProvider asks the Engine's SelectionPolicy to pick a Provider
// satisfying criteria from the current provider set.
func (e *Engine) SelectProvider(criteria units.Criteria) (provider.Provider, bool) {
	return e.policy.Select(e.Providers(), criteria)
}

// Configuration returns the Engine's current Configuration.
func (e *Engine) Configuration() Configuration {
	e.mutex.RLock()
	defer e.mutex.RUnlock()
	return e.config
}

// SetDoesReportCellAndWifiIds updates the wifi/cell-id reporting switch
// and publishes the change on the bus and to every Provider as an
// event, so a bus subscriber that correlates positions with wifi/cell
// ids (the harvester) can stop or resume.
func (e *Engine) SetDoesReportCellAndWifiIds(v bool) {
	e.mutex.Lock()
	e.config.DoesReportCellAndWifiIds = v
	e.mutex.Unlock()

	e.publish(event.New(event.TypeWifiAndCellIDReportingStateChanged, v))
}

// SetDoesSatelliteBasedPositioning records whether GNSS-backed
// providers should run at all.  The value is only stored in
// Configuration; no event is published and no provider is started or
// stopped.
func (e *Engine) SetDoesSatelliteBasedPositioning(v bool) {
	e.mutex.Lock()
	e.config.DoesSatelliteBasedPositioning = v
	e.mutex.Unlock()
}

// SetIsOnline records whether network-backed providers may be used.
// The value is only stored in Configuration; no event is published.
func (e *Engine) SetIsOnline(v bool) {
	e.mutex.Lock()
	e.config.IsOnline = v
	e.mutex.Unlock()
}

// SetReferencePosition updates the Engine's best-known reference
// position and publishes it to every Provider as an event - a provider
// that itself produces positions from assistance data (e.g. a GNSS chip
// seeded with an approximate fix) uses this to narrow its search.
func (e *Engine) SetReferencePosition(update units.PositionUpdate) {
	e.mutex.Lock()
	e.referencePosition = update
	e.hasReference = true
	e.mutex.Unlock()

	e.publish(event.New(event.TypeReferencePositionUpdated, update))
}

// ReferencePosition returns the Engine's last-known reference position.
func (e *Engine) ReferencePosition() (units.PositionUpdate, bool) {
	e.mutex.RLock()
	defer e.mutex.RUnlock()
	return e.referencePosition, e.hasReference
}

func (e *Engine) publish(ev event.Event) {
	if e.bus != nil {
		e.bus.Publish(ev)
	}
	for _, p := range e.Providers() {
		p.OnEvent(ev)
	}
}
