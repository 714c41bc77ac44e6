package engine

import (
	"testing"
	"time"

	"github.com/ubports/location-service-sub002/event"
	"github.com/ubports/location-service-sub002/provider"
	"github.com/ubports/location-service-sub002/units"
)

type stubProvider struct {
	satisfiesAll bool
	events       []event.Event
	positions    chan units.PositionUpdate
	headings     chan units.HeadingUpdate
	velocities   chan units.VelocityUpdate
}

func newStubProvider(satisfies bool) *stubProvider {
	return &stubProvider{
		satisfiesAll: satisfies,
		positions:    make(chan units.PositionUpdate, 1),
		headings:     make(chan units.HeadingUpdate, 1),
		velocities:   make(chan units.VelocityUpdate, 1),
	}
}

func (s *stubProvider) Requirements() units.Criteria  { return units.NewCriteria() }
func (s *stubProvider) Satisfies(units.Criteria) bool { return s.satisfiesAll }
func (s *stubProvider) Enable() error                 { return nil }
func (s *stubProvider) Disable() error                { return nil }
func (s *stubProvider) Activate() error               { return nil }
func (s *stubProvider) Deactivate() error              { return nil }
func (s *stubProvider) State() provider.State          { return provider.Active }
func (s *stubProvider) OnEvent(event.Event)            {}
func (s *stubProvider) Positions() <-chan units.PositionUpdate  { return s.positions }
func (s *stubProvider) Headings() <-chan units.HeadingUpdate    { return s.headings }
func (s *stubProvider) Velocities() <-chan units.VelocityUpdate { return s.velocities }

var _ provider.Provider = (*stubProvider)(nil)

func TestEngineAddRemoveHasProvider(t *testing.T) {
	e := New(NonSelectingPolicy{}, nil)
	p := newStubProvider(true)

	if e.HasProvider(p) {
		t.Fatal("provider should not be registered yet")
	}
	e.AddProvider(p)
	if !e.HasProvider(p) {
		t.Fatal("provider should be registered after AddProvider")
	}
	e.RemoveProvider(p)
	if e.HasProvider(p) {
		t.Fatal("provider should not be registered after RemoveProvider")
	}
}

func TestEngineSelectProviderUsesPolicy(t *testing.T) {
	e := New(NonSelectingPolicy{}, nil)
	matching := newStubProvider(true)
	nonMatching := newStubProvider(false)
	e.AddProvider(nonMatching)
	e.AddProvider(matching)

	got, ok := e.SelectProvider(units.NewCriteria())
	if !ok {
		t.Fatal("want a provider to be selected")
	}
	if got != matching {
		t.Error("want the satisfying provider to be selected")
	}
}

func TestEngineSetReferencePositionPublishesEvent(t *testing.T) {
	bus := event.NewBus(1)
	defer bus.Close()

	received := make(chan event.Event, 1)
	bus.Subscribe(event.SubscriberFunc(func(e event.Event) { received <- e }))

	e := New(NonSelectingPolicy{}, bus)
	pos, _ := units.NewPosition(1, 2)
	update := units.NewUpdate(pos, time.Now())
	e.SetReferencePosition(update)

	select {
	case got := <-received:
		if got.Type != event.TypeReferencePositionUpdated {
			t.Errorf("want TypeReferencePositionUpdated, got %v", got.Type)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for reference position event")
	}

	ref, ok := e.ReferencePosition()
	if !ok || !ref.Value.Equal(pos) {
		t.Errorf("want stored reference position %v, got %v (ok=%v)", pos, ref.Value, ok)
	}
}

func TestEngineSetDoesReportCellAndWifiIdsPublishesEvent(t *testing.T) {
	bus := event.NewBus(1)
	defer bus.Close()

	received := make(chan event.Event, 1)
	bus.Subscribe(event.SubscriberFunc(func(e event.Event) { received <- e }))

	e := New(NonSelectingPolicy{}, bus)
	e.SetDoesReportCellAndWifiIds(true)

	select {
	case got := <-received:
		if got.Type != event.TypeWifiAndCellIDReportingStateChanged {
			t.Errorf("want TypeWifiAndCellIDReportingStateChanged, got %v", got.Type)
		}
		if got.Payload != true {
			t.Errorf("want payload true, got %v", got.Payload)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for reporting-state event")
	}

	if !e.Configuration().DoesReportCellAndWifiIds {
		t.Error("want DoesReportCellAndWifiIds true after Set")
	}
}

func TestFusionPolicySelectsFusionProviderForMultipleMatches(t *testing.T) {
	e := New(FusionPolicy{}, nil)
	a := newStubProvider(true)
	b := newStubProvider(true)
	e.AddProvider(a)
	e.AddProvider(b)

	got, ok := e.SelectProvider(units.NewCriteria())
	if !ok {
		t.Fatal("want a provider to be selected")
	}
	if got == a || got == b {
		t.Error("want a fused provider wrapping both sources, not either source directly")
	}
}
