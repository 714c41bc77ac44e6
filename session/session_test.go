package session

import (
	"testing"
	"time"

	"github.com/ubports/location-service-sub002/event"
	"github.com/ubports/location-service-sub002/provider"
	"github.com/ubports/location-service-sub002/units"
)

type fakeProvider struct {
	activateCalls, deactivateCalls int
	positions                      chan units.PositionUpdate
	headings                       chan units.HeadingUpdate
	velocities                     chan units.VelocityUpdate
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		positions:  make(chan units.PositionUpdate, 4),
		headings:   make(chan units.HeadingUpdate, 4),
		velocities: make(chan units.VelocityUpdate, 4),
	}
}

func (f *fakeProvider) Requirements() units.Criteria  { return units.NewCriteria() }
func (f *fakeProvider) Satisfies(units.Criteria) bool { return true }
func (f *fakeProvider) Enable() error                 { return nil }
func (f *fakeProvider) Disable() error                { return nil }
func (f *fakeProvider) Activate() error               { f.activateCalls++; return nil }
func (f *fakeProvider) Deactivate() error             { f.deactivateCalls++; return nil }
func (f *fakeProvider) State() provider.State         { return provider.Active }
func (f *fakeProvider) OnEvent(event.Event)           {}
func (f *fakeProvider) Positions() <-chan units.PositionUpdate  { return f.positions }
func (f *fakeProvider) Headings() <-chan units.HeadingUpdate    { return f.headings }
func (f *fakeProvider) Velocities() <-chan units.VelocityUpdate { return f.velocities }

var _ provider.Provider = (*fakeProvider)(nil)

func TestSessionOnlyForwardsEnabledStreams(t *testing.T) {
	p := newFakeProvider()
	s := New(p)
	defer s.Close()

	if err := s.StartPositionUpdates(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.activateCalls != 1 {
		t.Errorf("want 1 Activate call, got %d", p.activateCalls)
	}

	pos, _ := units.NewPosition(1, 2)
	p.positions <- units.NewUpdate(pos, time.Now())
	p.headings <- units.NewUpdate(units.Heading(10), time.Now())

	select {
	case <-s.Positions():
	case <-time.After(2 * time.Second):
		t.Fatal("expected a position update")
	}

	select {
	case <-s.Headings():
		t.Fatal("heading stream should not be enabled yet")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSessionDeactivatesOnlyWhenLastStreamStops(t *testing.T) {
	p := newFakeProvider()
	s := New(p)
	defer s.Close()

	_ = s.StartPositionUpdates()
	_ = s.StartHeadingUpdates()

	_ = s.StopPositionUpdates()
	if p.deactivateCalls != 0 {
		t.Error("should not deactivate while heading stream is still enabled")
	}

	_ = s.StopHeadingUpdates()
	if p.deactivateCalls != 1 {
		t.Errorf("want 1 Deactivate call once the last stream stops, got %d", p.deactivateCalls)
	}
}

func TestSessionStartIsIdempotent(t *testing.T) {
	p := newFakeProvider()
	s := New(p)
	defer s.Close()

	_ = s.StartPositionUpdates()
	_ = s.StartPositionUpdates()
	if p.activateCalls != 1 {
		t.Errorf("want exactly 1 Activate call, got %d", p.activateCalls)
	}
}

func TestSessionCloseStopsAllStreamsAndDeactivates(t *testing.T) {
	p := newFakeProvider()
	s := New(p)

	_ = s.StartPositionUpdates()
	_ = s.StartVelocityUpdates()

	if err := s.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.deactivateCalls != 1 {
		t.Errorf("want 1 Deactivate call from Close, got %d", p.deactivateCalls)
	}
}
