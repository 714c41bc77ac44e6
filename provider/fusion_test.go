package provider

import (
	"testing"
	"time"

	"github.com/ubports/location-service-sub002/event"
	"github.com/ubports/location-service-sub002/units"
)

func posAt(t *testing.T, lat float64, age time.Duration, accuracyMetres float64, hasAccuracy bool) units.PositionUpdate {
	t.Helper()
	p, err := units.NewPosition(units.Latitude(lat), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hasAccuracy {
		p = p.WithAccuracy(units.NewHorizontalAccuracy(accuracyMetres))
	}
	return units.NewUpdate(p, time.Now().Add(-age))
}

func TestIsBetterPositionNothingForwardedYet(t *testing.T) {
	a := newFakeSourceProvider()
	cand := posAt(t, 1, 0, 10, true)
	if !isBetterPosition(units.PositionUpdate{}, nil, cand, a, false) {
		t.Error("anything should beat no current position")
	}
}

func TestIsBetterPositionSameSourceAcceptsRegression(t *testing.T) {
	a := newFakeSourceProvider()
	current := posAt(t, 1, 0, 5, true)
	candidate := posAt(t, 2, 0, 500, true)
	if !isBetterPosition(current, a, candidate, a, true) {
		t.Error("a same-source update should be accepted even if it regresses in accuracy")
	}
}

func TestIsBetterPositionFreshnessOverrideIsAbsolute(t *testing.T) {
	a, b := newFakeSourceProvider(), newFakeSourceProvider()
	current := posAt(t, 1, 0, 5, true)
	candidate := posAt(t, 2, -12*time.Second, 500, true)
	if !isBetterPosition(current, a, candidate, b, true) {
		t.Error("a candidate more than 11s newer should win regardless of accuracy")
	}
}

func TestIsBetterPositionOlderHasNoAccuracyAcceptsUnconditionally(t *testing.T) {
	a, b := newFakeSourceProvider(), newFakeSourceProvider()
	current := posAt(t, 1, 0, 0, false)
	candidate := posAt(t, 2, 0, 0, false)
	if !isBetterPosition(current, a, candidate, b, true) {
		t.Error("a current position with no horizontal accuracy should always be replaced")
	}
}

func TestIsBetterPositionMoreAccurateWinsEvenIfOlder(t *testing.T) {
	a, b := newFakeSourceProvider(), newFakeSourceProvider()
	current := posAt(t, 1, 1*time.Second, 50, true)
	candidate := posAt(t, 2, 2*time.Second, 5, true)
	if !isBetterPosition(current, a, candidate, b, true) {
		t.Error("a tighter accuracy should win even if slightly older")
	}
}

func TestIsBetterPositionWorseAndOlderLoses(t *testing.T) {
	a, b := newFakeSourceProvider(), newFakeSourceProvider()
	current := posAt(t, 1, 1*time.Second, 5, true)
	candidate := posAt(t, 2, 2*time.Second, 50, true)
	if isBetterPosition(current, a, candidate, b, true) {
		t.Error("an older, less accurate candidate from a different source should not win")
	}
}

func TestIsBetterPositionNewerAndNotWorseLoses(t *testing.T) {
	a, b := newFakeSourceProvider(), newFakeSourceProvider()
	current := posAt(t, 1, 2*time.Second, 10, true)
	candidate := posAt(t, 2, 1*time.Second, 10, true)
	if isBetterPosition(current, a, candidate, b, true) {
		t.Error("equal accuracy from a different source is not strictly tighter, so it should not win")
	}
}

type fakeSourceProvider struct {
	requirements units.Criteria
	satisfiesAll bool
	positions    chan units.PositionUpdate
	headings     chan units.HeadingUpdate
	velocities   chan units.VelocityUpdate
}

func newFakeSourceProvider() *fakeSourceProvider {
	return &fakeSourceProvider{
		satisfiesAll: true,
		positions:    make(chan units.PositionUpdate, 4),
		headings:     make(chan units.HeadingUpdate, 4),
		velocities:   make(chan units.VelocityUpdate, 4),
	}
}

func (f *fakeSourceProvider) Requirements() units.Criteria   { return f.requirements }
func (f *fakeSourceProvider) Satisfies(units.Criteria) bool  { return f.satisfiesAll }
func (f *fakeSourceProvider) Enable() error                  { return nil }
func (f *fakeSourceProvider) Disable() error                 { return nil }
func (f *fakeSourceProvider) Activate() error                { return nil }
func (f *fakeSourceProvider) Deactivate() error               { return nil }
func (f *fakeSourceProvider) State() State                   { return Active }
func (f *fakeSourceProvider) OnEvent(event.Event)             {}
func (f *fakeSourceProvider) Positions() <-chan units.PositionUpdate  { return f.positions }
func (f *fakeSourceProvider) Headings() <-chan units.HeadingUpdate    { return f.headings }
func (f *fakeSourceProvider) Velocities() <-chan units.VelocityUpdate { return f.velocities }

var _ Provider = (*fakeSourceProvider)(nil)

func TestFusionRequirementsIsUnionOfSources(t *testing.T) {
	a := newFakeSourceProvider()
	a.requirements = units.NewCriteria().Require(units.DimensionPosition, 50)
	b := newFakeSourceProvider()
	b.requirements = units.NewCriteria().Require(units.DimensionPosition, 10).Require(units.DimensionHeading, 5)

	fusion := NewFusionProvider(a, b)
	merged := fusion.Requirements()

	if merged.AccuracyCeiling(units.DimensionPosition) != 10 {
		t.Errorf("want tighter ceiling 10, got %v", merged.AccuracyCeiling(units.DimensionPosition))
	}
	if !merged.Requires(units.DimensionHeading) {
		t.Error("want merged requirements to include heading")
	}
}

func TestFusionSatisfiesRequiresEverySourceToSatisfy(t *testing.T) {
	a := newFakeSourceProvider()
	b := newFakeSourceProvider()
	b.satisfiesAll = false

	fusion := NewFusionProvider(a, b)
	if fusion.Satisfies(units.NewCriteria()) {
		t.Error("fusion should not satisfy criteria unless every source does")
	}
}

// TestFusionIgnoresSameSourceRegression exercises spec.md's "Fusion
// ignores same-source regression" scenario: Provider A emits acc=50 at
// t=0, Provider B emits acc=10 at t=1s, then Provider A emits acc=200 at
// t=2s. The fusion rule's clause 1 (same source always wins) means the
// forwarded position after each step is A@50, B@10, A@200 - B's tighter
// fix is never reverted by A's worse one, because A's second update is
// compared against the last update from A, not against B's.
func TestFusionIgnoresSameSourceRegression(t *testing.T) {
	a := newFakeSourceProvider()
	b := newFakeSourceProvider()
	fusion := NewFusionProvider(a, b)

	base := time.Now()
	aFirst := units.NewUpdate(mustAccuratePosition(t, 1, 50), base)
	bFirst := units.NewUpdate(mustAccuratePosition(t, 2, 10), base.Add(1*time.Second))
	aSecond := units.NewUpdate(mustAccuratePosition(t, 1, 200), base.Add(2*time.Second))

	fusion.offerPosition(aFirst, a)
	if !fusion.current.Value.Equal(aFirst.Value) {
		t.Fatalf("want A's first update forwarded, got %+v", fusion.current)
	}

	fusion.offerPosition(bFirst, b)
	if !fusion.current.Value.Equal(bFirst.Value) {
		t.Fatalf("want B's tighter update forwarded, got %+v", fusion.current)
	}

	fusion.offerPosition(aSecond, a)
	if !fusion.current.Value.Equal(aSecond.Value) {
		t.Errorf("want A's same-source update forwarded even though it regresses accuracy, got %+v", fusion.current)
	}
	if fusion.currentSource != a {
		t.Errorf("want current source to be A after A's same-source update")
	}
}

func mustAccuratePosition(t *testing.T, lat float64, accuracyMetres float64) units.Position {
	t.Helper()
	p, err := units.NewPosition(units.Latitude(lat), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return p.WithAccuracy(units.NewHorizontalAccuracy(accuracyMetres))
}
