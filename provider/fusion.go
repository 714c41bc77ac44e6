package provider

import (
	"time"

	"github.com/ubports/location-service-sub002/event"
	"github.com/ubports/location-service-sub002/units"
)

// freshnessCutoff is the absolute freshness override: a candidate more
// than this much newer than the currently forwarded update wins
// outright, regardless of accuracy.
const freshnessCutoff = 11 * time.Second

// FusionProvider merges the position streams of several underlying
// Providers into one, applying a newer-or-more-accurate rule to decide,
// each time any source produces a new position, whether to forward it
// or keep showing the last-forwarded one.  Heading and velocity are
// passed straight through from whichever source produces them - there
// is no equivalent notion of "more accurate" for those without also
// tracking a position fix, so the last one seen from any source wins.
type FusionProvider struct {
	sources []Provider

	positions  chan units.PositionUpdate
	headings   chan units.HeadingUpdate
	velocities chan units.VelocityUpdate

	stop chan struct{}

	current       units.PositionUpdate
	currentSource Provider
	hasCurrent    bool
}

// NewFusionProvider creates a FusionProvider over sources.  It does not
// start merging until Activate is called.
func NewFusionProvider(sources ...Provider) *FusionProvider {
	const depth = 16
	return &FusionProvider{
		sources:    sources,
		positions:  make(chan units.PositionUpdate, depth),
		headings:   make(chan units.HeadingUpdate, depth),
		velocities: make(chan units.VelocityUpdate, depth),
	}
}

// Requirements is the union of every source's Requirements: fusion
// needs whatever any of its sources needs, since any of them might be
// the one actually selected at a given moment.
func (f *FusionProvider) Requirements() units.Criteria {
	result := units.NewCriteria()
	for _, s := range f.sources {
		result = result.Merge(s.Requirements())
	}
	return result
}

// Satisfies reports whether every source can satisfy criteria, so that
// whichever source fusion ends up forwarding from, the guarantee still
// holds.
func (f *FusionProvider) Satisfies(criteria units.Criteria) bool {
	for _, s := range f.sources {
		if !s.Satisfies(criteria) {
			return false
		}
	}
	return true
}

func (f *FusionProvider) Enable() error {
	for _, s := range f.sources {
		if err := s.Enable(); err != nil {
			return err
		}
	}
	return nil
}

func (f *FusionProvider) Disable() error {
	var firstErr error
	for _, s := range f.sources {
		if err := s.Disable(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (f *FusionProvider) Activate() error {
	for _, s := range f.sources {
		if err := s.Activate(); err != nil {
			return err
		}
	}
	f.stop = make(chan struct{})
	go f.run(f.stop)
	return nil
}

func (f *FusionProvider) Deactivate() error {
	if f.stop != nil {
		close(f.stop)
		f.stop = nil
	}
	var firstErr error
	for _, s := range f.sources {
		if err := s.Deactivate(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (f *FusionProvider) State() State {
	if len(f.sources) == 0 {
		return Disabled
	}
	return f.sources[0].State()
}

func (f *FusionProvider) OnEvent(e event.Event) {
	for _, s := range f.sources {
		s.OnEvent(e)
	}
}

func (f *FusionProvider) Positions() <-chan units.PositionUpdate  { return f.positions }
func (f *FusionProvider) Headings() <-chan units.HeadingUpdate    { return f.headings }
func (f *FusionProvider) Velocities() <-chan units.VelocityUpdate { return f.velocities }

func (f *FusionProvider) run(stop chan struct{}) {
	cases := make([]selectCase, 0, len(f.sources)*3)
	for _, s := range f.sources {
		cases = append(cases,
			selectCase{kind: kindPosition, source: s, positions: s.Positions()},
			selectCase{kind: kindHeading, source: s, headings: s.Headings()},
			selectCase{kind: kindVelocity, source: s, velocities: s.Velocities()},
		)
	}

	for {
		select {
		case <-stop:
			return
		default:
		}
		f.pollOnce(stop, cases)
	}
}

type caseKind int

const (
	kindPosition caseKind = iota
	kindHeading
	kindVelocity
)

type selectCase struct {
	kind       caseKind
	source     Provider
	positions  <-chan units.PositionUpdate
	headings   <-chan units.HeadingUpdate
	velocities <-chan units.VelocityUpdate
}

// pollOnce drains exactly one update from whichever source channel is
// ready, applying the fusion rule for positions and simple pass-through
// for heading/velocity.  It is a method, rather than inlined into run,
// purely so tests can drive one step at a time.
func (f *FusionProvider) pollOnce(stop chan struct{}, cases []selectCase) {
	for _, c := range cases {
		switch c.kind {
		case kindPosition:
			select {
			case update := <-c.positions:
				f.offerPosition(update, c.source)
				return
			default:
			}
		case kindHeading:
			select {
			case update := <-c.headings:
				trySendHeading(f.headings, update)
				return
			default:
			}
		case kindVelocity:
			select {
			case update := <-c.velocities:
				trySendVelocity(f.velocities, update)
				return
			default:
			}
		}
	}
	// Nothing was ready; avoid busy-spinning.
	select {
	case <-stop:
	case <-time.After(10 * time.Millisecond):
	}
}

func (f *FusionProvider) offerPosition(candidate units.PositionUpdate, source Provider) {
	if isBetterPosition(f.current, f.currentSource, candidate, source, f.hasCurrent) {
		f.current = candidate
		f.currentSource = source
		f.hasCurrent = true
		trySendPosition(f.positions, candidate)
	}
}

func trySendPosition(ch chan units.PositionUpdate, v units.PositionUpdate) {
	select {
	case ch <- v:
	default:
	}
}

func trySendHeading(ch chan units.HeadingUpdate, v units.HeadingUpdate) {
	select {
	case ch <- v:
	default:
	}
}

func trySendVelocity(ch chan units.VelocityUpdate, v units.VelocityUpdate) {
	select {
	case ch <- v:
	default:
	}
}

// isBetterPosition implements the newer-or-more-accurate selection
// rule: a five-clause predicate deciding whether candidate, from
// candidateSource, should replace current, last forwarded from
// currentSource, as fusion's forwarded position. Pick candidate iff any
// of:
//
//  1. candidateSource == currentSource: same-source updates are always
//     accepted, even if they regress in accuracy.
//  2. candidate.Timestamp is more than freshnessCutoff ahead of
//     current.Timestamp: an absolute freshness override.
//  3. current has no horizontal accuracy (clause 4, "candidate has
//     accuracy and current does not," is strictly narrower than this
//     and so never adds an outcome of its own).
//  5. both have horizontal accuracy and candidate's is tighter.
//
// On the first ever update (hasCurrent false) candidate is accepted
// unconditionally.
func isBetterPosition(current units.PositionUpdate, currentSource Provider, candidate units.PositionUpdate, candidateSource Provider, hasCurrent bool) bool {
	if !hasCurrent {
		return true
	}

	if candidateSource == currentSource {
		return true
	}

	if candidate.Timestamp.Sub(current.Timestamp) > freshnessCutoff {
		return true
	}

	currentAcc, currentHasAcc := horizontalAccuracy(current)
	candidateAcc, candidateHasAcc := horizontalAccuracy(candidate)

	if !currentHasAcc {
		return true
	}

	return candidateHasAcc && candidateAcc < currentAcc
}

func horizontalAccuracy(u units.PositionUpdate) (float64, bool) {
	if !u.Value.HasAccuracy() || !u.Value.Accuracy().HasHorizontal() {
		return 0, false
	}
	return u.Value.Accuracy().Horizontal(), true
}

var _ Provider = (*FusionProvider)(nil)
