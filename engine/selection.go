package engine

import (
	"github.com/ubports/location-service-sub002/provider"
	"github.com/ubports/location-service-sub002/units"
)

// NonSelectingPolicy always returns the first Provider that satisfies
// the requested Criteria and ignores the rest - useful for tests and
// for a daemon configured with exactly one Provider, where there is
// nothing to fuse.
type NonSelectingPolicy struct{}

// Select implements SelectionPolicy.
func (NonSelectingPolicy) Select(providers []provider.Provider, criteria units.Criteria) (provider.Provider, bool) {
	for _, p := range providers {
		if p.Satisfies(criteria) {
			return p, true
		}
	}
	return nil, false
}

// FusionPolicy builds a provider.FusionProvider over every registered
// Provider that satisfies the requested Criteria, so a Session sees one
// merged stream drawing on whichever source is currently best - see
// provider.FusionProvider for the merge rule.
type FusionPolicy struct{}

// Select implements SelectionPolicy.
func (FusionPolicy) Select(providers []provider.Provider, criteria units.Criteria) (provider.Provider, bool) {
	var matching []provider.Provider
	for _, p := range providers {
		if p.Satisfies(criteria) {
			matching = append(matching, p)
		}
	}
	switch len(matching) {
	case 0:
		return nil, false
	case 1:
		return matching[0], true
	default:
		return provider.NewFusionProvider(matching...), true
	}
}

var (
	_ SelectionPolicy = NonSelectingPolicy{}
	_ SelectionPolicy = FusionPolicy{}
)
