package units

import (
	"math"
	"testing"
)

func TestCriteriaSatisfies(t *testing.T) {
	loose := NewCriteria().Require(DimensionPosition, 50)
	tight := NewCriteria().Require(DimensionPosition, 10)

	if !tight.Satisfies(loose) {
		t.Error("a 10m requirement should satisfy a 50m requirement")
	}
	if loose.Satisfies(tight) {
		t.Error("a 50m requirement should not satisfy a 10m requirement")
	}
}

func TestCriteriaSatisfiesMissingDimension(t *testing.T) {
	c := NewCriteria().Require(DimensionPosition, 50)
	need := NewCriteria().Require(DimensionPosition, 50).Require(DimensionVelocity, 1)
	if c.Satisfies(need) {
		t.Error("criteria lacking velocity should not satisfy a velocity requirement")
	}
}

func TestCriteriaMergeUnionAndMin(t *testing.T) {
	a := NewCriteria().Require(DimensionPosition, 50)
	b := NewCriteria().Require(DimensionPosition, 10).Require(DimensionHeading, 5)

	merged := a.Merge(b)

	if !merged.Requires(DimensionPosition) || !merged.Requires(DimensionHeading) {
		t.Error("merge should union required dimensions")
	}
	if merged.AccuracyCeiling(DimensionPosition) != 10 {
		t.Errorf("want tighter ceiling 10, got %v", merged.AccuracyCeiling(DimensionPosition))
	}
	if merged.AccuracyCeiling(DimensionHeading) != 5 {
		t.Errorf("want 5, got %v", merged.AccuracyCeiling(DimensionHeading))
	}
}

func TestNewCriteriaDefaultsToInfiniteCeiling(t *testing.T) {
	c := NewCriteria()
	if c.AccuracyCeiling(DimensionPosition) != math.Inf(1) {
		t.Error("unset dimension should default to infinite ceiling")
	}
}
