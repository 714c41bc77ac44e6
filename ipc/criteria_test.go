package ipc

import (
	"math"
	"testing"

	"github.com/godbus/dbus/v5"

	"github.com/ubports/location-service-sub002/units"
)

func TestCriteriaFromVariantMapRequiresOnlyNamedDimensions(t *testing.T) {
	m := map[string]dbus.Variant{
		"position": dbus.MakeVariant(5.0),
		"heading":  dbus.MakeVariant(1.0),
	}
	c, err := criteriaFromVariantMap(m)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !c.Requires(units.DimensionPosition) {
		t.Errorf("want position required")
	}
	if c.AccuracyCeiling(units.DimensionPosition) != 5.0 {
		t.Errorf("want position ceiling 5.0, got %v", c.AccuracyCeiling(units.DimensionPosition))
	}
	if !c.Requires(units.DimensionHeading) {
		t.Errorf("want heading required")
	}
	if c.Requires(units.DimensionVelocity) {
		t.Errorf("want velocity not required")
	}
	if c.Requires(units.DimensionAltitude) {
		t.Errorf("want altitude not required")
	}
}

func TestCriteriaFromVariantMapEmptyRequiresNothing(t *testing.T) {
	c, err := criteriaFromVariantMap(map[string]dbus.Variant{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for d := units.Dimension(0); d <= units.DimensionHeading; d++ {
		if c.Requires(d) {
			t.Errorf("want dimension %v not required", d)
		}
		if !math.IsInf(c.AccuracyCeiling(d), 1) {
			t.Errorf("want dimension %v ceiling to be +Inf, got %v", d, c.AccuracyCeiling(d))
		}
	}
}

func TestCriteriaFromVariantMapRejectsNonFloatValue(t *testing.T) {
	m := map[string]dbus.Variant{"position": dbus.MakeVariant("not a number")}
	if _, err := criteriaFromVariantMap(m); err == nil {
		t.Errorf("want an error for a non-float criteria value")
	}
}
