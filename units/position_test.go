package units

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNewPositionRejectsOutOfRangeLatitude(t *testing.T) {
	if _, err := NewPosition(90.1, 0); err == nil {
		t.Error("want error for latitude > 90")
	}
	if _, err := NewPosition(-90.1, 0); err == nil {
		t.Error("want error for latitude < -90")
	}
}

func TestNewPositionRejectsOutOfRangeLongitude(t *testing.T) {
	if _, err := NewPosition(0, 180.1); err == nil {
		t.Error("want error for longitude > 180")
	}
	if _, err := NewPosition(0, -180.1); err == nil {
		t.Error("want error for longitude < -180")
	}
}

func TestNewPositionAcceptsBoundaryValues(t *testing.T) {
	if _, err := NewPosition(90, 180); err != nil {
		t.Errorf("want no error, got %v", err)
	}
	if _, err := NewPosition(-90, -180); err != nil {
		t.Errorf("want no error, got %v", err)
	}
}

func TestPositionEqualComparesAccuracy(t *testing.T) {
	p1, _ := NewPosition(1, 2)
	p2, _ := NewPosition(1, 2)
	if !p1.Equal(p2) {
		t.Error("identical positions without accuracy should be equal")
	}

	p1 = p1.WithAccuracy(NewHorizontalAccuracy(10))
	if p1.Equal(p2) {
		t.Error("positions differing only by accuracy should not be equal")
	}

	p2 = p2.WithAccuracy(NewHorizontalAccuracy(10))
	if !p1.Equal(p2) {
		t.Error("positions with equal accuracy should be equal")
	}
}

func TestPositionWithAltitudeAndAccuracyMatchesExpected(t *testing.T) {
	want, _ := NewPositionWithAltitude(51.5, -0.1, 35)
	want = want.WithAccuracy(NewAccuracy(5, 8))

	got, _ := NewPosition(51.5, -0.1)
	got = got.WithAltitude(35).WithAccuracy(NewAccuracy(5, 8))

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("position mismatch (-want +got):\n%s", diff)
	}
}

func TestPositionAltitudeUnconstrained(t *testing.T) {
	p, err := NewPositionWithAltitude(0, 0, -500)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !p.HasAltitude() || p.Altitude() != -500 {
		t.Error("negative altitude should be accepted")
	}
}
