package units

import "testing"

func TestNewHeadingRange(t *testing.T) {
	cases := []struct {
		degrees float64
		wantErr bool
	}{
		{0, false},
		{359.999, false},
		{360, true},
		{-0.1, true},
	}
	for _, c := range cases {
		_, err := NewHeading(c.degrees)
		if (err != nil) != c.wantErr {
			t.Errorf("NewHeading(%v): wantErr=%v got err=%v", c.degrees, c.wantErr, err)
		}
	}
}

func TestNewVelocityRejectsNegative(t *testing.T) {
	if _, err := NewVelocity(-0.1); err == nil {
		t.Error("want error for negative velocity")
	}
	if _, err := NewVelocity(0); err != nil {
		t.Errorf("want no error for zero velocity, got %v", err)
	}
}
