package compass

import (
	"math"
	"testing"
)

func TestEstimate_LevelMatchesRawHeading(t *testing.T) {
	// With the device level (gravity straight along +Z), tilt compensation
	// must be an exact no-op for any non-degenerate horizontal field.
	level := Sample{X: 0, Y: 0, Z: 1}
	mags := []Sample{
		{X: 0, Y: 30, Z: 0},
		{X: 30, Y: 0, Z: 5},
		{X: -12.5, Y: 22.1, Z: -40},
		{X: 7, Y: -7, Z: 0},
		{X: -1, Y: -1, Z: 100},
	}
	for _, m := range mags {
		o := Estimate(level, m)
		raw := RawHeading(m)
		if math.Abs(o.HeadingDeg-raw) > 1e-9 {
			t.Fatalf("level compensated heading %v != raw %v for mag %+v", o.HeadingDeg, raw, m)
		}
		if o.PitchDeg != 0 || o.RollDeg != 0 {
			t.Fatalf("level device produced pitch=%v roll=%v", o.PitchDeg, o.RollDeg)
		}
	}
}

func TestRawHeading_CardinalDirections(t *testing.T) {
	// Field along +Y is north.
	if got := RawHeading(Sample{Y: 40}); math.Abs(got) > 1e-9 {
		t.Fatalf("north heading=%v want 0", got)
	}
	// Field along -X is east (heading 90).
	if got := RawHeading(Sample{X: -40}); math.Abs(got-90) > 1e-9 {
		t.Fatalf("east heading=%v want 90", got)
	}
	if got := RawHeading(Sample{Y: -40}); math.Abs(got-180) > 1e-9 {
		t.Fatalf("south heading=%v want 180", got)
	}
	if got := RawHeading(Sample{X: 40}); math.Abs(got-270) > 1e-9 {
		t.Fatalf("west heading=%v want 270", got)
	}
}

func TestEstimate_FreeFallConvention(t *testing.T) {
	// All-zero gravity vector: atan2(0,0)=0, so pitch=roll=0 and the
	// compensated heading collapses to the raw heading.
	o := Estimate(Sample{}, Sample{X: 0, Y: 25, Z: 0})
	if o.PitchDeg != 0 || o.RollDeg != 0 {
		t.Fatalf("free fall pitch=%v roll=%v want 0,0", o.PitchDeg, o.RollDeg)
	}
	if math.Abs(o.HeadingDeg) > 1e-9 {
		t.Fatalf("free fall heading=%v want 0", o.HeadingDeg)
	}
}

func TestEstimate_HeadingNormalized(t *testing.T) {
	accels := []Sample{{0, 0, 1}, {0.3, -0.2, 0.9}, {-0.5, 0.5, 0.7}, {0, 1, 0}}
	mags := []Sample{{20, -30, 10}, {-45, -5, 12}, {0, -1, 0}, {3, 4, -5}}
	for _, a := range accels {
		for _, m := range mags {
			o := Estimate(a, m)
			if o.HeadingDeg < 0 || o.HeadingDeg >= 360 {
				t.Fatalf("heading %v out of [0,360) for accel=%+v mag=%+v", o.HeadingDeg, a, m)
			}
		}
	}
}

func TestEstimate_PitchRollSigns(t *testing.T) {
	// Tilt forward: gravity gains a +Y component, pitch goes positive.
	o := Estimate(Sample{X: 0, Y: 0.5, Z: 0.87}, Sample{Y: 30})
	if o.PitchDeg <= 0 {
		t.Fatalf("expected positive pitch, got %v", o.PitchDeg)
	}
	// Tilt right: gravity gains a +X component, roll goes positive.
	o = Estimate(Sample{X: 0.5, Y: 0, Z: 0.87}, Sample{Y: 30})
	if o.RollDeg <= 0 {
		t.Fatalf("expected positive roll, got %v", o.RollDeg)
	}
}
