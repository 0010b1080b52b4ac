package angles

import (
	"math"
	"testing"
)

func TestNormalize360_Range(t *testing.T) {
	// -1e-16 exercises the rounding edge where mod-then-add lands on 360.0.
	inputs := []float64{0, 359.999, 360, 361, 720.5, -1, -450, -3600.25, 123456.78, -98765.4, -1e-16, -5e-324}
	for _, in := range inputs {
		got := Normalize360(in)
		if got < 0 || got >= 360 {
			t.Fatalf("Normalize360(%v)=%v out of [0,360)", in, got)
		}
	}
}

func TestNormalize360_Known(t *testing.T) {
	if got := Normalize360(-450); math.Abs(got-270) > 1e-9 {
		t.Fatalf("Normalize360(-450)=%v want 270", got)
	}
	if got := Normalize360(720); got != 0 {
		t.Fatalf("Normalize360(720)=%v want 0", got)
	}
}

func TestNormalize360_Idempotent(t *testing.T) {
	inputs := []float64{-450, -0.5, 10, 359.5, 1000}
	for _, in := range inputs {
		once := Normalize360(in)
		twice := Normalize360(once)
		if once != twice {
			t.Fatalf("Normalize360 not idempotent for %v: %v vs %v", in, once, twice)
		}
	}
}

func TestNormalize360_NonFinite(t *testing.T) {
	for _, in := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		if got := Normalize360(in); !math.IsNaN(got) {
			t.Fatalf("Normalize360(%v)=%v want NaN", in, got)
		}
	}
}

func TestShortestDelta_NonFinite(t *testing.T) {
	if got := ShortestDelta(math.NaN(), 10); !math.IsNaN(got) {
		t.Fatalf("ShortestDelta(NaN,10)=%v want NaN", got)
	}
	if got := ShortestDelta(10, math.Inf(1)); !math.IsNaN(got) {
		t.Fatalf("ShortestDelta(10,+Inf)=%v want NaN", got)
	}
}

func TestShortestDelta_Wraparound(t *testing.T) {
	if got := ShortestDelta(350, 10); math.Abs(got-(-20)) > 1e-9 {
		t.Fatalf("ShortestDelta(350,10)=%v want -20", got)
	}
	if got := ShortestDelta(10, 350); math.Abs(got-20) > 1e-9 {
		t.Fatalf("ShortestDelta(10,350)=%v want 20", got)
	}
}

func TestShortestDelta_HalfOpenInterval(t *testing.T) {
	// Exactly opposite headings resolve to +180, never -180.
	if got := ShortestDelta(180, 0); got != 180 {
		t.Fatalf("ShortestDelta(180,0)=%v want 180", got)
	}
	if got := ShortestDelta(0, 180); got != 180 {
		t.Fatalf("ShortestDelta(0,180)=%v want 180", got)
	}
}

func TestShortestDelta_Range(t *testing.T) {
	for a := -720.0; a <= 720; a += 37.5 {
		for b := -720.0; b <= 720; b += 41.25 {
			d := ShortestDelta(a, b)
			if d <= -180 || d > 180 {
				t.Fatalf("ShortestDelta(%v,%v)=%v out of (-180,180]", a, b, d)
			}
			// The delta must actually carry b onto a (mod 360).
			if diff := Normalize360(b+d) - Normalize360(a); math.Abs(diff) > 1e-9 && math.Abs(diff-360) > 1e-9 {
				t.Fatalf("ShortestDelta(%v,%v)=%v does not map b onto a", a, b, d)
			}
		}
	}
}
