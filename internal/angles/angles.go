package angles

import "math"

// Package-wide convention: compass angles are degrees clockwise from north.
//
// Non-finite input (NaN, ±Inf) propagates as NaN from every function here;
// callers that need to reject it should check before converting to a display
// value. math.Mod already returns NaN for those inputs, so no special casing
// is required.

// Normalize360 wraps an angle into [0,360).
//
// Correct for any finite input, including large negative multiples of 360
// (e.g. Normalize360(-450) == 270).
func Normalize360(deg float64) float64 {
	d := math.Mod(deg, 360)
	if d < 0 {
		d += 360
	}
	// Adding 360 to a tiny negative remainder can round up to exactly 360.
	if d >= 360 {
		d = 0
	}
	return d
}

// ShortestDelta returns a-b wrapped into (-180,180]: the minimal-magnitude
// rotation that carries heading b onto bearing a.
func ShortestDelta(a, b float64) float64 {
	d := math.Mod(a-b, 360)
	if d <= -180 {
		d += 360
	} else if d > 180 {
		d -= 360
	}
	return d
}

func Radians(deg float64) float64 { return deg * math.Pi / 180 }

func Degrees(rad float64) float64 { return rad * 180 / math.Pi }
