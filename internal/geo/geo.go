package geo

import (
	"fmt"
	"math"

	"wayfinder-ng/internal/angles"
)

// Earth modeled as a sphere. No ellipsoidal correction; good to ~0.5% which
// is far below consumer GNSS error for this application.
const EarthRadiusM = 6371000.0

// ErrOutOfRange reports a latitude/longitude outside valid bounds. Out-of-range
// coordinates are a caller bug and are rejected rather than wrapped, since
// silent wrapping would corrupt bearing/distance math.
var ErrOutOfRange = fmt.Errorf("geo: coordinate out of range")

// Point is a geographic position in signed degrees.
type Point struct {
	LatDeg float64
	LonDeg float64
}

func (p Point) Validate() error {
	if math.IsNaN(p.LatDeg) || math.IsNaN(p.LonDeg) {
		return fmt.Errorf("%w: lat=%v lon=%v", ErrOutOfRange, p.LatDeg, p.LonDeg)
	}
	if p.LatDeg < -90 || p.LatDeg > 90 {
		return fmt.Errorf("%w: lat=%v", ErrOutOfRange, p.LatDeg)
	}
	if p.LonDeg < -180 || p.LonDeg > 180 {
		return fmt.Errorf("%w: lon=%v", ErrOutOfRange, p.LonDeg)
	}
	return nil
}

// Result is the great-circle solution for an (origin, target) pair.
type Result struct {
	// BearingDeg is the initial (forward azimuth) bearing, [0,360).
	// Undefined at zero distance; returned as 0 by atan2(0,0) convention.
	BearingDeg float64
	// DistanceM is the great-circle distance in meters, never negative.
	DistanceM float64
}

// Solve computes haversine distance and initial bearing from origin to target.
// Both points are validated; antipodal pairs are fine (distance ≈ πR).
func Solve(origin, target Point) (Result, error) {
	if err := origin.Validate(); err != nil {
		return Result{}, fmt.Errorf("origin: %w", err)
	}
	if err := target.Validate(); err != nil {
		return Result{}, fmt.Errorf("target: %w", err)
	}

	lat1 := angles.Radians(origin.LatDeg)
	lat2 := angles.Radians(target.LatDeg)
	dLat := angles.Radians(target.LatDeg - origin.LatDeg)
	dLon := angles.Radians(target.LonDeg - origin.LonDeg)

	// Haversine.
	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	a := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLon*sinLon
	dist := 2 * EarthRadiusM * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	// Forward azimuth.
	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)
	bearing := angles.Normalize360(angles.Degrees(math.Atan2(y, x)))

	return Result{BearingDeg: bearing, DistanceM: dist}, nil
}
