package compass

import (
	"math"

	"wayfinder-ng/internal/angles"
)

// Package compass turns raw accelerometer + magnetometer samples into a
// tilt-compensated heading.
//
// Axes are device-body: +X right, +Y up, +Z out of the viewing plane.
// Accelerometer units are g, magnetometer units are microtesla; both cancel
// out of the atan2 ratios so only the axis convention matters.
//
// Every function here is pure. No smoothing is applied: output follows the
// latest sample pair one-for-one, so it is as noisy as the sensors are.

// Sample is one instantaneous three-axis reading.
type Sample struct {
	X float64
	Y float64
	Z float64
}

// Orientation is the derived attitude for one accel/mag sample pair.
// Pitch and roll are signed degrees; heading is [0,360).
type Orientation struct {
	PitchDeg   float64
	RollDeg    float64
	HeadingDeg float64
}

// Estimate computes tilt-compensated orientation from the latest
// accelerometer and magnetometer samples.
//
// Pitch and roll come from the gravity vector (atan2(ay,az), atan2(ax,az)).
// In free fall both atan2 arguments are zero and atan2(0,0)=0, so the
// orientation degenerates to zero pitch/roll rather than erroring; that is
// the documented convention, not a defect.
//
// The magnetometer vector is rotated into the horizontal plane before the
// heading atan2, so when the device is level the result is identical to
// RawHeading for the same magnetometer sample.
func Estimate(accel, mag Sample) Orientation {
	pitch := math.Atan2(accel.Y, accel.Z)
	roll := math.Atan2(accel.X, accel.Z)

	magX := mag.X*math.Cos(pitch) + mag.Z*math.Sin(pitch)
	magY := mag.X*math.Sin(roll)*math.Sin(pitch) + mag.Y*math.Cos(roll) - mag.Z*math.Sin(roll)*math.Cos(pitch)

	return Orientation{
		PitchDeg:   angles.Degrees(pitch),
		RollDeg:    angles.Degrees(roll),
		HeadingDeg: angles.Normalize360(angles.Degrees(math.Atan2(-magX, magY))),
	}
}

// RawHeading is the uncompensated heading from the magnetometer alone,
// valid only when the device is held level. Used as the fallback heading
// path when no accelerometer data is available, and for diagnostics.
// A zero-magnitude horizontal field yields 0 (atan2(0,0) convention).
func RawHeading(mag Sample) float64 {
	return angles.Normalize360(angles.Degrees(math.Atan2(-mag.X, mag.Y)))
}
