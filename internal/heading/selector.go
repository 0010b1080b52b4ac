package heading

import (
	"sync"
	"time"

	"wayfinder-ng/internal/angles"
)

// Package heading arbitrates which heading source is authoritative: the
// device-reported true heading, the device-reported magnetic heading, or a
// locally derived magnetometer heading. Degradation is one-directional for
// the life of the selector; re-promotion to a better source is an explicit
// external action (tear down and build a new selector), never automatic.

// Source tags where the current heading value came from.
type Source int

const (
	SourceNone Source = iota
	SourceTrueHeading
	SourceMagneticHeading
	SourceMagnetometerDerived
	SourceUnavailable
)

func (s Source) String() string {
	switch s {
	case SourceTrueHeading:
		return "true"
	case SourceMagneticHeading:
		return "magnetic"
	case SourceMagnetometerDerived:
		return "magnetometer"
	case SourceUnavailable:
		return "unavailable"
	default:
		return "none"
	}
}

// State is the selector's position in the degradation chain.
type State int

const (
	StateUninitialized State = iota
	StateTrueHeadingActive
	StateMagneticHeadingActive
	StateMagnetometerFallbackActive
	StateUnavailable
)

func (s State) String() string {
	switch s {
	case StateTrueHeadingActive:
		return "true_heading"
	case StateMagneticHeadingActive:
		return "magnetic_heading"
	case StateMagnetometerFallbackActive:
		return "magnetometer_fallback"
	case StateUnavailable:
		return "unavailable"
	default:
		return "uninitialized"
	}
}

// Event is one device-reported heading report with the unavailability
// sentinel already stripped: absent fields are nil, never -1.
type Event struct {
	TrueDeg     *float64
	MagneticDeg *float64
}

// ParseEvent converts a raw device report into an Event. Devices signal "no
// value" with a negative sentinel (conventionally -1) in either field; that
// convention stops here and never crosses into the rest of the core.
func ParseEvent(trueDeg, magneticDeg float64) Event {
	var ev Event
	if trueDeg >= 0 {
		v := trueDeg
		ev.TrueDeg = &v
	}
	if magneticDeg >= 0 {
		v := magneticDeg
		ev.MagneticDeg = &v
	}
	return ev
}

// Selector is the only mutable state holder in the core. It is the sole
// writer of its fields; reads are snapshot-style.
type Selector struct {
	hasMagnetometer bool

	mu         sync.Mutex
	state      State
	headingDeg float64
	haveValue  bool
	source     Source
	updatedAt  time.Time
}

// New returns a selector in the Uninitialized state. hasMagnetometer reports
// whether a local magnetometer exists to fall back on when the device heading
// source fails.
func New(hasMagnetometer bool) *Selector {
	return &Selector{hasMagnetometer: hasMagnetometer}
}

// OnEvent feeds one device-reported heading event through the state machine.
// True heading wins while the selector has not degraded past it; magnetic
// heading is adopted otherwise. An event carrying neither field is a failure
// of the device source and triggers the fallback chain.
func (s *Selector) OnEvent(now time.Time, ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state >= StateMagnetometerFallbackActive {
		// Device source already abandoned for this session.
		return
	}

	switch {
	case ev.TrueDeg != nil && s.state <= StateTrueHeadingActive:
		s.state = StateTrueHeadingActive
		s.adoptLocked(now, *ev.TrueDeg, SourceTrueHeading)
	case ev.MagneticDeg != nil:
		s.state = StateMagneticHeadingActive
		s.adoptLocked(now, *ev.MagneticDeg, SourceMagneticHeading)
	case ev.TrueDeg != nil:
		// Already degraded to magnetic; no re-promotion. Keep the last value.
	default:
		s.degradeLocked()
	}
}

// PrimaryFailed records that the device heading source failed to initialize
// (error or timeout). The selector degrades to the magnetometer fallback if
// one exists, else to Unavailable.
func (s *Selector) PrimaryFailed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state >= StateMagnetometerFallbackActive {
		return
	}
	s.degradeLocked()
}

// OnFallbackHeading feeds a locally derived (uncompensated magnetometer)
// heading. Accepted only while in the fallback state; it never competes with
// a live device source.
func (s *Selector) OnFallbackHeading(now time.Time, deg float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateMagnetometerFallbackActive {
		return
	}
	s.adoptLocked(now, deg, SourceMagnetometerDerived)
}

// FallbackFailed records that the fallback magnetometer stopped producing
// readings. Terminal: the selector moves to Unavailable.
func (s *Selector) FallbackFailed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateUnavailable
	s.source = SourceUnavailable
}

func (s *Selector) degradeLocked() {
	if s.hasMagnetometer {
		s.state = StateMagnetometerFallbackActive
		return
	}
	s.state = StateUnavailable
	s.source = SourceUnavailable
}

func (s *Selector) adoptLocked(now time.Time, deg float64, src Source) {
	s.headingDeg = angles.Normalize360(deg)
	s.haveValue = true
	s.source = src
	s.updatedAt = now
}

// Current returns the heading value, its source, and whether it is
// authoritative. The value defaults to the last known heading, or 0 if none
// was ever obtained; authoritativeness is a separate answer so callers can
// render a stale needle distinctly from a live one.
func (s *Selector) Current() (deg float64, src Source, authoritative bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	auth := s.haveValue && s.state != StateUnavailable && s.state != StateUninitialized
	return s.headingDeg, s.source, auth
}

// State returns the selector's position in the degradation chain.
func (s *Selector) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// UpdatedAt returns when the current heading value was adopted (zero if never).
func (s *Selector) UpdatedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatedAt
}
