package pointer

import (
	"fmt"
	"sync"
	"time"

	"wayfinder-ng/internal/angles"
	"wayfinder-ng/internal/compass"
	"wayfinder-ng/internal/geo"
	"wayfinder-ng/internal/heading"
)

// Package pointer is the session core: it owns the fixed target, the latest
// sensor samples and position, and the heading source selector, and derives
// the needle state (bearing, distance, rotation delta) from them.
//
// All update entry points are synchronous and cheap; callers are the sensor
// and location collaborators. The service is the sole writer of its state.

type Config struct {
	Target geo.Point

	// HasMagnetometer reports whether a local magnetometer exists for the
	// heading fallback chain.
	HasMagnetometer bool
}

// Snapshot is the presentation-layer view of the session.
//
// RotationDeltaDeg is in (-180,180] and only meaningful when NavValid; no
// partial navigation output is ever published before the first valid fix.
type Snapshot struct {
	TargetLatDeg float64 `json:"target_lat_deg"`
	TargetLonDeg float64 `json:"target_lon_deg"`

	HeadingDeg           float64 `json:"heading_deg"`
	HeadingSource        string  `json:"heading_source"`
	HeadingAuthoritative bool    `json:"heading_authoritative"`
	HeadingState         string  `json:"heading_state"`

	PitchDeg      float64 `json:"pitch_deg"`
	RollDeg       float64 `json:"roll_deg"`
	AttitudeValid bool    `json:"attitude_valid"`

	// The validity flags gate interpretation of the numeric fields; zero is a
	// legitimate value for every one of them (equator, prime meridian, due
	// north), so none are omitted when empty.
	PositionValid bool    `json:"position_valid"`
	LatDeg        float64 `json:"lat_deg"`
	LonDeg        float64 `json:"lon_deg"`
	AccuracyM     float64 `json:"accuracy_m"`

	NavValid         bool    `json:"nav_valid"`
	BearingDeg       float64 `json:"bearing_deg"`
	DistanceM        float64 `json:"distance_m"`
	RotationDeltaDeg float64 `json:"rotation_delta_deg"`

	SourceTransitions uint64 `json:"source_transitions"`

	LastUpdateUTC string `json:"last_update_utc,omitempty"`
	LastError     string `json:"last_error,omitempty"`
}

type Service struct {
	cfg Config
	sel *heading.Selector

	mu          sync.Mutex
	accel       compass.Sample
	haveAccel   bool
	mag         compass.Sample
	haveMag     bool
	orientation compass.Orientation

	position  geo.Point
	accuracyM float64
	havePos   bool
	nav       geo.Result
	navValid  bool

	lastState   heading.State
	transitions uint64

	updatedAt time.Time
	lastErr   string
}

// New validates the target and returns a fresh session. An out-of-range
// target is a configuration bug and fails loudly here, before any sensor
// callback can run.
func New(cfg Config) (*Service, error) {
	if err := cfg.Target.Validate(); err != nil {
		return nil, fmt.Errorf("pointer: target: %w", err)
	}
	return &Service{
		cfg: cfg,
		sel: heading.New(cfg.HasMagnetometer),
	}, nil
}

// OnAccelerometerSample records the latest accelerometer reading. The next
// orientation estimate pairs it with whatever magnetometer sample is current,
// stale or not; atomic joint delivery is not required.
func (s *Service) OnAccelerometerSample(now time.Time, sample compass.Sample) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accel = sample
	s.haveAccel = true
	s.recomputeOrientationLocked(now)
}

// OnMagnetometerSample records the latest magnetometer reading. While the
// selector is in the fallback state this also feeds the uncompensated heading
// path, which is the magnetometer-only source.
func (s *Service) OnMagnetometerSample(now time.Time, sample compass.Sample) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mag = sample
	s.haveMag = true
	s.recomputeOrientationLocked(now)
	if s.sel.State() == heading.StateMagnetometerFallbackActive {
		s.sel.OnFallbackHeading(now, compass.RawHeading(sample))
	}
	s.noteTransitionLocked(now)
}

// OnHeadingEvent feeds one device-reported heading report. The -1 sentinel
// convention for absent fields is handled at this boundary.
func (s *Service) OnHeadingEvent(now time.Time, trueDeg, magneticDeg float64) {
	s.sel.OnEvent(now, heading.ParseEvent(trueDeg, magneticDeg))
	s.mu.Lock()
	defer s.mu.Unlock()
	s.noteTransitionLocked(now)
}

// PrimaryHeadingFailed records that the device heading source never came up.
func (s *Service) PrimaryHeadingFailed(now time.Time, cause error) {
	s.sel.PrimaryFailed()
	s.mu.Lock()
	defer s.mu.Unlock()
	if cause != nil {
		s.lastErr = fmt.Sprintf("heading source: %v", cause)
	}
	s.noteTransitionLocked(now)
}

// FallbackHeadingFailed records that the fallback magnetometer died too.
func (s *Service) FallbackHeadingFailed(now time.Time, cause error) {
	s.sel.FallbackFailed()
	s.mu.Lock()
	defer s.mu.Unlock()
	if cause != nil {
		s.lastErr = fmt.Sprintf("fallback heading: %v", cause)
	}
	s.noteTransitionLocked(now)
}

// OnLocationUpdate records a new fix and recomputes bearing/distance to the
// target. Out-of-range coordinates are rejected, never wrapped.
func (s *Service) OnLocationUpdate(now time.Time, latDeg, lonDeg, accuracyM float64) error {
	pos := geo.Point{LatDeg: latDeg, LonDeg: lonDeg}
	nav, err := geo.Solve(pos, s.cfg.Target)
	if err != nil {
		s.mu.Lock()
		s.lastErr = err.Error()
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.position = pos
	s.accuracyM = accuracyM
	s.havePos = true
	s.nav = nav
	s.navValid = true
	s.updatedAt = now
	return nil
}

func (s *Service) recomputeOrientationLocked(now time.Time) {
	if s.haveAccel && s.haveMag {
		s.orientation = compass.Estimate(s.accel, s.mag)
	}
	s.updatedAt = now
}

func (s *Service) noteTransitionLocked(now time.Time) {
	st := s.sel.State()
	if st != s.lastState {
		s.lastState = st
		s.transitions++
		s.updatedAt = now
	}
}

// FallbackActive reports whether the session has degraded to the
// magnetometer-only heading source. The sensor collaborator uses this to
// drop to the reduced fallback sampling rate.
func (s *Service) FallbackActive() bool {
	return s.sel.State() == heading.StateMagnetometerFallbackActive
}

// Heading returns the currently selected heading, its source, and whether it
// is authoritative.
func (s *Service) Heading() (deg float64, src heading.Source, authoritative bool) {
	return s.sel.Current()
}

// Snapshot derives the full presentation view. The rotation delta is
// ShortestDelta(bearing, heading): the minimal rotation carrying the selected
// heading onto the target bearing.
func (s *Service) Snapshot() Snapshot {
	deg, src, auth := s.sel.Current()
	st := s.sel.State()

	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		TargetLatDeg:         s.cfg.Target.LatDeg,
		TargetLonDeg:         s.cfg.Target.LonDeg,
		HeadingDeg:           deg,
		HeadingSource:        src.String(),
		HeadingAuthoritative: auth,
		HeadingState:         st.String(),
		PitchDeg:             s.orientation.PitchDeg,
		RollDeg:              s.orientation.RollDeg,
		AttitudeValid:        s.haveAccel && s.haveMag,
		PositionValid:        s.havePos,
		SourceTransitions:    s.transitions,
		LastError:            s.lastErr,
	}
	if s.havePos {
		snap.LatDeg = s.position.LatDeg
		snap.LonDeg = s.position.LonDeg
		snap.AccuracyM = s.accuracyM
	}
	if s.navValid {
		snap.NavValid = true
		snap.BearingDeg = s.nav.BearingDeg
		snap.DistanceM = s.nav.DistanceM
		snap.RotationDeltaDeg = angles.ShortestDelta(s.nav.BearingDeg, deg)
	}
	if !s.updatedAt.IsZero() {
		snap.LastUpdateUTC = s.updatedAt.UTC().Format(time.RFC3339Nano)
	}
	return snap
}
