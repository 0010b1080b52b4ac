package heading

import (
	"testing"
	"time"
)

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestParseEvent_SentinelStripped(t *testing.T) {
	ev := ParseEvent(-1, 87)
	if ev.TrueDeg != nil {
		t.Fatalf("expected nil true heading, got %v", *ev.TrueDeg)
	}
	if ev.MagneticDeg == nil || *ev.MagneticDeg != 87 {
		t.Fatalf("expected magnetic 87, got %+v", ev.MagneticDeg)
	}

	ev = ParseEvent(123.4, -1)
	if ev.TrueDeg == nil || *ev.TrueDeg != 123.4 {
		t.Fatalf("expected true 123.4, got %+v", ev.TrueDeg)
	}
	if ev.MagneticDeg != nil {
		t.Fatalf("expected nil magnetic, got %v", *ev.MagneticDeg)
	}
}

func TestSelector_TrueHeadingAdopted(t *testing.T) {
	s := New(true)
	s.OnEvent(now, ParseEvent(42, 40))
	if st := s.State(); st != StateTrueHeadingActive {
		t.Fatalf("state=%v want true_heading", st)
	}
	deg, src, auth := s.Current()
	if deg != 42 || src != SourceTrueHeading || !auth {
		t.Fatalf("Current()=(%v,%v,%v) want (42,true,true)", deg, src, auth)
	}
}

func TestSelector_MagneticWhenTrueAbsent(t *testing.T) {
	s := New(true)
	s.OnEvent(now, ParseEvent(-1, 87))
	if st := s.State(); st != StateMagneticHeadingActive {
		t.Fatalf("state=%v want magnetic_heading", st)
	}
	deg, src, auth := s.Current()
	if deg != 87 || src != SourceMagneticHeading || !auth {
		t.Fatalf("Current()=(%v,%v,%v) want (87,magnetic,true)", deg, src, auth)
	}
}

func TestSelector_NoRepromotion(t *testing.T) {
	s := New(true)
	s.OnEvent(now, ParseEvent(-1, 87))
	// True heading comes back; the session stays on the degraded source.
	s.OnEvent(now, ParseEvent(250, 251))
	if st := s.State(); st != StateMagneticHeadingActive {
		t.Fatalf("state=%v want magnetic_heading (no re-promotion)", st)
	}
	deg, src, _ := s.Current()
	if deg != 251 || src != SourceMagneticHeading {
		t.Fatalf("Current()=(%v,%v) want (251,magnetic)", deg, src)
	}
	// True-only event while degraded: keep the last value, no promotion.
	s.OnEvent(now, ParseEvent(10, -1))
	deg, src, _ = s.Current()
	if deg != 251 || src != SourceMagneticHeading {
		t.Fatalf("after true-only event Current()=(%v,%v) want (251,magnetic)", deg, src)
	}
}

func TestSelector_EmptyEventDegradesToFallback(t *testing.T) {
	s := New(true)
	s.OnEvent(now, ParseEvent(42, 40))
	s.OnEvent(now, ParseEvent(-1, -1))
	if st := s.State(); st != StateMagnetometerFallbackActive {
		t.Fatalf("state=%v want magnetometer_fallback", st)
	}
	// Last known value survives the degradation.
	deg, _, auth := s.Current()
	if deg != 42 || !auth {
		t.Fatalf("Current()=(%v,auth=%v) want (42,true)", deg, auth)
	}
	s.OnFallbackHeading(now, 300)
	deg, src, auth := s.Current()
	if deg != 300 || src != SourceMagnetometerDerived || !auth {
		t.Fatalf("Current()=(%v,%v,%v) want (300,magnetometer,true)", deg, src, auth)
	}
}

func TestSelector_UnavailableWithoutMagnetometer(t *testing.T) {
	s := New(false)
	s.OnEvent(now, ParseEvent(-1, -1))
	if st := s.State(); st != StateUnavailable {
		t.Fatalf("state=%v want unavailable", st)
	}
	deg, src, auth := s.Current()
	if deg != 0 || src != SourceUnavailable || auth {
		t.Fatalf("Current()=(%v,%v,%v) want (0,unavailable,false)", deg, src, auth)
	}
}

func TestSelector_PrimaryFailed(t *testing.T) {
	s := New(true)
	s.PrimaryFailed()
	if st := s.State(); st != StateMagnetometerFallbackActive {
		t.Fatalf("state=%v want magnetometer_fallback", st)
	}
	// Device events after abandonment are ignored.
	s.OnEvent(now, ParseEvent(42, 40))
	if st := s.State(); st != StateMagnetometerFallbackActive {
		t.Fatalf("state=%v want magnetometer_fallback after late event", st)
	}
	_, src, auth := s.Current()
	if src != SourceNone || auth {
		t.Fatalf("unexpected adoption from late device event: src=%v auth=%v", src, auth)
	}
}

func TestSelector_FallbackFailedIsTerminal(t *testing.T) {
	s := New(true)
	s.PrimaryFailed()
	s.OnFallbackHeading(now, 120)
	s.FallbackFailed()
	if st := s.State(); st != StateUnavailable {
		t.Fatalf("state=%v want unavailable", st)
	}
	deg, src, auth := s.Current()
	if deg != 120 || src != SourceUnavailable || auth {
		t.Fatalf("Current()=(%v,%v,%v) want (120,unavailable,false)", deg, src, auth)
	}
	// Nothing revives a dead selector.
	s.OnFallbackHeading(now, 10)
	s.OnEvent(now, ParseEvent(1, 2))
	if deg, _, _ := s.Current(); deg != 120 {
		t.Fatalf("heading=%v want 120 after terminal state", deg)
	}
}

func TestSelector_ValuesNormalized(t *testing.T) {
	s := New(true)
	s.OnEvent(now, ParseEvent(725.5, -1))
	deg, _, _ := s.Current()
	if deg != 5.5 {
		t.Fatalf("heading=%v want 5.5", deg)
	}
}
