package gps

import (
	"fmt"
	"math"
	"testing"
	"time"
)

func nmeaLine(payload string) string {
	ck := byte(0)
	for i := 0; i < len(payload); i++ {
		ck ^= payload[i]
	}
	return fmt.Sprintf("$%s*%02X", payload, ck)
}

func applyLine(t *testing.T, st *nmeaState, payload string) (update, bool) {
	t.Helper()
	return applyLineAt(t, st, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), payload)
}

func applyLineAt(t *testing.T, st *nmeaState, now time.Time, payload string) (update, bool) {
	t.Helper()
	s, err := parseSentence(nmeaLine(payload))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return st.apply(now, s)
}

func TestParseSentence_ChecksumOK(t *testing.T) {
	line := nmeaLine("GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W")
	s, err := parseSentence(line)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if s.Type != "RMC" {
		t.Fatalf("expected type RMC, got %q", s.Type)
	}
}

func TestParseSentence_ChecksumMismatch(t *testing.T) {
	good := nmeaLine("GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W")
	bad := good[:len(good)-2] + "00"
	if _, err := parseSentence(bad); err == nil {
		t.Fatalf("expected error")
	}
}

func TestRMC_ProducesFix(t *testing.T) {
	var st nmeaState
	u, ok := applyLine(t, &st, "GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W")
	if !ok || !u.HasFix {
		t.Fatalf("expected fix, got %+v ok=%v", u, ok)
	}
	if math.Abs(u.LatDeg-48.1173) > 1e-3 || math.Abs(u.LonDeg-11.5167) > 1e-3 {
		t.Fatalf("lat/lon=%v,%v", u.LatDeg, u.LonDeg)
	}
	if u.HasHeading {
		t.Fatalf("RMC must not carry a heading event")
	}
}

func TestRMC_VoidFixIgnored(t *testing.T) {
	var st nmeaState
	if _, ok := applyLine(t, &st, "GPRMC,123519,V,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W"); ok {
		t.Fatalf("void fix must not update")
	}
}

func TestGGA_HDOPDrivesAccuracy(t *testing.T) {
	var st nmeaState
	u, ok := applyLine(t, &st, "GNGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,")
	if !ok || !u.HasFix {
		t.Fatalf("expected fix, got %+v ok=%v", u, ok)
	}
	if math.Abs(u.AccuracyM-0.9*uereM) > 1e-9 {
		t.Fatalf("accuracy=%v want %v", u.AccuracyM, 0.9*uereM)
	}
}

func TestGGA_NoFixQualityIgnored(t *testing.T) {
	var st nmeaState
	if _, ok := applyLine(t, &st, "GNGGA,123519,4807.038,N,01131.000,E,0,08,0.9,545.4,M,46.9,M,,"); ok {
		t.Fatalf("quality-0 GGA must not update")
	}
}

func TestHDT_TrueHeadingEvent(t *testing.T) {
	var st nmeaState
	u, ok := applyLine(t, &st, "HEHDT,274.07,T")
	if !ok || !u.HasHeading {
		t.Fatalf("expected heading event, got %+v ok=%v", u, ok)
	}
	if u.TrueDeg != 274.07 {
		t.Fatalf("true=%v want 274.07", u.TrueDeg)
	}
	if u.MagneticDeg != HeadingUnavailable {
		t.Fatalf("magnetic=%v want sentinel", u.MagneticDeg)
	}
}

func TestHDM_MagneticHeadingEvent(t *testing.T) {
	var st nmeaState
	u, ok := applyLine(t, &st, "HCHDM,87.0,M")
	if !ok || !u.HasHeading {
		t.Fatalf("expected heading event, got %+v ok=%v", u, ok)
	}
	if u.MagneticDeg != 87.0 {
		t.Fatalf("magnetic=%v want 87", u.MagneticDeg)
	}
	if u.TrueDeg != HeadingUnavailable {
		t.Fatalf("true=%v want sentinel", u.TrueDeg)
	}
}

func TestHDM_SuppressedWhileTrueCurrent(t *testing.T) {
	var st nmeaState
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	if _, ok := applyLineAt(t, &st, now, "HEHDT,100.0,T"); !ok {
		t.Fatalf("HDT must produce an event")
	}
	// A receiver streaming both must not look like it lost true heading.
	if _, ok := applyLineAt(t, &st, now.Add(time.Second), "HCHDM,95.0,M"); ok {
		t.Fatalf("HDM must be dropped while HDT is current")
	}
	u, ok := applyLineAt(t, &st, now.Add(2*time.Second), "HEHDT,101.0,T")
	if !ok || u.TrueDeg != 101.0 {
		t.Fatalf("later HDT must still flow, got %+v ok=%v", u, ok)
	}

	// Once HDT goes quiet, magnetic sentences carry the degradation.
	u, ok = applyLineAt(t, &st, now.Add(2*time.Second+trueHoldoff), "HCHDM,95.0,M")
	if !ok || u.MagneticDeg != 95.0 {
		t.Fatalf("HDM must flow after the holdoff, got %+v ok=%v", u, ok)
	}
	if u.TrueDeg != HeadingUnavailable {
		t.Fatalf("true=%v want sentinel", u.TrueDeg)
	}
}

func TestHDT_EmptyValueIgnored(t *testing.T) {
	var st nmeaState
	if _, ok := applyLine(t, &st, "HEHDT,,T"); ok {
		t.Fatalf("empty heading must not produce an event")
	}
}
