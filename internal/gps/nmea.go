package gps

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// HeadingUnavailable is the sentinel carried in a heading event field when
// the receiver did not supply that value. It exists only on this boundary;
// the pointer core converts it to an absent value immediately.
const HeadingUnavailable = -1.0

type sentence struct {
	Type string
	// Fields is the comma-split NMEA payload (excluding $ and checksum).
	Fields []string
}

func parseSentence(line string) (sentence, error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "$") {
		return sentence{}, fmt.Errorf("nmea: missing '$'")
	}
	star := strings.LastIndexByte(line, '*')
	if star == -1 {
		return sentence{}, fmt.Errorf("nmea: missing checksum")
	}
	payload := line[1:star]
	ck := strings.TrimSpace(line[star+1:])
	if len(ck) < 2 {
		return sentence{}, fmt.Errorf("nmea: short checksum")
	}
	want, err := hex.DecodeString(ck[:2])
	if err != nil || len(want) != 1 {
		return sentence{}, fmt.Errorf("nmea: bad checksum")
	}
	got := byte(0)
	for i := 0; i < len(payload); i++ {
		got ^= payload[i]
	}
	if got != want[0] {
		return sentence{}, fmt.Errorf("nmea: checksum mismatch")
	}

	parts := strings.Split(payload, ",")
	if len(parts) == 0 || len(parts[0]) < 3 {
		return sentence{}, fmt.Errorf("nmea: short type")
	}
	// Accept any talker prefix (GP/GN/HE/...); normalize to the last 3 chars.
	t := parts[0]
	if len(t) > 3 {
		t = t[len(t)-3:]
	}
	return sentence{Type: strings.ToUpper(t), Fields: parts}, nil
}

// update is what one applied sentence contributed.
type update struct {
	// Position fix.
	HasFix    bool
	LatDeg    float64
	LonDeg    float64
	AccuracyM float64

	// Device heading event; HeadingUnavailable marks an absent field.
	HasHeading  bool
	TrueDeg     float64
	MagneticDeg float64
}

type nmeaState struct {
	latDeg float64
	lonDeg float64
	latOK  bool
	lonOK  bool

	hdop   float64
	hdopOK bool

	lastFix  time.Time
	lastTrue time.Time
}

// Horizontal accuracy estimate: HDOP times a nominal user-equivalent range
// error. Coarse, but monotone in fix quality, which is all the pointer needs.
const uereM = 5.0

func (s *nmeaState) accuracyM() float64 {
	if s.hdopOK {
		return s.hdop * uereM
	}
	return 10
}

// apply folds one sentence into the state and reports what it produced.
func (s *nmeaState) apply(nowUTC time.Time, sent sentence) (update, bool) {
	switch sent.Type {
	case "RMC":
		return s.applyRMC(nowUTC, sent.Fields)
	case "GGA":
		return s.applyGGA(nowUTC, sent.Fields)
	case "HDT":
		return s.applyHeading(nowUTC, sent.Fields, true)
	case "HDM":
		return s.applyHeading(nowUTC, sent.Fields, false)
	default:
		return update{}, false
	}
}

func (s *nmeaState) fixUpdate(nowUTC time.Time) (update, bool) {
	if !s.latOK || !s.lonOK {
		return update{}, false
	}
	s.lastFix = nowUTC
	return update{
		HasFix:    true,
		LatDeg:    s.latDeg,
		LonDeg:    s.lonDeg,
		AccuracyM: s.accuracyM(),
	}, true
}

// RMC: Recommended Minimum Specific GNSS Data
//
//	2: status (A=active, V=void)
//	3/4: latitude ddmm.mmmm, N/S
//	5/6: longitude dddmm.mmmm, E/W
func (s *nmeaState) applyRMC(nowUTC time.Time, f []string) (update, bool) {
	if len(f) < 10 {
		return update{}, false
	}
	if strings.TrimSpace(f[2]) != "A" {
		// Void fix; keep the last good state untouched.
		return update{}, false
	}
	if lat, ok := parseLatLon(f[3], f[4]); ok {
		s.latDeg = lat
		s.latOK = true
	}
	if lon, ok := parseLatLon(f[5], f[6]); ok {
		s.lonDeg = lon
		s.lonOK = true
	}
	return s.fixUpdate(nowUTC)
}

// GGA: GNSS Fix Data
//
//	2/3: latitude, 4/5: longitude, 6: fix quality (0=invalid), 8: HDOP
func (s *nmeaState) applyGGA(nowUTC time.Time, f []string) (update, bool) {
	if len(f) < 11 {
		return update{}, false
	}
	q := strings.TrimSpace(f[6])
	if q == "" || q == "0" {
		return update{}, false
	}
	if hdop, ok := parseFloat(f[8]); ok {
		s.hdop = hdop
		s.hdopOK = true
	}
	if lat, ok := parseLatLon(f[2], f[3]); ok {
		s.latDeg = lat
		s.latOK = true
	}
	if lon, ok := parseLatLon(f[4], f[5]); ok {
		s.lonDeg = lon
		s.lonOK = true
	}
	return s.fixUpdate(nowUTC)
}

// While HDT sentences are current, HDM ones are dropped: a receiver streaming
// both would otherwise report its true heading as absent on every HDM and
// degrade the consumer to magnetic. Once HDT goes quiet past the holdoff the
// magnetic sentences flow again.
const trueHoldoff = 5 * time.Second

// HDT: Heading, True.  HDM: Heading, Magnetic.  Field 1 carries the value.
// Each sentence becomes one heading event with the other field absent.
func (s *nmeaState) applyHeading(nowUTC time.Time, f []string, isTrue bool) (update, bool) {
	if len(f) < 2 {
		return update{}, false
	}
	v, ok := parseFloat(f[1])
	if !ok || v < 0 {
		return update{}, false
	}
	u := update{HasHeading: true, TrueDeg: HeadingUnavailable, MagneticDeg: HeadingUnavailable}
	if isTrue {
		s.lastTrue = nowUTC
		u.TrueDeg = v
		return u, true
	}
	if !s.lastTrue.IsZero() && nowUTC.Sub(s.lastTrue) < trueHoldoff {
		return update{}, false
	}
	u.MagneticDeg = v
	return u, true
}

func parseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// parseLatLon parses NMEA ddmm.mmmm / dddmm.mmmm plus hemisphere.
func parseLatLon(v, hemi string) (float64, bool) {
	v = strings.TrimSpace(v)
	hemi = strings.TrimSpace(strings.ToUpper(hemi))
	if v == "" || (hemi != "N" && hemi != "S" && hemi != "E" && hemi != "W") {
		return 0, false
	}

	// The last two digits of the integer part are whole minutes.
	dot := strings.IndexByte(v, '.')
	intPart := v
	if dot != -1 {
		intPart = v[:dot]
	}
	if len(intPart) < 3 {
		return 0, false
	}

	deg, err := strconv.Atoi(intPart[:len(intPart)-2])
	if err != nil {
		return 0, false
	}
	mins, err := strconv.ParseFloat(v[len(intPart)-2:], 64)
	if err != nil {
		return 0, false
	}

	dec := float64(deg) + mins/60.0
	if hemi == "S" || hemi == "W" {
		dec = -dec
	}
	return dec, true
}
