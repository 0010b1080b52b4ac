package sim

import (
	"context"
	"log"
	"math"
	"time"

	"wayfinder-ng/internal/gps"
)

// Package sim provides a deterministic synthetic walker for bench runs
// without a GNSS receiver or IMU. It feeds the same sink interface the real
// receiver does, so the whole pointer pipeline is exercised end to end.

const metersPerDegLat = 111320.0

type Walker struct {
	CenterLatDeg float64
	CenterLonDeg float64
	RadiusM      float64
	Period       time.Duration
}

// Position returns a deterministic figure-eight (Lissajous) path around the
// configured center, plus the instantaneous track.
//
//	x = cos(2πt)        (east-west)
//	y = 0.5·sin(4πt)    (north-south, kept within the radius)
func (w Walker) Position(now time.Time) (latDeg, lonDeg, trackDeg float64) {
	period := w.Period
	if period <= 0 {
		period = 120 * time.Second
	}
	radiusM := w.RadiusM
	if radiusM <= 0 {
		radiusM = 500
	}
	radiusDeg := radiusM / metersPerDegLat

	phase := float64(now.UnixNano()%period.Nanoseconds()) / float64(period.Nanoseconds())
	a := 2 * math.Pi * phase
	x := math.Cos(a)
	y := 0.5 * math.Sin(2*a)

	latDeg = w.CenterLatDeg + radiusDeg*y
	lonDeg = w.CenterLonDeg + (radiusDeg*x)/math.Cos(w.CenterLatDeg*math.Pi/180.0)

	// Track from instantaneous velocity (atan2(east, north)).
	vx := -2 * math.Pi * math.Sin(a)
	vy := 2 * math.Pi * math.Cos(2*a)
	trackRad := math.Atan2(vx, vy)
	trackDeg = math.Mod((trackRad*180/math.Pi)+360, 360)
	return latDeg, lonDeg, trackDeg
}

type Config struct {
	Enable       bool
	CenterLatDeg float64
	CenterLonDeg float64
	RadiusM      float64
	Period       time.Duration
	RateHz       float64
}

type Service struct {
	cfg    Config
	sink   gps.Sink
	cancel context.CancelFunc
	done   chan struct{}
}

func New(cfg Config, sink gps.Sink) *Service {
	return &Service{cfg: cfg, sink: sink}
}

// Start drives the walker: each tick delivers a location update and a device
// heading event whose true heading is the walker's track (magnetic left
// absent, exercising the true-heading path of the selector).
func (s *Service) Start(ctx context.Context) error {
	if s == nil || !s.cfg.Enable {
		return nil
	}

	rate := s.cfg.RateHz
	if rate <= 0 {
		rate = 10
	}
	w := Walker{
		CenterLatDeg: s.cfg.CenterLatDeg,
		CenterLonDeg: s.cfg.CenterLonDeg,
		RadiusM:      s.cfg.RadiusM,
		Period:       s.cfg.Period,
	}

	childCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		log.Printf("sim walker enabled center=%.5f,%.5f radius_m=%.0f", s.cfg.CenterLatDeg, s.cfg.CenterLonDeg, w.RadiusM)
		tick := time.NewTicker(time.Duration(float64(time.Second) / rate))
		defer tick.Stop()
		for {
			select {
			case <-childCtx.Done():
				return
			case <-tick.C:
				now := time.Now().UTC()
				lat, lon, track := w.Position(now)
				if err := s.sink.OnLocationUpdate(now, lat, lon, 3); err != nil {
					log.Printf("sim walker: location rejected: %v", err)
					continue
				}
				s.sink.OnHeadingEvent(now, track, gps.HeadingUnavailable)
			}
		}
	}()
	return nil
}

func (s *Service) Close() {
	if s == nil || s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
}
