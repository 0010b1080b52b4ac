package imu

import (
	"context"
	"fmt"
	"sync"
	"time"

	"wayfinder-ng/internal/compass"
	"wayfinder-ng/internal/i2c"
	"wayfinder-ng/internal/sensors/lsm303"
)

// Package imu samples the accelerometer/magnetometer combo at a fixed rate
// and feeds the pointer session. While the session is on the device heading
// source the primary rate applies; once it degrades to the magnetometer
// fallback the loop drops to the (lower) fallback rate to save power.

type Config struct {
	Enable    bool
	I2CBus    int
	AccelAddr uint16
	MagAddr   uint16

	PrimaryRateHz  float64
	FallbackRateHz float64
}

// Sink receives sensor samples. Implemented by the pointer session.
type Sink interface {
	OnAccelerometerSample(now time.Time, sample compass.Sample)
	OnMagnetometerSample(now time.Time, sample compass.Sample)
	FallbackHeadingFailed(now time.Time, cause error)
	// FallbackActive reports whether the session has degraded to the
	// magnetometer-only heading source.
	FallbackActive() bool
}

type Snapshot struct {
	Enabled  bool `json:"enabled"`
	Detected bool `json:"detected"`

	RateHz  float64 `json:"rate_hz,omitempty"`
	Samples uint64  `json:"samples"`

	LastSampleUTC string `json:"last_sample_utc,omitempty"`
	LastError     string `json:"last_error,omitempty"`
}

type device interface {
	ReadAccel() (lsm303.AccelSample, error)
	ReadMag() (lsm303.MagSample, error)
}

type Service struct {
	cfg  Config
	sink Sink

	mu   sync.RWMutex
	snap Snapshot

	bus *i2c.Bus
	dev device

	// Touched only by the run goroutine.
	runFailures        int
	runFailureReported bool

	stopOnce sync.Once
	stopCh   chan struct{}
}

func New(cfg Config, sink Sink) *Service {
	if cfg.I2CBus == 0 {
		cfg.I2CBus = 1
	}
	if cfg.AccelAddr == 0 {
		cfg.AccelAddr = lsm303.DefaultAccelAddress()
	}
	if cfg.MagAddr == 0 {
		cfg.MagAddr = lsm303.DefaultMagAddress()
	}
	if cfg.PrimaryRateHz <= 0 {
		cfg.PrimaryRateHz = 10
	}
	if cfg.FallbackRateHz <= 0 {
		cfg.FallbackRateHz = cfg.PrimaryRateHz / 2
	}
	return &Service{
		cfg:    cfg,
		sink:   sink,
		snap:   Snapshot{Enabled: cfg.Enable},
		stopCh: make(chan struct{}),
	}
}

func (s *Service) Close() {
	if s == nil {
		return
	}
	s.stopOnce.Do(func() {
		close(s.stopCh)
		if s.bus != nil {
			_ = s.bus.Close()
			s.bus = nil
		}
	})
}

func (s *Service) Snapshot() Snapshot {
	if s == nil {
		return Snapshot{}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

func (s *Service) Start(ctx context.Context) error {
	if s == nil {
		return fmt.Errorf("imu: service is nil")
	}
	if !s.cfg.Enable {
		return nil
	}
	if s.sink == nil {
		return fmt.Errorf("imu: sink is nil")
	}

	busPath := fmt.Sprintf("/dev/i2c-%d", s.cfg.I2CBus)
	bus, err := i2c.Open(busPath)
	if err != nil {
		s.setErr(fmt.Sprintf("open %s: %v", busPath, err))
		return err
	}
	s.bus = bus

	dev, err := lsm303.New(bus.Dev(s.cfg.AccelAddr), bus.Dev(s.cfg.MagAddr))
	if err != nil {
		s.setErr(fmt.Sprintf("lsm303 init: %v", err))
		_ = bus.Close()
		s.bus = nil
		return err
	}
	s.dev = dev

	s.mu.Lock()
	s.snap.Detected = true
	s.snap.RateHz = s.cfg.PrimaryRateHz
	s.mu.Unlock()

	go s.run(ctx)
	return nil
}

func rateToInterval(hz float64) time.Duration {
	return time.Duration(float64(time.Second) / hz)
}

func (s *Service) run(ctx context.Context) {
	curRate := s.cfg.PrimaryRateHz
	tick := time.NewTicker(rateToInterval(curRate))
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			s.Close()
			return
		case <-s.stopCh:
			return
		case <-tick.C:
			// The fallback rate policy lives here, not in the selector:
			// the selector only states which source is active.
			want := s.cfg.PrimaryRateHz
			if s.sink.FallbackActive() {
				want = s.cfg.FallbackRateHz
			}
			if want != curRate {
				curRate = want
				tick.Reset(rateToInterval(curRate))
				s.mu.Lock()
				s.snap.RateHz = curRate
				s.mu.Unlock()
			}

			s.sampleOnce(time.Now().UTC())
		}
	}
}

func (s *Service) sampleOnce(now time.Time) {
	accel, accErr := s.dev.ReadAccel()
	mag, magErr := s.dev.ReadMag()

	if accErr == nil {
		s.sink.OnAccelerometerSample(now, compass.Sample{X: accel.Ax, Y: accel.Ay, Z: accel.Az})
	}
	if magErr == nil {
		s.sink.OnMagnetometerSample(now, compass.Sample{X: mag.Mx, Y: mag.My, Z: mag.Mz})
	}

	if accErr != nil || magErr != nil {
		s.runFailures++
		err := accErr
		if err == nil {
			err = magErr
		}
		s.setErr(err.Error())
		// A dead magnetometer kills the last heading source; report it once
		// so the session can finish degrading.
		if s.runFailures >= 10 && !s.runFailureReported {
			s.runFailureReported = true
			s.sink.FallbackHeadingFailed(now, err)
		}
		return
	}
	s.runFailures = 0

	s.mu.Lock()
	s.snap.Samples++
	s.snap.LastSampleUTC = now.Format(time.RFC3339Nano)
	s.snap.LastError = ""
	s.mu.Unlock()
}

func (s *Service) setErr(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.LastError = msg
}
