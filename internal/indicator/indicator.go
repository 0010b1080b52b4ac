package indicator

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"
)

// Package indicator drives an arrival LED: on when the session is within the
// configured radius of the target, off otherwise. Best-effort hardware; a
// missing GPIO never brings down the main process.

type Config struct {
	Enable bool
	// GPIOPin is the BCM pin number driving the LED.
	GPIOPin int
	// ArrivalRadiusM turns the LED on within this distance of the target.
	ArrivalRadiusM float64
}

// DistanceFunc reports the current distance to the target and whether that
// distance is valid yet.
type DistanceFunc func() (meters float64, valid bool)

type driver interface {
	Set(on bool) error
	Close() error
}

type Service struct {
	cfg      Config
	distance DistanceFunc

	mu    sync.Mutex
	drv   driver
	lit   bool
	valid bool

	stopOnce sync.Once
	stopCh   chan struct{}
}

func New(cfg Config, distance DistanceFunc) *Service {
	return &Service{cfg: cfg, distance: distance, stopCh: make(chan struct{})}
}

func (s *Service) Start(ctx context.Context) error {
	if s == nil || !s.cfg.Enable {
		return nil
	}
	if s.distance == nil {
		return fmt.Errorf("indicator: distance func is nil")
	}

	drv, err := openGPIO(s.cfg.GPIOPin)
	if err != nil {
		// Degraded but alive: log and stay dark.
		log.Printf("indicator disabled: %v", err)
		return nil
	}
	s.mu.Lock()
	s.drv = drv
	s.mu.Unlock()

	go s.run(ctx)
	return nil
}

func (s *Service) run(ctx context.Context) {
	tick := time.NewTicker(500 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			s.Close()
			return
		case <-s.stopCh:
			return
		case <-tick.C:
			meters, valid := s.distance()
			want := valid && meters <= s.cfg.ArrivalRadiusM
			s.apply(want)
		}
	}
}

func (s *Service) apply(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.drv == nil || (s.valid && on == s.lit) {
		return
	}
	if err := s.drv.Set(on); err != nil {
		log.Printf("indicator gpio write failed: %v", err)
		return
	}
	s.lit = on
	s.valid = true
}

// Lit reports whether the LED is currently on.
func (s *Service) Lit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lit
}

func (s *Service) Close() {
	if s == nil {
		return
	}
	s.stopOnce.Do(func() {
		close(s.stopCh)
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.drv != nil {
			_ = s.drv.Close()
			s.drv = nil
		}
	})
}
