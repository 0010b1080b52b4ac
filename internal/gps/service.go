package gps

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Config controls the GNSS reader.
//
// Device may be empty to auto-detect. Baud must be a rate supported by the
// platform implementation. This is a best-effort bring-up service; failures
// must not bring down the main process — they degrade the heading chain
// instead.
type Config struct {
	Enable bool

	Device string
	Baud   int

	// HeadingTimeout bounds the wait for the first HDT/HDM sentence before
	// the device heading source is declared failed and the session falls
	// back to the magnetometer.
	HeadingTimeout time.Duration
}

// Sink receives parsed GNSS events. Implemented by the pointer session.
type Sink interface {
	OnLocationUpdate(now time.Time, latDeg, lonDeg, accuracyM float64) error
	OnHeadingEvent(now time.Time, trueDeg, magneticDeg float64)
	PrimaryHeadingFailed(now time.Time, cause error)
}

type Snapshot struct {
	Enabled bool   `json:"enabled"`
	Device  string `json:"device,omitempty"`
	Baud    int    `json:"baud,omitempty"`

	Fixes         uint64 `json:"fixes"`
	HeadingEvents uint64 `json:"heading_events"`

	LastFixUTC string `json:"last_fix_utc,omitempty"`
	LastError  string `json:"last_error,omitempty"`
}

type Service struct {
	cfg  Config
	sink Sink

	cancel context.CancelFunc
	wg     sync.WaitGroup

	last atomic.Value // Snapshot

	mu     sync.Mutex
	closer io.Closer
}

func New(cfg Config, sink Sink) *Service {
	s := &Service{cfg: cfg, sink: sink}
	s.last.Store(Snapshot{Enabled: cfg.Enable, Device: cfg.Device, Baud: cfg.Baud})
	return s
}

func (s *Service) Start(ctx context.Context) error {
	if s == nil {
		return fmt.Errorf("gps service is nil")
	}
	if !s.cfg.Enable {
		return nil
	}
	if ctx == nil {
		return fmt.Errorf("ctx is nil")
	}
	if s.sink == nil {
		return fmt.Errorf("gps sink is nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return nil
	}

	device := strings.TrimSpace(s.cfg.Device)
	if device == "" {
		device = autoDetectDevice()
		if device == "" {
			s.setErrorLocked("gps auto-detect failed: no /dev/ttyACM* or /dev/ttyUSB* found")
			s.sink.PrimaryHeadingFailed(time.Now().UTC(), fmt.Errorf("gps auto-detect failed"))
			return fmt.Errorf("gps auto-detect failed")
		}
	}

	baud := s.cfg.Baud
	if baud == 0 {
		baud = 9600
	}

	f, err := openSerial(device, baud)
	if err != nil {
		s.setErrorLocked(fmt.Sprintf("gps open failed device=%s baud=%d: %v", device, baud, err))
		s.sink.PrimaryHeadingFailed(time.Now().UTC(), err)
		return err
	}
	s.closer = f

	childCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() { _ = f.Close() }()
		s.readLoop(childCtx, f, device, baud)
	}()

	s.last.Store(Snapshot{Enabled: true, Device: device, Baud: baud})
	return nil
}

func (s *Service) readLoop(ctx context.Context, f io.Reader, device string, baud int) {
	log.Printf("gps enabled device=%s baud=%d", device, baud)

	reader := bufio.NewScanner(f)
	// NMEA sentences are typically < 82 chars, but allow some headroom.
	reader.Buffer(make([]byte, 0, 256), 4096)

	headingDeadline := time.Time{}
	if s.cfg.HeadingTimeout > 0 {
		headingDeadline = time.Now().UTC().Add(s.cfg.HeadingTimeout)
	}
	headingSeen := false
	headingFailed := false

	var st nmeaState

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if !reader.Scan() {
			err := reader.Err()
			if err == nil {
				err = io.EOF
			}
			s.setError(fmt.Sprintf("gps read stopped: %v", err))
			if !headingSeen {
				s.sink.PrimaryHeadingFailed(time.Now().UTC(), err)
			}
			return
		}

		now := time.Now().UTC()
		if !headingSeen && !headingFailed && !headingDeadline.IsZero() && now.After(headingDeadline) {
			headingFailed = true
			s.sink.PrimaryHeadingFailed(now, fmt.Errorf("no heading sentence within %s", s.cfg.HeadingTimeout))
		}

		line := strings.TrimSpace(reader.Text())
		if line == "" {
			continue
		}
		// Some receivers include non-NMEA chatter; filter quickly.
		if !strings.HasPrefix(line, "$") {
			continue
		}

		sent, perr := parseSentence(line)
		if perr != nil {
			// Avoid spamming on noise; just keep the last error.
			s.setError(perr.Error())
			continue
		}

		u, ok := st.apply(now, sent)
		if !ok {
			continue
		}
		if u.HasFix {
			if err := s.sink.OnLocationUpdate(now, u.LatDeg, u.LonDeg, u.AccuracyM); err != nil {
				s.setError(err.Error())
				continue
			}
			s.updateSnapshot(func(snap *Snapshot) {
				snap.Fixes++
				snap.LastFixUTC = now.Format(time.RFC3339Nano)
			})
		}
		if u.HasHeading {
			headingSeen = true
			s.sink.OnHeadingEvent(now, u.TrueDeg, u.MagneticDeg)
			s.updateSnapshot(func(snap *Snapshot) { snap.HeadingEvents++ })
		}
	}
}

func (s *Service) Close() {
	if s == nil {
		return
	}
	s.mu.Lock()
	cancel := s.cancel
	closer := s.closer
	s.cancel = nil
	s.closer = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if closer != nil {
		_ = closer.Close()
	}
	s.wg.Wait()
}

func (s *Service) Snapshot() Snapshot {
	if s == nil {
		return Snapshot{}
	}
	v := s.last.Load()
	if v == nil {
		return Snapshot{}
	}
	return v.(Snapshot)
}

// updateSnapshot applies fn to the stored snapshot under the mutex so that
// counter updates and error notes never clobber each other.
func (s *Service) updateSnapshot(fn func(*Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur := s.Snapshot()
	fn(&cur)
	s.last.Store(cur)
}

func (s *Service) setError(msg string) {
	s.updateSnapshot(func(snap *Snapshot) { snap.LastError = msg })
}

func (s *Service) setErrorLocked(msg string) {
	cur := s.Snapshot()
	cur.LastError = msg
	s.last.Store(cur)
}

func autoDetectDevice() string {
	// Keep it intentionally tiny and predictable.
	candidates := []string{}
	for i := 0; i < 10; i++ {
		candidates = append(candidates, fmt.Sprintf("/dev/ttyACM%d", i))
	}
	for i := 0; i < 10; i++ {
		candidates = append(candidates, fmt.Sprintf("/dev/ttyUSB%d", i))
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
