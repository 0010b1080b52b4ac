package udp

import (
	"context"
	"fmt"
	"net"
	"time"
)

// Feeder pushes pointer snapshots to a display over UDP at a fixed interval.
// Datagrams are fire-and-forget; a missing display is not an error.
type Feeder struct {
	dest     string
	interval time.Duration
	conn     *net.UDPConn
}

func NewFeeder(dest string, interval time.Duration) (*Feeder, error) {
	addr, err := net.ResolveUDPAddr("udp", dest)
	if err != nil {
		return nil, fmt.Errorf("resolve dest: %w", err)
	}

	// DialUDP selects a suitable local address automatically.
	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		return nil, fmt.Errorf("dial udp: %w", err)
	}

	if interval <= 0 {
		interval = 200 * time.Millisecond
	}
	return &Feeder{dest: dest, interval: interval, conn: conn}, nil
}

// Run sends one payload per interval until the context ends. payload is
// called on each tick; a nil return skips the tick.
func (f *Feeder) Run(ctx context.Context, payload func() []byte) error {
	tick := time.NewTicker(f.interval)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick.C:
			p := payload()
			if len(p) == 0 {
				continue
			}
			if _, err := f.conn.Write(p); err != nil {
				return fmt.Errorf("udp send: %w", err)
			}
		}
	}
}

func (f *Feeder) Close() error {
	if f == nil || f.conn == nil {
		return nil
	}
	return f.conn.Close()
}
