//go:build linux

package i2c

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sys/unix"
)

// Minimal Linux I2C implementation backed by /dev/i2c-*.
//
// We bind the target address with I2C_SLAVE and use plain write/read pairs.
// The LSM303 parts tolerate a stop between the register write and the data
// read, so combined-transaction (repeated start) support is not needed.

const i2cSlave = 0x0703

// Bus is an opened I2C bus (e.g., /dev/i2c-1).
//
// The address binding is per-fd, so transfers are serialized behind a mutex;
// multiple Dev handles from one Bus are safe to use from different goroutines.
type Bus struct {
	mu      sync.Mutex
	f       *os.File
	path    string
	curAddr uint16
}

func Open(path string) (*Bus, error) {
	path = filepath.Clean(path)
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}
	return &Bus{f: f, path: path, curAddr: 0xFFFF}, nil
}

func (b *Bus) Close() error {
	if b == nil || b.f == nil {
		return nil
	}
	err := b.f.Close()
	b.f = nil
	return err
}

func (b *Bus) Dev(addr uint16) *Dev {
	if b == nil {
		return nil
	}
	return &Dev{bus: b, addr: addr}
}

func (b *Bus) bindLocked(addr uint16) error {
	if b.curAddr == addr {
		return nil
	}
	if err := unix.IoctlSetInt(int(b.f.Fd()), i2cSlave, int(addr)); err != nil {
		return fmt.Errorf("i2c: bind addr 0x%02X: %w", addr, err)
	}
	b.curAddr = addr
	return nil
}

// Dev represents a device at a 7-bit I2C address.
type Dev struct {
	bus  *Bus
	addr uint16
}

func (d *Dev) tx(w, r []byte) error {
	if d == nil || d.bus == nil || d.bus.f == nil {
		return errors.New("i2c device is nil")
	}
	if d.addr == 0 || d.addr > 0x7F {
		return fmt.Errorf("invalid i2c addr 0x%X", d.addr)
	}
	if len(w) == 0 && len(r) == 0 {
		return nil
	}

	d.bus.mu.Lock()
	defer d.bus.mu.Unlock()
	if err := d.bus.bindLocked(d.addr); err != nil {
		return err
	}
	if len(w) > 0 {
		if n, err := d.bus.f.Write(w); err != nil {
			return fmt.Errorf("i2c: write addr 0x%02X: %w", d.addr, err)
		} else if n != len(w) {
			return fmt.Errorf("i2c: short write addr 0x%02X (%d of %d)", d.addr, n, len(w))
		}
	}
	if len(r) > 0 {
		if n, err := d.bus.f.Read(r); err != nil {
			return fmt.Errorf("i2c: read addr 0x%02X: %w", d.addr, err)
		} else if n != len(r) {
			return fmt.Errorf("i2c: short read addr 0x%02X (%d of %d)", d.addr, n, len(r))
		}
	}
	return nil
}

func (d *Dev) ReadReg(reg byte, dst []byte) error {
	return d.tx([]byte{reg}, dst)
}

func (d *Dev) ReadRegU8(reg byte) (byte, error) {
	var b [1]byte
	if err := d.ReadReg(reg, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

func (d *Dev) WriteReg(reg, value byte) error {
	return d.tx([]byte{reg, value}, nil)
}
