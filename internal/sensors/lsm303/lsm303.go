package lsm303

import (
	"fmt"
	"time"

	"wayfinder-ng/internal/i2c"
)

// Minimal LSM303DLHC driver (accelerometer + magnetometer combo).
//
// The two sensors sit at separate I2C addresses. We probe the magnetometer
// via its identification registers ("H43") and the accelerometer by reading
// back its control register after init.

const (
	accelAddrDefault = 0x19
	magAddrDefault   = 0x1E

	// Accelerometer registers.
	regCtrl1A = 0x20
	regCtrl4A = 0x23
	regOutXLA = 0x28

	// 10 Hz, all axes enabled.
	ctrl1AVal = 0x27
	// BDU + high resolution, ±2g.
	ctrl4AVal = 0x88

	// Read with the address MSB set to auto-increment.
	autoInc = 0x80

	// Magnetometer registers.
	regCRAM  = 0x00
	regCRBM  = 0x01
	regMRM   = 0x02
	regOutXH = 0x03
	regIRAM  = 0x0A

	// 15 Hz output rate.
	craVal = 0x10
	// Gain ±1.3 gauss: 1100 LSB/gauss XY, 980 Z.
	crbVal = 0x20
	// Continuous conversion.
	mrVal = 0x00

	iraVal = 0x48 // 'H'

	// ±2g high-resolution mode: 12-bit left-justified, 1 mg/LSB.
	accelScaleG = 0.001
	// LSB/gauss at ±1.3 gauss, converted to µT (1 gauss = 100 µT).
	magScaleXY = 100.0 / 1100.0
	magScaleZ  = 100.0 / 980.0
)

var sleep = time.Sleep

// AccelSample is one accelerometer reading in g.
type AccelSample struct {
	Time       time.Time
	Ax, Ay, Az float64
}

// MagSample is one magnetometer reading in µT.
type MagSample struct {
	Time       time.Time
	Mx, My, Mz float64
}

type regIO interface {
	ReadRegU8(reg byte) (byte, error)
	ReadReg(reg byte, dst []byte) error
	WriteReg(reg, value byte) error
}

type Device struct {
	accel regIO
	mag   regIO
}

func DefaultAccelAddress() uint16 { return accelAddrDefault }
func DefaultMagAddress() uint16   { return magAddrDefault }

func New(accel, mag *i2c.Dev) (*Device, error) {
	if accel == nil || mag == nil {
		return nil, fmt.Errorf("lsm303: dev is nil")
	}
	return newWithIO(accel, mag)
}

func newWithIO(accel, mag regIO) (*Device, error) {
	if accel == nil || mag == nil {
		return nil, fmt.Errorf("lsm303: dev is nil")
	}
	d := &Device{accel: accel, mag: mag}

	ira, err := d.mag.ReadRegU8(regIRAM)
	if err != nil {
		return nil, fmt.Errorf("lsm303: mag identify failed: %w", err)
	}
	if ira != iraVal {
		return nil, fmt.Errorf("lsm303: mag ident=0x%02X want 0x%02X", ira, iraVal)
	}

	if err := d.init(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Device) init() error {
	if err := d.accel.WriteReg(regCtrl1A, ctrl1AVal); err != nil {
		return fmt.Errorf("lsm303: accel config failed: %w", err)
	}
	if err := d.accel.WriteReg(regCtrl4A, ctrl4AVal); err != nil {
		return fmt.Errorf("lsm303: accel config failed: %w", err)
	}
	// The DLHC accelerometer has no WHO_AM_I; read back the control register
	// to confirm something answered at the address.
	got, err := d.accel.ReadRegU8(regCtrl1A)
	if err != nil {
		return fmt.Errorf("lsm303: accel readback failed: %w", err)
	}
	if got != ctrl1AVal {
		return fmt.Errorf("lsm303: accel ctrl readback=0x%02X want 0x%02X", got, ctrl1AVal)
	}

	if err := d.mag.WriteReg(regCRAM, craVal); err != nil {
		return fmt.Errorf("lsm303: mag config failed: %w", err)
	}
	if err := d.mag.WriteReg(regCRBM, crbVal); err != nil {
		return fmt.Errorf("lsm303: mag config failed: %w", err)
	}
	if err := d.mag.WriteReg(regMRM, mrVal); err != nil {
		return fmt.Errorf("lsm303: mag mode failed: %w", err)
	}
	sleep(10 * time.Millisecond)
	return nil
}

// ReadAccel returns the latest accelerometer sample in g.
func (d *Device) ReadAccel() (AccelSample, error) {
	if d == nil {
		return AccelSample{}, fmt.Errorf("lsm303: device is nil")
	}
	buf := make([]byte, 6)
	if err := d.accel.ReadReg(regOutXLA|autoInc, buf); err != nil {
		return AccelSample{}, fmt.Errorf("lsm303: accel read failed: %w", err)
	}

	// Little-endian, 12-bit left-justified.
	ax := int16(buf[1])<<8 | int16(buf[0])
	ay := int16(buf[3])<<8 | int16(buf[2])
	az := int16(buf[5])<<8 | int16(buf[4])

	return AccelSample{
		Time: time.Now(),
		Ax:   float64(ax>>4) * accelScaleG,
		Ay:   float64(ay>>4) * accelScaleG,
		Az:   float64(az>>4) * accelScaleG,
	}, nil
}

// ReadMag returns the latest magnetometer sample in µT.
// Register order is X, Z, Y (the DLHC quirk), big-endian.
func (d *Device) ReadMag() (MagSample, error) {
	if d == nil {
		return MagSample{}, fmt.Errorf("lsm303: device is nil")
	}
	buf := make([]byte, 6)
	if err := d.mag.ReadReg(regOutXH, buf); err != nil {
		return MagSample{}, fmt.Errorf("lsm303: mag read failed: %w", err)
	}

	mx := int16(buf[0])<<8 | int16(buf[1])
	mz := int16(buf[2])<<8 | int16(buf[3])
	my := int16(buf[4])<<8 | int16(buf[5])

	return MagSample{
		Time: time.Now(),
		Mx:   float64(mx) * magScaleXY,
		My:   float64(my) * magScaleXY,
		Mz:   float64(mz) * magScaleZ,
	}, nil
}
