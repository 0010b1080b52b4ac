package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"wayfinder-ng/internal/geo"
)

type Config struct {
	Target    TargetConfig    `yaml:"target"`
	GPS       GPSConfig       `yaml:"gps"`
	IMU       IMUConfig       `yaml:"imu"`
	Web       WebConfig       `yaml:"web"`
	Feed      FeedConfig      `yaml:"feed"`
	Indicator IndicatorConfig `yaml:"indicator"`
	Sim       SimConfig       `yaml:"sim"`
}

// TargetConfig is the fixed session target the needle points at.
type TargetConfig struct {
	LatDeg float64 `yaml:"lat_deg"`
	LonDeg float64 `yaml:"lon_deg"`
}

func (t TargetConfig) Point() geo.Point {
	return geo.Point{LatDeg: t.LatDeg, LonDeg: t.LonDeg}
}

type GPSConfig struct {
	Enable bool `yaml:"enable"`

	// Device is the serial device path; empty auto-detects /dev/ttyACM*.
	Device string `yaml:"device"`
	Baud   int    `yaml:"baud"`

	// HeadingTimeout is how long to wait for the first device heading
	// sentence before declaring the primary heading source failed.
	HeadingTimeout time.Duration `yaml:"heading_timeout"`
}

type IMUConfig struct {
	Enable    bool   `yaml:"enable"`
	I2CBus    int    `yaml:"i2c_bus"`
	AccelAddr uint16 `yaml:"accel_addr"`
	MagAddr   uint16 `yaml:"mag_addr"`

	// PrimaryRateHz is the accel/mag sampling rate while the device heading
	// source is healthy. FallbackRateHz applies once the session degrades to
	// the magnetometer-only source; it defaults to half the primary rate to
	// conserve the fallback sensor's power budget.
	PrimaryRateHz  float64 `yaml:"primary_rate_hz"`
	FallbackRateHz float64 `yaml:"fallback_rate_hz"`
}

type WebConfig struct {
	Enable bool   `yaml:"enable"`
	Addr   string `yaml:"addr"`
}

// FeedConfig controls the UDP pointer feed consumed by a display.
type FeedConfig struct {
	Enable   bool          `yaml:"enable"`
	Dest     string        `yaml:"dest"`
	Interval time.Duration `yaml:"interval"`
}

type IndicatorConfig struct {
	Enable bool `yaml:"enable"`
	// GPIOPin is the BCM pin driving the arrival LED.
	GPIOPin int `yaml:"gpio_pin"`
	// ArrivalRadiusM turns the indicator on within this distance of the target.
	ArrivalRadiusM float64 `yaml:"arrival_radius_m"`
}

// SimConfig drives the synthetic walker used for bench runs without hardware.
type SimConfig struct {
	Enable       bool          `yaml:"enable"`
	CenterLatDeg float64       `yaml:"center_lat_deg"`
	CenterLonDeg float64       `yaml:"center_lon_deg"`
	RadiusM      float64       `yaml:"radius_m"`
	Period       time.Duration `yaml:"period"`
	RateHz       float64       `yaml:"rate_hz"`
}

func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}

	// The target is the one input that must be present and sane; a wrapped
	// coordinate would silently corrupt every bearing afterwards.
	if err := cfg.Target.Point().Validate(); err != nil {
		return Config{}, fmt.Errorf("target: %w", err)
	}

	if cfg.GPS.Enable && cfg.Sim.Enable {
		return Config{}, fmt.Errorf("gps and sim cannot both be enabled")
	}

	if cfg.GPS.Baud == 0 {
		cfg.GPS.Baud = 9600
	}
	if cfg.GPS.HeadingTimeout <= 0 {
		cfg.GPS.HeadingTimeout = 10 * time.Second
	}

	if cfg.IMU.I2CBus == 0 {
		cfg.IMU.I2CBus = 1
	}
	if cfg.IMU.PrimaryRateHz <= 0 {
		cfg.IMU.PrimaryRateHz = 10
	}
	if cfg.IMU.FallbackRateHz <= 0 {
		cfg.IMU.FallbackRateHz = cfg.IMU.PrimaryRateHz / 2
	}
	if cfg.IMU.FallbackRateHz > cfg.IMU.PrimaryRateHz {
		return Config{}, fmt.Errorf("imu.fallback_rate_hz must not exceed imu.primary_rate_hz")
	}

	if cfg.Web.Enable && cfg.Web.Addr == "" {
		cfg.Web.Addr = ":8080"
	}

	if cfg.Feed.Enable {
		if cfg.Feed.Dest == "" {
			return Config{}, fmt.Errorf("feed.dest is required when feed.enable is true")
		}
		if cfg.Feed.Interval <= 0 {
			cfg.Feed.Interval = 200 * time.Millisecond
		}
	}

	if cfg.Indicator.Enable {
		if cfg.Indicator.GPIOPin <= 0 {
			return Config{}, fmt.Errorf("indicator.gpio_pin is required when indicator.enable is true")
		}
		if cfg.Indicator.ArrivalRadiusM <= 0 {
			cfg.Indicator.ArrivalRadiusM = 25
		}
	}

	// Simulator defaults (safe even if disabled).
	if cfg.Sim.RadiusM <= 0 {
		cfg.Sim.RadiusM = 500
	}
	if cfg.Sim.Period <= 0 {
		cfg.Sim.Period = 120 * time.Second
	}
	if cfg.Sim.RateHz <= 0 {
		cfg.Sim.RateHz = 10
	}

	return cfg, nil
}
