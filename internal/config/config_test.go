package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_DefaultsApplied(t *testing.T) {
	path := writeConfig(t, `
target:
  lat_deg: 37.7849
  lon_deg: -122.4194
gps:
  enable: true
imu:
  enable: true
web:
  enable: true
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.GPS.Baud != 9600 {
		t.Fatalf("baud=%d want 9600", cfg.GPS.Baud)
	}
	if cfg.GPS.HeadingTimeout != 10*time.Second {
		t.Fatalf("heading_timeout=%v want 10s", cfg.GPS.HeadingTimeout)
	}
	if cfg.IMU.I2CBus != 1 {
		t.Fatalf("i2c_bus=%d want 1", cfg.IMU.I2CBus)
	}
	if cfg.IMU.PrimaryRateHz != 10 {
		t.Fatalf("primary_rate_hz=%v want 10", cfg.IMU.PrimaryRateHz)
	}
	if cfg.IMU.FallbackRateHz != 5 {
		t.Fatalf("fallback_rate_hz=%v want half of primary", cfg.IMU.FallbackRateHz)
	}
	if cfg.Web.Addr != ":8080" {
		t.Fatalf("web.addr=%q want :8080", cfg.Web.Addr)
	}
}

func TestLoad_RejectsOutOfRangeTarget(t *testing.T) {
	path := writeConfig(t, `
target:
  lat_deg: 95.0
  lon_deg: 0.0
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for out-of-range target")
	}
}

func TestLoad_RejectsGPSAndSimTogether(t *testing.T) {
	path := writeConfig(t, `
target:
  lat_deg: 0.0
  lon_deg: 0.0
gps:
  enable: true
sim:
  enable: true
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for gps+sim")
	}
}

func TestLoad_FeedRequiresDest(t *testing.T) {
	path := writeConfig(t, `
target:
  lat_deg: 0.0
  lon_deg: 0.0
feed:
  enable: true
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for missing feed.dest")
	}
}

func TestLoad_RejectsFallbackFasterThanPrimary(t *testing.T) {
	path := writeConfig(t, `
target:
  lat_deg: 0.0
  lon_deg: 0.0
imu:
  enable: true
  primary_rate_hz: 5
  fallback_rate_hz: 10
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for fallback rate above primary")
	}
}

func TestLoad_IndicatorRequiresPin(t *testing.T) {
	path := writeConfig(t, `
target:
  lat_deg: 0.0
  lon_deg: 0.0
indicator:
  enable: true
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for missing indicator.gpio_pin")
	}
}
