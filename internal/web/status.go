package web

import (
	"time"

	"wayfinder-ng/internal/gps"
	"wayfinder-ng/internal/imu"
	"wayfinder-ng/internal/pointer"
)

// Sources provides the live snapshots the status endpoint aggregates.
// Nil funcs render as absent sections.
type Sources struct {
	Pointer      func() pointer.Snapshot
	GPS          func() gps.Snapshot
	IMU          func() imu.Snapshot
	IndicatorLit func() bool
}

type StatusSnapshot struct {
	Service   string `json:"service"`
	NowUTC    string `json:"now_utc"`
	UptimeSec int64  `json:"uptime_sec"`

	Pointer      *pointer.Snapshot `json:"pointer,omitempty"`
	GPS          *gps.Snapshot     `json:"gps,omitempty"`
	IMU          *imu.Snapshot     `json:"imu,omitempty"`
	IndicatorLit *bool             `json:"indicator_lit,omitempty"`
}

type Status struct {
	start time.Time
	src   Sources
}

func NewStatus(start time.Time, src Sources) *Status {
	if start.IsZero() {
		start = time.Now().UTC()
	}
	return &Status{start: start, src: src}
}

func (s *Status) Snapshot(nowUTC time.Time) StatusSnapshot {
	if nowUTC.IsZero() {
		nowUTC = time.Now().UTC()
	}
	snap := StatusSnapshot{
		Service:   "wayfinder-ng",
		NowUTC:    nowUTC.UTC().Format(time.RFC3339Nano),
		UptimeSec: int64(nowUTC.Sub(s.start).Seconds()),
	}
	if s.src.Pointer != nil {
		v := s.src.Pointer()
		snap.Pointer = &v
	}
	if s.src.GPS != nil {
		v := s.src.GPS()
		snap.GPS = &v
	}
	if s.src.IMU != nil {
		v := s.src.IMU()
		snap.IMU = &v
	}
	if s.src.IndicatorLit != nil {
		v := s.src.IndicatorLit()
		snap.IndicatorLit = &v
	}
	return snap
}
