package web

import (
	"github.com/prometheus/client_golang/prometheus"

	"wayfinder-ng/internal/pointer"
)

// Collector exposes the pointer state as Prometheus metrics. All metrics are
// read lazily from the session snapshot on scrape, so there is no update
// plumbing through the data path.
type Collector struct {
	gatherer prometheus.Gatherer
}

func NewCollector(reg prometheus.Registerer, snapshot func() pointer.Snapshot) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	gauges := []struct {
		name string
		help string
		fn   func(pointer.Snapshot) float64
	}{
		{"wayfinder_heading_deg", "Currently selected heading in degrees [0,360).",
			func(s pointer.Snapshot) float64 { return s.HeadingDeg }},
		{"wayfinder_heading_authoritative", "1 when the selected heading is authoritative, else 0.",
			func(s pointer.Snapshot) float64 {
				if s.HeadingAuthoritative {
					return 1
				}
				return 0
			}},
		{"wayfinder_bearing_deg", "Great-circle bearing to the target in degrees [0,360).",
			func(s pointer.Snapshot) float64 { return s.BearingDeg }},
		{"wayfinder_distance_m", "Great-circle distance to the target in meters.",
			func(s pointer.Snapshot) float64 { return s.DistanceM }},
		{"wayfinder_rotation_delta_deg", "Shortest needle rotation from heading to bearing, (-180,180].",
			func(s pointer.Snapshot) float64 { return s.RotationDeltaDeg }},
	}
	for _, g := range gauges {
		fn := g.fn
		if err := reg.Register(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: g.name,
			Help: g.help,
		}, func() float64 { return fn(snapshot()) })); err != nil {
			return nil, err
		}
	}

	if err := reg.Register(prometheus.NewCounterFunc(prometheus.CounterOpts{
		Name: "wayfinder_source_transitions_total",
		Help: "Heading source state machine transitions since start.",
	}, func() float64 { return float64(snapshot().SourceTransitions) })); err != nil {
		return nil, err
	}

	return &Collector{gatherer: gatherer}, nil
}

func (c *Collector) Gatherer() prometheus.Gatherer {
	return c.gatherer
}
