package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wayfinder-ng/internal/config"
	"wayfinder-ng/internal/gps"
	"wayfinder-ng/internal/imu"
	"wayfinder-ng/internal/indicator"
	"wayfinder-ng/internal/pointer"
	"wayfinder-ng/internal/sim"
	"wayfinder-ng/internal/udp"
	"wayfinder-ng/internal/web"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "./dev.yaml", "Path to YAML config")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	session, err := pointer.New(pointer.Config{
		Target:          cfg.Target.Point(),
		HasMagnetometer: cfg.IMU.Enable,
	})
	if err != nil {
		log.Fatalf("pointer init failed: %v", err)
	}

	log.Printf("wayfinder-ng starting")
	log.Printf("target lat=%.5f lon=%.5f", cfg.Target.LatDeg, cfg.Target.LonDeg)

	if !cfg.GPS.Enable && !cfg.Sim.Enable {
		// No device heading source is configured at all; move the session to
		// the magnetometer fallback immediately so an IMU-only setup still
		// produces an authoritative heading.
		session.PrimaryHeadingFailed(time.Now().UTC(), nil)
	}

	var gpsSvc *gps.Service
	if cfg.GPS.Enable {
		gpsSvc = gps.New(gps.Config{
			Enable:         true,
			Device:         cfg.GPS.Device,
			Baud:           cfg.GPS.Baud,
			HeadingTimeout: cfg.GPS.HeadingTimeout,
		}, session)
		if err := gpsSvc.Start(ctx); err != nil {
			// Position may still arrive later via restart; the heading chain
			// has already degraded to the fallback.
			log.Printf("gps start failed: %v", err)
		}
		defer gpsSvc.Close()
	}

	var simSvc *sim.Service
	if cfg.Sim.Enable {
		simSvc = sim.New(sim.Config{
			Enable:       true,
			CenterLatDeg: cfg.Sim.CenterLatDeg,
			CenterLonDeg: cfg.Sim.CenterLonDeg,
			RadiusM:      cfg.Sim.RadiusM,
			Period:       cfg.Sim.Period,
			RateHz:       cfg.Sim.RateHz,
		}, session)
		if err := simSvc.Start(ctx); err != nil {
			log.Fatalf("sim start failed: %v", err)
		}
		defer simSvc.Close()
	}

	var imuSvc *imu.Service
	if cfg.IMU.Enable {
		imuSvc = imu.New(imu.Config{
			Enable:         true,
			I2CBus:         cfg.IMU.I2CBus,
			AccelAddr:      cfg.IMU.AccelAddr,
			MagAddr:        cfg.IMU.MagAddr,
			PrimaryRateHz:  cfg.IMU.PrimaryRateHz,
			FallbackRateHz: cfg.IMU.FallbackRateHz,
		}, session)
		if err := imuSvc.Start(ctx); err != nil {
			log.Printf("imu start failed: %v", err)
			session.FallbackHeadingFailed(time.Now().UTC(), err)
		}
		defer imuSvc.Close()
	}

	if cfg.Indicator.Enable {
		ind := indicator.New(indicator.Config{
			Enable:         true,
			GPIOPin:        cfg.Indicator.GPIOPin,
			ArrivalRadiusM: cfg.Indicator.ArrivalRadiusM,
		}, func() (float64, bool) {
			snap := session.Snapshot()
			return snap.DistanceM, snap.NavValid
		})
		if err := ind.Start(ctx); err != nil {
			log.Printf("indicator start failed: %v", err)
		}
		defer ind.Close()
	}

	if cfg.Feed.Enable {
		feeder, err := udp.NewFeeder(cfg.Feed.Dest, cfg.Feed.Interval)
		if err != nil {
			log.Fatalf("udp feeder init failed: %v", err)
		}
		defer feeder.Close()
		log.Printf("udp feed dest=%s interval=%s", cfg.Feed.Dest, cfg.Feed.Interval)
		go func() {
			err := feeder.Run(ctx, func() []byte {
				b, err := json.Marshal(session.Snapshot())
				if err != nil {
					return nil
				}
				return b
			})
			if err != nil && ctx.Err() == nil {
				log.Printf("udp feeder stopped: %v", err)
				cancel()
			}
		}()
	}

	if cfg.Web.Enable {
		status := web.NewStatus(time.Now().UTC(), web.Sources{
			Pointer: session.Snapshot,
			GPS: func() gps.Snapshot {
				return gpsSvc.Snapshot()
			},
			IMU: func() imu.Snapshot {
				return imuSvc.Snapshot()
			},
		})
		collector, err := web.NewCollector(nil, session.Snapshot)
		if err != nil {
			log.Fatalf("metrics init failed: %v", err)
		}
		go func() {
			if err := web.Serve(ctx, cfg.Web.Addr, web.Handler(status, collector)); err != nil && ctx.Err() == nil {
				log.Printf("web server stopped: %v", err)
				cancel()
			}
		}()
	}

	<-ctx.Done()
	log.Printf("wayfinder-ng stopping")
}
