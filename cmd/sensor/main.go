// Command sensor runs one base's detection/tracking/crossing/trigger
// pipeline against a live camera feed.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/slopevision/basesentry/internal/config"
	"github.com/slopevision/basesentry/internal/frame"
	"github.com/slopevision/basesentry/internal/fsutil"
	"github.com/slopevision/basesentry/internal/journal"
	"github.com/slopevision/basesentry/internal/pidfile"
	"github.com/slopevision/basesentry/internal/sensor"
	"github.com/slopevision/basesentry/internal/timeutil"
	"github.com/slopevision/basesentry/internal/trigger"
	"github.com/slopevision/basesentry/internal/version"
)

var (
	configFile  = flag.String("config", "config/base.conf", "Path to the base's key/value config file")
	tuningFile  = flag.String("tuning", config.DefaultTuningConfigPath, "Path to the JSON tuning configuration file")
	uartPort    = flag.String("uart-port", "", "Serial port for the UART trigger sink (empty disables it)")
	journalPath = flag.String("journal", "sensor_journal.db", "Path to the trigger-event journal SQLite database")
	pidPath     = flag.String("pidfile", "/run/basesentry.pid", "Path to the process's PID file")
	frameWidth  = flag.Int("frame-width", 640, "Acquired frame width in pixels")
	frameHeight = flag.Int("frame-height", 480, "Acquired frame height in pixels")
	versionFlag = flag.Bool("version", false, "Print version information and exit")
)

// FrameSource is the external camera acquisition collaborator: fixed
// W x H BGR frames at a fixed FPS, color-space conversion and ISP
// tuning already applied. No concrete GStreamer/V4L2 backend ships in
// this repository — acquisition is out of scope per the Non-goals —
// so main wires whatever implementation the deployment provides.
type FrameSource interface {
	Next(ctx context.Context) (*frame.Frame, error)
	Close() error
}

func main() {
	flag.Parse()
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	if *versionFlag {
		fmt.Printf("basesentry v%s (git SHA: %s)\n", version.Version, version.GitSHA)
		os.Exit(0)
	}

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("failed to load config %s: %v", *configFile, err)
	}

	tuningOverlay, err := config.LoadTuningConfig(*tuningFile)
	if err != nil {
		log.Fatalf("failed to load tuning config %s: %v", *tuningFile, err)
	}
	tuning := tuningOverlay.Merge(config.DefaultTuningConfig())

	jr, err := journal.Open(*journalPath)
	if err != nil {
		log.Fatalf("failed to open trigger journal %s: %v", *journalPath, err)
	}
	defer jr.Close()

	sink := buildTriggerSink(cfg)
	defer closeSinks(sink)

	pf := pidfile.New(fsutil.OSFileSystem{}, *pidPath)
	if err := pf.Write(); err != nil {
		log.Fatalf("failed to write pid file: %v", err)
	}
	defer pf.Remove()

	s := sensor.New(cfg, tuning, *frameWidth, *frameHeight, sink, jr, timeutil.RealClock{})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sighup := make(chan os.Signal, 1)
	signal.Notify(sighup, syscall.SIGHUP)
	go func() {
		for range sighup {
			s.TogglePause(ctx)
		}
	}()

	source := newUnconfiguredFrameSource()
	defer source.Close()

	log.Printf("basesentry starting: base=%s remote_control=%v", cfg.BaseType, cfg.IsRemoteControl)
	runLoop(ctx, s, source)
	log.Printf("basesentry shutting down")
}

// runLoop pulls frames from source until ctx is cancelled, handing
// each one to the sensor pipeline.
func runLoop(ctx context.Context, s *sensor.Sensor, source FrameSource) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		f, err := source.Next(ctx)
		if err != nil {
			log.Printf("frame source error: %v", err)
			return
		}
		if err := s.ProcessFrame(f); err != nil {
			log.Printf("pipeline error: %v", err)
		}
	}
}

func buildTriggerSink(cfg *config.Config) trigger.MultiSink {
	var sinks []trigger.Sink

	if *uartPort != "" {
		uart, err := trigger.OpenUARTSink(*uartPort)
		if err != nil {
			log.Fatalf("failed to open UART trigger sink %s: %v", *uartPort, err)
		}
		sinks = append(sinks, uart)
	}

	if cfg.UDPRemoteHost != "" {
		udp, err := trigger.OpenUDPSink(cfg.UDPRemoteHost, cfg.UDPRemotePort)
		if err != nil {
			log.Fatalf("failed to open UDP trigger sink %s:%d: %v", cfg.UDPRemoteHost, cfg.UDPRemotePort, err)
		}
		sinks = append(sinks, udp)
	}

	return trigger.MultiSink{Sinks: sinks}
}

type closer interface{ Close() error }

func closeSinks(ms trigger.MultiSink) {
	for _, s := range ms.Sinks {
		if c, ok := s.(closer); ok {
			if err := c.Close(); err != nil {
				log.Printf("error closing trigger sink: %v", err)
			}
		}
	}
}

// unconfiguredFrameSource fails fast: this binary ships no camera
// backend, matching the Non-goal that acquisition is an external
// collaborator. A deployment supplies its own FrameSource and a
// thin main that calls runLoop directly.
type unconfiguredFrameSource struct{}

func newUnconfiguredFrameSource() FrameSource { return unconfiguredFrameSource{} }

func (unconfiguredFrameSource) Next(ctx context.Context) (*frame.Frame, error) {
	return nil, fmt.Errorf("no camera frame source configured: wire a FrameSource implementation for this deployment")
}

func (unconfiguredFrameSource) Close() error { return nil }
