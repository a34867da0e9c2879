// Package sensor wires the detection, tracking, crossing and trigger
// packages into the per-frame pipeline a running base executes, and
// owns the pause/resume state machine the push button, SIGHUP, and
// the inbound remote byte all drive.
package sensor

import (
	"context"

	"github.com/slopevision/basesentry/internal/config"
	"github.com/slopevision/basesentry/internal/crossing"
	"github.com/slopevision/basesentry/internal/frame"
	"github.com/slopevision/basesentry/internal/journal"
	"github.com/slopevision/basesentry/internal/monitoring"
	"github.com/slopevision/basesentry/internal/queue"
	"github.com/slopevision/basesentry/internal/timeutil"
	"github.com/slopevision/basesentry/internal/track"
	"github.com/slopevision/basesentry/internal/trigger"
	"github.com/slopevision/basesentry/internal/vision/contour"
	"github.com/slopevision/basesentry/internal/vision/segment"
)

// CameraConfigurator probes and applies camera exposure on pause and
// resume transitions. Acquisition, ISP tuning and the concrete
// GStreamer/V4L2 backend are out of scope; the sensor only calls this
// interface at the points the original firmware calls
// Camera::UpdateExposure.
type CameraConfigurator interface {
	ProbeExposure(ctx context.Context) error
}

// IndicatorSink drives the GPIO status LEDs and trigger relay. No
// concrete Jetson GPIO backend is in scope; this models the call
// sites only (red LED + relay on trigger, green LED on frame flash,
// blue LED while file output is active).
type IndicatorSink interface {
	TriggerPulse()
	FrameFlash()
	SetFileActive(active bool)
}

// HWSwitchReader reads the optional hardware override switches that,
// when base.hwswitch is enabled, take precedence over the config
// file's base.type.
type HWSwitchReader interface {
	BaseType() (base config.BaseType, ok bool)
}

// Sensor holds one running base's full pipeline state: the
// segmenter, contour extractor, tracker, crossing evaluator, trigger
// sequence and sinks, the frame-output queue, and the pause state
// machine.
type Sensor struct {
	cfg    *config.Config
	tuning *config.TuningConfig
	clock  timeutil.Clock

	frameWidth, frameHeight int

	segmenter  *segment.Segmenter
	contourCfg contour.Config
	tracker    *track.Tracker
	evaluator  *crossing.Evaluator
	sequence   *trigger.Sequence
	sink       trigger.Sink
	journal    *journal.Journal
	output     *queue.FrameQueue

	camera     CameraConfigurator
	indicators IndicatorSink
	hwSwitch   HWSwitchReader

	paused            bool
	pauseButtonFrames int
}

// New builds a Sensor for a frameWidth x frameHeight video feed. sink
// and jr may be zero-value/nil-backed no-ops (trigger.MultiSink with
// no present sinks, nil journal) when those outputs are not
// configured; New itself never fails on their absence, matching the
// sink polymorphism the trigger package models.
func New(cfg *config.Config, tuning *config.TuningConfig, frameWidth, frameHeight int, sink trigger.Sink, jr *journal.Journal, clock timeutil.Clock) *Sensor {
	if clock == nil {
		clock = timeutil.RealClock{}
	}

	segCfg := segment.Config{
		Primary: segment.BackgroundParams{
			UpdateFraction:      1.0 / float64(derefInt(tuning.PrimaryHistory, 90)),
			ClosenessMultiplier: 3.0,
			NoiseFloor:          1.0,
			WarmupFrames:        derefInt(tuning.PrimaryHistory, 90),
			VarianceThreshold:   derefFloat(tuning.PrimaryVarianceThresh, 16),
		},
		Secondary: segment.BackgroundParams{
			UpdateFraction:      1.0 / float64(derefInt(tuning.SecondaryHistory, 90)),
			ClosenessMultiplier: 3.0,
			NoiseFloor:          1.0,
			WarmupFrames:        derefInt(tuning.SecondaryHistory, 90),
			VarianceThreshold:   derefFloat(tuning.SecondaryVarianceThresh, 32),
		},
		ErosionSize: derefInt(tuning.ErosionSize, 6),
	}

	contourCfg := contour.Config{
		MinWidth:   derefInt(tuning.MinROIWidth, 9),
		MinHeight:  derefInt(tuning.MinROIHeight, 9),
		MaxWidth:   derefInt(tuning.MaxROIWidth, 320),
		MaxHeight:  derefInt(tuning.MaxROIHeight, 320),
		MaxTargets: derefInt(tuning.MaxTargets, 3),
	}

	trackerCfg := track.Config{
		MissingHorizon: derefInt(tuning.MissingHorizon, 10),
		EuclideanGate:  derefInt(tuning.EuclideanGate, 240),
		MaxTriggers:    derefInt(tuning.MaxTriggers, 4),
	}

	crossingCfg := crossing.Config{
		MinCourseLength: derefFloat(tuning.MinCourseLength, 120),
		MinTrackedCount: derefInt(tuning.MinTrackedCount, 3),
		MaxTriggers:     derefInt(tuning.MaxTriggers, 4),
	}

	if sink == nil {
		sink = trigger.MultiSink{}
	}

	return &Sensor{
		cfg:         cfg,
		tuning:      tuning,
		clock:       clock,
		frameWidth:  frameWidth,
		frameHeight: frameHeight,
		segmenter:   segment.New(frameWidth, frameHeight, segCfg, segment.IdentityMorphology{}),
		contourCfg:  contourCfg,
		tracker:     track.New(trackerCfg),
		evaluator:   crossing.New(frameHeight, crossingCfg),
		sequence:    trigger.NewSequence(),
		sink:        sink,
		journal:     jr,
		output:      queue.New(),
	}
}

// SetCamera wires the optional camera exposure collaborator.
func (s *Sensor) SetCamera(c CameraConfigurator) { s.camera = c }

// SetIndicators wires the optional GPIO indicator collaborator.
func (s *Sensor) SetIndicators(i IndicatorSink) { s.indicators = i }

// SetHWSwitch wires the optional hardware-switch reader; it only
// takes effect when cfg.IsHardwareSwitch is set.
func (s *Sensor) SetHWSwitch(h HWSwitchReader) { s.hwSwitch = h }

// OutputQueue returns the bounded annotated-frame queue the writer
// thread drains.
func (s *Sensor) OutputQueue() *queue.FrameQueue { return s.output }

// Tracker exposes the underlying tracker, mainly for diagnostics and
// tests.
func (s *Sensor) Tracker() *track.Tracker { return s.tracker }

// IsPaused reports the current pause state.
func (s *Sensor) IsPaused() bool { return s.paused }

// ProcessFrame runs one acquired frame through the full pipeline:
// segment, extract, track, evaluate, and on a fired crossing, encode
// and emit the trigger byte, append to the journal, and pulse the
// trigger indicator. While paused, only the frame-flash indicator and
// the output queue are touched; detection state is frozen.
func (s *Sensor) ProcessFrame(f *frame.Frame) error {
	if s.indicators != nil {
		s.indicators.FrameFlash()
	}

	if s.paused {
		s.output.Push(f)
		return nil
	}

	if s.hwSwitch != nil && s.cfg.IsHardwareSwitch {
		if base, ok := s.hwSwitch.BaseType(); ok {
			s.cfg.BaseType = base
		}
	}

	luma := segment.LumaPlane(f)
	hue := segment.HuePlaneBottomThird(f)
	primaryMask, secondaryMask := s.segmenter.Process(luma, hue)

	rois := contour.ExtractCapped(primaryMask, secondaryMask, s.contourCfg)
	s.tracker.Update(rois)

	var fireErr error
	if event, fired := s.evaluator.Evaluate(s.tracker.Primary()); fired {
		fireErr = s.fire(event)
	}

	s.output.Push(f)
	return fireErr
}

func (s *Sensor) fire(event crossing.Event) error {
	seq := s.sequence.Current()
	if event.NewCrossing {
		seq = s.sequence.Next()
	}
	b := trigger.EncodeTriggerByte(s.cfg.BaseType, seq)

	emitErr := s.sink.Emit(b)
	if emitErr != nil {
		monitoring.Logf("sensor: trigger emit failed: %v", emitErr)
	}

	if s.indicators != nil {
		s.indicators.TriggerPulse()
	}

	if s.journal != nil {
		kind := journal.KindRepeat
		if event.NewCrossing {
			kind = journal.KindNew
		}
		entry := journal.Event{
			Base:             s.cfg.BaseType,
			Sequence:         seq,
			Kind:             kind,
			TargetID:         event.TargetID,
			FrameTick:        s.tracker.FrameTick(),
			CourseLength:     primaryCourseLength(s.tracker, event.TargetID),
			FiredAtUnixNanos: s.clock.Now().UnixNano(),
		}
		if err := s.journal.Append(entry); err != nil {
			monitoring.Logf("sensor: journal append failed: %v", err)
		}
	}

	return emitErr
}

func primaryCourseLength(tr *track.Tracker, targetID string) float64 {
	for _, t := range tr.Targets() {
		if t.ID == targetID {
			return t.CourseLength()
		}
	}
	return 0
}

// TogglePause flips the pause state. It is the single entry point for
// all three external pause triggers (debounced push button, SIGHUP,
// inbound remote byte), mirroring the original firmware's
// OnPushButton being called from all three call sites. On resume it
// probes camera exposure if a CameraConfigurator is wired.
func (s *Sensor) TogglePause(ctx context.Context) {
	s.paused = !s.paused
	monitoring.Logf("sensor: pause toggled, paused=%v", s.paused)

	if s.indicators != nil {
		s.indicators.SetFileActive(!s.paused && s.cfg.VideoOutputFile)
	}

	if !s.paused && s.camera != nil {
		if err := s.camera.ProbeExposure(ctx); err != nil {
			monitoring.Logf("sensor: exposure probe failed: %v", err)
		}
	}
}

// TickButton advances the push-button debounce counter. Call it once
// per frame with the button's current raw (unfiltered) pressed state;
// once the button has read pressed for PauseDebounceFrames consecutive
// frames, it fires TogglePause and resets the counter, matching the
// original's `loopCount >= 10` edge debounce.
func (s *Sensor) TickButton(ctx context.Context, pressed bool) {
	if !pressed {
		s.pauseButtonFrames = 0
		return
	}
	s.pauseButtonFrames++
	if s.pauseButtonFrames >= derefInt(s.tuning.PauseDebounceFrames, 10) {
		s.pauseButtonFrames = 0
		s.TogglePause(ctx)
	}
}

// HandleRemoteByte decodes an inbound byte per the wire format and
// toggles pause on Pause/Resume commands addressed to this base. It
// is a no-op when remote control is disabled in config, matching
// spec.md §6.
func (s *Sensor) HandleRemoteByte(ctx context.Context, b byte) {
	if !s.cfg.IsRemoteControl {
		return
	}
	switch trigger.DecodeRemoteByte(b, s.cfg.BaseType) {
	case trigger.RemoteCommandPause:
		if !s.paused {
			s.TogglePause(ctx)
		}
	case trigger.RemoteCommandResume:
		if s.paused {
			s.TogglePause(ctx)
		}
	}
}

func derefInt(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

func derefFloat(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}
