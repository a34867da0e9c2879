// Package crossing implements the per-frame crossing policy over the
// tracker's primary target: arm on course length and track length,
// fire when the target's first and latest points straddle the
// frame's horizontal mid-line, and debounce via the target's trigger
// count.
package crossing

import "github.com/slopevision/basesentry/internal/track"

// Config holds the evaluator's arm thresholds.
type Config struct {
	// MinCourseLength is the minimum cumulative path length (pixels)
	// a target's trace must have before a crossing can arm.
	MinCourseLength float64
	// MinTrackedCount is the minimum number of retained ROIs a
	// target's trace must have before a crossing can arm.
	MinTrackedCount int
	// MaxTriggers is the trigger-count guard: once a target reaches
	// this many fired crossings, it stops firing until its next
	// Update collapses the trace (see the track package).
	MaxTriggers int
}

// DefaultConfig returns the spec's default arm thresholds: 120 px
// course length, 3 tracked points, 4 trigger cap.
func DefaultConfig() Config {
	return Config{
		MinCourseLength: 120,
		MinTrackedCount: 3,
		MaxTriggers:     4,
	}
}

// Event describes one crossing decision for the trigger sink.
type Event struct {
	NewCrossing bool
	TargetID    string
}

// Evaluator runs the crossing policy against a frame's height.
type Evaluator struct {
	cfg      Config
	midlineY int
}

// New creates an Evaluator for frames of the given height. The
// mid-line sits at H/2 - 1, per the spec.
func New(frameHeight int, cfg Config) *Evaluator {
	return &Evaluator{
		cfg:      cfg,
		midlineY: frameHeight/2 - 1,
	}
}

// Evaluate runs the crossing policy against the tracker's current
// primary target. It returns (Event{}, false) if there is no primary,
// the target isn't armed, the crossing predicate doesn't hold, or the
// trigger-count guard blocks it.
func (e *Evaluator) Evaluate(primary *track.Target) (Event, bool) {
	if primary == nil {
		return Event{}, false
	}

	armed := primary.CourseLength() > e.cfg.MinCourseLength &&
		primary.TrackedCount() > e.cfg.MinTrackedCount
	if !armed {
		return Event{}, false
	}

	if primary.TriggerCount() >= e.cfg.MaxTriggers {
		return Event{}, false
	}

	firstY := primary.FirstPoint().Y
	latestY := primary.LatestPoint().Y
	crossed := (firstY > e.midlineY && latestY <= e.midlineY) ||
		(firstY < e.midlineY && latestY >= e.midlineY)
	if !crossed {
		return Event{}, false
	}

	newCrossing := primary.TriggerCount() == 0
	primary.Trigger()

	return Event{NewCrossing: newCrossing, TargetID: primary.ID}, true
}
