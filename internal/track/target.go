// Package track implements the multi-target short-horizon tracker:
// Target lifecycle and the Tracker association algorithm that binds
// per-frame ROIs to targets by overlap, velocity-extrapolated overlap,
// or Euclidean distance.
package track

import (
	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/slopevision/basesentry/internal/frame"
)

// Target is a short-horizon track: an ordered trace of ROIs and their
// top-left corners, a one-pole velocity estimate, and the bookkeeping
// the crossing evaluator needs (course length, trigger count).
type Target struct {
	// ID is a process-local identifier for diagnostics and journal
	// correlation; the tracking algorithm itself never inspects it.
	ID string

	rects  []frame.ROI
	points []frame.Point

	velocity     frame.Point
	courseLength float64

	lastSeenTick uint64
	triggerCount int
}

// newTarget births a target from its first observed ROI.
func newTarget(roi frame.ROI, tick uint64) *Target {
	return &Target{
		ID:           "trg_" + uuid.NewString(),
		rects:        []frame.ROI{roi},
		points:       []frame.Point{roi.TopLeft()},
		lastSeenTick: tick,
	}
}

// LatestRect returns the most recently observed ROI.
func (t *Target) LatestRect() frame.ROI {
	return t.rects[len(t.rects)-1]
}

// LatestPoint returns the top-left corner of the most recently
// observed ROI.
func (t *Target) LatestPoint() frame.Point {
	return t.points[len(t.points)-1]
}

// FirstPoint returns the top-left corner of the first ROI observed
// since creation or the last trigger-count reset.
func (t *Target) FirstPoint() frame.Point {
	return t.points[0]
}

// CourseLength returns the cumulative Euclidean distance traveled by
// the target's top-left corner since creation. A trigger-count reset
// does not clear this value — see reset.
func (t *Target) CourseLength() float64 {
	return t.courseLength
}

// TrackedCount returns the number of ROIs currently retained in the
// target's trace.
func (t *Target) TrackedCount() int {
	return len(t.rects)
}

// LastSeenTick returns the frame index of the target's last update.
func (t *Target) LastSeenTick() uint64 {
	return t.lastSeenTick
}

// TriggerCount returns the number of crossings fired since the last
// reset.
func (t *Target) TriggerCount() int {
	return t.triggerCount
}

// Velocity returns the current one-pole velocity estimate, in pixels
// per frame.
func (t *Target) Velocity() frame.Point {
	return t.velocity
}

// Trigger increments the target's trigger count. Called by the
// crossing evaluator when a crossing fires.
func (t *Target) Trigger() {
	t.triggerCount++
}

// extrapolatedRect returns the target's last rect shifted by its
// velocity scaled by the number of frames since it was last seen.
func (t *Target) extrapolatedRect(tick uint64) frame.ROI {
	f := int(tick - t.lastSeenTick)
	return t.LatestRect().Shifted(t.velocity.X*f, t.velocity.Y*f)
}

// matches runs the three-test association sequence against a single
// ROI: direct overlap, velocity-extrapolated overlap, Euclidean gate.
func (t *Target) matches(roi frame.ROI, tick uint64, euclideanGate int) bool {
	if t.LatestRect().Intersects(roi) {
		return true
	}
	if t.extrapolatedRect(tick).Intersects(roi) {
		return true
	}
	d := euclideanDistance(t.LatestRect().TopLeft(), roi.TopLeft())
	return d < float64(euclideanGate)
}

func euclideanDistance(a, b frame.Point) float64 {
	av := r2.Vec{X: float64(a.X), Y: float64(a.Y)}
	bv := r2.Vec{X: float64(b.X), Y: float64(b.Y)}
	return r2.Norm(r2.Sub(av, bv))
}

// update binds roi to the target for the given tick: accumulates
// course length, updates the velocity estimate with a one-pole
// smoother, appends to the trace, and collapses the trace if the
// trigger cap has just been reached.
func (t *Target) update(roi frame.ROI, tick uint64, maxTriggers int) {
	last := t.LatestRect().TopLeft()
	t.courseLength += euclideanDistance(roi.TopLeft(), last)

	delta := roi.TopLeft().Sub(last)
	if len(t.points) == 1 {
		t.velocity = delta
	} else {
		t.velocity = frame.Point{
			X: (t.velocity.X + delta.X) / 2,
			Y: (t.velocity.Y + delta.Y) / 2,
		}
	}

	t.rects = append(t.rects, roi)
	t.points = append(t.points, roi.TopLeft())
	t.lastSeenTick = tick

	if t.triggerCount >= maxTriggers {
		t.reset()
	}
}

// reset collapses the trace to just the latest entry and clears the
// trigger count, preparing the target to be re-armed for another
// crossing. course_length is deliberately NOT cleared here, so it
// keeps accumulating across rearm cycles.
func (t *Target) reset() {
	last := t.rects[len(t.rects)-1]
	t.rects = []frame.ROI{last}
	t.points = []frame.Point{last.TopLeft()}
	t.triggerCount = 0
}
