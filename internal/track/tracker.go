package track

import (
	"sort"
	"sync"

	"github.com/slopevision/basesentry/internal/frame"
)

// Config holds the tracker's tunable thresholds.
type Config struct {
	// MissingHorizon is the number of frames a target may go
	// unassociated before it is retired.
	MissingHorizon int
	// EuclideanGate is the pixel distance below which a target's last
	// top-left corner may still associate with a new ROI when overlap
	// tests fail.
	EuclideanGate int
	// MaxTriggers is the number of crossings a target may fire before
	// its trace is collapsed and it is re-armed.
	MaxTriggers int
}

// DefaultConfig returns the tracker defaults named throughout the
// concrete scenarios: a 10-frame missing horizon, a 240 px Euclidean
// gate, and a 4-trigger cap.
func DefaultConfig() Config {
	return Config{
		MissingHorizon: 10,
		EuclideanGate:  240,
		MaxTriggers:    4,
	}
}

// Tracker holds an unordered collection of Targets, a frame-tick
// counter, and a weak handle to the current primary target. The
// tracker exclusively owns its targets; Update is the only mutator.
type Tracker struct {
	mu sync.Mutex

	cfg Config

	frameTick uint64
	targets   []*Target
	primary   *Target
}

// New creates a Tracker with the given configuration.
func New(cfg Config) *Tracker {
	return &Tracker{cfg: cfg}
}

// FrameTick returns the current frame counter.
func (tr *Tracker) FrameTick() uint64 {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return tr.frameTick
}

// Targets returns a snapshot slice of the currently tracked targets,
// in the tracker's internal (area-descending) order.
func (tr *Tracker) Targets() []*Target {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	out := make([]*Target, len(tr.targets))
	copy(out, tr.targets)
	return out
}

// Primary returns the current primary target, or nil if none exists.
func (tr *Tracker) Primary() *Target {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return tr.primary
}

// Update runs one frame's association step over rois, following the
// four-step procedure from the tracker design: primary update, reap
// lost non-primary targets, assign remaining ROIs, primary promotion.
func (tr *Tracker) Update(rois []frame.ROI) {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	consumed := make([]bool, len(rois))

	// Step A: primary update. Only the primary's own association test
	// stops here; Steps B/C/D below still run over every other target
	// and ROI this frame, whether or not the primary matched.
	primaryMatchedThisFrame := false
	if tr.primary != nil {
		if idx, ok := tr.findMatch(tr.primary, rois, consumed); ok {
			tr.primary.update(rois[idx], tr.frameTick, tr.cfg.MaxTriggers)
			consumed[idx] = true
			primaryMatchedThisFrame = true
		}
	}

	// Step B: reap lost targets. A primary already updated in Step A is
	// exempted from re-matching here; otherwise it is subject to the
	// same missing-horizon reap as any other target.
	remaining := tr.targets[:0:0]
	for _, t := range tr.targets {
		if t == tr.primary && primaryMatchedThisFrame {
			remaining = append(remaining, t)
			continue
		}
		if _, ok := tr.findMatch(t, rois, consumed); ok {
			remaining = append(remaining, t)
			continue
		}
		if tr.frameTick-t.lastSeenTick > uint64(tr.cfg.MissingHorizon) {
			if t == tr.primary {
				tr.primary = nil
			}
			continue
		}
		remaining = append(remaining, t)
	}
	tr.targets = remaining

	// Step C: assign remaining ROIs. The primary's own ROI was already
	// consumed in Step A when it matched, so it is excluded from
	// re-matching here.
	for i, roi := range rois {
		if consumed[i] {
			continue
		}
		matched := false
		for _, t := range tr.targets {
			if t == tr.primary && primaryMatchedThisFrame {
				continue
			}
			if t.matches(roi, tr.frameTick, tr.cfg.EuclideanGate) {
				t.update(roi, tr.frameTick, tr.cfg.MaxTriggers)
				consumed[i] = true
				matched = true
				break
			}
		}
		if !matched {
			tr.targets = append(tr.targets, newTarget(roi, tr.frameTick))
		}
	}

	tr.frameTick++

	// Step D: primary promotion.
	tr.promotePrimary()
}

// findMatch runs the three-test association sequence for target t
// against rois in order, skipping ROIs already consumed this frame.
// It returns the index of the first ROI that matches and true, or
// (0, false) if none matches.
func (tr *Tracker) findMatch(t *Target, rois []frame.ROI, consumed []bool) (int, bool) {
	for i, roi := range rois {
		if consumed[i] {
			continue
		}
		if t.matches(roi, tr.frameTick, tr.cfg.EuclideanGate) {
			return i, true
		}
	}
	return 0, false
}

// promotePrimary sorts targets by last-rect area descending (only
// when more than one exists) and, if there is no primary, assigns the
// largest.
func (tr *Tracker) promotePrimary() {
	if len(tr.targets) > 1 {
		sort.SliceStable(tr.targets, func(i, j int) bool {
			ri, rj := tr.targets[i].LatestRect(), tr.targets[j].LatestRect()
			return ri.W*ri.H > rj.W*rj.H
		})
	}
	if tr.primary == nil && len(tr.targets) > 0 {
		tr.primary = tr.targets[0]
	}
}
