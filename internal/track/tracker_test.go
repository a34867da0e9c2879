package track

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slopevision/basesentry/internal/frame"
)

func roiAt(x, y, w, h int) frame.ROI {
	return frame.ROI{X: x, Y: y, W: w, H: h}
}

func TestNewTargetBirthedFromUnmatchedROI(t *testing.T) {
	tr := New(DefaultConfig())
	tr.Update([]frame.ROI{roiAt(100, 100, 40, 40)})

	targets := tr.Targets()
	require.Len(t, targets, 1)
	assert.Equal(t, 1, targets[0].TrackedCount())
	assert.NotNil(t, tr.Primary(), "expected a primary target after the first frame")
}

func TestDirectOverlapAssociation(t *testing.T) {
	tr := New(DefaultConfig())
	tr.Update([]frame.ROI{roiAt(100, 100, 40, 40)})
	tr.Update([]frame.ROI{roiAt(110, 105, 40, 40)}) // overlaps previous rect

	require.Len(t, tr.Targets(), 1, "ROI should associate, not birth")
	assert.Equal(t, 2, tr.Primary().TrackedCount())
}

func TestEuclideanGateAssociation(t *testing.T) {
	cfg := DefaultConfig()
	tr := New(cfg)
	tr.Update([]frame.ROI{roiAt(100, 100, 10, 10)})
	// Far enough not to overlap or velocity-extrapolate-overlap, but
	// within the 240px Euclidean gate.
	tr.Update([]frame.ROI{roiAt(150, 150, 10, 10)})

	require.Len(t, tr.Targets(), 1, "Euclidean gate should associate")
}

func TestEuclideanGateRejectsDistantROI(t *testing.T) {
	cfg := DefaultConfig()
	tr := New(cfg)
	tr.Update([]frame.ROI{roiAt(0, 0, 10, 10)})
	tr.Update([]frame.ROI{roiAt(1000, 1000, 10, 10)})

	require.Len(t, tr.Targets(), 2, "distant ROI must birth a new target")
}

// scenario1: simple top-to-bottom crossing course-length accumulation.
func TestCourseLengthAccumulates(t *testing.T) {
	tr := New(DefaultConfig())
	for i := 0; i < 7; i++ {
		tr.Update([]frame.ROI{roiAt(600, 100+60*i, 40, 40)})
	}
	p := tr.Primary()
	require.NotNil(t, p, "expected a primary target")
	require.Equal(t, 7, p.TrackedCount())
	// 6 steps of 60px vertical displacement = 360.
	assert.InDelta(t, 360, p.CourseLength(), 1)
}

// scenario3: occlusion reacquisition continues the target after a gap.
func TestOcclusionReacquisitionContinuesTarget(t *testing.T) {
	tr := New(DefaultConfig())
	// Frames 0..3: steps of (10, 30).
	for i := 0; i < 4; i++ {
		tr.Update([]frame.ROI{roiAt(500+10*i, 100+30*i, 40, 40)})
	}
	// Frames 4..8: absent (5 frames with no ROI).
	for i := 0; i < 5; i++ {
		tr.Update(nil)
	}
	// Frame 9: reappears at (560, 280). The last rect (530, 190)
	// extrapolated by velocity (10, 30) over 6 frames lands at
	// (590, 370), which does not overlap it; the Euclidean gate
	// (distance ~95 px < 240) continues the target.
	tr.Update([]frame.ROI{roiAt(560, 280, 40, 40)})

	require.Len(t, tr.Targets(), 1, "target must be continued, not reborn")
	assert.Equal(t, 5, tr.Primary().TrackedCount())
}

// scenario4: horizon expiry retires a target; the next ROI births anew.
func TestHorizonExpiryRetiresTarget(t *testing.T) {
	cfg := DefaultConfig()
	tr := New(cfg)
	tr.Update([]frame.ROI{roiAt(500, 100, 40, 40)})

	for i := 0; i < 11; i++ {
		tr.Update(nil)
	}
	require.Empty(t, tr.Targets(), "want 0 targets after horizon expiry")
	assert.Nil(t, tr.Primary(), "primary handle must be nulled when the primary target is retired")

	tr.Update([]frame.ROI{roiAt(500, 100, 40, 40)})
	require.Len(t, tr.Targets(), 1)
	assert.Equal(t, 1, tr.Primary().TrackedCount(), "new target, not continued")
}

func TestNoROIConsumedTwice(t *testing.T) {
	tr := New(DefaultConfig())
	tr.Update([]frame.ROI{roiAt(0, 0, 20, 20), roiAt(500, 500, 20, 20)})
	tr.Update([]frame.ROI{roiAt(5, 5, 20, 20), roiAt(505, 505, 20, 20)})

	require.Len(t, tr.Targets(), 2)
	for _, tg := range tr.Targets() {
		assert.Equalf(t, 2, tg.TrackedCount(), "target %s", tg.ID)
	}
}

func TestTriggerCapCollapsesTraceOnNextUpdate(t *testing.T) {
	tr := New(DefaultConfig())
	tr.Update([]frame.ROI{roiAt(0, 0, 20, 20)})
	p := tr.Primary()

	for i := 0; i < 4; i++ {
		p.Trigger()
	}
	require.Equal(t, 4, p.TriggerCount())

	tr.Update([]frame.ROI{roiAt(10, 10, 20, 20)})
	assert.Equal(t, 0, p.TriggerCount(), "want 0 after rearm")
	assert.Equal(t, 1, p.TrackedCount(), "trace collapsed")
}

func TestResetPreservesCourseLength(t *testing.T) {
	tr := New(DefaultConfig())
	tr.Update([]frame.ROI{roiAt(0, 0, 20, 20)})
	tr.Update([]frame.ROI{roiAt(50, 50, 20, 20)})
	p := tr.Primary()
	lengthBeforeReset := p.CourseLength()
	require.Greater(t, lengthBeforeReset, 0.0, "expected nonzero course length before reset")

	for i := 0; i < 4; i++ {
		p.Trigger()
	}
	tr.Update([]frame.ROI{roiAt(60, 60, 20, 20)})

	assert.Greater(t, p.CourseLength(), lengthBeforeReset, "course length must not be cleared by reset")
	assert.Equal(t, 0, p.TriggerCount())
	assert.Equal(t, 1, p.TrackedCount(), "trace collapsed to the latest entry")
}

func TestResetThenIdenticalROILeavesTwoEntries(t *testing.T) {
	tr := New(DefaultConfig())
	tr.Update([]frame.ROI{roiAt(0, 0, 20, 20)})
	p := tr.Primary()
	last := p.LatestRect()

	for i := 0; i < 4; i++ {
		p.Trigger()
	}
	p.reset()
	tr.Update([]frame.ROI{last})

	assert.Equal(t, 0, p.TriggerCount())
	assert.Equal(t, 2, p.TrackedCount())
}

func TestEmptyROIsForHorizonEmptiesCollection(t *testing.T) {
	tr := New(DefaultConfig())
	tr.Update([]frame.ROI{roiAt(0, 0, 20, 20)})
	tr.Update([]frame.ROI{roiAt(500, 500, 20, 20)})

	for i := 0; i < DefaultConfig().MissingHorizon+1; i++ {
		tr.Update(nil)
	}
	assert.Empty(t, tr.Targets())
}

func TestVelocitySmoothingIsOnePole(t *testing.T) {
	tr := New(DefaultConfig())
	tr.Update([]frame.ROI{roiAt(0, 0, 20, 20)})
	tr.Update([]frame.ROI{roiAt(10, 0, 20, 20)}) // velocity = (10, 0)
	tr.Update([]frame.ROI{roiAt(30, 0, 20, 20)}) // delta = (20, 0), velocity = (10+20)/2 = 15

	v := tr.Primary().Velocity()
	assert.Equal(t, 15, v.X)
	assert.Equal(t, 0, v.Y)
}

func TestPrimaryPromotionPicksLargestArea(t *testing.T) {
	tr := New(DefaultConfig())
	// Two far-apart ROIs birth two targets in the same frame; neither
	// is primary yet, so promotion picks the larger by rect area.
	tr.Update([]frame.ROI{roiAt(0, 0, 10, 10), roiAt(1000, 1000, 50, 50)})

	p := tr.Primary()
	require.NotNil(t, p, "expected a primary target")
	assert.Equal(t, 50, p.LatestRect().W, "primary rect width should be the largest area")
}
