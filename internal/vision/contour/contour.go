// Package contour reduces a binary foreground mask to a capped,
// size-gated, area-sorted list of ROI rectangles: connected-component
// analysis in place of the spec's external contour-approximation
// primitive (itself out of scope as a GPU/vision-library routine).
package contour

import (
	"sort"

	"github.com/slopevision/basesentry/internal/frame"
	"github.com/slopevision/basesentry/internal/vision/segment"
)

// Config bounds the ROIs the extractor will emit.
type Config struct {
	MinWidth, MinHeight int
	MaxWidth, MaxHeight int
	MaxTargets          int
}

// DefaultConfig returns the spec's default size gates: strict lower
// bound 9 (w,h > 8), inclusive upper bound 320, cap of 3 per frame.
func DefaultConfig() Config {
	return Config{
		MinWidth:   9,
		MinHeight:  9,
		MaxWidth:   320,
		MaxHeight:  320,
		MaxTargets: 3,
	}
}

// component is one 4-connected blob found during labeling.
type component struct {
	minX, minY, maxX, maxY int
	area                   float64
}

// label runs 4-connected component labeling over a binary mask and
// returns one component per connected blob of foreground pixels.
func label(mask []byte, width, height int) []component {
	visited := make([]bool, len(mask))
	var components []component

	for start := 0; start < len(mask); start++ {
		if mask[start] == 0 || visited[start] {
			continue
		}
		stack := []int{start}
		visited[start] = true
		c := component{
			minX: start % width, maxX: start % width,
			minY: start / width, maxY: start / width,
		}
		for len(stack) > 0 {
			idx := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			x, y := idx%width, idx/width
			if x < c.minX {
				c.minX = x
			}
			if x > c.maxX {
				c.maxX = x
			}
			if y < c.minY {
				c.minY = y
			}
			if y > c.maxY {
				c.maxY = y
			}
			c.area++

			neighbors := [4][2]int{{x - 1, y}, {x + 1, y}, {x, y - 1}, {x, y + 1}}
			for _, n := range neighbors {
				nx, ny := n[0], n[1]
				if nx < 0 || nx >= width || ny < 0 || ny >= height {
					continue
				}
				nidx := ny*width + nx
				if mask[nidx] != 0 && !visited[nidx] {
					visited[nidx] = true
					stack = append(stack, nidx)
				}
			}
		}
		components = append(components, c)
	}
	return components
}

// boundingROI returns the component's axis-aligned bounding rectangle
// as a frame.ROI, with Area carrying the component's pixel count
// (standing in for contour polygon area, per spec §4.2 step 5).
func (c component) boundingROI() frame.ROI {
	return frame.ROI{
		X:    c.minX,
		Y:    c.minY,
		W:    c.maxX - c.minX + 1,
		H:    c.maxY - c.minY + 1,
		Area: c.area,
	}
}

// Extract runs the full contour-extraction procedure over one mask:
// label, size-gate, sort by area descending, shift by the mask's
// y-offset. It does not apply the global MaxTargets cap — that is
// applied once across both channels by ExtractCapped.
func Extract(mask segment.Mask, cfg Config) []frame.ROI {
	components := label(mask.Pix, mask.Width, mask.Height)

	var rois []frame.ROI
	for _, c := range components {
		roi := c.boundingROI()
		if roi.W < cfg.MinWidth || roi.W > cfg.MaxWidth {
			continue
		}
		if roi.H < cfg.MinHeight || roi.H > cfg.MaxHeight {
			continue
		}
		rois = append(rois, roi.Shifted(0, mask.YOffset))
	}

	sort.SliceStable(rois, func(i, j int) bool {
		return rois[i].Area > rois[j].Area
	})
	return rois
}

// ExtractCapped runs Extract over the primary mask, then the
// secondary mask, appending the primary channel's output first and
// the secondary channel's until the shared MaxTargets cap is reached
// — matching the contour extractor's cross-channel cap order.
func ExtractCapped(primary, secondary segment.Mask, cfg Config) []frame.ROI {
	rois := Extract(primary, cfg)
	if len(rois) >= cfg.MaxTargets {
		return rois[:cfg.MaxTargets]
	}

	secondaryROIs := Extract(secondary, cfg)
	remaining := cfg.MaxTargets - len(rois)
	if remaining > len(secondaryROIs) {
		remaining = len(secondaryROIs)
	}
	rois = append(rois, secondaryROIs[:remaining]...)
	return rois
}
