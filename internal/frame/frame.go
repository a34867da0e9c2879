// Package frame defines the pipeline's basic image and region types:
// the immutable per-tick Frame and the axis-aligned ROI rectangles the
// contour extractor produces from it.
package frame

import "fmt"

// Frame is one acquired image, immutable once produced. Index increases
// monotonically for the lifetime of a run; it is never reset except by
// process restart.
type Frame struct {
	Width  int
	Height int
	Index  uint64

	// Pix holds BGR pixel data, row-major, 3 bytes per pixel, stride
	// Width*3. Acquisition and color-space conversion are external
	// collaborators (camera source, ISP); this struct only carries the
	// already-decoded bytes through the pipeline.
	Pix []byte
}

// NewFrame allocates a zeroed frame of the given dimensions.
func NewFrame(width, height int, index uint64) *Frame {
	return &Frame{
		Width:  width,
		Height: height,
		Index:  index,
		Pix:    make([]byte, width*height*3),
	}
}

// Point is an integer 2-D coordinate, matching the top-left corner
// convention used throughout the tracker (ROI.TopLeft()).
type Point struct {
	X, Y int
}

// Add returns the component-wise sum of p and q.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns the component-wise difference p - q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// ROI is an axis-aligned bounding rectangle in frame coordinates, as
// produced by the contour extractor. Width and height are always >= 0.
type ROI struct {
	X, Y, W, H int

	// Area is the originating contour's polygon area (not W*H), used
	// only for sorting; zero for ROIs constructed outside the contour
	// extractor (e.g. in tests).
	Area float64
}

// TopLeft returns the ROI's top-left corner.
func (r ROI) TopLeft() Point {
	return Point{X: r.X, Y: r.Y}
}

// Shifted returns a copy of r translated by (dx, dy).
func (r ROI) Shifted(dx, dy int) ROI {
	r.X += dx
	r.Y += dy
	return r
}

// Intersects reports whether r and other overlap with a strictly
// positive area, matching the source's `(r1 & r2).area() > 0` test.
func (r ROI) Intersects(other ROI) bool {
	return intersectionArea(r, other) > 0
}

func intersectionArea(a, b ROI) int {
	x1 := max(a.X, b.X)
	y1 := max(a.Y, b.Y)
	x2 := min(a.X+a.W, b.X+b.W)
	y2 := min(a.Y+a.H, b.Y+b.H)
	if x2 <= x1 || y2 <= y1 {
		return 0
	}
	return (x2 - x1) * (y2 - y1)
}

func (r ROI) String() string {
	return fmt.Sprintf("ROI{x:%d y:%d w:%d h:%d}", r.X, r.Y, r.W, r.H)
}
