package contour

import (
	"testing"

	"github.com/slopevision/basesentry/internal/vision/segment"
)

func rectMask(width, height, x, y, w, h int) segment.Mask {
	pix := make([]byte, width*height)
	for row := y; row < y+h; row++ {
		for col := x; col < x+w; col++ {
			pix[row*width+col] = 1
		}
	}
	return segment.Mask{Width: width, Height: height, Pix: pix}
}

func TestExtractFindsBoundingRect(t *testing.T) {
	mask := rectMask(100, 100, 10, 20, 30, 40)
	rois := Extract(mask, DefaultConfig())
	if len(rois) != 1 {
		t.Fatalf("len(rois) = %d, want 1", len(rois))
	}
	r := rois[0]
	if r.X != 10 || r.Y != 20 || r.W != 30 || r.H != 40 {
		t.Errorf("roi = %+v, want {10 20 30 40 ...}", r)
	}
}

func TestExtractRejectsTooSmall(t *testing.T) {
	mask := rectMask(100, 100, 10, 10, 8, 8)
	rois := Extract(mask, DefaultConfig())
	if len(rois) != 0 {
		t.Errorf("len(rois) = %d, want 0 (8x8 must fail the strict lower bound)", len(rois))
	}
}

func TestExtractRejectsTooLarge(t *testing.T) {
	mask := rectMask(400, 400, 0, 0, 321, 321)
	rois := Extract(mask, DefaultConfig())
	if len(rois) != 0 {
		t.Errorf("len(rois) = %d, want 0 (321x321 exceeds the inclusive upper bound)", len(rois))
	}
}

func TestExtractAcceptsBoundaryWidths(t *testing.T) {
	mask := rectMask(400, 400, 0, 0, 320, 320)
	rois := Extract(mask, DefaultConfig())
	if len(rois) != 1 {
		t.Fatalf("len(rois) = %d, want 1 (320 is inclusive)", len(rois))
	}

	mask9 := rectMask(100, 100, 0, 0, 9, 9)
	rois9 := Extract(mask9, DefaultConfig())
	if len(rois9) != 1 {
		t.Fatalf("len(rois9) = %d, want 1 (9 clears the strict >8 bound)", len(rois9))
	}
}

func TestExtractSortsByAreaDescending(t *testing.T) {
	width, height := 200, 200
	pix := make([]byte, width*height)
	// Small blob first in scan order, large blob second.
	for row := 10; row < 20; row++ {
		for col := 10; col < 20; col++ {
			pix[row*width+col] = 1
		}
	}
	for row := 100; row < 150; row++ {
		for col := 100; col < 150; col++ {
			pix[row*width+col] = 1
		}
	}
	mask := segment.Mask{Width: width, Height: height, Pix: pix}

	rois := Extract(mask, DefaultConfig())
	if len(rois) != 2 {
		t.Fatalf("len(rois) = %d, want 2", len(rois))
	}
	if rois[0].Area < rois[1].Area {
		t.Errorf("rois not sorted by area descending: %+v", rois)
	}
}

func TestExtractShiftsByYOffset(t *testing.T) {
	mask := rectMask(100, 100, 10, 10, 20, 20)
	mask.YOffset = 480

	rois := Extract(mask, DefaultConfig())
	if len(rois) != 1 {
		t.Fatalf("len(rois) = %d, want 1", len(rois))
	}
	if rois[0].Y != 10+480 {
		t.Errorf("roi.Y = %d, want %d", rois[0].Y, 10+480)
	}
}

func TestExtractCappedAppendsPrimaryThenSecondary(t *testing.T) {
	width, height := 300, 300
	primaryPix := make([]byte, width*height)
	for _, blob := range [][2]int{{10, 10}, {60, 60}} {
		for row := blob[1]; row < blob[1]+20; row++ {
			for col := blob[0]; col < blob[0]+20; col++ {
				primaryPix[row*width+col] = 1
			}
		}
	}
	primary := segment.Mask{Width: width, Height: height, Pix: primaryPix}

	secondaryPix := make([]byte, width*height)
	for row := 110; row < 130; row++ {
		for col := 110; col < 130; col++ {
			secondaryPix[row*width+col] = 1
		}
	}
	secondary := segment.Mask{Width: width, Height: height, Pix: secondaryPix}

	cfg := DefaultConfig()
	cfg.MaxTargets = 3
	rois := ExtractCapped(primary, secondary, cfg)
	if len(rois) != 3 {
		t.Fatalf("len(rois) = %d, want 3 (2 primary + 1 secondary)", len(rois))
	}
}

func TestExtractCappedStopsAtCapWithoutSecondary(t *testing.T) {
	width, height := 300, 300
	primaryPix := make([]byte, width*height)
	for _, blob := range [][2]int{{10, 10}, {60, 60}, {110, 110}} {
		for row := blob[1]; row < blob[1]+20; row++ {
			for col := blob[0]; col < blob[0]+20; col++ {
				primaryPix[row*width+col] = 1
			}
		}
	}
	primary := segment.Mask{Width: width, Height: height, Pix: primaryPix}

	secondaryPix := make([]byte, width*height)
	for row := 200; row < 220; row++ {
		for col := 200; col < 220; col++ {
			secondaryPix[row*width+col] = 1
		}
	}
	secondary := segment.Mask{Width: width, Height: height, Pix: secondaryPix}

	cfg := DefaultConfig()
	cfg.MaxTargets = 3
	rois := ExtractCapped(primary, secondary, cfg)
	if len(rois) != 3 {
		t.Fatalf("len(rois) = %d, want 3 (cap reached by primary channel alone)", len(rois))
	}
}
