package segment

import (
	"github.com/slopevision/basesentry/internal/frame"
)

// Mask is a binary foreground mask produced by one channel, plus the
// vertical offset its coordinates must be shifted by before it is
// compared against full-frame geometry (zero for the primary channel,
// two-thirds of frame height for the secondary channel).
type Mask struct {
	Width, Height int
	YOffset       int
	Pix           []byte // 1 = foreground, 0 = background
}

// Config holds the two channels' tunables and the erosion size shared
// by both passes.
type Config struct {
	Primary     BackgroundParams
	Secondary   BackgroundParams
	ErosionSize int
}

// DefaultConfig returns the spec's default segmenter tunables.
func DefaultConfig() Config {
	return Config{
		Primary:     DefaultPrimaryParams(),
		Secondary:   DefaultSecondaryParams(),
		ErosionSize: 6,
	}
}

// Segmenter runs the primary (full-frame luma) and secondary
// (bottom-third hue) background models every frame and emits their
// foreground masks.
type Segmenter struct {
	cfg        Config
	morphology Morphology

	width, height int
	primary       *Background
	secondary     *Background
}

// New creates a Segmenter for frames of the given dimensions. morph
// supplies the smoothing/erosion passes; pass IdentityMorphology{} if
// no accelerated backend is wired in.
func New(width, height int, cfg Config, morph Morphology) *Segmenter {
	secondaryHeight := height - height*2/3
	return &Segmenter{
		cfg:        cfg,
		morphology: morph,
		width:      width,
		height:     height,
		primary:    NewBackground(width, height, cfg.Primary),
		secondary:  NewBackground(width, secondaryHeight, cfg.Secondary),
	}
}

// Process runs one frame through both channels. luma is the grayscale
// conversion of the full frame (width*height bytes); hue is the hue
// plane of the bottom third of the frame (width * (height-2*height/3)
// bytes). Both are required every frame regardless of back-pressure
// elsewhere in the pipeline.
func (s *Segmenter) Process(luma, hue []byte) (primary, secondary Mask) {
	size := s.cfg.ErosionSize

	primaryRaw := s.morphology.Erode(luma, s.width, s.height, size)
	primaryFg := s.primary.Apply(primaryRaw)
	primaryFg = s.morphology.GaussianBlur(primaryFg, s.width, s.height, 5, 3.5)
	primaryFg = s.morphology.Erode(primaryFg, s.width, s.height, size)

	yOffset := s.height * 2 / 3
	secondaryHeight := s.height - yOffset
	secondaryRaw := s.morphology.Erode(hue, s.width, secondaryHeight, size)
	secondaryFg := s.secondary.Apply(secondaryRaw)
	secondaryFg = s.morphology.GaussianBlur(secondaryFg, s.width, secondaryHeight, 3, 5.0)
	secondaryFg = s.morphology.Erode(secondaryFg, s.width, secondaryHeight, size)

	return Mask{Width: s.width, Height: s.height, YOffset: 0, Pix: primaryFg},
		Mask{Width: s.width, Height: secondaryHeight, YOffset: yOffset, Pix: secondaryFg}
}

// LumaPlane converts a BGR frame to a single grayscale channel using
// the ITU-R BT.601 luma coefficients.
func LumaPlane(f *frame.Frame) []byte {
	out := make([]byte, f.Width*f.Height)
	for i := 0; i < f.Width*f.Height; i++ {
		b := float64(f.Pix[i*3+0])
		g := float64(f.Pix[i*3+1])
		r := float64(f.Pix[i*3+2])
		out[i] = byte(0.114*b + 0.587*g + 0.299*r)
	}
	return out
}

// HuePlaneBottomThird converts the bottom third of a BGR frame (y >=
// 2*H/3) to HSV and returns its hue channel, scaled to [0,255].
func HuePlaneBottomThird(f *frame.Frame) []byte {
	yOffset := f.Height * 2 / 3
	rows := f.Height - yOffset
	out := make([]byte, f.Width*rows)
	for row := 0; row < rows; row++ {
		srcRow := row + yOffset
		for col := 0; col < f.Width; col++ {
			idx := (srcRow*f.Width + col) * 3
			b := float64(f.Pix[idx+0])
			g := float64(f.Pix[idx+1])
			r := float64(f.Pix[idx+2])
			out[row*f.Width+col] = byte(hueDegreesScaled(r, g, b))
		}
	}
	return out
}

// hueDegreesScaled computes hue in [0,360) from RGB components in
// [0,255], then scales to a single byte [0,255] the way OpenCV's HSV
// conversion does for 8-bit images.
func hueDegreesScaled(r, g, b float64) float64 {
	maxC := max(r, max(g, b))
	minC := min(r, min(g, b))
	delta := maxC - minC
	if delta == 0 {
		return 0
	}
	var h float64
	switch maxC {
	case r:
		h = 60 * (((g - b) / delta))
	case g:
		h = 60 * (((b-r)/delta)+2)
	default:
		h = 60 * (((r-g)/delta)+4)
	}
	if h < 0 {
		h += 360
	}
	return h / 360 * 255
}
