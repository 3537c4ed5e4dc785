// Package vision isolates retro-reflective target candidates in camera frames using GoCV (OpenCV).
package vision

import (
	"errors"
	"fmt"
	"image"
	"math"
	"strings"

	"gocv.io/x/gocv"
)

var (
	// ErrEmptyFrame is returned when a frame has no pixel data.
	ErrEmptyFrame = errors.New("frame is empty")
	// ErrFrameChannels is returned when a frame is not a 3-channel BGR image.
	ErrFrameChannels = errors.New("frame must have 3 channels")
)

// BlurKind selects the smoothing filter applied before color thresholding.
type BlurKind int

const (
	// BlurNone disables the blur stage.
	BlurNone BlurKind = iota
	// BlurBox is a normalized box filter.
	BlurBox
	// BlurGaussian is a Gaussian filter.
	BlurGaussian
	// BlurMedian is a median filter.
	BlurMedian
	// BlurBilateral is an edge-preserving bilateral filter.
	BlurBilateral
)

var blurNames = map[BlurKind]string{
	BlurNone:      "none",
	BlurBox:       "box",
	BlurGaussian:  "gaussian",
	BlurMedian:    "median",
	BlurBilateral: "bilateral",
}

// String returns the lower-case name of the blur kind.
func (k BlurKind) String() string {
	if name, ok := blurNames[k]; ok {
		return name
	}
	return fmt.Sprintf("BlurKind(%d)", int(k))
}

// MarshalText implements encoding.TextMarshaler.
func (k BlurKind) MarshalText() ([]byte, error) {
	if _, ok := blurNames[k]; !ok {
		return nil, fmt.Errorf("unknown blur kind %d", int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *BlurKind) UnmarshalText(text []byte) error {
	name := strings.ToLower(strings.TrimSpace(string(text)))
	for kind, n := range blurNames {
		if n == name {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown blur kind %q", name)
}

// KernelSize returns the square kernel size used by the box, Gaussian and
// median filters for the given radius. The radius is rounded half-to-even.
//
//   - Box, Median: 2*round(r) + 1
//   - Gaussian:    6*round(r) + 1
//
// Sizes that would fall below 1 are clamped to 1. Bilateral and none return 0
// since they do not use a square kernel.
func KernelSize(kind BlurKind, radius float64) int {
	r := int(math.RoundToEven(radius))

	var k int
	switch kind {
	case BlurBox, BlurMedian:
		k = 2*r + 1
	case BlurGaussian:
		k = 6*r + 1
	default:
		return 0
	}

	if k < 1 {
		k = 1
	}
	return k
}

// blurExtent is the kernel width in pixels that kind and radius produce,
// computed in floating point so oversized radii cannot overflow. The
// bilateral diameter follows OpenCV: 2*round(1.5*sigma)+1.
func blurExtent(kind BlurKind, radius float64) float64 {
	r := math.Max(0, math.RoundToEven(radius))
	switch kind {
	case BlurBox, BlurMedian:
		return 2*r + 1
	case BlurGaussian:
		return 6*r + 1
	case BlurBilateral:
		return 2*math.Round(1.5*r) + 1
	default:
		return 0
	}
}

// BlurSigma returns the standard deviation used by the Gaussian and bilateral
// filters: the radius rounded half-to-even, never negative.
func BlurSigma(radius float64) float64 {
	return math.Max(0, math.RoundToEven(radius))
}

// PreprocessConfig describes how a raw frame is turned into a binary mask.
type PreprocessConfig struct {
	// Width and Height are the resize target; fractional values truncate.
	Width  float64 `json:"width"`
	Height float64 `json:"height"`

	Blur       BlurKind `json:"blur"`
	BlurRadius float64  `json:"blur_radius"`

	// Inclusive per-channel ranges, evaluated in RGB order.
	Red   Range `json:"red"`
	Green Range `json:"green"`
	Blue  Range `json:"blue"`
}

// Size returns the exact output dimensions of the resize step.
func (c PreprocessConfig) Size() image.Point {
	return image.Pt(int(c.Width), int(c.Height))
}

// Validate reports resize targets that truncate to zero and malformed
// threshold ranges.
func (c PreprocessConfig) Validate() error {
	size := c.Size()
	if size.X <= 0 || size.Y <= 0 {
		return fmt.Errorf("resize %vx%v truncates to %dx%d", c.Width, c.Height, size.X, size.Y)
	}
	if _, ok := blurNames[c.Blur]; !ok {
		return fmt.Errorf("unknown blur kind %d", int(c.Blur))
	}
	if math.IsNaN(c.BlurRadius) || math.IsInf(c.BlurRadius, 0) {
		return fmt.Errorf("blur radius %v is not finite", c.BlurRadius)
	}
	if extent := blurExtent(c.Blur, c.BlurRadius); extent > float64(max(size.X, size.Y)) {
		return fmt.Errorf("%s blur radius %v gives a %v px kernel, larger than the %dx%d frame",
			c.Blur, c.BlurRadius, extent, size.X, size.Y)
	}
	channels := []struct {
		name string
		r    Range
	}{
		{"red", c.Red},
		{"green", c.Green},
		{"blue", c.Blue},
	}
	for _, ch := range channels {
		if err := ch.r.Validate(); err != nil {
			return fmt.Errorf("%s threshold: %w", ch.name, err)
		}
		if ch.r.Min < 0 || ch.r.Max > 255 {
			return fmt.Errorf("%s threshold %v outside [0,255]", ch.name, ch.r)
		}
	}
	return nil
}

// Preprocess resizes, blurs and color-thresholds a BGR frame.
//
// It returns the resized frame (used for debug overlays) and the binary mask,
// where 255 marks pixels whose RGB values fall inside every configured range.
// The caller owns and must close both Mats. The input frame is not modified.
//
// Steps run in a fixed order, each on the previous step's output:
//  1. Resize to cfg.Size() with bicubic interpolation
//  2. Blur according to cfg.Blur (skipped for BlurNone)
//  3. Reorder channels BGR -> RGB and keep in-range pixels
func Preprocess(frame gocv.Mat, cfg PreprocessConfig) (gocv.Mat, gocv.Mat, error) {
	if frame.Empty() {
		return gocv.Mat{}, gocv.Mat{}, ErrEmptyFrame
	}
	if frame.Channels() != 3 {
		return gocv.Mat{}, gocv.Mat{}, fmt.Errorf("%w, got %d", ErrFrameChannels, frame.Channels())
	}

	resized := gocv.NewMat()
	gocv.Resize(frame, &resized, cfg.Size(), 0, 0, gocv.InterpolationCubic)

	blurred := gocv.NewMat()
	defer blurred.Close()
	blur(resized, &blurred, cfg.Blur, cfg.BlurRadius)

	rgb := gocv.NewMat()
	defer rgb.Close()
	gocv.CvtColor(blurred, &rgb, gocv.ColorBGRToRGB)

	lower := gocv.NewScalar(cfg.Red.Min, cfg.Green.Min, cfg.Blue.Min, 0)
	upper := gocv.NewScalar(cfg.Red.Max, cfg.Green.Max, cfg.Blue.Max, 0)

	mask := gocv.NewMat()
	gocv.InRangeWithScalar(rgb, lower, upper, &mask)

	return resized, mask, nil
}

// blur writes the filtered src into dst.
func blur(src gocv.Mat, dst *gocv.Mat, kind BlurKind, radius float64) {
	switch kind {
	case BlurBox:
		k := KernelSize(kind, radius)
		gocv.Blur(src, dst, image.Pt(k, k))
	case BlurGaussian:
		k := KernelSize(kind, radius)
		sigma := BlurSigma(radius)
		gocv.GaussianBlur(src, dst, image.Pt(k, k), sigma, sigma, gocv.BorderDefault)
	case BlurMedian:
		gocv.MedianBlur(src, dst, KernelSize(kind, radius))
	case BlurBilateral:
		sigma := BlurSigma(radius)
		// A negative diameter lets OpenCV derive the aperture from sigmaSpace.
		gocv.BilateralFilter(src, dst, -1, sigma, sigma)
	default:
		src.CopyTo(dst)
	}
}
