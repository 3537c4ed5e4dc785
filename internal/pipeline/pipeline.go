// Package pipeline runs the per-frame target detection stages: preprocess,
// extract, match and estimate.
package pipeline

import (
	"errors"
	"fmt"
	"math"

	"gocv.io/x/gocv"

	"github.com/frc2554/targetvision/internal/target"
	"github.com/frc2554/targetvision/internal/vision"
)

var (
	// ErrInvalidConfig is returned when a Config fails validation.
	ErrInvalidConfig = errors.New("invalid pipeline config")
	// ErrEmptyFrame is returned for frames without pixel data.
	ErrEmptyFrame = vision.ErrEmptyFrame
)

// Config is the full, static tuning of the detection pipeline.
type Config struct {
	Preprocess vision.PreprocessConfig `json:"preprocess"`
	Contours   vision.ExtractConfig    `json:"contours"`
	Matcher    target.Policy           `json:"matcher"`

	// HorizontalFOV is the lens field of view in degrees.
	HorizontalFOV float64 `json:"hfov"`
	// FrameWidth is the nominal image width used to convert pixels to degrees.
	FrameWidth int `json:"frame_width"`
}

// DefaultConfig returns the tuning used on the robot.
func DefaultConfig() Config {
	return Config{
		Preprocess: vision.PreprocessConfig{
			Width:      320,
			Height:     180,
			Blur:       vision.BlurGaussian,
			BlurRadius: 4.716981132075471,
			Red:        vision.Range{Min: 205, Max: 255},
			Green:      vision.Range{Min: 205, Max: 255},
			Blue:       vision.Range{Min: 205, Max: 255},
		},
		Contours: vision.ExtractConfig{
			Mode:      vision.ContourList,
			HullOrder: vision.HullThenFilter,
			Filter:    vision.DefaultFilterCriteria(),
		},
		Matcher:       target.PolicyLargest,
		HorizontalFOV: 65.8725303703,
		FrameWidth:    320,
	}
}

// Validate reports the first problem with c, wrapped in ErrInvalidConfig.
func (c Config) Validate() error {
	if err := c.Preprocess.Validate(); err != nil {
		return fmt.Errorf("%w: preprocess: %v", ErrInvalidConfig, err)
	}
	if err := c.Contours.Validate(); err != nil {
		return fmt.Errorf("%w: contours: %v", ErrInvalidConfig, err)
	}
	if _, err := target.NewMatcher(c.Matcher); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if math.IsNaN(c.HorizontalFOV) || c.HorizontalFOV <= 0 || c.HorizontalFOV >= 360 {
		return fmt.Errorf("%w: hfov %v must be in (0,360)", ErrInvalidConfig, c.HorizontalFOV)
	}
	if c.FrameWidth <= 0 {
		return fmt.Errorf("%w: frame width %d must be positive", ErrInvalidConfig, c.FrameWidth)
	}
	return nil
}

// Pipeline turns frames into detection results. It holds only its validated
// config and is safe for concurrent use.
type Pipeline struct {
	config  Config
	matcher target.Matcher
}

// New validates config and builds a pipeline.
func New(config Config) (*Pipeline, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	matcher, err := target.NewMatcher(config.Matcher)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return &Pipeline{config: config, matcher: matcher}, nil
}

// Config returns the pipeline's configuration.
func (p *Pipeline) Config() Config {
	return p.config
}

// Inspection is a detection result together with the intermediate values
// that produced it, for debug overlays.
type Inspection struct {
	// Frame is the resized frame; owned by the Inspection.
	Frame      gocv.Mat
	Candidates []vision.Candidate
	Pair       *target.Pair
	Result     target.DetectionResult
}

// Close releases the resized frame.
func (i *Inspection) Close() error {
	return i.Frame.Close()
}

// Process runs every stage on frame. The frame is only read.
// A frame without a target is not an error: the result has TargetExists false.
func (p *Pipeline) Process(frame *gocv.Mat) (target.DetectionResult, error) {
	insp, err := p.Inspect(frame)
	if err != nil {
		return target.DetectionResult{}, err
	}
	defer insp.Close()
	return insp.Result, nil
}

// Inspect is Process but also returns the resized frame, the candidates and
// the matched pair. The caller must Close the Inspection.
func (p *Pipeline) Inspect(frame *gocv.Mat) (*Inspection, error) {
	if frame == nil {
		return nil, ErrEmptyFrame
	}

	resized, mask, err := vision.Preprocess(*frame, p.config.Preprocess)
	if err != nil {
		return nil, fmt.Errorf("preprocess: %w", err)
	}
	defer mask.Close()

	insp := &Inspection{
		Frame:      resized,
		Candidates: vision.Extract(mask, p.config.Contours),
		Result:     target.NoTarget(),
	}

	pair, ok := p.matcher.Match(insp.Candidates)
	if ok {
		insp.Result = target.Estimate(pair, p.config.FrameWidth, p.config.HorizontalFOV)
		if insp.Result.TargetExists {
			insp.Pair = &pair
		}
	}
	return insp, nil
}
