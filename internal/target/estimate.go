package target

import "image"

// Sentinels reported when no target is found. Both lie outside anything a
// real frame or lens can produce.
const (
	NoCenter = -1
	NoYaw    = -420.0
)

// Published field names.
const (
	FieldTargetExists = "target_exists"
	FieldCenter1      = "center1"
	FieldCenter2      = "center2"
	FieldMidpoint     = "midpoint"
	FieldYawAngle     = "yaw_angle"
)

// DetectionResult is the per-frame output of the pipeline.
type DetectionResult struct {
	TargetExists bool       `json:"target_exists"`
	Center1      [2]int     `json:"center1"`
	Center2      [2]int     `json:"center2"`
	Midpoint     [2]float64 `json:"midpoint"`
	YawAngle     float64    `json:"yaw_angle"` // Degrees, negative is left of center
}

// NoTarget returns the result for a frame without a target pair.
func NoTarget() DetectionResult {
	return DetectionResult{
		TargetExists: false,
		Center1:      [2]int{NoCenter, NoCenter},
		Center2:      [2]int{NoCenter, NoCenter},
		Midpoint:     [2]float64{NoCenter, NoCenter},
		YawAngle:     NoYaw,
	}
}

// Fields returns the result keyed by published field name.
func (r DetectionResult) Fields() map[string]any {
	return map[string]any{
		FieldTargetExists: r.TargetExists,
		FieldCenter1:      r.Center1,
		FieldCenter2:      r.Center2,
		FieldMidpoint:     r.Midpoint,
		FieldYawAngle:     r.YawAngle,
	}
}

// DegreesPerPixel converts a horizontal pixel offset to degrees.
func DegreesPerPixel(imageWidth int, hfov float64) float64 {
	return hfov / float64(imageWidth)
}

// ImageCenterColumn is the pixel column of the optical center, (width-1)/2
// with integer division.
func ImageCenterColumn(imageWidth int) int {
	return (imageWidth - 1) / 2
}

// Estimate converts a matched pair into centroids, midpoint and yaw.
// A pair member with zero area yields NoTarget.
func Estimate(pair Pair, imageWidth int, hfov float64) DetectionResult {
	c1, ok1 := pair.First.Centroid()
	c2, ok2 := pair.Second.Centroid()
	if !ok1 || !ok2 || imageWidth <= 0 {
		return NoTarget()
	}

	mid := midpoint(c1, c2)
	yaw := (mid[0] - float64(ImageCenterColumn(imageWidth))) * DegreesPerPixel(imageWidth, hfov)

	return DetectionResult{
		TargetExists: true,
		Center1:      [2]int{c1.X, c1.Y},
		Center2:      [2]int{c2.X, c2.Y},
		Midpoint:     mid,
		YawAngle:     yaw,
	}
}

func midpoint(a, b image.Point) [2]float64 {
	return [2]float64{
		float64(a.X+b.X) / 2,
		float64(a.Y+b.Y) / 2,
	}
}
