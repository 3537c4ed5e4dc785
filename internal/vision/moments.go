package vision

import "image"

// Moments holds the zeroth and first-order spatial moments of a polygon.
type Moments struct {
	M00 float64 // Area
	M10 float64 // Sum of x weighted by area
	M01 float64 // Sum of y weighted by area
}

// ContourMoments computes the moments of the closed polygon c using Green's
// theorem, the same way OpenCV treats a point contour. The sign is normalized
// so M00 is never negative regardless of point orientation. Polygons with
// fewer than 3 points have zero moments.
//
// gocv.Moments only accepts a raster Mat, so contour moments are computed
// directly from the points.
func ContourMoments(c Contour) Moments {
	n := len(c)
	if n < 3 {
		return Moments{}
	}

	var a00, a10, a01 float64
	prev := c[n-1]
	for _, p := range c {
		xi1, yi1 := float64(prev.X), float64(prev.Y)
		xi, yi := float64(p.X), float64(p.Y)

		dxy := xi1*yi - xi*yi1
		a00 += dxy
		a10 += dxy * (xi1 + xi)
		a01 += dxy * (yi1 + yi)

		prev = p
	}

	m := Moments{
		M00: a00 / 2,
		M10: a10 / 6,
		M01: a01 / 6,
	}
	if m.M00 < 0 {
		m.M00, m.M10, m.M01 = -m.M00, -m.M10, -m.M01
	}
	return m
}

// Centroid returns (M10/M00, M01/M00) truncated toward zero. It reports false
// for degenerate shapes with M00 == 0.
func (m Moments) Centroid() (image.Point, bool) {
	if m.M00 == 0 {
		return image.Point{}, false
	}
	return image.Pt(int(m.M10/m.M00), int(m.M01/m.M00)), true
}
