package vision

import (
	"fmt"
	"image"
	"strings"

	"gocv.io/x/gocv"
)

// Contour is a closed polygon given by its boundary points in pixel space.
type Contour []image.Point

// ContourMode selects which boundaries FindContours reports.
type ContourMode int

const (
	// ContourList reports every boundary, nested ones included, as a flat list.
	ContourList ContourMode = iota
	// ContourExternal reports only the outermost boundaries.
	ContourExternal
)

// String returns "list" or "external".
func (m ContourMode) String() string {
	switch m {
	case ContourList:
		return "list"
	case ContourExternal:
		return "external"
	default:
		return fmt.Sprintf("ContourMode(%d)", int(m))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m ContourMode) MarshalText() ([]byte, error) {
	if m != ContourList && m != ContourExternal {
		return nil, fmt.Errorf("unknown contour mode %d", int(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *ContourMode) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "list", "all":
		*m = ContourList
	case "external":
		*m = ContourExternal
	default:
		return fmt.Errorf("unknown contour mode %q", string(text))
	}
	return nil
}

func (m ContourMode) retrieval() gocv.RetrievalMode {
	if m == ContourExternal {
		return gocv.RetrievalExternal
	}
	return gocv.RetrievalList
}

// FindContours traces the boundaries of white regions in a binary mask.
// Collinear points along straight runs are dropped (CHAIN_APPROX_SIMPLE).
// Empty boundaries are skipped, so every returned contour has at least one point.
func FindContours(mask gocv.Mat, mode ContourMode) []Contour {
	pvs := gocv.FindContours(mask, mode.retrieval(), gocv.ChainApproxSimple)
	defer pvs.Close()

	all := pvs.ToPoints()
	contours := make([]Contour, 0, len(all))
	for _, pts := range all {
		if len(pts) == 0 {
			continue
		}
		contours = append(contours, Contour(pts))
	}
	return contours
}

// ConvexHull returns the smallest convex polygon enclosing c, as a subset of
// its points.
func ConvexHull(c Contour) Contour {
	if len(c) == 0 {
		return nil
	}

	pv := gocv.NewPointVectorFromPoints(c)
	defer pv.Close()

	// Hull indices (returnPoints=false) map straight back into c.
	indices := gocv.NewMat()
	defer indices.Close()
	gocv.ConvexHull(pv, &indices, false, false)

	hull := make(Contour, 0, indices.Rows())
	for i := 0; i < indices.Rows(); i++ {
		idx := int(indices.GetIntAt(i, 0))
		if idx < 0 || idx >= len(c) {
			continue
		}
		hull = append(hull, c[idx])
	}
	return hull
}

// Metrics are the geometric measurements the contour filter evaluates.
type Metrics struct {
	Width     int     // Bounding-box width in pixels
	Height    int     // Bounding-box height in pixels
	Area      float64 // Polygon area
	Perimeter float64 // Closed arc length
	HullArea  float64 // Area of a freshly computed convex hull
	Vertices  int     // Number of contour points
}

// Solidity returns 100 * Area / HullArea. The second result is false when
// the hull has zero area and solidity is undefined.
func (m Metrics) Solidity() (float64, bool) {
	if m.HullArea == 0 {
		return 0, false
	}
	return 100 * m.Area / m.HullArea, true
}

// Ratio returns Width / Height, false when Height is zero.
func (m Metrics) Ratio() (float64, bool) {
	if m.Height == 0 {
		return 0, false
	}
	return float64(m.Width) / float64(m.Height), true
}

// Measure computes the filter metrics of c. The hull used for solidity is
// always recomputed from c, even when c is already a hull.
func Measure(c Contour) Metrics {
	if len(c) == 0 {
		return Metrics{}
	}

	pv := gocv.NewPointVectorFromPoints(c)
	defer pv.Close()

	bounds := gocv.BoundingRect(pv)

	hull := ConvexHull(c)
	var hullArea float64
	if len(hull) > 0 {
		hv := gocv.NewPointVectorFromPoints(hull)
		hullArea = gocv.ContourArea(hv)
		hv.Close()
	}

	return Metrics{
		Width:     bounds.Dx(),
		Height:    bounds.Dy(),
		Area:      gocv.ContourArea(pv),
		Perimeter: gocv.ArcLength(pv, true),
		HullArea:  hullArea,
		Vertices:  len(c),
	}
}

// RotationAngle returns the angle, in degrees, of the minimum-area rectangle
// enclosing c, using OpenCV's RotatedRect convention.
func RotationAngle(c Contour) float64 {
	if len(c) == 0 {
		return 0
	}
	pv := gocv.NewPointVectorFromPoints(c)
	defer pv.Close()
	return gocv.MinAreaRect(pv).Angle
}
