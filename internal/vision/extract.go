package vision

import (
	"fmt"
	"image"
	"slices"
	"sort"
	"strings"

	"gocv.io/x/gocv"
)

// HullOrder selects where the convex hull step sits relative to the filter.
type HullOrder int

const (
	// HullThenFilter replaces every contour with its hull and filters the hulls.
	HullThenFilter HullOrder = iota
	// FilterThenHull filters the raw contours and hulls only the survivors.
	FilterThenHull
)

// String returns "hull-then-filter" or "filter-then-hull".
func (o HullOrder) String() string {
	switch o {
	case HullThenFilter:
		return "hull-then-filter"
	case FilterThenHull:
		return "filter-then-hull"
	default:
		return fmt.Sprintf("HullOrder(%d)", int(o))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (o HullOrder) MarshalText() ([]byte, error) {
	if o != HullThenFilter && o != FilterThenHull {
		return nil, fmt.Errorf("unknown hull order %d", int(o))
	}
	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *HullOrder) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "hull-then-filter":
		*o = HullThenFilter
	case "filter-then-hull":
		*o = FilterThenHull
	default:
		return fmt.Errorf("unknown hull order %q", string(text))
	}
	return nil
}

// ExtractConfig configures contour discovery, hulling and filtering.
type ExtractConfig struct {
	Mode      ContourMode    `json:"mode"`
	HullOrder HullOrder      `json:"hull_order"`
	Filter    FilterCriteria `json:"filter"`
}

// Validate checks the enumerations and the filter bounds.
func (c ExtractConfig) Validate() error {
	if c.Mode != ContourList && c.Mode != ContourExternal {
		return fmt.Errorf("unknown contour mode %d", int(c.Mode))
	}
	if c.HullOrder != HullThenFilter && c.HullOrder != FilterThenHull {
		return fmt.Errorf("unknown hull order %d", int(c.HullOrder))
	}
	if err := c.Filter.Validate(); err != nil {
		return fmt.Errorf("filter: %w", err)
	}
	return nil
}

// Candidate is a contour that survived filtering, with the attributes the
// matcher and estimator need.
type Candidate struct {
	Contour Contour
	Area    float64
	Bounds  image.Rectangle
	Angle   float64 // Minimum-area rectangle rotation, degrees
	Moments Moments
	Rank    int // Position by descending area, 0 is largest; set by RankByArea
}

// Centroid returns the truncated centroid, false when the contour is degenerate.
func (c Candidate) Centroid() (image.Point, bool) {
	return c.Moments.Centroid()
}

// NewCandidate measures c. It does not apply any filter.
func NewCandidate(c Contour) Candidate {
	pv := gocv.NewPointVectorFromPoints(c)
	defer pv.Close()

	return Candidate{
		Contour: c,
		Area:    gocv.ContourArea(pv),
		Bounds:  gocv.BoundingRect(pv),
		Angle:   gocv.MinAreaRect(pv).Angle,
		Moments: ContourMoments(c),
	}
}

// Extract turns a binary mask into filtered target candidates, in discovery
// order. Contours with zero area moments are dropped here so no downstream
// stage divides by zero.
func Extract(mask gocv.Mat, cfg ExtractConfig) []Candidate {
	contours := FindContours(mask, cfg.Mode)

	var kept []Contour
	switch cfg.HullOrder {
	case FilterThenHull:
		for _, c := range contours {
			if cfg.Filter.Accept(c) {
				kept = append(kept, ConvexHull(c))
			}
		}
	default:
		for _, c := range contours {
			hull := ConvexHull(c)
			if len(hull) > 0 && cfg.Filter.Accept(hull) {
				kept = append(kept, hull)
			}
		}
	}

	candidates := make([]Candidate, 0, len(kept))
	for _, c := range kept {
		if len(c) == 0 {
			continue
		}
		cand := NewCandidate(c)
		if cand.Moments.M00 == 0 {
			continue
		}
		candidates = append(candidates, cand)
	}
	return candidates
}

// RankByArea returns a copy of cands ordered by descending area with Rank set.
// Equal areas keep reverse discovery order: the ordering is a stable ascending
// sort reversed, so a later candidate ranks ahead of an earlier one of the
// same area. The input slice is not modified.
func RankByArea(cands []Candidate) []Candidate {
	ranked := slices.Clone(cands)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Area < ranked[j].Area
	})
	slices.Reverse(ranked)
	for i := range ranked {
		ranked[i].Rank = i
	}
	return ranked
}
