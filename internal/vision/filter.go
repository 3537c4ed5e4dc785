package vision

import (
	"fmt"
	"math"
)

// FilterCriteria bounds the geometry a contour must have to be considered a
// target candidate. Every range is closed: a value equal to a bound passes.
type FilterCriteria struct {
	MinArea      float64 `json:"min_area"`
	MinPerimeter float64 `json:"min_perimeter"`
	Width        Range   `json:"width"`
	Height       Range   `json:"height"`
	Solidity     Range   `json:"solidity"` // Percent, within [0,100]
	Vertices     Range   `json:"vertices"`
	Ratio        Range   `json:"ratio"` // Width / height
}

// DefaultFilterCriteria returns the tuned retro-reflective tape bounds.
func DefaultFilterCriteria() FilterCriteria {
	return FilterCriteria{
		MinArea:      100,
		MinPerimeter: 0,
		Width:        Range{Min: 0, Max: 1000},
		Height:       Range{Min: 0, Max: 1000},
		Solidity:     Range{Min: 0, Max: 100},
		Vertices:     Range{Min: 0, Max: 1000000},
		Ratio:        Range{Min: 0, Max: 1000},
	}
}

// Validate rejects malformed ranges and out-of-domain bounds.
func (f FilterCriteria) Validate() error {
	if math.IsNaN(f.MinArea) || f.MinArea < 0 {
		return fmt.Errorf("min area %v must be >= 0", f.MinArea)
	}
	if math.IsNaN(f.MinPerimeter) || f.MinPerimeter < 0 {
		return fmt.Errorf("min perimeter %v must be >= 0", f.MinPerimeter)
	}

	ranges := []struct {
		name string
		r    Range
	}{
		{"width", f.Width},
		{"height", f.Height},
		{"solidity", f.Solidity},
		{"vertices", f.Vertices},
		{"ratio", f.Ratio},
	}
	for _, nr := range ranges {
		if err := nr.r.Validate(); err != nil {
			return fmt.Errorf("%s: %w", nr.name, err)
		}
	}

	if f.Solidity.Min < 0 || f.Solidity.Max > 100 {
		return fmt.Errorf("solidity %v outside [0,100]", f.Solidity)
	}
	return nil
}

// Accept reports whether contour c passes every criterion.
func (f FilterCriteria) Accept(c Contour) bool {
	if len(c) == 0 {
		return false
	}
	return f.AcceptMetrics(Measure(c))
}

// AcceptMetrics applies the criteria to precomputed metrics. Each check is
// independent; the first failing one rejects. A zero-area hull is rejected
// rather than producing an undefined solidity.
func (f FilterCriteria) AcceptMetrics(m Metrics) bool {
	if !f.Width.Contains(float64(m.Width)) {
		return false
	}
	if !f.Height.Contains(float64(m.Height)) {
		return false
	}
	if m.Area < f.MinArea {
		return false
	}
	if m.Perimeter < f.MinPerimeter {
		return false
	}

	solidity, ok := m.Solidity()
	if !ok || !f.Solidity.Contains(solidity) {
		return false
	}

	if !f.Vertices.Contains(float64(m.Vertices)) {
		return false
	}

	ratio, ok := m.Ratio()
	if !ok || !f.Ratio.Contains(ratio) {
		return false
	}
	return true
}
