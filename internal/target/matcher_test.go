package target

import (
	"encoding/json"
	"image"
	"testing"

	"github.com/frc2554/targetvision/internal/vision"
)

// rect builds a candidate for an axis-aligned rectangle outline with corners
// at (cx±hw, cy±hh).
func rect(cx, cy, hw, hh int, angle float64) vision.Candidate {
	c := vision.Contour{
		{cx - hw, cy - hh},
		{cx - hw, cy + hh},
		{cx + hw, cy + hh},
		{cx + hw, cy - hh},
	}
	m := vision.ContourMoments(c)
	return vision.Candidate{
		Contour: c,
		Area:    m.M00,
		Bounds:  image.Rect(cx-hw, cy-hh, cx+hw+1, cy+hh+1),
		Angle:   angle,
		Moments: m,
	}
}

func centroid(t *testing.T, c vision.Candidate) image.Point {
	t.Helper()
	p, ok := c.Centroid()
	if !ok {
		t.Fatal("candidate has no centroid")
	}
	return p
}

func TestLargestPair_Match(t *testing.T) {
	small := rect(250, 100, 5, 5, 0)
	a := rect(50, 60, 10, 20, 0)
	b := rect(150, 60, 10, 15, 0)

	pair, ok := LargestPair{}.Match([]vision.Candidate{small, a, b})
	if !ok {
		t.Fatal("expected a pair")
	}
	if got := centroid(t, pair.First); got != image.Pt(50, 60) {
		t.Errorf("First centroid = %v, want (50,60)", got)
	}
	if got := centroid(t, pair.Second); got != image.Pt(150, 60) {
		t.Errorf("Second centroid = %v, want (150,60)", got)
	}
}

func TestLargestPair_TieBreak(t *testing.T) {
	a := rect(50, 60, 10, 20, 0)
	b := rect(150, 60, 10, 20, 0)
	c := rect(250, 60, 10, 20, 0)

	pair, ok := LargestPair{}.Match([]vision.Candidate{a, b, c})
	if !ok {
		t.Fatal("expected a pair")
	}
	// Equal areas: later-discovered candidates rank first.
	if got := centroid(t, pair.First); got != image.Pt(250, 60) {
		t.Errorf("First centroid = %v, want (250,60)", got)
	}
	if got := centroid(t, pair.Second); got != image.Pt(150, 60) {
		t.Errorf("Second centroid = %v, want (150,60)", got)
	}
}

func TestMatchers_InsufficientCandidates(t *testing.T) {
	degenerate := vision.Candidate{Contour: vision.Contour{{1, 1}, {5, 5}, {9, 9}}, Area: 0}

	inputs := map[string][]vision.Candidate{
		"none":                 nil,
		"one":                  {rect(50, 60, 10, 20, 0)},
		"one plus degenerate":  {rect(50, 60, 10, 20, 0), degenerate},
		"only degenerate ones": {degenerate, degenerate},
	}
	matchers := map[string]Matcher{
		"largest": LargestPair{},
		"angle":   NewAngleConsistency(),
	}

	for mname, m := range matchers {
		for iname, in := range inputs {
			t.Run(mname+"/"+iname, func(t *testing.T) {
				if _, ok := m.Match(in); ok {
					t.Error("expected no pair")
				}
			})
		}
	}
}

func TestLargestPair_SkipsZeroMoments(t *testing.T) {
	// Large reported area but zero moments must never be paired.
	degenerate := vision.Candidate{Contour: vision.Contour{{0, 0}, {100, 0}}, Area: 5000}
	a := rect(50, 60, 10, 20, 0)
	b := rect(150, 60, 10, 15, 0)

	pair, ok := LargestPair{}.Match([]vision.Candidate{degenerate, a, b})
	if !ok {
		t.Fatal("expected a pair")
	}
	if pair.First.Moments.M00 == 0 || pair.Second.Moments.M00 == 0 {
		t.Error("pair contains a zero-moment candidate")
	}
}

func TestAngleConsistency_Accepts(t *testing.T) {
	m := NewAngleConsistency()

	tests := []struct {
		name   string
		anchor float64
		angle  float64
		want   bool
	}{
		{name: "same angle", anchor: -10, angle: -10, want: true},
		{name: "diff 80", anchor: 0, angle: -80, want: true},
		{name: "diff 99.9", anchor: 0.1, angle: 100, want: true},
		{name: "diff exactly 100", anchor: 0, angle: 100, want: false},
		{name: "diff 150", anchor: 10, angle: -160, want: false},
		{name: "sign ignored", anchor: -45, angle: 45, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := m.Accepts(tt.anchor, tt.angle); got != tt.want {
				t.Errorf("Accepts(%v, %v) = %v, want %v", tt.anchor, tt.angle, got, tt.want)
			}
		})
	}
}

func TestAngleConsistency_Match(t *testing.T) {
	anchor := rect(50, 60, 10, 20, -5)
	rejected := rect(150, 60, 10, 15, 170)
	partner := rect(250, 60, 10, 10, -85)
	later := rect(200, 120, 5, 5, -5)

	pair, ok := NewAngleConsistency().Match([]vision.Candidate{later, partner, anchor, rejected})
	if !ok {
		t.Fatal("expected a pair")
	}
	if got := centroid(t, pair.First); got != image.Pt(50, 60) {
		t.Errorf("First centroid = %v, want anchor (50,60)", got)
	}
	// The larger but inconsistent candidate is skipped; scanning stops at the
	// first acceptance so the smaller consistent one is never reached.
	if got := centroid(t, pair.Second); got != image.Pt(250, 60) {
		t.Errorf("Second centroid = %v, want (250,60)", got)
	}
}

func TestAngleConsistency_NoPartner(t *testing.T) {
	anchor := rect(50, 60, 10, 20, 0)
	other := rect(150, 60, 10, 15, 120)

	if _, ok := NewAngleConsistency().Match([]vision.Candidate{anchor, other}); ok {
		t.Error("expected no pair when no angle is consistent")
	}
}

func TestAngleConsistency_TieReordersPair(t *testing.T) {
	first := rect(50, 60, 10, 20, 0)
	second := rect(150, 60, 10, 20, 0)

	pair, ok := NewAngleConsistency().Match([]vision.Candidate{first, second})
	if !ok {
		t.Fatal("expected a pair")
	}
	// The later equal-area candidate is the anchor. Re-ranking the chosen
	// pair then puts the partner first since it follows the anchor.
	if got := centroid(t, pair.First); got != image.Pt(50, 60) {
		t.Errorf("First centroid = %v, want (50,60)", got)
	}
	if got := centroid(t, pair.Second); got != image.Pt(150, 60) {
		t.Errorf("Second centroid = %v, want (150,60)", got)
	}
}

func TestNewMatcher(t *testing.T) {
	if m, err := NewMatcher(PolicyLargest); err != nil {
		t.Errorf("largest: %v", err)
	} else if _, ok := m.(LargestPair); !ok {
		t.Errorf("largest: got %T", m)
	}

	if m, err := NewMatcher(PolicyAngle); err != nil {
		t.Errorf("angle: %v", err)
	} else if ac, ok := m.(AngleConsistency); !ok || ac.Offset != 80 || ac.Tolerance != 20 {
		t.Errorf("angle: got %#v", m)
	}

	if _, err := NewMatcher("nearest"); err == nil {
		t.Error("expected error for unknown policy")
	}
}

func TestPolicy_JSON(t *testing.T) {
	var cfg struct {
		Matcher Policy `json:"matcher"`
	}
	if err := json.Unmarshal([]byte(`{"matcher":"Angle"}`), &cfg); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if cfg.Matcher != PolicyAngle {
		t.Errorf("Matcher = %q, want angle", cfg.Matcher)
	}
	if err := json.Unmarshal([]byte(`{"matcher":"random"}`), &cfg); err == nil {
		t.Error("expected error for unknown policy")
	}
}
