// Package target pairs vision candidates into one target and converts the pair
// into a yaw angle.
package target

import (
	"fmt"
	"math"
	"strings"

	"github.com/frc2554/targetvision/internal/vision"
)

// Pair is two candidates judged to form one target. First has the larger
// area; on equal areas First is the later-discovered candidate.
type Pair struct {
	First  vision.Candidate
	Second vision.Candidate
}

// Matcher selects the target pair from a frame's candidates.
type Matcher interface {
	// Match returns the pair and true, or false when no pair exists.
	// Candidates with zero area moments are never returned.
	Match(candidates []vision.Candidate) (Pair, bool)
}

// Policy names a matching strategy.
type Policy string

const (
	// PolicyLargest pairs the two largest candidates.
	PolicyLargest Policy = "largest"
	// PolicyAngle pairs the largest candidate with the first one whose
	// rotation angle is consistent with it.
	PolicyAngle Policy = "angle"
)

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Policy) UnmarshalText(text []byte) error {
	policy := Policy(strings.ToLower(strings.TrimSpace(string(text))))
	switch policy {
	case PolicyLargest, PolicyAngle:
		*p = policy
		return nil
	default:
		return fmt.Errorf("unknown matcher policy %q", string(text))
	}
}

// NewMatcher returns the matcher for policy.
func NewMatcher(policy Policy) (Matcher, error) {
	switch policy {
	case PolicyLargest:
		return LargestPair{}, nil
	case PolicyAngle:
		return NewAngleConsistency(), nil
	default:
		return nil, fmt.Errorf("unknown matcher policy %q", string(policy))
	}
}

// usable drops candidates whose centroid is undefined.
func usable(candidates []vision.Candidate) []vision.Candidate {
	out := make([]vision.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Moments.M00 != 0 {
			out = append(out, c)
		}
	}
	return out
}

// LargestPair picks the two candidates with the largest area.
type LargestPair struct{}

// Match implements Matcher.
func (LargestPair) Match(candidates []vision.Candidate) (Pair, bool) {
	ranked := vision.RankByArea(usable(candidates))
	if len(ranked) < 2 {
		return Pair{}, false
	}
	return Pair{First: ranked[0], Second: ranked[1]}, true
}

// AngleConsistency anchors on the largest candidate and accepts the first
// smaller candidate, in descending area order, whose rectangle angle satisfies
//
//	diff := | |angle| - |anchorAngle| |
//	(diff - Offset) < Tolerance
//
// With the default Offset 80 and Tolerance 20 this accepts any diff below 100.
// The window is kept exactly as tuned on the robot; whether a tight band
// around 80 degrees was meant has never been settled.
type AngleConsistency struct {
	Offset    float64
	Tolerance float64
}

// NewAngleConsistency returns the matcher with the tuned defaults.
func NewAngleConsistency() AngleConsistency {
	return AngleConsistency{Offset: 80, Tolerance: 20}
}

// Accepts reports whether a candidate angle is consistent with the anchor angle.
func (m AngleConsistency) Accepts(anchorAngle, angle float64) bool {
	diff := math.Abs(math.Abs(angle) - math.Abs(anchorAngle))
	return (diff - m.Offset) < m.Tolerance
}

// Match implements Matcher.
func (m AngleConsistency) Match(candidates []vision.Candidate) (Pair, bool) {
	ranked := vision.RankByArea(usable(candidates))
	if len(ranked) < 2 {
		return Pair{}, false
	}

	anchor := ranked[0]
	for _, c := range ranked[1:] {
		if !m.Accepts(anchor.Angle, c.Angle) {
			continue
		}
		// The chosen two are ordered again by area, with the same tie rule.
		pair := vision.RankByArea([]vision.Candidate{anchor, c})
		return Pair{First: pair[0], Second: pair[1]}, true
	}
	return Pair{}, false
}
