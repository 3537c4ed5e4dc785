package vision

import (
	"encoding/json"
	"fmt"
	"math"
)

// Range is a closed interval [Min, Max]. It encodes to JSON as a two-element
// array, e.g. [205, 255].
type Range struct {
	Min float64
	Max float64
}

// Contains reports whether v lies inside the interval; bounds are inclusive.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Validate rejects NaN bounds and intervals with Min > Max.
func (r Range) Validate() error {
	if math.IsNaN(r.Min) || math.IsNaN(r.Max) {
		return fmt.Errorf("range %v has NaN bound", r)
	}
	if r.Min > r.Max {
		return fmt.Errorf("range %v has min > max", r)
	}
	return nil
}

// String formats the range as [min,max].
func (r Range) String() string {
	return fmt.Sprintf("[%g,%g]", r.Min, r.Max)
}

// MarshalJSON implements json.Marshaler.
func (r Range) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{r.Min, r.Max})
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *Range) UnmarshalJSON(data []byte) error {
	var bounds []float64
	if err := json.Unmarshal(data, &bounds); err != nil {
		return fmt.Errorf("range must be [min, max]: %w", err)
	}
	if len(bounds) != 2 {
		return fmt.Errorf("range must have exactly 2 values, got %d", len(bounds))
	}
	r.Min, r.Max = bounds[0], bounds[1]
	return nil
}
