// Package categorize maps permit durations onto building-height categories.
package categorize

import (
	"fmt"
	"sort"

	"github.com/Veraticus/permitflow/internal/common"
	"github.com/Veraticus/permitflow/internal/model"
)

// Bounds holds the inclusive upper day-count bound of the first three
// categories; anything above the last bound falls into the tallest one.
type Bounds [model.NumCategories - 1]int

// DefaultThresholds are the duration bounds per subtype.
func DefaultThresholds() map[model.Subtype]Bounds {
	return map[model.Subtype]Bounds{
		model.SubtypeBL: {60, 120, 179},
		model.SubtypeMH: {120, 180, 269},
	}
}

// Categorizer assigns height categories from (subtype, duration) pairs.
type Categorizer struct {
	bounds map[model.Subtype]Bounds
}

// New builds a categorizer from per-subtype bounds. Bounds must be
// non-negative and strictly ascending.
func New(thresholds map[model.Subtype]Bounds) (*Categorizer, error) {
	c := &Categorizer{bounds: make(map[model.Subtype]Bounds, len(thresholds))}
	for subtype, b := range thresholds {
		if err := b.validate(); err != nil {
			return nil, fmt.Errorf("%w: thresholds for %s: %v", common.ErrInvalidConfig, subtype, err)
		}
		c.bounds[subtype] = b
	}
	return c, nil
}

// Default returns a categorizer using DefaultThresholds.
func Default() *Categorizer {
	c, err := New(DefaultThresholds())
	if err != nil {
		panic(err)
	}
	return c
}

func (b Bounds) validate() error {
	if b[0] < 0 {
		return fmt.Errorf("bound %d is negative", b[0])
	}
	if !sort.SliceIsSorted(b[:], func(i, j int) bool { return b[i] < b[j] }) {
		return fmt.Errorf("bounds %v are not ascending", b)
	}
	for i := 1; i < len(b); i++ {
		if b[i] == b[i-1] {
			return fmt.Errorf("bounds %v repeat %d", b, b[i])
		}
	}
	return nil
}

// Categorize returns the height category for a duration in days. It
// reports false for an unknown subtype or a negative duration.
func (c *Categorizer) Categorize(subtype model.Subtype, duration int) (model.HeightCategory, bool) {
	b, ok := c.bounds[subtype]
	if !ok || duration < 0 {
		return 0, false
	}
	for i, upper := range b {
		if duration <= upper {
			return model.Categories[i], true
		}
	}
	return model.FloorsOver15, true
}

// Bounds returns the bounds configured for subtype.
func (c *Categorizer) Bounds(subtype model.Subtype) (Bounds, bool) {
	b, ok := c.bounds[subtype]
	return b, ok
}
