// Package estimate predicts permit duration and renewal count for a job
// profile and runs Monte Carlo simulations over historical permits.
package estimate

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/Veraticus/permitflow/internal/common"
	"github.com/Veraticus/permitflow/internal/model"
)

// Feature defaults used when a profile leaves region or category unset.
const (
	DefaultRegion   = "MANHATTAN"
	DefaultCategory = model.Floors6To10
)

// Features describes the job profile a prediction is made for. An empty
// Region or nil Category means DefaultRegion or DefaultCategory.
type Features struct {
	WorkType model.Subtype
	Region   string
	Category *model.HeightCategory
}

// HeightCategory returns the category in effect for f.
func (f Features) HeightCategory() model.HeightCategory {
	if f.Category == nil || !f.Category.Valid() {
		return DefaultCategory
	}
	return *f.Category
}

// Prediction is a point estimate for a job profile.
type Prediction struct {
	Duration float64 // days
	Sequence int     // permit issuances, including the first
}

// Predictor produces point estimates. Implementations must be safe to
// call repeatedly with the same features.
type Predictor interface {
	Predict(ctx context.Context, f Features) (Prediction, error)
}

type cellKey struct {
	workType model.Subtype
	region   string
	category model.HeightCategory
	level    int
}

// Fallback levels, from most to least specific.
const (
	levelFull = iota
	levelRegion
	levelCategory
	levelWorkType
	numLevels
)

type cell struct {
	durationSum float64
	sequenceSum float64
	n           int
	// sequenced counts the permits that carried a sequence
	sequenced int
}

// EmpiricalModel predicts from mean duration and sequence of stored
// permits sharing the profile. When no permit matches the full profile it
// falls back to work type and region, then work type and category, then
// work type alone.
type EmpiricalModel struct {
	cells map[cellKey]*cell
	total int
}

var _ Predictor = (*EmpiricalModel)(nil)

// Fit builds an EmpiricalModel from stored permits.
func Fit(permits []model.StoredPermit) (*EmpiricalModel, error) {
	if len(permits) == 0 {
		return nil, fmt.Errorf("fit model: %w", common.ErrInsufficientData)
	}
	m := &EmpiricalModel{cells: make(map[cellKey]*cell)}
	for _, p := range permits {
		for level := 0; level < numLevels; level++ {
			k := key(p.Subtype, p.Group, p.Category, level)
			c, ok := m.cells[k]
			if !ok {
				c = &cell{}
				m.cells[k] = c
			}
			c.durationSum += float64(p.Duration)
			c.n++
			if p.HasSequence() {
				c.sequenceSum += float64(p.Sequence)
				c.sequenced++
			}
		}
		m.total++
	}
	return m, nil
}

func key(workType model.Subtype, region string, category model.HeightCategory, level int) cellKey {
	k := cellKey{workType: workType, level: level}
	switch level {
	case levelFull:
		k.region, k.category = normalizeRegion(region), category
	case levelRegion:
		k.region = normalizeRegion(region)
	case levelCategory:
		k.category = category
	}
	return k
}

func normalizeRegion(r string) string {
	return strings.ToUpper(strings.TrimSpace(r))
}

// Size returns the number of permits the model was fitted on.
func (m *EmpiricalModel) Size() int {
	return m.total
}

// Predict returns the mean duration of the most specific populated cell
// and the rounded mean sequence of the most specific cell with sequences.
// Sequence is 0 when no fitted permit carried one.
func (m *EmpiricalModel) Predict(ctx context.Context, f Features) (Prediction, error) {
	if err := ctx.Err(); err != nil {
		return Prediction{}, err
	}
	if _, ok := model.ParseSubtype(string(f.WorkType)); !ok {
		return Prediction{}, fmt.Errorf("%w: work type %q", common.ErrUnknownSubtype, f.WorkType)
	}
	region := f.Region
	if strings.TrimSpace(region) == "" {
		region = DefaultRegion
	}
	category := f.HeightCategory()

	var (
		pred  Prediction
		found bool
	)
	for level := 0; level < numLevels; level++ {
		c, ok := m.cells[key(f.WorkType, region, category, level)]
		if !ok || c.n == 0 {
			continue
		}
		if !found {
			pred.Duration = c.durationSum / float64(c.n)
			found = true
		}
		if c.sequenced > 0 {
			pred.Sequence = int(math.Round(c.sequenceSum / float64(c.sequenced)))
			break
		}
	}
	if !found {
		return Prediction{}, fmt.Errorf("no permits for work type %s: %w", f.WorkType, common.ErrInsufficientData)
	}
	return pred, nil
}
