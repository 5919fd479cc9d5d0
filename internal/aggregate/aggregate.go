// Package aggregate computes observed height-category distributions over
// permit records, per group and for the pooled population.
package aggregate

import (
	"math"
	"sort"

	"github.com/Veraticus/permitflow/internal/categorize"
	"github.com/Veraticus/permitflow/internal/model"
)

// Mode selects how percentages are reported.
type Mode int

const (
	// ModeProportion keeps full-precision percentages; display rounds them.
	ModeProportion Mode = iota
	// ModeCount reports counts with percentages rounded to one decimal.
	ModeCount
)

func (m Mode) String() string {
	switch m {
	case ModeProportion:
		return "proportion"
	case ModeCount:
		return "count"
	default:
		return "unknown"
	}
}

// ParseMode maps "proportion" or "count" to a Mode.
func ParseMode(s string) (Mode, bool) {
	switch s {
	case "proportion", "percent":
		return ModeProportion, true
	case "count", "counts":
		return ModeCount, true
	default:
		return ModeProportion, false
	}
}

// Aggregator buckets records with a categorizer and builds distributions.
type Aggregator struct {
	categorizer *categorize.Categorizer
	mode        Mode
}

// New creates an aggregator. A nil categorizer uses the default thresholds.
func New(c *categorize.Categorizer, mode Mode) *Aggregator {
	if c == nil {
		c = categorize.Default()
	}
	return &Aggregator{categorizer: c, mode: mode}
}

// Mode returns the aggregation mode.
func (a *Aggregator) Mode() Mode {
	return a.mode
}

// Distribution builds the distribution of one subtype over records.
// Records of other subtypes, or that decline categorization, are not
// counted in the denominator.
func (a *Aggregator) Distribution(records []model.PermitRecord, subtype model.Subtype) model.Distribution {
	d := model.Distribution{Subtype: subtype}
	for _, r := range records {
		if r.Subtype != subtype {
			continue
		}
		c, ok := a.categorizer.Categorize(r.Subtype, r.Duration)
		if !ok {
			continue
		}
		d.Counts[c]++
		d.Total++
	}
	if d.Total == 0 {
		return d
	}
	for i, n := range d.Counts {
		pct := float64(n) / float64(d.Total) * 100
		if a.mode == ModeCount {
			pct = Round1(pct)
		}
		d.Percent[i] = pct
	}
	return d
}

// Group builds distributions for every recognized subtype of one group.
func (a *Aggregator) Group(name string, records []model.PermitRecord) model.GroupDistribution {
	g := model.GroupDistribution{
		Group:     name,
		BySubtype: make(map[model.Subtype]model.Distribution, len(model.Subtypes)),
	}
	for _, s := range model.Subtypes {
		g.BySubtype[s] = a.Distribution(records, s)
	}
	return g
}

// ByGroup splits records by their Group field and aggregates each group.
// Every name in groups is present in the result, even with no records.
func (a *Aggregator) ByGroup(records []model.PermitRecord, groups ...string) map[string]model.GroupDistribution {
	split := make(map[string][]model.PermitRecord)
	for _, name := range groups {
		split[name] = nil
	}
	for _, r := range records {
		split[r.Group] = append(split[r.Group], r)
	}

	out := make(map[string]model.GroupDistribution, len(split))
	for name, recs := range split {
		out[name] = a.Group(name, recs)
	}
	return out
}

// Combined pools the records of all groups and aggregates them as one
// population.
func (a *Aggregator) Combined(groups map[string][]model.PermitRecord) model.GroupDistribution {
	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	var pooled []model.PermitRecord
	for _, name := range names {
		pooled = append(pooled, groups[name]...)
	}
	return a.Group(model.CombinedGroup, pooled)
}

// Averages returns the mean duration per recognized subtype.
func Averages(records []model.PermitRecord) map[model.Subtype]model.Average {
	out := make(map[model.Subtype]model.Average, len(model.Subtypes))
	sums := make(map[model.Subtype]int)
	for _, s := range model.Subtypes {
		out[s] = model.Average{Subtype: s}
	}
	for _, r := range records {
		avg, ok := out[r.Subtype]
		if !ok {
			continue
		}
		avg.Count++
		out[r.Subtype] = avg
		sums[r.Subtype] += r.Duration
	}
	for s, avg := range out {
		if avg.Count > 0 {
			avg.Mean = float64(sums[s]) / float64(avg.Count)
			out[s] = avg
		}
	}
	return out
}

// Round1 rounds v to one decimal place, half away from zero.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
