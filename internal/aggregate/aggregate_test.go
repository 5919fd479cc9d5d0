package aggregate

import (
	"testing"

	"github.com/Veraticus/permitflow/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeRecords(group string, subtype model.Subtype, durations ...int) []model.PermitRecord {
	out := make([]model.PermitRecord, 0, len(durations))
	for i, d := range durations {
		out = append(out, model.PermitRecord{Group: group, Subtype: subtype, Duration: d, Row: i + 2})
	}
	return out
}

func repeat(n, v int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func sumPercent(d model.Distribution) float64 {
	total := 0.0
	for _, p := range d.Percent {
		total += p
	}
	return total
}

func TestDistribution_Proportion(t *testing.T) {
	agg := New(nil, ModeProportion)
	records := append(makeRecords("Bronx", model.SubtypeBL, 10, 61, 150, 200),
		makeRecords("Bronx", model.SubtypeMH, 100, 100, 300)...)

	bl := agg.Distribution(records, model.SubtypeBL)
	assert.Equal(t, 4, bl.Total)
	assert.Equal(t, [model.NumCategories]int{1, 1, 1, 1}, bl.Counts)
	assert.Equal(t, [model.NumCategories]float64{25, 25, 25, 25}, bl.Percent)

	mh := agg.Distribution(records, model.SubtypeMH)
	assert.Equal(t, 3, mh.Total)
	assert.InDelta(t, 66.6667, mh.Share(model.Floors3To5), 1e-3)
	assert.Equal(t, 0.0, mh.Share(model.Floors6To10), "empty buckets are zero, not absent")
	assert.InDelta(t, 100.0, sumPercent(mh), 0.1)
}

func TestDistribution_CountMode(t *testing.T) {
	agg := New(nil, ModeCount)
	records := makeRecords("Queens", model.SubtypeMH, 100, 100, 300)

	d := agg.Distribution(records, model.SubtypeMH)
	assert.Equal(t, [model.NumCategories]int{2, 0, 0, 1}, d.Counts)
	assert.Equal(t, 66.7, d.Percent[model.Floors3To5])
	assert.Equal(t, 33.3, d.Percent[model.FloorsOver15])

	sum := 0
	for _, n := range d.Counts {
		sum += n
	}
	assert.Equal(t, d.Total, sum)
	assert.InDelta(t, 100.0, sumPercent(d), 0.1)
}

func TestDistribution_ExcludesUncategorized(t *testing.T) {
	agg := New(nil, ModeProportion)
	records := []model.PermitRecord{
		{Subtype: model.SubtypeBL, Duration: 30},
		{Subtype: model.SubtypeBL, Duration: -4},
		{Subtype: "PL", Duration: 30},
	}

	d := agg.Distribution(records, model.SubtypeBL)
	assert.Equal(t, 1, d.Total)
	assert.Equal(t, 100.0, d.Share(model.Floors3To5))
}

func TestGroup_Empty(t *testing.T) {
	for _, mode := range []Mode{ModeProportion, ModeCount} {
		g := New(nil, mode).Group("Staten Island", nil)

		require.Len(t, g.BySubtype, 2)
		for _, s := range model.Subtypes {
			d := g.Subtype(s)
			assert.True(t, d.Empty())
			assert.Equal(t, [model.NumCategories]float64{}, d.Percent)
			assert.Equal(t, [model.NumCategories]int{}, d.Counts)
		}
		assert.True(t, g.Empty())
	}
}

func TestCombined_PoolsRecords(t *testing.T) {
	agg := New(nil, ModeProportion)
	groups := map[string][]model.PermitRecord{
		"G1": makeRecords("G1", model.SubtypeBL, repeat(10, 30)...),
		"G2": makeRecords("G2", model.SubtypeBL, repeat(10, 500)...),
	}

	combined := agg.Combined(groups)
	bl := combined.Subtype(model.SubtypeBL)

	assert.Equal(t, model.CombinedGroup, combined.Group)
	assert.Equal(t, 20, bl.Total)
	assert.Equal(t, 50.0, bl.Share(model.Floors3To5))
	assert.Equal(t, 0.0, bl.Share(model.Floors6To10))
	assert.Equal(t, 0.0, bl.Share(model.Floors11To15))
	assert.Equal(t, 50.0, bl.Share(model.FloorsOver15))
}

func TestCombined_NotAverageOfGroups(t *testing.T) {
	agg := New(nil, ModeProportion)
	groups := map[string][]model.PermitRecord{
		"small": makeRecords("small", model.SubtypeMH, 10),
		"large": makeRecords("large", model.SubtypeMH, repeat(9, 400)...),
	}

	mh := agg.Combined(groups).Subtype(model.SubtypeMH)
	assert.InDelta(t, 10.0, mh.Share(model.Floors3To5), 1e-9)
	assert.InDelta(t, 90.0, mh.Share(model.FloorsOver15), 1e-9)
}

func TestByGroup(t *testing.T) {
	agg := New(nil, ModeCount)
	records := append(makeRecords("Bronx", model.SubtypeBL, 10, 20),
		makeRecords("Queens", model.SubtypeMH, 400)...)

	out := agg.ByGroup(records, "Bronx", "Queens", "Manhattan")
	require.Len(t, out, 3)
	assert.Equal(t, 2, out["Bronx"].Subtype(model.SubtypeBL).Total)
	assert.Equal(t, 1, out["Queens"].Subtype(model.SubtypeMH).Count(model.FloorsOver15))
	assert.True(t, out["Manhattan"].Empty())
}

func TestAggregate_Idempotent(t *testing.T) {
	agg := New(nil, ModeProportion)
	groups := map[string][]model.PermitRecord{
		"A": makeRecords("A", model.SubtypeMH, 1, 150, 200, 300, 121, 7),
		"B": makeRecords("B", model.SubtypeMH, 90, 95, 181, 600),
		"C": makeRecords("C", model.SubtypeBL, 60, 61, 179),
	}

	first := agg.Combined(groups)
	second := agg.Combined(groups)
	assert.Equal(t, first, second)
}

func TestAverages(t *testing.T) {
	records := append(makeRecords("Bronx", model.SubtypeBL, 10, 20, 30),
		model.PermitRecord{Subtype: "PL", Duration: 1000})

	avg := Averages(records)
	assert.Equal(t, 20.0, avg[model.SubtypeBL].Mean)
	assert.Equal(t, 3, avg[model.SubtypeBL].Count)
	assert.Equal(t, 0, avg[model.SubtypeMH].Count)
	assert.Len(t, avg, 2)
}

func TestRound1(t *testing.T) {
	assert.Equal(t, 66.7, Round1(200.0/3))
	assert.Equal(t, 0.1, Round1(0.05))
	assert.Equal(t, 12.0, Round1(12.04))
}

func TestParseMode(t *testing.T) {
	m, ok := ParseMode("count")
	assert.True(t, ok)
	assert.Equal(t, ModeCount, m)
	_, ok = ParseMode("median")
	assert.False(t, ok)
}
