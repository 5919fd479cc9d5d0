package estimate

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/Veraticus/permitflow/internal/common"
	"github.com/Veraticus/permitflow/internal/model"
	"github.com/Veraticus/permitflow/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	err     error
	permits []model.StoredPermit
	filters []service.PermitFilter
}

func (f *fakeSource) GetPermits(_ context.Context, filter service.PermitFilter) ([]model.StoredPermit, error) {
	f.filters = append(f.filters, filter)
	if f.err != nil {
		return nil, f.err
	}
	var out []model.StoredPermit
	for _, p := range f.permits {
		if filter.WorkType != "" && p.Subtype != filter.WorkType {
			continue
		}
		if filter.Region != "" && !strings.EqualFold(p.Group, filter.Region) {
			continue
		}
		if filter.Category != nil && p.Category != *filter.Category {
			continue
		}
		if filter.MinStartYear > 0 && p.StartYear() < filter.MinStartYear {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func permit(group string, subtype model.Subtype, category model.HeightCategory, duration, sequence int) model.StoredPermit {
	return model.StoredPermit{
		PermitRecord: model.PermitRecord{
			Subtype:   subtype,
			Group:     group,
			Duration:  duration,
			Sequence:  sequence,
			StartDate: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		Category: category,
	}
}

func category(c model.HeightCategory) *model.HeightCategory {
	return &c
}

func TestEmpiricalModel_Fallbacks(t *testing.T) {
	m, err := Fit([]model.StoredPermit{
		permit("Manhattan", model.SubtypeMH, model.Floors3To5, 10, 1),
		permit("Manhattan", model.SubtypeMH, model.Floors6To10, 100, 1),
		permit("Manhattan", model.SubtypeMH, model.Floors6To10, 200, 2),
		permit("Manhattan", model.SubtypeMH, model.FloorsOver15, 400, 3),
		permit("Queens", model.SubtypeMH, model.Floors3To5, 50, 1),
		permit("Bronx", model.SubtypeBL, model.Floors3To5, 30, 1),
	})
	require.NoError(t, err)
	assert.Equal(t, 6, m.Size())
	ctx := context.Background()

	tests := []struct {
		name     string
		features Features
		want     Prediction
	}{
		{"full cell", Features{WorkType: model.SubtypeMH, Region: "MANHATTAN", Category: category(model.Floors6To10)}, Prediction{Duration: 150, Sequence: 2}},
		{"lowest tier", Features{WorkType: model.SubtypeMH, Region: "Manhattan", Category: category(model.Floors3To5)}, Prediction{Duration: 10, Sequence: 1}},
		{"defaults", Features{WorkType: model.SubtypeMH}, Prediction{Duration: 150, Sequence: 2}},
		{"invalid category uses default", Features{WorkType: model.SubtypeMH, Category: category(-1)}, Prediction{Duration: 150, Sequence: 2}},
		{"region fallback", Features{WorkType: model.SubtypeMH, Region: "queens", Category: category(model.FloorsOver15)}, Prediction{Duration: 50, Sequence: 1}},
		{"category fallback", Features{WorkType: model.SubtypeMH, Region: "Brooklyn", Category: category(model.FloorsOver15)}, Prediction{Duration: 400, Sequence: 3}},
		{"work type fallback", Features{WorkType: model.SubtypeBL, Region: "Brooklyn", Category: category(model.FloorsOver15)}, Prediction{Duration: 30, Sequence: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.Predict(ctx, tt.features)
			require.NoError(t, err)
			assert.InDelta(t, tt.want.Duration, got.Duration, 1e-9)
			assert.Equal(t, tt.want.Sequence, got.Sequence)
		})
	}

	_, err = m.Predict(ctx, Features{WorkType: "PL"})
	assert.ErrorIs(t, err, common.ErrUnknownSubtype)

	_, err = Fit(nil)
	assert.ErrorIs(t, err, common.ErrInsufficientData)
}

func TestEmpiricalModel_MissingSequences(t *testing.T) {
	m, err := Fit([]model.StoredPermit{
		permit("Manhattan", model.SubtypeMH, model.Floors6To10, 100, 2),
		permit("Manhattan", model.SubtypeMH, model.Floors6To10, 100, 0),
		permit("Manhattan", model.SubtypeMH, model.Floors6To10, 100, 0),
		permit("Manhattan", model.SubtypeMH, model.Floors6To10, 100, 0),
		permit("Queens", model.SubtypeMH, model.Floors3To5, 60, 0),
		permit("Queens", model.SubtypeMH, model.Floors11To15, 80, 3),
	})
	require.NoError(t, err)
	ctx := context.Background()

	got, err := m.Predict(ctx, Features{WorkType: model.SubtypeMH, Region: "MANHATTAN"})
	require.NoError(t, err)
	assert.InDelta(t, 100, got.Duration, 1e-9)
	assert.Equal(t, 2, got.Sequence)

	// duration from the full cell, sequence from the region cell
	got, err = m.Predict(ctx, Features{WorkType: model.SubtypeMH, Region: "QUEENS", Category: category(model.Floors3To5)})
	require.NoError(t, err)
	assert.InDelta(t, 60, got.Duration, 1e-9)
	assert.Equal(t, 3, got.Sequence)

	bare, err := Fit([]model.StoredPermit{permit("Bronx", model.SubtypeBL, model.Floors3To5, 40, 0)})
	require.NoError(t, err)
	got, err = bare.Predict(ctx, Features{WorkType: model.SubtypeBL})
	require.NoError(t, err)
	assert.InDelta(t, 40, got.Duration, 1e-9)
	assert.Zero(t, got.Sequence)
}

func TestSimulateDuration(t *testing.T) {
	durations := []float64{100, 120, 140, 160, 180}
	stats, err := SimulateDuration(NewRand(42), durations, 20000)
	require.NoError(t, err)

	assert.InDelta(t, 140, stats.Mean, 1e-9)
	assert.InDelta(t, math.Sqrt(1000), stats.StdDev, 1e-9)
	assert.Equal(t, stats.Kept, len(stats.Draws))
	assert.InDelta(t, 140, stats.SimulatedMean, 2)
	// 1.645 standard deviations either side
	assert.InDelta(t, 140-1.645*math.Sqrt(1000), stats.P5, 3)
	assert.InDelta(t, 140+1.645*math.Sqrt(1000), stats.P95, 3)
	for _, v := range stats.Draws {
		require.Greater(t, v, 0.0)
	}

	again, err := SimulateDuration(NewRand(42), durations, 20000)
	require.NoError(t, err)
	assert.Equal(t, stats, again)
}

func TestSimulateDuration_Degenerate(t *testing.T) {
	stats, err := SimulateDuration(NewRand(1), []float64{90}, 100)
	require.NoError(t, err)
	assert.Equal(t, 100, stats.Kept)
	assert.Equal(t, 90.0, stats.P5)
	assert.Equal(t, 90.0, stats.P95)

	_, err = SimulateDuration(NewRand(1), nil, 100)
	assert.ErrorIs(t, err, common.ErrInsufficientData)

	// every draw is dropped when all durations are zero
	_, err = SimulateDuration(NewRand(1), []float64{0, 0}, 100)
	assert.ErrorIs(t, err, common.ErrInsufficientData)
}

func TestSimulateSequence(t *testing.T) {
	sequences := []int{1, 1, 1, 2}
	stats, err := SimulateSequence(NewRand(7), sequences, 20000)
	require.NoError(t, err)
	assert.Equal(t, map[int]float64{1: 0.75, 2: 0.25}, stats.Frequencies)
	assert.InDelta(t, 25, stats.RenewalProbability, 1.5)
	for _, v := range stats.Draws {
		require.Contains(t, []int{1, 2}, v)
	}

	single, err := SimulateSequence(NewRand(7), []int{3}, 10)
	require.NoError(t, err)
	assert.Equal(t, 100.0, single.RenewalProbability)

	_, err = SimulateSequence(NewRand(7), nil, 10)
	assert.ErrorIs(t, err, common.ErrInsufficientData)
}

func TestExceedProbability(t *testing.T) {
	assert.Equal(t, 50.0, ExceedProbability([]float64{100, 120, 121, 300}, 120))
	assert.Equal(t, 0.0, ExceedProbability(nil, 120))
}

func testSource() *fakeSource {
	return &fakeSource{permits: []model.StoredPermit{
		permit("Manhattan", model.SubtypeMH, model.Floors6To10, 100, 1),
		permit("Manhattan", model.SubtypeMH, model.Floors6To10, 200, 2),
		permit("Queens", model.SubtypeMH, model.Floors3To5, 150, 1),
		permit("Queens", model.SubtypeBL, model.Floors3To5, 60, 1),
	}}
}

func TestEstimator_Estimate(t *testing.T) {
	src := testSource()
	e := NewEstimator(src, nil)
	e.now = func() time.Time { return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC) }

	req := DefaultRequest("MH")
	req.Seed = 99
	req.Samples = 5000
	req.RecentYears = 10

	res, err := e.Estimate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Dataset)
	assert.Equal(t, Features{WorkType: model.SubtypeMH, Region: DefaultRegion, Category: category(DefaultCategory)}, res.Features)
	assert.Equal(t, 3, res.Sequenced)
	require.NoError(t, res.PredictionErr)
	assert.InDelta(t, 150, res.Prediction.Duration, 1e-9)
	assert.Equal(t, 2, res.Prediction.Sequence)
	assert.InDelta(t, 150, res.Duration.Mean, 1e-9)
	assert.Greater(t, res.ExceedProbability, 0.0)
	assert.Less(t, res.ExceedProbability, 100.0)
	assert.InDelta(t, 100.0/3, res.Sequence.RenewalProbability, 3)

	require.NotEmpty(t, src.filters)
	assert.Equal(t, 2016, src.filters[0].MinStartYear)

	again, err := e.Estimate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, res.Duration.P95, again.Duration.P95)
	assert.Equal(t, res.ExceedProbability, again.ExceedProbability)
}

func TestEstimator_IgnoresMissingSequences(t *testing.T) {
	src := &fakeSource{permits: []model.StoredPermit{
		permit("Manhattan", model.SubtypeMH, model.Floors6To10, 100, 2),
		permit("Manhattan", model.SubtypeMH, model.Floors6To10, 100, 0),
		permit("Manhattan", model.SubtypeMH, model.Floors6To10, 100, 0),
		permit("Manhattan", model.SubtypeMH, model.Floors6To10, 100, 0),
		permit("Queens", model.SubtypeBL, model.Floors3To5, 50, 0),
	}}
	e := NewEstimator(src, nil)

	req := DefaultRequest("MH")
	req.Seed = 3
	req.Samples = 1000
	res, err := e.Estimate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Dataset)
	assert.Equal(t, 1, res.Sequenced)
	assert.Equal(t, map[int]float64{2: 1}, res.Sequence.Frequencies)
	assert.Equal(t, 100.0, res.Sequence.RenewalProbability)
	assert.Equal(t, 2, res.Prediction.Sequence)

	// no sequences at all: durations still simulate, renewal stays empty
	req.WorkType = "BL"
	res, err = e.Estimate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Dataset)
	assert.Zero(t, res.Sequenced)
	assert.Empty(t, res.Sequence.Draws)
	assert.Equal(t, 1000, res.Duration.Kept)
}

func TestEstimator_Filters(t *testing.T) {
	e := NewEstimator(testSource(), nil)

	req := DefaultRequest("MH")
	req.Region = "queens"
	req.Tier = 1
	res, err := e.Estimate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Dataset)

	req.Tier = 4
	res, err = e.Estimate(context.Background(), req)
	assert.ErrorIs(t, err, common.ErrInsufficientData)
	require.NotNil(t, res)
	assert.Zero(t, res.Dataset)
}

func TestEstimator_Validation(t *testing.T) {
	e := NewEstimator(testSource(), nil)
	tests := []func(r *Request){
		func(r *Request) { r.WorkType = "" },
		func(r *Request) { r.WorkType = "PL" },
		func(r *Request) { r.Threshold = 10 },
		func(r *Request) { r.Threshold = 400 },
		func(r *Request) { r.Tier = 5 },
		func(r *Request) { r.Samples = 0 },
	}
	for _, mutate := range tests {
		req := DefaultRequest("BL")
		mutate(&req)
		_, err := e.Estimate(context.Background(), req)
		assert.ErrorIs(t, err, common.ErrInvalidConfig)
	}
}

func TestEstimator_ThresholdAnyDay(t *testing.T) {
	e := NewEstimator(testSource(), nil)
	for _, threshold := range []int{MinThreshold, 125, MaxThreshold} {
		req := DefaultRequest("MH")
		req.Threshold = threshold
		req.Samples = 100
		res, err := e.Estimate(context.Background(), req)
		require.NoError(t, err, "threshold %d", threshold)
		assert.Equal(t, threshold, res.Request.Threshold)
	}
}

func TestEstimator_SourceError(t *testing.T) {
	boom := errors.New("db down")
	e := NewEstimator(&fakeSource{err: boom}, nil)
	_, err := e.Estimate(context.Background(), DefaultRequest("MH"))
	assert.ErrorIs(t, err, boom)
}
