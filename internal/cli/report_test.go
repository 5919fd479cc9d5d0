package cli

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/Veraticus/permitflow/internal/aggregate"
	"github.com/Veraticus/permitflow/internal/estimate"
	"github.com/Veraticus/permitflow/internal/model"
	"github.com/Veraticus/permitflow/internal/pipeline"
	"github.com/Veraticus/permitflow/internal/records"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGroup() model.GroupDistribution {
	return model.GroupDistribution{Group: "Manhattan", BySubtype: map[model.Subtype]model.Distribution{
		model.SubtypeMH: {Subtype: model.SubtypeMH, Counts: [4]int{1, 3, 0, 0}, Percent: [4]float64{25, 75, 0, 0}, Total: 4},
		model.SubtypeBL: {Subtype: model.SubtypeBL, Counts: [4]int{0, 0, 2, 0}, Percent: [4]float64{0, 0, 100, 0}, Total: 2},
	}}
}

func TestTable(t *testing.T) {
	out := Table([]string{"Name", "Value"}, [][]string{{"alpha", "1"}, {"b"}})
	lines := strings.Split(out, "\n")
	require.GreaterOrEqual(t, len(lines), 3)
	assert.Contains(t, lines[0], "Name")
	assert.Contains(t, out, "alpha")
	assert.Contains(t, out, "1")
}

func TestDistributionTable(t *testing.T) {
	t.Run("proportion with expected", func(t *testing.T) {
		out := DistributionTable(testGroup(), aggregate.ModeProportion, &model.ExpectedRow{40, 30, 20, 10}, false)
		assert.Contains(t, out, "Expected")
		assert.Contains(t, out, "75.0%")
		assert.Contains(t, out, "40.0%")
		assert.Contains(t, out, model.Floors11To15.String())
		assert.Contains(t, out, "Total")
	})

	t.Run("count without expected", func(t *testing.T) {
		out := DistributionTable(testGroup(), aggregate.ModeCount, nil, true)
		assert.NotContains(t, out, "Expected")
		assert.Contains(t, out, "3 (75.0%)")
		assert.Contains(t, out, "2 (100.0%)")
	})
}

func TestAveragesLine(t *testing.T) {
	line := AveragesLine(map[model.Subtype]model.Average{
		model.SubtypeBL: {Subtype: model.SubtypeBL, Mean: 90.25, Count: 2},
	})
	assert.Equal(t, "Mean duration: BL 90.2 days (n=2)", line)
	assert.Contains(t, AveragesLine(nil), "No durations")
}

func TestRenderReport(t *testing.T) {
	report := &pipeline.Report{
		Mode: aggregate.ModeProportion,
		Groups: []pipeline.GroupResult{
			{
				Name:         "Manhattan",
				Region:       "Manhattan",
				Expected:     model.ExpectedRow{40, 30, 20, 10},
				Distribution: testGroup(),
				Stats:        records.Stats{Rows: 8, Loaded: 6, UnknownSubtype: 2},
			},
			{Name: "Notes", Err: errors.New("missing column Permit Subtype")},
		},
		Combined:     testGroup(),
		ExpectedMean: model.ExpectedRow{50, 25, 15, 10},
		HasExpected:  true,
	}

	var buf bytes.Buffer
	require.NoError(t, RenderReport(&buf, report))
	out := buf.String()

	assert.Contains(t, out, "Manhattan")
	assert.Contains(t, out, "Notes skipped: missing column Permit Subtype")
	assert.Contains(t, out, "NYC TOTAL")
	assert.Contains(t, out, "8 rows, 6 loaded, 2 excluded")
	assert.Contains(t, out, "50.0%")
}

func TestRenderEstimate(t *testing.T) {
	result := &estimate.Result{
		Request:    estimate.Request{WorkType: "MH", Threshold: 120, RecentYears: 10, Samples: 5},
		Features:   estimate.Features{WorkType: model.SubtypeMH, Region: "MANHATTAN"},
		Prediction: estimate.Prediction{Duration: 183.4, Sequence: 1},
		Dataset:    42,
		Sequenced:  40,
		Duration: estimate.DurationStats{
			Draws: []float64{1, 2, 3}, Mean: 180, StdDev: 40, P5: 115.5, P95: 245.25, Kept: 3,
		},
		Sequence:          estimate.SequenceStats{RenewalProbability: 12.5},
		ExceedProbability: 93.1,
	}

	var buf bytes.Buffer
	require.NoError(t, RenderEstimate(&buf, result))
	out := buf.String()
	assert.Contains(t, out, "Dataset: 42 permits")
	assert.Contains(t, out, "last 10 years")
	assert.Contains(t, out, "183")
	assert.Contains(t, out, "P(duration > 120 days): 93.1%")
	assert.Contains(t, out, "P(sequence >= 2): 12.5% (40 permits with a sequence)")
	assert.Contains(t, out, "Height: 6–10 floors")
	assert.Contains(t, out, "Predicted sequence: 1")
	assert.Contains(t, out, "3 of 5 draws kept")

	buf.Reset()
	result.Sequenced = 0
	result.Prediction.Sequence = 0
	require.NoError(t, RenderEstimate(&buf, result))
	assert.Contains(t, buf.String(), "No permit sequences in the dataset")
	assert.NotContains(t, buf.String(), "P(sequence")
	assert.NotContains(t, buf.String(), "Predicted sequence")

	buf.Reset()
	result.PredictionErr = errors.New("no model")
	require.NoError(t, RenderEstimate(&buf, result))
	assert.Contains(t, buf.String(), "Prediction unavailable: no model")
}

func TestProgress(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf, 2, "Loading sheets")
	p.Step("Manhattan")
	p.Step("Brooklyn")
	p.Finish()
	assert.Contains(t, buf.String(), "2/2")

	// Disabled bars are no-ops.
	disabled := NewProgress(nil, 3, "x")
	disabled.Step("a")
	disabled.Finish()
}
