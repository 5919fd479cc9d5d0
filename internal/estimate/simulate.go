package estimate

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"github.com/Veraticus/permitflow/internal/common"
	"gonum.org/v1/gonum/stat"
)

// Simulation defaults.
const (
	DefaultSamples   = 10000
	DefaultThreshold = 120
	MinThreshold     = 30
	MaxThreshold     = 365
	// RenewalSequence is the permit sequence from which a permit counts as renewed.
	RenewalSequence = 2
)

// DurationStats summarizes simulated durations.
type DurationStats struct {
	Draws []float64 `json:"-"`
	// Mean and StdDev describe the historical durations the draws come from.
	Mean   float64
	StdDev float64
	// SimulatedMean is the mean of the kept draws.
	SimulatedMean float64
	P5            float64
	P95           float64
	Kept          int
}

// SimulateDuration draws n samples from a normal distribution with the
// mean and sample standard deviation of durations, keeping only positive
// draws. A single observation yields a degenerate distribution.
func SimulateDuration(rng *rand.Rand, durations []float64, n int) (DurationStats, error) {
	if len(durations) == 0 {
		return DurationStats{}, fmt.Errorf("duration simulation: %w", common.ErrInsufficientData)
	}
	if n <= 0 {
		n = DefaultSamples
	}

	mean, std := stat.MeanStdDev(durations, nil)
	if math.IsNaN(std) {
		std = 0
	}

	draws := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		v := mean + std*rng.NormFloat64()
		if v > 0 {
			draws = append(draws, v)
		}
	}
	if len(draws) == 0 {
		return DurationStats{}, fmt.Errorf("duration simulation kept no positive draws: %w", common.ErrInsufficientData)
	}

	sorted := make([]float64, len(draws))
	copy(sorted, draws)
	sort.Float64s(sorted)

	return DurationStats{
		Draws:         draws,
		Mean:          mean,
		StdDev:        std,
		SimulatedMean: stat.Mean(draws, nil),
		P5:            stat.Quantile(0.05, stat.LinInterp, sorted, nil),
		P95:           stat.Quantile(0.95, stat.LinInterp, sorted, nil),
		Kept:          len(draws),
	}, nil
}

// ExceedProbability returns the percentage of draws above threshold days.
func ExceedProbability(draws []float64, threshold int) float64 {
	if len(draws) == 0 {
		return 0
	}
	over := 0
	for _, v := range draws {
		if v > float64(threshold) {
			over++
		}
	}
	return float64(over) / float64(len(draws)) * 100
}

// SequenceStats summarizes simulated permit sequences.
type SequenceStats struct {
	Draws []int `json:"-"`
	// Frequencies is the empirical share of each observed sequence value.
	Frequencies map[int]float64
	// RenewalProbability is the percentage of draws at or above RenewalSequence.
	RenewalProbability float64
}

// SimulateSequence resamples n permit sequences from their empirical
// distribution.
func SimulateSequence(rng *rand.Rand, sequences []int, n int) (SequenceStats, error) {
	if len(sequences) == 0 {
		return SequenceStats{}, fmt.Errorf("sequence simulation: %w", common.ErrInsufficientData)
	}
	if n <= 0 {
		n = DefaultSamples
	}

	counts := make(map[int]int)
	for _, s := range sequences {
		counts[s]++
	}
	values := make([]int, 0, len(counts))
	for v := range counts {
		values = append(values, v)
	}
	sort.Ints(values)

	freq := make(map[int]float64, len(values))
	cdf := make([]float64, len(values))
	acc := 0.0
	for i, v := range values {
		p := float64(counts[v]) / float64(len(sequences))
		freq[v] = p
		acc += p
		cdf[i] = acc
	}

	draws := make([]int, n)
	renewed := 0
	for i := range draws {
		u := rng.Float64() * acc
		j := sort.SearchFloat64s(cdf, u)
		if j >= len(values) {
			j = len(values) - 1
		}
		// SearchFloat64s finds the first cdf >= u; equality belongs to the next bucket
		if cdf[j] == u && j+1 < len(values) {
			j++
		}
		draws[i] = values[j]
		if values[j] >= RenewalSequence {
			renewed++
		}
	}

	return SequenceStats{
		Draws:              draws,
		Frequencies:        freq,
		RenewalProbability: float64(renewed) / float64(n) * 100,
	}, nil
}

// NewRand returns a generator seeded with seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
