package estimate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/permitflow/internal/common"
	"github.com/Veraticus/permitflow/internal/model"
	"github.com/Veraticus/permitflow/internal/service"
)

// PermitSource supplies the historical permits to simulate from.
type PermitSource interface {
	GetPermits(ctx context.Context, filter service.PermitFilter) ([]model.StoredPermit, error)
}

// Request is one estimation query.
type Request struct {
	WorkType string `mapstructure:"work_type" validate:"required,oneof=MH BL"`
	Region   string `mapstructure:"region"`
	// Tier is the 1-based height category; 0 leaves it unfiltered.
	Tier        int    `mapstructure:"tier" validate:"gte=0,lte=4"`
	RecentYears int    `mapstructure:"recent_years" validate:"gte=0,lte=100"`
	Threshold   int    `mapstructure:"threshold" validate:"gte=30,lte=365"`
	Samples     int    `mapstructure:"samples" validate:"gte=1,lte=1000000"`
	Seed        uint64 `mapstructure:"seed"`
}

// DefaultRequest returns a request for work type with default parameters.
func DefaultRequest(workType string) Request {
	return Request{
		WorkType:  workType,
		Threshold: DefaultThreshold,
		Samples:   DefaultSamples,
		Seed:      uint64(time.Now().UnixNano()),
	}
}

// Category returns the requested height category, if any.
func (r Request) Category() (model.HeightCategory, bool) {
	if r.Tier == 0 {
		return 0, false
	}
	return model.CategoryFromTier(r.Tier)
}

// Result is the outcome of an estimation.
type Result struct {
	Request    Request
	Features   Features
	Prediction Prediction
	// PredictionErr is set when the predictor could not produce an estimate;
	// the simulations still run.
	PredictionErr error
	Dataset       int
	// Sequenced counts the dataset permits that carried a permit sequence.
	Sequenced         int
	Duration          DurationStats
	Sequence          SequenceStats
	ExceedProbability float64
}

// Estimator combines a predictor with simulations over stored permits.
type Estimator struct {
	source    PermitSource
	predictor Predictor
	now       func() time.Time
}

// NewEstimator creates an estimator. A nil predictor is fitted from the
// source on each call.
func NewEstimator(source PermitSource, predictor Predictor) *Estimator {
	return &Estimator{source: source, predictor: predictor, now: time.Now}
}

// Filter builds the permit filter for a request.
func (e *Estimator) Filter(req Request) service.PermitFilter {
	f := service.PermitFilter{
		WorkType: model.Subtype(req.WorkType),
		Region:   req.Region,
	}
	if c, ok := req.Category(); ok {
		f.Category = &c
	}
	if req.RecentYears > 0 {
		f.MinStartYear = e.now().Year() - req.RecentYears + 1
	}
	return f
}

// Estimate validates req, predicts for its profile and simulates duration,
// renewal and threshold exceedance over the matching permits. An empty
// dataset fails with ErrInsufficientData.
func (e *Estimator) Estimate(ctx context.Context, req Request) (*Result, error) {
	if err := common.ValidateStruct(req); err != nil {
		return nil, err
	}

	category := DefaultCategory
	if c, ok := req.Category(); ok {
		category = c
	}
	features := Features{WorkType: model.Subtype(req.WorkType), Region: req.Region, Category: &category}
	if features.Region == "" {
		features.Region = DefaultRegion
	}

	permits, err := e.source.GetPermits(ctx, e.Filter(req))
	if err != nil {
		return nil, fmt.Errorf("failed to load permits: %w", err)
	}
	res := &Result{Request: req, Features: features, Dataset: len(permits)}
	if len(permits) == 0 {
		slog.Warn("No permits match the estimation filter",
			"work_type", req.WorkType,
			"region", req.Region,
			"tier", req.Tier,
			"recent_years", req.RecentYears)
		return res, fmt.Errorf("no matching permits: %w", common.ErrInsufficientData)
	}

	res.Prediction, res.PredictionErr = e.predict(ctx, features)
	if res.PredictionErr != nil {
		slog.Warn("Prediction failed", "error", res.PredictionErr)
	}

	durations := make([]float64, len(permits))
	var sequences []int
	for i, p := range permits {
		durations[i] = float64(p.Duration)
		if p.HasSequence() {
			sequences = append(sequences, p.Sequence)
		}
	}
	res.Sequenced = len(sequences)

	rng := NewRand(req.Seed)
	res.Duration, err = SimulateDuration(rng, durations, req.Samples)
	if err != nil {
		return res, err
	}
	if len(sequences) == 0 {
		slog.Warn("No matching permits carry a permit sequence; skipping renewal simulation",
			"work_type", req.WorkType,
			"dataset", res.Dataset)
	} else {
		res.Sequence, err = SimulateSequence(rng, sequences, req.Samples)
		if err != nil {
			return res, err
		}
	}
	res.ExceedProbability = ExceedProbability(res.Duration.Draws, req.Threshold)

	slog.Debug("Estimated",
		"work_type", req.WorkType,
		"dataset", res.Dataset,
		"mean", res.Duration.Mean,
		"p95", res.Duration.P95)
	return res, nil
}

func (e *Estimator) predict(ctx context.Context, f Features) (Prediction, error) {
	predictor := e.predictor
	if predictor == nil {
		all, err := e.source.GetPermits(ctx, service.PermitFilter{WorkType: f.WorkType})
		if err != nil {
			return Prediction{}, fmt.Errorf("failed to load permits for model: %w", err)
		}
		m, err := Fit(all)
		if err != nil {
			return Prediction{}, err
		}
		predictor = m
	}
	p, err := predictor.Predict(ctx, f)
	if err != nil && !errors.Is(err, common.ErrInsufficientData) {
		return Prediction{}, fmt.Errorf("prediction failed: %w", err)
	}
	return p, err
}
