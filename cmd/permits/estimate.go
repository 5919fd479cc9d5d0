package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/Veraticus/permitflow/internal/chart"
	"github.com/Veraticus/permitflow/internal/cli"
	"github.com/Veraticus/permitflow/internal/common"
	"github.com/Veraticus/permitflow/internal/config"
	"github.com/Veraticus/permitflow/internal/estimate"
	"github.com/spf13/cobra"
)

func estimateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Estimate duration and renewal odds for a new permit",
		Long: `Predict the duration and permit sequence for a job profile from the
imported permits, then simulate durations and renewals by Monte Carlo
sampling over the matching permits.

Defaults come from estimate.* in the config file.`,
		Args: cobra.NoArgs,
		RunE: runEstimate,
	}
	cmd.Flags().String("work-type", "MH", "work type (MH, BL)")
	cmd.Flags().String("region", "", "borough to filter by (default: all)")
	cmd.Flags().Int("tier", 0, "height category 1-4 (default: all)")
	cmd.Flags().Int("recent-years", 0, "only permits started in the last N years")
	cmd.Flags().Int("threshold", estimate.DefaultThreshold, "duration threshold in days (30-365)")
	cmd.Flags().Int("samples", estimate.DefaultSamples, "Monte Carlo draws")
	cmd.Flags().Uint64("seed", 0, "random seed")
	cmd.Flags().String("chart", "", "write a histogram of simulated durations to this PNG")
	cmd.Flags().String("sequence-chart", "", "write a histogram of simulated permit sequences to this PNG")
	return cmd
}

func runEstimate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	workType, _ := cmd.Flags().GetString("work-type")
	req := config.LoadEstimateDefaults(strings.ToUpper(strings.TrimSpace(workType)))

	flags := cmd.Flags()
	req.Region, _ = flags.GetString("region")
	req.Tier, _ = flags.GetInt("tier")
	if flags.Changed("recent-years") {
		req.RecentYears, _ = flags.GetInt("recent-years")
	}
	if flags.Changed("threshold") {
		req.Threshold, _ = flags.GetInt("threshold")
	}
	if flags.Changed("samples") {
		req.Samples, _ = flags.GetInt("samples")
	}
	if flags.Changed("seed") {
		req.Seed, _ = flags.GetUint64("seed")
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	result, err := estimate.NewEstimator(store, nil).Estimate(ctx, req)
	if errors.Is(err, common.ErrInsufficientData) {
		fmt.Println(cli.FormatWarning("No stored permits match this profile. Import a workbook or widen the filters."))
		return nil
	}
	if errors.Is(err, common.ErrInvalidConfig) {
		return common.NewUserError("Invalid estimate parameters", err)
	}
	if err != nil {
		return err
	}

	if err := cli.RenderEstimate(os.Stdout, result); err != nil {
		return err
	}

	if path, _ := flags.GetString("chart"); path != "" {
		if err := writeDurationChart(config.ExpandPath(path), result); err != nil {
			return err
		}
	}
	if path, _ := flags.GetString("sequence-chart"); path != "" {
		if err := writeSequenceChart(config.ExpandPath(path), result); err != nil {
			return err
		}
	}
	return nil
}

func writeDurationChart(path string, result *estimate.Result) error {
	title := fmt.Sprintf("Simulated %s durations (%d draws)", result.Features.WorkType, result.Duration.Kept)
	err := chart.Histogram(path, title, "Duration (days)", result.Duration.Draws, chart.HistogramBins,
		chart.Marker{Label: "Mean", X: result.Duration.Mean, Color: chart.CityPalette.MH},
		chart.Marker{Label: "5th percentile", X: result.Duration.P5, Color: chart.CityPalette.BL},
		chart.Marker{Label: "95th percentile", X: result.Duration.P95, Color: chart.CityPalette.BL},
		chart.Marker{Label: "Threshold", X: float64(result.Request.Threshold), Color: chart.CityPalette.Expected},
	)
	if err != nil {
		return fmt.Errorf("failed to render histogram: %w", err)
	}
	fmt.Println(cli.FormatSuccess("Wrote histogram to " + path))
	return nil
}

func writeSequenceChart(path string, result *estimate.Result) error {
	if result.Sequenced == 0 {
		fmt.Println(cli.FormatWarning("No permit sequences to chart"))
		return nil
	}
	title := fmt.Sprintf("Simulated %s permit sequences (%d draws)", result.Features.WorkType, len(result.Sequence.Draws))
	if err := chart.SequenceHistogram(path, title, result.Sequence.Draws); err != nil {
		return fmt.Errorf("failed to render sequence histogram: %w", err)
	}
	fmt.Println(cli.FormatSuccess("Wrote sequence histogram to " + path))
	return nil
}
