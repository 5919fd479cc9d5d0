package main

import (
	"log/slog"

	"github.com/Veraticus/permitflow/internal/config"
	"github.com/Veraticus/permitflow/internal/derive"
	"github.com/Veraticus/permitflow/internal/selection"
	"github.com/spf13/cobra"
)

func selectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "select <workbook.xlsx>",
		Short: "Keep the permit rows that match the selection criteria",
		Long: `Filter every sheet down to the rows matching the selection rules.

By default a row is kept when Job Type is A2, Bldg Type is 2, Residential
is YES, Work Type is BL or MH and Permit Status is ISSUED or RE-ISSUED.
Rules can be replaced under selection.rules in the config file.`,
		Args: cobra.ExactArgs(1),
		RunE: runSelect,
	}
	cmd.Flags().StringP("output", "o", "", "output workbook (default: <input>_selected.xlsx)")
	return cmd
}

func runSelect(cmd *cobra.Command, args []string) error {
	criteria, err := config.LoadSelection()
	if err != nil {
		return err
	}
	wb, err := readWorkbook(args[0])
	if err != nil {
		return err
	}

	res := selection.SelectWorkbook(wb, criteria)
	for _, name := range res.Workbook.Names() {
		slog.Info("Selected rows", "group", name, "kept", res.Kept[name])
	}

	output, _ := cmd.Flags().GetString("output")
	return writeResult(outputPath(args[0], output, "selected"), res.Workbook, res.Skipped, wb)
}

func completeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "complete <workbook.xlsx>",
		Short: "Add Duration and Job Finish columns",
		Long: `Derive the Duration in days from Job Start Date to Expiration Date and
mark each permit COMPLETED or NOT COMPLETED by its expiration year.

Sheets without both date columns are left out of the output.`,
		Args: cobra.ExactArgs(1),
		RunE: runComplete,
	}
	cmd.Flags().StringP("output", "o", "", "output workbook (default: <input>_completed.xlsx)")
	cmd.Flags().Int("cutoff-year", derive.DefaultCutoffYear, "first expiration year counted as not completed")
	return cmd
}

func runComplete(cmd *cobra.Command, args []string) error {
	cutoff := config.LoadCutoffYear()
	if cmd.Flags().Changed("cutoff-year") {
		cutoff, _ = cmd.Flags().GetInt("cutoff-year")
	}
	wb, err := readWorkbook(args[0])
	if err != nil {
		return err
	}

	done, skipped := derive.CompleteWorkbook(wb, cutoff)
	output, _ := cmd.Flags().GetString("output")
	return writeResult(outputPath(args[0], output, "completed"), done, skipped, wb)
}

func cleanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean <workbook.xlsx>",
		Short: "Drop incomplete rows and implausible durations",
		Long: `Remove rows without a subtype or duration, keep MH permits up to 271 days
and BL permits up to 181 days, and group the remaining rows by subtype.

Limits can be changed under clean.limits in the config file.`,
		Args: cobra.ExactArgs(1),
		RunE: runClean,
	}
	cmd.Flags().StringP("output", "o", "", "output workbook (default: <input>_cleaned.xlsx)")
	return cmd
}

func runClean(cmd *cobra.Command, args []string) error {
	limits, err := config.LoadCleanLimits()
	if err != nil {
		return err
	}
	wb, err := readWorkbook(args[0])
	if err != nil {
		return err
	}

	cleaned, skipped := derive.CleanWorkbook(wb, limits)
	output, _ := cmd.Flags().GetString("output")
	return writeResult(outputPath(args[0], output, "cleaned"), cleaned, skipped, wb)
}
