package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/permitflow/internal/aggregate"
	"github.com/Veraticus/permitflow/internal/cli"
	"github.com/Veraticus/permitflow/internal/config"
	"github.com/Veraticus/permitflow/internal/export"
	"github.com/Veraticus/permitflow/internal/service"
	"github.com/Veraticus/permitflow/internal/sheets"
	"github.com/spf13/cobra"
)

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <workbook.xlsx>",
		Short: "Export the distribution report as a workbook or Google Sheet",
		Long: `Aggregate the workbook in proportion and count mode and write both
summaries, plus mean durations, to an xlsx report.

With --sheets the summary for --sheets-mode is also pushed to Google Sheets
using the sheets.* configuration (see 'permits auth sheets').`,
		Args: cobra.ExactArgs(1),
		RunE: runExport,
	}
	cmd.Flags().StringP("output", "o", "", "output workbook (default: <input>_report.xlsx)")
	cmd.Flags().String("basis", "given", "duration basis (given, start, issuance)")
	cmd.Flags().String("title", "NYC HVAC Permit Durations", "report title")
	cmd.Flags().Bool("sheets", false, "also push the report to Google Sheets")
	cmd.Flags().String("sheets-mode", "proportion", "summary pushed to Google Sheets (proportion, count)")
	return cmd
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	basisName, _ := cmd.Flags().GetString("basis")
	title, _ := cmd.Flags().GetString("title")
	pushSheets, _ := cmd.Flags().GetBool("sheets")
	sheetsModeName, _ := cmd.Flags().GetString("sheets-mode")

	basis, err := parseBasis(basisName)
	if err != nil {
		return err
	}
	sheetsMode, err := parseMode(sheetsModeName)
	if err != nil {
		return err
	}

	now := time.Now()
	summaries := make(map[aggregate.Mode]*service.ReportSummary)
	var ordered []*service.ReportSummary
	for _, mode := range []aggregate.Mode{aggregate.ModeProportion, aggregate.ModeCount} {
		report, err := runPipeline(args[0], mode, basis)
		if err != nil {
			return err
		}
		s := export.BuildSummary(report, title, args[0], now)
		summaries[mode] = s
		ordered = append(ordered, s)
	}

	output, _ := cmd.Flags().GetString("output")
	path := outputPath(args[0], output, "report")
	if err := export.WriteWorkbook(path, ordered...); err != nil {
		return err
	}
	fmt.Println(cli.FormatSuccess("Exported report to " + path))

	if !pushSheets {
		return nil
	}

	cfg, err := config.LoadSheetsConfig()
	if err != nil {
		return fmt.Errorf("google sheets not configured: %w", err)
	}
	writer, err := sheets.NewWriter(ctx, *cfg, slog.Default())
	if err != nil {
		return err
	}
	if err := export.Push(ctx, writer, summaries[sheetsMode]); err != nil {
		return err
	}
	fmt.Println(cli.FormatSuccess("Pushed " + sheetsMode.String() + " summary to Google Sheets"))
	return nil
}
