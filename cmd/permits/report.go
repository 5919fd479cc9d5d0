package main

import (
	"fmt"
	"os"

	"github.com/Veraticus/permitflow/internal/cli"
	"github.com/spf13/cobra"
)

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report <workbook.xlsx>",
		Short: "Print permit distributions by building height",
		Long: `Aggregate every sheet of the workbook and print the per-group and
combined NYC distributions next to the expected reference values.`,
		Args: cobra.ExactArgs(1),
		RunE: runReport,
	}
	cmd.Flags().String("mode", "proportion", "aggregation mode (proportion, count)")
	cmd.Flags().String("basis", "given", "duration basis (given, start, issuance)")
	return cmd
}

func runReport(cmd *cobra.Command, args []string) error {
	modeName, _ := cmd.Flags().GetString("mode")
	basisName, _ := cmd.Flags().GetString("basis")
	mode, err := parseMode(modeName)
	if err != nil {
		return err
	}
	basis, err := parseBasis(basisName)
	if err != nil {
		return err
	}

	report, err := runPipeline(args[0], mode, basis)
	if err != nil {
		return err
	}

	fmt.Println(cli.FormatTitle("Permit durations by building height"))
	return cli.RenderReport(os.Stdout, report)
}
