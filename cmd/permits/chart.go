package main

import (
	"fmt"
	"log/slog"

	"github.com/Veraticus/permitflow/internal/aggregate"
	"github.com/Veraticus/permitflow/internal/chart"
	"github.com/Veraticus/permitflow/internal/cli"
	"github.com/Veraticus/permitflow/internal/config"
	"github.com/Veraticus/permitflow/internal/records"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func chartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chart",
		Short: "Render permit charts as PNG files",
	}
	cmd.PersistentFlags().String("out-dir", "charts", "directory for chart images")
	_ = viper.BindPFlag("chart.out_dir", cmd.PersistentFlags().Lookup("out-dir"))

	cmd.AddCommand(chartKindCmd(chart.KindDuration,
		"Observed vs expected height distribution per borough and for NYC",
		aggregate.ModeProportion, "given"))
	cmd.AddCommand(chartKindCmd(chart.KindCounts,
		"Number of permits per height category",
		aggregate.ModeCount, "issuance"))
	cmd.AddCommand(chartKindCmd(chart.KindScatter,
		"Duration against job start year per sheet and subtype",
		aggregate.ModeProportion, "start"))
	cmd.AddCommand(chartKindCmd(chart.KindAverages,
		"Mean duration per subtype per sheet and for NYC",
		aggregate.ModeProportion, "given"))
	return cmd
}

func chartKindCmd(kind chart.Kind, short string, mode aggregate.Mode, defaultBasis string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   string(kind) + " <workbook.xlsx>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			basisName, _ := cmd.Flags().GetString("basis")
			basis, err := parseBasis(basisName)
			if err != nil {
				return err
			}
			return runChart(kind, args[0], mode, basis)
		},
	}
	cmd.Flags().String("basis", defaultBasis, "duration basis (given, start, issuance)")
	return cmd
}

func runChart(kind chart.Kind, input string, mode aggregate.Mode, basis records.Basis) error {
	report, err := runPipeline(input, mode, basis)
	if err != nil {
		return err
	}

	dir := config.ExpandPath(viper.GetString("chart.out_dir"))
	paths, err := chart.RenderReport(dir, kind, report)
	if err != nil {
		return fmt.Errorf("failed to render %s charts: %w", kind, err)
	}
	for _, p := range paths {
		slog.Info("Wrote chart", "path", p)
	}
	if len(paths) == 0 {
		fmt.Println(cli.FormatWarning("Nothing to chart: every group was empty"))
		return nil
	}
	fmt.Println(cli.FormatSuccess(fmt.Sprintf("%s Wrote %d %s charts to %s", cli.ChartIcon, len(paths), kind, dir)))
	return nil
}
