package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Veraticus/permitflow/internal/aggregate"
	"github.com/Veraticus/permitflow/internal/cli"
	"github.com/Veraticus/permitflow/internal/common"
	"github.com/Veraticus/permitflow/internal/config"
	"github.com/Veraticus/permitflow/internal/pipeline"
	"github.com/Veraticus/permitflow/internal/records"
	"github.com/Veraticus/permitflow/internal/storage"
	"github.com/Veraticus/permitflow/internal/workbook"
)

// initStorage opens the configured database and runs migrations.
func initStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(config.DatabasePath())
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// outputPath returns output, or input with suffix added before the extension.
func outputPath(input, output, suffix string) string {
	if output != "" {
		return config.ExpandPath(output)
	}
	ext := filepath.Ext(input)
	return strings.TrimSuffix(input, ext) + "_" + suffix + ext
}

func readWorkbook(path string) (*workbook.Workbook, error) {
	path = config.ExpandPath(path)
	if _, err := os.Stat(path); err != nil {
		return nil, common.NewUserError(fmt.Sprintf("Cannot read workbook %s", path), err)
	}
	wb, err := workbook.Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	slog.Debug("Loaded workbook", "path", path, "sheets", len(wb.Sheets))
	return wb, nil
}

// writeResult saves wb and reports the sheets that were left out.
func writeResult(path string, wb *workbook.Workbook, skipped map[string]error, source *workbook.Workbook) error {
	for _, name := range source.Names() {
		if err, ok := skipped[name]; ok {
			slog.Warn("Skipping sheet", "group", name, "error", err)
		}
	}
	if len(wb.Sheets) == 0 {
		return common.NewUserError("No sheet could be processed", common.ErrEmptyWorkbook)
	}
	if err := workbook.Write(path, wb); err != nil {
		return err
	}
	fmt.Println(cli.FormatSuccess(fmt.Sprintf("Wrote %d sheets to %s", len(wb.Sheets), path)))
	return nil
}

// runPipeline loads and aggregates every sheet of the workbook at input,
// showing progress on stderr.
func runPipeline(input string, mode aggregate.Mode, basis records.Basis) (*pipeline.Report, error) {
	wb, err := readWorkbook(input)
	if err != nil {
		return nil, err
	}

	categorizer, err := config.LoadCategorizer()
	if err != nil {
		return nil, err
	}
	expected, err := config.LoadExpected()
	if err != nil {
		return nil, err
	}

	progress := cli.NewProgress(os.Stderr, len(wb.Sheets), "Loading sheets")
	report := pipeline.Run(wb, pipeline.Options{
		Aggregator: aggregate.New(categorizer, mode),
		Expected:   expected,
		Basis:      basis,
		OnSheet:    progress.Step,
	})
	progress.Finish()
	return report, nil
}

func parseMode(s string) (aggregate.Mode, error) {
	mode, ok := aggregate.ParseMode(s)
	if !ok {
		return mode, common.NewUserError(fmt.Sprintf("Unknown mode %q (use proportion or count)", s), common.ErrInvalidConfig)
	}
	return mode, nil
}

func parseBasis(s string) (records.Basis, error) {
	basis, err := records.ParseBasis(s)
	if err != nil {
		return basis, common.NewUserError(fmt.Sprintf("Unknown basis %q (use given, start or issuance)", s), err)
	}
	return basis, nil
}
