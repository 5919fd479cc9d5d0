package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/Veraticus/permitflow/internal/aggregate"
	"github.com/Veraticus/permitflow/internal/cli"
	"github.com/Veraticus/permitflow/internal/common"
	"github.com/Veraticus/permitflow/internal/config"
	"github.com/Veraticus/permitflow/internal/model"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <workbook.xlsx>",
		Short: "Store the permits of a workbook in the local database",
		Long: `Load every sheet of the workbook, categorize each permit by building
height and store the results as one import batch.

Stored permits are the dataset used by 'permits estimate'.`,
		Args: cobra.ExactArgs(1),
		RunE: runImport,
	}
	cmd.Flags().String("basis", "given", "duration basis (given, start, issuance)")
	cmd.Flags().Bool("dry-run", false, "Show what would be imported without saving")
	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	basisName, _ := cmd.Flags().GetString("basis")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	basis, err := parseBasis(basisName)
	if err != nil {
		return err
	}

	categorizer, err := config.LoadCategorizer()
	if err != nil {
		return err
	}
	report, err := runPipeline(args[0], aggregate.ModeCount, basis)
	if err != nil {
		return err
	}

	batch := &model.ImportBatch{
		ID:     uuid.New().String(),
		Source: config.ExpandPath(args[0]),
		Basis:  basis.String(),
	}
	permits := report.StoredPermits(categorizer, batch.ID)
	for _, g := range report.Groups {
		if g.OK() {
			slog.Info("Loaded sheet", "group", g.Name, "permits", g.Stats.Loaded, "excluded", g.Stats.Excluded())
		}
	}

	if len(permits) == 0 {
		return common.NewUserError("No permits to import", common.ErrInsufficientData)
	}
	if dryRun {
		fmt.Println(cli.FormatWarning(fmt.Sprintf("Dry run mode - %d permits not saved", len(permits))))
		return nil
	}

	interrupts := cli.NewInterruptHandler(os.Stdout, "Import", "No permits were saved.")
	ctx := interrupts.HandleInterrupts(cmd.Context())
	defer interrupts.Stop()

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := store.SaveImport(ctx, batch, permits); err != nil {
		if interrupts.WasInterrupted() {
			return nil
		}
		return fmt.Errorf("failed to save permits: %w", err)
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf("Imported %d permits as batch %s", batch.Permits, batch.ID)))
	return nil
}
