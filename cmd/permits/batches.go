package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/Veraticus/permitflow/internal/cli"
	"github.com/Veraticus/permitflow/internal/common"
	"github.com/spf13/cobra"
)

func batchesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batches",
		Short: "Manage imported permit batches",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List import batches, newest first",
		Args:  cobra.NoArgs,
		RunE:  runBatchesList,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "delete <batch-id>",
		Short: "Delete an import batch and its permits",
		Args:  cobra.ExactArgs(1),
		RunE:  runBatchesDelete,
	})
	return cmd
}

func runBatchesList(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	batches, err := store.GetImportBatches(ctx)
	if err != nil {
		return err
	}
	if len(batches) == 0 {
		fmt.Println(cli.FormatInfo("No imports yet. Run 'permits import <workbook.xlsx>'."))
		return nil
	}

	rows := make([][]string, 0, len(batches))
	for _, b := range batches {
		rows = append(rows, []string{
			b.ID,
			b.ImportedAt.Local().Format("2006-01-02 15:04"),
			b.Basis,
			strconv.Itoa(b.Permits),
			b.Source,
		})
	}
	fmt.Println(cli.RenderBox(cli.FolderIcon+" Import batches",
		cli.Table([]string{"ID", "Imported", "Basis", "Permits", "Source"}, rows)))
	return nil
}

func runBatchesDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := store.DeleteImportBatch(ctx, args[0]); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.NewUserError(fmt.Sprintf("No import batch %s", args[0]), err)
		}
		return err
	}
	fmt.Println(cli.FormatSuccess("Deleted batch " + args[0]))
	return nil
}
