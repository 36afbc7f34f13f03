package main

import (
	"github.com/spf13/cobra"

	"github.com/kermarrec/hgtpipe/internal/orchestrator"
)

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download the catalog's zip archives into the working folder",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()

		ds, folder, err := orchestrator.LoadDataset(appCtx)
		if err != nil {
			return err
		}
		return orchestrator.Download(ctx, appCtx, ds, folder)
	},
}

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract every downloaded archive in the working folder",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()

		_, folder, err := orchestrator.LoadDataset(appCtx)
		if err != nil {
			return err
		}
		return orchestrator.Extract(ctx, appCtx, folder)
	},
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import every extracted HGT tile into the destination store",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()

		_, folder, err := orchestrator.LoadDataset(appCtx)
		if err != nil {
			return err
		}
		if err := openStores(ctx); err != nil {
			return err
		}
		return orchestrator.Import(ctx, appCtx, folder, orchestrator.NewRunID())
	},
}
