package main

import (
	"github.com/spf13/cobra"

	"github.com/kermarrec/hgtpipe/internal/orchestrator"
)

var (
	skipDownload bool
	skipExtract  bool
	skipImport   bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full download, extract and import pipeline",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()

		if !skipImport {
			if err := openStores(ctx); err != nil {
				return err
			}
		}

		return orchestrator.Run(ctx, appCtx, orchestrator.Options{
			SkipDownload: skipDownload,
			SkipExtract:  skipExtract,
			SkipImport:   skipImport,
		})
	},
}

func init() {
	runCmd.Flags().BoolVar(&skipDownload, "skip-download", false, "reuse archives already on disk")
	runCmd.Flags().BoolVar(&skipExtract, "skip-extract", false, "reuse tiles already extracted")
	runCmd.Flags().BoolVar(&skipImport, "skip-import", false, "stop after extraction")
}
