package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kermarrec/hgtpipe/internal/app"
	"github.com/kermarrec/hgtpipe/internal/infra/config"
	"github.com/kermarrec/hgtpipe/internal/infra/logger"
	"github.com/kermarrec/hgtpipe/internal/store"
)

var (
	// Flags bound in init()
	cfgFile     string
	workingDir  string
	datasetFile string
)

// appCtx is populated by PersistentPreRunE before any subcommand runs.
var appCtx *app.Context

var rootCmd = &cobra.Command{
	Use:   "hgtpipe",
	Short: "Download, extract and import SRTM elevation tiles",
	Long: `hgtpipe drives a staged worker pipeline over a catalog of HGT
elevation tiles: download the zip archives (with checksum validation
and retries), extract them, and import the raw samples into a SQLite
or PostgreSQL store. Each stage can also be run on its own.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("config error: %w", err)
		}
		if workingDir != "" {
			cfg.WorkingDir = workingDir
		}
		if datasetFile != "" {
			cfg.Dataset = datasetFile
		}

		log, err := logger.New(cfg.Log.Path, logger.ParseLevel(cfg.Log.Level), cfg.Log.IncludeStdout)
		if err != nil {
			return fmt.Errorf("logger error: %w", err)
		}

		appCtx = app.NewContext(cfg, log)
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if appCtx != nil && appCtx.Stores != nil {
			return appCtx.Stores.Close()
		}
		return nil
	},
}

// openStores connects the configured destination store and hangs it on
// the app context. Only the commands that write elevations call this.
func openStores(ctx context.Context) error {
	stores, err := store.NewFactory(ctx, appCtx.Config.Store)
	if err != nil {
		return fmt.Errorf("store error: %w", err)
	}
	appCtx.Stores = stores
	return nil
}

// signalContext is cancelled when the user hits Ctrl+C, which drains
// the worker pools instead of killing them mid-write.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func main() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(lookupCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (yaml)")
	rootCmd.PersistentFlags().StringVarP(&workingDir, "working-dir", "w", "", "override the working directory")
	rootCmd.PersistentFlags().StringVarP(&datasetFile, "dataset", "d", "", "override the dataset catalog file")

	rootCmd.Version = "0.1.0"
}
