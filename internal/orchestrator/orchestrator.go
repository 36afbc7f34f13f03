package orchestrator

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/segmentio/ksuid"

	"github.com/kermarrec/hgtpipe/internal/app"
	"github.com/kermarrec/hgtpipe/internal/dataset"
	"github.com/kermarrec/hgtpipe/internal/download"
	"github.com/kermarrec/hgtpipe/internal/extract"
	"github.com/kermarrec/hgtpipe/internal/importer"
	"github.com/kermarrec/hgtpipe/internal/infra/config"
	"github.com/kermarrec/hgtpipe/internal/pipeline"
)

// Options tunes a full pipeline run. Stages can be skipped when a
// previous run already completed them.
type Options struct {
	SkipDownload bool
	SkipExtract  bool
	SkipImport   bool
}

// Run executes the download, extract and import stages in sequence,
// each with its own worker pool. The first stage failure stops the
// whole run.
func Run(ctx context.Context, a *app.Context, opts Options) error {
	runID := ksuid.New().String()
	a.Logger.Info("starting pipeline run %s", runID)

	ds, folder, err := LoadDataset(a)
	if err != nil {
		return err
	}

	if !opts.SkipDownload {
		if err := Download(ctx, a, ds, folder); err != nil {
			return err
		}
	}
	if !opts.SkipExtract {
		if err := Extract(ctx, a, folder); err != nil {
			return err
		}
	}
	if !opts.SkipImport {
		if err := Import(ctx, a, folder, runID); err != nil {
			return err
		}
	}

	a.Logger.Info("pipeline run %s finished", runID)
	return nil
}

// LoadDataset reads the configured catalog and resolves (and creates)
// the folder its tiles live in.
func LoadDataset(a *app.Context) (*dataset.Dataset, string, error) {
	if a.Config.Dataset == "" {
		return nil, "", fmt.Errorf("no dataset configured")
	}

	ds, err := dataset.Load(a.Config.Dataset)
	if err != nil {
		return nil, "", err
	}

	sub := ds.Folder
	if sub == "" {
		base := filepath.Base(a.Config.Dataset)
		sub = strings.TrimSuffix(base, filepath.Ext(base))
	}

	folder := filepath.Join(a.Config.WorkingDir, sub)
	if err := os.MkdirAll(folder, 0755); err != nil {
		return nil, "", fmt.Errorf("create working folder %s: %w", folder, err)
	}
	return ds, folder, nil
}

// Download fetches every archive of the catalog into folder.
func Download(ctx context.Context, a *app.Context, ds *dataset.Dataset, folder string) error {
	handler := download.NewHandler(httpClient(a.Config.Download), folder, a.Config.Download.Attempts, a.Logger)

	pool, err := pipeline.New("download", handler, a.Config.Concurrency.Download, a.Logger)
	if err != nil {
		return err
	}
	pool.Fill(ds.DownloadTasks())
	return pool.Run(ctx)
}

// Extract unpacks every zip found in folder.
func Extract(ctx context.Context, a *app.Context, folder string) error {
	archives, err := listFiles(folder, "*.zip")
	if err != nil {
		return err
	}

	handler := extract.NewHandler(folder, a.Logger)
	pool, err := pipeline.New("extract", handler, a.Config.Concurrency.Extract, a.Logger)
	if err != nil {
		return err
	}
	pool.Fill(archives)
	return pool.Run(ctx)
}

// Import decodes every HGT tile found in folder into the destination
// store.
func Import(ctx context.Context, a *app.Context, folder, runID string) error {
	if a.Stores == nil {
		return fmt.Errorf("no destination store configured")
	}

	tiles, err := listFiles(folder, "*.hgt")
	if err != nil {
		return err
	}

	handler := importer.NewHandler(a.Stores, a.Config.Import, runID, a.Logger)
	pool, err := pipeline.New("import", handler, a.Config.Concurrency.Import, a.Logger)
	if err != nil {
		return err
	}
	pool.Fill(tiles)
	return pool.Run(ctx)
}

// NewRunID returns a fresh pipeline run identifier for callers driving
// a single stage.
func NewRunID() string {
	return ksuid.New().String()
}

// httpClient builds the mirror client with the configured per-request
// timeout. A zero or negative timeout falls back to the download
// handler's default.
func httpClient(cfg config.DownloadConfig) *http.Client {
	if cfg.TimeoutSec <= 0 {
		return nil
	}
	return &http.Client{Timeout: time.Duration(cfg.TimeoutSec) * time.Second}
}

func listFiles(folder, pattern string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(folder, pattern))
	if err != nil {
		return nil, fmt.Errorf("list %s in %s: %w", pattern, folder, err)
	}
	return matches, nil
}
