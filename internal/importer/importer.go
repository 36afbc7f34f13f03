package importer

import (
	"context"
	"path/filepath"

	"github.com/kermarrec/hgtpipe/internal/domain"
	"github.com/kermarrec/hgtpipe/internal/hgt"
	"github.com/kermarrec/hgtpipe/internal/infra/config"
	"github.com/kermarrec/hgtpipe/internal/infra/logger"
	"github.com/kermarrec/hgtpipe/internal/pipeline"
	"github.com/kermarrec/hgtpipe/internal/store"
)

// Handler decodes HGT tiles and feeds every sample into the
// destination store. It implements pipeline.Handler[string]; each item
// is the path of one tile file. There is no stage-local retry: a failed
// file is re-imported wholesale on the next run, which the store's
// upserts make safe.
type Handler struct {
	stores store.Factory
	cfg    config.ImportConfig
	runID  string
	log    *logger.Logger
}

func NewHandler(stores store.Factory, cfg config.ImportConfig, runID string, log *logger.Logger) *Handler {
	return &Handler{
		stores: stores,
		cfg:    cfg,
		runID:  runID,
		log:    log,
	}
}

func (h *Handler) Process(ctx context.Context, filePath string, prog pipeline.Progress) error {
	h.log.Info("[import] file %s (%s)", filepath.Base(filePath), prog)

	// Both handles are scoped to this one file, released whatever the
	// outcome.
	mgr, err := h.stores.Manager(ctx)
	if err != nil {
		return err
	}
	defer mgr.Close()

	parser, err := hgt.NewParser(filePath)
	if err != nil {
		return err
	}
	defer parser.Close()

	src := domain.Source{Tile: parser.Filename, RunID: h.runID}
	if h.cfg.Raster {
		return h.importBlocks(ctx, parser, mgr, src)
	}
	return h.importValues(ctx, parser, mgr, src)
}

func (h *Handler) importValues(ctx context.Context, parser *hgt.Parser, mgr store.Manager, src domain.Source) error {
	it := parser.Values()
	total := it.Len()
	progress := newProgressMeter(h.log, src.Tile, total)

	for it.Next() {
		// A cancellation mid-file is not an error: the file restarts
		// from scratch on the next run.
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if err := mgr.InsertValue(ctx, it.Value(), src); err != nil {
			return err
		}
		progress.step()
	}
	return it.Err()
}

func (h *Handler) importBlocks(ctx context.Context, parser *hgt.Parser, mgr store.Manager, src domain.Source) error {
	it := parser.Samples(h.cfg.SampleWidth, h.cfg.SampleHeight)
	total := it.Len()
	progress := newProgressMeter(h.log, src.Tile, total)

	for it.Next() {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if err := mgr.InsertBlock(ctx, it.Block(), src); err != nil {
			return err
		}
		progress.step()
	}
	return it.Err()
}

// progressMeter logs whenever the integer percentage moves, so a
// million-sample tile produces at most a hundred lines instead of one
// per insert.
type progressMeter struct {
	log       *logger.Logger
	tile      string
	total     int
	processed int
	lastPct   int
}

func newProgressMeter(log *logger.Logger, tile string, total int) *progressMeter {
	return &progressMeter{log: log, tile: tile, total: total}
}

func (p *progressMeter) step() {
	p.processed++
	pct := p.processed * 100 / p.total
	if pct != p.lastPct {
		p.log.Info("[import] %s %d%% (%d/%d)", p.tile, pct, p.processed, p.total)
		p.lastPct = pct
	}
}
