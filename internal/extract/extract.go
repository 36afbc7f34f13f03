package extract

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/kermarrec/hgtpipe/internal/infra/logger"
	"github.com/kermarrec/hgtpipe/internal/pipeline"
)

// Handler unpacks downloaded tile archives into the working folder.
// It implements pipeline.Handler[string]; each item is the path of one
// zip. Extraction errors are not retried here: the download stage has
// already validated archive integrity, so a failure at this point means
// something worth stopping the pipeline for.
type Handler struct {
	folder string
	log    *logger.Logger
}

func NewHandler(folder string, log *logger.Logger) *Handler {
	return &Handler{folder: folder, log: log}
}

func (h *Handler) Process(ctx context.Context, archivePath string, prog pipeline.Progress) error {
	h.log.Info("[extract] file %s (%s)", filepath.Base(archivePath), prog)

	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("unzip %s: %w", archivePath, err)
	}
	defer r.Close()

	for _, f := range r.File {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := h.extractEntry(f); err != nil {
			return fmt.Errorf("unzip %s: %w", archivePath, err)
		}
	}

	h.log.Debug("[extract] extracted %s", archivePath)
	return nil
}

func (h *Handler) extractEntry(f *zip.File) error {
	dest := filepath.Join(h.folder, f.Name)

	// Refuse entry names that would escape the destination folder.
	rel, err := filepath.Rel(h.folder, dest)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return fmt.Errorf("entry %q escapes destination folder", f.Name)
	}

	if f.FileInfo().IsDir() {
		return os.MkdirAll(dest, 0755)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}

	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("entry %s: %w", f.Name, err)
	}
	defer rc.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return fmt.Errorf("entry %s: %w", f.Name, err)
	}
	return out.Close()
}
