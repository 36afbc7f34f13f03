package download

import (
	"archive/zip"
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/kermarrec/hgtpipe/internal/domain"
	"github.com/kermarrec/hgtpipe/internal/infra/logger"
	"github.com/kermarrec/hgtpipe/internal/pipeline"
)

const chunkSize = 32 * 1024

// Handler fetches tile archives into the working folder. It implements
// pipeline.Handler[domain.DownloadTask]: each item is one zip to
// stream, checksum and CRC-validate, with a bounded number of retries
// over transient failures.
type Handler struct {
	client      *http.Client
	folder      string
	maxAttempts int
	log         *logger.Logger
}

func NewHandler(client *http.Client, folder string, maxAttempts int, log *logger.Logger) *Handler {
	if client == nil {
		client = &http.Client{Timeout: 120 * time.Second}
	}
	if maxAttempts < 1 {
		maxAttempts = 3
	}
	return &Handler{
		client:      client,
		folder:      folder,
		maxAttempts: maxAttempts,
		log:         log,
	}
}

func (h *Handler) Process(ctx context.Context, task domain.DownloadTask, prog pipeline.Progress) error {
	h.log.Info("[download] file %s (%s)", task.Archive, prog)
	dest := task.ArchivePath(h.folder)

	var lastErr error
	for attempt := 1; attempt <= h.maxAttempts; attempt++ {
		if attempt > 1 {
			h.log.Debug("[download] retrying %s, attempt %d/%d", task.URL, attempt, h.maxAttempts)
		}

		err := h.fetchAndValidate(ctx, task.URL, dest, task.MD5)
		if err == nil {
			h.log.Debug("[download] finished %s", task.URL)
			return nil
		}
		if ctx.Err() != nil {
			return err
		}
		if !isTransient(err) {
			// Unexpected failures are not worth another network round
			// trip; surface them right away.
			return err
		}

		h.log.Error("[download] %s failed validation: %v", task.URL, err)
		lastErr = err
	}

	return fmt.Errorf("giving up on %s after %d attempts: %w", task.URL, h.maxAttempts, lastErr)
}

// isTransient reports whether another attempt could plausibly succeed:
// a corrupted or truncated payload, a bad status from the mirror, or a
// connectivity error. Context cancellation is never transient.
func isTransient(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, domain.ErrChecksumMismatch) || errors.Is(err, domain.ErrBadArchive) {
		return true
	}
	var statusErr *domain.StatusError
	if errors.As(err, &statusErr) {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}

func (h *Handler) fetchAndValidate(ctx context.Context, srcURL, dest, md5sum string) error {
	// A file left behind by an earlier run that still validates makes
	// the pipeline resumable without re-downloading anything.
	if h.isValidFile(dest, md5sum) {
		h.log.Debug("[download] %s already exists and is valid", dest)
		return nil
	}

	if err := h.fetch(ctx, srcURL, dest); err != nil {
		return err
	}
	return h.validate(dest, md5sum)
}

// fetch streams srcURL to dest in chunks, watching for cancellation
// between chunks. On cancellation the bytes written so far are flushed
// and fsynced so the file is truncated cleanly instead of torn.
func (h *Handler) fetch(ctx context.Context, srcURL, dest string) (err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srcURL, nil)
	if err != nil {
		return fmt.Errorf("build request %s: %w", srcURL, err)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("get %s: %w", srcURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 512))
		return &domain.StatusError{URL: srcURL, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create %s: %w", dest, err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	buf := make([]byte, chunkSize)
	for {
		if cerr := ctx.Err(); cerr != nil {
			if serr := out.Sync(); serr != nil {
				return errors.Join(cerr, serr)
			}
			return cerr
		}

		n, rerr := resp.Body.Read(buf)
		if n > 0 {
			if _, werr := out.Write(buf[:n]); werr != nil {
				return fmt.Errorf("write %s: %w", dest, werr)
			}
		}
		if rerr == io.EOF {
			return out.Sync()
		}
		if rerr != nil {
			return fmt.Errorf("read %s: %w", srcURL, rerr)
		}
	}
}

// isValidFile reports whether dest already holds a fully validated
// archive from a previous run.
func (h *Handler) isValidFile(dest, md5sum string) bool {
	if _, err := os.Stat(dest); err != nil {
		return false
	}
	return h.validate(dest, md5sum) == nil
}

// validate checks the content hash when the catalog announced one,
// then the archive's internal CRCs.
func (h *Handler) validate(path, md5sum string) error {
	if md5sum != "" {
		digest, err := fileMD5(path)
		if err != nil {
			return err
		}
		h.log.Debug("[download] verifying md5 for %s: expecting %s, found %s", path, md5sum, digest)
		if digest != md5sum {
			return fmt.Errorf("%s: %w: expected %s, got %s", path, domain.ErrChecksumMismatch, md5sum, digest)
		}
	}
	return checkArchive(path)
}

func fileMD5(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	hash := md5.New()
	if _, err := io.Copy(hash, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}

// checkArchive verifies every entry's CRC by reading it through; the
// zip reader checks the stored CRC on the fly, so nothing is written
// anywhere.
func checkArchive(path string) error {
	r, err := zip.OpenReader(path)
	if err != nil {
		return fmt.Errorf("%s: %w: %v", path, domain.ErrBadArchive, err)
	}
	defer r.Close()

	for _, f := range r.File {
		rc, err := f.Open()
		if err != nil {
			return fmt.Errorf("%s: entry %s: %w: %v", path, f.Name, domain.ErrBadArchive, err)
		}
		_, err = io.Copy(io.Discard, rc)
		rc.Close()
		if err != nil {
			return fmt.Errorf("%s: entry %s: %w: %v", path, f.Name, domain.ErrBadArchive, err)
		}
	}
	return nil
}
