package domain

import "path/filepath"

// DownloadTask is one tile archive to fetch from the mirror.
type DownloadTask struct {
	// URL is the remote location of the zipped tile.
	URL string

	// Archive is the local file name the zip is saved under.
	Archive string

	// MD5 is the expected content hash as lowercase hex. Empty means
	// the catalog carries no checksum and validation falls back to the
	// archive CRC alone.
	MD5 string
}

// ArchivePath resolves the task's destination inside dir.
func (t DownloadTask) ArchivePath(dir string) string {
	return filepath.Join(dir, t.Archive)
}

// Source identifies where an imported sample came from. It is attached
// to every row written by the store managers.
type Source struct {
	// Tile is the HGT file name, e.g. "N00E010.hgt".
	Tile string

	// RunID is the ksuid of the pipeline invocation that imported the row.
	RunID string
}
