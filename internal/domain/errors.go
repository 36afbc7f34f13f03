package domain

import (
	"errors"
	"fmt"
)

// ErrChecksumMismatch indicates a downloaded archive did not match the
// md5 sum announced by the dataset catalog.
var ErrChecksumMismatch = errors.New("checksum mismatch")

// ErrBadArchive indicates a downloaded archive failed its internal CRC check.
var ErrBadArchive = errors.New("bad archive")

// ErrPipelineFailed is the single aggregate error a worker pool raises
// after at least one of its workers failed.
var ErrPipelineFailed = errors.New("pipeline failed")

// ErrNoTile indicates no HGT tile covers the requested position.
var ErrNoTile = errors.New("no tile covers position")

// StatusError reports a non-200 response from the tile mirror.
type StatusError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("bad status %q fetching %s", e.Status, e.URL)
}
