package hgt

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/kermarrec/hgtpipe/internal/domain"
)

// Lookup opens the tile covering pos inside folder and reads the
// elevation of the matching cell. Returns domain.ErrNoTile when no
// tile file covers the position.
func Lookup(folder string, pos Position) (Elevation, error) {
	tile := TileName(pos)

	path := filepath.Join(folder, tile)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Elevation{}, fmt.Errorf("%s: %w", tile, domain.ErrNoTile)
		}
		return Elevation{}, fmt.Errorf("hgt: stat %s: %w", path, err)
	}

	p, err := NewParser(path)
	if err != nil {
		return Elevation{}, err
	}
	defer p.Close()

	return p.ElevationAt(pos)
}
