package hgt

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
)

// VoidValue is the raw sample marking a cell with no elevation data.
const VoidValue int16 = -32768

// Position is a WGS84 latitude/longitude pair in decimal degrees.
type Position struct {
	Lat float64
	Lng float64
}

// Square is the footprint of one elevation cell: bottom-left, top-left,
// top-right, bottom-right.
type Square [4]Position

// Center returns the middle of the square, which is the position a
// cell's elevation value is attributed to.
func (s Square) Center() Position {
	return Position{
		Lat: (s[0].Lat + s[1].Lat) / 2,
		Lng: (s[0].Lng + s[3].Lng) / 2,
	}
}

var filenameRe = regexp.MustCompile(`^([NS])([0-9]+)([EW])([0-9]+)`)

// Parser reads an HGT raster tile. The grid is square, row-major from
// the north-west corner, one big-endian int16 per cell. The grid size
// is derived from the file size (3601 for SRTM1, 1201 for SRTM3), so
// odd-sized fixtures work too.
type Parser struct {
	Filepath string
	Filename string

	// Rows and Cols are the number of samples on the latitude and
	// longitude axes.
	Rows int
	Cols int

	file             *os.File
	bottomLeftCenter Position
	corners          Square
	topLeftSquare    Square
}

// NewParser opens path and reads the tile geometry from its name and
// size. Close must be called when done.
func NewParser(path string) (*Parser, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("hgt: %w", err)
	}

	n, err := gridSize(info.Size())
	if err != nil {
		return nil, fmt.Errorf("hgt: %s: %w", path, err)
	}

	p := &Parser{
		Filepath: path,
		Filename: filepath.Base(path),
		Rows:     n,
		Cols:     n,
	}

	p.bottomLeftCenter, err = parseFilename(p.Filename)
	if err != nil {
		return nil, err
	}
	p.corners = p.cornersFromCenter(p.bottomLeftCenter)
	p.topLeftSquare = Square{
		{p.corners[1].Lat - p.SquareHeight(), p.corners[1].Lng},
		p.corners[1],
		{p.corners[1].Lat, p.corners[1].Lng + p.SquareWidth()},
		{p.corners[1].Lat - p.SquareHeight(), p.corners[1].Lng + p.SquareWidth()},
	}

	p.file, err = os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("hgt: %w", err)
	}
	return p, nil
}

func (p *Parser) Close() error {
	if p.file == nil {
		return nil
	}
	err := p.file.Close()
	p.file = nil
	return err
}

// gridSize derives the per-axis sample count from the file size.
// A tile holds n*n big-endian int16 values.
func gridSize(size int64) (int, error) {
	if size <= 0 || size%2 != 0 {
		return 0, fmt.Errorf("size %d is not a sample grid", size)
	}
	n := int(math.Round(math.Sqrt(float64(size / 2))))
	if int64(n)*int64(n)*2 != size {
		return 0, fmt.Errorf("size %d is not a square sample grid", size)
	}
	return n, nil
}

// parseFilename extracts the latitude and longitude of the center of
// the bottom-left cell from names like N48E002.hgt.
func parseFilename(name string) (Position, error) {
	m := filenameRe.FindStringSubmatch(name)
	if m == nil {
		return Position{}, fmt.Errorf("hgt: file name %q does not encode a tile position", name)
	}

	lat, _ := strconv.ParseFloat(m[2], 64)
	lng, _ := strconv.ParseFloat(m[4], 64)
	if m[1] == "S" {
		lat = -lat
	}
	if m[3] == "W" {
		lng = -lng
	}
	return Position{Lat: lat, Lng: lng}, nil
}

// SquareWidth is the longitude span of one elevation cell.
func (p *Parser) SquareWidth() float64 {
	return 1.0 / float64(p.Cols-1)
}

// SquareHeight is the latitude span of one elevation cell.
func (p *Parser) SquareHeight() float64 {
	return 1.0 / float64(p.Rows-1)
}

// AreaWidth is the total longitude span covered by the tile.
func (p *Parser) AreaWidth() float64 {
	return 1.0 + p.SquareWidth()
}

// AreaHeight is the total latitude span covered by the tile.
func (p *Parser) AreaHeight() float64 {
	return 1.0 + p.SquareHeight()
}

// cornersFromCenter builds the tile footprint from the center of the
// bottom-left cell: bottom-left, top-left, top-right, bottom-right.
func (p *Parser) cornersFromCenter(center Position) Square {
	bottomLeft := Position{
		Lat: center.Lat - p.SquareHeight()/2,
		Lng: center.Lng - p.SquareWidth()/2,
	}
	topLeft := Position{Lat: bottomLeft.Lat + p.AreaHeight(), Lng: bottomLeft.Lng}
	topRight := Position{Lat: topLeft.Lat, Lng: topLeft.Lng + p.AreaWidth()}
	bottomRight := Position{Lat: bottomLeft.Lat, Lng: bottomLeft.Lng + p.AreaWidth()}
	return Square{bottomLeft, topLeft, topRight, bottomRight}
}

// Corners returns the tile footprint.
func (p *Parser) Corners() Square {
	return p.corners
}

// ShiftSquare returns the footprint of the cell at the given zero-based
// line and column, counted from the top-left cell.
func (p *Parser) ShiftSquare(line, col int) Square {
	var shifted Square
	for i, c := range p.topLeftSquare {
		shifted[i] = Position{
			Lat: c.Lat - float64(line)*p.SquareHeight(),
			Lng: c.Lng + float64(col)*p.SquareWidth(),
		}
	}
	return shifted
}

// IsInside reports whether pos falls within the tile footprint.
func (p *Parser) IsInside(pos Position) bool {
	return p.corners[0].Lat < pos.Lat &&
		p.corners[0].Lng < pos.Lng &&
		pos.Lat < p.corners[2].Lat &&
		pos.Lng < p.corners[2].Lng
}

// index folds a column and line into the value's position in the file.
func (p *Parser) index(col, line int) int {
	return line*p.Cols + col
}

// valueAt reads the raw sample at idx.
func (p *Parser) valueAt(idx int) (int16, error) {
	if _, err := p.file.Seek(int64(idx)*2, 0); err != nil {
		return 0, fmt.Errorf("hgt: seek %s: %w", p.Filename, err)
	}
	var v int16
	if err := binary.Read(p.file, binary.BigEndian, &v); err != nil {
		return 0, fmt.Errorf("hgt: read %s at %d: %w", p.Filename, idx, err)
	}
	return v, nil
}

// Elevation is a point lookup result.
type Elevation struct {
	LatIdx int
	LngIdx int
	Value  int16
	Void   bool
}

// ElevationAt returns the elevation of the cell covering pos, or an
// error when the position is outside the tile.
func (p *Parser) ElevationAt(pos Position) (Elevation, error) {
	if !p.IsInside(pos) {
		return Elevation{}, fmt.Errorf("hgt: position (%f, %f) is not inside %s", pos.Lat, pos.Lng, p.Filename)
	}

	latIdx := (p.Rows - 1) - int(math.Round((pos.Lat-p.bottomLeftCenter.Lat)/p.SquareHeight()))
	lngIdx := int(math.Round((pos.Lng - p.bottomLeftCenter.Lng) / p.SquareWidth()))

	v, err := p.valueAt(latIdx*p.Cols + lngIdx)
	if err != nil {
		return Elevation{}, err
	}
	return Elevation{LatIdx: latIdx, LngIdx: lngIdx, Value: v, Void: v == VoidValue}, nil
}

// TileName returns the canonical file name of the tile covering pos,
// e.g. "N48E002.hgt". The tile named after floor(lat)/floor(lng)
// carries the cell centered on that corner.
func TileName(pos Position) string {
	lat := int(math.Floor(pos.Lat))
	lng := int(math.Floor(pos.Lng))

	ns, ew := "N", "E"
	if lat < 0 {
		ns = "S"
		lat = -lat
	}
	if lng < 0 {
		ew = "W"
		lng = -lng
	}
	return fmt.Sprintf("%s%02d%s%03d.hgt", ns, lat, ew, lng)
}
