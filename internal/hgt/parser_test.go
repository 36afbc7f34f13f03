package hgt

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTile writes an n*n grid of big-endian int16 samples.
func writeTile(t *testing.T, dir, name string, values []int16) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, binary.Write(f, binary.BigEndian, values))
	return path
}

func TestNewParserGridSize(t *testing.T) {
	dir := t.TempDir()

	p, err := NewParser(writeTile(t, dir, "N00E000.hgt", make([]int16, 9)))
	require.NoError(t, err)
	defer p.Close()
	assert.Equal(t, 3, p.Rows)
	assert.Equal(t, 3, p.Cols)
}

func TestNewParserRejectsNonSquareFile(t *testing.T) {
	dir := t.TempDir()
	path := writeTile(t, dir, "N00E000.hgt", make([]int16, 10))
	_, err := NewParser(path)
	assert.Error(t, err)
}

func TestNewParserFilename(t *testing.T) {
	tests := []struct {
		name string
		want Position
	}{
		{"N00E010.hgt", Position{0, 10}},
		{"S10W020.hgt", Position{-10, -20}},
		{"N48E002.hgt", Position{48, 2}},
	}

	dir := t.TempDir()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewParser(writeTile(t, dir, tt.name, make([]int16, 4)))
			require.NoError(t, err)
			defer p.Close()
			assert.Equal(t, tt.want, p.bottomLeftCenter)
		})
	}
}

func TestNewParserBadFilename(t *testing.T) {
	dir := t.TempDir()
	path := writeTile(t, dir, "elevations.hgt", make([]int16, 4))
	_, err := NewParser(path)
	assert.Error(t, err)
}

func TestParserCorners(t *testing.T) {
	dir := t.TempDir()
	p, err := NewParser(writeTile(t, dir, "N00E000.hgt", make([]int16, 9)))
	require.NoError(t, err)
	defer p.Close()

	// 3x3 grid: each cell spans half a degree.
	assert.InDelta(t, 0.5, p.SquareWidth(), 1e-9)
	assert.InDelta(t, 0.5, p.SquareHeight(), 1e-9)
	assert.InDelta(t, 1.5, p.AreaWidth(), 1e-9)

	c := p.Corners()
	assert.InDelta(t, -0.25, c[0].Lat, 1e-9)
	assert.InDelta(t, -0.25, c[0].Lng, 1e-9)
	assert.InDelta(t, 1.25, c[2].Lat, 1e-9)
	assert.InDelta(t, 1.25, c[2].Lng, 1e-9)
}

func TestValueIterator(t *testing.T) {
	dir := t.TempDir()
	p, err := NewParser(writeTile(t, dir, "N00E000.hgt", []int16{10, VoidValue, 20, 5}))
	require.NoError(t, err)
	defer p.Close()

	it := p.Values()
	require.Equal(t, 4, it.Len())

	var got []Value
	for it.Next() {
		got = append(got, it.Value())
	}
	require.NoError(t, it.Err())
	require.Len(t, got, 4)

	assert.Equal(t, int16(10), got[0].Elevation)
	assert.False(t, got[0].Void)
	assert.Equal(t, 1, got[0].Line)
	assert.Equal(t, 1, got[0].Col)

	assert.True(t, got[1].Void)
	assert.Equal(t, int16(VoidValue), got[1].Elevation)
	assert.Equal(t, 2, got[1].Col)

	assert.Equal(t, int16(20), got[2].Elevation)
	assert.Equal(t, 2, got[2].Line)
	assert.Equal(t, 1, got[2].Col)

	assert.Equal(t, int16(5), got[3].Elevation)
	assert.Equal(t, 3, got[3].Index)
}

func TestSampleIterator(t *testing.T) {
	values := []int16{
		1, 2, 3,
		4, 5, 6,
		7, 8, 9,
	}
	dir := t.TempDir()
	p, err := NewParser(writeTile(t, dir, "N00E000.hgt", values))
	require.NoError(t, err)
	defer p.Close()

	it := p.Samples(2, 2)
	require.Equal(t, 4, it.Len())

	var blocks []Block
	for it.Next() {
		blocks = append(blocks, it.Block())
	}
	require.NoError(t, it.Err())
	require.Len(t, blocks, 4)

	assert.Equal(t, [][]int16{{1, 2}, {4, 5}}, blocks[0].Values)
	// Edge blocks are clipped to the grid.
	assert.Equal(t, [][]int16{{3}, {6}}, blocks[1].Values)
	assert.Equal(t, [][]int16{{7, 8}}, blocks[2].Values)
	assert.Equal(t, [][]int16{{9}}, blocks[3].Values)
}

func TestSampleIteratorDefaultsToWholeTile(t *testing.T) {
	dir := t.TempDir()
	p, err := NewParser(writeTile(t, dir, "N00E000.hgt", make([]int16, 9)))
	require.NoError(t, err)
	defer p.Close()

	it := p.Samples(0, 0)
	require.Equal(t, 1, it.Len())
	require.True(t, it.Next())
	assert.Len(t, it.Block().Values, 3)
	assert.False(t, it.Next())
}

func TestElevationAt(t *testing.T) {
	values := []int16{
		100, 200, 300,
		400, 500, 600,
		700, 800, VoidValue,
	}
	dir := t.TempDir()
	p, err := NewParser(writeTile(t, dir, "N00E000.hgt", values))
	require.NoError(t, err)
	defer p.Close()

	// Top-left cell center is (1.0, 0.0).
	e, err := p.ElevationAt(Position{Lat: 1.0, Lng: 0.0})
	require.NoError(t, err)
	assert.Equal(t, int16(100), e.Value)
	assert.False(t, e.Void)

	// Bottom-right cell center is (0.0, 1.0).
	e, err = p.ElevationAt(Position{Lat: 0.0, Lng: 1.0})
	require.NoError(t, err)
	assert.True(t, e.Void)

	_, err = p.ElevationAt(Position{Lat: 40.0, Lng: 2.0})
	assert.Error(t, err)
}

func TestTileName(t *testing.T) {
	tests := []struct {
		pos  Position
		want string
	}{
		{Position{48.8, 2.3}, "N48E002.hgt"},
		{Position{-1.5, -0.5}, "S02W001.hgt"},
		{Position{0.2, 10.9}, "N00E010.hgt"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TileName(tt.pos))
	}
}
