package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kermarrec/hgtpipe/internal/domain"
	"github.com/kermarrec/hgtpipe/internal/hgt"
	"github.com/kermarrec/hgtpipe/internal/infra/config"
)

// cellSquare is a one-degree cell footprint: bottom-left, top-left,
// top-right, bottom-right.
var cellSquare = hgt.Square{
	{Lat: 0, Lng: 0},
	{Lat: 1, Lng: 0},
	{Lat: 1, Lng: 1},
	{Lat: 0, Lng: 1},
}

func newSQLite(t *testing.T) *SQLiteFactory {
	t.Helper()
	f, err := NewSQLiteFactory(filepath.Join(t.TempDir(), "elevations.db"))
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func TestSQLiteInsertValue(t *testing.T) {
	ctx := context.Background()
	f := newSQLite(t)

	m, err := f.Manager(ctx)
	require.NoError(t, err)
	defer m.Close()

	src := domain.Source{Tile: "N00E000.hgt", RunID: "run-1"}
	require.NoError(t, m.InsertValue(ctx, hgt.Value{
		Line: 1, Col: 1, Square: cellSquare, Elevation: 42,
	}, src))
	require.NoError(t, m.InsertValue(ctx, hgt.Value{
		Line: 1, Col: 2, Square: cellSquare, Elevation: hgt.VoidValue, Void: true,
	}, src))

	rows, err := f.db.Query("SELECT run_id, lat, lng, elevation FROM elevation_values ORDER BY col")
	require.NoError(t, err)
	defer rows.Close()

	var got []struct {
		runID     string
		lat, lng  float64
		elevation sql.NullInt64
	}
	for rows.Next() {
		var r struct {
			runID     string
			lat, lng  float64
			elevation sql.NullInt64
		}
		require.NoError(t, rows.Scan(&r.runID, &r.lat, &r.lng, &r.elevation))
		got = append(got, r)
	}
	require.NoError(t, rows.Err())
	require.Len(t, got, 2)

	assert.Equal(t, "run-1", got[0].runID)
	assert.InDelta(t, 0.5, got[0].lat, 1e-9)
	assert.InDelta(t, 0.5, got[0].lng, 1e-9)
	require.True(t, got[0].elevation.Valid)
	assert.EqualValues(t, 42, got[0].elevation.Int64)

	// Void cells land as NULL.
	assert.False(t, got[1].elevation.Valid)
}

func TestSQLiteInsertValueIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newSQLite(t)

	m, err := f.Manager(ctx)
	require.NoError(t, err)
	defer m.Close()

	v := hgt.Value{Line: 1, Col: 1, Square: cellSquare, Elevation: 42}
	require.NoError(t, m.InsertValue(ctx, v, domain.Source{Tile: "N00E000.hgt", RunID: "run-1"}))

	// A re-run of the same file overwrites rather than duplicating.
	v.Elevation = 43
	require.NoError(t, m.InsertValue(ctx, v, domain.Source{Tile: "N00E000.hgt", RunID: "run-2"}))

	var count int
	var runID string
	var elevation int64
	require.NoError(t, f.db.QueryRow("SELECT COUNT(*) FROM elevation_values").Scan(&count))
	require.NoError(t, f.db.QueryRow("SELECT run_id, elevation FROM elevation_values").Scan(&runID, &elevation))
	assert.Equal(t, 1, count)
	assert.Equal(t, "run-2", runID)
	assert.EqualValues(t, 43, elevation)
}

func TestSQLiteInsertBlock(t *testing.T) {
	ctx := context.Background()
	f := newSQLite(t)

	m, err := f.Manager(ctx)
	require.NoError(t, err)
	defer m.Close()

	b := hgt.Block{
		Line:   0,
		Col:    0,
		Square: cellSquare,
		Values: [][]int16{{1, 2}, {3, hgt.VoidValue}},
	}
	require.NoError(t, m.InsertBlock(ctx, b, domain.Source{Tile: "N00E000.hgt", RunID: "run-1"}))

	var cells string
	require.NoError(t, f.db.QueryRow("SELECT cells FROM elevation_blocks").Scan(&cells))
	assert.JSONEq(t, "[[1,2],[3,-32768]]", cells)
}

func TestNewFactoryDriverDispatch(t *testing.T) {
	f, err := NewFactory(context.Background(), config.StoreConfig{
		Driver:     "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "elevations.db"),
	})
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = NewFactory(context.Background(), config.StoreConfig{Driver: "mysql"})
	assert.Error(t, err)
}
