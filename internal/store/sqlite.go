package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/kermarrec/hgtpipe/internal/domain"
	"github.com/kermarrec/hgtpipe/internal/hgt"
)

// SQLiteFactory keeps elevations in a local SQLite file. Handy for
// small datasets and for running without a PostgreSQL server around.
type SQLiteFactory struct {
	db *sql.DB
}

func NewSQLiteFactory(dbPath string) (*SQLiteFactory, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("store: create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: connect to sqlite: %w", err)
	}

	if err := migrateSQLite(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: migrate sqlite: %w", err)
	}

	return &SQLiteFactory{db: db}, nil
}

func (f *SQLiteFactory) Manager(ctx context.Context) (Manager, error) {
	conn, err := f.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: acquire sqlite connection: %w", err)
	}
	return &sqliteManager{conn: conn}, nil
}

func (f *SQLiteFactory) Close() error {
	return f.db.Close()
}

type sqliteManager struct {
	conn *sql.Conn
}

func (m *sqliteManager) InsertValue(ctx context.Context, v hgt.Value, src domain.Source) error {
	center := v.Square.Center()

	var elevation sql.NullInt64
	if !v.Void {
		elevation = sql.NullInt64{Int64: int64(v.Elevation), Valid: true}
	}

	_, err := m.conn.ExecContext(ctx, `
		INSERT INTO elevation_values (tile, run_id, line, col, lat, lng, elevation)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (tile, line, col) DO UPDATE SET
			run_id = excluded.run_id,
			elevation = excluded.elevation`,
		src.Tile, src.RunID, v.Line, v.Col, center.Lat, center.Lng, elevation,
	)
	if err != nil {
		return fmt.Errorf("store: insert value %s[%d,%d]: %w", src.Tile, v.Line, v.Col, err)
	}
	return nil
}

func (m *sqliteManager) InsertBlock(ctx context.Context, b hgt.Block, src domain.Source) error {
	values, err := json.Marshal(b.Values)
	if err != nil {
		return fmt.Errorf("store: encode block: %w", err)
	}

	topLeft := b.Square[1]
	_, err = m.conn.ExecContext(ctx, `
		INSERT INTO elevation_blocks (tile, run_id, line, col, lat, lng, cells)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (tile, line, col) DO UPDATE SET
			run_id = excluded.run_id,
			cells = excluded.cells`,
		src.Tile, src.RunID, b.Line, b.Col, topLeft.Lat, topLeft.Lng, string(values),
	)
	if err != nil {
		return fmt.Errorf("store: insert block %s[%d,%d]: %w", src.Tile, b.Line, b.Col, err)
	}
	return nil
}

func (m *sqliteManager) Close() error {
	return m.conn.Close()
}
