package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kermarrec/hgtpipe/internal/domain"
	"github.com/kermarrec/hgtpipe/internal/hgt"
)

// PostgresFactory writes elevations to PostgreSQL through a pgx pool.
// Each Manager wraps one acquired connection, so import workers never
// share a session.
type PostgresFactory struct {
	pool *pgxpool.Pool
}

func NewPostgresFactory(ctx context.Context, dsn string) (*PostgresFactory, error) {
	if err := migratePostgres(dsn); err != nil {
		return nil, fmt.Errorf("store: migrate postgres: %w", err)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store: connect to postgres: %w", err)
	}

	return &PostgresFactory{pool: pool}, nil
}

func (f *PostgresFactory) Manager(ctx context.Context) (Manager, error) {
	conn, err := f.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: acquire postgres connection: %w", err)
	}
	return &postgresManager{conn: conn}, nil
}

func (f *PostgresFactory) Close() error {
	f.pool.Close()
	return nil
}

type postgresManager struct {
	conn *pgxpool.Conn
}

func (m *postgresManager) InsertValue(ctx context.Context, v hgt.Value, src domain.Source) error {
	center := v.Square.Center()

	var elevation *int16
	if !v.Void {
		elevation = &v.Elevation
	}

	_, err := m.conn.Exec(ctx, `
		INSERT INTO elevation_values (tile, run_id, line, col, lat, lng, elevation)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (tile, line, col) DO UPDATE SET
			run_id = EXCLUDED.run_id,
			elevation = EXCLUDED.elevation`,
		src.Tile, src.RunID, v.Line, v.Col, center.Lat, center.Lng, elevation,
	)
	if err != nil {
		return fmt.Errorf("store: insert value %s[%d,%d]: %w", src.Tile, v.Line, v.Col, err)
	}
	return nil
}

func (m *postgresManager) InsertBlock(ctx context.Context, b hgt.Block, src domain.Source) error {
	values, err := json.Marshal(b.Values)
	if err != nil {
		return fmt.Errorf("store: encode block: %w", err)
	}

	topLeft := b.Square[1]
	_, err = m.conn.Exec(ctx, `
		INSERT INTO elevation_blocks (tile, run_id, line, col, lat, lng, cells)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (tile, line, col) DO UPDATE SET
			run_id = EXCLUDED.run_id,
			cells = EXCLUDED.cells`,
		src.Tile, src.RunID, b.Line, b.Col, topLeft.Lat, topLeft.Lng, values,
	)
	if err != nil {
		return fmt.Errorf("store: insert block %s[%d,%d]: %w", src.Tile, b.Line, b.Col, err)
	}
	return nil
}

func (m *postgresManager) Close() error {
	m.conn.Release()
	return nil
}
