package orchestrator

import (
	"archive/zip"
	"bytes"
	"context"
	"crypto/md5"
	"database/sql"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/kermarrec/hgtpipe/internal/app"
	"github.com/kermarrec/hgtpipe/internal/domain"
	"github.com/kermarrec/hgtpipe/internal/infra/config"
	"github.com/kermarrec/hgtpipe/internal/infra/logger"
	"github.com/kermarrec/hgtpipe/internal/store"
)

// tileArchive zips a 2x2 HGT grid under the given tile name.
func tileArchive(t *testing.T, tile string, values []int16) []byte {
	t.Helper()

	var raw bytes.Buffer
	require.NoError(t, binary.Write(&raw, binary.BigEndian, values))

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create(tile)
	require.NoError(t, err)
	_, err = w.Write(raw.Bytes())
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func testApp(t *testing.T, datasetPath, sqlitePath string) *app.Context {
	t.Helper()

	cfg := &config.Config{
		WorkingDir: t.TempDir(),
		Dataset:    datasetPath,
		Concurrency: config.ConcurrencyConfig{
			Download: 2,
			Extract:  2,
			Import:   2,
		},
		Download: config.DownloadConfig{Attempts: 3},
		Store:    config.StoreConfig{Driver: "sqlite", SQLitePath: sqlitePath},
	}

	a := app.NewContext(cfg, logger.Discard())

	stores, err := store.NewFactory(context.Background(), cfg.Store)
	require.NoError(t, err)
	t.Cleanup(func() { stores.Close() })
	a.Stores = stores
	return a
}

func writeDataset(t *testing.T, url string, md5sum string) string {
	t.Helper()
	catalog := map[string]any{
		"folder": "srtm-test",
		"files": map[string]any{
			"N00E010": map[string]string{
				"url": url,
				"zip": "N00E010.hgt.zip",
				"md5": md5sum,
			},
		},
	}
	data, err := json.Marshal(catalog)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "tiles.json")
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func TestRunFullPipeline(t *testing.T) {
	archive := tileArchive(t, "N00E010.hgt", []int16{10, -32768, 20, 5})
	sum := md5.Sum(archive)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(archive)
	}))
	defer srv.Close()

	sqlitePath := filepath.Join(t.TempDir(), "elevations.db")
	a := testApp(t, writeDataset(t, srv.URL, hex.EncodeToString(sum[:])), sqlitePath)

	require.NoError(t, Run(context.Background(), a, Options{}))

	// Download and extract stages left their outputs in the folder.
	folder := filepath.Join(a.Config.WorkingDir, "srtm-test")
	_, err := os.Stat(filepath.Join(folder, "N00E010.hgt.zip"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(folder, "N00E010.hgt"))
	require.NoError(t, err)

	// Import stage wrote every sample; the void one as NULL.
	db, err := sql.Open("sqlite", sqlitePath)
	require.NoError(t, err)
	defer db.Close()

	var total, voids int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM elevation_values").Scan(&total))
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM elevation_values WHERE elevation IS NULL").Scan(&voids))
	assert.Equal(t, 4, total)
	assert.Equal(t, 1, voids)
}

func TestRunIsResumable(t *testing.T) {
	archive := tileArchive(t, "N00E010.hgt", []int16{10, -32768, 20, 5})
	sum := md5.Sum(archive)

	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write(archive)
	}))
	defer srv.Close()

	sqlitePath := filepath.Join(t.TempDir(), "elevations.db")
	a := testApp(t, writeDataset(t, srv.URL, hex.EncodeToString(sum[:])), sqlitePath)

	require.NoError(t, Run(context.Background(), a, Options{}))
	require.NoError(t, Run(context.Background(), a, Options{}))

	// The second run revalidated the existing archive instead of
	// downloading it again.
	assert.Equal(t, 1, hits)
}

func TestRunSurfacesDownloadFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusInternalServerError)
	}))
	defer srv.Close()

	sqlitePath := filepath.Join(t.TempDir(), "elevations.db")
	a := testApp(t, writeDataset(t, srv.URL, ""), sqlitePath)

	err := Run(context.Background(), a, Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPipelineFailed)
	assert.Contains(t, err.Error(), "download")
}

func TestHTTPClientUsesConfiguredTimeout(t *testing.T) {
	c := httpClient(config.DownloadConfig{TimeoutSec: 7})
	require.NotNil(t, c)
	assert.Equal(t, 7*time.Second, c.Timeout)

	// Unset falls back to the download handler's default client.
	assert.Nil(t, httpClient(config.DownloadConfig{}))
	assert.Nil(t, httpClient(config.DownloadConfig{TimeoutSec: -1}))
}

func TestRunWithoutDataset(t *testing.T) {
	cfg := &config.Config{WorkingDir: t.TempDir()}
	a := app.NewContext(cfg, logger.Discard())
	assert.Error(t, Run(context.Background(), a, Options{}))
}
