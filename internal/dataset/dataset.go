package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/kermarrec/hgtpipe/internal/domain"
)

// File is one tile entry of a catalog.
type File struct {
	// URL is where the zipped tile lives on the mirror.
	URL string `json:"url"`

	// Zip is the local archive file name.
	Zip string `json:"zip"`

	// MD5 is the optional lowercase hex content hash of the archive.
	MD5 string `json:"md5,omitempty"`
}

// Dataset is a catalog of HGT tiles, keyed by tile name
// (e.g. "N00E010").
type Dataset struct {
	// Folder names the sub-directory of the working dir the dataset
	// downloads into. Defaults to the catalog file's base name.
	Folder string `json:"folder,omitempty"`

	Files map[string]File `json:"files"`
}

// Load reads and validates a catalog file.
func Load(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: %w", err)
	}

	var ds Dataset
	if err := json.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("dataset: parse %s: %w", path, err)
	}

	if len(ds.Files) == 0 {
		return nil, fmt.Errorf("dataset: %s contains no files", path)
	}
	for name, f := range ds.Files {
		if f.URL == "" {
			return nil, fmt.Errorf("dataset: file %s: url is required", name)
		}
		if f.Zip == "" {
			return nil, fmt.Errorf("dataset: file %s: zip is required", name)
		}
	}

	return &ds, nil
}

// DownloadTasks converts the catalog into download work items, in a
// stable order so runs are reproducible.
func (ds *Dataset) DownloadTasks() []domain.DownloadTask {
	names := make([]string, 0, len(ds.Files))
	for name := range ds.Files {
		names = append(names, name)
	}
	sort.Strings(names)

	tasks := make([]domain.DownloadTask, 0, len(names))
	for _, name := range names {
		f := ds.Files[name]
		tasks = append(tasks, domain.DownloadTask{
			URL:     f.URL,
			Archive: f.Zip,
			MD5:     f.MD5,
		})
	}
	return tasks
}
