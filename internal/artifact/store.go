// Package artifact materializes downloaded video bytes into locally
// addressable files and releases them when no longer displayed.
package artifact

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Fetcher retrieves a remote artifact by its locator.
type Fetcher interface {
	DownloadVideo(ctx context.Context, uri string) ([]byte, error)
}

// Store writes fetched artifacts under a single directory, one file per
// job, and removes them on Release.
type Store struct {
	dir   string
	fetch Fetcher
}

// NewStore creates the directory if needed.
func NewStore(dir string, fetch Fetcher) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create videos dir %s: %w", dir, err)
	}
	return &Store{dir: dir, fetch: fetch}, nil
}

// Materialize downloads the artifact and writes it to <dir>/<jobID>.mp4,
// returning the local path.
func (s *Store) Materialize(ctx context.Context, jobID, uri string) (string, error) {
	data, err := s.fetch.DownloadVideo(ctx, uri)
	if err != nil {
		return "", err
	}

	path := filepath.Join(s.dir, jobID+".mp4")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write video %s: %w", path, err)
	}
	return path, nil
}

// Release deletes a materialized file. Missing files are not an error;
// the caller may have cleaned up already.
func (s *Store) Release(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("release video %s: %w", path, err)
	}
	return nil
}
