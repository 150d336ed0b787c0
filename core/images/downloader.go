package images

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// maxCollisions bounds the suffix search in a single directory.
const maxCollisions = 10000

// Source performs the authenticated GET for an image URL.
type Source interface {
	Download(ctx context.Context, url string) ([]byte, error)
}

// Downloader writes images under {root}/workitem_{id}.
type Downloader struct {
	source Source
	root   string
}

// NewDownloader creates a Downloader storing files below root.
func NewDownloader(source Source, root string) *Downloader {
	return &Downloader{source: source, root: root}
}

// Download fetches url and stores it under the work item's image directory,
// returning the local path. Any failure is returned as an error and leaves no
// partial file behind; callers fall back to the remote URL.
func (d *Downloader) Download(ctx context.Context, url string, itemID int) (string, error) {
	data, err := d.source.Download(ctx, url)
	if err != nil {
		return "", err
	}

	dir := ItemDir(d.root, itemID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating image directory %s: %w", dir, err)
	}

	return writeExclusive(dir, Filename(url), data)
}

// writeExclusive creates name in dir, or name_1, name_2, ... if taken.
// Files are opened with O_EXCL so two writers never share a path.
func writeExclusive(dir, name string, data []byte) (string, error) {
	for n := 0; n < maxCollisions; n++ {
		path := filepath.Join(dir, suffixed(name, n))
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("creating %s: %w", path, err)
		}

		if _, err := f.Write(data); err != nil {
			f.Close()
			os.Remove(path)
			return "", fmt.Errorf("writing %s: %w", path, err)
		}
		if err := f.Close(); err != nil {
			os.Remove(path)
			return "", fmt.Errorf("closing %s: %w", path, err)
		}
		return path, nil
	}
	return "", fmt.Errorf("no free filename for %s in %s", name, dir)
}
