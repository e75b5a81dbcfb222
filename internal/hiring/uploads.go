package hiring

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"
)

var unsafeFileChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// DiskUploads stores uploaded documents under a local directory.
type DiskUploads struct {
	Dir string
	now func() time.Time
}

// NewDiskUploads creates the directory if needed.
func NewDiskUploads(dir string) (*DiskUploads, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &DiskUploads{Dir: dir, now: time.Now}, nil
}

// Save writes data as <unixnano>-<sanitized name> and returns the full path.
func (d *DiskUploads) Save(ctx context.Context, fileName string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name := sanitizeFileName(fileName)
	path := filepath.Join(d.Dir, fmt.Sprintf("%d-%s", d.now().UnixNano(), name))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

// Remove deletes a document written by Save. A missing file is not an error.
func (d *DiskUploads) Remove(_ context.Context, path string) error {
	if filepath.Dir(path) != filepath.Clean(d.Dir) {
		return fmt.Errorf("refusing to remove %s outside %s", path, d.Dir)
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}
	return nil
}

func sanitizeFileName(name string) string {
	name = filepath.Base(name)
	name = unsafeFileChars.ReplaceAllString(name, "_")
	if name == "" || name == "." || name == "_" {
		return "upload"
	}
	return name
}
