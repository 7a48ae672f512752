package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// copyBufferSize bounds the memory used while streaming an asset to disk.
const copyBufferSize = 1 << 20

// FileStore persists files under a base directory. Every write goes to a
// temporary file in the destination directory and is renamed into place, so a
// key is either absent or complete.
type FileStore struct {
	basePath string
}

// NewFileStore initializes a FileStore rooted at basePath.
func NewFileStore(basePath string) (*FileStore, error) {
	basePath = strings.TrimSpace(basePath)
	if basePath == "" {
		return nil, errors.New("storage: base path is required")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("storage: ensure base path: %w", err)
	}
	return &FileStore{basePath: basePath}, nil
}

// BasePath returns the configured root directory.
func (s *FileStore) BasePath() string {
	if s == nil {
		return ""
	}
	return s.basePath
}

// Path resolves a key to its absolute location inside the store.
func (s *FileStore) Path(key string) (string, error) {
	if s == nil {
		return "", errors.New("storage: no store configured")
	}
	cleanKey, err := sanitizeKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.basePath, filepath.FromSlash(cleanKey)), nil
}

// Exists reports whether a complete file is stored under key.
func (s *FileStore) Exists(key string) (bool, error) {
	fullPath, err := s.Path(key)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(fullPath)
	switch {
	case err == nil:
		return info.Mode().IsRegular(), nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("storage: stat: %w", err)
	}
}

// Write persists data under key and returns the absolute path.
func (s *FileStore) Write(ctx context.Context, key string, data []byte) (string, error) {
	fullPath, _, err := s.WriteStream(ctx, key, bytes.NewReader(data))
	return fullPath, err
}

// WriteStream copies r to key in fixed-size chunks and returns the absolute
// path and the number of bytes written. On any error nothing is left at the
// final path.
func (s *FileStore) WriteStream(ctx context.Context, key string, r io.Reader) (string, int64, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}
	fullPath, err := s.Path(key)
	if err != nil {
		return "", 0, err
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", 0, fmt.Errorf("storage: ensure directory: %w", err)
	}
	n, err := writeAtomic(fullPath, 0o644, func(f *os.File) (int64, error) {
		return io.CopyBuffer(f, r, make([]byte, copyBufferSize))
	})
	if err != nil {
		return "", n, err
	}
	return fullPath, n, nil
}

// WriteFileAtomic replaces path with data using a temp file and rename.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	_, err := writeAtomic(path, perm, func(f *os.File) (int64, error) {
		n, err := f.Write(data)
		return int64(n), err
	})
	return err
}

func writeAtomic(path string, perm os.FileMode, fill func(f *os.File) (int64, error)) (int64, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*.part")
	if err != nil {
		return 0, fmt.Errorf("storage: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	n, err := fill(tmp)
	if err != nil {
		return n, fmt.Errorf("storage: write temp file: %w", err)
	}
	if err := tmp.Chmod(perm); err != nil {
		return n, fmt.Errorf("storage: chmod temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return n, fmt.Errorf("storage: sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return n, fmt.Errorf("storage: close temp file: %w", err)
	}
	// A concurrent writer of the same key renames identical content over us.
	if err := os.Rename(tmpName, path); err != nil {
		return n, fmt.Errorf("storage: rename into place: %w", err)
	}
	committed = true
	return n, nil
}

// sanitizeKey normalizes a key and prevents escaping the storage root.
func sanitizeKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", errors.New("storage: key is required")
	}
	key = strings.ReplaceAll(key, "\\", "/")
	key = strings.TrimPrefix(key, "./")
	key = strings.TrimLeft(key, "/")
	cleaned := filepath.ToSlash(filepath.Clean(key))
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", errors.New("storage: invalid key")
	}
	return cleaned, nil
}
