package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// FileStore keeps uploaded media on the local filesystem under one root.
type FileStore struct {
	basePath string
}

// NewFileStore initializes a FileStore rooted at basePath, creating it when
// missing.
func NewFileStore(basePath string) (*FileStore, error) {
	basePath = strings.TrimSpace(basePath)
	if basePath == "" {
		return nil, errors.New("storage: base path is required")
	}
	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve base path: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("storage: ensure base path: %w", err)
	}
	return &FileStore{basePath: abs}, nil
}

// BasePath returns the configured root directory.
func (s *FileStore) BasePath() string {
	if s == nil {
		return ""
	}
	return s.basePath
}

// Stored describes a file written by Save.
type Stored struct {
	Key  string
	Path string
	Size int64
}

// Save streams r to key. Data lands in a temporary file first and is renamed
// into place so a partial upload never appears under key.
func (s *FileStore) Save(ctx context.Context, key string, r io.Reader) (Stored, error) {
	if s == nil {
		return Stored{}, errors.New("storage: no store configured")
	}
	if err := ctx.Err(); err != nil {
		return Stored{}, err
	}
	cleanKey, err := sanitizeKey(key)
	if err != nil {
		return Stored{}, err
	}
	fullPath := s.resolve(cleanKey)
	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Stored{}, fmt.Errorf("storage: ensure directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return Stored{}, fmt.Errorf("storage: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	size, copyErr := io.Copy(tmp, contextReader{ctx: ctx, r: r})
	closeErr := tmp.Close()
	if copyErr != nil || closeErr != nil {
		_ = os.Remove(tmpName)
		if copyErr != nil {
			return Stored{}, fmt.Errorf("storage: write file: %w", copyErr)
		}
		return Stored{}, fmt.Errorf("storage: close file: %w", closeErr)
	}
	if err := os.Rename(tmpName, fullPath); err != nil {
		_ = os.Remove(tmpName)
		return Stored{}, fmt.Errorf("storage: move file: %w", err)
	}
	return Stored{Key: cleanKey, Path: fullPath, Size: size}, nil
}

// Path returns the absolute path for key.
func (s *FileStore) Path(key string) (string, error) {
	cleanKey, err := sanitizeKey(key)
	if err != nil {
		return "", err
	}
	return s.resolve(cleanKey), nil
}

// Remove deletes key. Missing files are not an error.
func (s *FileStore) Remove(key string) error {
	cleanKey, err := sanitizeKey(key)
	if err != nil {
		return err
	}
	if err := os.Remove(s.resolve(cleanKey)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("storage: remove file: %w", err)
	}
	return nil
}

func (s *FileStore) resolve(cleanKey string) string {
	return filepath.Join(s.basePath, filepath.FromSlash(cleanKey))
}

type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
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
