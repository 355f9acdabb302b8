package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"server/internal/domain"
)

// Dir names under the local root. uploads/ holds received originals, temp/ is
// in-flight render scratch (self-cleaning), videos/ holds rendered copies for
// static serving.
const (
	UploadsDir = "uploads"
	TempDir    = "temp"
	VideosDir  = "videos"
)

// FileStore owns the service's local disk layout. It is not the durable
// store; it backs static serving, the legacy path fallback and render
// scratch space.
type FileStore struct {
	root string
}

// NewFileStore initializes the local layout rooted at root, creating the
// uploads, temp and videos directories.
func NewFileStore(root string) (*FileStore, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, domain.E(domain.KindConfiguration, "storage: local root is required")
	}
	for _, dir := range []string{UploadsDir, TempDir, VideosDir} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			return nil, domain.Wrap(domain.KindConfiguration, "storage: ensure "+dir, err)
		}
	}
	return &FileStore{root: root}, nil
}

// Root returns the configured local root directory.
func (s *FileStore) Root() string {
	if s == nil {
		return ""
	}
	return s.root
}

// UploadsPath returns the absolute uploads directory.
func (s *FileStore) UploadsPath() string { return filepath.Join(s.root, UploadsDir) }

// TempPath returns the absolute temp directory.
func (s *FileStore) TempPath() string { return filepath.Join(s.root, TempDir) }

// VideosPath returns the absolute videos directory.
func (s *FileStore) VideosPath() string { return filepath.Join(s.root, VideosDir) }

// Write persists data at the given relative key and returns the cleaned key.
// Keys are sanitized so callers can never escape the root.
func (s *FileStore) Write(ctx context.Context, key string, data []byte) (string, error) {
	if s == nil {
		return "", errors.New("storage: no file store configured")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	cleanKey, err := sanitizeKey(key)
	if err != nil {
		return "", err
	}
	fullPath := filepath.Join(s.root, filepath.FromSlash(cleanKey))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", fmt.Errorf("storage: ensure directory: %w", err)
	}
	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return "", fmt.Errorf("storage: write file: %w", err)
	}
	return cleanKey, nil
}

// Read returns the bytes stored under a relative key.
func (s *FileStore) Read(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cleanKey, err := sanitizeKey(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.root, filepath.FromSlash(cleanKey)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.Ef(domain.KindNotFound, "no local file for %s", cleanKey)
		}
		return nil, fmt.Errorf("storage: read file: %w", err)
	}
	return data, nil
}

// ResolveUserPath validates a caller-supplied image path against the local
// layout. Only the legacy "/uploads/<name>" form and relative paths under
// uploads/ are accepted; any other absolute path or traversal is refused.
func (s *FileStore) ResolveUserPath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", domain.E(domain.KindMissingSource, "empty image path")
	}
	path = strings.ReplaceAll(path, "\\", "/")
	if strings.HasPrefix(path, "/") {
		// Legacy clients send the public serving path verbatim.
		if !strings.HasPrefix(path, "/"+UploadsDir+"/") {
			return "", domain.Ef(domain.KindMissingSource, "absolute path %q is not allowed", path)
		}
		path = strings.TrimPrefix(path, "/")
	}
	if !strings.HasPrefix(path, UploadsDir+"/") {
		path = UploadsDir + "/" + path
	}
	cleanKey, err := sanitizeKey(path)
	if err != nil || !strings.HasPrefix(cleanKey, UploadsDir+"/") {
		return "", domain.Ef(domain.KindMissingSource, "invalid image path %q", path)
	}
	return cleanKey, nil
}

// sanitizeKey normalizes a key and prevents escaping the local root.
func sanitizeKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", errors.New("storage: key is required")
	}
	key = strings.ReplaceAll(key, "\\", "/")
	key = strings.TrimPrefix(key, "./")
	key = strings.TrimLeft(key, "/")
	cleaned := filepath.Clean(key)
	cleaned = strings.ReplaceAll(cleaned, "\\", "/")
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", errors.New("storage: invalid key")
	}
	return cleaned, nil
}
