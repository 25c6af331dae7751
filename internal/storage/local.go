package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// LocalStore writes images under a media root served by the web server
type LocalStore struct {
	root    string
	baseURL string
}

// NewLocalStore creates the media root if needed. baseURL is the public
// prefix the root is mounted at, e.g. "/media/".
func NewLocalStore(root, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(filepath.Join(root, PostImageDir), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create media root: %w", err)
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &LocalStore{root: root, baseURL: baseURL}, nil
}

// Root returns the directory served at the base URL
func (s *LocalStore) Root() string {
	return s.root
}

// Save writes data as posts/<filename>, picking a fresh name on collision
func (s *LocalStore) Save(ctx context.Context, filename string, data []byte) (string, error) {
	name := CleanFilename(filename)
	for attempt := 0; attempt < 10; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		rel := path.Join(PostImageDir, name)
		f, err := os.OpenFile(filepath.Join(s.root, filepath.FromSlash(rel)), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			name = alternateName(CleanFilename(filename))
			continue
		}
		if err != nil {
			return "", fmt.Errorf("failed to create image file: %w", err)
		}
		if _, err := f.Write(data); err != nil {
			f.Close()
			return "", fmt.Errorf("failed to write image file: %w", err)
		}
		if err := f.Close(); err != nil {
			return "", fmt.Errorf("failed to write image file: %w", err)
		}
		return rel, nil
	}
	return "", fmt.Errorf("could not find a free name for %s", filename)
}

// Delete removes a stored image. Missing files are not an error.
func (s *LocalStore) Delete(ctx context.Context, name string) error {
	err := os.Remove(filepath.Join(s.root, filepath.FromSlash(name)))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	return nil
}

// URL returns the public URL for a stored name
func (s *LocalStore) URL(name string) string {
	if name == "" {
		return ""
	}
	return s.baseURL + name
}
