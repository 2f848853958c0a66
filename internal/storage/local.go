package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// LocalFileStore writes media under a root directory on disk, grouped
// per user and date: users/<username>/images/<yyyy>/<mm>/<dd>/<name>.
type LocalFileStore struct {
	root    string
	baseURL string
}

// NewLocalFileStore creates a LocalFileStore rooted at root. baseURL is
// prefixed onto stored paths when building client-facing URLs.
func NewLocalFileStore(root, baseURL string) *LocalFileStore {
	return &LocalFileStore{root: root, baseURL: strings.TrimRight(baseURL, "/")}
}

func (s *LocalFileStore) Save(username, filename string, data []byte) (string, error) {
	ext := filepath.Ext(filename)
	name := uuid.NewString() + ext
	relPath := filepath.Join("users", username, "images", time.Now().Format("2006/01/02"), name)

	fullPath := filepath.Join(s.root, relPath)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", fmt.Errorf("failed to create media directory: %w", err)
	}
	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write media file: %w", err)
	}
	return filepath.ToSlash(relPath), nil
}

func (s *LocalFileStore) Delete(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(filepath.Join(s.root, filepath.FromSlash(path))); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (s *LocalFileStore) URL(path string) string {
	if path == "" {
		return ""
	}
	return s.baseURL + "/" + path
}
