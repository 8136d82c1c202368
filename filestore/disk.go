package filestore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

type (
	DiskFileStore struct {
		rootPath string
	}
)

func NewDiskFileStore(rootPath string) *DiskFileStore {
	return &DiskFileStore{
		rootPath: rootPath,
	}
}

// Path maps a key onto the local file path, for readers that want the file
// itself rather than its bytes.
func (dfs *DiskFileStore) Path(key string) string {
	return filepath.Join(dfs.rootPath, filepath.FromSlash(key))
}

func (dfs *DiskFileStore) WriteFile(_ context.Context, key string, r io.Reader) error {
	path := dfs.Path(key)
	// partition segments become directories
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("error in os.MkdirAll: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error in os.Create: %w", err)
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		return fmt.Errorf("error in io.Copy: %w", err)
	}
	return nil
}

func (dfs *DiskFileStore) ReadFile(_ context.Context, key string) ([]byte, error) {
	b, err := os.ReadFile(dfs.Path(key))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("error in os.ReadFile: %w", err)
	}
	return b, nil
}
