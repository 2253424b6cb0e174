// persistence/file.go
package persistence

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FileStore 本地文件实现，每个键一个文件
type FileStore struct {
	dir string
}

// NewFileStore creates dir if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("file store directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileStore{dir: filepath.Clean(dir)}, nil
}

func (f *FileStore) path(key string) (string, error) {
	name := filepath.Base(key)
	if name == "." || name == string(filepath.Separator) || name != key {
		return "", fmt.Errorf("invalid blob key %q", key)
	}
	return filepath.Join(f.dir, name), nil
}

// Read 读取文件
func (f *FileStore) Read(key string) ([]byte, error) {
	path, err := f.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrRecordNotFound
	}
	return data, err
}

// Write replaces the file atomically through a temp file and rename.
func (f *FileStore) Write(key string, data []byte) error {
	path, err := f.path(key)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(f.dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func (f *FileStore) Close() error {
	return nil
}
