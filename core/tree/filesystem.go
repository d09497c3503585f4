package tree

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/relabs-tech/rentdesk/core/logger"
)

const fileSuffix = ".json"

// LocalFilesystem is a Driver which keeps every row as a JSON file
// below a base folder: {baseFolder}/{collection}/{child}.json
//
// This can only work when running in a single instance configuration.
type LocalFilesystem struct {
	mutex      sync.RWMutex
	baseFolder string
}

// NewLocalFilesystem returns a new LocalFilesystem. The base folder is
// created if it does not exist.
func NewLocalFilesystem(baseFolder string) (*LocalFilesystem, error) {
	if baseFolder == "" {
		return nil, fmt.Errorf("base folder must not be empty")
	}
	if err := os.MkdirAll(baseFolder, 0700); err != nil {
		return nil, err
	}
	logger.Default().Debugln("tree filesystem driver enabled at", baseFolder)
	return &LocalFilesystem{baseFolder: baseFolder}, nil
}

func (f *LocalFilesystem) filePath(key string) (string, error) {
	collection, child, ok := strings.Cut(key, "/")
	if !ok || collection == "" || child == "" || strings.Contains(key, "..") || strings.ContainsRune(child, '/') {
		return "", fmt.Errorf("%w: '%s' is not a row key", ErrInvalidPath, key)
	}
	return filepath.Join(f.baseFolder, collection, child+fileSuffix), nil
}

// Read implements Driver
func (f *LocalFilesystem) Read(ctx context.Context, key string) ([]byte, bool, error) {
	filePath, err := f.filePath(key)
	if err != nil {
		return nil, false, err
	}
	f.mutex.RLock()
	defer f.mutex.RUnlock()
	raw, err := os.ReadFile(filePath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return raw, true, nil
}

// List implements Driver
func (f *LocalFilesystem) List(ctx context.Context, prefix string) (map[string][]byte, error) {
	f.mutex.RLock()
	defer f.mutex.RUnlock()

	collections, err := f.collections(prefix)
	if err != nil {
		return nil, err
	}
	rows := map[string][]byte{}
	for _, collection := range collections {
		entries, err := os.ReadDir(filepath.Join(f.baseFolder, collection))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), fileSuffix) {
				continue
			}
			key := collection + "/" + strings.TrimSuffix(e.Name(), fileSuffix)
			if !strings.HasPrefix(key, prefix) {
				continue
			}
			raw, err := os.ReadFile(filepath.Join(f.baseFolder, collection, e.Name()))
			if err != nil {
				return nil, err
			}
			rows[key] = raw
		}
	}
	return rows, nil
}

// collections returns the collection folders which may contain rows for prefix
func (f *LocalFilesystem) collections(prefix string) ([]string, error) {
	if collection, _, ok := strings.Cut(prefix, "/"); ok {
		return []string{collection}, nil
	}
	entries, err := os.ReadDir(f.baseFolder)
	if err != nil {
		return nil, err
	}
	var collections []string
	for _, e := range entries {
		if e.IsDir() && strings.HasPrefix(e.Name(), prefix) {
			collections = append(collections, e.Name())
		}
	}
	return collections, nil
}

// Write implements Driver
func (f *LocalFilesystem) Write(ctx context.Context, key string, raw []byte) error {
	filePath, err := f.filePath(key)
	if err != nil {
		return err
	}
	f.mutex.Lock()
	defer f.mutex.Unlock()
	if err := os.MkdirAll(filepath.Dir(filePath), 0700); err != nil {
		return err
	}
	// write to a temporary file first, a crash must not leave a truncated row
	tmp := filePath + ".tmp"
	if err := os.WriteFile(tmp, raw, 0600); err != nil {
		return err
	}
	return os.Rename(tmp, filePath)
}

// Delete implements Driver
func (f *LocalFilesystem) Delete(ctx context.Context, key string) error {
	filePath, err := f.filePath(key)
	if err != nil {
		return err
	}
	f.mutex.Lock()
	defer f.mutex.Unlock()
	err = os.Remove(filePath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// DeletePrefix implements Driver
func (f *LocalFilesystem) DeletePrefix(ctx context.Context, prefix string) error {
	rows, err := f.List(ctx, prefix)
	if err != nil {
		return err
	}
	for key := range rows {
		if err := f.Delete(ctx, key); err != nil {
			return err
		}
	}
	return nil
}
