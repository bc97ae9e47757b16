package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// File is a Store persisted as a flat JSON object on disk. Every write
// rewrites the file through a temporary file and a rename, so a crash never
// leaves a half-written token behind.
type File struct {
	mu   sync.Mutex
	path string
	m    map[string]string
}

// NewFile opens (or lazily creates) the store at path.
func NewFile(path string) (*File, error) {
	f := &File{path: path, m: make(map[string]string)}
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return f, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", path, err)
	}
	if len(b) == 0 {
		return f, nil
	}
	if err := json.Unmarshal(b, &f.m); err != nil {
		return nil, fmt.Errorf("storage: decode %s: %w", path, err)
	}
	if f.m == nil {
		f.m = make(map[string]string)
	}
	return f, nil
}

// Path returns the backing file.
func (f *File) Path() string { return f.path }

func (f *File) Get(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.m[key]
	return v, ok, nil
}

func (f *File) Set(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	prev, had := f.m[key]
	f.m[key] = value
	if err := f.flush(); err != nil {
		if had {
			f.m[key] = prev
		} else {
			delete(f.m, key)
		}
		return err
	}
	return nil
}

func (f *File) Remove(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	prev, had := f.m[key]
	if !had {
		return nil
	}
	delete(f.m, key)
	if err := f.flush(); err != nil {
		f.m[key] = prev
		return err
	}
	return nil
}

func (f *File) flush() error {
	b, err := json.MarshalIndent(f.m, "", "  ")
	if err != nil {
		return fmt.Errorf("storage: encode: %w", err)
	}
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("storage: mkdir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".storage-*")
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", err)
	}
	name := tmp.Name()
	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		_ = os.Remove(name)
		return fmt.Errorf("storage: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(name)
		return fmt.Errorf("storage: close: %w", err)
	}
	if err := os.Chmod(name, 0o600); err != nil {
		_ = os.Remove(name)
		return fmt.Errorf("storage: chmod: %w", err)
	}
	if err := os.Rename(name, f.path); err != nil {
		_ = os.Remove(name)
		return fmt.Errorf("storage: rename: %w", err)
	}
	return nil
}
