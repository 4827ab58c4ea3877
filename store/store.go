// Package store implements etfx.Store backends: in memory, one JSON file per
// key in a directory, and a SQLite database.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"github.com/etnz/etfx"
)

// Memory is an in-memory etfx.Store.
type Memory struct {
	mu   sync.Mutex
	data map[string][]byte
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Get(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, etfx.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *Memory) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *Memory) Clear(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

var validKey = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// Dir stores each key as a <key>.json file in a directory.
type Dir struct {
	path string
}

// NewDir returns a store in the directory path, it is created on first write.
func NewDir(path string) *Dir {
	return &Dir{path: path}
}

func (d *Dir) file(key string) (string, error) {
	if !validKey.MatchString(key) {
		return "", fmt.Errorf("invalid key %q", key)
	}
	return filepath.Join(d.path, key+".json"), nil
}

func (d *Dir) Get(key string) ([]byte, error) {
	file, err := d.file(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(file)
	if os.IsNotExist(err) {
		return nil, etfx.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("cannot read %q: %w", file, err)
	}
	return data, nil
}

// Set writes value atomically: into a temporary file first, then renamed.
func (d *Dir) Set(key string, value []byte) error {
	file, err := d.file(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(d.path, 0o755); err != nil {
		return fmt.Errorf("cannot create state folder %q: %w", d.path, err)
	}
	tmp, err := os.CreateTemp(d.path, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("cannot write %q: %w", file, err)
	}
	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("cannot write %q: %w", file, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("cannot write %q: %w", file, err)
	}
	if err := os.Rename(tmp.Name(), file); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("cannot write %q: %w", file, err)
	}
	return nil
}

func (d *Dir) Clear(key string) error {
	file, err := d.file(key)
	if err != nil {
		return err
	}
	if err := os.Remove(file); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("cannot remove %q: %w", file, err)
	}
	return nil
}
