package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"sync"
)

// DefaultFile is used when NewFileStore is given an empty path.
const DefaultFile = "session.json"

// ErrCorrupt is returned by Load when the backing file is not a JSON object.
var ErrCorrupt = errors.New("storage file is corrupt")

// FileStore is a KeyValueStore backed by a JSON object on disk. Every Set and
// Remove rewrites the file before returning.
type FileStore struct {
	path  string
	mu    sync.Mutex
	items map[string]string
}

var _ KeyValueStore = (*FileStore)(nil)

// NewFileStore opens the store at path and loads its contents. A corrupt file
// still yields a usable, empty store alongside an error wrapping ErrCorrupt.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		path = DefaultFile
	}
	fs := &FileStore{path: path, items: make(map[string]string)}
	return fs, fs.Load()
}

// Path returns the backing file location.
func (fs *FileStore) Path() string {
	return fs.path
}

// Load replaces the in-memory contents with the file contents.
func (fs *FileStore) Load() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	data, err := os.ReadFile(fs.path)
	if err != nil {
		if os.IsNotExist(err) {
			fs.items = make(map[string]string)
			return nil
		}
		return fmt.Errorf("read %s: %w", fs.path, err)
	}

	items := make(map[string]string)
	if len(data) > 0 {
		if err := json.Unmarshal(data, &items); err != nil {
			fs.items = make(map[string]string)
			return fmt.Errorf("%w: %s: %v", ErrCorrupt, fs.path, err)
		}
	}
	fs.items = items
	return nil
}

// Get returns the value stored under key.
func (fs *FileStore) Get(key string) (string, bool) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	v, ok := fs.items[key]
	return v, ok
}

// Set stores value under key and persists the store.
func (fs *FileStore) Set(key, value string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	prev, had := fs.items[key]
	fs.items[key] = value
	if err := fs.save(); err != nil {
		if had {
			fs.items[key] = prev
		} else {
			delete(fs.items, key)
		}
		return err
	}
	return nil
}

// Remove deletes key and persists the store.
func (fs *FileStore) Remove(key string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	prev, had := fs.items[key]
	if !had {
		return nil
	}
	delete(fs.items, key)
	if err := fs.save(); err != nil {
		fs.items[key] = prev
		return err
	}
	return nil
}

// Snapshot returns a copy of all stored pairs.
func (fs *FileStore) Snapshot() map[string]string {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return maps.Clone(fs.items)
}

// save writes a temp file next to the target and renames it into place, so a
// crash never leaves a half-written store behind. Callers hold fs.mu.
func (fs *FileStore) save() error {
	data, err := json.Marshal(fs.items)
	if err != nil {
		return fmt.Errorf("encode store: %w", err)
	}
	dir := filepath.Dir(fs.path)
	tmp, err := os.CreateTemp(dir, ".session-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), fs.path); err != nil {
		return fmt.Errorf("replace %s: %w", fs.path, err)
	}
	return nil
}

// MemoryStore is an in-process KeyValueStore used in tests and as a fallback
// when no file can be opened.
type MemoryStore struct {
	mu    sync.Mutex
	items map[string]string
}

var _ KeyValueStore = (*MemoryStore)(nil)

// NewMemoryStore returns a store seeded with a copy of items.
func NewMemoryStore(items map[string]string) *MemoryStore {
	m := maps.Clone(items)
	if m == nil {
		m = make(map[string]string)
	}
	return &MemoryStore{items: m}
}

func (m *MemoryStore) Get(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.items[key]
	return v, ok
}

func (m *MemoryStore) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = value
	return nil
}

func (m *MemoryStore) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
	return nil
}
