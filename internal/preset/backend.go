package preset

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mitchellh/go-homedir"
)

// DefaultDir is where FileBackend keeps its files when no directory is given.
const DefaultDir = "~/.config/stompbox"

// Backend is a small key-value persistence store.
type Backend interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
}

// FileBackend stores each key as <dir>/<key>.json.
type FileBackend struct {
	dir string
}

// NewFileBackend resolves dir (a leading ~ is expanded) and creates it.
// An empty dir means DefaultDir.
func NewFileBackend(dir string) (*FileBackend, error) {
	if strings.TrimSpace(dir) == "" {
		dir = DefaultDir
	}
	expanded, err := homedir.Expand(dir)
	if err != nil {
		return nil, fmt.Errorf("preset dir %q: %w", dir, err)
	}
	if err := os.MkdirAll(expanded, 0o755); err != nil {
		return nil, err
	}
	return &FileBackend{dir: expanded}, nil
}

func (b *FileBackend) Dir() string { return b.dir }

func (b *FileBackend) path(key string) string {
	return filepath.Join(b.dir, key+".json")
}

func (b *FileBackend) Get(key string) ([]byte, bool, error) {
	data, err := os.ReadFile(b.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Set writes through a temp file so a crash never leaves a torn value.
func (b *FileBackend) Set(key string, value []byte) error {
	tmp, err := os.CreateTemp(b.dir, key+".*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), b.path(key))
}

// MemoryBackend keeps values in memory.
type MemoryBackend struct {
	mu   sync.Mutex
	data map[string][]byte
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{data: make(map[string][]byte)}
}

func (b *MemoryBackend) Get(key string) ([]byte, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	v, ok := b.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (b *MemoryBackend) Set(key string, value []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data[key] = append([]byte(nil), value...)
	return nil
}
