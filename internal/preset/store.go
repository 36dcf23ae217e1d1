package preset

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"
)

// StorageKey is the backend key holding the preset list.
const StorageKey = "audioDistortionConfigs"

// TimestampLayout formats Preset.Timestamp.
const TimestampLayout = time.DateTime

// Store keeps presets newest first in a Backend.
type Store struct {
	mu      sync.Mutex
	backend Backend
	now     func() time.Time
}

type StoreOption func(*Store)

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		s.now = now
	}
}

func NewStore(backend Backend, opts ...StoreOption) *Store {
	s := &Store{backend: backend, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns all presets, newest first.
func (s *Store) List() ([]Preset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Save prepends a preset holding settings.
func (s *Store) Save(name string, settings Settings) (Preset, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Preset{}, ErrEmptyName
	}
	if err := settings.Validate(); err != nil {
		return Preset{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	list, err := s.load()
	if err != nil {
		return Preset{}, err
	}
	p := Preset{
		Name:      name,
		Timestamp: s.now().Format(TimestampLayout),
		Settings:  settings,
	}
	list = append([]Preset{p}, list...)
	if err := s.store(list); err != nil {
		return Preset{}, err
	}
	return p, nil
}

// Get returns the preset at index.
func (s *Store) Get(index int) (Preset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list, err := s.load()
	if err != nil {
		return Preset{}, err
	}
	if index < 0 || index >= len(list) {
		return Preset{}, fmt.Errorf("%w: index %d of %d", ErrNotFound, index, len(list))
	}
	return list[index], nil
}

// Find returns the newest preset called name and its index.
func (s *Store) Find(name string) (Preset, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list, err := s.load()
	if err != nil {
		return Preset{}, -1, err
	}
	for i, p := range list {
		if strings.EqualFold(p.Name, strings.TrimSpace(name)) {
			return p, i, nil
		}
	}
	return Preset{}, -1, fmt.Errorf("%w: %q", ErrNotFound, name)
}

// Delete removes the preset at index and returns it.
func (s *Store) Delete(index int) (Preset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list, err := s.load()
	if err != nil {
		return Preset{}, err
	}
	if index < 0 || index >= len(list) {
		return Preset{}, fmt.Errorf("%w: index %d of %d", ErrNotFound, index, len(list))
	}
	removed := list[index]
	list = append(list[:index], list[index+1:]...)
	if err := s.store(list); err != nil {
		return Preset{}, err
	}
	return removed, nil
}

func (s *Store) load() ([]Preset, error) {
	data, ok, err := s.backend.Get(StorageKey)
	if err != nil {
		return nil, err
	}
	if !ok || len(strings.TrimSpace(string(data))) == 0 {
		return nil, nil
	}
	var list []Preset
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("decode presets: %w", err)
	}
	for i, p := range list {
		if err := p.Settings.Validate(); err != nil {
			return nil, fmt.Errorf("preset %d (%q): %w", i, p.Name, err)
		}
	}
	return list, nil
}

func (s *Store) store(list []Preset) error {
	if list == nil {
		list = []Preset{}
	}
	data, err := json.Marshal(list)
	if err != nil {
		return err
	}
	return s.backend.Set(StorageKey, data)
}
