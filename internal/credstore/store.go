package credstore

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/muurk/netclock/internal/wifi"
)

// Store persists the station credentials on behalf of the connectivity
// driver. Load reports ok=false when nothing is stored.
type Store interface {
	Load() (creds wifi.Credentials, ok bool, err error)
	Save(creds wifi.Credentials) error
	Clear() error
}

// Memory is a volatile Store.
type Memory struct {
	mu    sync.Mutex
	creds wifi.Credentials
}

// NewMemory creates a store, optionally seeded with credentials.
func NewMemory(initial wifi.Credentials) *Memory {
	return &Memory{creds: initial}
}

// Load implements Store
func (m *Memory) Load() (wifi.Credentials, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.creds, !m.creds.Empty(), nil
}

// Save implements Store
func (m *Memory) Save(creds wifi.Credentials) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds = creds
	return nil
}

// Clear implements Store
func (m *Memory) Clear() error {
	return m.Save(wifi.Credentials{})
}

// fileFormat is the on-disk layout of a File store.
type fileFormat struct {
	Version int               `yaml:"version"`
	Station *wifi.Credentials `yaml:"station,omitempty"`
}

// File is a Store backed by a YAML file. Writes are atomic.
type File struct {
	path string
	mu   sync.Mutex
}

// NewFile creates a file-backed store at path. The file is created on first Save.
func NewFile(path string) *File {
	return &File{path: path}
}

// Path returns the backing file path.
func (f *File) Path() string {
	return f.path
}

// Load implements Store
func (f *File) Load() (wifi.Credentials, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return wifi.Credentials{}, false, nil
	}
	if err != nil {
		return wifi.Credentials{}, false, fmt.Errorf("failed to read credential store: %w", err)
	}

	var stored fileFormat
	if err := yaml.Unmarshal(data, &stored); err != nil {
		return wifi.Credentials{}, false, fmt.Errorf("failed to parse credential store: %w", err)
	}
	if stored.Version != 1 {
		return wifi.Credentials{}, false, fmt.Errorf("unsupported credential store version: %d (expected 1)", stored.Version)
	}
	if stored.Station == nil || stored.Station.Empty() {
		return wifi.Credentials{}, false, nil
	}
	return *stored.Station, true, nil
}

// Save implements Store
func (f *File) Save(creds wifi.Credentials) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	stored := fileFormat{Version: 1}
	if !creds.Empty() {
		stored.Station = &creds
	}

	data, err := yaml.Marshal(&stored)
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0700); err != nil {
		return fmt.Errorf("failed to create credential store directory: %w", err)
	}

	tmpPath := f.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary credential file: %w", err)
	}
	if err := os.Rename(tmpPath, f.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save credential file: %w", err)
	}
	return nil
}

// Clear implements Store
func (f *File) Clear() error {
	return f.Save(wifi.Credentials{})
}
