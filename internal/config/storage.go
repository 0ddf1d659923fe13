package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"sync"

	"github.com/anchorbundle/anchor/internal/fsutil"
	"github.com/anchorbundle/anchor/pkg/logging"

	"gopkg.in/yaml.v3"
)

// Well known settings keys.
const (
	KeyHostname        = "hostname"
	KeyBrowser         = "browser"
	KeyLaunchStartup   = "launchStartup"
	KeyOnline          = "online"
	KeyMaxLogsArchives = "maxLogsArchives"
)

// Store is the key/value settings store of the bundle. Values are kept as
// strings and persisted as a flat YAML mapping. Store is safe for concurrent
// use.
type Store struct {
	mu     sync.RWMutex
	path   string
	values map[string]string
	dirty  bool
}

// NewStore creates a store persisted at path. Nothing is read until Load.
func NewStore(path string) *Store {
	return &Store{
		path:   path,
		values: make(map[string]string),
	}
}

// Load reads the backing file. A missing file leaves the store empty.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		logging.Debug("Storage", "No settings file at %s", s.path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read settings %s: %w", s.path, err)
	}

	values := make(map[string]string)
	if err := yaml.Unmarshal(fsutil.StripBOM(data), &values); err != nil {
		return fmt.Errorf("failed to parse settings %s: %w", s.path, err)
	}
	s.values = values
	s.dirty = false
	return nil
}

// Get returns the value stored under key, or "".
func (s *Store) Get(key string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[key]
}

// GetBool interprets the value under key as a boolean ("1", "true", "on").
func (s *Store) GetBool(key string) bool {
	switch s.Get(key) {
	case "1", "true", "on", "yes":
		return true
	default:
		return false
	}
}

// GetInt returns the integer under key, or def when absent or malformed.
func (s *Store) GetInt(key string, def int) int {
	n, err := strconv.Atoi(s.Get(key))
	if err != nil {
		return def
	}
	return n
}

// Set stores value under key. The change is persisted by Save.
func (s *Store) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.values[key]; ok && old == value {
		return
	}
	s.values[key] = value
	s.dirty = true
}

// Keys returns the stored keys in sorted order.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Save writes the store if anything changed since the last Load or Save.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dirty {
		return nil
	}
	if err := fsutil.WriteYAMLAtomic(s.path, s.values); err != nil {
		return fmt.Errorf("failed to write settings %s: %w", s.path, err)
	}
	s.dirty = false
	logging.Debug("Storage", "Saved settings to %s", s.path)
	return nil
}
