package envreg

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/anchorbundle/anchor/internal/fsutil"

	"gopkg.in/yaml.v3"
)

// ValueKind is the registry type a value is written with.
type ValueKind int

const (
	KindString       ValueKind = iota // REG_SZ
	KindExpandString                  // REG_EXPAND_SZ, %VAR% references are expanded by the OS
)

// ErrNotFound is returned by Store.Get for an absent value.
var ErrNotFound = errors.New("environment value not found")

// Store reads and writes named environment values.
type Store interface {
	Get(name string) (string, error)
	Set(name, value string, kind ValueKind) error
}

// MemoryStore keeps values in memory. It records the number of writes and
// can be told to fail writes for specific names.
type MemoryStore struct {
	mu       sync.Mutex
	values   map[string]string
	kinds    map[string]ValueKind
	failSet  map[string]error
	writes   int
	writeLog []string
}

// NewMemoryStore returns a store pre-populated with values.
func NewMemoryStore(values map[string]string) *MemoryStore {
	m := &MemoryStore{
		values:  make(map[string]string),
		kinds:   make(map[string]ValueKind),
		failSet: make(map[string]error),
	}
	for k, v := range values {
		m.values[k] = v
	}
	return m
}

// Get implements Store.
func (m *MemoryStore) Get(name string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[name]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

// Set implements Store.
func (m *MemoryStore) Set(name, value string, kind ValueKind) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failSet[name]; err != nil {
		return err
	}
	m.values[name] = value
	m.kinds[name] = kind
	m.writes++
	m.writeLog = append(m.writeLog, name)
	return nil
}

// FailWrites makes every Set of name return err.
func (m *MemoryStore) FailWrites(name string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failSet[name] = err
}

// Writes returns the number of successful Set calls.
func (m *MemoryStore) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

// WriteLog returns the names written, in order.
func (m *MemoryStore) WriteLog() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.writeLog...)
}

// Kind returns the kind name was last written with.
func (m *MemoryStore) Kind(name string) ValueKind {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.kinds[name]
}

// fileValue is the on-disk form of one FileStore entry.
type fileValue struct {
	Value  string `yaml:"value"`
	Expand bool   `yaml:"expand,omitempty"`
}

// FileStore persists values in a YAML document. It stands in for the
// Windows registry on other hosts.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore returns a store backed by path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (f *FileStore) load() (map[string]fileValue, error) {
	values := make(map[string]fileValue)
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return values, nil
	}
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(fsutil.StripBOM(data), &values); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", f.path, err)
	}
	return values, nil
}

// Get implements Store.
func (f *FileStore) Get(name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.load()
	if err != nil {
		return "", err
	}
	v, ok := values[name]
	if !ok {
		return "", ErrNotFound
	}
	return v.Value, nil
}

// Set implements Store.
func (f *FileStore) Set(name, value string, kind ValueKind) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.load()
	if err != nil {
		return err
	}
	values[name] = fileValue{Value: value, Expand: kind == KindExpandString}
	return fsutil.WriteYAMLAtomic(f.path, values)
}
