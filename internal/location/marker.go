package location

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/anchorbundle/anchor/internal/fsutil"
	"github.com/anchorbundle/anchor/pkg/logging"
)

// Marker is the file that remembers the bundle root of the last successful
// start.
type Marker struct {
	path string
}

// NewMarker returns a marker persisted at path.
func NewMarker(path string) *Marker {
	return &Marker{path: path}
}

// Path returns the marker file path.
func (m *Marker) Path() string {
	return m.path
}

// Read returns the recorded root. found is false when no marker exists.
func (m *Marker) Read() (root string, found bool, err error) {
	data, err := os.ReadFile(m.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read location marker %s: %w", m.path, err)
	}
	root = strings.TrimSpace(string(fsutil.StripBOM(data)))
	if root == "" {
		return "", false, nil
	}
	return root, true, nil
}

// Write records root as the last known location.
func (m *Marker) Write(root string) error {
	if err := fsutil.WriteFileAtomic(m.path, []byte(root), 0o644); err != nil {
		return fmt.Errorf("failed to write location marker %s: %w", m.path, err)
	}
	logging.Debug("Location", "Recorded bundle location %s", root)
	return nil
}

// Resolve builds the InstallLocation for a bundle running from root. With no
// marker present the bundle is treated as not relocated.
func (m *Marker) Resolve(root string) (InstallLocation, error) {
	last, found, err := m.Read()
	if err != nil {
		return InstallLocation{}, err
	}
	if !found {
		logging.Info("Location", "No location marker at %s, assuming first start", m.path)
		last = root
	}
	return InstallLocation{RootPath: root, LastKnownPath: last, FirstStart: !found}, nil
}
