//go:build !windows

package envreg

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/anchorbundle/anchor/internal/fsutil"
)

// desktopAutostart writes an XDG autostart entry.
type desktopAutostart struct {
	dir string
}

// NewAutostart returns the XDG autostart implementation.
func NewAutostart() Autostart {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".config")
		}
	}
	return desktopAutostart{dir: filepath.Join(dir, "autostart")}
}

func (d desktopAutostart) file(name string) string {
	return filepath.Join(d.dir, name+".desktop")
}

func (d desktopAutostart) Enable(name, command string) error {
	entry := fmt.Sprintf("[Desktop Entry]\nType=Application\nName=%s\nExec=%s\nX-GNOME-Autostart-enabled=true\n", name, command)
	return fsutil.WriteFileAtomic(d.file(name), []byte(entry), 0o644)
}

func (d desktopAutostart) Disable(name string) error {
	if err := os.Remove(d.file(name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (desktopAutostart) RemoveLegacy(string) error {
	return nil
}
