//go:build windows

package envreg

import (
	"errors"
	"fmt"

	"golang.org/x/sys/windows/registry"
)

const runKey = `Software\Microsoft\Windows\CurrentVersion\Run`

type runKeyAutostart struct{}

// NewAutostart returns the Run key implementation.
func NewAutostart() Autostart {
	return runKeyAutostart{}
}

func (runKeyAutostart) Enable(name, command string) error {
	k, _, err := registry.CreateKey(registry.CURRENT_USER, runKey, registry.SET_VALUE)
	if err != nil {
		return fmt.Errorf("failed to open run key: %w", err)
	}
	defer k.Close()
	return k.SetStringValue(name, command)
}

func (runKeyAutostart) Disable(name string) error {
	return deleteRunValue(registry.CURRENT_USER, name)
}

func (runKeyAutostart) RemoveLegacy(name string) error {
	return deleteRunValue(registry.LOCAL_MACHINE, name)
}

func deleteRunValue(root registry.Key, name string) error {
	k, err := registry.OpenKey(root, runKey, registry.SET_VALUE)
	if errors.Is(err, registry.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open run key: %w", err)
	}
	defer k.Close()

	if err := k.DeleteValue(name); err != nil && !errors.Is(err, registry.ErrNotExist) {
		return err
	}
	return nil
}
