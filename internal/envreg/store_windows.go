//go:build windows

package envreg

import (
	"errors"
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/registry"

	"github.com/anchorbundle/anchor/internal/config"
	"github.com/anchorbundle/anchor/pkg/logging"
)

const (
	machineEnvironmentKey = `SYSTEM\CurrentControlSet\Control\Session Manager\Environment`
	userEnvironmentKey    = `Environment`
)

// RegistryStore reads and writes environment values in the Windows registry.
type RegistryStore struct {
	root registry.Key
	path string
}

// NewRegistryStore returns a store for the machine or user environment.
func NewRegistryStore(scope string) *RegistryStore {
	if scope == config.RegistryScopeUser {
		return &RegistryStore{root: registry.CURRENT_USER, path: userEnvironmentKey}
	}
	return &RegistryStore{root: registry.LOCAL_MACHINE, path: machineEnvironmentKey}
}

// Get implements Store.
func (s *RegistryStore) Get(name string) (string, error) {
	k, err := registry.OpenKey(s.root, s.path, registry.QUERY_VALUE)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", s.path, err)
	}
	defer k.Close()

	v, _, err := k.GetStringValue(name)
	if errors.Is(err, registry.ErrNotExist) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return v, nil
}

// Set implements Store. Running processes are notified of the change.
func (s *RegistryStore) Set(name, value string, kind ValueKind) error {
	k, err := registry.OpenKey(s.root, s.path, registry.SET_VALUE)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", s.path, err)
	}
	defer k.Close()

	if kind == KindExpandString {
		err = k.SetExpandStringValue(name, value)
	} else {
		err = k.SetStringValue(name, value)
	}
	if err != nil {
		return err
	}
	broadcastEnvChange()
	return nil
}

// broadcastEnvChange sends WM_SETTINGCHANGE so new processes pick up the
// updated environment.
func broadcastEnvChange() {
	const (
		hwndBroadcast   = 0xFFFF
		wmSettingChange = 0x001A
		smtoAbortIfHung = 0x0002
	)

	envPtr, err := windows.UTF16PtrFromString("Environment")
	if err != nil {
		return
	}

	user32 := windows.NewLazySystemDLL("user32.dll")
	sendMsgTimeout := user32.NewProc("SendMessageTimeoutW")

	_, _, callErr := sendMsgTimeout.Call(
		uintptr(hwndBroadcast),
		uintptr(wmSettingChange),
		0,
		uintptr(unsafe.Pointer(envPtr)),
		uintptr(smtoAbortIfHung),
		uintptr(2000),
		0,
	)
	if callErr != nil && !errors.Is(callErr, windows.ERROR_SUCCESS) {
		logging.Debug("RegistryReconciler", "WM_SETTINGCHANGE broadcast: %v", callErr)
	}
}

// NewStore returns the store for the configured scope.
func NewStore(cfg config.AnchorConfig) Store {
	if cfg.Registry.Scope == config.RegistryScopeFile {
		return NewFileStore(cfg.Path(cfg.Registry.File))
	}
	logging.Debug("RegistryReconciler", "Using %s registry environment", cfg.Registry.Scope)
	return NewRegistryStore(cfg.Registry.Scope)
}

