//go:build !windows

package envreg

import (
	"github.com/anchorbundle/anchor/internal/config"
	"github.com/anchorbundle/anchor/pkg/logging"
)

// NewStore returns the store for the configured scope. Hosts without a
// registry always use the file store.
func NewStore(cfg config.AnchorConfig) Store {
	if cfg.Registry.Scope != config.RegistryScopeFile {
		logging.Debug("RegistryReconciler", "No registry on this platform, using %s", cfg.Registry.File)
	}
	return NewFileStore(cfg.Path(cfg.Registry.File))
}

