package app

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/anchorbundle/anchor/internal/config"
	"github.com/anchorbundle/anchor/internal/orchestrator"
	"github.com/anchorbundle/anchor/internal/watch"
	"github.com/anchorbundle/anchor/pkg/logging"
)

// RunHandler receives the result of every run in watch mode.
type RunHandler func(orchestrator.RunResult)

// Watch runs a startup, then runs again whenever anchor.yaml or the
// settings file changes, until ctx is done or the process is interrupted.
// The configuration is reloaded before each run; a configuration that fails
// to load is logged and the previous services are kept.
func (a *Application) Watch(ctx context.Context, onRun RunHandler) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ac := a.services.Config
	configFile := configFilePath(a.configPath)
	w := watch.New(0, configFile, ac.Path(ac.Bundle.SettingsFile))
	changes := make(chan watch.Change, 8)
	if err := w.Start(ctx, changes); err != nil {
		return err
	}
	defer w.Stop()

	onRun(a.Startup(ctx, nil))
	logging.Info("Watch", "Watching %s for changes. Press Ctrl+C to stop.", configFile)

	watch.Loop(ctx, changes, func(ctx context.Context, _ watch.Change) {
		if err := a.reload(); err != nil {
			logging.Error("Watch", err, "Keeping previous configuration")
			return
		}
		onRun(a.Startup(ctx, nil))
	})
	return nil
}

// configFilePath returns the anchor.yaml path for a --config-path value.
func configFilePath(configPath string) string {
	if info, err := os.Stat(configPath); err == nil && info.IsDir() {
		return filepath.Join(configPath, config.ConfigFileName)
	}
	return configPath
}

// reload rebuilds the services from the configuration on disk.
func (a *Application) reload() error {
	ac, err := config.LoadConfig(a.configPath)
	if err != nil {
		return err
	}
	a.config.AnchorConfig = &ac

	services, err := InitializeServices(a.config)
	if err != nil {
		return err
	}
	a.services = services
	return nil
}
