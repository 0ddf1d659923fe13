package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/anchorbundle/anchor/internal/config"
	"github.com/anchorbundle/anchor/internal/orchestrator"
	"github.com/anchorbundle/anchor/internal/pathscan"
	"github.com/anchorbundle/anchor/pkg/logging"
)

// Application bootstraps anchor for one bundle.
//
// Initialization happens in two phases:
//  1. NewApplication loads anchor.yaml, sets up console logging and wires
//     every component
//  2. Startup, Plan, Scan or Teardown act on the bundle
//
// Example usage:
//
//	app, err := app.NewApplication(app.NewConfig(false, false, ""))
//	if err != nil {
//	    return fmt.Errorf("failed to create application: %w", err)
//	}
//	result := app.Startup(ctx, nil)
type Application struct {
	config     *Config
	configPath string
	services   *Services
	level      logging.LogLevel
	console    io.Writer
}

// NewApplication loads the configuration and initializes all services.
// The returned error is a config.ConfigurationErrorCollection when
// anchor.yaml fails validation.
func NewApplication(cfg *Config) (*Application, error) {
	var console io.Writer = os.Stdout
	if cfg.Silent {
		console = io.Discard
	}

	configPath := cfg.ConfigPath
	if configPath == "" {
		dir, err := config.DefaultConfigPath()
		if err != nil {
			return nil, err
		}
		configPath = dir
	}

	// Console logging at the requested level until the file level is known.
	level := logging.LevelInfo
	if cfg.Debug {
		level = logging.LevelDebug
	}
	logging.InitForCLI(level, console)

	ac, err := config.LoadConfig(configPath)
	if err != nil {
		logging.Error("Bootstrap", err, "Failed to load configuration from %s", configPath)
		return nil, err
	}
	cfg.AnchorConfig = &ac

	if !cfg.Debug {
		level = logging.ParseLevel(ac.Logging.Level)
		logging.InitForCLI(level, console)
	}

	services, err := InitializeServices(cfg)
	if err != nil {
		logging.Error("Bootstrap", err, "Failed to initialize services")
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	return &Application{
		config:     cfg,
		configPath: configPath,
		services:   services,
		level:      level,
		console:    console,
	}, nil
}

// Services returns the wired components.
func (a *Application) Services() *Services {
	return a.services
}

// LogFile is the path of the startup log.
func (a *Application) LogFile() string {
	ac := a.services.Config
	return filepath.Join(ac.Path(ac.Bundle.LogsDir), ac.Logging.File)
}

// Startup archives the previous logs, starts writing the startup log and
// runs one reconciliation.
func (a *Application) Startup(ctx context.Context, progress orchestrator.ProgressFunc) orchestrator.RunResult {
	if _, err := a.services.Housekeeper.RotateLogs(); err != nil {
		logging.Warn("Bootstrap", "Log rotation incomplete: %v", err)
	}
	if err := logging.InitForFile(a.level, a.console, a.LogFile()); err != nil {
		logging.Warn("Bootstrap", "Startup log unavailable: %v", err)
	}
	defer a.closeLog()

	orch := a.services.Orchestrator
	if progress != nil {
		orch = a.services.WithProgress(progress)
	}
	return orch.Run(ctx)
}

func (a *Application) closeLog() {
	logging.Close()
	logging.InitForCLI(a.level, a.console)
}

// Plan reports what Startup would change.
func (a *Application) Plan(ctx context.Context) (orchestrator.Plan, error) {
	return a.services.Orchestrator.Plan(ctx)
}

// Teardown stops and removes every service of the catalog, enabled or not.
// It is the first half of a restart; Relaunch is the second.
func (a *Application) Teardown(ctx context.Context) error {
	logging.Info("Bootstrap", "Removing all services before restart")
	return a.services.Manager.RemoveAll(ctx, a.services.Registry.GetAll())
}

// Scan lists the files a relocation would rewrite.
func (a *Application) Scan(ctx context.Context) ([]string, error) {
	ac := a.services.Config
	return pathscan.NewScanner(ac.Scan.Workers).Scan(ctx, a.services.Catalog.ScanRules())
}
