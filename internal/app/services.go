package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/anchorbundle/anchor/internal/catalog"
	"github.com/anchorbundle/anchor/internal/cmdline"
	"github.com/anchorbundle/anchor/internal/config"
	"github.com/anchorbundle/anchor/internal/envreg"
	"github.com/anchorbundle/anchor/internal/housekeeping"
	"github.com/anchorbundle/anchor/internal/location"
	"github.com/anchorbundle/anchor/internal/orchestrator"
	"github.com/anchorbundle/anchor/internal/pathrewrite"
	"github.com/anchorbundle/anchor/internal/pathscan"
	"github.com/anchorbundle/anchor/internal/services"
	"github.com/anchorbundle/anchor/internal/svcmgr"
	"github.com/anchorbundle/anchor/pkg/logging"
)

// AutostartName is the name of the launch-at-startup entry.
const AutostartName = "anchor"

// Services holds the components of one bundle, wired from its
// configuration.
type Services struct {
	Config       config.AnchorConfig
	Catalog      *catalog.Catalog
	Settings     *config.Store
	Controller   services.Controller
	Manager      *services.Manager
	Registry     *services.Registry
	Housekeeper  *housekeeping.Housekeeper
	Marker       *location.Marker
	Orchestrator *orchestrator.Orchestrator

	orchConfig orchestrator.Config
}

// InitializeServices builds every component for cfg.
func InitializeServices(cfg *Config) (*Services, error) {
	ac := *cfg.AnchorConfig

	settings := config.NewStore(ac.Path(ac.Bundle.SettingsFile))
	if err := settings.Load(); err != nil {
		logging.Warn("Bootstrap", "Ignoring unreadable settings: %v", err)
	}

	cat, err := catalog.New(ac)
	if err != nil {
		return nil, fmt.Errorf("failed to build catalog: %w", err)
	}

	controller := cfg.Controller
	if controller == nil {
		controller = svcmgr.New()
	}
	manager := services.NewManager(controller, services.NewNetProbe(), cat, ac.Lifecycle.Workers)
	manager.SetStateChangeCallback(func(name string, oldState, newState services.State, err error) {
		if err != nil {
			logging.Debug("ServiceLifecycle", "%s: %s -> %s (%v)", name, oldState, newState, err)
			return
		}
		logging.Debug("ServiceLifecycle", "%s: %s -> %s", name, oldState, newState)
	})

	registry := services.NewRegistry()
	for _, svc := range cat.AllServices() {
		if err := registry.Register(svc); err != nil {
			logging.Warn("Bootstrap", "Skipping service: %v", err)
		}
	}

	hk := housekeeping.New(ac, settings.GetInt(config.KeyMaxLogsArchives, -1))
	marker := location.NewMarker(ac.Path(ac.Bundle.MarkerFile))

	names := envreg.Names{
		InstallPath:  ac.Registry.InstallPathName,
		BinariesPath: ac.Registry.BinariesPathName,
		SystemPath:   ac.Registry.SystemPathName,
	}

	var indexer orchestrator.RepoIndexer
	if ac.Bundle.RepoIndex {
		indexer = NewRepoIndexer(ac)
	}

	orchCfg := orchestrator.Config{
		Root:             ac.Bundle.Root,
		Catalog:          cat,
		Scanner:          pathscan.NewScanner(ac.Scan.Workers),
		Rewriter:         pathrewrite.New(ac.Scan.Workers),
		Registry:         envreg.NewReconciler(envreg.NewStore(ac), names, ac.Registry.RefreshSystemPath),
		Services:         manager,
		Marker:           marker,
		Settings:         settings,
		Housekeeping:     hk,
		Autostart:        envreg.NewAutostart(),
		AutostartName:    AutostartName,
		AutostartCommand: autostartCommand(),
		RepoIndexer:      indexer,
	}

	return &Services{
		Config:       ac,
		orchConfig:   orchCfg,
		Catalog:      cat,
		Settings:     settings,
		Controller:   controller,
		Manager:      manager,
		Registry:     registry,
		Housekeeper:  hk,
		Marker:       marker,
		Orchestrator: orchestrator.New(orchCfg),
	}, nil
}

// WithProgress returns an orchestrator like Orchestrator that reports each
// step to progress.
func (s *Services) WithProgress(progress orchestrator.ProgressFunc) *orchestrator.Orchestrator {
	cfg := s.orchConfig
	cfg.Progress = progress
	return orchestrator.New(cfg)
}

func autostartCommand() string {
	exe, err := os.Executable()
	if err != nil {
		return ""
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return cmdline.Join(exe, "startup --silent")
}
