package app

import (
	"github.com/anchorbundle/anchor/internal/config"
	"github.com/anchorbundle/anchor/internal/services"
)

// Config holds the application configuration
type Config struct {
	// Debug enables debug logging
	Debug bool

	// Silent suppresses console output; the startup log is still written
	Silent bool

	// ConfigPath is the directory holding anchor.yaml, or the file itself.
	// Empty means the directory of the executable.
	ConfigPath string

	// Controller overrides the OS service controller
	Controller services.Controller

	// AnchorConfig is filled in by NewApplication
	AnchorConfig *config.AnchorConfig
}

// NewConfig creates a new application configuration
func NewConfig(debug, silent bool, configPath string) *Config {
	return &Config{
		Debug:      debug,
		Silent:     silent,
		ConfigPath: configPath,
	}
}
