package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/anchorbundle/anchor/internal/fsutil"
	"github.com/anchorbundle/anchor/pkg/logging"

	"gopkg.in/yaml.v3"
)

// DefaultConfigPath returns the directory anchor.yaml is looked up in when
// --config-path is not given: the directory holding the running executable.
func DefaultConfigPath() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("could not determine executable path: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe), nil
}

// LoadConfig loads anchor.yaml from configPath, which may be the file itself
// or the directory containing it. A missing file yields the defaults with the
// bundle root set to that directory. The result is validated.
func LoadConfig(configPath string) (AnchorConfig, error) {
	configFilePath := configPath
	if info, err := os.Stat(configPath); err == nil && info.IsDir() {
		configFilePath = filepath.Join(configPath, ConfigFileName)
	}
	configDir := filepath.Dir(configFilePath)

	config := GetDefaultConfig()

	data, err := os.ReadFile(configFilePath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		logging.Info("ConfigLoader", "No %s found at %s, using defaults", ConfigFileName, configFilePath)
	case err != nil:
		logging.Error("ConfigLoader", err, "Error reading %s", configFilePath)
		return AnchorConfig{}, err
	default:
		if err := yaml.Unmarshal(fsutil.StripBOM(data), &config); err != nil {
			return AnchorConfig{}, ConfigurationError{
				FilePath:  configFilePath,
				FileName:  filepath.Base(configFilePath),
				ErrorType: "parse",
				Message:   "malformed YAML",
				Details:   err.Error(),
			}
		}
		logging.Info("ConfigLoader", "Loaded configuration from %s", configFilePath)
	}

	root, err := resolveRoot(config.Bundle.Root, configDir)
	if err != nil {
		return AnchorConfig{}, err
	}
	config.Bundle.Root = root
	applyZeroDefaults(&config)

	if errs := Validate(config, configFilePath); errs.HasErrors() {
		return AnchorConfig{}, errs
	}
	return config, nil
}

func resolveRoot(root, configDir string) (string, error) {
	if root == "" {
		root = configDir
	} else if !filepath.IsAbs(root) {
		root = filepath.Join(configDir, root)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("failed to resolve bundle root %s: %w", root, err)
	}
	return abs, nil
}

// applyZeroDefaults restores defaults for scalar fields that a config file
// explicitly set to their zero value.
func applyZeroDefaults(c *AnchorConfig) {
	d := GetDefaultConfig()
	if c.Lifecycle.Workers <= 0 {
		c.Lifecycle.Workers = d.Lifecycle.Workers
	}
	if c.Lifecycle.StartTimeout <= 0 {
		c.Lifecycle.StartTimeout = d.Lifecycle.StartTimeout
	}
	if c.Lifecycle.StopTimeout <= 0 {
		c.Lifecycle.StopTimeout = d.Lifecycle.StopTimeout
	}
	if c.Scan.Workers <= 0 {
		c.Scan.Workers = d.Scan.Workers
	}
	if c.Registry.InstallPathName == "" {
		c.Registry.InstallPathName = d.Registry.InstallPathName
	}
	if c.Registry.BinariesPathName == "" {
		c.Registry.BinariesPathName = d.Registry.BinariesPathName
	}
	if c.Registry.SystemPathName == "" {
		c.Registry.SystemPathName = d.Registry.SystemPathName
	}
	if c.SSL.Name == "" {
		c.SSL.Name = d.SSL.Name
	}
	if c.SSL.ValidDays <= 0 {
		c.SSL.ValidDays = d.SSL.ValidDays
	}
}

// Path resolves a bundle-relative path against the bundle root. Absolute
// paths are returned unchanged.
func (c AnchorConfig) Path(rel string) string {
	if rel == "" {
		return c.Bundle.Root
	}
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(c.Bundle.Root, filepath.FromSlash(rel))
}

// ServiceProducts returns the enabled products that run as OS services, in
// configuration order.
func (c AnchorConfig) ServiceProducts() []ProductConfig {
	var out []ProductConfig
	for _, p := range c.Products {
		if p.Enabled && p.Kind == ProductKindService && p.Service != nil {
			out = append(out, p)
		}
	}
	return out
}
