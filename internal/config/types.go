package config

import "time"

// AnchorConfig is the top-level configuration structure, read from
// anchor.yaml at the bundle root.
type AnchorConfig struct {
	Bundle    BundleConfig    `yaml:"bundle"`
	Logging   LoggingConfig   `yaml:"logging"`
	Registry  RegistryConfig  `yaml:"registry"`
	Lifecycle LifecycleConfig `yaml:"lifecycle"`
	Scan      ScanConfig      `yaml:"scan"`
	SSL       SSLConfig       `yaml:"ssl"`
	Products  []ProductConfig `yaml:"products"`
}

// BundleConfig describes the on-disk layout of the bundle. Relative paths
// are resolved against Root.
type BundleConfig struct {
	Root            string   `yaml:"root,omitempty"`            // Bundle root (default: directory of anchor.yaml)
	MarkerFile      string   `yaml:"markerFile,omitempty"`      // Last known location marker
	SettingsFile    string   `yaml:"settingsFile,omitempty"`    // Key/value settings store
	LogsDir         string   `yaml:"logsDir,omitempty"`         // Directory holding *.log files
	TmpDir          string   `yaml:"tmpDir,omitempty"`          // Directory purged on every start
	SSLDir          string   `yaml:"sslDir,omitempty"`          // Root certificate output directory
	ScriptsLogsDir  string   `yaml:"scriptsLogsDir,omitempty"`  // Archived alongside the logs
	MaxLogsArchives int      `yaml:"maxLogsArchives,omitempty"` // Number of log archives to keep
	TmpKeep         []string `yaml:"tmpKeep,omitempty"`         // Entries of TmpDir that survive the purge
	KillStale       bool     `yaml:"killStale"`                 // Terminate leftover processes under Root
	RepoIndex       bool     `yaml:"repoIndex,omitempty"`       // Refresh project repository indexes after a clean run
	RepoDirs        []string `yaml:"repoDirs,omitempty"`        // Directories scanned by the repository indexer
}

// LoggingConfig controls the startup log.
type LoggingConfig struct {
	Level string `yaml:"level,omitempty"` // debug, info, warn, error
	File  string `yaml:"file,omitempty"`  // Relative to Bundle.LogsDir
}

// Registry scopes.
const (
	RegistryScopeMachine = "machine"
	RegistryScopeUser    = "user"
	RegistryScopeFile    = "file"
)

// RegistryConfig names the environment values kept in sync with the bundle.
type RegistryConfig struct {
	Scope             string `yaml:"scope,omitempty"`       // machine, user or file
	File              string `yaml:"file,omitempty"`        // Backing file for the file scope
	InstallPathName   string `yaml:"installPathName,omitempty"`
	BinariesPathName  string `yaml:"binariesPathName,omitempty"`
	SystemPathName    string `yaml:"systemPathName,omitempty"`
	RefreshSystemPath bool   `yaml:"refreshSystemPath"` // Rewrite the system path even when unchanged
}

// LifecycleConfig controls the managed service lifecycle.
type LifecycleConfig struct {
	Workers      int           `yaml:"workers,omitempty"` // Services processed in parallel
	StartTimeout time.Duration `yaml:"startTimeout,omitempty"`
	StopTimeout  time.Duration `yaml:"stopTimeout,omitempty"`
}

// ScanConfig controls the relocation file scan.
type ScanConfig struct {
	Workers int              `yaml:"workers,omitempty"`
	Rules   []ScanRuleConfig `yaml:"rules,omitempty"` // Bundle level rules, relative to Root
}

// ScanRuleConfig is one scan rule. For products the path is relative to the
// installed version directory.
type ScanRuleConfig struct {
	Path      string   `yaml:"path"`
	Includes  []string `yaml:"includes,omitempty"`
	Recursive bool     `yaml:"recursive,omitempty"`
}

// SSLConfig controls the local root certificate bootstrap.
type SSLConfig struct {
	Name         string `yaml:"name,omitempty"` // File stem and common name
	Organization string `yaml:"organization,omitempty"`
	ValidDays    int    `yaml:"validDays,omitempty"`
}

// ProductKind classifies a catalog product.
type ProductKind string

const (
	ProductKindService ProductKind = "service" // Runs as a managed OS service
	ProductKindBinary  ProductKind = "binary"  // Language runtime or library, path only
	ProductKindTool    ProductKind = "tool"    // Command line tool, path only
)

// ProductConfig is one entry of the binary catalog.
type ProductConfig struct {
	Name       string           `yaml:"name"`
	Kind       ProductKind      `yaml:"kind"`
	Enabled    bool             `yaml:"enabled"`
	Dir        string           `yaml:"dir"`                  // Product directory holding version folders, relative to Root
	Version    string           `yaml:"version,omitempty"`    // Pinned version; latest installed otherwise
	Executable string           `yaml:"executable,omitempty"` // Relative to the version directory
	BinPaths   []string         `yaml:"binPaths,omitempty"`   // Added to the binaries path, relative to the version directory
	ScanRules  []ScanRuleConfig `yaml:"scanRules,omitempty"`
	Service    *ServiceConfig   `yaml:"service,omitempty"`
}

// ServiceConfig describes how a service product is registered with the OS.
// Args and SyntaxCheck are text/template strings, see internal/template.
type ServiceConfig struct {
	Name         string        `yaml:"name"`
	DisplayName  string        `yaml:"displayName,omitempty"`
	Args         string        `yaml:"args,omitempty"`
	Port         int           `yaml:"port,omitempty"`
	SyntaxCheck  string        `yaml:"syntaxCheck,omitempty"`
	StartTimeout time.Duration `yaml:"startTimeout,omitempty"`
	StopTimeout  time.Duration `yaml:"stopTimeout,omitempty"`
}
