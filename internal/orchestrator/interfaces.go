package orchestrator

import (
	"context"

	"github.com/anchorbundle/anchor/internal/envreg"
	"github.com/anchorbundle/anchor/internal/housekeeping"
	"github.com/anchorbundle/anchor/internal/location"
	"github.com/anchorbundle/anchor/internal/pathrewrite"
	"github.com/anchorbundle/anchor/internal/pathscan"
	"github.com/anchorbundle/anchor/internal/services"
)

// Catalog is the binary catalog as seen by a run.
type Catalog interface {
	ScanRules() []pathscan.Rule
	BinariesPaths() []string
	// ManagedServices may return services alongside an error describing
	// the ones it could not build.
	ManagedServices() ([]services.ManagedService, error)
	Inventory() []string
}

// Scanner finds relocation candidates.
type Scanner interface {
	Scan(ctx context.Context, rules []pathscan.Rule) ([]string, error)
}

// Rewriter replaces the old root in files.
type Rewriter interface {
	Rewrite(ctx context.Context, files []string, oldRoot, newRoot string) pathrewrite.Result
}

// Registry reconciles the environment values.
type Registry interface {
	Plan(d envreg.Desired) ([]envreg.Entry, error)
	Reconcile(entries []envreg.Entry) envreg.Outcome
}

// Lifecycle drives the managed services.
type Lifecycle interface {
	Run(ctx context.Context, svcs []services.ManagedService) []services.Outcome
	Reports(ctx context.Context, svcs []services.ManagedService) []services.Report
}

// Marker remembers the bundle root between runs.
type Marker interface {
	Resolve(root string) (location.InstallLocation, error)
	Write(root string) error
}

// Settings is the bundle's key/value configuration store.
type Settings interface {
	Get(key string) string
	GetBool(key string) bool
	Set(key, value string)
	Save() error
}

// Housekeeping cleans up before the bundle starts.
type Housekeeping interface {
	Clean(ctx context.Context) (housekeeping.Report, error)
	EnsureCertificate() (bool, error)
}

// RepoIndexer refreshes auxiliary repository indexes after a clean run.
type RepoIndexer interface {
	Index(ctx context.Context) error
}

// ProgressFunc is called when a step starts. step counts from 1.
type ProgressFunc func(step, total int, label string)
