package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/anchorbundle/anchor/internal/config"
	"github.com/anchorbundle/anchor/internal/envreg"
	"github.com/anchorbundle/anchor/internal/location"
	"github.com/anchorbundle/anchor/internal/services"
	"github.com/anchorbundle/anchor/pkg/logging"
)

// Step labels in run order.
var steps = []string{
	"Cleaning up",
	"Preparing",
	"Checking location",
	"Updating environment",
	"Starting services",
	"Checking certificate",
	"Indexing repositories",
	"Saving location",
}

// Config holds the collaborators of an orchestrator. Root, Catalog,
// Scanner, Rewriter, Registry, Services and Marker are required.
type Config struct {
	Root     string
	Catalog  Catalog
	Scanner  Scanner
	Rewriter Rewriter
	Registry Registry
	Services Lifecycle
	Marker   Marker

	Settings     Settings         // Optional
	Housekeeping Housekeeping     // Optional
	Autostart    envreg.Autostart // Optional
	RepoIndexer  RepoIndexer      // Optional
	Logger       logging.Logger   // Defaults to the package logger
	Progress     ProgressFunc     // Optional

	// AutostartName and AutostartCommand describe the launch-at-startup
	// entry.
	AutostartName    string
	AutostartCommand string

	// Hostname defaults to os.Hostname.
	Hostname func() (string, error)
}

// Orchestrator sequences one startup run.
type Orchestrator struct {
	cfg Config
}

// New creates an orchestrator.
func New(cfg Config) *Orchestrator {
	if cfg.Logger == nil {
		cfg.Logger = logging.NewSubsystemLogger("Orchestrator")
	}
	if cfg.Hostname == nil {
		cfg.Hostname = os.Hostname
	}
	return &Orchestrator{cfg: cfg}
}

func (o *Orchestrator) log(format string, args ...interface{}) {
	o.cfg.Logger.Log(fmt.Sprintf(format, args...))
}

func (o *Orchestrator) progress(step int) {
	o.log("[%d/%d] %s", step, len(steps), steps[step-1])
	if o.cfg.Progress != nil {
		o.cfg.Progress(step, len(steps), steps[step-1])
	}
}

// Run performs one reconciliation and returns its result. It does not
// return early on failures; every step that can run does.
func (o *Orchestrator) Run(ctx context.Context) RunResult {
	started := time.Now()
	res := RunResult{RunID: uuid.NewString(), Root: o.cfg.Root}
	var errs errorSections
	relocationFailed := false

	o.log("Startup run %s for %s", res.RunID, o.cfg.Root)

	o.progress(1)
	o.housekeeping(ctx)

	o.progress(2)
	o.prepare()

	o.progress(3)
	loc, err := o.cfg.Marker.Resolve(o.cfg.Root)
	if err != nil {
		// An unreadable marker is treated as a first start.
		logging.Warn("Orchestrator", "Cannot read location marker: %v", err)
		loc = location.InstallLocation{RootPath: o.cfg.Root, LastKnownPath: o.cfg.Root, FirstStart: true}
	}
	res.Relocated = loc.Relocated()
	res.OldRoot = loc.LastKnownPath
	if res.Relocated || loc.FirstStart {
		if !o.relocate(ctx, loc, &res, &errs) && res.Relocated {
			relocationFailed = true
		}
	} else {
		o.log("Bundle has not moved from %s", o.cfg.Root)
	}

	o.progress(4)
	outcome := o.syncRegistry()
	res.RegistryChanged = outcome.Changed
	if len(outcome.Errors) > 0 {
		errs.add("", outcome.Errors...)
		if res.Relocated {
			relocationFailed = true
		}
	}
	if outcome.HasChanges() {
		res.RestartRequired = true
		o.log("Environment changed (%s), restart required", joinNames(outcome.Changed))
	}

	o.progress(5)
	if res.RestartRequired {
		res.ServicesSkipped = true
		o.log("Skipping services until restart")
	} else {
		o.runServices(ctx, &res, &errs)
	}

	o.progress(6)
	if o.cfg.Housekeeping != nil {
		created, err := o.cfg.Housekeeping.EnsureCertificate()
		if err != nil {
			errs.add("", fmt.Sprintf("Failed to create root certificate: %v", err))
		}
		res.CertCreated = created
	}

	o.progress(7)
	if o.cfg.RepoIndexer != nil && !res.RestartRequired && len(errs.sections) == 0 {
		if err := o.cfg.RepoIndexer.Index(ctx); err != nil {
			logging.Warn("Orchestrator", "Repository indexing failed: %v", err)
		}
	}

	o.progress(8)
	if relocationFailed {
		o.log("Relocation incomplete, keeping marker at %s", loc.LastKnownPath)
	} else if err := o.cfg.Marker.Write(o.cfg.Root); err != nil {
		logging.Error("Orchestrator", err, "Failed to record bundle location")
	} else {
		res.MarkerWritten = true
	}

	res.AggregateError = errs.String()
	res.ElapsedSeconds = time.Since(started).Seconds()
	o.log("Run %s finished in %.2fs (restart=%t, errors=%t)",
		res.RunID, res.ElapsedSeconds, res.RestartRequired, res.Failed())
	return res
}

func (o *Orchestrator) housekeeping(ctx context.Context) {
	if o.cfg.Housekeeping == nil {
		return
	}
	report, err := o.cfg.Housekeeping.Clean(ctx)
	if err != nil {
		logging.Warn("Orchestrator", "Housekeeping incomplete: %v", err)
	}
	o.log("Archived %d log(s), purged %d temp entries, killed %d stale process(es)",
		report.LogsArchived, report.TmpRemoved, len(report.Killed))
}

// prepare refreshes the settings store. Failures are logged only.
func (o *Orchestrator) prepare() {
	if s := o.cfg.Settings; s != nil {
		if host, err := o.cfg.Hostname(); err == nil && host != "" && s.Get(config.KeyHostname) != host {
			s.Set(config.KeyHostname, host)
			o.log("Hostname set to %s", host)
		}
		if browser := s.Get(config.KeyBrowser); browser != "" {
			if _, err := os.Stat(browser); err != nil {
				s.Set(config.KeyBrowser, "")
				o.log("Browser %s not found, using the system default", browser)
			}
		}
		o.autostart(s.GetBool(config.KeyLaunchStartup))
		if err := s.Save(); err != nil {
			logging.Warn("Orchestrator", "Failed to save settings: %v", err)
		}
	}

	for _, line := range o.cfg.Catalog.Inventory() {
		o.log("Product %s", line)
	}
}

func (o *Orchestrator) autostart(enabled bool) {
	a := o.cfg.Autostart
	if a == nil || o.cfg.AutostartName == "" {
		return
	}
	if err := a.RemoveLegacy(o.cfg.AutostartName); err != nil {
		logging.Debug("Orchestrator", "Legacy autostart entry not removed: %v", err)
	}

	var err error
	if enabled {
		err = a.Enable(o.cfg.AutostartName, o.cfg.AutostartCommand)
	} else {
		err = a.Disable(o.cfg.AutostartName)
	}
	if err != nil {
		logging.Warn("Orchestrator", "Failed to update launch at startup: %v", err)
	}
}

// relocate scans and rewrites. On a first start only placeholders are
// replaced. It reports whether every file was handled.
func (o *Orchestrator) relocate(ctx context.Context, loc location.InstallLocation, res *RunResult, errs *errorSections) bool {
	if res.Relocated {
		o.log("Bundle moved from %s to %s", loc.LastKnownPath, loc.RootPath)
	} else {
		o.log("First start from %s", loc.RootPath)
	}

	files, err := o.cfg.Scanner.Scan(ctx, o.cfg.Catalog.ScanRules())
	res.FilesScanned = len(files)
	if err != nil {
		errs.add("", fmt.Sprintf("Failed to scan for files to update: %v", err))
		return false
	}
	o.log("Found %d candidate file(s)", len(files))

	res.Rewrite = o.cfg.Rewriter.Rewrite(ctx, files, loc.LastKnownPath, loc.RootPath)
	o.log("Updated %d occurrence(s) in %d file(s)", res.Rewrite.OccurrencesChanged, res.Rewrite.FilesChanged)
	if res.Rewrite.Failed > 0 {
		errs.add("", fmt.Sprintf("Failed to update %d file(s), see the startup log", res.Rewrite.Failed))
		return false
	}
	return true
}

func (o *Orchestrator) desired() envreg.Desired {
	return envreg.NewDesired(o.cfg.Root, o.cfg.Catalog.BinariesPaths())
}

func (o *Orchestrator) syncRegistry() envreg.Outcome {
	entries, err := o.cfg.Registry.Plan(o.desired())
	if err != nil {
		return envreg.Outcome{Errors: []string{err.Error()}}
	}
	for _, e := range entries {
		if e.Current != e.Desired {
			o.log("%s: %q -> %q", e.Name, e.Current, e.Desired)
		}
	}
	return o.cfg.Registry.Reconcile(entries)
}

func (o *Orchestrator) runServices(ctx context.Context, res *RunResult, errs *errorSections) {
	svcs, err := o.cfg.Catalog.ManagedServices()
	if err != nil {
		errs.add("", fmt.Sprintf("Failed to load services: %v", err))
	}

	res.Services = o.cfg.Services.Run(ctx, svcs)
	for _, out := range res.Services {
		if out.Failed() {
			o.log("%s: %s after %.2fs", out.Label, out.FinalState, out.Duration.Seconds())
		} else {
			o.log("%s: %s in %.2fs", out.Label, out.FinalState, out.Duration.Seconds())
		}
		errs.addService(out)
		if out.RestartRequired {
			res.RestartRequired = true
		}
	}
}

// Plan describes what a run would do without changing anything.
type Plan struct {
	Location location.InstallLocation
	Files    []string
	Registry []envreg.Entry
	Services []services.Report
}

// Plan inspects the bundle the way Run does and reports the pending
// changes. Only reads are performed.
func (o *Orchestrator) Plan(ctx context.Context) (Plan, error) {
	var p Plan
	var errs []error

	loc, err := o.cfg.Marker.Resolve(o.cfg.Root)
	if err != nil {
		errs = append(errs, err)
		loc = location.InstallLocation{RootPath: o.cfg.Root, LastKnownPath: o.cfg.Root}
	}
	p.Location = loc

	if loc.Relocated() || loc.FirstStart {
		files, err := o.cfg.Scanner.Scan(ctx, o.cfg.Catalog.ScanRules())
		if err != nil {
			errs = append(errs, err)
		}
		p.Files = files
	}

	entries, err := o.cfg.Registry.Plan(o.desired())
	if err != nil {
		errs = append(errs, err)
	}
	p.Registry = entries

	svcs, err := o.cfg.Catalog.ManagedServices()
	if err != nil {
		errs = append(errs, err)
	}
	p.Services = o.cfg.Services.Reports(ctx, svcs)

	return p, errors.Join(errs...)
}

func joinNames(names []envreg.EntryName) string {
	s := make([]string, len(names))
	for i, n := range names {
		s[i] = string(n)
	}
	return strings.Join(s, ", ")
}
