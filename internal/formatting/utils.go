package formatting

import (
	"strings"

	"github.com/anchorbundle/anchor/internal/envreg"
	"github.com/anchorbundle/anchor/internal/orchestrator"
	"github.com/anchorbundle/anchor/internal/services"
	pkgstrings "github.com/anchorbundle/anchor/pkg/strings"
)

// runView is the document form of a RunResult.
type runView struct {
	RunID              string        `json:"runId" yaml:"runId"`
	Root               string        `json:"root" yaml:"root"`
	OldRoot            string        `json:"oldRoot,omitempty" yaml:"oldRoot,omitempty"`
	Relocated          bool          `json:"relocated" yaml:"relocated"`
	FilesScanned       int           `json:"filesScanned" yaml:"filesScanned"`
	FilesChanged       int           `json:"filesChanged" yaml:"filesChanged"`
	OccurrencesChanged int           `json:"occurrencesChanged" yaml:"occurrencesChanged"`
	RewriteFailures    int           `json:"rewriteFailures,omitempty" yaml:"rewriteFailures,omitempty"`
	RegistryChanged    []string      `json:"registryChanged,omitempty" yaml:"registryChanged,omitempty"`
	ServicesSkipped    bool          `json:"servicesSkipped,omitempty" yaml:"servicesSkipped,omitempty"`
	Services           []serviceView `json:"services" yaml:"services"`
	CertCreated        bool          `json:"certificateCreated" yaml:"certificateCreated"`
	MarkerWritten      bool          `json:"markerWritten" yaml:"markerWritten"`
	RestartRequired    bool          `json:"restartRequired" yaml:"restartRequired"`
	AggregateError     string        `json:"aggregateError,omitempty" yaml:"aggregateError,omitempty"`
	ElapsedSeconds     float64       `json:"elapsedSeconds" yaml:"elapsedSeconds"`
}

type serviceView struct {
	Service   string  `json:"service" yaml:"service"`
	Label     string  `json:"label" yaml:"label"`
	State     string  `json:"state" yaml:"state"`
	Installed bool    `json:"installed,omitempty" yaml:"installed,omitempty"`
	Drifted   bool    `json:"drifted,omitempty" yaml:"drifted,omitempty"`
	Started   bool    `json:"started" yaml:"started"`
	PortOwner string  `json:"portOwner,omitempty" yaml:"portOwner,omitempty"`
	Error     string  `json:"error,omitempty" yaml:"error,omitempty"`
	Restart   bool    `json:"restartRequired,omitempty" yaml:"restartRequired,omitempty"`
	Seconds   float64 `json:"seconds" yaml:"seconds"`
}

func newRunView(r orchestrator.RunResult) runView {
	v := runView{
		RunID:              r.RunID,
		Root:               r.Root,
		OldRoot:            r.OldRoot,
		Relocated:          r.Relocated,
		FilesScanned:       r.FilesScanned,
		FilesChanged:       r.Rewrite.FilesChanged,
		OccurrencesChanged: r.Rewrite.OccurrencesChanged,
		RewriteFailures:    r.Rewrite.Failed,
		ServicesSkipped:    r.ServicesSkipped,
		Services:           make([]serviceView, 0, len(r.Services)),
		CertCreated:        r.CertCreated,
		MarkerWritten:      r.MarkerWritten,
		RestartRequired:    r.RestartRequired,
		AggregateError:     r.AggregateError,
		ElapsedSeconds:     r.ElapsedSeconds,
	}
	for _, name := range r.RegistryChanged {
		v.RegistryChanged = append(v.RegistryChanged, string(name))
	}
	for _, o := range r.Services {
		v.Services = append(v.Services, serviceView{
			Service:   o.Service,
			Label:     o.Label,
			State:     string(o.FinalState),
			Installed: o.Installed,
			Drifted:   o.PathDrifted,
			Started:   o.Started,
			PortOwner: o.PortOwner,
			Error:     o.ErrorText,
			Restart:   o.RestartRequired,
			Seconds:   o.Duration.Seconds(),
		})
	}
	return v
}

// planView is the document form of a Plan.
type planView struct {
	Root          string       `json:"root" yaml:"root"`
	LastKnownPath string       `json:"lastKnownPath,omitempty" yaml:"lastKnownPath,omitempty"`
	FirstStart    bool         `json:"firstStart" yaml:"firstStart"`
	Relocated     bool         `json:"relocated" yaml:"relocated"`
	Files         []string     `json:"files" yaml:"files"`
	Registry      []entryView  `json:"registry" yaml:"registry"`
	Services      []reportView `json:"services" yaml:"services"`
}

type entryView struct {
	Name    string `json:"name" yaml:"name"`
	Current string `json:"current" yaml:"current"`
	Desired string `json:"desired" yaml:"desired"`
	Changed bool   `json:"changed" yaml:"changed"`
}

type reportView struct {
	Service     string `json:"service" yaml:"service"`
	Label       string `json:"label" yaml:"label"`
	Port        int    `json:"port,omitempty" yaml:"port,omitempty"`
	Status      string `json:"status" yaml:"status"`
	CommandLine string `json:"commandLine,omitempty" yaml:"commandLine,omitempty"`
	Error       string `json:"error,omitempty" yaml:"error,omitempty"`
}

func newPlanView(p orchestrator.Plan) planView {
	v := planView{
		Root:          p.Location.RootPath,
		LastKnownPath: p.Location.LastKnownPath,
		FirstStart:    p.Location.FirstStart,
		Relocated:     p.Location.Relocated(),
		Files:         p.Files,
		Registry:      make([]entryView, 0, len(p.Registry)),
		Services:      newReportViews(p.Services),
	}
	if v.Files == nil {
		v.Files = []string{}
	}
	for _, e := range p.Registry {
		v.Registry = append(v.Registry, newEntryView(e))
	}
	return v
}

func newEntryView(e envreg.Entry) entryView {
	return entryView{Name: string(e.Name), Current: e.Current, Desired: e.Desired, Changed: e.Current != e.Desired}
}

func newReportViews(reports []services.Report) []reportView {
	out := make([]reportView, 0, len(reports))
	for _, r := range reports {
		v := reportView{
			Service:     r.Service.Name,
			Label:       r.Service.Label(),
			Port:        r.Service.Port,
			Status:      reportStatus(r),
			CommandLine: r.Status.CommandLine,
		}
		if r.Err != nil {
			v.Error = r.Err.Error()
		}
		out = append(out, v)
	}
	return out
}

// reportStatus summarizes what the OS reports for a service.
func reportStatus(r services.Report) string {
	switch {
	case r.Err != nil:
		return "error"
	case !r.Status.Installed:
		return "not installed"
	case r.Drifted:
		return "drifted"
	case r.Status.Running:
		return "running"
	default:
		return "stopped"
	}
}

// outcomeStatus summarizes a service outcome in a couple of words.
func outcomeStatus(o services.Outcome) string {
	switch {
	case o.RestartRequired:
		return "restart required"
	case o.PortConflict:
		return "port blocked"
	case o.Failed():
		return "failed"
	case o.Started && o.Installed:
		return "installed, started"
	case o.Started:
		return "started"
	default:
		return strings.ToLower(string(o.FinalState))
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func cellWidth(o Options) int {
	if o.Width > 0 {
		return o.Width
	}
	return pkgstrings.DefaultCellMaxLen
}
