package formatting

import (
	"fmt"
	"io"

	"github.com/anchorbundle/anchor/internal/orchestrator"
	"github.com/anchorbundle/anchor/internal/services"
	pkgstrings "github.com/anchorbundle/anchor/pkg/strings"
)

// PlainFormatter writes one line per fact, for logs and dumb terminals.
type PlainFormatter struct {
	options Options
}

func (f *PlainFormatter) RunResult(w io.Writer, r orchestrator.RunResult) error {
	fmt.Fprintf(w, "run %s root=%s relocated=%t\n", r.RunID, r.Root, r.Relocated)
	fmt.Fprintf(w, "files scanned=%d changed=%d replacements=%d failed=%d\n",
		r.FilesScanned, r.Rewrite.FilesChanged, r.Rewrite.OccurrencesChanged, r.Rewrite.Failed)
	fmt.Fprintf(w, "registry %s\n", registrySummary(r))
	for _, o := range r.Services {
		line := fmt.Sprintf("service %s: %s", o.Label, outcomeStatus(o))
		if o.ErrorText != "" {
			line += ": " + pkgstrings.OneLine(o.ErrorText)
		}
		fmt.Fprintln(w, line)
	}
	fmt.Fprintf(w, "restart=%t errors=%t elapsed=%.3fs\n", r.RestartRequired, r.Failed(), r.ElapsedSeconds)
	return nil
}

func (f *PlainFormatter) Plan(w io.Writer, p orchestrator.Plan) error {
	v := newPlanView(p)
	fmt.Fprintf(w, "root %s last=%s first=%t relocated=%t\n", v.Root, v.LastKnownPath, v.FirstStart, v.Relocated)
	for _, file := range v.Files {
		fmt.Fprintf(w, "file %s\n", file)
	}
	for _, e := range v.Registry {
		if e.Changed {
			fmt.Fprintf(w, "registry %s: %q -> %q\n", e.Name, e.Current, e.Desired)
		}
	}
	return f.Reports(w, p.Services)
}

func (f *PlainFormatter) Reports(w io.Writer, reports []services.Report) error {
	for _, r := range newReportViews(reports) {
		fmt.Fprintf(w, "service %s: %s\n", r.Label, r.Status)
	}
	return nil
}

func (f *PlainFormatter) Inventory(w io.Writer, lines []string) error {
	for _, l := range lines {
		fmt.Fprintln(w, l)
	}
	return nil
}

func (f *PlainFormatter) Files(w io.Writer, files []string) error {
	for _, file := range files {
		fmt.Fprintln(w, file)
	}
	return nil
}
