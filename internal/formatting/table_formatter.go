package formatting

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/anchorbundle/anchor/internal/orchestrator"
	"github.com/anchorbundle/anchor/internal/services"
	pkgstrings "github.com/anchorbundle/anchor/pkg/strings"
)

// TableFormatter provides rich table output formatting
type TableFormatter struct {
	options Options
}

// NewTableFormatter creates a new table formatter
func NewTableFormatter(options Options) *TableFormatter {
	return &TableFormatter{options: options}
}

// RunResult renders a summary table followed by one row per service.
func (f *TableFormatter) RunResult(w io.Writer, r orchestrator.RunResult) error {
	t := f.createTable(w)
	t.SetTitle("Startup " + r.RunID)
	t.AppendHeader(table.Row{f.header("STEP"), f.header("RESULT")})

	location := "unchanged"
	if r.Relocated {
		location = fmt.Sprintf("moved from %s", r.OldRoot)
	}
	t.AppendRow(table.Row{"Location", location})
	t.AppendRow(table.Row{"Root", r.Root})
	t.AppendRow(table.Row{"Files", fmt.Sprintf("%d scanned, %d changed, %d replacements",
		r.FilesScanned, r.Rewrite.FilesChanged, r.Rewrite.OccurrencesChanged)})
	if r.Rewrite.Failed > 0 {
		t.AppendRow(table.Row{"Rewrite failures", f.color(text.FgRed, strconv.Itoa(r.Rewrite.Failed))})
	}
	t.AppendRow(table.Row{"Registry", registrySummary(r)})
	certificate := "unchanged"
	if r.CertCreated {
		certificate = "created"
	}
	t.AppendRow(table.Row{"Certificate", certificate})
	t.AppendRow(table.Row{"Location saved", yesNo(r.MarkerWritten)})
	t.AppendRow(table.Row{"Elapsed", fmt.Sprintf("%.3fs", r.ElapsedSeconds)})
	t.Render()

	if r.ServicesSkipped {
		fmt.Fprintln(w, f.color(text.FgYellow, "Services skipped: restart required"))
	} else if len(r.Services) > 0 {
		f.renderOutcomes(w, r.Services)
	}

	switch {
	case r.RestartRequired:
		fmt.Fprintln(w, f.color(text.FgYellow, "Restart required"))
	case r.Failed():
		fmt.Fprintln(w, f.color(text.FgRed, "Startup finished with errors:"))
		fmt.Fprintln(w, r.AggregateError)
	default:
		fmt.Fprintln(w, f.color(text.FgGreen, "Startup complete"))
	}
	return nil
}

func (f *TableFormatter) renderOutcomes(w io.Writer, outcomes []services.Outcome) {
	t := f.createTable(w)
	t.AppendHeader(table.Row{f.header("SERVICE"), f.header("STATUS"), f.header("TIME"), f.header("DETAIL")})
	for _, o := range outcomes {
		status := outcomeStatus(o)
		switch {
		case o.Failed():
			status = f.color(text.FgRed, status)
		case o.RestartRequired:
			status = f.color(text.FgYellow, status)
		case o.Started:
			status = f.color(text.FgGreen, status)
		}
		t.AppendRow(table.Row{
			o.Label,
			status,
			fmt.Sprintf("%.2fs", o.Duration.Seconds()),
			pkgstrings.Truncate(o.ErrorText, cellWidth(f.options)),
		})
	}
	t.Render()
}

// Plan renders the pending changes of a dry run.
func (f *TableFormatter) Plan(w io.Writer, p orchestrator.Plan) error {
	v := newPlanView(p)

	t := f.createTable(w)
	t.SetTitle("Location")
	t.AppendRow(table.Row{"Root", v.Root})
	switch {
	case v.FirstStart:
		t.AppendRow(table.Row{"Last known", "none (first start)"})
	case v.Relocated:
		t.AppendRow(table.Row{"Last known", f.color(text.FgYellow, v.LastKnownPath)})
	default:
		t.AppendRow(table.Row{"Last known", v.LastKnownPath})
	}
	t.AppendRow(table.Row{"Candidate files", len(v.Files)})
	t.Render()

	if len(v.Registry) > 0 {
		t = f.createTable(w)
		t.SetTitle("Environment")
		t.AppendHeader(table.Row{f.header("VALUE"), f.header("CURRENT"), f.header("DESIRED")})
		for _, e := range v.Registry {
			desired := e.Desired
			if e.Changed {
				desired = f.color(text.FgYellow, desired)
			}
			t.AppendRow(table.Row{
				e.Name,
				pkgstrings.Truncate(e.Current, cellWidth(f.options)),
				pkgstrings.Truncate(desired, cellWidth(f.options)),
			})
		}
		t.Render()
	}

	if len(p.Services) > 0 {
		return f.Reports(w, p.Services)
	}
	return nil
}

// Reports renders the OS view of every service.
func (f *TableFormatter) Reports(w io.Writer, reports []services.Report) error {
	if len(reports) == 0 {
		fmt.Fprintln(w, f.color(text.FgYellow, "No services configured"))
		return nil
	}
	t := f.createTable(w)
	t.AppendHeader(table.Row{f.header("SERVICE"), f.header("PORT"), f.header("STATUS"), f.header("COMMAND")})
	for _, r := range newReportViews(reports) {
		port := "-"
		if r.Port > 0 {
			port = strconv.Itoa(r.Port)
		}
		status := r.Status
		switch status {
		case "running":
			status = f.color(text.FgGreen, status)
		case "drifted", "error":
			status = f.color(text.FgRed, status)
		}
		detail := r.CommandLine
		if r.Error != "" {
			detail = r.Error
		}
		t.AppendRow(table.Row{r.Label, port, status, pkgstrings.Truncate(detail, cellWidth(f.options))})
	}
	t.Render()
	return nil
}

// Inventory renders the product inventory as a single-column table.
func (f *TableFormatter) Inventory(w io.Writer, lines []string) error {
	t := f.createTable(w)
	t.AppendHeader(table.Row{f.header("PRODUCT")})
	for _, l := range lines {
		t.AppendRow(table.Row{l})
	}
	t.Render()
	return nil
}

// Files lists candidate files with a count footer.
func (f *TableFormatter) Files(w io.Writer, files []string) error {
	t := f.createTable(w)
	t.AppendHeader(table.Row{f.header("FILE")})
	for _, file := range files {
		t.AppendRow(table.Row{file})
	}
	t.AppendFooter(table.Row{fmt.Sprintf("%d file(s)", len(files))})
	t.Render()
	return nil
}

// createTable creates a new table with standard styling
func (f *TableFormatter) createTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	return t
}

func (f *TableFormatter) header(s string) string {
	return f.color(text.FgHiCyan, s)
}

func (f *TableFormatter) color(c text.Color, s string) string {
	if !f.options.Color {
		return s
	}
	return c.Sprint(s)
}

func registrySummary(r orchestrator.RunResult) string {
	if len(r.RegistryChanged) == 0 {
		return "up to date"
	}
	names := make([]string, 0, len(r.RegistryChanged))
	for _, n := range r.RegistryChanged {
		names = append(names, string(n))
	}
	return "updated " + strings.Join(names, ", ")
}
