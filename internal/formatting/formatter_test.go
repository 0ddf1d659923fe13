package formatting

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/anchorbundle/anchor/internal/envreg"
	"github.com/anchorbundle/anchor/internal/location"
	"github.com/anchorbundle/anchor/internal/orchestrator"
	"github.com/anchorbundle/anchor/internal/pathrewrite"
	"github.com/anchorbundle/anchor/internal/services"
)

func sampleResult() orchestrator.RunResult {
	return orchestrator.RunResult{
		RunID:           "run-1",
		Relocated:       true,
		OldRoot:         "/old/bundle",
		Root:            "/new/bundle",
		FilesScanned:    3,
		Rewrite:         pathrewrite.Result{FilesChanged: 3, OccurrencesChanged: 5},
		RegistryChanged: []envreg.EntryName{envreg.InstallPath, envreg.BinariesPath},
		Services: []services.Outcome{
			{Service: "anchorapache", Label: "apache 2.4 (anchorapache)", Installed: true, Started: true, FinalState: services.StateStarted, Duration: time.Second},
			{Service: "anchormysql", Label: "mysql (anchormysql)", PortConflict: true, PortOwner: "mysqld (4242)",
				ErrorText: "Port 3306 is used by mysqld (4242)", FinalState: services.StatePortBlocked},
		},
		AggregateError: "Service mysql (anchormysql) failed:\nPort 3306 is used by mysqld (4242)",
		ElapsedSeconds: 1.5,
	}
}

func TestTableRunResult(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(Options{Format: FormatTable}).RunResult(&buf, sampleResult()))

	out := buf.String()
	assert.Contains(t, out, "moved from /old/bundle")
	assert.Contains(t, out, "3 scanned, 3 changed, 5 replacements")
	assert.Contains(t, out, "updated InstallPath, BinariesPath")
	assert.Contains(t, out, "installed, started")
	assert.Contains(t, out, "port blocked")
	assert.Contains(t, out, "Startup finished with errors:")
	assert.Contains(t, out, "Port 3306 is used by mysqld (4242)")
	assert.NotContains(t, out, "\x1b[", "no color codes without Color")
}

func TestTableRunResultRestart(t *testing.T) {
	r := orchestrator.RunResult{RunID: "run-2", RestartRequired: true, ServicesSkipped: true}

	var buf bytes.Buffer
	require.NoError(t, NewTableFormatter(Options{}).RunResult(&buf, r))
	assert.Contains(t, buf.String(), "Services skipped: restart required")
	assert.Contains(t, buf.String(), "Restart required")
}

func TestTableTruncatesDetail(t *testing.T) {
	long := "line one\n" + string(bytes.Repeat([]byte("x"), 200))
	r := orchestrator.RunResult{Services: []services.Outcome{{Label: "php", ErrorText: long}}}

	var buf bytes.Buffer
	require.NoError(t, NewTableFormatter(Options{Width: 20}).RunResult(&buf, r))
	assert.Contains(t, buf.String(), "line one xxxxxxxx...")
}

func samplePlan() orchestrator.Plan {
	return orchestrator.Plan{
		Location: location.InstallLocation{RootPath: "/new/bundle", LastKnownPath: "/old/bundle"},
		Files:    []string{"/new/bundle/etc/httpd.conf"},
		Registry: []envreg.Entry{
			{Name: envreg.InstallPath, Current: "/old/bundle", Desired: "/new/bundle"},
			{Name: envreg.SystemPath, Current: "%ANCHOR_BIN%", Desired: "%ANCHOR_BIN%"},
		},
		Services: []services.Report{
			{Service: services.ManagedService{Name: "anchorapache", Product: "apache", Port: 80},
				Status: services.InstallStatus{Installed: true, Running: true, CommandLine: "/old/bundle/bin/httpd"}, Drifted: true},
		},
	}
}

func TestTablePlan(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(Options{Format: FormatTable}).Plan(&buf, samplePlan()))

	out := buf.String()
	assert.Contains(t, out, "/old/bundle")
	assert.Contains(t, out, "InstallPath")
	assert.Contains(t, out, "drifted")
	assert.Contains(t, out, "80")
}

func TestTableReportsEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewTableFormatter(Options{}).Reports(&buf, nil))
	assert.Contains(t, buf.String(), "No services configured")
}

func TestPlainPlanListsOnlyChanges(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(Options{Format: FormatPlain}).Plan(&buf, samplePlan()))

	out := buf.String()
	assert.Contains(t, out, "file /new/bundle/etc/httpd.conf")
	assert.Contains(t, out, `registry InstallPath: "/old/bundle" -> "/new/bundle"`)
	assert.NotContains(t, out, "registry SystemPath")
	assert.Contains(t, out, "service apache (anchorapache): drifted")
}

func TestJSONRunResult(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(Options{Format: FormatJSON}).RunResult(&buf, sampleResult()))

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "run-1", doc["runId"])
	assert.Equal(t, true, doc["relocated"])
	assert.Equal(t, float64(5), doc["occurrencesChanged"])
	assert.Len(t, doc["services"], 2)
}

func TestYAMLPlan(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(Options{Format: FormatYAML}).Plan(&buf, samplePlan()))

	var doc planView
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
	assert.True(t, doc.Relocated)
	require.Len(t, doc.Registry, 2)
	assert.True(t, doc.Registry[0].Changed)
	assert.False(t, doc.Registry[1].Changed)
	assert.Equal(t, "drifted", doc.Services[0].Status)
}

func TestStructuredInventoryNeverNull(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(Options{Format: FormatJSON}).Inventory(&buf, nil))
	assert.JSONEq(t, `{"products": []}`, buf.String())
}

func TestFilesFooterCountsEntries(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(Options{}).Files(&buf, []string{"/b/httpd.conf", "/b/php.ini"}))
	assert.Contains(t, buf.String(), "/b/php.ini")
	assert.Contains(t, buf.String(), "2 FILE(S)")
}
