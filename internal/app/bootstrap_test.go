package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anchorbundle/anchor/internal/config"
	"github.com/anchorbundle/anchor/internal/services"
)

type nopController struct{}

func (nopController) Install(context.Context, services.ManagedService) error { return nil }
func (nopController) Start(context.Context, string) error                   { return nil }
func (nopController) Stop(context.Context, string) error                    { return nil }
func (nopController) Remove(context.Context, string) error                  { return nil }
func (nopController) Status(context.Context, string) (services.InstallStatus, error) {
	return services.InstallStatus{}, nil
}
func (nopController) LastError(string) string { return "" }

const testConfig = `bundle:
  killStale: false
registry:
  scope: file
products: []
`

func newTestApplication(t *testing.T) (*Application, string) {
	t.Helper()
	root := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(root, "xdg"))
	require.NoError(t, os.WriteFile(filepath.Join(root, config.ConfigFileName), []byte(testConfig), 0o644))

	cfg := NewConfig(false, true, root)
	cfg.Controller = nopController{}
	app, err := NewApplication(cfg)
	require.NoError(t, err)
	return app, root
}

func TestNewApplicationLoadsConfig(t *testing.T) {
	app, root := newTestApplication(t)

	s := app.Services()
	assert.Equal(t, root, s.Config.Bundle.Root)
	assert.Equal(t, config.RegistryScopeFile, s.Config.Registry.Scope)
	assert.Empty(t, s.Catalog.Products())
	assert.Equal(t, filepath.Join(root, "logs", "anchor-startup.log"), app.LogFile())
}

func TestNewApplicationRejectsInvalidConfig(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, config.ConfigFileName), []byte("registry:\n  scope: galaxy\n"), 0o644))

	_, err := NewApplication(NewConfig(false, true, root))
	require.Error(t, err)

	var errs config.ConfigurationErrorCollection
	assert.ErrorAs(t, err, &errs)
}

func TestStartupFirstRunThenSteadyState(t *testing.T) {
	app, root := newTestApplication(t)
	ctx := context.Background()

	first := app.Startup(ctx, nil)
	assert.Empty(t, first.AggregateError)
	assert.True(t, first.RestartRequired, "the system path gains the binaries token")
	assert.True(t, first.CertCreated)
	assert.FileExists(t, filepath.Join(root, "core", "tmp", "lastPath.dat"))
	assert.FileExists(t, filepath.Join(root, "core", "tmp", "environment.yaml"))
	assert.FileExists(t, app.LogFile())

	var steps []int
	second := app.Startup(ctx, func(step, _ int, _ string) { steps = append(steps, step) })
	assert.Empty(t, second.AggregateError)
	assert.False(t, second.RestartRequired)
	assert.False(t, second.CertCreated)
	assert.Len(t, steps, 8)
}

func TestPlanAndTeardown(t *testing.T) {
	app, _ := newTestApplication(t)

	plan, err := app.Plan(context.Background())
	require.NoError(t, err)
	assert.True(t, plan.Location.FirstStart)
	assert.Len(t, plan.Registry, 3)

	assert.NoError(t, app.Teardown(context.Background()))
}

func TestRepoIndexer(t *testing.T) {
	root := t.TempDir()
	for _, dir := range []string{"www/site-a/.git", "www/group/site-b/.git", "www/plain", "www/site-a/vendor/lib/.git"} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, filepath.FromSlash(dir)), 0o755))
	}

	cfg := config.GetDefaultConfig()
	cfg.Bundle.Root = root
	cfg.Bundle.RepoDirs = []string{"www", "missing"}

	idx := NewRepoIndexer(cfg)
	require.NoError(t, idx.Index(context.Background()))

	data, err := os.ReadFile(idx.Output)
	require.NoError(t, err)
	assert.Contains(t, string(data), filepath.Join(root, "www", "site-a"))
	assert.Contains(t, string(data), filepath.Join(root, "www", "group", "site-b"))
	assert.NotContains(t, string(data), "vendor")
}

func TestRelaunchedFromEnvironment(t *testing.T) {
	t.Setenv(RelaunchedEnv, "")
	assert.False(t, Relaunched())

	t.Setenv(RelaunchedEnv, "1")
	assert.True(t, Relaunched())
}

func TestScanOfEmptyBundle(t *testing.T) {
	app, _ := newTestApplication(t)

	files, err := app.Scan(context.Background())
	require.NoError(t, err)
	assert.Empty(t, files)
}
