package housekeeping

import (
	"context"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anchorbundle/anchor/internal/config"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newHousekeeper(t *testing.T) (*Housekeeper, string) {
	t.Helper()
	root := t.TempDir()
	cfg := config.GetDefaultConfig()
	cfg.Bundle.Root = root

	h := New(cfg, -1)
	h.Processes = nil
	h.Now = func() time.Time { return time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC) }
	return h, root
}

func TestRotateLogs(t *testing.T) {
	h, root := newHousekeeper(t)
	writeFile(t, filepath.Join(root, "logs", "apache_error.log"), "e")
	writeFile(t, filepath.Join(root, "logs", "anchor-startup.log"), "s")
	writeFile(t, filepath.Join(root, "logs", "keep.txt"), "k")
	writeFile(t, filepath.Join(root, "core", "logs", "scripts", "rebuild.log"), "r")

	report, err := h.RotateLogs()
	require.NoError(t, err)
	assert.Equal(t, 3, report.LogsArchived)

	archive := filepath.Join(root, "logs", "archives", "2026-03-14-092653")
	assert.Equal(t, archive, report.Archive)
	assert.FileExists(t, filepath.Join(archive, "apache_error.log"))
	assert.FileExists(t, filepath.Join(archive, "scripts", "rebuild.log"))
	assert.FileExists(t, filepath.Join(root, "logs", "keep.txt"))
	assert.NoFileExists(t, filepath.Join(root, "logs", "apache_error.log"))

	// Only the first call rotates.
	writeFile(t, filepath.Join(root, "logs", "late.log"), "l")
	again, err := h.RotateLogs()
	require.NoError(t, err)
	assert.Equal(t, report, again)
	assert.FileExists(t, filepath.Join(root, "logs", "late.log"))
}

func TestRotateLogsPrunesOldArchives(t *testing.T) {
	h, root := newHousekeeper(t)
	h.MaxArchives = 2
	archives := filepath.Join(root, "logs", "archives")
	for _, name := range []string{"2025-01-01-000000", "2025-06-01-000000", "2026-01-01-000000"} {
		require.NoError(t, os.MkdirAll(filepath.Join(archives, name), 0o755))
	}
	writeFile(t, filepath.Join(root, "logs", "a.log"), "a")

	_, err := h.RotateLogs()
	require.NoError(t, err)

	entries, err := os.ReadDir(archives)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Equal(t, []string{"2026-01-01-000000", "2026-03-14-092653"}, names)
}

func TestRotateLogsWithoutArchives(t *testing.T) {
	h, root := newHousekeeper(t)
	h.MaxArchives = 0
	writeFile(t, filepath.Join(root, "logs", "a.log"), "a")

	report, err := h.RotateLogs()
	require.NoError(t, err)
	assert.Empty(t, report.Archive)
	assert.NoFileExists(t, filepath.Join(root, "logs", "a.log"))
	assert.NoDirExists(t, filepath.Join(root, "logs", "archives", "2026-03-14-092653"))
}

func TestPurgeTmp(t *testing.T) {
	h, root := newHousekeeper(t)
	h.TmpKeep = []string{"Composer", "mailpit"}
	tmp := filepath.Join(root, "tmp")
	writeFile(t, filepath.Join(tmp, "sess_1"), "x")
	writeFile(t, filepath.Join(tmp, "uploads", "a.bin"), "x")
	writeFile(t, filepath.Join(tmp, "composer", "cache.json"), "x")
	writeFile(t, filepath.Join(tmp, "mailpit", "db"), "x")

	removed, err := h.PurgeTmp()
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.NoFileExists(t, filepath.Join(tmp, "sess_1"))
	assert.NoDirExists(t, filepath.Join(tmp, "uploads"))
	assert.FileExists(t, filepath.Join(tmp, "composer", "cache.json"))
	assert.FileExists(t, filepath.Join(tmp, "mailpit", "db"))
}

func TestPurgeTmpCreatesMissingDir(t *testing.T) {
	h, root := newHousekeeper(t)

	removed, err := h.PurgeTmp()
	require.NoError(t, err)
	assert.Zero(t, removed)
	assert.DirExists(t, filepath.Join(root, "tmp"))
}

type fakeProcesses struct {
	procs  []ProcessInfo
	killed []int32
	fail   map[int32]bool
}

func (f *fakeProcesses) List(context.Context) ([]ProcessInfo, error) {
	return f.procs, nil
}

func (f *fakeProcesses) Kill(_ context.Context, pid int32) error {
	if f.fail[pid] {
		return errors.New("access denied")
	}
	f.killed = append(f.killed, pid)
	return nil
}

func TestKillUnder(t *testing.T) {
	root := filepath.Join(t.TempDir(), "anchor")
	table := &fakeProcesses{
		procs: []ProcessInfo{
			{PID: 10, Name: "httpd", Exe: filepath.Join(root, "bin", "apache", "httpd")},
			{PID: 11, Name: "bash", Exe: "/bin/bash"},
			{PID: 12, Name: "mysqld", Exe: filepath.Join(root, "bin", "mysql", "mysqld")},
			{PID: 13, Name: "other", Exe: root + "-old/bin/other"},
			{PID: int32(os.Getpid()), Name: "anchor", Exe: filepath.Join(root, "anchor")},
		},
		fail: map[int32]bool{12: true},
	}

	killed, err := KillUnder(context.Background(), table, root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mysqld (12)")
	assert.Equal(t, []string{"httpd (10)"}, killed)
	assert.Equal(t, []int32{10}, table.killed)
}

func TestCleanKillsWhenEnabled(t *testing.T) {
	h, root := newHousekeeper(t)
	table := &fakeProcesses{procs: []ProcessInfo{{PID: 42, Name: "memcached", Exe: filepath.Join(root, "bin", "memcached")}}}
	h.Processes = table

	report, err := h.Clean(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"memcached (42)"}, report.Killed)

	h2, _ := newHousekeeper(t)
	h2.KillStale = false
	h2.Processes = &fakeProcesses{procs: table.procs}
	report, err = h2.Clean(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report.Killed)
}

func TestEnsureRootCertificate(t *testing.T) {
	opts := CertificateOptions{Dir: filepath.Join(t.TempDir(), "ssl"), Name: "localhost", Organization: "Test", ValidDays: 30}

	created, err := EnsureRootCertificate(opts)
	require.NoError(t, err)
	assert.True(t, created)

	crtPath, keyPath, pubPath := opts.Files()
	assert.FileExists(t, keyPath)
	assert.FileExists(t, pubPath)

	data, err := os.ReadFile(crtPath)
	require.NoError(t, err)
	block, _ := pem.Decode(data)
	require.NotNil(t, block)
	cert, err := x509.ParseCertificate(block.Bytes)
	require.NoError(t, err)
	assert.Equal(t, "localhost", cert.Subject.CommonName)
	assert.True(t, cert.IsCA)
	assert.Contains(t, cert.DNSNames, "localhost")

	created, err = EnsureRootCertificate(opts)
	require.NoError(t, err)
	assert.False(t, created)
}
