package pathscan

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
}

func TestMatches(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		includes []string
		want     bool
	}{
		{"no includes", "anything.bin", nil, true},
		{"empty entry", "anything.bin", []string{""}, true},
		{"suffix", "httpd.conf", []string{".conf"}, true},
		{"suffix miss", "httpd.exe", []string{".conf"}, false},
		{"exact name", "my.ini", []string{"my.ini"}, true},
		{"case insensitive", "HTTPD.CONF", []string{".conf"}, true},
		{"exclusion only keeps others", "pip.cfg", []string{"!.exe"}, true},
		{"exclusion only drops match", "python.exe", []string{"!.exe", "!.dll"}, false},
		{"exclusion beats inclusion", "setup.conf.exe", []string{".exe", "!.conf.exe"}, false},
		{"mixed include miss", "readme.txt", []string{".bat", "!.exe"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Matches(tt.file, tt.includes))
		})
	}
}

func TestScanRecursiveAndFlat(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "conf", "httpd.conf"))
	touch(t, filepath.Join(root, "conf", "extra", "ssl.conf"))
	touch(t, filepath.Join(root, "conf", "mime.types"))
	touch(t, filepath.Join(root, "php.ini"))
	touch(t, filepath.Join(root, "sub", "php.ini"))

	s := NewScanner(2)
	files, err := s.Scan(context.Background(), []Rule{
		{Path: filepath.Join(root, "conf"), Includes: []string{".conf"}, Recursive: true},
		{Path: root, Includes: []string{".ini"}},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(root, "conf", "extra", "ssl.conf"),
		filepath.Join(root, "conf", "httpd.conf"),
		filepath.Join(root, "php.ini"),
	}, files)
}

func TestScanDeduplicatesOverlappingRules(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "a.conf"))

	files, err := NewScanner(4).Scan(context.Background(), []Rule{
		{Path: root, Includes: []string{".conf"}},
		{Path: root, Includes: []string{"a.conf"}},
		{Path: root},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "a.conf")}, files)
}

func TestScanMissingPathIsSkipped(t *testing.T) {
	files, err := NewScanner(1).Scan(context.Background(), []Rule{
		{Path: filepath.Join(t.TempDir(), "does-not-exist"), Recursive: true},
	})
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestScanSingleFileRule(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "openssl.cfg")
	touch(t, file)

	files, err := NewScanner(1).Scan(context.Background(), []Rule{{Path: file}})
	require.NoError(t, err)
	assert.Equal(t, []string{file}, files)
}

func TestScanDoesNotFollowLinksOutsideRoot(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlink creation needs privileges on windows")
	}
	root := t.TempDir()
	outside := t.TempDir()
	touch(t, filepath.Join(outside, "secret.conf"))
	touch(t, filepath.Join(root, "real", "inner.conf"))

	require.NoError(t, os.Symlink(outside, filepath.Join(root, "escape")))
	require.NoError(t, os.Symlink(filepath.Join(root, "real"), filepath.Join(root, "alias")))
	// a loop back to the root must terminate
	require.NoError(t, os.Symlink(root, filepath.Join(root, "real", "loop")))

	files, err := NewScanner(1).Scan(context.Background(), []Rule{
		{Path: root, Includes: []string{".conf"}, Recursive: true},
	})
	require.NoError(t, err)

	for _, f := range files {
		assert.NotContains(t, f, "escape")
	}
	assert.Equal(t, []string{filepath.Join(root, "real", "inner.conf")}, files)
}

func TestScanReportsAliasedDirectoryOnce(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlink creation needs privileges on windows")
	}
	root := t.TempDir()
	touch(t, filepath.Join(root, "conf", "httpd.conf"))
	require.NoError(t, os.Symlink(filepath.Join(root, "conf"), filepath.Join(root, "alias")))
	require.NoError(t, os.Symlink(filepath.Join(root, "conf", "httpd.conf"), filepath.Join(root, "conf", "link.conf")))

	files, err := NewScanner(4).Scan(context.Background(), []Rule{
		{Path: root, Includes: []string{".conf"}, Recursive: true},
		{Path: filepath.Join(root, "alias"), Includes: []string{".conf"}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "conf", "httpd.conf")}, files)
}

func TestScanSkipsUnreadableDirectory(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are not enforced on windows")
	}
	if os.Geteuid() == 0 {
		t.Skip("root can read any directory")
	}
	root := t.TempDir()
	touch(t, filepath.Join(root, "ok", "httpd.conf"))
	locked := filepath.Join(root, "locked")
	touch(t, filepath.Join(locked, "hidden.conf"))
	require.NoError(t, os.Chmod(locked, 0000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0755) })

	files, err := NewScanner(1).Scan(context.Background(), []Rule{
		{Path: root, Includes: []string{".conf"}, Recursive: true},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "ok", "httpd.conf")}, files)
}

func TestScanHonoursCancellation(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "a", "b.conf"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewScanner(1).Scan(ctx, []Rule{{Path: root, Recursive: true}})
	assert.ErrorIs(t, err, context.Canceled)
}
