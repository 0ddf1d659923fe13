package location

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := map[string]string{
		`C:\Anchor\`:   "C:/Anchor",
		`C:\`:          "C:/",
		"/opt/anchor/": "/opt/anchor",
		"/":            "/",
		"  D:/x  ":     "D:/x",
	}
	for in, want := range tests {
		assert.Equal(t, want, Normalize(in), "Normalize(%q)", in)
	}
}

func TestRelocated(t *testing.T) {
	tests := []struct {
		name      string
		root      string
		last      string
		relocated bool
	}{
		{"same", `D:\anchor`, `D:\anchor`, false},
		{"separator style", `D:\anchor`, "D:/anchor/", false},
		{"drive case", `d:\Anchor`, `D:\anchor`, false},
		{"moved", `E:\anchor`, `D:\anchor`, true},
		{"unix moved", "/srv/anchor", "/opt/anchor", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc := InstallLocation{RootPath: tt.root, LastKnownPath: tt.last}
			assert.Equal(t, tt.relocated, loc.Relocated())
		})
	}
}

func TestPathForms(t *testing.T) {
	assert.Equal(t, `D:\anchor\bin`, ToWindows("D:/anchor/bin"))
	assert.Equal(t, "D:/anchor/bin", ToUnix(`D:\anchor\bin\`))
	assert.True(t, IsWindowsPath(`\\server\share`))
	assert.False(t, IsWindowsPath("/opt"))
}

func TestWithin(t *testing.T) {
	assert.True(t, Within(`D:\anchor`, `D:\anchor\bin\php.exe`))
	assert.True(t, Within(`D:\anchor`, `d:\ANCHOR`))
	assert.False(t, Within(`D:\anchor`, `D:\anchor2\php.exe`))
	assert.True(t, Within("/opt/anchor", "/opt/anchor/bin/httpd"))
	assert.False(t, Within("/opt/anchor", "/opt/other"))
}

func TestMarker(t *testing.T) {
	dir := t.TempDir()
	m := NewMarker(filepath.Join(dir, "core", "tmp", "lastPath.dat"))

	loc, err := m.Resolve("/new/root")
	require.NoError(t, err)
	assert.False(t, loc.Relocated(), "first start is not a relocation")
	assert.True(t, loc.FirstStart)

	require.NoError(t, m.Write("/old/root"))

	loc, err = m.Resolve("/new/root")
	require.NoError(t, err)
	assert.Equal(t, "/old/root", loc.LastKnownPath)
	assert.True(t, loc.Relocated())
	assert.False(t, loc.FirstStart)
}

func TestMarkerTrimsContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lastPath.dat")
	require.NoError(t, os.WriteFile(path, []byte("\xEF\xBB\xBFD:\\anchor\r\n"), 0644))

	root, found, err := NewMarker(path).Read()
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `D:\anchor`, root)
}
