//go:build !windows

package envreg

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDesktopAutostart(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	a := NewAutostart()
	require.NoError(t, a.Enable("anchor", "/opt/anchor/anchor startup"))

	path := filepath.Join(dir, "autostart", "anchor.desktop")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Exec=/opt/anchor/anchor startup")

	require.NoError(t, a.Disable("anchor"))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, a.Disable("anchor"), "disabling twice is fine")
	assert.NoError(t, a.RemoveLegacy("anchor"))
}
