package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPath(t *testing.T) {
	// Clear XDG var to test default
	t.Setenv("XDG_CONFIG_HOME", "")

	path := DefaultPath()
	assert.Contains(t, path, ".config/hoard/hoard.toml")
}

func TestDefaultPath_XDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")

	path := DefaultPath()
	assert.Equal(t, "/custom/config/hoard/hoard.toml", path)
}

func TestDiscover_HOARD_CONFIG(t *testing.T) {
	tmp := t.TempDir()
	cfgPath := filepath.Join(tmp, "custom.toml")
	err := os.WriteFile(cfgPath, []byte(`target_dir = "x"`), 0644)
	require.NoError(t, err, "failed to create test config")

	t.Setenv("HOARD_CONFIG", cfgPath)

	path, err := Discover()
	require.NoError(t, err)
	assert.Equal(t, cfgPath, path)
}

func TestDiscover_HOARD_CONFIG_NotFound(t *testing.T) {
	t.Setenv("HOARD_CONFIG", "/nonexistent/hoard.toml")

	_, err := Discover()
	require.Error(t, err, "expected error for missing HOARD_CONFIG")
	assert.Contains(t, err.Error(), "HOARD_CONFIG")
}

func TestDiscover_CurrentDir(t *testing.T) {
	t.Setenv("HOARD_CONFIG", "")
	tmp := t.TempDir()
	chdir(t, tmp)

	err := os.WriteFile(filepath.Join(tmp, "hoard.toml"), []byte(`target_dir = "x"`), 0644)
	require.NoError(t, err)

	path, err := Discover()
	require.NoError(t, err)
	assert.Equal(t, "./hoard.toml", path)
}

func TestDiscover_NotFound(t *testing.T) {
	t.Setenv("HOARD_CONFIG", "")
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	chdir(t, t.TempDir())

	_, err := Discover()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config not found")
}

// chdir stands in for t.Chdir (Go 1.24+): change to dir, restore on cleanup.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Errorf("failed to restore working directory: %v", err)
		}
	})
}
