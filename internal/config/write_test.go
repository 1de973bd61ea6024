// internal/config/write_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteDefault(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "hoard", "hoard.toml")

	err := WriteDefault(path)
	require.NoError(t, err, "WriteDefault failed")

	content, err := os.ReadFile(path)
	require.NoError(t, err, "failed to read written file")

	// Check for key settings
	assert.Contains(t, string(content), "target_dir")
	assert.Contains(t, string(content), "workers")
	assert.Contains(t, string(content), "${HOARD_COOKIE")
}

func TestWriteDefault_CreatesDir(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "nested", "deep", "hoard.toml")

	err := WriteDefault(path)
	require.NoError(t, err, "WriteDefault failed")

	_, err = os.Stat(path)
	assert.False(t, os.IsNotExist(err), "file was not created")
}

func TestWriteDefault_Loadable(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "hoard.toml")
	require.NoError(t, WriteDefault(path))

	cfg, err := Load(path)
	require.NoError(t, err, "written default should load cleanly")
	assert.Equal(t, 4, cfg.Workers)
}

func TestConfig_Write(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "out", "hoard.toml")

	cfg := Default()
	cfg.TargetDir = tmp
	cfg.Sources = []string{"https://example.com/user/alice"}
	cfg.Workers = 7

	require.NoError(t, cfg.Write(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, tmp, loaded.TargetDir)
	assert.Equal(t, cfg.Sources, loaded.Sources)
	assert.Equal(t, 7, loaded.Workers)
}
