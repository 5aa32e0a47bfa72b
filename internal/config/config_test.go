package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/groundswell-ai/groundswell/internal/config"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "server.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadServer(t *testing.T) {
	path := writeFile(t, "port: \"9090\"\nroot: ingest\n")

	cfg, err := config.LoadServer(path)
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "ingest", cfg.Root)
}

func TestLoadServer_PartialKeepsDefaults(t *testing.T) {
	path := writeFile(t, "root: ingest\n")

	cfg, err := config.LoadServer(path)
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port, "unset fields keep defaults")
	assert.Equal(t, "ingest", cfg.Root)
}

func TestLoadServer_Invalid(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := config.LoadServer(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := config.LoadServer(writeFile(t, "port: ["))
		assert.Error(t, err)
	})

	t.Run("non-numeric port", func(t *testing.T) {
		_, err := config.LoadServer(writeFile(t, "port: eighty\nroot: main\n"))
		assert.Error(t, err)
	})
}
