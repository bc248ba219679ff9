package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notewell/recall/internal/config"
)

func TestInitCmd_WritesValidConfig(t *testing.T) {
	root := t.TempDir()

	out, err := runCommand(t, "init", "--vault", root)
	require.NoError(t, err)
	assert.Contains(t, out, "recall.yaml")

	path := filepath.Join(root, "recall.yaml")
	_, err = os.Stat(path)
	require.NoError(t, err)

	// The written template must load and validate.
	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 500, cfg.Chunking.SizeTokens)
}

func TestInitCmd_RefusesToOverwrite(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "recall.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: 1\n"), 0o644))

	_, err := runCommand(t, "init", "--vault", root)
	require.Error(t, err)

	_, err = runCommand(t, "init", "--vault", root, "--force")
	require.NoError(t, err)
}
