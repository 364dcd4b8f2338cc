package installation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestDetectModular(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ModularCfgDir, ModularManifest))

	inst, err := Detect(root)
	require.NoError(t, err)
	assert.Equal(t, TypeModular, inst.Type)
	assert.Equal(t, filepath.Join(root, ModularCfgDir, ModularManifest), inst.ManifestPath)
	assert.Empty(t, inst.AgentsDir)
}

func TestDetectFlat(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, FlatManifest))
	require.NoError(t, os.MkdirAll(filepath.Join(root, FlatAgentsDir), 0o755))

	inst, err := Detect(root)
	require.NoError(t, err)
	assert.Equal(t, TypeFlat, inst.Type)
	assert.Equal(t, filepath.Join(root, FlatManifest), inst.ManifestPath)
	assert.Equal(t, filepath.Join(root, FlatAgentsDir), inst.AgentsDir)
}

func TestDetectModularWinsOverFlat(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ModularCfgDir, ModularManifest))
	writeFile(t, filepath.Join(root, FlatManifest))
	require.NoError(t, os.MkdirAll(filepath.Join(root, FlatAgentsDir), 0o755))

	inst, err := Detect(root)
	require.NoError(t, err)
	assert.Equal(t, TypeModular, inst.Type)
}

func TestDetectErrors(t *testing.T) {
	t.Run("csv without agents dir", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, filepath.Join(root, FlatManifest))

		_, err := Detect(root)
		require.ErrorIs(t, err, ErrInvalidInstallation)
		assert.Contains(t, err.Error(), "no agents/ directory")
	})

	t.Run("agents dir without csv", func(t *testing.T) {
		root := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(root, FlatAgentsDir), 0o755))

		_, err := Detect(root)
		require.ErrorIs(t, err, ErrInvalidInstallation)
		assert.Contains(t, err.Error(), "no agent-manifest.csv")
	})

	t.Run("empty directory", func(t *testing.T) {
		_, err := Detect(t.TempDir())
		require.ErrorIs(t, err, ErrInvalidInstallation)
	})

	t.Run("missing path", func(t *testing.T) {
		_, err := Detect(filepath.Join(t.TempDir(), "nope"))
		require.ErrorIs(t, err, ErrInvalidInstallation)
	})
}
