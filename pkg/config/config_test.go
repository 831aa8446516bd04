package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/arthur-debert/genlink/pkg/paths"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, home, cfg.Deploy.TargetRoot)
	assert.Equal(t, "backup", cfg.Deploy.BackupSuffix)
	assert.False(t, cfg.Deploy.Force)
	assert.Empty(t, cfg.Store.DataDir)
	assert.Empty(t, cfg.Ownership.ExtraGlobs)
}

func TestLoadDeployRootFile(t *testing.T) {
	root := t.TempDir()
	content := `
[deploy]
target_root = "` + filepath.Join(root, "live") + `"
backup_suffix = "orig"

[ownership]
extra_globs = ["/opt/shared/*"]

[manifest]
path = "files.toml"
`
	require.NoError(t, os.WriteFile(filepath.Join(root, "genlink.toml"), []byte(content), 0o644))

	cfg, err := Load(root)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "live"), cfg.Deploy.TargetRoot)
	assert.Equal(t, "orig", cfg.Deploy.BackupSuffix)
	assert.Equal(t, []string{"/opt/shared/*"}, cfg.Ownership.ExtraGlobs)
	assert.Equal(t, filepath.Join(root, "files.toml"), cfg.Manifest.Path,
		"relative manifest path resolves against the deployment root")
}

func TestHiddenFileTakesPrecedence(t *testing.T) {
	root := t.TempDir()
	hidden := "[deploy]\nbackup_suffix = \"hidden\"\n"
	visible := "[deploy]\nbackup_suffix = \"visible\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, ".genlink.toml"), []byte(hidden), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "genlink.toml"), []byte(visible), 0o644))

	cfg, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, "hidden", cfg.Deploy.BackupSuffix)
}

func TestLoadYAMLFile(t *testing.T) {
	root := t.TempDir()
	content := "deploy:\n  backup_suffix: yml\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, "genlink.yaml"), []byte(content), 0o644))

	cfg, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, "yml", cfg.Deploy.BackupSuffix)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("GENLINK_DEPLOY__BACKUP_SUFFIX", "env-suffix")
	t.Setenv("GENLINK_DEPLOY__FORCE", "true")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "env-suffix", cfg.Deploy.BackupSuffix)
	assert.True(t, cfg.Deploy.Force)
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "genlink.toml"),
		[]byte("[deploy\nnot toml"), 0o644))

	_, err := Load(root)
	require.Error(t, err)
}

func TestManagedPredicate(t *testing.T) {
	root := t.TempDir()
	dataDir := filepath.Join(root, "data")
	t.Setenv("GENLINK_DATA_DIR", dataDir)
	t.Setenv("GENLINK_STATE_DIR", filepath.Join(root, "state"))

	cfg, err := Load(root)
	require.NoError(t, err)
	cfg.Ownership.ExtraGlobs = []string{"/opt/shared/*"}

	managed := cfg.ManagedPredicate(paths.New())

	assert.True(t, managed(filepath.Join(dataDir, "generations", "000001", "x")))
	assert.True(t, managed("/opt/shared/thing"))
	assert.False(t, managed("/opt/shared/deep/thing"), "glob does not cross separators")
	assert.False(t, managed(filepath.Join(root, "elsewhere")))
}
