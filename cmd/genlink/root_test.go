package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := runCommand(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "genlink version")
}

func TestNoCommandFails(t *testing.T) {
	_, err := runCommand(t)
	require.Error(t, err)
}

func TestTopicsCommand(t *testing.T) {
	out, err := runCommand(t, "topics")
	require.NoError(t, err)
	assert.Contains(t, out, "manifest")
	assert.Contains(t, out, "generations")
}

func TestSwitchEndToEnd(t *testing.T) {
	root := t.TempDir()
	deploy := filepath.Join(root, "deploy")
	live := filepath.Join(root, "live")
	require.NoError(t, os.MkdirAll(deploy, 0o755))
	require.NoError(t, os.MkdirAll(live, 0o755))
	t.Setenv("GENLINK_DATA_DIR", filepath.Join(root, "data"))
	t.Setenv("GENLINK_STATE_DIR", filepath.Join(root, "state"))

	require.NoError(t, os.WriteFile(filepath.Join(deploy, "genlink.toml"),
		[]byte("[deploy]\ntarget_root = \""+live+"\"\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(deploy, "gitconfig"),
		[]byte("[user]\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(deploy, "manifest.toml"),
		[]byte("[[file]]\ntarget = \".gitconfig\"\nsource = \"gitconfig\"\n"), 0o644))

	out, err := runCommand(t, "switch", "--root", deploy, "--format", "text")
	require.NoError(t, err)
	assert.Contains(t, out, "generation 1")
	assert.Contains(t, out, "linked\t.gitconfig")

	info, err := os.Lstat(filepath.Join(live, ".gitconfig"))
	require.NoError(t, err)
	assert.NotZero(t, info.Mode()&os.ModeSymlink)

	out, err = runCommand(t, "generations", "--root", deploy)
	require.NoError(t, err)
	assert.Contains(t, out, "*")
}

func TestSwitchCommandEnumeratesCollisions(t *testing.T) {
	root := t.TempDir()
	deploy := filepath.Join(root, "deploy")
	live := filepath.Join(root, "live")
	require.NoError(t, os.MkdirAll(deploy, 0o755))
	require.NoError(t, os.MkdirAll(live, 0o755))
	t.Setenv("GENLINK_DATA_DIR", filepath.Join(root, "data"))
	t.Setenv("GENLINK_STATE_DIR", filepath.Join(root, "state"))

	require.NoError(t, os.WriteFile(filepath.Join(deploy, "genlink.toml"),
		[]byte("[deploy]\ntarget_root = \""+live+"\"\nbackup_suffix = \"\"\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(deploy, "conf"),
		[]byte("new\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(deploy, "manifest.toml"),
		[]byte("[[file]]\ntarget = \"conf\"\nsource = \"conf\"\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(live, "conf"),
		[]byte("old\n"), 0o644))

	out, err := runCommand(t, "switch", "--root", deploy, "--format", "text")
	require.Error(t, err)
	assert.Contains(t, out, "collision\t"+filepath.Join(live, "conf"))

	// the live file is untouched and no link was made
	data, readErr := os.ReadFile(filepath.Join(live, "conf"))
	require.NoError(t, readErr)
	assert.Equal(t, "old\n", string(data))
}

func TestCheckCommandDetectsCollision(t *testing.T) {
	root := t.TempDir()
	deploy := filepath.Join(root, "deploy")
	live := filepath.Join(root, "live")
	require.NoError(t, os.MkdirAll(deploy, 0o755))
	require.NoError(t, os.MkdirAll(live, 0o755))
	t.Setenv("GENLINK_DATA_DIR", filepath.Join(root, "data"))
	t.Setenv("GENLINK_STATE_DIR", filepath.Join(root, "state"))

	require.NoError(t, os.WriteFile(filepath.Join(deploy, "genlink.toml"),
		[]byte("[deploy]\ntarget_root = \""+live+"\"\nbackup_suffix = \"\"\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(deploy, "zshrc"),
		[]byte("new\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(deploy, "manifest.toml"),
		[]byte("[[file]]\ntarget = \".zshrc\"\nsource = \"zshrc\"\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(live, ".zshrc"),
		[]byte("old\n"), 0o644))

	out, err := runCommand(t, "check", "--root", deploy)
	require.Error(t, err)
	assert.Contains(t, out, "collision\t"+filepath.Join(live, ".zshrc"))
}
