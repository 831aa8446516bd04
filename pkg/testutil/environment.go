// Package testutil provides isolated test environments: a deployment
// root, a live tree and a datastore under a temp directory, with the
// genlink environment variables pointed at them for the test's
// lifetime.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/arthur-debert/genlink/pkg/filesystem"
	"github.com/arthur-debert/genlink/pkg/paths"
	"github.com/arthur-debert/genlink/pkg/store"
	"github.com/arthur-debert/genlink/pkg/types"
	"github.com/stretchr/testify/require"
)

// TestEnvironment is a fully isolated deployment for one test.
type TestEnvironment struct {
	DeployRoot string
	LiveRoot   string
	DataDir    string
	StateDir   string

	FS    types.FS
	Paths *paths.Paths
	Store *store.Store

	t *testing.T
}

// NewEnvironment builds an isolated environment under t.TempDir and
// points GENLINK_DATA_DIR/GENLINK_STATE_DIR at it.
func NewEnvironment(t *testing.T) *TestEnvironment {
	t.Helper()

	root := t.TempDir()
	env := &TestEnvironment{
		DeployRoot: filepath.Join(root, "deploy"),
		LiveRoot:   filepath.Join(root, "live"),
		DataDir:    filepath.Join(root, "data"),
		StateDir:   filepath.Join(root, "state"),
		FS:         filesystem.NewOS(),
		t:          t,
	}
	for _, dir := range []string{env.DeployRoot, env.LiveRoot, env.DataDir, env.StateDir} {
		require.NoError(t, os.MkdirAll(dir, 0o755))
	}

	t.Setenv(paths.EnvDataDir, env.DataDir)
	t.Setenv(paths.EnvStateDir, env.StateDir)

	env.Paths = paths.New()
	env.Store = store.New(env.FS, env.Paths)
	return env
}

// WriteSource creates a source file under the deployment root and
// returns its manifest-relative path.
func (e *TestEnvironment) WriteSource(rel, content string) string {
	e.t.Helper()
	path := filepath.Join(e.DeployRoot, rel)
	require.NoError(e.t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(e.t, os.WriteFile(path, []byte(content), 0o644))
	return rel
}

// WriteManifest writes a manifest file at the deployment root and
// returns its absolute path.
func (e *TestEnvironment) WriteManifest(name, content string) string {
	e.t.Helper()
	path := filepath.Join(e.DeployRoot, name)
	require.NoError(e.t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// WriteConfig writes a genlink.toml at the deployment root, pinning
// the live tree to this environment's LiveRoot.
func (e *TestEnvironment) WriteConfig(extra string) {
	e.t.Helper()
	content := "[deploy]\ntarget_root = \"" + e.LiveRoot + "\"\n" + extra
	require.NoError(e.t, os.WriteFile(
		filepath.Join(e.DeployRoot, "genlink.toml"), []byte(content), 0o644))
}

// LivePath resolves a target path inside the live tree.
func (e *TestEnvironment) LivePath(rel string) string {
	return filepath.Join(e.LiveRoot, rel)
}

// Entry builds a minimal source-backed entry for engine-level tests.
func Entry(target, source string) types.FileEntry {
	return types.FileEntry{Target: target, Source: source}
}

// InlineEntry builds a minimal inline-text entry.
func InlineEntry(target, text string) types.FileEntry {
	return types.FileEntry{Target: target, Text: text, HasText: true}
}
