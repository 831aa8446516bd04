package filesystem

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAferoBasicOperations(t *testing.T) {
	fsys := NewAfero(afero.NewMemMapFs())

	require.NoError(t, fsys.MkdirAll("/data/sub", 0o755))
	require.NoError(t, fsys.WriteFile("/data/sub/a.txt", []byte("hello"), 0o644))

	content, err := fsys.ReadFile("/data/sub/a.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(content))

	entries, err := fsys.ReadDir("/data/sub")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a.txt", entries[0].Name())

	require.NoError(t, fsys.Rename("/data/sub/a.txt", "/data/sub/b.txt"))
	_, err = fsys.Stat("/data/sub/a.txt")
	require.Error(t, err)

	require.NoError(t, fsys.Remove("/data/sub/b.txt"))
	require.NoError(t, fsys.RemoveAll("/data"))
}

func TestAferoReadFileRejectsDirectory(t *testing.T) {
	fsys := NewAfero(afero.NewMemMapFs())
	require.NoError(t, fsys.MkdirAll("/dir", 0o755))

	_, err := fsys.ReadFile("/dir")
	require.Error(t, err)
}

func TestAferoSymlinkFallback(t *testing.T) {
	// MemMapFs has no symlink support; destinations round-trip through
	// the fallback encoding
	fsys := NewAfero(afero.NewMemMapFs())
	require.NoError(t, fsys.MkdirAll("/live", 0o755))

	require.NoError(t, fsys.Symlink("/data/images/000001/x", "/live/x"))
	dest, err := fsys.Readlink("/live/x")
	require.NoError(t, err)
	assert.Equal(t, "/data/images/000001/x", dest)
}
