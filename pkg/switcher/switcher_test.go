package switcher_test

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/arthur-debert/genlink/pkg/collision"
	"github.com/arthur-debert/genlink/pkg/errors"
	"github.com/arthur-debert/genlink/pkg/filesystem"
	"github.com/arthur-debert/genlink/pkg/switcher"
	"github.com/arthur-debert/genlink/pkg/synthfs"
	"github.com/arthur-debert/genlink/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePointer struct {
	number    int
	imageRoot string
	sets      int
}

func (p *fakePointer) Current() (int, string, error) { return p.number, p.imageRoot, nil }

func (p *fakePointer) Set(number int, imageRoot string) error {
	p.number = number
	p.imageRoot = imageRoot
	p.sets++
	return nil
}

type env struct {
	liveRoot string
	dataDir  string
	pointer  *fakePointer
}

func newEnv(t *testing.T) *env {
	t.Helper()
	root := t.TempDir()
	e := &env{
		liveRoot: filepath.Join(root, "live"),
		dataDir:  filepath.Join(root, "data"),
		pointer:  &fakePointer{},
	}
	require.NoError(t, os.MkdirAll(e.liveRoot, 0o755))
	require.NoError(t, os.MkdirAll(e.dataDir, 0o755))
	return e
}

func (e *env) managed(dest string) bool {
	return strings.HasPrefix(dest, e.dataDir+string(filepath.Separator))
}

func (e *env) switcher(t *testing.T, backupSuffix string, dryRun bool) *switcher.Switcher {
	t.Helper()
	fs := filesystem.NewOS()
	return switcher.New(switcher.Config{
		FS:           fs,
		Checker:      collision.New(fs, e.managed, backupSuffix),
		Executor:     synthfs.NewCombinedExecutor(dryRun, e.liveRoot, e.dataDir),
		Pointer:      e.pointer,
		Managed:      e.managed,
		LiveRoot:     e.liveRoot,
		BackupSuffix: backupSuffix,
		DryRun:       dryRun,
	})
}

// generation builds an image under the datastore and the matching
// placed entries, hooks keyed by target.
func (e *env) generation(t *testing.T, number int, files map[string]string, hooks map[string]string) *types.Generation {
	t.Helper()
	imageRoot := filepath.Join(e.dataDir, "generations", genDirName(number))
	gen := &types.Generation{Number: number, ImageRoot: imageRoot}

	targets := make([]string, 0, len(files))
	for rel := range files {
		targets = append(targets, rel)
	}
	sort.Strings(targets)

	for _, rel := range targets {
		imagePath := filepath.Join(imageRoot, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(imagePath), 0o755))
		require.NoError(t, os.WriteFile(imagePath, []byte(files[rel]), 0o644))
		gen.Entries = append(gen.Entries, types.PlacedEntry{
			Entry:     types.FileEntry{Target: rel, OnChange: hooks[rel]},
			ImagePath: imagePath,
		})
	}
	return gen
}

func genDirName(n int) string {
	return fmt.Sprintf("%06d", n)
}

func (e *env) assertLinked(t *testing.T, rel, imagePath string) {
	t.Helper()
	livePath := filepath.Join(e.liveRoot, rel)
	info, err := os.Lstat(livePath)
	require.NoError(t, err, "expected live link at %s", rel)
	require.NotZero(t, info.Mode()&os.ModeSymlink, "expected %s to be a symlink", rel)
	dest, err := os.Readlink(livePath)
	require.NoError(t, err)
	if !filepath.IsAbs(dest) {
		dest = "/" + dest
	}
	assert.Equal(t, imagePath, dest)
}

func TestSwitchFirstDeployment(t *testing.T) {
	e := newEnv(t)
	gen := e.generation(t, 1, map[string]string{
		"config/app.toml": "verbose = true\n",
		"notes.txt":       "hello\n",
	}, nil)

	rep, err := e.switcher(t, "bak", false).Switch(gen, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, rep.Generation)
	assert.ElementsMatch(t, []string{"config/app.toml", "notes.txt"}, rep.Created)
	assert.Empty(t, rep.Removed)
	assert.Empty(t, rep.BackedUp)
	assert.True(t, rep.Success())

	e.assertLinked(t, "config/app.toml", filepath.Join(gen.ImageRoot, "config/app.toml"))
	e.assertLinked(t, "notes.txt", filepath.Join(gen.ImageRoot, "notes.txt"))

	assert.Equal(t, 1, e.pointer.sets)
	assert.Equal(t, 1, e.pointer.number)
	assert.Equal(t, gen.ImageRoot, e.pointer.imageRoot)
}

func TestSwitchIsIdempotent(t *testing.T) {
	e := newEnv(t)
	gen := e.generation(t, 1, map[string]string{"notes.txt": "hello\n"}, nil)
	s := e.switcher(t, "bak", false)

	_, err := s.Switch(gen, nil)
	require.NoError(t, err)

	rep, err := s.Switch(gen, gen)
	require.NoError(t, err)

	assert.Empty(t, rep.Created, "redeploy of the same generation must not relink")
	assert.Empty(t, rep.Removed)
	assert.Equal(t, []string{"notes.txt"}, rep.Skipped)
	assert.Equal(t, 1, e.pointer.sets, "marker must not be repointed for a no-op switch")

	e.assertLinked(t, "notes.txt", filepath.Join(gen.ImageRoot, "notes.txt"))
}

func TestSwitchRemovesOrphanedEntries(t *testing.T) {
	e := newEnv(t)
	gen1 := e.generation(t, 1, map[string]string{
		"a.txt":     "a\n",
		"sub/b.txt": "b\n",
	}, nil)
	gen2 := e.generation(t, 2, map[string]string{"a.txt": "a\n"}, nil)
	s := e.switcher(t, "bak", false)

	_, err := s.Switch(gen1, nil)
	require.NoError(t, err)

	rep, err := s.Switch(gen2, gen1)
	require.NoError(t, err)

	assert.Equal(t, []string{"sub/b.txt"}, rep.Removed)
	_, err = os.Lstat(filepath.Join(e.liveRoot, "sub/b.txt"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Lstat(filepath.Join(e.liveRoot, "sub"))
	assert.True(t, os.IsNotExist(err), "emptied directory should be pruned")

	e.assertLinked(t, "a.txt", filepath.Join(gen2.ImageRoot, "a.txt"))
	assert.Equal(t, 2, e.pointer.number)
}

func TestSwitchLeavesReclaimedOrphansAlone(t *testing.T) {
	e := newEnv(t)
	gen1 := e.generation(t, 1, map[string]string{"c.txt": "managed\n"}, nil)
	gen2 := e.generation(t, 2, map[string]string{"keep.txt": "k\n"}, nil)
	s := e.switcher(t, "bak", false)

	_, err := s.Switch(gen1, nil)
	require.NoError(t, err)

	// the user replaces the managed link with their own file
	livePath := filepath.Join(e.liveRoot, "c.txt")
	require.NoError(t, os.Remove(livePath))
	require.NoError(t, os.WriteFile(livePath, []byte("mine now\n"), 0o644))

	rep, err := s.Switch(gen2, gen1)
	require.NoError(t, err)

	assert.Empty(t, rep.Removed)
	assert.Contains(t, rep.Skipped, "c.txt")
	content, err := os.ReadFile(livePath)
	require.NoError(t, err)
	assert.Equal(t, "mine now\n", string(content))
}

func TestSwitchBacksUpDifferingLiveFile(t *testing.T) {
	e := newEnv(t)
	livePath := filepath.Join(e.liveRoot, "profile")
	require.NoError(t, os.WriteFile(livePath, []byte("old content\n"), 0o644))

	gen := e.generation(t, 1, map[string]string{"profile": "new content\n"}, nil)

	rep, err := e.switcher(t, "bak", false).Switch(gen, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"profile"}, rep.Created)
	assert.Equal(t, []string{livePath + ".bak"}, rep.BackedUp)

	saved, err := os.ReadFile(livePath + ".bak")
	require.NoError(t, err)
	assert.Equal(t, "old content\n", string(saved))
	e.assertLinked(t, "profile", filepath.Join(gen.ImageRoot, "profile"))
}

func TestSwitchAbortsOnCollisionBeforeMutating(t *testing.T) {
	e := newEnv(t)
	livePath := filepath.Join(e.liveRoot, "profile")
	require.NoError(t, os.WriteFile(livePath, []byte("old content\n"), 0o644))

	gen := e.generation(t, 1, map[string]string{
		"profile":   "new content\n",
		"other.txt": "o\n",
	}, nil)

	// no backup suffix, so the differing file is a hard collision
	_, err := e.switcher(t, "", false).Switch(gen, nil)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCollision, errors.GetErrorCode(err))

	_, statErr := os.Lstat(filepath.Join(e.liveRoot, "other.txt"))
	assert.True(t, os.IsNotExist(statErr), "collision must abort before any link is made")
	assert.Equal(t, 0, e.pointer.sets)
}

func TestSwitchRunsHooksOnChange(t *testing.T) {
	e := newEnv(t)
	marker := filepath.Join(t.TempDir(), "hook-ran")
	hooks := map[string]string{"daemon.conf": "touch " + marker}

	gen1 := e.generation(t, 1, map[string]string{"daemon.conf": "port = 1\n"}, hooks)
	s := e.switcher(t, "bak", false)

	rep, err := s.Switch(gen1, nil)
	require.NoError(t, err)
	require.Len(t, rep.Hooks, 1)
	assert.Equal(t, "daemon.conf", rep.Hooks[0].Target)
	assert.False(t, rep.Hooks[0].Failed())
	_, err = os.Stat(marker)
	require.NoError(t, err, "hook should have run on first deployment")

	// redeploy with identical content: hook must not run again
	require.NoError(t, os.Remove(marker))
	gen2 := e.generation(t, 2, map[string]string{"daemon.conf": "port = 1\n"}, hooks)

	rep, err = s.Switch(gen2, gen1)
	require.NoError(t, err)
	assert.Empty(t, rep.Hooks)
	_, err = os.Stat(marker)
	assert.True(t, os.IsNotExist(err))

	// content change brings it back
	gen3 := e.generation(t, 3, map[string]string{"daemon.conf": "port = 2\n"}, hooks)

	rep, err = s.Switch(gen3, gen2)
	require.NoError(t, err)
	require.Len(t, rep.Hooks, 1)
	_, err = os.Stat(marker)
	require.NoError(t, err)
}

func TestSwitchReportsHookFailure(t *testing.T) {
	e := newEnv(t)
	gen := e.generation(t, 1, map[string]string{"svc.conf": "x\n"},
		map[string]string{"svc.conf": "exit 3"})

	rep, err := e.switcher(t, "bak", false).Switch(gen, nil)
	require.Error(t, err)
	assert.Equal(t, errors.ErrHookFailed, errors.GetErrorCode(err))

	// the switch itself still happened
	e.assertLinked(t, "svc.conf", filepath.Join(gen.ImageRoot, "svc.conf"))
	require.Len(t, rep.Hooks, 1)
	assert.True(t, rep.Hooks[0].Failed())
	assert.Equal(t, 3, rep.Hooks[0].ExitCode)
}

func TestSwitchDryRunMutatesNothing(t *testing.T) {
	e := newEnv(t)
	gen := e.generation(t, 1, map[string]string{"notes.txt": "hello\n"}, nil)

	rep, err := e.switcher(t, "bak", true).Switch(gen, nil)
	require.NoError(t, err)

	assert.True(t, rep.DryRun)
	assert.Equal(t, []string{"notes.txt"}, rep.Created, "dry-run still reports the plan")

	_, statErr := os.Lstat(filepath.Join(e.liveRoot, "notes.txt"))
	assert.True(t, os.IsNotExist(statErr))
	assert.Equal(t, 0, e.pointer.sets)
}
