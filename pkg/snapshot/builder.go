// Package snapshot builds generation images: a self-contained directory
// tree with one realized entry per declared file, symlinking into
// immutable sources wherever the execute-bit policy allows.
package snapshot

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/arthur-debert/genlink/pkg/errors"
	"github.com/arthur-debert/genlink/pkg/logging"
	"github.com/arthur-debert/genlink/pkg/paths"
	"github.com/arthur-debert/genlink/pkg/store"
	"github.com/arthur-debert/genlink/pkg/types"
	"github.com/rs/zerolog"
)

// TargetConflict records an entry that could not be placed because
// something else in the image already occupies its path. These should
// have been rejected upstream; the builder warns and skips rather than
// aborting the whole image.
type TargetConflict struct {
	Target string
	Path   string
	Reason string
}

// Builder constructs generation images.
type Builder struct {
	fs       types.FS
	resolver types.SourceResolver
	store    *store.Store
	logger   zerolog.Logger
}

// New creates a Builder. The resolver maps declared source references
// to stable paths; the store materializes inline text.
func New(fsys types.FS, resolver types.SourceResolver, st *store.Store) *Builder {
	return &Builder{
		fs:       fsys,
		resolver: resolver,
		store:    st,
		logger:   logging.GetLogger("snapshot"),
	}
}

// Build places orderedEntries into imageRoot and returns the resulting
// generation. Entries must already be ordered (descendants first) and
// deduplicated; surviving intra-image conflicts are returned, not
// fatal. Placement outside the image root is fatal.
func (b *Builder) Build(number, previous int, orderedEntries []types.FileEntry, imageRoot string) (*types.Generation, []TargetConflict, error) {
	gen := &types.Generation{
		Number:    number,
		Previous:  previous,
		ImageRoot: imageRoot,
	}
	var conflicts []TargetConflict

	for i := range orderedEntries {
		entry := orderedEntries[i]

		source, err := b.resolveSource(number, &entry)
		if err != nil {
			return nil, conflicts, err
		}

		imagePath := filepath.Join(imageRoot, entry.Target)
		if !paths.IsWithin(imagePath, imageRoot) {
			return nil, conflicts, errors.Newf(errors.ErrOutsideRoot,
				"entry %s resolves outside the image root", entry.Target)
		}

		placed, conflict, err := b.place(&entry, source, imagePath)
		if err != nil {
			return nil, conflicts, err
		}
		if conflict != nil {
			b.logger.Warn().Str("target", entry.Target).Str("reason", conflict.Reason).
				Msg("Skipping conflicting entry")
			conflicts = append(conflicts, *conflict)
			continue
		}
		if placed {
			gen.Entries = append(gen.Entries, types.PlacedEntry{
				Entry:     entry,
				Source:    source,
				ImagePath: imagePath,
			})
		}
	}

	b.logger.Info().Int("generation", number).Int("entries", len(gen.Entries)).
		Int("conflicts", len(conflicts)).Msg("Generation image built")
	return gen, conflicts, nil
}

// resolveSource produces the concrete filesystem object behind an
// entry: inline text is materialized into the store's static area,
// external references go through the resolver.
func (b *Builder) resolveSource(generation int, entry *types.FileEntry) (string, error) {
	if entry.IsInline() {
		// inline text has no source bit to inherit from
		executable := entry.Executable == types.ExecOn
		return b.store.MaterializeText(generation, entry.Target, entry.Text, executable)
	}
	return b.resolver.Resolve(entry.Source)
}

func (b *Builder) place(entry *types.FileEntry, source, imagePath string) (bool, *TargetConflict, error) {
	srcInfo, err := b.fs.Stat(source)
	if err != nil {
		return false, nil, errors.Wrapf(err, errors.ErrSourceResolve,
			"failed to stat source for %s", entry.Target)
	}

	existing, err := b.fs.Lstat(imagePath)
	if err == nil {
		isDir := existing.IsDir()
		if srcInfo.IsDir() && entry.Recursive && isDir {
			// merging into an already-created directory is fine
		} else {
			reason := "image path already occupied"
			if isDir {
				reason = "image path already occupied by a directory"
			}
			return false, &TargetConflict{Target: entry.Target, Path: imagePath, Reason: reason}, nil
		}
	}

	if err := b.fs.MkdirAll(filepath.Dir(imagePath), 0755); err != nil {
		return false, nil, errors.Wrapf(err, errors.ErrDirCreate,
			"failed to create parent for %s", entry.Target)
	}

	switch {
	case srcInfo.IsDir() && !entry.Recursive:
		if err := b.fs.Symlink(source, imagePath); err != nil {
			return false, nil, errors.Wrapf(err, errors.ErrSymlinkCreate,
				"failed to link directory %s", entry.Target)
		}

	case srcInfo.IsDir() && entry.Recursive:
		if err := b.overlayDir(source, imagePath); err != nil {
			return false, nil, err
		}

	default:
		if err := b.placeFile(entry, source, srcInfo, imagePath); err != nil {
			return false, nil, err
		}
	}

	return true, nil, nil
}

// overlayDir mirrors the directory structure of source under imagePath
// with every leaf as a symlink to the original. Existing directories
// are merged into, never replaced.
func (b *Builder) overlayDir(source, imagePath string) error {
	if err := b.fs.MkdirAll(imagePath, 0755); err != nil {
		return errors.Wrapf(err, errors.ErrDirCreate,
			"failed to create overlay directory %s", imagePath)
	}

	dirEntries, err := b.fs.ReadDir(source)
	if err != nil {
		return errors.Wrapf(err, errors.ErrFileAccess,
			"failed to read source directory %s", source)
	}

	for _, de := range dirEntries {
		srcChild := filepath.Join(source, de.Name())
		dstChild := filepath.Join(imagePath, de.Name())

		if de.IsDir() {
			if err := b.overlayDir(srcChild, dstChild); err != nil {
				return err
			}
			continue
		}

		// leaf: link to the original, replacing a stale leaf link from
		// a partially built image
		if _, err := b.fs.Lstat(dstChild); err == nil {
			if err := b.fs.Remove(dstChild); err != nil {
				return errors.Wrapf(err, errors.ErrFileAccess,
					"failed to clear stale overlay leaf %s", dstChild)
			}
		}
		if err := b.fs.Symlink(srcChild, dstChild); err != nil {
			return errors.Wrapf(err, errors.ErrSymlinkCreate,
				"failed to overlay-link %s", dstChild)
		}
	}
	return nil
}

// placeFile realizes a regular-file entry: a symlink when the source's
// execute bit already satisfies the policy, otherwise a byte copy with
// the bit forced.
func (b *Builder) placeFile(entry *types.FileEntry, source string, srcInfo fs.FileInfo, imagePath string) error {
	sourceExec := srcInfo.Mode()&0111 != 0
	want, forced := entry.Executable.Resolve(sourceExec)

	if !forced {
		if err := b.fs.Symlink(source, imagePath); err != nil {
			return errors.Wrapf(err, errors.ErrSymlinkCreate,
				"failed to link file %s", entry.Target)
		}
		return nil
	}

	data, err := b.fs.ReadFile(source)
	if err != nil {
		return errors.Wrapf(err, errors.ErrFileAccess,
			"failed to read source for %s", entry.Target)
	}

	mode := os.FileMode(0644)
	if want {
		mode = 0755
	}
	if err := b.fs.WriteFile(imagePath, data, mode); err != nil {
		return errors.Wrapf(err, errors.ErrFileCreate,
			"failed to copy %s with adjusted execute bit", entry.Target)
	}
	return nil
}
