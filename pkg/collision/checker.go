// Package collision is the pre-flight gate before a generation switch:
// it scans the new image against the live tree and refuses the whole
// transition if any unmanaged live file would be overwritten.
package collision

import (
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/arthur-debert/genlink/pkg/errors"
	"github.com/arthur-debert/genlink/pkg/logging"
	"github.com/arthur-debert/genlink/pkg/types"
	"github.com/rs/zerolog"
)

// Result summarizes a collision scan. Only Collisions and
// BackupClobbers make the transition fail; the rest are notes.
type Result struct {
	// Collisions are live paths that would be overwritten and cannot
	// be backed up.
	Collisions []string

	// BackupClobbers are backup paths that are themselves occupied.
	BackupClobbers []string

	// WouldBackup are live files that will be moved aside during the
	// link pass.
	WouldBackup []string

	// Unchanged are live paths whose content already matches.
	Unchanged []string
}

// Checker compares generation images against the live tree.
type Checker struct {
	fs           types.FS
	managed      types.ManagedPredicate
	backupSuffix string
	logger       zerolog.Logger
}

// New creates a Checker. An empty backupSuffix means no backups: every
// unmanaged difference becomes a collision. The managed predicate
// decides whether an existing symlink belongs to a prior generation.
func New(fsys types.FS, managed types.ManagedPredicate, backupSuffix string) *Checker {
	return &Checker{
		fs:           fsys,
		managed:      managed,
		backupSuffix: backupSuffix,
		logger:       logging.GetLogger("collision"),
	}
}

// Check scans every leaf of the image against liveRoot. Targets in
// forced (or under a forced directory target) are exempt. Returns a
// COLLISION or BACKUP_EXISTS error enumerating every affected path;
// on error nothing may be mutated by later passes.
func (c *Checker) Check(gen *types.Generation, liveRoot string, forced map[string]bool) (*Result, error) {
	result := &Result{}

	err := c.walkLeaves(gen.ImageRoot, "", func(rel, imagePath string) error {
		if isForced(rel, forced) {
			c.logger.Debug().Str("target", rel).Msg("Forced target exempt from collision check")
			return nil
		}
		return c.checkLeaf(result, rel, imagePath, filepath.Join(liveRoot, rel))
	})
	if err != nil {
		return result, err
	}

	sort.Strings(result.Collisions)
	sort.Strings(result.BackupClobbers)

	if len(result.BackupClobbers) > 0 {
		return result, errors.Newf(errors.ErrBackupExists,
			"backup paths already exist: %s", strings.Join(result.BackupClobbers, ", ")).
			WithDetail("paths", result.BackupClobbers)
	}
	if len(result.Collisions) > 0 {
		return result, errors.Newf(errors.ErrCollision,
			"existing files would be overwritten: %s", strings.Join(result.Collisions, ", ")).
			WithDetail("paths", result.Collisions)
	}
	return result, nil
}

func (c *Checker) checkLeaf(result *Result, rel, imagePath, livePath string) error {
	liveInfo, err := c.fs.Lstat(livePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrapf(err, errors.ErrFileAccess,
			"failed to inspect live path %s", livePath)
	}

	isLink := liveInfo.Mode()&os.ModeSymlink != 0
	if isLink {
		dest, err := c.fs.Readlink(livePath)
		if err == nil {
			// link destinations may be recorded relative to the
			// filesystem root
			if !filepath.IsAbs(dest) {
				dest = "/" + dest
			}
			if c.managed(dest) {
				// owned by a previous generation, the link pass
				// replaces it
				return nil
			}
		}
	}

	if liveInfo.IsDir() {
		// a live directory where the image wants a leaf cannot be
		// reconciled or backed up
		result.Collisions = append(result.Collisions, livePath)
		return nil
	}

	same, err := c.sameContent(imagePath, livePath)
	if err != nil {
		return err
	}
	if same {
		c.logger.Warn().Str("path", livePath).
			Msg("Existing file already matches desired content, leaving in place")
		result.Unchanged = append(result.Unchanged, livePath)
		return nil
	}

	if !isLink && c.backupSuffix != "" {
		backupPath := livePath + "." + c.backupSuffix
		if _, err := c.fs.Lstat(backupPath); err == nil {
			result.BackupClobbers = append(result.BackupClobbers, backupPath)
			return nil
		}
		c.logger.Warn().Str("path", livePath).Str("backup", backupPath).
			Msg("Existing file differs, will be backed up")
		result.WouldBackup = append(result.WouldBackup, livePath)
		return nil
	}

	result.Collisions = append(result.Collisions, livePath)
	return nil
}

// sameContent compares the proposed content (following the image's
// symlink into its source) with the live file's bytes.
func (c *Checker) sameContent(imagePath, livePath string) (bool, error) {
	proposed, err := c.fs.ReadFile(imagePath)
	if err != nil {
		// directory-link leaves have no byte content to compare
		return false, nil
	}
	live, err := c.fs.ReadFile(livePath)
	if err != nil {
		// unreadable live content can never be verified identical
		return false, nil
	}
	return bytes.Equal(proposed, live), nil
}

// walkLeaves visits every non-directory entry under root, passing the
// path relative to root and the absolute image path.
func (c *Checker) walkLeaves(root, rel string, visit func(rel, imagePath string) error) error {
	dir := filepath.Join(root, rel)
	dirEntries, err := c.fs.ReadDir(dir)
	if err != nil {
		return errors.Wrapf(err, errors.ErrFileAccess,
			"failed to read image directory %s", dir)
	}

	for _, de := range dirEntries {
		childRel := de.Name()
		if rel != "" {
			childRel = rel + "/" + de.Name()
		}
		if de.IsDir() {
			if err := c.walkLeaves(root, childRel, visit); err != nil {
				return err
			}
			continue
		}
		if err := visit(childRel, filepath.Join(root, childRel)); err != nil {
			return err
		}
	}
	return nil
}

// isForced reports whether rel or one of its ancestors is a forced
// target.
func isForced(rel string, forced map[string]bool) bool {
	if len(forced) == 0 {
		return false
	}
	for p := rel; p != ""; {
		if forced[p] {
			return true
		}
		i := strings.LastIndex(p, "/")
		if i < 0 {
			break
		}
		p = p[:i]
	}
	return false
}
