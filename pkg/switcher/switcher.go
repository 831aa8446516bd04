// Package switcher orchestrates the transition from one generation to
// the next. The six passes run strictly in order: collision pre-check,
// hook diffing, cleanup of orphaned entries, marker switch, linking,
// hook execution. Planning is pure; every mutation goes through the
// operation executor so dry-run falls out for free.
//
// The ordering is the safety mechanism: cleanup precedes linking so at
// any interruption point the live tree is a subset of the union of the
// outgoing and incoming generations.
package switcher

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/genlink/pkg/collision"
	"github.com/arthur-debert/genlink/pkg/errors"
	"github.com/arthur-debert/genlink/pkg/logging"
	"github.com/arthur-debert/genlink/pkg/report"
	"github.com/arthur-debert/genlink/pkg/types"
	"github.com/rs/zerolog"
)

// Executor performs planned operations. Filesystem batches fail as a
// unit; hooks individually report their outcome.
type Executor interface {
	ExecuteFS(ops []types.Operation) error
	ExecuteHooks(ops []types.Operation) []report.HookResult
}

// Config wires a Switcher's collaborators.
type Config struct {
	FS           types.FS
	Checker      *collision.Checker
	Executor     Executor
	Pointer      types.GenerationPointer
	Managed      types.ManagedPredicate
	LiveRoot     string
	BackupSuffix string
	DryRun       bool
	ForceAll     bool
}

// Switcher transitions the live tree between generations.
type Switcher struct {
	fs           types.FS
	checker      *collision.Checker
	executor     Executor
	pointer      types.GenerationPointer
	managed      types.ManagedPredicate
	liveRoot     string
	backupSuffix string
	dryRun       bool
	forceAll     bool
	logger       zerolog.Logger
}

// New creates a Switcher from its collaborators.
func New(cfg Config) *Switcher {
	return &Switcher{
		fs:           cfg.FS,
		checker:      cfg.Checker,
		executor:     cfg.Executor,
		pointer:      cfg.Pointer,
		managed:      cfg.Managed,
		liveRoot:     cfg.LiveRoot,
		backupSuffix: cfg.BackupSuffix,
		dryRun:       cfg.DryRun,
		forceAll:     cfg.ForceAll,
		logger:       logging.GetLogger("switcher"),
	}
}

// Switch transitions the live tree from outgoing (nil for a first
// deployment) to incoming. Structural failures abort before any
// mutation; once mutation begins, per-target failures are aggregated
// and reported at the end. Hook failures never roll back the switch.
func (s *Switcher) Switch(incoming, outgoing *types.Generation) (*report.Report, error) {
	rep := &report.Report{Generation: incoming.Number, DryRun: s.dryRun}
	done := logging.LogOperationStart(s.logger, "generation-switch")
	defer done()

	// 1. pre-check: nothing is touched past a collision
	if _, err := s.checker.Check(incoming, s.liveRoot, s.forcedTargets(incoming)); err != nil {
		return rep, err
	}

	// 2. diff for hooks, against the immutable outgoing image
	hookOps := s.planHooks(incoming, outgoing)

	// 3. cleanup pass: orphaned entries leave before anything new
	// arrives, so the live tree stays within outgoing ∪ incoming
	var targetErrs []string
	cleanup := s.planCleanup(incoming, outgoing)
	for _, batch := range cleanup.batches {
		if err := s.executor.ExecuteFS(batch.ops); err != nil {
			s.logger.Error().Err(err).Str("target", batch.target).Msg("Cleanup failed for target")
			targetErrs = append(targetErrs, batch.target)
			continue
		}
		rep.Removed = append(rep.Removed, batch.target)
	}
	s.pruneEmptyDirs(cleanup.pruneDirs)
	rep.Skipped = append(rep.Skipped, cleanup.foreign...)

	// 4. marker switch, atomic for concurrent readers
	if outgoing == nil || outgoing.Number != incoming.Number {
		if s.dryRun {
			s.logger.Info().Int("generation", incoming.Number).Msg("Would repoint current generation")
		} else if err := s.pointer.Set(incoming.Number, incoming.ImageRoot); err != nil {
			return rep, err
		}
	}

	// 5. link pass: pre-checks proved safety, replacement is
	// unconditional and therefore idempotent
	links, err := s.planLinks(incoming)
	if err != nil {
		return rep, err
	}
	for _, batch := range links.batches {
		if err := s.executeFSPhased(batch.ops); err != nil {
			s.logger.Error().Err(err).Str("target", batch.target).Msg("Link failed for target")
			targetErrs = append(targetErrs, batch.target)
			continue
		}
		rep.Created = append(rep.Created, batch.target)
		if batch.backup != "" {
			rep.BackedUp = append(rep.BackedUp, batch.backup)
		}
	}
	rep.Skipped = append(rep.Skipped, links.unchanged...)

	if len(targetErrs) > 0 {
		return rep, errors.Newf(errors.ErrOpExecute,
			"transition failed for targets: %s", strings.Join(targetErrs, ", ")).
			WithDetail("targets", targetErrs)
	}

	// 6. hooks observe final state
	rep.Hooks = s.executor.ExecuteHooks(hookOps)
	if failed := rep.HookFailures(); len(failed) > 0 {
		names := make([]string, len(failed))
		for i, h := range failed {
			names[i] = h.Target
		}
		return rep, errors.Newf(errors.ErrHookFailed,
			"on-change hooks failed: %s", strings.Join(names, ", ")).
			WithDetail("targets", names)
	}

	return rep, nil
}

// executeFSPhased runs backup copies in their own batch before the
// rest. The executor clears replacement targets up front within a
// batch, which would destroy the backup source if they shared one.
func (s *Switcher) executeFSPhased(ops []types.Operation) error {
	var backups, rest []types.Operation
	for _, op := range ops {
		if op.Type == types.OperationBackupFile {
			backups = append(backups, op)
		} else {
			rest = append(rest, op)
		}
	}
	if len(backups) > 0 {
		if err := s.executor.ExecuteFS(backups); err != nil {
			return err
		}
	}
	return s.executor.ExecuteFS(rest)
}

// forcedTargets collects entry-level force flags, or everything when
// the whole transition is forced.
func (s *Switcher) forcedTargets(incoming *types.Generation) map[string]bool {
	forced := make(map[string]bool)
	for i := range incoming.Entries {
		if s.forceAll || incoming.Entries[i].Entry.Force {
			forced[incoming.Entries[i].Entry.Target] = true
		}
	}
	return forced
}

// planHooks marks entries whose resolved content differs from the same
// target in the outgoing generation, or which are new.
func (s *Switcher) planHooks(incoming, outgoing *types.Generation) []types.Operation {
	var ops []types.Operation
	for i := range incoming.Entries {
		entry := &incoming.Entries[i]
		if entry.Entry.OnChange == "" {
			continue
		}
		if !s.contentChanged(entry, outgoing) {
			s.logger.Debug().Str("target", entry.Entry.Target).Msg("Content unchanged, hook not scheduled")
			continue
		}
		ops = append(ops, types.Operation{
			Type:        types.OperationExecute,
			Command:     entry.Entry.OnChange,
			EntryTarget: entry.Entry.Target,
			Description: "on-change hook for " + entry.Entry.Target,
			Status:      types.StatusReady,
		})
	}
	return ops
}

func (s *Switcher) contentChanged(entry *types.PlacedEntry, outgoing *types.Generation) bool {
	if outgoing == nil {
		return true
	}
	outPath := filepath.Join(outgoing.ImageRoot, entry.Entry.Target)
	if _, err := s.fs.Lstat(outPath); err != nil {
		return true
	}

	newContent, newErr := s.fs.ReadFile(entry.ImagePath)
	oldContent, oldErr := s.fs.ReadFile(outPath)
	if newErr != nil && oldErr != nil {
		// directory targets have no comparable byte content
		return false
	}
	if newErr != nil || oldErr != nil {
		return true
	}
	return !bytes.Equal(newContent, oldContent)
}

// targetBatch is the operations serving one declared target; batches
// fail independently and are aggregated.
type targetBatch struct {
	target string
	backup string
	ops    []types.Operation
}

type cleanupPlan struct {
	batches   []targetBatch
	foreign   []string
	pruneDirs []string
}

// planCleanup finds leaves of the outgoing image absent from the
// incoming one and plans removal of their live links, provided the
// live path still looks engine-owned.
func (s *Switcher) planCleanup(incoming, outgoing *types.Generation) cleanupPlan {
	plan := cleanupPlan{}
	if outgoing == nil {
		return plan
	}

	seen := make(map[string]bool)
	err := s.walkLeaves(outgoing.ImageRoot, "", func(rel, imagePath string) error {
		if _, err := s.fs.Lstat(filepath.Join(incoming.ImageRoot, rel)); err == nil {
			return nil // survives into the incoming generation
		}

		livePath := filepath.Join(s.liveRoot, rel)
		info, err := s.fs.Lstat(livePath)
		if err != nil {
			return nil // already gone
		}

		if info.Mode()&os.ModeSymlink == 0 {
			s.logger.Warn().Str("path", livePath).
				Msg("Orphaned target is no longer a symlink, leaving it alone")
			plan.foreign = append(plan.foreign, rel)
			return nil
		}
		dest, err := s.fs.Readlink(livePath)
		if err != nil || !s.managed(absLinkDest(dest)) {
			s.logger.Warn().Str("path", livePath).Str("dest", dest).
				Msg("Orphaned target reclaimed by another owner, leaving it alone")
			plan.foreign = append(plan.foreign, rel)
			return nil
		}

		plan.batches = append(plan.batches, targetBatch{
			target: rel,
			ops: []types.Operation{{
				Type:        types.OperationDeleteFile,
				Target:      livePath,
				Description: "remove orphaned link " + rel,
				Status:      types.StatusReady,
			}},
		})
		if dir := filepath.Dir(livePath); dir != s.liveRoot {
			if !seen[dir] {
				seen[dir] = true
				plan.pruneDirs = append(plan.pruneDirs, dir)
			}
		}
		return nil
	})
	if err != nil {
		// a vanished outgoing image means there is nothing to clean up
		s.logger.Warn().Err(err).Str("imageRoot", outgoing.ImageRoot).
			Msg("Could not walk outgoing image, skipping cleanup")
	}
	return plan
}

type linkPlan struct {
	batches   []targetBatch
	unchanged []string
}

// planLinks produces one batch per incoming leaf: parent directories,
// an optional backup move, and the forced symlink replacement.
func (s *Switcher) planLinks(incoming *types.Generation) (linkPlan, error) {
	plan := linkPlan{}

	err := s.walkLeaves(incoming.ImageRoot, "", func(rel, imagePath string) error {
		livePath := filepath.Join(s.liveRoot, rel)
		batch := targetBatch{target: rel}

		info, err := s.fs.Lstat(livePath)
		switch {
		case err != nil:
			// new target

		case info.Mode()&os.ModeSymlink != 0:
			if dest, err := s.fs.Readlink(livePath); err == nil && absLinkDest(dest) == imagePath {
				plan.unchanged = append(plan.unchanged, rel)
				return nil
			}

		case info.IsDir():
			// collision checking flagged this unless forced; a live
			// directory cannot be force-replaced by a leaf
			s.logger.Warn().Str("path", livePath).
				Msg("Live directory blocks leaf target, skipping")
			plan.unchanged = append(plan.unchanged, rel)
			return nil

		default:
			differs, err := s.liveDiffers(imagePath, livePath)
			if err != nil {
				return err
			}
			if differs && s.backupSuffix != "" {
				backupPath := livePath + "." + s.backupSuffix
				batch.backup = backupPath
				batch.ops = append(batch.ops, types.Operation{
					Type:        types.OperationBackupFile,
					Source:      livePath,
					Target:      backupPath,
					Description: "back up " + rel,
					Status:      types.StatusReady,
				})
			}
		}

		for _, dir := range parentChain(s.liveRoot, livePath) {
			batch.ops = append(batch.ops, types.Operation{
				Type:        types.OperationCreateDir,
				Target:      dir,
				Description: "create directory " + dir,
				Status:      types.StatusReady,
			})
		}
		batch.ops = append(batch.ops, types.Operation{
			Type:        types.OperationCreateSymlink,
			Source:      imagePath,
			Target:      livePath,
			EntryTarget: rel,
			Description: "link " + rel,
			Status:      types.StatusReady,
		})

		plan.batches = append(plan.batches, batch)
		return nil
	})
	return plan, err
}

func (s *Switcher) liveDiffers(imagePath, livePath string) (bool, error) {
	proposed, err := s.fs.ReadFile(imagePath)
	if err != nil {
		return true, nil
	}
	live, err := s.fs.ReadFile(livePath)
	if err != nil {
		return true, nil
	}
	return !bytes.Equal(proposed, live), nil
}

// pruneEmptyDirs removes directories emptied by the cleanup pass,
// walking upward but never past the deployment root.
func (s *Switcher) pruneEmptyDirs(dirs []string) {
	for _, dir := range dirs {
		for dir != s.liveRoot && strings.HasPrefix(dir, s.liveRoot+string(filepath.Separator)) {
			children, err := s.fs.ReadDir(dir)
			if err != nil || len(children) > 0 {
				break
			}
			if s.dryRun {
				s.logger.Info().Str("dir", dir).Msg("Would prune empty directory")
				break
			}
			if err := s.fs.Remove(dir); err != nil {
				break
			}
			s.logger.Debug().Str("dir", dir).Msg("Pruned empty directory")
			dir = filepath.Dir(dir)
		}
	}
}

// walkLeaves visits every non-directory entry under root.
func (s *Switcher) walkLeaves(root, rel string, visit func(rel, imagePath string) error) error {
	dir := filepath.Join(root, rel)
	dirEntries, err := s.fs.ReadDir(dir)
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
			if err := s.walkLeaves(root, childRel, visit); err != nil {
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

// parentChain lists the directories between root (exclusive) and
// path's parent (inclusive), shallowest first.
func parentChain(root, path string) []string {
	var chain []string
	for dir := filepath.Dir(path); dir != root && strings.HasPrefix(dir, root+string(filepath.Separator)); dir = filepath.Dir(dir) {
		chain = append([]string{dir}, chain...)
	}
	return chain
}

// absLinkDest normalizes a link destination that synthfs recorded
// relative to the filesystem root.
func absLinkDest(dest string) string {
	if !filepath.IsAbs(dest) {
		return "/" + dest
	}
	return dest
}
