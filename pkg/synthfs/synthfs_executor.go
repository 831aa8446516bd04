// Package synthfs executes planned operations: filesystem mutations go
// through a synthfs pipeline, on-change hooks through a serialized
// command executor. In dry-run mode every operation becomes a log line.
package synthfs

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/arthur-debert/genlink/pkg/errors"
	"github.com/arthur-debert/genlink/pkg/logging"
	"github.com/arthur-debert/genlink/pkg/paths"
	"github.com/arthur-debert/genlink/pkg/types"
	"github.com/arthur-debert/synthfs/pkg/synthfs"
	"github.com/arthur-debert/synthfs/pkg/synthfs/core"
	"github.com/arthur-debert/synthfs/pkg/synthfs/filesystem"
	"github.com/arthur-debert/synthfs/pkg/synthfs/operations"
	"github.com/rs/zerolog"
)

// SynthfsExecutor executes filesystem operations using synthfs
type SynthfsExecutor struct {
	logger     zerolog.Logger
	dryRun     bool
	filesystem synthfs.FileSystem
	safeRoots  []string
}

// NewSynthfsExecutor creates a synthfs-based executor restricted to the
// given roots (live tree, image roots, datastore). Operations targeting
// anything else are rejected before execution.
func NewSynthfsExecutor(dryRun bool, safeRoots ...string) *SynthfsExecutor {
	return &SynthfsExecutor{
		logger:     logging.GetLogger("synthfs"),
		dryRun:     dryRun,
		filesystem: filesystem.NewOSFileSystem("/"),
		safeRoots:  safeRoots,
	}
}

// ExecuteOperations executes a list of filesystem operations
func (e *SynthfsExecutor) ExecuteOperations(ops []types.Operation) error {
	if e.dryRun {
		for _, op := range ops {
			if op.Status == types.StatusReady {
				e.logOperation(op)
			}
		}
		return nil
	}

	// synthfs validation fails on pre-existing entries, and the link
	// pass is defined to force-replace, so clear targets up front
	for _, op := range ops {
		if op.Status != types.StatusReady {
			continue
		}
		switch op.Type {
		case types.OperationCreateSymlink, types.OperationWriteFile:
			if _, err := os.Lstat(op.Target); err == nil {
				if err := os.Remove(op.Target); err != nil {
					e.logger.Warn().Err(err).Str("target", op.Target).
						Msg("Failed to clear existing target before replacement")
				}
			}
		}
	}

	synthOps := make([]synthfs.Operation, 0, len(ops))
	for _, op := range ops {
		if op.Status != types.StatusReady {
			e.logger.Debug().
				Str("type", string(op.Type)).
				Str("target", op.Target).
				Str("status", string(op.Status)).
				Msg("Skipping operation with non-ready status")
			continue
		}

		synthOp, err := e.convert(op)
		if err != nil {
			return errors.Wrapf(err, errors.ErrOpExecute,
				"failed to convert operation: %s", op.Description)
		}
		if synthOp != nil {
			synthOps = append(synthOps, synthOp)
		}
	}

	if len(synthOps) == 0 {
		e.logger.Debug().Msg("No operations to execute")
		return nil
	}

	pipeline := synthfs.NewMemPipeline()
	for _, op := range synthOps {
		if err := pipeline.Add(op); err != nil {
			return errors.Wrap(err, errors.ErrOpExecute,
				"failed to add operation to pipeline")
		}
	}

	executor := synthfs.NewExecutor()
	result := executor.Run(context.Background(), pipeline, e.filesystem)
	if result.GetError() != nil {
		return errors.Wrap(result.GetError(), errors.ErrOpExecute,
			"failed to execute operations")
	}

	e.logger.Debug().Int("operationCount", len(synthOps)).Msg("Operations executed")
	return nil
}

func (e *SynthfsExecutor) convert(op types.Operation) (synthfs.Operation, error) {
	switch op.Type {
	case types.OperationCreateDir:
		return e.convertCreateDir(op)
	case types.OperationWriteFile:
		return e.convertWriteFile(op)
	case types.OperationCreateSymlink:
		return e.convertCreateSymlink(op)
	case types.OperationCopyFile, types.OperationBackupFile:
		return e.convertCopy(op)
	case types.OperationDeleteFile:
		return e.convertDelete(op)
	case types.OperationExecute:
		// hooks are handled by the command executor
		return nil, nil
	default:
		return nil, errors.Newf(errors.ErrInvalidInput,
			"unsupported operation type: %s", op.Type)
	}
}

func (e *SynthfsExecutor) convertCreateDir(op types.Operation) (synthfs.Operation, error) {
	if op.Target == "" {
		return nil, errors.New(errors.ErrInvalidInput,
			"create directory operation requires target")
	}
	if err := e.validateSafePath(op.Target); err != nil {
		return nil, err
	}

	// MkdirAll semantics: an existing directory is not an error
	if info, err := os.Lstat(op.Target); err == nil && info.IsDir() {
		return nil, nil
	}

	mode := os.FileMode(0755)
	if op.Mode != nil {
		mode = os.FileMode(*op.Mode)
	}

	relPath, err := filepath.Rel("/", op.Target)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrInvalidInput,
			"failed to convert path: %s", op.Target)
	}

	opID := core.OperationID(fmt.Sprintf("create-dir-%s", op.Target))
	createOp := operations.NewCreateDirectoryOperation(opID, relPath)
	createOp.SetItem(&directoryItem{path: relPath, mode: mode})

	return synthfs.NewOperationsPackageAdapter(createOp), nil
}

func (e *SynthfsExecutor) convertWriteFile(op types.Operation) (synthfs.Operation, error) {
	if op.Target == "" {
		return nil, errors.New(errors.ErrInvalidInput,
			"write file operation requires target")
	}
	if err := e.validateSafePath(op.Target); err != nil {
		return nil, err
	}

	mode := os.FileMode(0644)
	if op.Mode != nil {
		mode = os.FileMode(*op.Mode)
	}

	relPath, err := filepath.Rel("/", op.Target)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrInvalidInput,
			"failed to convert path: %s", op.Target)
	}

	opID := core.OperationID(fmt.Sprintf("write-file-%s", op.Target))
	createOp := operations.NewCreateFileOperation(opID, relPath)
	createOp.SetItem(&fileItem{
		path:    relPath,
		content: []byte(op.Content),
		mode:    mode,
	})

	return synthfs.NewOperationsPackageAdapter(createOp), nil
}

func (e *SynthfsExecutor) convertCreateSymlink(op types.Operation) (synthfs.Operation, error) {
	if op.Source == "" || op.Target == "" {
		return nil, errors.New(errors.ErrInvalidInput,
			"symlink operation requires source and target")
	}
	if err := e.validateSafePath(op.Target); err != nil {
		return nil, err
	}

	relPath, err := filepath.Rel("/", op.Target)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrInvalidInput,
			"failed to convert path: %s", op.Target)
	}
	relSource, err := filepath.Rel("/", op.Source)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrInvalidInput,
			"failed to convert source path: %s", op.Source)
	}

	opID := core.OperationID(fmt.Sprintf("symlink-%s", op.Target))
	symlinkOp := operations.NewCreateSymlinkOperation(opID, relPath)
	symlinkOp.SetDescriptionDetail("target", relSource)
	symlinkOp.SetItem(&symlinkItem{path: relPath, target: relSource})

	return synthfs.NewOperationsPackageAdapter(symlinkOp), nil
}

func (e *SynthfsExecutor) convertCopy(op types.Operation) (synthfs.Operation, error) {
	if op.Source == "" || op.Target == "" {
		return nil, errors.New(errors.ErrInvalidInput,
			"copy operation requires source and target")
	}
	if err := e.validateSafePath(op.Target); err != nil {
		return nil, err
	}

	relSource, err := filepath.Rel("/", op.Source)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrInvalidInput,
			"failed to convert source path: %s", op.Source)
	}
	relTarget, err := filepath.Rel("/", op.Target)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrInvalidInput,
			"failed to convert path: %s", op.Target)
	}

	opID := core.OperationID(fmt.Sprintf("copy-%s-to-%s", filepath.Base(op.Source), op.Target))
	copyOp := operations.NewCopyOperation(opID, relTarget)
	copyOp.SetPaths(relSource, relTarget)

	return synthfs.NewOperationsPackageAdapter(copyOp), nil
}

func (e *SynthfsExecutor) convertDelete(op types.Operation) (synthfs.Operation, error) {
	if op.Target == "" {
		return nil, errors.New(errors.ErrInvalidInput,
			"delete operation requires target")
	}
	if err := e.validateSafePath(op.Target); err != nil {
		return nil, err
	}

	relPath, err := filepath.Rel("/", op.Target)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrInvalidInput,
			"failed to convert path: %s", op.Target)
	}

	opID := core.OperationID(fmt.Sprintf("delete-%s", op.Target))
	deleteOp := operations.NewDeleteOperation(opID, relPath)

	return synthfs.NewOperationsPackageAdapter(deleteOp), nil
}

// validateSafePath ensures mutations stay inside the roots this
// transition is allowed to touch.
func (e *SynthfsExecutor) validateSafePath(path string) error {
	normalized, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrapf(err, errors.ErrInvalidInput,
			"failed to normalize path: %s", path)
	}

	for _, root := range e.safeRoots {
		if paths.IsWithin(normalized, root) {
			return nil
		}
	}

	return errors.Newf(errors.ErrPermission,
		"operation target is outside transition-controlled directories: %s", path)
}

func (e *SynthfsExecutor) logOperation(op types.Operation) {
	logger := e.logger.With().Str("mode", "dry-run").Logger()

	switch op.Type {
	case types.OperationCreateSymlink:
		logger.Info().
			Str("source", op.Source).
			Str("target", op.Target).
			Msg("Would create symlink")
	case types.OperationCreateDir:
		logger.Info().
			Str("target", op.Target).
			Msg("Would create directory")
	case types.OperationWriteFile:
		logger.Info().
			Str("target", op.Target).
			Int("contentLen", len(op.Content)).
			Msg("Would write file")
	case types.OperationCopyFile, types.OperationBackupFile:
		logger.Info().
			Str("source", op.Source).
			Str("target", op.Target).
			Msg("Would copy file")
	case types.OperationDeleteFile:
		logger.Info().
			Str("target", op.Target).
			Msg("Would delete file")
	default:
		logger.Info().Str("description", op.Description).Msg("Would execute operation")
	}
}

// Item types for synthfs operations

// fileItem implements the interface needed for file operations
type fileItem struct {
	path    string
	content []byte
	mode    fs.FileMode
}

func (f *fileItem) Path() string       { return f.path }
func (f *fileItem) Type() string       { return "file" }
func (f *fileItem) Content() []byte    { return f.content }
func (f *fileItem) Mode() fs.FileMode  { return f.mode }
func (f *fileItem) IsDir() bool        { return false }
func (f *fileItem) ModTime() time.Time { return time.Now() }
func (f *fileItem) Size() int64        { return int64(len(f.content)) }

// directoryItem implements the interface needed for directory operations
type directoryItem struct {
	path string
	mode fs.FileMode
}

func (d *directoryItem) Path() string       { return d.path }
func (d *directoryItem) Type() string       { return "directory" }
func (d *directoryItem) Mode() fs.FileMode  { return d.mode }
func (d *directoryItem) IsDir() bool        { return true }
func (d *directoryItem) ModTime() time.Time { return time.Now() }
func (d *directoryItem) Size() int64        { return 0 }

// symlinkItem implements the interface needed for symlink operations
type symlinkItem struct {
	path   string
	target string
}

func (s *symlinkItem) Path() string   { return s.path }
func (s *symlinkItem) Type() string   { return "symlink" }
func (s *symlinkItem) Target() string { return s.target }
