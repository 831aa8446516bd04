package synthfs

import (
	"github.com/arthur-debert/genlink/pkg/errors"
	"github.com/arthur-debert/genlink/pkg/logging"
	"github.com/arthur-debert/genlink/pkg/report"
	"github.com/arthur-debert/genlink/pkg/types"
	"github.com/rs/zerolog"
)

// CombinedExecutor routes filesystem operations through synthfs and
// hook executions through the command executor, keeping the ordering
// the transition depends on: directories, then other fs mutations,
// hooks only via ExecuteHooks once linking is done.
type CombinedExecutor struct {
	logger          zerolog.Logger
	dryRun          bool
	synthfsExecutor *SynthfsExecutor
	commandExecutor *CommandExecutor
}

// NewCombinedExecutor creates a combined executor bounded to safeRoots.
func NewCombinedExecutor(dryRun bool, safeRoots ...string) *CombinedExecutor {
	return &CombinedExecutor{
		logger:          logging.GetLogger("executor"),
		dryRun:          dryRun,
		synthfsExecutor: NewSynthfsExecutor(dryRun, safeRoots...),
		commandExecutor: NewCommandExecutor(dryRun),
	}
}

// ExecuteFS executes filesystem operations: directory creations first,
// then everything else in the given order.
func (e *CombinedExecutor) ExecuteFS(ops []types.Operation) error {
	if len(ops) == 0 {
		return nil
	}

	var dirOps, otherOps []types.Operation
	for _, op := range ops {
		if op.Status != types.StatusReady {
			continue
		}
		if op.Type == types.OperationCreateDir {
			dirOps = append(dirOps, op)
		} else {
			otherOps = append(otherOps, op)
		}
	}

	if len(dirOps) > 0 {
		e.logger.Debug().Int("count", len(dirOps)).Msg("Executing directory operations")
		if err := e.synthfsExecutor.ExecuteOperations(dirOps); err != nil {
			return errors.Wrap(err, errors.ErrOpExecute, "failed to create directories")
		}
	}

	if len(otherOps) > 0 {
		e.logger.Debug().Int("count", len(otherOps)).Msg("Executing file operations")
		if err := e.synthfsExecutor.ExecuteOperations(otherOps); err != nil {
			return errors.Wrap(err, errors.ErrOpExecute, "failed to execute file operations")
		}
	}

	return nil
}

// ExecuteHooks runs hook operations serially and reports each outcome.
func (e *CombinedExecutor) ExecuteHooks(ops []types.Operation) []report.HookResult {
	return e.commandExecutor.ExecuteOperations(ops)
}
