package synthfs

import (
	"context"
	"os/exec"
	"time"

	"github.com/arthur-debert/genlink/pkg/logging"
	"github.com/arthur-debert/genlink/pkg/report"
	"github.com/arthur-debert/genlink/pkg/types"
	"github.com/rs/zerolog"
)

// hookTimeout bounds a single on-change hook.
const hookTimeout = 5 * time.Minute

// CommandExecutor runs on-change hook commands, serialized so log
// output stays deterministic. Failures are recorded, never fatal.
type CommandExecutor struct {
	logger zerolog.Logger
	dryRun bool
}

// NewCommandExecutor creates a new command executor
func NewCommandExecutor(dryRun bool) *CommandExecutor {
	return &CommandExecutor{
		logger: logging.GetLogger("hooks"),
		dryRun: dryRun,
	}
}

// ExecuteOperations runs every OperationExecute in order and returns
// one result per hook.
func (e *CommandExecutor) ExecuteOperations(ops []types.Operation) []report.HookResult {
	var results []report.HookResult
	for _, op := range ops {
		if op.Type != types.OperationExecute || op.Status != types.StatusReady {
			continue
		}
		results = append(results, e.run(op))
	}
	return results
}

func (e *CommandExecutor) run(op types.Operation) report.HookResult {
	result := report.HookResult{
		Target:  op.EntryTarget,
		Command: op.Command,
	}

	e.logger.Info().
		Str("target", op.EntryTarget).
		Str("command", op.Command).
		Msg("Running on-change hook")

	if e.dryRun {
		e.logger.Info().Str("command", op.Command).Msg("Would run hook")
		return result
	}

	ctx, cancel := context.WithTimeout(context.Background(), hookTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "sh", "-c", op.Command)
	output, err := cmd.CombinedOutput()
	if err != nil {
		result.Err = err
		if exitErr, ok := err.(*exec.ExitError); ok {
			result.ExitCode = exitErr.ExitCode()
		} else {
			result.ExitCode = -1
		}
		e.logger.Error().
			Str("target", op.EntryTarget).
			Str("command", op.Command).
			Int("exitCode", result.ExitCode).
			Str("output", string(output)).
			Msg("On-change hook failed")
		return result
	}

	e.logger.Debug().
		Str("target", op.EntryTarget).
		Str("output", string(output)).
		Msg("On-change hook completed")
	return result
}
