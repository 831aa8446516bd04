package commands

import (
	"github.com/arthur-debert/genlink/pkg/logging"
	"github.com/arthur-debert/genlink/pkg/report"
	"github.com/arthur-debert/genlink/pkg/switcher"
	"github.com/arthur-debert/genlink/pkg/synthfs"
	"github.com/arthur-debert/genlink/pkg/types"
)

// SwitchOptions defines the options for the Switch command.
type SwitchOptions struct {
	// DeployRoot is the deployment root directory.
	DeployRoot string
	// ManifestPath overrides the configured manifest location.
	ManifestPath string
	// DryRun plans and reports without mutating the live tree.
	DryRun bool
	// Force exempts every target from collision checking.
	Force bool
}

// Switch builds a generation from the manifest and transitions the
// live tree to it.
func Switch(opts SwitchOptions) (*report.Report, error) {
	log := logging.GetLogger("commands")
	log.Debug().Str("command", "Switch").Bool("dryRun", opts.DryRun).Msg("Executing command")

	env, err := NewEnvironment(opts.DeployRoot)
	if err != nil {
		return nil, err
	}

	built, err := buildGeneration(env, opts.ManifestPath)
	if err != nil {
		return nil, err
	}

	var outgoing *types.Generation
	if number, imageRoot, err := env.Store.Current(); err != nil {
		return nil, err
	} else if number > 0 {
		outgoing = &types.Generation{Number: number, ImageRoot: imageRoot}
	}

	sw := switcher.New(switcher.Config{
		FS:           env.FS,
		Checker:      env.Checker(),
		Executor:     synthfs.NewCombinedExecutor(opts.DryRun, env.LiveRoot(), env.Paths.DataDir()),
		Pointer:      env.Store,
		Managed:      env.Managed,
		LiveRoot:     env.LiveRoot(),
		BackupSuffix: env.BackupSuffix(),
		DryRun:       opts.DryRun,
		ForceAll:     opts.Force || env.Config.Deploy.Force,
	})

	rep, err := sw.Switch(built.Generation, outgoing)
	if rep != nil {
		for _, c := range built.Conflicts {
			rep.Skipped = append(rep.Skipped, c.Target)
		}
	}
	return rep, err
}
