package commands

import (
	"github.com/arthur-debert/genlink/pkg/collision"
	"github.com/arthur-debert/genlink/pkg/logging"
)

// CheckOptions defines the options for the Check command.
type CheckOptions struct {
	// DeployRoot is the deployment root directory.
	DeployRoot string
	// ManifestPath overrides the configured manifest location.
	ManifestPath string
	// Force exempts every target from collision checking.
	Force bool
}

// Check builds a generation image and runs only the collision
// pre-flight against the live tree; the live tree is never touched.
func Check(opts CheckOptions) (*collision.Result, error) {
	log := logging.GetLogger("commands")
	log.Debug().Str("command", "Check").Msg("Executing command")

	env, err := NewEnvironment(opts.DeployRoot)
	if err != nil {
		return nil, err
	}

	built, err := buildGeneration(env, opts.ManifestPath)
	if err != nil {
		return nil, err
	}

	forced := make(map[string]bool)
	for i := range built.Generation.Entries {
		entry := &built.Generation.Entries[i].Entry
		if opts.Force || env.Config.Deploy.Force || entry.Force {
			forced[entry.Target] = true
		}
	}

	return env.Checker().Check(built.Generation, env.LiveRoot(), forced)
}
