package commands

import (
	"github.com/arthur-debert/genlink/pkg/logging"
	"github.com/arthur-debert/genlink/pkg/manifest"
	"github.com/arthur-debert/genlink/pkg/orderer"
	"github.com/arthur-debert/genlink/pkg/snapshot"
	"github.com/arthur-debert/genlink/pkg/types"
)

// BuildOptions defines the options for the Build command.
type BuildOptions struct {
	// DeployRoot is the deployment root directory.
	DeployRoot string
	// ManifestPath overrides the configured manifest location.
	ManifestPath string
}

// BuildResult is a built, not yet deployed, generation.
type BuildResult struct {
	Generation *types.Generation
	Conflicts  []snapshot.TargetConflict
}

// Build reads the manifest and constructs a new generation image
// without touching the live tree.
func Build(opts BuildOptions) (*BuildResult, error) {
	log := logging.GetLogger("commands")
	log.Debug().Str("command", "Build").Msg("Executing command")

	env, err := NewEnvironment(opts.DeployRoot)
	if err != nil {
		return nil, err
	}
	return buildGeneration(env, opts.ManifestPath)
}

// buildGeneration is the shared manifest-to-image pipeline: load,
// order, reserve a number, build the snapshot.
func buildGeneration(env *Environment, manifestOverride string) (*BuildResult, error) {
	entries, err := manifest.Load(env.ManifestPath(manifestOverride), env.DeployRoot)
	if err != nil {
		return nil, err
	}

	ordered, err := orderer.Order(entries)
	if err != nil {
		return nil, err
	}

	number, imageRoot, err := env.Store.NextGeneration()
	if err != nil {
		return nil, err
	}
	previous, _, err := env.Store.Current()
	if err != nil {
		return nil, err
	}

	builder := snapshot.New(env.FS, env.Resolver, env.Store)
	gen, conflicts, err := builder.Build(number, previous, ordered, imageRoot)
	if err != nil {
		return nil, err
	}
	return &BuildResult{Generation: gen, Conflicts: conflicts}, nil
}
