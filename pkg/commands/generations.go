package commands

import (
	"github.com/arthur-debert/genlink/pkg/logging"
)

// GenerationsOptions defines the options for the Generations command.
type GenerationsOptions struct {
	// DeployRoot is the deployment root directory.
	DeployRoot string
}

// GenerationInfo describes one known generation.
type GenerationInfo struct {
	Number    int
	ImageRoot string
	Current   bool
}

// Generations lists every generation in the datastore, oldest first.
func Generations(opts GenerationsOptions) ([]GenerationInfo, error) {
	log := logging.GetLogger("commands")
	log.Debug().Str("command", "Generations").Msg("Executing command")

	env, err := NewEnvironment(opts.DeployRoot)
	if err != nil {
		return nil, err
	}

	numbers, err := env.Store.List()
	if err != nil {
		return nil, err
	}
	current, _, err := env.Store.Current()
	if err != nil {
		return nil, err
	}

	infos := make([]GenerationInfo, 0, len(numbers))
	for _, n := range numbers {
		infos = append(infos, GenerationInfo{
			Number:    n,
			ImageRoot: env.Paths.GenerationDir(n),
			Current:   n == current,
		})
	}
	return infos, nil
}
