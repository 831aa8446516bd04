// Package commands is the orchestration layer between the CLI and the
// engine packages: each command wires configuration, the datastore and
// the engine collaborators, runs one high-level operation and returns
// its result.
package commands

import (
	"github.com/arthur-debert/genlink/pkg/collision"
	"github.com/arthur-debert/genlink/pkg/config"
	"github.com/arthur-debert/genlink/pkg/filesystem"
	"github.com/arthur-debert/genlink/pkg/paths"
	"github.com/arthur-debert/genlink/pkg/store"
	"github.com/arthur-debert/genlink/pkg/types"
)

// Environment is the shared wiring every command starts from.
type Environment struct {
	DeployRoot string
	Config     *config.Config
	Paths      *paths.Paths
	FS         types.FS
	Store      *store.Store
	Resolver   types.SourceResolver
	Managed    types.ManagedPredicate
}

// NewEnvironment resolves configuration for a deployment root and
// builds the collaborators commands share.
func NewEnvironment(deployRoot string) (*Environment, error) {
	cfg, err := config.Load(deployRoot)
	if err != nil {
		return nil, err
	}

	p := paths.NewWithDirs(cfg.Store.DataDir, cfg.Store.StateDir)
	fs := filesystem.NewOS()

	return &Environment{
		DeployRoot: deployRoot,
		Config:     cfg,
		Paths:      p,
		FS:         fs,
		Store:      store.New(fs, p),
		Resolver:   &store.PathResolver{Base: deployRoot, FS: fs},
		Managed:    cfg.ManagedPredicate(p),
	}, nil
}

// LiveRoot is the root of the live tree entries deploy into.
func (e *Environment) LiveRoot() string {
	return e.Config.Deploy.TargetRoot
}

// BackupSuffix is the configured collision backup suffix.
func (e *Environment) BackupSuffix() string {
	return e.Config.Deploy.BackupSuffix
}

// Checker builds a collision checker bound to this environment.
func (e *Environment) Checker() *collision.Checker {
	return collision.New(e.FS, e.Managed, e.BackupSuffix())
}

// ManifestPath resolves the manifest location, honoring an override.
func (e *Environment) ManifestPath(override string) string {
	if override != "" {
		return override
	}
	return e.Config.Manifest.Path
}
