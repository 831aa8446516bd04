// Package config loads genlink's configuration: embedded defaults,
// then an optional genlink.toml at the deployment root, then
// GENLINK_* environment variables, each layer overriding the last.
package config

import (
	_ "embed"
	"os"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/genlink/pkg/errors"
	"github.com/arthur-debert/genlink/pkg/paths"
	"github.com/arthur-debert/genlink/pkg/types"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

//go:embed embedded/defaults.toml
var defaultConfig []byte

// rawBytesProvider implements koanf's provider interface for the
// embedded defaults.
type rawBytesProvider struct{ bytes []byte }

func (r *rawBytesProvider) ReadBytes() ([]byte, error) { return r.bytes, nil }
func (r *rawBytesProvider) Read() (map[string]interface{}, error) {
	return nil, errors.New(errors.ErrInternal, "not implemented")
}

// Config is the resolved configuration for a deployment.
type Config struct {
	Deploy struct {
		// TargetRoot is the live tree root; "~" expands to $HOME.
		TargetRoot   string `koanf:"target_root"`
		BackupSuffix string `koanf:"backup_suffix"`
		Force        bool   `koanf:"force"`
	} `koanf:"deploy"`

	Store struct {
		DataDir  string `koanf:"data_dir"`
		StateDir string `koanf:"state_dir"`
	} `koanf:"store"`

	Ownership struct {
		ExtraGlobs []string `koanf:"extra_globs"`
	} `koanf:"ownership"`

	Manifest struct {
		// Path is resolved relative to the deployment root when not
		// absolute.
		Path string `koanf:"path"`
	} `koanf:"manifest"`
}

// Load resolves configuration for the given deployment root directory.
func Load(deployRoot string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load default configuration")
	}

	for _, filename := range []string{".genlink.toml", "genlink.toml", ".genlink.yaml", "genlink.yaml"} {
		path := filepath.Join(deployRoot, filename)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		var parser koanf.Parser = toml.Parser()
		if strings.HasSuffix(filename, ".yaml") {
			parser = yaml.Parser()
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, errors.Wrapf(err, errors.ErrConfigParse,
				"failed to parse configuration file %s", path)
		}
		break
	}

	// GENLINK_DEPLOY__BACKUP_SUFFIX -> deploy.backup_suffix; the double
	// underscore separates sections so single underscores survive in
	// key names
	err := k.Load(env.Provider("GENLINK_", ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, "GENLINK_")), "__", ".")
	}), nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load environment overrides")
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "failed to unmarshal configuration")
	}

	if err := cfg.expandTargetRoot(); err != nil {
		return nil, err
	}
	if !filepath.IsAbs(cfg.Manifest.Path) {
		cfg.Manifest.Path = filepath.Join(deployRoot, cfg.Manifest.Path)
	}

	return &cfg, nil
}

func (c *Config) expandTargetRoot() error {
	root := c.Deploy.TargetRoot
	if root == "~" || strings.HasPrefix(root, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return errors.Wrap(err, errors.ErrConfigLoad, "failed to resolve home directory")
		}
		root = filepath.Join(home, strings.TrimPrefix(root, "~"))
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return errors.Wrapf(err, errors.ErrConfigLoad,
			"failed to resolve target root %s", root)
	}
	c.Deploy.TargetRoot = abs
	return nil
}

// ManagedPredicate reports whether a link destination belongs to the
// engine: anything under the datastore, plus configured extra globs.
func (c *Config) ManagedPredicate(p *paths.Paths) types.ManagedPredicate {
	dataDir := p.DataDir()
	globs := c.Ownership.ExtraGlobs
	return func(dest string) bool {
		if paths.IsWithin(dest, dataDir) {
			return true
		}
		for _, glob := range globs {
			if ok, err := filepath.Match(glob, dest); err == nil && ok {
				return true
			}
		}
		return false
	}
}
