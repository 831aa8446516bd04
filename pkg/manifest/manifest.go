// Package manifest decodes the declared file set from a TOML or YAML
// manifest and validates it into engine entries. Target paths are
// normalized against the deployment root here, so everything past the
// loader works with clean root-relative targets.
package manifest

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/genlink/pkg/errors"
	"github.com/arthur-debert/genlink/pkg/logging"
	"github.com/arthur-debert/genlink/pkg/paths"
	"github.com/arthur-debert/genlink/pkg/types"
	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// rawEntry is the on-disk shape of one [[file]] block. Pointer fields
// distinguish absent attributes from zero values.
type rawEntry struct {
	Target     string  `toml:"target" yaml:"target"`
	Source     string  `toml:"source" yaml:"source"`
	Text       *string `toml:"text" yaml:"text"`
	Executable *bool   `toml:"executable" yaml:"executable"`
	Recursive  bool    `toml:"recursive" yaml:"recursive"`
	OnChange   string  `toml:"on_change" yaml:"on_change"`
	Force      bool    `toml:"force" yaml:"force"`
}

type rawManifest struct {
	Files []rawEntry `toml:"file" yaml:"files"`
}

// Load reads and validates the manifest at path. Targets are resolved
// against deployRoot and returned relative to it.
func Load(path, deployRoot string) ([]types.FileEntry, error) {
	logger := logging.GetLogger("manifest")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrFileNotFound,
			"failed to read manifest %s", path)
	}

	var raw rawManifest
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, errors.Wrapf(err, errors.ErrConfigParse,
				"failed to parse YAML manifest %s", path)
		}
	default:
		if err := toml.Unmarshal(data, &raw); err != nil {
			return nil, errors.Wrapf(err, errors.ErrConfigParse,
				"failed to parse TOML manifest %s", path)
		}
	}

	entries := make([]types.FileEntry, 0, len(raw.Files))
	for i, re := range raw.Files {
		entry, err := re.validate(deployRoot)
		if err != nil {
			return nil, errors.Wrapf(err, errors.GetErrorCode(err),
				"invalid file entry %d in %s", i+1, path)
		}
		entries = append(entries, entry)
	}

	logger.Debug().Int("entries", len(entries)).Str("path", path).Msg("Manifest loaded")
	return entries, nil
}

func (re rawEntry) validate(deployRoot string) (types.FileEntry, error) {
	var entry types.FileEntry

	if re.Target == "" {
		return entry, errors.New(errors.ErrInvalidInput, "file entry is missing a target")
	}
	if re.Source != "" && re.Text != nil {
		return entry, errors.Newf(errors.ErrInvalidInput,
			"target %s declares both source and text", re.Target)
	}
	if re.Source == "" && re.Text == nil {
		return entry, errors.Newf(errors.ErrInvalidInput,
			"target %s declares neither source nor text", re.Target)
	}
	if re.Text != nil && re.Recursive {
		return entry, errors.Newf(errors.ErrInvalidInput,
			"target %s is inline text and cannot be recursive", re.Target)
	}

	canonical, err := paths.Normalize(deployRoot, re.Target)
	if err != nil {
		return entry, err
	}
	rel, err := paths.RelativeToRoot(deployRoot, canonical)
	if err != nil {
		return entry, err
	}

	entry.Target = rel
	entry.Source = re.Source
	if re.Text != nil {
		entry.Text = *re.Text
		entry.HasText = true
	}
	entry.Executable = execPolicy(re.Executable)
	entry.Recursive = re.Recursive
	entry.OnChange = re.OnChange
	entry.Force = re.Force
	return entry, nil
}

func execPolicy(flag *bool) types.ExecPolicy {
	switch {
	case flag == nil:
		return types.ExecInherit
	case *flag:
		return types.ExecOn
	default:
		return types.ExecOff
	}
}
