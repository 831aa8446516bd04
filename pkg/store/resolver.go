package store

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/genlink/pkg/errors"
	"github.com/arthur-debert/genlink/pkg/types"
)

// PathResolver is the default SourceResolver: references are plain
// filesystem paths, resolved against a base directory (usually the
// manifest's directory) and verified to exist. Content stores with
// richer addressing plug in their own resolver.
type PathResolver struct {
	Base string
	FS   types.FS
}

var _ types.SourceResolver = (*PathResolver)(nil)

// Resolve maps a source reference to a stable absolute path.
func (r *PathResolver) Resolve(ref string) (string, error) {
	p := ref
	if strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", errors.Wrap(err, errors.ErrSourceResolve,
				"failed to expand home directory")
		}
		p = filepath.Join(home, p[2:])
	}
	if !filepath.IsAbs(p) {
		p = filepath.Join(r.Base, p)
	}
	p = filepath.Clean(p)

	if _, err := r.FS.Lstat(p); err != nil {
		return "", errors.Wrapf(err, errors.ErrSourceResolve,
			"source does not exist: %s", ref)
	}
	return p, nil
}
