// Package paths provides centralized path handling for genlink: the
// lexical normalizer targets pass through before any planning, and the
// XDG-compliant application directories the store lives under.
package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/arthur-debert/genlink/pkg/errors"
)

// Environment variable names
const (
	// EnvDataDir overrides the XDG data directory for genlink
	EnvDataDir = "GENLINK_DATA_DIR"

	// EnvStateDir overrides the XDG state directory for genlink
	EnvStateDir = "GENLINK_STATE_DIR"
)

// Directory names inside the datastore. These define genlink's internal
// layout and are not user-configurable.
const (
	// AppDirName is the directory name for genlink-specific files
	AppDirName = "genlink"

	// GenerationsDirName holds one image directory per generation
	GenerationsDirName = "generations"

	// StaticDirName holds materialized inline-text sources
	StaticDirName = "static"

	// CurrentLinkName is the current-generation marker symlink
	CurrentLinkName = "current"

	// LogFileName is the name of the log file
	LogFileName = "genlink.log"
)

// Normalize canonicalizes rawPath: absolute paths directly, relative
// paths against basePath (which must be absolute). Canonicalization is
// purely lexical: "." segments are dropped, ".." segments resolved,
// repeated separators collapsed. No filesystem lookups happen here.
//
// Returns a PATH_TRAVERSAL error if resolution would climb above the
// filesystem root.
func Normalize(basePath, rawPath string) (string, error) {
	p := rawPath
	if !filepath.IsAbs(p) {
		// filepath.Join would clean and hide traversal above "/", so
		// normalize the raw concatenation instead.
		p = basePath + string(filepath.Separator) + rawPath
	}

	segments := strings.Split(filepath.ToSlash(p), "/")
	stack := make([]string, 0, len(segments))
	for _, seg := range segments {
		switch seg {
		case "", ".":
			// collapse
		case "..":
			if len(stack) == 0 {
				return "", errors.Newf(errors.ErrPathTraversal,
					"path escapes filesystem root: %s", rawPath)
			}
			stack = stack[:len(stack)-1]
		default:
			stack = append(stack, seg)
		}
	}

	return "/" + strings.Join(stack, "/"), nil
}

// RelativeToRoot expresses a canonical path relative to the deployment
// root. Returns an OUTSIDE_ROOT error if the path is not strictly under
// the root.
func RelativeToRoot(deploymentRoot, canonicalPath string) (string, error) {
	root := strings.TrimRight(filepath.ToSlash(deploymentRoot), "/")
	p := filepath.ToSlash(canonicalPath)

	if !strings.HasPrefix(p, root+"/") {
		return "", errors.Newf(errors.ErrOutsideRoot,
			"path %s is not under deployment root %s", canonicalPath, deploymentRoot)
	}

	rel := strings.TrimPrefix(p, root+"/")
	if rel == "" {
		return "", errors.Newf(errors.ErrOutsideRoot,
			"path %s is the deployment root itself", canonicalPath)
	}
	return rel, nil
}

// IsWithin reports whether path is lexically inside parent.
func IsWithin(path, parent string) bool {
	rel, err := filepath.Rel(filepath.Clean(parent), filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, "../") && rel != "."
}

// Paths provides the application directories genlink stores its state
// under.
type Paths struct {
	dataDir  string
	stateDir string
}

// New creates a Paths instance, honoring GENLINK_DATA_DIR and
// GENLINK_STATE_DIR overrides before falling back to XDG defaults.
func New() *Paths {
	dataDir := os.Getenv(EnvDataDir)
	if dataDir == "" {
		dataDir = filepath.Join(xdg.DataHome, AppDirName)
	}
	stateDir := os.Getenv(EnvStateDir)
	if stateDir == "" {
		stateDir = filepath.Join(xdg.StateHome, AppDirName)
	}
	return &Paths{dataDir: dataDir, stateDir: stateDir}
}

// NewWithDirs creates a Paths instance with explicit directories,
// keeping env and XDG fallbacks for any empty value.
func NewWithDirs(dataDir, stateDir string) *Paths {
	p := New()
	if dataDir != "" {
		p.dataDir = dataDir
	}
	if stateDir != "" {
		p.stateDir = stateDir
	}
	return p
}

// DataDir returns the root of the genlink datastore.
func (p *Paths) DataDir() string {
	return p.dataDir
}

// StateDir returns the XDG state directory for genlink.
func (p *Paths) StateDir() string {
	return p.stateDir
}

// GenerationsDir returns the directory holding generation images.
func (p *Paths) GenerationsDir() string {
	return filepath.Join(p.dataDir, GenerationsDirName)
}

// GenerationDir returns the image root for generation n.
func (p *Paths) GenerationDir(n int) string {
	return filepath.Join(p.GenerationsDir(), generationDirName(n))
}

// StaticDir returns the directory holding materialized inline-text
// sources for generation n. It lives outside the image root so the
// image stays a pure mirror of the target tree.
func (p *Paths) StaticDir(n int) string {
	return filepath.Join(p.dataDir, StaticDirName, generationDirName(n))
}

// CurrentLink returns the path of the current-generation marker.
func (p *Paths) CurrentLink() string {
	return filepath.Join(p.dataDir, CurrentLinkName)
}

// LogFilePath returns the path of the log file.
func (p *Paths) LogFilePath() string {
	return filepath.Join(p.stateDir, LogFileName)
}

// generationDirName is zero-padded so lexical listing matches numeric
// order.
func generationDirName(n int) string {
	return fmt.Sprintf("%06d", n)
}
