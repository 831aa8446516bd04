// Package store manages the on-disk datastore the engine links out of:
// numbered generation image roots, materialized inline-text sources and
// the current-generation marker. Images are write-once; the store never
// deletes them, it only repoints the marker.
package store

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/arthur-debert/genlink/pkg/errors"
	"github.com/arthur-debert/genlink/pkg/logging"
	"github.com/arthur-debert/genlink/pkg/paths"
	"github.com/arthur-debert/genlink/pkg/types"
	"github.com/rs/zerolog"
)

// Store tracks generations under the genlink data directory.
type Store struct {
	fs     types.FS
	paths  *paths.Paths
	logger zerolog.Logger
}

// New creates a Store on the given filesystem and path layout.
func New(fs types.FS, p *paths.Paths) *Store {
	return &Store{
		fs:     fs,
		paths:  p,
		logger: logging.GetLogger("store"),
	}
}

// NextGeneration reserves the next generation number and creates its
// empty image root. Numbers are monotonic across the datastore's
// lifetime, including generations that were never switched to.
func (s *Store) NextGeneration() (int, string, error) {
	existing, err := s.List()
	if err != nil {
		return 0, "", err
	}

	next := 1
	if len(existing) > 0 {
		next = existing[len(existing)-1] + 1
	}

	imageRoot := s.paths.GenerationDir(next)
	if err := s.fs.MkdirAll(imageRoot, 0755); err != nil {
		return 0, "", errors.Wrapf(err, errors.ErrDirCreate,
			"failed to create image root for generation %d", next)
	}

	s.logger.Debug().Int("generation", next).Str("imageRoot", imageRoot).
		Msg("Reserved generation")
	return next, imageRoot, nil
}

// List returns all known generation numbers in ascending order.
func (s *Store) List() ([]int, error) {
	dirEntries, err := s.fs.ReadDir(s.paths.GenerationsDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, errors.ErrFileAccess,
			"failed to list generations")
	}

	var numbers []int
	for _, de := range dirEntries {
		if !de.IsDir() {
			continue
		}
		n, err := strconv.Atoi(strings.TrimLeft(de.Name(), "0"))
		if err != nil {
			continue
		}
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)
	return numbers, nil
}

// MaterializeText writes inline text into the static area for a
// generation and returns the resulting source path. The written file is
// immutable for the generation's lifetime.
func (s *Store) MaterializeText(generation int, target, text string, executable bool) (string, error) {
	staticPath := filepath.Join(s.paths.StaticDir(generation), target)

	if err := s.fs.MkdirAll(filepath.Dir(staticPath), 0755); err != nil {
		return "", errors.Wrapf(err, errors.ErrDirCreate,
			"failed to create static dir for %s", target)
	}

	mode := os.FileMode(0444)
	if executable {
		mode = 0555
	}
	if err := s.fs.WriteFile(staticPath, []byte(text), mode); err != nil {
		return "", errors.Wrapf(err, errors.ErrFileCreate,
			"failed to materialize inline text for %s", target)
	}

	return staticPath, nil
}

// Current reads the current-generation marker. A number of 0 with no
// error means nothing has been deployed yet.
func (s *Store) Current() (int, string, error) {
	dest, err := s.fs.Readlink(s.paths.CurrentLink())
	if err != nil {
		if os.IsNotExist(err) {
			return 0, "", nil
		}
		return 0, "", errors.Wrap(err, errors.ErrFileAccess,
			"failed to read current-generation marker")
	}

	n, err := strconv.Atoi(strings.TrimLeft(filepath.Base(dest), "0"))
	if err != nil {
		return 0, "", errors.Wrapf(err, errors.ErrInternal,
			"current-generation marker points at %s", dest)
	}
	return n, dest, nil
}

// Set repoints the current-generation marker. The swap goes through a
// temporary link plus rename so concurrent readers never observe a
// half-updated marker.
func (s *Store) Set(number int, imageRoot string) error {
	link := s.paths.CurrentLink()
	tmp := link + ".tmp"

	if err := s.fs.MkdirAll(filepath.Dir(link), 0755); err != nil {
		return errors.Wrap(err, errors.ErrDirCreate,
			"failed to create datastore directory")
	}

	// a stale tmp link from an interrupted run is safe to discard
	if err := s.fs.Remove(tmp); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, errors.ErrFileAccess,
			"failed to clear stale marker")
	}

	if err := s.fs.Symlink(imageRoot, tmp); err != nil {
		return errors.Wrap(err, errors.ErrSymlinkCreate,
			"failed to stage current-generation marker")
	}
	if err := s.fs.Rename(tmp, link); err != nil {
		return errors.Wrap(err, errors.ErrFileAccess,
			"failed to swap current-generation marker")
	}

	s.logger.Info().Int("generation", number).Str("imageRoot", imageRoot).
		Msg("Current generation updated")
	return nil
}
