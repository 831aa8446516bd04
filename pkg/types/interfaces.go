package types

import (
	"io/fs"
)

// FS is the filesystem interface required for engine operations
type FS interface {
	// File operations
	Stat(name string) (fs.FileInfo, error)
	Lstat(name string) (fs.FileInfo, error)
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data []byte, perm fs.FileMode) error

	// Directory operations
	MkdirAll(path string, perm fs.FileMode) error
	ReadDir(name string) ([]fs.DirEntry, error)

	// Symlink operations
	Symlink(oldname, newname string) error
	Readlink(name string) (string, error)

	// Other operations
	Remove(name string) error
	RemoveAll(path string) error
	Rename(oldpath, newpath string) error
}

// SourceResolver maps a declared source reference to a stable
// filesystem path. The engine never inspects what is behind the
// reference; it only re-links to the resolved path.
type SourceResolver interface {
	Resolve(ref string) (string, error)
}

// ManagedPredicate reports whether a symlink destination looks like it
// was created by a previous generation of this engine. Ownership
// detection is heuristic, so it is injected rather than hard-coded.
type ManagedPredicate func(linkDest string) bool

// GenerationPointer is the handle for the single piece of state shared
// across transitions: which generation is current. Implementations must
// swap the pointer atomically.
type GenerationPointer interface {
	// Current returns the current generation number and its image root.
	// A number of 0 means no generation has ever been deployed.
	Current() (int, string, error)

	// Set repoints the marker at the given generation.
	Set(number int, imageRoot string) error
}
