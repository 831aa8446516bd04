package types

// ExecPolicy is the tri-state execute-bit policy for a deployed file.
type ExecPolicy int

const (
	// ExecInherit matches the source file's execute bit. Inline text
	// sources default to non-executable.
	ExecInherit ExecPolicy = iota

	// ExecOn forces the execute bit on.
	ExecOn

	// ExecOff forces the execute bit off.
	ExecOff
)

func (p ExecPolicy) String() string {
	switch p {
	case ExecOn:
		return "on"
	case ExecOff:
		return "off"
	default:
		return "inherit"
	}
}

// Resolve returns the concrete execute bit for a source whose own bit
// is sourceExec, and whether the bit needs to be forced (copy instead
// of symlink).
func (p ExecPolicy) Resolve(sourceExec bool) (want bool, forced bool) {
	switch p {
	case ExecOn:
		return true, !sourceExec
	case ExecOff:
		return false, sourceExec
	default:
		return sourceExec, false
	}
}

// FileEntry is one declared file: where its content comes from and how
// it is realized in the live tree.
type FileEntry struct {
	// Target is the deployment path, relative to the deployment root.
	// Unique key within a generation.
	Target string

	// Source references external content; resolved through the
	// SourceResolver. Empty when Text is set.
	Source string

	// Text is inline content. Takes precedence over Source; the store
	// materializes it into an immutable file before building.
	Text string

	// HasText distinguishes an intentionally empty inline file from an
	// absent one.
	HasText bool

	// Executable is the execute-bit policy for file sources.
	Executable ExecPolicy

	// Recursive only matters for directory sources: false links the
	// directory itself, true mirrors its structure with leaf symlinks.
	Recursive bool

	// OnChange is an optional shell command run after a successful
	// switch when this target's content changed.
	OnChange string

	// Force exempts this target from collision checking.
	Force bool
}

// IsInline reports whether the entry's content is inline text rather
// than an external reference.
func (e *FileEntry) IsInline() bool {
	return e.HasText
}

// NormalizedTarget is the target with a trailing separator, used only
// for prefix comparisons during ordering.
func (e *FileEntry) NormalizedTarget() string {
	return e.Target + "/"
}
