package types

// PlacedEntry records where one FileEntry ended up inside a generation
// image, and which resolved source was used. The resolved source is
// what hook diffing compares across generations.
type PlacedEntry struct {
	Entry     FileEntry
	Source    string // resolved source path the image points at
	ImagePath string // absolute path of the entry inside the image
}

// Generation is one complete, immutable desired-state image of the
// deployed tree. Once built it is never mutated, only superseded.
type Generation struct {
	// Number is assigned monotonically by the store.
	Number int

	// Previous is the predecessor's number, 0 for the first generation.
	Previous int

	// ImageRoot is the directory holding this generation's image.
	ImageRoot string

	// Entries are the placed entries in build order.
	Entries []PlacedEntry
}
