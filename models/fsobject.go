package models

// State is the tracked record of a single path. Nil fields mean the value
// has never been observed.
type State struct {
	Modified *int64
	Checksum *string
}

func (s State) SameModified(modified int64) bool {
	return s.Modified != nil && *s.Modified == modified
}

func (s State) SameChecksum(checksum string) bool {
	return s.Checksum != nil && *s.Checksum == checksum
}

// FsObject is a point in time view of a path on disk.
type FsObject struct {
	// Modified is the lstat modification time in Unix nanoseconds.
	Modified int64
	Dir      bool
	Regular  bool
}
