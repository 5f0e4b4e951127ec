//go:build darwin || linux

package models

import (
	"fmt"
	"golang.org/x/sys/unix"
)

const (
	S_IFMT  = 0o0170000
	S_IFREG = 0o0100000
	S_IFDIR = 0o0040000
)

// NewFsObject reports existence and kind through stat, so a symlink takes the
// kind of its target, while the modification time comes from lstat.
func NewFsObject(path string) (FsObject, error) {
	var stat unix.Stat_t

	err := unix.Stat(path, &stat)
	if err != nil {
		return FsObject{}, fmt.Errorf("failed to stat path: %w", err)
	}

	obj := FsObject{
		Dir:     stat.Mode&S_IFMT == S_IFDIR,
		Regular: stat.Mode&S_IFMT == S_IFREG,
	}

	err = unix.Lstat(path, &stat)
	if err != nil {
		return FsObject{}, fmt.Errorf("failed to lstat path: %w", err)
	}
	obj.Modified = stat.Mtim.Nano()

	return obj, nil
}
