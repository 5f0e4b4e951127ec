//go:build windows

package models

import (
	"fmt"
	"os"
)

func NewFsObject(path string) (FsObject, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FsObject{}, fmt.Errorf("failed to stat path: %w", err)
	}

	obj := FsObject{
		Dir:     info.IsDir(),
		Regular: info.Mode().IsRegular(),
	}

	linfo, err := os.Lstat(path)
	if err != nil {
		return FsObject{}, fmt.Errorf("failed to lstat path: %w", err)
	}
	obj.Modified = linfo.ModTime().UnixNano()

	return obj, nil
}
