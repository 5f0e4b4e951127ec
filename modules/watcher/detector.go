package watcher

import (
	"errors"
	"fmt"
	"github.com/Leantar/pollwatch/models"
	"io/fs"
	"syscall"
)

type Store interface {
	Get(path string) (models.State, bool)
	Set(path string, state models.State)
}

// Detector decides whether a path changed since its tracked state was
// recorded. A timestamp change is required before content is hashed.
type Detector struct {
	Checksum string
	hashFile func(path, algo string) (string, error)
}

func NewDetector(checksum string) *Detector {
	return &Detector{
		Checksum: checksum,
		hashFile: models.HashFile,
	}
}

// Detect updates store in place and reports whether path changed. Missing
// paths are never reported. The error is non-nil only when the path exists
// but could not be inspected; its tracked state is then left as it was.
func (d *Detector) Detect(store Store, path string) (bool, error) {
	state, ok := store.Get(path)
	if !ok {
		store.Set(path, state)
	}

	obj, err := models.NewFsObject(path)
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if state.SameModified(obj.Modified) {
		return false, nil
	}

	modified := obj.Modified

	// Directories are tracked by timestamp only. So are other non regular
	// files, which keeps a FIFO from ever being opened.
	if obj.Dir || !obj.Regular {
		state.Modified = &modified
		store.Set(path, state)
		return true, nil
	}

	checksum, err := d.hashFile(path, d.Checksum)
	if err != nil {
		return false, fmt.Errorf("failed to checksum %s: %w", path, err)
	}

	if state.SameChecksum(checksum) {
		// The stored timestamp stays at its old value, so the next run
		// hashes this file again.
		return false, nil
	}

	state.Modified = &modified
	state.Checksum = &checksum
	store.Set(path, state)

	return true, nil
}
