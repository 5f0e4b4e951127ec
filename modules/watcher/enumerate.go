package watcher

import (
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"strings"
)

const DefaultStoreExt = ".db"

type EnumerateOptions struct {
	Recursive bool
	// StoreExt is the extension of the tracking store. Files carrying it, or
	// one of its sqlite side files, are never tracked.
	StoreExt string
	// StoreName is the base name of the tracking store. It is filtered the
	// same way, which matters when the store has no extension.
	StoreName string
}

// Enumerate expands a watch root into the files to check. A root that is not
// a directory, including one that does not exist, is yielded unchanged.
// Directory read errors are yielded alongside the failing path and do not
// end the enumeration.
func Enumerate(root string, opts EnumerateOptions) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		info, err := os.Stat(root)
		if err != nil || !info.IsDir() {
			yield(root, nil)
			return
		}

		if opts.Recursive {
			opts.walk(root, yield)
		} else {
			opts.readDir(root, yield)
		}
	}
}

func (o EnumerateOptions) walk(root string, yield func(string, error) bool) {
	walkRoot := root
	if info, err := os.Lstat(root); err == nil && info.Mode()&fs.ModeSymlink != 0 {
		// WalkDir does not follow a symlinked root unless it ends in a separator
		walkRoot = root + string(filepath.Separator)
	}

	_ = filepath.WalkDir(walkRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if !yield(path, err) {
				return filepath.SkipAll
			}
			return nil
		}

		if d.IsDir() || !o.keep(path, d) {
			return nil
		}

		if !yield(path, nil) {
			return filepath.SkipAll
		}
		return nil
	})
}

func (o EnumerateOptions) readDir(root string, yield func(string, error) bool) {
	entries, err := os.ReadDir(root)
	if err != nil {
		yield(root, err)
		return
	}

	for _, entry := range entries {
		path := filepath.Join(root, entry.Name())
		if !o.keep(path, entry) {
			continue
		}
		if !yield(path, nil) {
			return
		}
	}
}

func (o EnumerateOptions) keep(path string, d fs.DirEntry) bool {
	if !isFile(path, d) {
		return false
	}

	name := d.Name()
	if strings.HasPrefix(name, ".") {
		return false
	}

	return !o.isStoreFile(name)
}

func (o EnumerateOptions) isStoreFile(name string) bool {
	ext := o.StoreExt
	if ext == "" {
		ext = DefaultStoreExt
	}

	for _, suffix := range []string{"", "-journal", "-wal", "-shm"} {
		if strings.HasSuffix(name, ext+suffix) {
			return true
		}
		if o.StoreName != "" && name == o.StoreName+suffix {
			return true
		}
	}
	return false
}

func isFile(path string, d fs.DirEntry) bool {
	if d.Type().IsRegular() {
		return true
	}
	if d.Type()&fs.ModeSymlink == 0 {
		return false
	}

	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
