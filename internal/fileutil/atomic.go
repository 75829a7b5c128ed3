// Package fileutil provides file system utilities.
package fileutil

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

type writeOptions struct {
	parents bool
	syncDir bool
}

// WriteOption adjusts WriteFileAtomic.
type WriteOption func(*writeOptions)

// WithParents creates missing parent directories with mode 0755.
func WithParents() WriteOption {
	return func(o *writeOptions) { o.parents = true }
}

// WithDirSync fsyncs the parent directory after the rename so the new entry
// survives a crash.
func WithDirSync() WriteOption {
	return func(o *writeOptions) { o.syncDir = true }
}

// WriteFileAtomic replaces filename with data. Content is staged in a sibling
// temp file and renamed over the target, so readers never see a partial file.
func WriteFileAtomic(filename string, data []byte, perm os.FileMode, opts ...WriteOption) error {
	var o writeOptions
	for _, opt := range opts {
		opt(&o)
	}

	dir := filepath.Dir(filename)
	if o.parents {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}

	staged, err := stage(dir, filepath.Base(filename), data, perm)
	if err != nil {
		return err
	}
	if err := os.Rename(staged, filename); err != nil {
		return errors.Join(fmt.Errorf("replace %s: %w", filename, err), os.Remove(staged))
	}
	if o.syncDir {
		return syncDir(dir)
	}
	return nil
}

// stage writes data to a new temp file in dir and returns its path. The temp
// file is removed on any failure.
func stage(dir, base string, data []byte, perm os.FileMode) (path string, err error) {
	f, err := os.CreateTemp(dir, "."+base+".*")
	if err != nil {
		return "", fmt.Errorf("stage %s: %w", base, err)
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(f.Name())
		}
	}()

	if _, err = f.Write(data); err != nil {
		return "", fmt.Errorf("stage %s: %w", base, err)
	}
	if err = f.Chmod(perm); err != nil {
		return "", fmt.Errorf("stage %s: chmod: %w", base, err)
	}
	if err = f.Sync(); err != nil {
		return "", fmt.Errorf("stage %s: sync: %w", base, err)
	}
	if err = f.Close(); err != nil {
		return "", fmt.Errorf("stage %s: close: %w", base, err)
	}
	return f.Name(), nil
}

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return fmt.Errorf("sync %s: %w", dir, err)
	}
	defer func() { _ = d.Close() }()
	if err := d.Sync(); err != nil {
		return fmt.Errorf("sync %s: %w", dir, err)
	}
	return nil
}

// WriteJSONAtomic writes v as indented JSON with a trailing newline.
func WriteJSONAtomic(filename string, v any, perm os.FileMode, opts ...WriteOption) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(filename), err)
	}
	return WriteFileAtomic(filename, append(data, '\n'), perm, opts...)
}
