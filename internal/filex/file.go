// Package filex has small filesystem helpers shared by the client components.
package filex

import (
	"fmt"
	"os"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
)

// EnsureDir creates dir (and parents) on fs and returns it unchanged.
func EnsureDir(fs afero.Fs, dir string) (string, error) {
	if err := fs.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}

	fi, err := fs.Stat(dir)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", dir, err)
	}
	if !fi.IsDir() {
		return "", fmt.Errorf("%s is not a directory", dir)
	}

	return dir, nil
}

// ExpandHome resolves a leading "~" in path.
func ExpandHome(path string) (string, error) {
	p, err := homedir.Expand(path)
	if err != nil {
		return "", fmt.Errorf("expand %s: %w", path, err)
	}
	return p, nil
}

// WriteFileAtomic writes data to a temp file next to name and renames it
// into place, so readers never see a partial file.
func WriteFileAtomic(fs afero.Fs, name string, data []byte, perm os.FileMode) error {
	tmp := name + ".part"
	if err := afero.WriteFile(fs, tmp, data, perm); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := fs.Rename(tmp, name); err != nil {
		_ = fs.Remove(tmp)
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	return nil
}
