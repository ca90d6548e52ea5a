// Package fsutil provides file system utility functions.
package fsutil

import (
	"io/fs"
	"path/filepath"
)

// FindNamedFile recursively searches the given root path for the first file
// whose base name matches name exactly. It returns "" when none exists.
func FindNamedFile(rootPath string, name string) (string, error) {
	if name == "" {
		panic("name must not be empty")
	}

	var found string
	err := filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && d.Name() == name {
			found = path
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return found, nil
}
