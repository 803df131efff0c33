// Package fsutil provides file system utility functions.
package fsutil

import (
	"io/fs"
	"os"
	"path/filepath"
)

// DiscoverServices returns the names of the immediate subdirectories of
// rootPath that contain the given marker file, in lexical order.
func DiscoverServices(rootPath, marker string) ([]string, error) {
	if marker == "" {
		panic("marker must not be empty")
	}

	entries, err := os.ReadDir(rootPath)
	if err != nil {
		return nil, err
	}

	var services []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(rootPath, entry.Name(), marker)); err == nil {
			services = append(services, entry.Name())
		}
	}
	return services, nil
}

// DirSize recursively walks rootPath and returns the number of regular
// files and their total size in bytes. A missing root reports zero usage
// rather than an error.
func DirSize(rootPath string) (int, int64, error) {
	var files int
	var bytes int64

	err := filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		files++
		bytes += info.Size()
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return 0, 0, nil
		}
		return 0, 0, err
	}
	return files, bytes, nil
}
