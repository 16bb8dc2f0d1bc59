// Package apputil provides filesystem helpers for application data
// directories.
package apputil

import (
	"os"
	"path/filepath"
)

// EnsureDir creates the parent directory of a file path if it does not exist.
func EnsureDir(fileName string) (err error) {
	dirName := filepath.Dir(fileName)
	if _, err = os.Stat(dirName); err != nil {
		merr := os.MkdirAll(dirName, os.ModePerm)
		if merr != nil {
			return merr
		}
	}
	return nil
}

// FileExists reports whether the named file exists and is not a directory.
func FileExists(filePath string) bool {
	fi, err := os.Stat(filePath)
	if err != nil {
		return false
	}
	return !fi.IsDir()
}
