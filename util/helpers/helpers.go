package helpers

import (
	"os"
	"path/filepath"
)

func CreateDir(dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return os.MkdirAll(dir, 0755)
	}
	return nil
}

// CreateParentDir makes sure the directory holding file exists.
func CreateParentDir(file string) error {
	return CreateDir(filepath.Dir(file))
}
