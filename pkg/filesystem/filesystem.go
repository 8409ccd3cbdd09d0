package filesystem

import (
	"fmt"
	"os"
)

// FileExists returns true if path can be stat'd, whether it is a regular
// file or a device node.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// DirectoryExists returns true if path exists and is a directory.
func DirectoryExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// FileReadToEnd reads the entire file at path into a string.
func FileReadToEnd(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("unable to read %q: %w", path, err)
	}
	return string(data), nil
}
