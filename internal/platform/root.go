package platform

import (
	"fmt"
	"os"
	"path/filepath"
)

// FindRoot looks upwards from startDir for an fs store root, recognised by
// its system directory (".aquarium") or its rooms directory next to a .git.
func FindRoot(startDir string) (string, error) {
	abs, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	dir := abs
	for {
		if hasFile(dir, ".aquarium") || (hasFile(dir, ".git") && hasFile(dir, "rooms")) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("root not found")
}

// DefaultDataDir is where the fs and sqlite adapters keep rooms when no
// path is given and no store root is found above the working directory.
func DefaultDataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "aquarium")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".aquarium-data"
	}
	return filepath.Join(home, ".local", "share", "aquarium")
}

func hasFile(dir, name string) bool {
	path := filepath.Join(dir, name)
	_, err := os.Stat(path)
	return err == nil
}
