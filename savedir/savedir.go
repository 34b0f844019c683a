// Package savedir resolves the directory the game writes its saves into.
package savedir

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bitrise-io/go-utils/v2/pathutil"
)

// Locate returns the watched save directory. An explicit override wins,
// otherwise the platform's default save location for gameFolder under the
// user's profile is used. The returned path is verified to exist.
func Locate(override, gameFolder string, pathModifier pathutil.PathModifier, pathChecker pathutil.PathChecker) (string, error) {
	path := override
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		path = filepath.Join(home, defaultSaveBase(), gameFolder)
	}

	absPath, err := pathModifier.AbsPath(path)
	if err != nil {
		return "", fmt.Errorf("resolve save directory %s: %w", path, err)
	}

	exists, err := pathChecker.IsPathExists(absPath)
	if err != nil {
		return "", fmt.Errorf("check save directory %s: %w", absPath, err)
	}
	if !exists {
		return "", fmt.Errorf("save directory doesn't exist: %s", absPath)
	}

	return absPath, nil
}
