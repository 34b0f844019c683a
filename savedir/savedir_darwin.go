//go:build darwin

package savedir

import "path/filepath"

func defaultSaveBase() string {
	return filepath.Join("Library", "Application Support")
}
