//go:build windows

package savedir

import "path/filepath"

func defaultSaveBase() string {
	return filepath.Join("AppData", "LocalLow")
}
