//go:build !windows && !darwin

package savedir

import "path/filepath"

func defaultSaveBase() string {
	return filepath.Join(".config", "unity3d")
}
