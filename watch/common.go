package watch

import (
	"crypto/md5" //nolint:gosec
	"encoding/hex"
	"io"
	"os"
)

// fingerprintOfFile returns a hex-encoded MD5 digest of the file's content.
// Used for change detection only, not for security, so a 128-bit digest
// without collision resistance is enough.
func fingerprintOfFile(path string) (string, error) {
	hash := md5.New() //nolint:gosec

	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close() //nolint:errcheck

	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}

	return hex.EncodeToString(hash.Sum(nil)), nil
}
