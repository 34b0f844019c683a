package watch

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// uploadTimestampFormat is sortable and free of characters that object
// stores reject in names.
const uploadTimestampFormat = "20060102_150405"

var timestampSuffixPattern = regexp.MustCompile(`_\d{8}_\d{6}$`)

// UploadName derives the remote object name from a candidate file name.
// Any timestamp suffix applied by a previous run and any existing prefix
// token are stripped first, so re-processing an already renamed file never
// stacks a second timestamp or prefix.
func UploadName(fileName, prefix string, now time.Time) string {
	ext := ""
	base := fileName
	if idx := strings.LastIndex(fileName, "."); idx > 0 {
		base = fileName[:idx]
		ext = fileName[idx:]
	}

	for timestampSuffixPattern.MatchString(base) {
		base = timestampSuffixPattern.ReplaceAllString(base, "")
	}
	if prefix != "" {
		base = strings.TrimPrefix(base, prefix+"_")
	}

	timestamp := now.Format(uploadTimestampFormat)
	if prefix != "" {
		return fmt.Sprintf("%s_%s_%s%s", prefix, base, timestamp, ext)
	}
	return fmt.Sprintf("%s_%s%s", base, timestamp, ext)
}
