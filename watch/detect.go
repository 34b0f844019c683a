package watch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// Candidate is a save eligible for upload. Recomputed on every check.
type Candidate struct {
	Path       string
	Name       string
	ModifiedAt time.Time
	// IsDir marks a directory-based save. It has to be packed into a single
	// archive before upload.
	IsDir bool
}

// Detector scans a save directory for the newest archive.
type Detector struct {
	// Extension of recognized save archives, including the dot, e.g. ".zip".
	Extension string
	// Pattern is an optional doublestar pattern matched against file names,
	// e.g. "world_*.zip". Empty means every file with Extension matches.
	Pattern string
	// IncludeDirs makes subdirectories candidates too, for games that keep
	// each save as a directory tree instead of a single archive. Only
	// Pattern filters directories, Extension does not apply.
	IncludeDirs bool
}

// Latest returns the save archive with the newest modification time at or
// after since, or nil if there is no eligible file. Files already present
// before the monitoring session started are never candidates, so historical
// saves don't get re-uploaded. Ties are broken by directory listing order,
// first encountered wins.
func (d Detector) Latest(dir string, since time.Time) (*Candidate, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read save directory: %w", err)
	}

	var latest *Candidate
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			continue
		}

		var modTime time.Time
		if entry.IsDir() {
			if !d.IncludeDirs || !d.matchesPattern(entry.Name()) {
				continue
			}
			modTime = newestWithin(filepath.Join(dir, entry.Name()), info.ModTime())
		} else {
			if !d.matches(entry.Name()) {
				continue
			}
			modTime = info.ModTime()
		}
		if modTime.Before(since) {
			continue
		}

		if latest == nil || modTime.After(latest.ModifiedAt) {
			latest = &Candidate{
				Path:       filepath.Join(dir, entry.Name()),
				Name:       entry.Name(),
				ModifiedAt: modTime,
				IsDir:      entry.IsDir(),
			}
		}
	}

	return latest, nil
}

func (d Detector) matches(name string) bool {
	if d.Extension != "" && !strings.EqualFold(filepath.Ext(name), d.Extension) {
		return false
	}
	return d.matchesPattern(name)
}

func (d Detector) matchesPattern(name string) bool {
	if d.Pattern == "" {
		return true
	}
	ok, err := doublestar.Match(d.Pattern, name)
	return err == nil && ok
}

// newestWithin returns the newest modification time among the directory and
// its direct entries. Writing into an existing file doesn't touch the
// directory's own timestamp, so the directory alone would miss in-place
// saves.
func newestWithin(dir string, own time.Time) time.Time {
	newest := own
	entries, err := os.ReadDir(dir)
	if err != nil {
		return newest
	}
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(newest) {
			newest = info.ModTime()
		}
	}
	return newest
}
