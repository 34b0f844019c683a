package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/docker/go-units"

	"github.com/savesync/savesync/archive"
	"github.com/savesync/savesync/watch/network"
)

// Notifier delivers a notification about an uploaded save.
// Delivery is best-effort, a failed notification never fails the upload.
type Notifier interface {
	Notify(fileName, url, source string) error
}

// Config for a monitoring session.
type Config struct {
	// SaveDir is the directory watched for new save archives.
	SaveDir string
	// NamePrefix is an optional token prepended to upload names.
	NamePrefix string
	// SourceLabel identifies this machine in notifications.
	SourceLabel string
	// CheckInterval between periodic checks. Default: 5 minutes.
	CheckInterval time.Duration
}

// Watcher watches a save directory and uploads the newest changed save to
// the configured backend. Only one check runs at a time, and a check runs to
// completion or failure before the next may begin.
type Watcher struct {
	config   Config
	detector Detector
	backend  network.Backend
	notifier Notifier
	packer   *archive.Packer
	logger   log.Logger

	now       func() time.Time
	startedAt time.Time

	// lastFingerprint is only mutated after a fully successful upload, so a
	// failed cycle retries the identical candidate on the next check.
	lastFingerprint string
}

// NewWatcher creates a monitoring session starting now. Saves modified
// before the session start are ignored. `notifier` can be nil.
func NewWatcher(config Config, detector Detector, backend network.Backend, notifier Notifier, logger log.Logger) *Watcher {
	return &Watcher{
		config:    config,
		detector:  detector,
		backend:   backend,
		notifier:  notifier,
		packer:    archive.NewPacker(logger),
		logger:    logger,
		now:       time.Now,
		startedAt: time.Now(),
	}
}

// Check runs one detect-fingerprint-upload cycle. It returns the download
// URL when an upload happened and an empty string when there was nothing to
// do. A directory read failure is reported in the log and treated as "no
// candidate".
func (w *Watcher) Check(ctx context.Context) (string, error) {
	candidate, err := w.detector.Latest(w.config.SaveDir, w.startedAt)
	if err != nil {
		w.logger.Warnf("Failed to scan save directory: %s", err)
		return "", nil
	}
	if candidate == nil {
		w.logger.Debugf("No new save found in %s", w.config.SaveDir)
		return "", nil
	}

	uploadPath := candidate.Path
	uploadName := UploadName(candidate.Name, w.config.NamePrefix, w.now())
	contentType := ""
	if candidate.IsDir {
		contentType = "application/zstd"
		archivePath, archiveName, err := w.packDirectory(candidate)
		if err != nil {
			return "", fmt.Errorf("pack save directory: %w", err)
		}
		defer os.Remove(archivePath) //nolint:errcheck
		uploadPath = archivePath
		uploadName = archiveName
	}

	fingerprint, err := fingerprintOfFile(uploadPath)
	if err != nil {
		return "", fmt.Errorf("fingerprint save: %w", err)
	}
	if fingerprint == w.lastFingerprint {
		w.logger.Debugf("Latest save %s is unchanged, skipping upload", candidate.Name)
		return "", nil
	}

	if info, err := os.Stat(uploadPath); err == nil {
		w.logger.Infof("Uploading %s as %s (%s)",
			candidate.Name, uploadName, units.HumanSizeWithPrecision(float64(info.Size()), 3))
	}

	url, err := w.backend.Upload(ctx, network.UploadParams{
		FilePath:    uploadPath,
		FileName:    uploadName,
		ContentType: contentType,
	}, w.logger)
	if err != nil {
		return "", fmt.Errorf("upload failed: %w", err)
	}

	w.lastFingerprint = fingerprint
	w.logger.Donef("Save uploaded: %s", url)

	if w.notifier != nil {
		if err := w.notifier.Notify(uploadName, url, w.config.SourceLabel); err != nil {
			w.logger.Warnf("Failed to send notification: %s", err)
		}
	}

	return url, nil
}

// packDirectory packs a directory-based save into a temporary tar+zstd
// archive named <name>-<timestamp>.tar.zst so it can go through the same
// upload path as single-file saves. The caller removes the archive once
// the upload settled. The archive content only depends on the directory
// content, so its fingerprint still detects unchanged saves.
func (w *Watcher) packDirectory(candidate *Candidate) (string, string, error) {
	name := fmt.Sprintf("%s-%s.tar.zst", candidate.Name, w.now().Format(uploadTimestampFormat))
	if w.config.NamePrefix != "" {
		name = fmt.Sprintf("%s_%s", w.config.NamePrefix, name)
	}

	archivePath := filepath.Join(os.TempDir(), name)
	if err := w.packer.Pack(archivePath, candidate.Path); err != nil {
		return "", "", err
	}
	return archivePath, name, nil
}

// Run checks periodically until ctx is cancelled. Per-cycle failures are
// logged and never stop the loop.
func (w *Watcher) Run(ctx context.Context) {
	interval := w.config.CheckInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	w.logger.Infof("Watching %s, checking every %v", w.config.SaveDir, interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := w.Check(ctx); err != nil {
			w.logger.Errorf("Check cycle failed: %s", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
