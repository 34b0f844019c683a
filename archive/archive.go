// Package archive packs a save directory into a single compressed archive
// so directory-based saves can go through the same upload path as archive
// files.
package archive

import (
	"archive/tar"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/klauspost/compress/zstd"
)

// Packer ...
type Packer struct {
	logger log.Logger
}

// NewPacker ...
func NewPacker(logger log.Logger) *Packer {
	return &Packer{logger: logger}
}

// Pack writes a tar+zstd archive of sourceDir to archivePath. Entries are
// stored with paths relative to sourceDir so unpacking is location
// independent.
func (p *Packer) Pack(archivePath, sourceDir string) error {
	out, err := os.OpenFile(archivePath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("create archive file: %w", err)
	}

	zstdWriter, err := zstd.NewWriter(out)
	if err != nil {
		out.Close() //nolint:errcheck
		return fmt.Errorf("create zstd writer: %w", err)
	}
	tarWriter := tar.NewWriter(zstdWriter)

	walkErr := filepath.Walk(sourceDir, func(file string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(sourceDir, file)
		if err != nil {
			return fmt.Errorf("relativize %s: %w", file, err)
		}
		if relPath == "." {
			return nil
		}

		header, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return fmt.Errorf("create file info header: %w", err)
		}
		header.Name = filepath.ToSlash(relPath)

		if err := tarWriter.WriteHeader(header); err != nil {
			return fmt.Errorf("write tar file header: %w", err)
		}

		if !info.Mode().IsRegular() || info.IsDir() {
			return nil
		}

		data, err := os.Open(file)
		if err != nil {
			return fmt.Errorf("open file: %w", err)
		}
		if _, err := io.Copy(tarWriter, data); err != nil {
			data.Close() //nolint:errcheck
			return fmt.Errorf("copy to archive: %w", err)
		}
		if err := data.Close(); err != nil {
			return fmt.Errorf("close file: %w", err)
		}

		p.logger.Debugf("- %s", relPath)
		return nil
	})
	if walkErr != nil {
		tarWriter.Close()  //nolint:errcheck
		zstdWriter.Close() //nolint:errcheck
		out.Close()        //nolint:errcheck
		return fmt.Errorf("iterate on files: %w", walkErr)
	}

	if err := tarWriter.Close(); err != nil {
		return fmt.Errorf("close tar writer: %w", err)
	}
	if err := zstdWriter.Close(); err != nil {
		return fmt.Errorf("close zstd writer: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close archive file: %w", err)
	}

	return nil
}
