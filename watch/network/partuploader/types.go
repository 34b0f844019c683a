// Package partuploader uploads the parts of a multipart session to their
// presigned destinations with windowed concurrency and per-part retry.
package partuploader

import (
	"io"
)

// PartProvider provides part data for upload.
// Implementations can read from files or memory buffers.
type PartProvider interface {
	// NumParts returns the total number of parts.
	NumParts() int

	// PartSize returns the size of the part at the given index.
	PartSize(index int) int64

	// Part returns a reader for the part at the given index.
	// For retries, Part may be called multiple times for the same index.
	Part(index int) (io.Reader, error)
}

// PartResult is the proof-of-receipt for one uploaded part. PartNumber is
// 1-based, matching the numbering the remote store validates at finalize.
type PartResult struct {
	PartNumber int    `json:"partNumber"`
	ETag       string `json:"etag"`
}
