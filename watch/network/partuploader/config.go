package partuploader

import (
	"net/http"
	"time"

	"github.com/docker/go-units"
)

// Config holds configuration for the part uploader.
type Config struct {
	// Parallelism is the number of parts uploaded concurrently within a window.
	// If 0, it is derived from the total upload size via ParallelismForSize.
	Parallelism int

	// MaxRetryPerPart is the maximum number of attempts per part.
	// Default: 3
	MaxRetryPerPart int

	// HTTPClient is the HTTP client used for part uploads.
	// If nil, a default client is created.
	HTTPClient *http.Client

	// Sleep is called between retry attempts. Defaults to time.Sleep.
	Sleep func(time.Duration)
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Parallelism:     0,
		MaxRetryPerPart: 3,
		HTTPClient:      nil,
		Sleep:           time.Sleep,
	}
}

// ParallelismForSize returns the upload window width for a given total size.
// Larger files get fewer concurrent streams so a single huge upload doesn't
// saturate the connection or trip the provider's rate limiter.
func ParallelismForSize(totalSize int64) int {
	switch {
	case totalSize > 50*units.GiB:
		return 3
	case totalSize > 10*units.GiB:
		return 4
	case totalSize > 1*units.GiB:
		return 5
	default:
		return 6
	}
}

// NumParts returns the number of parts a file of the given size splits into.
func NumParts(fileSize, partSize int64) int {
	if partSize <= 0 {
		return 0
	}
	return int((fileSize + partSize - 1) / partSize)
}

// PartRange returns the byte range [offset, offset+length) of the 1-based
// part number. The ranges of parts 1..NumParts tile [0, fileSize) exactly.
func PartRange(partNumber int, partSize, fileSize int64) (offset, length int64) {
	offset = int64(partNumber-1) * partSize
	end := offset + partSize
	if end > fileSize {
		end = fileSize
	}
	return offset, end - offset
}

// DefaultHTTPClient creates an HTTP client suited for long-running part uploads.
func DefaultHTTPClient() *http.Client {
	return &http.Client{
		// No client-level timeout, a stuck part is bounded by the retry budget
		Timeout: 0,
		Transport: &http.Transport{
			MaxIdleConns:        50,
			MaxConnsPerHost:     20,
			IdleConnTimeout:     10 * time.Second,
			TLSHandshakeTimeout: 5 * time.Second,
			Proxy:               http.ProxyFromEnvironment,
		},
	}
}
