package partuploader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/bitrise-io/go-utils/v2/log"
)

// Uploader uploads parts in fixed-width windows with per-part retry.
type Uploader struct {
	config     Config
	httpClient *http.Client
	logger     log.Logger
	stats      *Stats
	sleep      func(time.Duration)
}

// New creates a new Uploader with the given configuration.
func New(config Config, logger log.Logger) *Uploader {
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = DefaultHTTPClient()
	}
	if config.MaxRetryPerPart == 0 {
		config.MaxRetryPerPart = 3
	}
	sleep := config.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	return &Uploader{
		config:     config,
		httpClient: httpClient,
		logger:     logger,
		stats:      NewStats(),
		sleep:      sleep,
	}
}

// Upload uploads all parts from the provider to the presigned URLs.
// urls[i] is the destination of part number i+1. Parts are processed in
// windows of the configured parallelism: all uploads in a window run
// concurrently and the next window starts only once the current one has
// fully settled. Results are returned in completion order, not part order.
// Any part that exhausts its retry budget fails the whole upload.
func (u *Uploader) Upload(ctx context.Context, provider PartProvider, urls []string) ([]PartResult, error) {
	numParts := provider.NumParts()
	if numParts != len(urls) {
		return nil, fmt.Errorf("part count mismatch: provider has %d parts, but %d URLs provided", numParts, len(urls))
	}
	if numParts == 0 {
		return []PartResult{}, nil
	}

	parallelism := u.config.Parallelism
	if parallelism <= 0 {
		parallelism = ParallelismForSize(totalSize(provider))
	}

	results := make([]PartResult, 0, numParts)
	for start := 0; start < numParts; start += parallelism {
		end := start + parallelism
		if end > numParts {
			end = numParts
		}

		windowResults := make(chan partOutcome, end-start)
		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(index int) {
				defer wg.Done()
				etag, err := u.uploadPartWithRetry(ctx, provider, urls[index], index, numParts)
				windowResults <- partOutcome{index: index, etag: etag, err: err}
			}(i)
		}
		wg.Wait()
		close(windowResults)

		for outcome := range windowResults {
			if outcome.err != nil {
				return nil, fmt.Errorf("part %d failed after %d attempts: %w",
					outcome.index+1, u.config.MaxRetryPerPart, outcome.err)
			}
			results = append(results, PartResult{PartNumber: outcome.index + 1, ETag: outcome.etag})
		}

		u.logger.Infof("Uploaded %d/%d parts (avg %v per part)",
			len(results), numParts, u.stats.Average().Round(time.Second))
	}

	u.logger.Debugf("Slowest part took %v", u.stats.Slowest().Round(time.Millisecond))
	return results, nil
}

// Stats returns the upload statistics.
func (u *Uploader) Stats() *Stats {
	return u.stats
}

type partOutcome struct {
	index int
	etag  string
	err   error
}

func (u *Uploader) uploadPartWithRetry(ctx context.Context, provider PartProvider, url string, index, totalParts int) (string, error) {
	var uploadErr error

	for attempt := 1; attempt <= u.config.MaxRetryPerPart; attempt++ {
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("part %d upload cancelled: %w", index+1, ctx.Err())
		default:
		}

		u.logger.Debugf("Uploading part %d/%d (attempt %d/%d)",
			index+1, totalParts, attempt, u.config.MaxRetryPerPart)

		start := time.Now()
		etag, err := u.uploadPart(ctx, provider, url, index)
		if err == nil {
			took := time.Since(start)
			u.stats.Record(took)
			return etag, nil
		}
		uploadErr = err

		u.logger.Warnf("Part %d attempt %d failed: %v", index+1, attempt, err)
		if attempt < u.config.MaxRetryPerPart {
			backoff := time.Duration(1<<uint(attempt)) * time.Second
			u.sleep(backoff)
		}
	}

	return "", fmt.Errorf("upload part %d: %w", index+1, uploadErr)
}

func (u *Uploader) uploadPart(ctx context.Context, provider PartProvider, url string, index int) (string, error) {
	reader, err := provider.Part(index)
	if err != nil {
		return "", fmt.Errorf("get part %d: %w", index+1, err)
	}

	partSize := provider.PartSize(index)

	// bytes.Reader bodies are rewindable as-is, anything else is buffered
	// so a retried attempt re-reads from the start
	var body io.Reader = reader
	if _, ok := reader.(*bytes.Reader); !ok {
		data, err := io.ReadAll(reader)
		if err != nil {
			return "", fmt.Errorf("read part %d: %w", index+1, err)
		}
		body = bytes.NewReader(data)
		partSize = int64(len(data))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, body)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.ContentLength = partSize

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errorBody := make([]byte, 1024)
		n, _ := io.ReadAtLeast(resp.Body, errorBody, 1)
		return "", fmt.Errorf("upload failed with status %d: %s", resp.StatusCode, string(errorBody[:n]))
	}

	etag := strings.Trim(resp.Header.Get("ETag"), "\"")
	if etag == "" {
		return "", fmt.Errorf("no ETag in response")
	}

	return etag, nil
}

func totalSize(provider PartProvider) int64 {
	var sum int64
	for i := 0; i < provider.NumParts(); i++ {
		sum += provider.PartSize(i)
	}
	return sum
}
