package network

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/docker/go-units"

	"github.com/savesync/savesync/watch/network/partuploader"
)

// DefaultMultipartThreshold is the file size at which MultipartStore switches
// from the single-request path to a chunked multipart session.
const DefaultMultipartThreshold = 100 * units.MiB

// MultipartStore uploads large archives as a chunked, parallel multipart
// session and falls back to a single form POST below the threshold.
type MultipartStore struct {
	// Endpoint is the provider's base URL.
	Endpoint string
	// Threshold is the minimum file size for a multipart session.
	// Zero means DefaultMultipartThreshold.
	Threshold int64
	// PartConfig tunes the part uploader. Zero value means defaults, with
	// parallelism derived from the file size.
	PartConfig partuploader.Config
}

// NewMultipartStore ...
func NewMultipartStore(endpoint string) *MultipartStore {
	return &MultipartStore{Endpoint: endpoint}
}

// Upload ...
func (s *MultipartStore) Upload(ctx context.Context, params UploadParams, logger log.Logger) (string, error) {
	if s.Endpoint == "" {
		return "", &ConfigError{Setting: "endpoint"}
	}

	info, err := os.Stat(params.FilePath)
	if err != nil {
		return "", fmt.Errorf("stat file: %w", err)
	}

	threshold := s.Threshold
	if threshold == 0 {
		threshold = DefaultMultipartThreshold
	}

	client := newAPIClient(newControlClient(logger), s.Endpoint, logger)
	fileName := baseFileName(params)

	if info.Size() < threshold {
		logger.Debugf("File is below the multipart threshold (%s), uploading in a single request",
			units.HumanSizeWithPrecision(float64(threshold), 3))
		resp, err := client.uploadForm(ctx, params.FilePath, fileName)
		if err != nil {
			return "", fmt.Errorf("upload file: %w", err)
		}
		return fmt.Sprintf("%s/d/%s", s.Endpoint, resp.Data.ShortID), nil
	}

	return s.uploadMultipart(ctx, client, params, fileName, info.Size(), logger)
}

func (s *MultipartStore) uploadMultipart(ctx context.Context, client apiClient, params UploadParams, fileName string, fileSize int64, logger log.Logger) (string, error) {
	contentType := contentTypeOrDefault(params)

	logger.Infof("Starting multipart upload of %s (%s)",
		fileName, units.HumanSizeWithPrecision(float64(fileSize), 3))

	session, err := client.initMultipart(ctx, initUploadRequest{
		FileName: fileName,
		FileSize: fileSize,
		FileType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("init multipart session: %w", err)
	}
	logger.Debugf("Upload ID: %s, %d parts of %s",
		session.UploadID, session.TotalParts, units.HumanSizeWithPrecision(float64(session.ChunkSize), 3))

	if want := partuploader.NumParts(fileSize, session.ChunkSize); session.TotalParts != want {
		return "", fmt.Errorf("provider declared %d parts, expected %d for %d bytes in %d-byte chunks",
			session.TotalParts, want, fileSize, session.ChunkSize)
	}

	urls, err := client.batchPartURLs(ctx, session.Key, session.UploadID, session.TotalParts)
	if err != nil {
		return "", fmt.Errorf("request part URLs: %w", err)
	}
	if len(urls) != session.TotalParts {
		return "", &ProtocolError{
			Op:      "batch-urls",
			Message: fmt.Sprintf("got %d URLs for %d parts", len(urls), session.TotalParts),
		}
	}

	provider, err := partuploader.NewFilePartProvider(params.FilePath, session.ChunkSize)
	if err != nil {
		return "", fmt.Errorf("open file for part reads: %w", err)
	}
	defer provider.Close() //nolint:errcheck

	partConfig := s.PartConfig
	if partConfig.MaxRetryPerPart == 0 {
		partConfig = mergePartConfig(partConfig)
	}
	if partConfig.Parallelism == 0 {
		partConfig.Parallelism = partuploader.ParallelismForSize(fileSize)
	}

	uploader := partuploader.New(partConfig, logger)
	results, err := uploader.Upload(ctx, provider, urls)
	if err != nil {
		// No abort call on the remote store, the half-done session stays
		// orphaned until the provider expires it.
		logger.Warnf("Multipart session %s is left unfinished on the remote store", session.UploadID)
		return "", fmt.Errorf("upload parts: %w", err)
	}

	// Results arrive in completion order from the concurrent windows, the
	// completion endpoint validates against explicit part numbering.
	sort.Slice(results, func(i, j int) bool {
		return results[i].PartNumber < results[j].PartNumber
	})
	for i, result := range results {
		if result.PartNumber != i+1 {
			return "", fmt.Errorf("part %d has no upload result, refusing to finalize", i+1)
		}
	}

	resp, err := client.completeMultipart(ctx, completeUploadRequest{
		Key:         session.Key,
		UploadID:    session.UploadID,
		Parts:       results,
		FileName:    fileName,
		FileSize:    fileSize,
		ContentType: contentType,
	})
	if err != nil {
		return "", &PartialUploadError{UploadID: session.UploadID, Err: err}
	}

	logger.Donef("Multipart upload of %s finished", fileName)
	return fmt.Sprintf("%s/d/%s", s.Endpoint, resp.File.ShortID), nil
}

func mergePartConfig(config partuploader.Config) partuploader.Config {
	defaults := partuploader.DefaultConfig()
	defaults.Parallelism = config.Parallelism
	if config.HTTPClient != nil {
		defaults.HTTPClient = config.HTTPClient
	}
	if config.Sleep != nil {
		defaults.Sleep = config.Sleep
	}
	return defaults
}
