package network

import (
	"context"
	"fmt"

	"github.com/bitrise-io/go-utils/v2/log"
)

// SimpleStore uploads the whole archive in a single form POST. Suited for
// small saves and providers without multipart support.
type SimpleStore struct {
	// Endpoint is the provider's base URL.
	Endpoint string
}

// NewSimpleStore ...
func NewSimpleStore(endpoint string) *SimpleStore {
	return &SimpleStore{Endpoint: endpoint}
}

// Upload ...
func (s *SimpleStore) Upload(ctx context.Context, params UploadParams, logger log.Logger) (string, error) {
	if s.Endpoint == "" {
		return "", &ConfigError{Setting: "endpoint"}
	}

	client := newAPIClient(newControlClient(logger), s.Endpoint, logger)

	fileName := baseFileName(params)
	logger.Debugf("Uploading %s in a single request", fileName)
	resp, err := client.uploadForm(ctx, params.FilePath, fileName)
	if err != nil {
		return "", fmt.Errorf("upload file: %w", err)
	}

	return fmt.Sprintf("%s/d/%s", s.Endpoint, resp.Data.ShortID), nil
}
