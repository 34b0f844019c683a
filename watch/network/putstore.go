package network

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bitrise-io/go-utils/v2/retryhttp"
	"github.com/hashicorp/go-retryablehttp"
)

// AuthMode selects between anonymous and credentialed uploads.
type AuthMode string

// AuthMode values.
const (
	AuthAnonymous AuthMode = "anonymous"
	AuthAPIKey    AuthMode = "apikey"
)

// PutStore uploads the whole archive with a single raw PUT. The provider
// accepts anonymous uploads or a bearer credential, and serves the object
// under a fixed public path.
type PutStore struct {
	// Endpoint is the provider's upload base URL.
	Endpoint string
	// LocationID is an optional path segment identifying the upload location.
	LocationID string
	// PublicBaseURL is the base of the returned download URL.
	// Defaults to Endpoint.
	PublicBaseURL string
	// AuthMode ...
	AuthMode AuthMode
	// APIKey is the bearer credential for AuthAPIKey mode.
	APIKey string
}

// Upload ...
func (s *PutStore) Upload(ctx context.Context, params UploadParams, logger log.Logger) (string, error) {
	if s.Endpoint == "" {
		return "", &ConfigError{Setting: "endpoint"}
	}
	if s.AuthMode == AuthAPIKey && s.APIKey == "" {
		return "", &ConfigError{Setting: "api key"}
	}

	file, err := os.Open(params.FilePath)
	if err != nil {
		return "", fmt.Errorf("open file: %w", err)
	}
	defer file.Close() //nolint:errcheck

	info, err := file.Stat()
	if err != nil {
		return "", fmt.Errorf("stat file: %w", err)
	}

	fileName := baseFileName(params)
	uploadURL := s.objectURL(s.Endpoint, fileName)

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPut, uploadURL, file)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", contentTypeOrDefault(params))
	req.ContentLength = info.Size()
	if s.AuthMode == AuthAPIKey {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", s.APIKey))
	}

	logger.Debugf("PUT %s", uploadURL)
	resp, err := retryhttp.NewClient(logger).Do(req)
	if err != nil {
		return "", &TransportError{Err: err}
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Printf(err.Error())
		}
	}()

	if !is2xx(resp.StatusCode) {
		return "", unwrapError(resp)
	}

	publicBase := s.PublicBaseURL
	if publicBase == "" {
		publicBase = s.Endpoint
	}
	return s.objectURL(publicBase, fileName), nil
}

func (s *PutStore) objectURL(base, fileName string) string {
	segments := []string{strings.TrimSuffix(base, "/")}
	if s.LocationID != "" {
		segments = append(segments, s.LocationID)
	}
	segments = append(segments, url.PathEscape(fileName))
	return strings.Join(segments, "/")
}
