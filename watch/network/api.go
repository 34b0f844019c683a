package network

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bitrise-io/go-utils/v2/retryhttp"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/savesync/savesync/watch/network/partuploader"
)

type initUploadRequest struct {
	FileName string `json:"fileName"`
	FileSize int64  `json:"fileSize"`
	FileType string `json:"fileType"`
}

type initUploadResponse struct {
	UploadID   string `json:"uploadId"`
	Key        string `json:"key"`
	ChunkSize  int64  `json:"chunkSize"`
	TotalParts int    `json:"totalParts"`
}

type batchURLsRequest struct {
	Key        string `json:"key"`
	UploadID   string `json:"uploadId"`
	TotalParts int    `json:"totalParts"`
}

type batchURLsResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	URLs    []string `json:"urls"`
}

type completeUploadRequest struct {
	Key         string                    `json:"key"`
	UploadID    string                    `json:"uploadId"`
	Parts       []partuploader.PartResult `json:"parts"`
	FileName    string                    `json:"fileName"`
	FileSize    int64                     `json:"fileSize"`
	ContentType string                    `json:"contentType"`
}

type completeUploadResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	File    struct {
		ShortID string `json:"shortId"`
	} `json:"file"`
}

type simpleUploadResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    struct {
		ShortID string `json:"shortId"`
	} `json:"data"`
}

type apiClient struct {
	httpClient *retryablehttp.Client
	baseURL    string
	logger     log.Logger
}

func newAPIClient(client *retryablehttp.Client, baseURL string, logger log.Logger) apiClient {
	return apiClient{
		httpClient: client,
		baseURL:    baseURL,
		logger:     logger,
	}
}

// newControlClient builds the HTTP client for the provider's control calls
// (form upload, init, batch-urls, complete). Those are never retried at the
// transport level: a failed init or finalize is surfaced to the caller, only
// individual part uploads carry a retry budget.
func newControlClient(logger log.Logger) *retryablehttp.Client {
	client := retryhttp.NewClient(logger)
	client.RetryMax = 0
	// Hand the final response back as-is instead of a "giving up" error, so
	// the status code and body survive into the returned TransportError
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler
	return client
}

// uploadForm uploads the whole file as a single multipart form POST.
func (c apiClient) uploadForm(ctx context.Context, filePath, fileName string) (simpleUploadResponse, error) {
	url := fmt.Sprintf("%s/api/files/upload", c.baseURL)

	file, err := os.Open(filePath)
	if err != nil {
		return simpleUploadResponse{}, fmt.Errorf("open file: %w", err)
	}
	defer c.closeQuietly(file)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		return simpleUploadResponse{}, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return simpleUploadResponse{}, fmt.Errorf("copy file into form: %w", err)
	}
	if err := writer.Close(); err != nil {
		return simpleUploadResponse{}, fmt.Errorf("close form writer: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, url, body.Bytes())
	if err != nil {
		return simpleUploadResponse{}, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return simpleUploadResponse{}, &TransportError{Err: err}
	}
	defer c.closeQuietly(resp.Body)

	if !is2xx(resp.StatusCode) {
		return simpleUploadResponse{}, unwrapError(resp)
	}

	var response simpleUploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return simpleUploadResponse{}, err
	}
	if !response.Success {
		return simpleUploadResponse{}, &ProtocolError{Op: "upload", Message: response.Message}
	}

	return response, nil
}

// initMultipart opens a multipart session on the provider. A failed init is
// fatal, there is no session to recover locally.
func (c apiClient) initMultipart(ctx context.Context, requestBody initUploadRequest) (initUploadResponse, error) {
	url := fmt.Sprintf("%s/api/files/multipart/init", c.baseURL)

	resp, err := c.postJSON(ctx, url, requestBody)
	if err != nil {
		return initUploadResponse{}, err
	}
	defer c.closeQuietly(resp.Body)

	if !is2xx(resp.StatusCode) {
		return initUploadResponse{}, unwrapError(resp)
	}

	var response initUploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return initUploadResponse{}, err
	}

	return response, nil
}

// batchPartURLs requests presigned destinations for all parts in one call.
func (c apiClient) batchPartURLs(ctx context.Context, key, uploadID string, totalParts int) ([]string, error) {
	url := fmt.Sprintf("%s/api/files/multipart/batch-urls", c.baseURL)

	resp, err := c.postJSON(ctx, url, batchURLsRequest{
		Key:        key,
		UploadID:   uploadID,
		TotalParts: totalParts,
	})
	if err != nil {
		return nil, err
	}
	defer c.closeQuietly(resp.Body)

	if !is2xx(resp.StatusCode) {
		return nil, unwrapError(resp)
	}

	var response batchURLsResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, err
	}
	if !response.Success {
		return nil, &ProtocolError{Op: "batch-urls", Message: response.Message}
	}

	return response.URLs, nil
}

func (c apiClient) completeMultipart(ctx context.Context, requestBody completeUploadRequest) (completeUploadResponse, error) {
	url := fmt.Sprintf("%s/api/files/multipart/complete", c.baseURL)

	resp, err := c.postJSON(ctx, url, requestBody)
	if err != nil {
		return completeUploadResponse{}, err
	}
	defer c.closeQuietly(resp.Body)

	if !is2xx(resp.StatusCode) {
		return completeUploadResponse{}, unwrapError(resp)
	}

	var response completeUploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return completeUploadResponse{}, err
	}
	if !response.Success {
		return completeUploadResponse{}, &ProtocolError{Op: "complete", Message: response.Message}
	}

	return response, nil
}

func (c apiClient) postJSON(ctx context.Context, url string, requestBody interface{}) (*http.Response, error) {
	body, err := json.Marshal(requestBody)
	if err != nil {
		return nil, err
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	return resp, nil
}

func (c apiClient) closeQuietly(closer io.Closer) {
	if err := closer.Close(); err != nil {
		c.logger.Printf(err.Error())
	}
}

func baseFileName(params UploadParams) string {
	if params.FileName != "" {
		return params.FileName
	}
	return filepath.Base(params.FilePath)
}
