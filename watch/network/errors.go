package network

import (
	"fmt"
	"io"
	"net/http"
)

// ConfigError means a required setting is missing. It is returned before any
// network call is made.
type ConfigError struct {
	Setting string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("required setting is not configured: %s", e.Setting)
}

// TransportError is a non-2xx response or a network-level failure.
type TransportError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transport failure: %s", e.Err)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ProtocolError means the provider responded with success:false in its JSON
// body. It is never retried.
type ProtocolError struct {
	Op      string
	Message string
}

func (e *ProtocolError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("provider reported failure during %s", e.Op)
	}
	return fmt.Sprintf("provider reported failure during %s: %s", e.Op, e.Message)
}

// PartialUploadError means every part of a multipart session was uploaded
// but the finalize call was rejected. The remote session is left orphaned.
type PartialUploadError struct {
	UploadID string
	Err      error
}

func (e *PartialUploadError) Error() string {
	return fmt.Sprintf("all parts of upload %s succeeded but finalize was rejected: %s", e.UploadID, e.Err)
}

func (e *PartialUploadError) Unwrap() error {
	return e.Err
}

func unwrapError(resp *http.Response) error {
	errorResp, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{StatusCode: resp.StatusCode, Err: err}
	}
	return &TransportError{StatusCode: resp.StatusCode, Body: string(errorResp)}
}

func is2xx(statusCode int) bool {
	return statusCode >= 200 && statusCode < 300
}
