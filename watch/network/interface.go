package network

import (
	"context"

	"github.com/bitrise-io/go-utils/v2/log"
)

// UploadParams ...
type UploadParams struct {
	// FilePath is the local path of the save archive to upload.
	FilePath string
	// FileName is the name the remote store should use for the object.
	FileName string
	// ContentType of the archive. Defaults to application/zip.
	ContentType string
}

// Backend uploads a save archive to a storage provider and returns a stable,
// externally dereferenceable download URL.
type Backend interface {
	Upload(ctx context.Context, params UploadParams, logger log.Logger) (string, error)
}

func contentTypeOrDefault(params UploadParams) string {
	if params.ContentType != "" {
		return params.ContentType
	}
	return "application/zip"
}
