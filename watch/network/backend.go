package network

import (
	"fmt"
)

// Kind identifies a storage backend variant.
type Kind string

// Backend kinds.
const (
	KindSimple    Kind = "simple"
	KindMultipart Kind = "multipart"
	KindPut       Kind = "put"
	KindS3        Kind = "s3"
)

// Config describes the upload target. Immutable for the duration of a check.
type Config struct {
	Kind     Kind
	Endpoint string

	// Put store settings
	LocationID    string
	PublicBaseURL string
	AuthMode      AuthMode
	APIKey        string

	// Multipart settings
	MultipartThreshold int64

	// S3 settings
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	KeyPrefix       string
}

// NewBackend builds the backend adapter for the configured kind.
func NewBackend(config Config) (Backend, error) {
	switch config.Kind {
	case KindSimple:
		return NewSimpleStore(config.Endpoint), nil
	case KindMultipart:
		return &MultipartStore{
			Endpoint:  config.Endpoint,
			Threshold: config.MultipartThreshold,
		}, nil
	case KindPut:
		return &PutStore{
			Endpoint:      config.Endpoint,
			LocationID:    config.LocationID,
			PublicBaseURL: config.PublicBaseURL,
			AuthMode:      config.AuthMode,
			APIKey:        config.APIKey,
		}, nil
	case KindS3:
		return &S3Store{
			Region:          config.Region,
			Bucket:          config.Bucket,
			AccessKeyID:     config.AccessKeyID,
			SecretAccessKey: config.SecretAccessKey,
			KeyPrefix:       config.KeyPrefix,
		}, nil
	default:
		return nil, fmt.Errorf("unknown backend kind: %s", config.Kind)
	}
}
