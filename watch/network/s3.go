package network

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/bitrise-io/go-utils/retry"
	"github.com/bitrise-io/go-utils/v2/log"
)

const numS3UploadRetries = 3

// S3Store uploads saves to a user-supplied S3 bucket. The SDK's upload
// manager handles the part splitting for this backend.
type S3Store struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	// KeyPrefix is prepended to the object key, e.g. "saves".
	KeyPrefix string
}

// Upload ...
func (s *S3Store) Upload(ctx context.Context, params UploadParams, logger log.Logger) (string, error) {
	if s.Bucket == "" {
		return "", &ConfigError{Setting: "bucket"}
	}
	if s.Region == "" {
		return "", &ConfigError{Setting: "region"}
	}

	cfg, err := loadAWSConfig(ctx, s.Region, s.AccessKeyID, s.SecretAccessKey, logger)
	if err != nil {
		return "", fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(*cfg)

	key := baseFileName(params)
	if s.KeyPrefix != "" {
		key = fmt.Sprintf("%s/%s", s.KeyPrefix, key)
	}

	if exists, err := s.objectExists(ctx, client, key); err != nil {
		return "", fmt.Errorf("check object: %w", err)
	} else if exists {
		logger.Warnf("Object %s already exists in bucket, it will be overwritten", key)
	}

	err = retry.Times(numS3UploadRetries).Wait(5 * time.Second).TryWithAbort(func(attempt uint) (error, bool) {
		file, err := os.Open(params.FilePath)
		if err != nil {
			return fmt.Errorf("open file: %w", err), true
		}
		defer file.Close() //nolint:errcheck

		var partMB int64 = 10
		uploader := manager.NewUploader(client, func(u *manager.Uploader) {
			u.PartSize = partMB * 1024 * 1024
		})

		_, err = uploader.Upload(ctx, &s3.PutObjectInput{
			Body:        file,
			Bucket:      aws.String(s.Bucket),
			Key:         aws.String(key),
			ContentType: aws.String(contentTypeOrDefault(params)),
		})
		if err != nil {
			return fmt.Errorf("upload save: %w", err), false
		}

		return nil, true
	})
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.Bucket, s.Region, url.PathEscape(key)), nil
}

func (s *S3Store) objectExists(ctx context.Context, client *s3.Client, key string) (bool, error) {
	var exists bool
	err := retry.Times(numS3UploadRetries).Wait(5 * time.Second).TryWithAbort(func(attempt uint) (error, bool) {
		_, err := client.HeadObject(ctx, &s3.HeadObjectInput{
			Bucket: aws.String(s.Bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			var apiError smithy.APIError
			if errors.As(err, &apiError) {
				switch apiError.(type) {
				case *types.NotFound:
					exists = false
					return nil, true
				default:
					return fmt.Errorf("head object: %w", err), false
				}
			}
			return fmt.Errorf("head object: %w", err), false
		}
		exists = true
		return nil, true
	})
	return exists, err
}

func loadAWSConfig(ctx context.Context, region, accessKeyID, secretKey string, logger log.Logger) (*aws.Config, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
	}

	if accessKeyID != "" && secretKey != "" {
		opts = append(opts,
			awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKeyID, secretKey, "")))
	} else {
		logger.Debugf("static aws credentials not defined, loading credentials from environment...")
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load config, %v", err)
	}

	return &cfg, nil
}
