package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/yourorg/backtest-dashboard/services/backtest-service/internal/config"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/cenkalti/backoff/v4"
)

// S3Store implements the Store interface on Amazon S3 or a compatible endpoint
type S3Store struct {
	bucket       string
	prefix       string
	retries      uint64
	s3Client     *s3.S3
	s3Uploader   *s3manager.Uploader
	s3Downloader *s3manager.Downloader
}

// NewS3Store creates a new S3Store
func NewS3Store(cfg *config.S3StorageConfig) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 bucket is required")
	}

	awsCfg := &aws.Config{
		Region: aws.String(cfg.Region),
	}
	if cfg.AccessKey != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, "")
	}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}

	// Create AWS session
	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &S3Store{
		bucket:       cfg.Bucket,
		prefix:       cfg.Prefix,
		retries:      cfg.Retries,
		s3Client:     s3.New(sess),
		s3Uploader:   s3manager.NewUploader(sess),
		s3Downloader: s3manager.NewDownloader(sess),
	}, nil
}

// Key returns the object key a backtest id is stored under
func (s *S3Store) Key(id string) (string, error) {
	if err := ValidateID(id); err != nil {
		return "", err
	}
	return s.prefix + documentName(id), nil
}

// Get downloads a backtest document
func (s *S3Store) Get(ctx context.Context, id string) ([]byte, error) {
	key, err := s.Key(id)
	if err != nil {
		return nil, err
	}

	var buf *aws.WriteAtBuffer
	err = s.retry(ctx, func() error {
		buf = aws.NewWriteAtBuffer(nil)
		_, err := s.s3Downloader.DownloadWithContext(ctx, buf, &s3.GetObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		})
		return err
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get object from S3: %w", err)
	}

	return buf.Bytes(), nil
}

// Put uploads a backtest document, replacing any previous version
func (s *S3Store) Put(ctx context.Context, id string, data []byte) error {
	key, err := s.Key(id)
	if err != nil {
		return err
	}

	err = s.retry(ctx, func() error {
		_, err := s.s3Uploader.UploadWithContext(ctx, &s3manager.UploadInput{
			Bucket:      aws.String(s.bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(data),
			ContentType: aws.String("application/json"),
		})
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to upload object to S3: %w", err)
	}

	return nil
}

// Exists checks for a backtest document without downloading it
func (s *S3Store) Exists(ctx context.Context, id string) (bool, error) {
	key, err := s.Key(id)
	if err != nil {
		return false, err
	}

	err = s.retry(ctx, func() error {
		_, err := s.s3Client.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		})
		return err
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to head object in S3: %w", err)
	}

	return true, nil
}

// retry runs op with exponential backoff. Missing objects and client errors
// are permanent.
func (s *S3Store) retry(ctx context.Context, op func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxElapsedTime = 10 * time.Second

	return backoff.Retry(func() error {
		err := op()
		if err != nil && !retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(backoff.WithMaxRetries(b, s.retries), ctx))
}

func isNotFound(err error) bool {
	var aerr awserr.Error
	if errors.As(err, &aerr) {
		switch aerr.Code() {
		case s3.ErrCodeNoSuchKey, "NotFound":
			return true
		}
	}
	var reqErr awserr.RequestFailure
	if errors.As(err, &reqErr) && reqErr.StatusCode() == http.StatusNotFound {
		return true
	}
	return false
}

func retryable(err error) bool {
	if isNotFound(err) {
		return false
	}
	var reqErr awserr.RequestFailure
	if errors.As(err, &reqErr) {
		return reqErr.StatusCode() >= http.StatusInternalServerError || reqErr.StatusCode() == http.StatusTooManyRequests
	}
	return true
}
