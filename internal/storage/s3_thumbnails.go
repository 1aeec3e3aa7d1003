package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

type S3ThumbnailAPI interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3ThumbnailStore keeps thumbnails under <prefix><video_id>.jpg. Location
// returns the object key.
type S3ThumbnailStore struct {
	client S3ThumbnailAPI
	bucket string
	prefix string
}

func NewS3ThumbnailStore(client S3ThumbnailAPI, bucket, prefix string) *S3ThumbnailStore {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &S3ThumbnailStore{client: client, bucket: bucket, prefix: prefix}
}

func (s *S3ThumbnailStore) Location(videoID string) string {
	return s.prefix + videoID + THUMBNAIL_EXT
}

func (s *S3ThumbnailStore) Exists(ctx context.Context, videoID string) (bool, error) {
	if err := ValidateVideoID(videoID); err != nil {
		return false, fmt.Errorf("[S3ThumbnailStore] %w", err)
	}
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.Location(videoID)),
	})
	if err == nil {
		return true, nil
	}

	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return false, nil
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && (apiErr.ErrorCode() == "NotFound" || apiErr.ErrorCode() == "NoSuchKey") {
		return false, nil
	}
	return false, fmt.Errorf("[S3ThumbnailStore] failed to check %s: %w", s.Location(videoID), err)
}

func (s *S3ThumbnailStore) Put(ctx context.Context, videoID string, data []byte) (string, error) {
	if err := ValidateVideoID(videoID); err != nil {
		return "", fmt.Errorf("[S3ThumbnailStore] %w", err)
	}
	key := s.Location(videoID)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("image/jpeg"),
	})
	if err != nil {
		return "", fmt.Errorf("[S3ThumbnailStore] failed to put %s: %w", key, err)
	}
	slog.Debug("[S3ThumbnailStore] Thumbnail saved",
		slog.String("bucket", s.bucket),
		slog.String("key", key))
	return key, nil
}
