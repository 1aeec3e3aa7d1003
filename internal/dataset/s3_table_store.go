package dataset

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/spacesedan/tokharvest/internal/models"
)

const PARQUET_CONTENT_TYPE = "application/vnd.apache.parquet"

type S3ObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3TableStore keeps the table in a single object. A PutObject replaces the
// object in one step, so readers never see a partial table.
type S3TableStore struct {
	client S3ObjectAPI
	bucket string
	key    string
}

func NewS3TableStore(client S3ObjectAPI, bucket, key string) *S3TableStore {
	return &S3TableStore{client: client, bucket: bucket, key: key}
}

func (s *S3TableStore) Location() string {
	return fmt.Sprintf("s3://%s/%s", s.bucket, s.key)
}

func (s *S3TableStore) Load(ctx context.Context) ([]models.CollectedRow, bool, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if isMissingObject(err) {
		slog.Info("[S3TableStore] No existing table, starting empty", slog.String("location", s.Location()))
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("[S3TableStore] failed to get %s: %w", s.Location(), err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, false, fmt.Errorf("[S3TableStore] failed to read %s: %w", s.Location(), err)
	}

	rows, err := DecodeRows(data)
	if err != nil {
		return nil, false, fmt.Errorf("[S3TableStore] %s: %w", s.Location(), err)
	}
	return rows, true, nil
}

func (s *S3TableStore) Write(ctx context.Context, rows []models.CollectedRow) error {
	data, err := EncodeRows(rows)
	if err != nil {
		return err
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(PARQUET_CONTENT_TYPE),
	})
	if err != nil {
		return fmt.Errorf("[S3TableStore] failed to put %s: %w", s.Location(), err)
	}

	slog.Debug("[S3TableStore] Table written",
		slog.String("location", s.Location()),
		slog.Int("rows", len(rows)))
	return nil
}

func isMissingObject(err error) bool {
	if err == nil {
		return false
	}
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}
