package clients

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type AWSOptions struct {
	Region string
	// Endpoint overrides the service endpoint, e.g. a localstack or minio URL.
	Endpoint string
}

type AWSClients struct {
	cfg      aws.Config
	endpoint string
}

func NewAWSClients(ctx context.Context, opts AWSOptions) (*AWSClients, error) {
	slog.Info("[AWSClient] Initializing AWS Config...", slog.String("region", opts.Region))
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(opts.Region))
	if err != nil {
		return nil, fmt.Errorf("[AWSClient] failed to load AWS config: %w", err)
	}
	slog.Info("[AWSClient] AWS Config Initialized")
	return &AWSClients{cfg: cfg, endpoint: opts.Endpoint}, nil
}

func (a *AWSClients) S3() *s3.Client {
	return s3.NewFromConfig(a.cfg, func(o *s3.Options) {
		if a.endpoint != "" {
			o.BaseEndpoint = aws.String(a.endpoint)
			o.UsePathStyle = true
		}
	})
}

func (a *AWSClients) DynamoDB() *dynamodb.Client {
	return dynamodb.NewFromConfig(a.cfg, func(o *dynamodb.Options) {
		if a.endpoint != "" {
			o.BaseEndpoint = aws.String(a.endpoint)
		}
	})
}
