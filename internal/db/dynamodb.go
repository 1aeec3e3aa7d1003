package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/spacesedan/tokharvest/internal/models"
)

const (
	RUNS_TABLE_NAME = "CollectionRuns"
	RUN_RECORD_TTL  = 30 * 24 * time.Hour
)

var ErrRunNotFound = errors.New("[DynamoDB] run not found")

type DynamoDBAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
}

type runRecord struct {
	models.RunResult
	Location  string `dynamodbav:"location"`
	ExpiresAt int64  `dynamodbav:"expires_at"`
}

// RunLedger stores one summary item per collection run, keyed by run_id.
type RunLedger struct {
	client DynamoDBAPI
	table  string
}

func NewRunLedger(client DynamoDBAPI, table string) *RunLedger {
	if table == "" {
		table = RUNS_TABLE_NAME
	}
	return &RunLedger{client: client, table: table}
}

func (l *RunLedger) Record(ctx context.Context, res models.RunResult, location string) error {
	item, err := attributevalue.MarshalMap(runRecord{
		RunResult: res,
		Location:  location,
		ExpiresAt: res.FinishedAt.Add(RUN_RECORD_TTL).Unix(),
	})
	if err != nil {
		return fmt.Errorf("[DynamoDB] Failed to marshal run %s: %w", res.RunID, err)
	}

	backoff := 500 * time.Millisecond
	for attempt := 1; ; attempt++ {
		_, err = l.client.PutItem(ctx, &dynamodb.PutItemInput{
			TableName: aws.String(l.table),
			Item:      item,
		})
		if err == nil {
			break
		}
		var throttled *types.ProvisionedThroughputExceededException
		if !errors.As(err, &throttled) || attempt == 3 {
			return fmt.Errorf("[DynamoDB] Failed to record run %s: %w", res.RunID, err)
		}
		slog.Warn("[DynamoDB] Throttled while recording run, retrying...",
			slog.Int("retry_attempt", attempt),
			slog.Duration("backoff", backoff))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}

	slog.Info("[DynamoDB] Recorded run",
		slog.String("table", l.table),
		slog.String("run_id", res.RunID))
	return nil
}

func (l *RunLedger) Get(ctx context.Context, runID string) (models.RunResult, string, error) {
	out, err := l.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(l.table),
		Key: map[string]types.AttributeValue{
			"run_id": &types.AttributeValueMemberS{Value: runID},
		},
	})
	if err != nil {
		return models.RunResult{}, "", fmt.Errorf("[DynamoDB] Failed to get run %s: %w", runID, err)
	}
	if len(out.Item) == 0 {
		return models.RunResult{}, "", ErrRunNotFound
	}

	var rec runRecord
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return models.RunResult{}, "", fmt.Errorf("[DynamoDB] Unable to unmarshal run %s: %w", runID, err)
	}
	return rec.RunResult, rec.Location, nil
}
