package db

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/spacesedan/tokharvest/internal/models"
)

type fakeDynamo struct {
	items     map[string]map[string]types.AttributeValue
	throttles int
	puts      int
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.puts++
	if f.throttles > 0 {
		f.throttles--
		return nil, &types.ProvisionedThroughputExceededException{}
	}
	id := in.Item["run_id"].(*types.AttributeValueMemberS).Value
	f.items[*in.TableName+"/"+id] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	id := in.Key["run_id"].(*types.AttributeValueMemberS).Value
	return &dynamodb.GetItemOutput{Item: f.items[*in.TableName+"/"+id]}, nil
}

func TestRunLedgerRoundTrip(t *testing.T) {
	client := &fakeDynamo{items: map[string]map[string]types.AttributeValue{}, throttles: 1}
	ledger := NewRunLedger(client, "")

	started := time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC)
	res := models.RunResult{
		RunID:           "run-1",
		StartedAt:       started,
		FinishedAt:      started.Add(14 * time.Minute),
		Attempts:        200,
		VideosProcessed: 37,
		BatchesSaved:    2,
		TotalRows:       412,
		StopReason:      models.StopAttemptCap,
		Outcome:         models.OutcomeCollected,
		Terms:           []models.TermResult{{Term: "beauty", Attempts: 200, Rows: 37, Stop: models.TermInterrupted}},
	}

	if err := ledger.Record(context.Background(), res, "s3://bucket/table.parquet"); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if client.puts != 2 {
		t.Fatalf("puts = %d, want a retry after throttling", client.puts)
	}

	item := client.items[RUNS_TABLE_NAME+"/run-1"]
	if _, ok := item["expires_at"].(*types.AttributeValueMemberN); !ok {
		t.Fatalf("expires_at missing from item: %v", item)
	}

	got, location, err := ledger.Get(context.Background(), "run-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if location != "s3://bucket/table.parquet" || !reflect.DeepEqual(got, res) {
		t.Fatalf("Get() = %+v, %q\nwant %+v", got, location, res)
	}

	if _, _, err := ledger.Get(context.Background(), "missing"); !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("Get(missing) error = %v", err)
	}
}
