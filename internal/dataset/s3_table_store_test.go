package dataset

import (
	"bytes"
	"context"
	"io"
	"reflect"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/spacesedan/tokharvest/internal/models"
)

type fakeS3 struct {
	objects map[string][]byte
	puts    int
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[*in.Bucket+"/"+*in.Key]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	if f.objects == nil {
		f.objects = map[string][]byte{}
	}
	f.objects[*in.Bucket+"/"+*in.Key] = data
	f.puts++
	return &s3.PutObjectOutput{}, nil
}

func TestS3TableStore(t *testing.T) {
	client := &fakeS3{}
	store := NewS3TableStore(client, "bucket", "raw/data/tiktok_data.parquet")

	if got := store.Location(); got != "s3://bucket/raw/data/tiktok_data.parquet" {
		t.Fatalf("Location() = %q", got)
	}

	_, found, err := store.Load(context.Background())
	if err != nil || found {
		t.Fatalf("Load() on missing object: found %v err %v", found, err)
	}

	batch := []models.CollectedRow{row("A", ""), row("B", "")}
	if _, err := Merge(context.Background(), store, batch); err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	if _, err := Merge(context.Background(), store, batch); err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	if client.puts != 1 {
		t.Fatalf("puts = %d, want 1", client.puts)
	}

	got, found, err := store.Load(context.Background())
	if err != nil || !found {
		t.Fatalf("Load() found %v err %v", found, err)
	}
	if !reflect.DeepEqual(got, batch) {
		t.Fatalf("Load() = %+v, want %+v", got, batch)
	}
}
