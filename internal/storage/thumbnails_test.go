package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

func TestLocalThumbnailStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "thumbnails")
	store, err := NewLocalThumbnailStore(dir)
	if err != nil {
		t.Fatalf("NewLocalThumbnailStore() error = %v", err)
	}
	ctx := context.Background()

	if ok, err := store.Exists(ctx, "123"); err != nil || ok {
		t.Fatalf("Exists() before put = %v, %v", ok, err)
	}

	loc, err := store.Put(ctx, "123", []byte("jpeg bytes"))
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if loc != filepath.Join(dir, "123.jpg") || loc != store.Location("123") {
		t.Fatalf("Put() location = %q", loc)
	}
	if !filepath.IsAbs(loc) {
		t.Errorf("location %q is not absolute", loc)
	}

	data, err := os.ReadFile(loc)
	if err != nil || string(data) != "jpeg bytes" {
		t.Fatalf("stored data = %q, %v", data, err)
	}
	if ok, err := store.Exists(ctx, "123"); err != nil || !ok {
		t.Fatalf("Exists() after put = %v, %v", ok, err)
	}
}

type fakeThumbS3 struct {
	objects map[string][]byte
	headErr error
}

func (f *fakeThumbS3) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if f.headErr != nil {
		return nil, f.headErr
	}
	if _, ok := f.objects[*in.Key]; !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{}, nil
}

func (f *fakeThumbS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, _ := io.ReadAll(in.Body)
	f.objects[*in.Key] = data
	if *in.ContentType != "image/jpeg" {
		return nil, errors.New("unexpected content type")
	}
	return &s3.PutObjectOutput{}, nil
}

func TestS3ThumbnailStore(t *testing.T) {
	client := &fakeThumbS3{objects: map[string][]byte{}}
	store := NewS3ThumbnailStore(client, "bucket", "raw/thumbnails")
	ctx := context.Background()

	if got := store.Location("42"); got != "raw/thumbnails/42.jpg" {
		t.Fatalf("Location() = %q", got)
	}
	if ok, err := store.Exists(ctx, "42"); err != nil || ok {
		t.Fatalf("Exists() before put = %v, %v", ok, err)
	}

	key, err := store.Put(ctx, "42", []byte{0xff, 0xd8})
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if key != "raw/thumbnails/42.jpg" || !bytes.Equal(client.objects[key], []byte{0xff, 0xd8}) {
		t.Fatalf("Put() stored %q = %v", key, client.objects[key])
	}
	if ok, err := store.Exists(ctx, "42"); err != nil || !ok {
		t.Fatalf("Exists() after put = %v, %v", ok, err)
	}

	client.headErr = errors.New("access denied")
	if _, err := store.Exists(ctx, "42"); err == nil {
		t.Fatal("Exists() swallowed a non-404 error")
	}
}

func TestThumbnailStoresRejectUnsafeIDs(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "thumbnails")
	local, err := NewLocalThumbnailStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	client := &fakeThumbS3{objects: map[string][]byte{}}
	remote := NewS3ThumbnailStore(client, "bucket", "raw/thumbnails/")
	ctx := context.Background()

	for _, id := range []string{"", "../escape", "a/b", "..", "7 1", `x\y`} {
		if _, err := local.Put(ctx, id, []byte{1}); !errors.Is(err, ErrInvalidVideoID) {
			t.Errorf("local Put(%q) error = %v, want ErrInvalidVideoID", id, err)
		}
		if _, err := local.Exists(ctx, id); !errors.Is(err, ErrInvalidVideoID) {
			t.Errorf("local Exists(%q) error = %v, want ErrInvalidVideoID", id, err)
		}
		if _, err := remote.Put(ctx, id, []byte{1}); !errors.Is(err, ErrInvalidVideoID) {
			t.Errorf("s3 Put(%q) error = %v, want ErrInvalidVideoID", id, err)
		}
	}

	if _, err := os.Stat(filepath.Join(filepath.Dir(dir), "escape.jpg")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("file written outside the thumbnail dir: %v", err)
	}
	if len(client.objects) != 0 {
		t.Fatalf("objects written for unsafe ids: %v", client.objects)
	}
	if err := ValidateVideoID("7301234567890123456"); err != nil {
		t.Fatalf("ValidateVideoID() rejected a numeric id: %v", err)
	}
}
