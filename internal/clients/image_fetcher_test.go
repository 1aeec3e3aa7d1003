package clients

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestImageFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok.jpeg":
			w.Write([]byte("image-bytes"))
		case "/big.jpeg":
			w.Write(make([]byte, 64))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := NewImageFetcher()
	f.MaxBytes = 32
	ctx := context.Background()

	data, err := f.Fetch(ctx, srv.URL+"/ok.jpeg")
	if err != nil || string(data) != "image-bytes" {
		t.Fatalf("Fetch() = %q, %v", data, err)
	}

	_, err = f.Fetch(ctx, srv.URL+"/missing.jpeg")
	var statusErr *HTTPStatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusNotFound {
		t.Fatalf("Fetch() missing error = %v", err)
	}

	if _, err := f.Fetch(ctx, srv.URL+"/big.jpeg"); err == nil {
		t.Fatal("Fetch() accepted an oversized body")
	}
}
