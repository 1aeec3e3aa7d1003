package clients

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

type ImageFetcher struct {
	Client   *http.Client
	MaxBytes int64
}

func NewImageFetcher() *ImageFetcher {
	return &ImageFetcher{
		Client:   &http.Client{Timeout: DEFAULT_IMAGE_TIMEOUT},
		MaxBytes: MAX_IMAGE_BYTES,
	}
}

// Fetch downloads url and returns the body. Any non-2xx status is an error.
func (f *ImageFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("[ImageFetcher] failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", USER_AGENT)

	res, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("[ImageFetcher] request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, res.Body)
		return nil, &HTTPStatusError{URL: url, StatusCode: res.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(res.Body, f.MaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("[ImageFetcher] failed to read body: %w", err)
	}
	if int64(len(data)) > f.MaxBytes {
		return nil, fmt.Errorf("[ImageFetcher] image larger than %d bytes", f.MaxBytes)
	}
	return data, nil
}
