package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"
)

const THUMBNAIL_EXT = ".jpg"

var ErrInvalidVideoID = errors.New("invalid video id")

// ValidateVideoID accepts only ids that are safe as a file name or object key
// segment: letters, digits, '_' and '-'.
func ValidateVideoID(videoID string) error {
	if videoID == "" {
		return fmt.Errorf("%w: empty", ErrInvalidVideoID)
	}
	for _, r := range videoID {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_', r == '-':
		default:
			return fmt.Errorf("%w: %q", ErrInvalidVideoID, videoID)
		}
	}
	return nil
}

// LocalThumbnailStore keeps thumbnails as <dir>/<video_id>.jpg.
type LocalThumbnailStore struct {
	dir string
}

func NewLocalThumbnailStore(dir string) (*LocalThumbnailStore, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("[LocalThumbnailStore] failed to resolve %s: %w", dir, err)
	}
	return &LocalThumbnailStore{dir: abs}, nil
}

func (s *LocalThumbnailStore) Location(videoID string) string {
	return filepath.Join(s.dir, videoID+THUMBNAIL_EXT)
}

func (s *LocalThumbnailStore) Exists(ctx context.Context, videoID string) (bool, error) {
	if err := ValidateVideoID(videoID); err != nil {
		return false, fmt.Errorf("[LocalThumbnailStore] %w", err)
	}
	_, err := os.Stat(s.Location(videoID))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("[LocalThumbnailStore] failed to stat thumbnail: %w", err)
	}
	return true, nil
}

func (s *LocalThumbnailStore) Put(ctx context.Context, videoID string, data []byte) (string, error) {
	if err := ValidateVideoID(videoID); err != nil {
		return "", fmt.Errorf("[LocalThumbnailStore] %w", err)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("[LocalThumbnailStore] failed to create directory: %w", err)
	}
	loc := s.Location(videoID)
	if err := renameio.WriteFile(loc, data, 0o644); err != nil {
		return "", fmt.Errorf("[LocalThumbnailStore] failed to write %s: %w", loc, err)
	}
	slog.Debug("[LocalThumbnailStore] Thumbnail saved", slog.String("path", loc))
	return loc, nil
}
