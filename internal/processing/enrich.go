package processing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spacesedan/tokharvest/internal/comments"
	"github.com/spacesedan/tokharvest/internal/media"
	"github.com/spacesedan/tokharvest/internal/models"
)

var ErrCandidateDropped = errors.New("candidate dropped")

type ThumbnailStore interface {
	Exists(ctx context.Context, videoID string) (bool, error)
	Put(ctx context.Context, videoID string, data []byte) (string, error)
	Location(videoID string) string
}

type ImageFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

type CommentSource interface {
	Comments(ctx context.Context, videoID string, count int) comments.Iterator
}

type EnricherConfig struct {
	ThumbnailTimeout time.Duration
	CommentPageSize  int
	TopComments      int
}

// Enricher turns an accepted candidate into a row: metadata from the candidate
// itself, a normalized thumbnail and a ranked comment sample.
type Enricher struct {
	thumbs    ThumbnailStore
	images    ImageFetcher
	comments  CommentSource
	normalize func([]byte) ([]byte, error)
	cfg       EnricherConfig
}

func NewEnricher(thumbs ThumbnailStore, images ImageFetcher, commentSrc CommentSource, cfg EnricherConfig) *Enricher {
	if cfg.ThumbnailTimeout <= 0 {
		cfg.ThumbnailTimeout = 10 * time.Second
	}
	if cfg.CommentPageSize <= 0 {
		cfg.CommentPageSize = DEFAULT_COMMENT_PAGE_SIZE
	}
	if cfg.TopComments <= 0 {
		cfg.TopComments = DEFAULT_TOP_COMMENTS
	}
	return &Enricher{
		thumbs:    thumbs,
		images:    images,
		comments:  commentSrc,
		normalize: media.Normalize,
		cfg:       cfg,
	}
}

// Enrich returns an error wrapping ErrCandidateDropped when no thumbnail could
// be produced. Comment failures only empty the sample.
func (e *Enricher) Enrich(ctx context.Context, c models.VideoCandidate, dl Deadline) (models.CollectedRow, error) {
	location, err := e.ensureThumbnail(ctx, c, dl)
	if err != nil {
		return models.CollectedRow{}, fmt.Errorf("%w: video %s: %w", ErrCandidateDropped, c.ID, err)
	}

	sample := e.sampleComments(ctx, c, dl)
	return models.NewCollectedRow(c, sample, location), nil
}

func (e *Enricher) ensureThumbnail(ctx context.Context, c models.VideoCandidate, dl Deadline) (string, error) {
	exists, err := e.thumbs.Exists(ctx, c.ID)
	if err != nil {
		slog.Warn("[Enricher] Could not check for existing thumbnail, fetching a new one",
			slog.String("video_id", c.ID),
			slog.String("error", err.Error()))
	}
	if exists {
		return e.thumbs.Location(c.ID), nil
	}

	if c.CoverURL == "" {
		return "", errors.New("[Enricher] candidate has no cover url")
	}
	if dl.Exceeded() {
		return "", ErrDeadlineExceeded
	}

	fetchCtx, cancel := context.WithTimeout(ctx, e.cfg.ThumbnailTimeout)
	defer cancel()
	raw, err := e.images.Fetch(fetchCtx, c.CoverURL)
	if err != nil {
		return "", fmt.Errorf("[Enricher] failed to fetch cover: %w", err)
	}

	jpeg, err := e.normalize(raw)
	if err != nil {
		return "", err
	}

	location, err := e.thumbs.Put(ctx, c.ID, jpeg)
	if err != nil {
		return "", err
	}
	return location, nil
}

func (e *Enricher) sampleComments(ctx context.Context, c models.VideoCandidate, dl Deadline) []string {
	if c.Stats.Comments == 0 {
		return []string{}
	}
	if dl.Exceeded() {
		slog.Warn("[Enricher] Deadline reached, skipping comments", slog.String("video_id", c.ID))
		return []string{}
	}

	it := e.comments.Comments(ctx, c.ID, e.cfg.CommentPageSize)
	sample, err := comments.Rank(ctx, it, e.cfg.CommentPageSize, e.cfg.TopComments)
	if err != nil {
		slog.Warn("[Enricher] Failed to fetch comments, continuing without them",
			slog.String("video_id", c.ID),
			slog.String("error", err.Error()))
		return []string{}
	}
	return sample
}
