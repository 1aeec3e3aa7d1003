package comments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/spacesedan/tokharvest/internal/models"
)

const (
	DefaultPageSize = 50
	DefaultTopK     = 5
)

// Iterator yields comments lazily. Next returns models.ErrEndOfFeed when the
// stream is exhausted and a *models.MalformedRecordError for a single unreadable
// record.
type Iterator interface {
	Next(ctx context.Context) (models.Comment, error)
}

// Rank reads at most one page of comments and returns the text of the k with the
// highest score. Equal scores keep their arrival order. The result is never nil.
func Rank(ctx context.Context, it Iterator, pageSize, k int) ([]string, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if k <= 0 {
		return []string{}, nil
	}

	page := make([]models.Comment, 0, pageSize)
	skipped := 0
	for read := 0; read < pageSize; read++ {
		c, err := it.Next(ctx)
		if errors.Is(err, models.ErrEndOfFeed) {
			break
		}
		var malformed *models.MalformedRecordError
		if errors.As(err, &malformed) {
			skipped++
			continue
		}
		if err != nil {
			return []string{}, fmt.Errorf("[CommentRanker] failed to read comment: %w", err)
		}
		page = append(page, c)
	}

	if skipped > 0 {
		slog.Debug("[CommentRanker] Skipped malformed comments", slog.Int("skipped", skipped))
	}

	slices.SortStableFunc(page, func(a, b models.Comment) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return 0
		}
	})

	top := make([]string, 0, min(k, len(page)))
	for _, c := range page[:min(k, len(page))] {
		top = append(top, c.Text)
	}
	return top, nil
}
