package dataset

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spacesedan/tokharvest/internal/models"
)

type MergeResult struct {
	// Added holds the incoming rows that were new, in arrival order.
	Added   []models.CollectedRow
	Total   int
	Written bool
}

// Merge appends the rows of batch whose video_id is not yet in the table and
// publishes the combined table. Within batch the first occurrence of an id wins.
// When nothing new remains the table is left untouched.
func Merge(ctx context.Context, store TableStore, batch []models.CollectedRow) (MergeResult, error) {
	existing, _, err := store.Load(ctx)
	if err != nil {
		return MergeResult{}, fmt.Errorf("[DatasetMerger] failed to load table: %w", err)
	}

	known := KnownIDs(existing)
	added := make([]models.CollectedRow, 0, len(batch))
	for _, row := range batch {
		if _, dup := known[row.VideoID]; dup {
			continue
		}
		known[row.VideoID] = struct{}{}
		added = append(added, row)
	}

	if len(added) == 0 {
		slog.Info("[DatasetMerger] No new rows to merge",
			slog.String("location", store.Location()),
			slog.Int("incoming", len(batch)),
			slog.Int("total", len(existing)))
		return MergeResult{Added: added, Total: len(existing)}, nil
	}

	combined := make([]models.CollectedRow, 0, len(existing)+len(added))
	combined = append(combined, existing...)
	combined = append(combined, added...)

	if err := store.Write(ctx, combined); err != nil {
		return MergeResult{}, fmt.Errorf("[DatasetMerger] failed to write table: %w", err)
	}

	slog.Info("[DatasetMerger] Merged rows into table",
		slog.String("location", store.Location()),
		slog.Int("incoming", len(batch)),
		slog.Int("added", len(added)),
		slog.Int("total", len(combined)))

	return MergeResult{Added: added, Total: len(combined), Written: true}, nil
}

// KnownIDs indexes the video ids present in rows.
func KnownIDs(rows []models.CollectedRow) map[string]struct{} {
	ids := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		ids[r.VideoID] = struct{}{}
	}
	return ids
}
