package monitoring

import (
	"context"
	"log/slog"
	"time"
)

const HEARTBEAT_INTERVAL = 30 * time.Second

// Progress is a point-in-time view of a running collection.
type Progress struct {
	Pending      int
	BatchesSaved int
	TotalRows    int
	Remaining    time.Duration
}

// ProgressFunc must be safe to call from another goroutine.
type ProgressFunc func() Progress

// ReportProgress logs a heartbeat every interval until ctx is done. It warns
// once the remaining budget drops below one interval.
func ReportProgress(ctx context.Context, interval time.Duration, snapshot ProgressFunc) {
	if interval <= 0 {
		interval = HEARTBEAT_INTERVAL
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p := snapshot()
			attrs := []any{
				slog.Int("pending", p.Pending),
				slog.Int("batches_saved", p.BatchesSaved),
				slog.Int("total_rows", p.TotalRows),
			}
			if p.Remaining >= 0 {
				attrs = append(attrs, slog.Duration("remaining", p.Remaining))
			}
			slog.Info("[Heartbeat] Run in progress", attrs...)
			if p.Remaining >= 0 && p.Remaining < interval {
				slog.Warn("[Heartbeat] Execution budget nearly spent", slog.Duration("remaining", p.Remaining))
			}
		}
	}
}
