package processing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spacesedan/tokharvest/internal/models"
)

type VideoIterator interface {
	Next(ctx context.Context) (models.VideoCandidate, error)
}

type FeedSource interface {
	// Videos opens a lazy cursor over the hashtag feed for term. count bounds
	// how many candidates the cursor yields in total.
	Videos(ctx context.Context, term string, count int) VideoIterator
}

type CandidateEnricher interface {
	Enrich(ctx context.Context, c models.VideoCandidate, dl Deadline) (models.CollectedRow, error)
}

type RowSink interface {
	Add(ctx context.Context, row models.CollectedRow) error
}

type WalkerConfig struct {
	Terms         []string
	AttemptCap    int
	PerTermTarget int
	FeedOverfetch int
	Deadline      Deadline
	Pacing        PacingConfig
}

func (c WalkerConfig) Validate() error {
	if c.AttemptCap <= 0 {
		return fmt.Errorf("[FeedWalker] attempt cap must be positive, got %d", c.AttemptCap)
	}
	if c.PerTermTarget <= 0 {
		return fmt.Errorf("[FeedWalker] per-term target must be positive, got %d", c.PerTermTarget)
	}
	return nil
}

type Summary struct {
	Attempts int
	Rows     int
	Stop     models.StopReason
	Terms    []models.TermResult
}

// Walker drives the sequential pull, filter, enrich and emit loop over every
// search term.
type Walker struct {
	cfg      WalkerConfig
	feed     FeedSource
	filter   *Filter
	enricher CandidateEnricher
	sink     RowSink
	pacer    *Pacer
	seen     SeenSet
}

func NewWalker(cfg WalkerConfig, feed FeedSource, filter *Filter, enricher CandidateEnricher, sink RowSink, pacer *Pacer) (*Walker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.FeedOverfetch <= 0 {
		cfg.FeedOverfetch = DEFAULT_FEED_OVERFETCH
	}
	if pacer == nil {
		pacer = NewPacer(cfg.Pacing, nil)
	}
	return &Walker{
		cfg:      cfg,
		feed:     feed,
		filter:   filter,
		enricher: enricher,
		sink:     sink,
		pacer:    pacer,
		seen:     make(SeenSet),
	}, nil
}

func (w *Walker) Run(ctx context.Context) Summary {
	s := Summary{Stop: models.StopCompleted, Terms: make([]models.TermResult, 0, len(w.cfg.Terms))}

	for i, term := range w.cfg.Terms {
		if stop, ok := w.globalStop(ctx, s.Attempts); ok {
			s.Stop = stop
			for _, rest := range w.cfg.Terms[i:] {
				s.Terms = append(s.Terms, models.TermResult{Term: rest, Stop: models.TermNotStarted})
			}
			break
		}

		tr, stop := w.walkTerm(ctx, term, &s)
		s.Terms = append(s.Terms, tr)
		if stop == "" && w.cfg.Deadline.Exceeded() {
			stop = models.StopDeadline
		}
		if stop != "" {
			s.Stop = stop
			for _, rest := range w.cfg.Terms[i+1:] {
				s.Terms = append(s.Terms, models.TermResult{Term: rest, Stop: models.TermNotStarted})
			}
			break
		}
	}

	slog.Info("[FeedWalker] Walk finished",
		slog.String("stop_reason", string(s.Stop)),
		slog.Int("attempts", s.Attempts),
		slog.Int("rows", s.Rows))
	return s
}

// walkTerm returns a non-empty StopReason when the whole run has to stop.
func (w *Walker) walkTerm(ctx context.Context, term string, s *Summary) (models.TermResult, models.StopReason) {
	tr := models.TermResult{Term: term}
	count := w.cfg.PerTermTarget * w.cfg.FeedOverfetch

	// Remote calls made for this term never outlive the run deadline.
	termCtx, cancel := w.cfg.Deadline.Bound(ctx)
	defer cancel()
	it := w.feed.Videos(termCtx, term, count)

	slog.Info("[FeedWalker] Walking term",
		slog.String("term", term),
		slog.Int("target", w.cfg.PerTermTarget),
		slog.Int("feed_count", count))

	for {
		if stop, ok := w.globalStop(ctx, s.Attempts); ok {
			tr.Stop = models.TermInterrupted
			return tr, stop
		}

		c, err := it.Next(termCtx)
		var malformed *models.MalformedRecordError
		if errors.As(err, &malformed) {
			s.Attempts++
			tr.Attempts++
			slog.Warn("[FeedWalker] Skipping unreadable feed item",
				slog.String("term", term),
				slog.String("error", err.Error()))
			continue
		}
		if errors.Is(err, models.ErrEndOfFeed) {
			tr.Stop = models.TermExhausted
			slog.Info("[FeedWalker] Feed exhausted for term",
				slog.String("term", term),
				slog.Int("rows", tr.Rows))
			return tr, ""
		}
		if err != nil {
			if ctx.Err() != nil {
				tr.Stop = models.TermInterrupted
				return tr, models.StopCancelled
			}
			if w.cfg.Deadline.Expired(termCtx) {
				tr.Stop = models.TermInterrupted
				slog.Warn("[FeedWalker] Deadline reached during feed fetch", slog.String("term", term))
				return tr, models.StopDeadline
			}
			tr.Stop = models.TermFeedError
			slog.Error("[FeedWalker] Feed failed, skipping term",
				slog.String("term", term),
				slog.String("error", err.Error()))
			return tr, ""
		}

		s.Attempts++
		tr.Attempts++

		decision := w.filter.Evaluate(c, w.seen)
		if !decision.Accept {
			slog.Debug("[FeedWalker] Candidate rejected",
				slog.String("video_id", c.ID),
				slog.String("reason", string(decision.Reason)))
			if w.cfg.Deadline.Exceeded() {
				tr.Stop = models.TermInterrupted
				return tr, models.StopDeadline
			}
			continue
		}
		w.seen.Add(c.ID)

		row, err := w.enricher.Enrich(termCtx, c, w.cfg.Deadline)
		if err != nil {
			slog.Warn("[FeedWalker] Candidate dropped",
				slog.String("video_id", c.ID),
				slog.String("error", err.Error()))
			if ctx.Err() != nil {
				tr.Stop = models.TermInterrupted
				return tr, models.StopCancelled
			}
			if w.cfg.Deadline.Expired(termCtx) {
				tr.Stop = models.TermInterrupted
				return tr, models.StopDeadline
			}
			continue
		}

		if err := w.sink.Add(ctx, row); err != nil {
			slog.Error("[FeedWalker] Failed to flush batch, rows kept for the next flush",
				slog.String("error", err.Error()))
		}
		s.Rows++
		tr.Rows++

		slog.Info("[FeedWalker] Collected video",
			slog.String("term", term),
			slog.String("video_id", c.ID),
			slog.Int("term_rows", tr.Rows),
			slog.Int("attempts", s.Attempts))

		if w.cfg.Deadline.Exceeded() {
			tr.Stop = models.TermInterrupted
			return tr, models.StopDeadline
		}
		if tr.Rows >= w.cfg.PerTermTarget {
			tr.Stop = models.TermTargetReached
			slog.Info("[FeedWalker] Term target reached", slog.String("term", term), slog.Int("rows", tr.Rows))
			return tr, ""
		}

		if err := w.pacer.Wait(ctx, s.Attempts, w.cfg.Deadline); err != nil {
			tr.Stop = models.TermInterrupted
			return tr, models.StopCancelled
		}
	}
}

func (w *Walker) globalStop(ctx context.Context, attempts int) (models.StopReason, bool) {
	switch {
	case ctx.Err() != nil:
		slog.Warn("[FeedWalker] Context cancelled, stopping")
		return models.StopCancelled, true
	case w.cfg.Deadline.Exceeded():
		slog.Warn("[FeedWalker] Deadline reached, stopping", slog.Time("deadline", w.cfg.Deadline.At()))
		return models.StopDeadline, true
	case attempts >= w.cfg.AttemptCap:
		slog.Info("[FeedWalker] Attempt cap reached, stopping", slog.Int("cap", w.cfg.AttemptCap))
		return models.StopAttemptCap, true
	}
	return "", false
}
