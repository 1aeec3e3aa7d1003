package processing

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"
)

type PacingConfig struct {
	MinDelay   time.Duration
	MaxDelay   time.Duration
	PauseEvery int
	LongPause  time.Duration
}

// Pacer spaces out requests to the remote feed with a jittered delay and a
// longer pause every PauseEvery attempts.
type Pacer struct {
	cfg   PacingConfig
	rng   *rand.Rand
	sleep func(ctx context.Context, d time.Duration) error
}

func NewPacer(cfg PacingConfig, rng *rand.Rand) *Pacer {
	if rng == nil {
		rng = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x9e3779b97f4a7c15))
	}
	if cfg.MaxDelay < cfg.MinDelay {
		cfg.MaxDelay = cfg.MinDelay
	}
	return &Pacer{cfg: cfg, rng: rng, sleep: sleepContext}
}

func (p *Pacer) Jitter() time.Duration {
	span := p.cfg.MaxDelay - p.cfg.MinDelay
	if span <= 0 {
		return p.cfg.MinDelay
	}
	return p.cfg.MinDelay + time.Duration(p.rng.Int64N(int64(span)+1))
}

// Wait blocks for the jittered delay, plus the long pause when attempts is a
// multiple of PauseEvery. Sleeps never run past the deadline.
func (p *Pacer) Wait(ctx context.Context, attempts int, dl Deadline) error {
	if err := p.sleepWithin(ctx, p.Jitter(), dl); err != nil {
		return err
	}
	if p.cfg.PauseEvery > 0 && p.cfg.LongPause > 0 && attempts > 0 && attempts%p.cfg.PauseEvery == 0 {
		slog.Info("[Pacer] Taking a longer pause",
			slog.Int("attempts", attempts),
			slog.Duration("pause", p.cfg.LongPause))
		return p.sleepWithin(ctx, p.cfg.LongPause, dl)
	}
	return nil
}

func (p *Pacer) sleepWithin(ctx context.Context, d time.Duration, dl Deadline) error {
	if rem := dl.Remaining(); rem >= 0 && d > rem {
		d = rem
	}
	if d <= 0 {
		return ctx.Err()
	}
	return p.sleep(ctx, d)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
