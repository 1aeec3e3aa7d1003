package processing

import (
	"fmt"
	"time"

	"github.com/spacesedan/tokharvest/internal/models"
)

type RecencyMode string

const (
	// RecencyRolling accepts anything posted at or after now minus the window.
	RecencyRolling RecencyMode = "rolling"
	// RecencyCalendarDay accepts only the UTC calendar day containing now minus the window.
	RecencyCalendarDay RecencyMode = "calendar-day"
)

func ParseRecencyMode(s string) (RecencyMode, error) {
	switch RecencyMode(s) {
	case "", RecencyRolling:
		return RecencyRolling, nil
	case RecencyCalendarDay:
		return RecencyCalendarDay, nil
	default:
		return "", fmt.Errorf("[CandidateFilter] unknown recency mode %q", s)
	}
}

// RecencyPolicy bounds posted_ts. Both bounds are inclusive. A zero Window
// disables the recency check.
type RecencyPolicy struct {
	Window time.Duration
	Mode   RecencyMode
}

// Bounds returns the accepted posted_ts range in epoch seconds. hasUpper is false
// for the rolling mode.
func (p RecencyPolicy) Bounds(now time.Time) (from, to int64, hasUpper bool) {
	cutoff := now.Add(-p.Window).UTC()
	if p.Mode != RecencyCalendarDay {
		return cutoff.Unix(), 0, false
	}
	day := time.Date(cutoff.Year(), cutoff.Month(), cutoff.Day(), 0, 0, 0, 0, time.UTC)
	return day.Unix(), day.Add(24*time.Hour).Unix() - 1, true
}

type Reason string

const (
	Accepted         Reason = "accepted"
	TooOld           Reason = "too_old"
	OutsideDay       Reason = "outside_day"
	SeenThisRun      Reason = "seen_this_run"
	AlreadyPersisted Reason = "already_persisted"
)

type Decision struct {
	Accept bool
	Reason Reason
}

// SeenSet tracks ids already handled during the current run.
type SeenSet map[string]struct{}

func (s SeenSet) Add(id string) {
	s[id] = struct{}{}
}

func (s SeenSet) Contains(id string) bool {
	_, ok := s[id]
	return ok
}

// Filter decides whether a candidate should be enriched. The cutoff is fixed
// when the filter is built.
type Filter struct {
	enabled   bool
	from      int64
	to        int64
	hasUpper  bool
	persisted map[string]struct{}
}

func NewFilter(policy RecencyPolicy, now time.Time, persisted map[string]struct{}) *Filter {
	f := &Filter{persisted: persisted}
	if policy.Window > 0 {
		f.enabled = true
		f.from, f.to, f.hasUpper = policy.Bounds(now)
	}
	return f
}

// Cutoff reports the oldest accepted posted_ts, and false when recency is disabled.
func (f *Filter) Cutoff() (int64, bool) {
	return f.from, f.enabled
}

func (f *Filter) Evaluate(c models.VideoCandidate, seen SeenSet) Decision {
	if f.enabled {
		if c.CreatedAt < f.from {
			return Decision{Reason: TooOld}
		}
		if f.hasUpper && c.CreatedAt > f.to {
			return Decision{Reason: OutsideDay}
		}
	}
	if seen.Contains(c.ID) {
		return Decision{Reason: SeenThisRun}
	}
	if _, ok := f.persisted[c.ID]; ok {
		return Decision{Reason: AlreadyPersisted}
	}
	return Decision{Accept: true, Reason: Accepted}
}
