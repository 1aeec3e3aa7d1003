package models

import "time"

type StopReason string

const (
	StopCompleted  StopReason = "completed"
	StopAttemptCap StopReason = "attempt_cap"
	StopDeadline   StopReason = "deadline"
	StopCancelled  StopReason = "cancelled"
)

type TermStop string

const (
	TermTargetReached TermStop = "target_reached"
	TermExhausted     TermStop = "feed_exhausted"
	TermFeedError     TermStop = "feed_error"
	TermInterrupted   TermStop = "interrupted"
	TermNotStarted    TermStop = "not_started"
)

type Outcome string

const (
	OutcomeCollected         Outcome = "collected"
	OutcomeNoMatchingContent Outcome = "no_matching_content"
)

type TermResult struct {
	Term     string   `json:"term" dynamodbav:"term"`
	Attempts int      `json:"attempts" dynamodbav:"attempts"`
	Rows     int      `json:"rows" dynamodbav:"rows"`
	Stop     TermStop `json:"stop" dynamodbav:"stop"`
}

// RunResult summarizes one collection run.
type RunResult struct {
	RunID           string       `json:"run_id" dynamodbav:"run_id"`
	StartedAt       time.Time    `json:"started_at" dynamodbav:"started_at"`
	FinishedAt      time.Time    `json:"finished_at" dynamodbav:"finished_at"`
	Attempts        int          `json:"attempts" dynamodbav:"attempts"`
	VideosProcessed int          `json:"videos_processed" dynamodbav:"videos_processed"`
	BatchesSaved    int          `json:"batches_saved" dynamodbav:"batches_saved"`
	TotalRows       int          `json:"total_rows" dynamodbav:"total_rows"`
	StopReason      StopReason   `json:"stop_reason" dynamodbav:"stop_reason"`
	Outcome         Outcome      `json:"outcome" dynamodbav:"outcome"`
	Terms           []TermResult `json:"terms" dynamodbav:"terms"`
}
