package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/spacesedan/tokharvest/config"
	"github.com/spacesedan/tokharvest/internal/collector"
	"github.com/spacesedan/tokharvest/internal/credentials"
	"github.com/spacesedan/tokharvest/internal/lock"
	"github.com/spacesedan/tokharvest/internal/logging"
)

const (
	// Leave room to flush the last batch before the invocation is killed.
	DEADLINE_SAFETY_MARGIN     = 30 * time.Second
	DEFAULT_MAX_EXECUTION_TIME = 840 * time.Second
)

type responseBody struct {
	Message         string `json:"message"`
	RunID           string `json:"run_id,omitempty"`
	VideosProcessed int    `json:"videos_processed"`
	BatchesSaved    int    `json:"batches_saved"`
	TotalRows       int    `json:"total_rows"`
	StopReason      string `json:"stop_reason,omitempty"`
	Outcome         string `json:"outcome,omitempty"`
}

// init runs once per Lambda cold start
func init() {
	config.LoadEnv(config.AppEnv())
	logging.InitLogger(os.Getenv("LOG_LEVEL"))
	slog.Info("Lambda cold start: initialized", slog.String("environment", config.AppEnv()))
}

// HandleRequest runs one collection pass. It is usually triggered by an
// EventBridge schedule, so the incoming event is only logged.
func HandleRequest(ctx context.Context, event json.RawMessage) (events.APIGatewayProxyResponse, error) {
	slog.Info("Received invocation", slog.Int("event_bytes", len(event)))

	cfg, err := config.Load()
	if err != nil {
		return respond(http.StatusInternalServerError, responseBody{Message: err.Error()}), nil
	}
	cfg.Sink = config.SinkS3
	if cfg.MaxExecutionTime <= 0 {
		cfg.MaxExecutionTime = DEFAULT_MAX_EXECUTION_TIME
	}
	if dl, ok := ctx.Deadline(); ok {
		if remaining := time.Until(dl) - DEADLINE_SAFETY_MARGIN; remaining > 0 && remaining < cfg.MaxExecutionTime {
			cfg.MaxExecutionTime = remaining
		}
	}

	built, err := collector.Build(ctx, cfg)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, credentials.ErrNoCredentials) {
			status = http.StatusUnauthorized
		}
		return respond(status, responseBody{Message: err.Error()}), nil
	}
	defer built.Close()

	res, runErr := built.Runner.Run(ctx)
	body := responseBody{
		Message:         collector.Message(res),
		RunID:           res.RunID,
		VideosProcessed: res.VideosProcessed,
		BatchesSaved:    res.BatchesSaved,
		TotalRows:       res.TotalRows,
		StopReason:      string(res.StopReason),
		Outcome:         string(res.Outcome),
	}

	switch {
	case errors.Is(runErr, lock.ErrLockHeld):
		body.Message = runErr.Error()
		return respond(http.StatusConflict, body), nil
	case runErr != nil:
		body.Message = runErr.Error()
		return respond(http.StatusInternalServerError, body), nil
	}
	return respond(http.StatusOK, body), nil
}

func respond(status int, body responseBody) events.APIGatewayProxyResponse {
	data, err := json.Marshal(body)
	if err != nil {
		data = []byte(`{"message":"failed to encode response"}`)
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(data),
	}
}

func main() {
	lambda.Start(HandleRequest)
}
