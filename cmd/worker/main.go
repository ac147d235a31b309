package main

import (
	"context"
	"os"

	lambdaevents "github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"github.com/imrishuroy/dishflow/internal/logger"
)

func main() {
	lg, err := logger.New(envOr("DISHFLOW_LOG_LEVEL", "info"), os.Getenv("DISHFLOW_DEVELOPMENT") == "true")
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(2)
	}
	defer func() { _ = lg.Sync() }()

	p := NewProcessor(lg)

	// If RUN_LOCAL=true, simulate a single SQS event for local testing.
	if os.Getenv("RUN_LOCAL") == "true" {
		testBody := os.Getenv("LOCAL_SQS_BODY")
		if testBody == "" {
			testBody = `{"type":"order.created","entity_id":"local-order-1","data":{"status":"pending"},"occurred_at":"2024-01-01T00:00:00Z"}`
		}
		event := lambdaevents.SQSEvent{
			Records: []lambdaevents.SQSMessage{
				{MessageId: "local", Body: testBody},
			},
		}
		if err := p.Handle(context.Background(), event); err != nil {
			lg.Fatal("Local handler error", zap.Error(err))
		}
		return
	}

	lambda.Start(p.Handle)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
