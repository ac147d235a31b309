package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	lambdaevents "github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"github.com/imrishuroy/dishflow/internal/events"
)

// Processor writes one audit log line per lifecycle event.
type Processor struct {
	lg *zap.Logger
}

// NewProcessor creates a worker processor logging to lg.
func NewProcessor(lg *zap.Logger) *Processor {
	return &Processor{lg: lg}
}

// Handle receives an SQS batch event and processes each message.
func (p *Processor) Handle(ctx context.Context, ev lambdaevents.SQSEvent) error {
	p.lg.Debug("Received batch", zap.Int("messages", len(ev.Records)))
	for _, rec := range ev.Records {
		if err := p.processMessage(ctx, rec); err != nil {
			// Lambda retries the batch; repeated failures land in the DLQ.
			p.lg.Error("Process message failed",
				zap.String("message_id", rec.MessageId),
				zap.Error(err),
			)
			return err
		}
	}
	return nil
}

func (p *Processor) processMessage(_ context.Context, rec lambdaevents.SQSMessage) error {
	ev, err := events.Decode(rec.Body)
	if err != nil {
		return fmt.Errorf("invalid message body: %w", err)
	}

	fields := []zap.Field{
		zap.String("message_id", rec.MessageId),
		zap.String("type", string(ev.Type)),
		zap.String("entity", entityOf(ev.Type)),
		zap.String("entity_id", ev.EntityID),
		zap.Time("occurred_at", ev.OccurredAt),
	}
	if ev.RequestID != "" {
		fields = append(fields, zap.String("request_id", ev.RequestID))
	}
	if status := statusOf(ev.Data); status != "" {
		fields = append(fields, zap.String("status", status))
	}

	p.lg.Info("Audit", fields...)
	return nil
}

// entityOf returns the part of an event type before the dot.
func entityOf(t events.Type) string {
	entity, _, _ := strings.Cut(string(t), ".")
	return entity
}

// statusOf extracts the order status from an event snapshot, if any.
func statusOf(data json.RawMessage) string {
	if len(data) == 0 {
		return ""
	}
	var snap struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(data, &snap); err != nil {
		return ""
	}
	return snap.Status
}
