package aws

import (
	"context"
	"fmt"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"github.com/imrishuroy/dishflow/internal/events"
)

// EventQueue publishes lifecycle events to an SQS queue. The event JSON is
// the message body; its type, entity id and request id travel as String
// message attributes so subscriptions can filter without parsing the body.
type EventQueue struct {
	SQS      SQSAPI
	QueueURL string
}

var _ events.Publisher = (*EventQueue)(nil)

func NewEventQueue(client SQSAPI, queueURL string) *EventQueue {
	return &EventQueue{SQS: client, QueueURL: queueURL}
}

// Publish implements events.Publisher.
func (q *EventQueue) Publish(ctx context.Context, ev events.Event) error {
	body, err := events.Encode(ev)
	if err != nil {
		return err
	}

	attrs := ev.Attributes()
	msgAttrs := make(map[string]sqstypes.MessageAttributeValue, len(attrs))
	for k, v := range attrs {
		msgAttrs[k] = sqstypes.MessageAttributeValue{
			DataType:    sdkaws.String("String"),
			StringValue: sdkaws.String(v),
		}
	}

	_, err = q.SQS.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:          sdkaws.String(q.QueueURL),
		MessageBody:       sdkaws.String(body),
		MessageAttributes: msgAttrs,
	})
	if err != nil {
		return fmt.Errorf("publish %s %s: %w", ev.Type, ev.EntityID, err)
	}
	return nil
}
