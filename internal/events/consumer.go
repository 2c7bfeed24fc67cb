package events

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"registry-backend/internal/shared/telemetry"
)

// SQSAPI is the subset of the SQS client the consumer needs.
type SQSAPI interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// Handler processes one event. Returning an error leaves the message on the
// queue for redelivery.
type Handler func(ctx context.Context, ev Event) error

// ErrPoison marks a message that can never be processed; it is deleted.
var ErrPoison = errors.New("unprocessable event")

// Consumer receives events from SQS and acknowledges handled ones.
type Consumer struct {
	Client            SQSAPI
	QueueURL          string
	VisibilitySeconds int32
}

// Receive long-polls for up to ten messages.
func (c *Consumer) Receive(ctx context.Context) ([]sqstypes.Message, error) {
	resp, err := c.Client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(c.QueueURL),
		MaxNumberOfMessages: 10,
		WaitTimeSeconds:     20,
		VisibilityTimeout:   c.VisibilitySeconds,
		AttributeNames:      []sqstypes.QueueAttributeName{sqstypes.QueueAttributeName("ApproximateReceiveCount")},
	})
	if err != nil {
		return nil, err
	}
	return resp.Messages, nil
}

// Handle decodes msg, runs h and deletes the message on success or when the
// payload is unprocessable. It reports whether the message was deleted.
func (c *Consumer) Handle(ctx context.Context, msg sqstypes.Message, h Handler) bool {
	body := aws.ToString(msg.Body)
	if strings.TrimSpace(body) == "" {
		telemetry.Error("worker.event.empty_body", baseFields(msg, ""))
		return c.delete(ctx, msg, "")
	}

	ev, err := Decode([]byte(body))
	if err != nil {
		fields := baseFields(msg, "")
		fields["body_len"] = len(body)
		fields["error"] = err.Error()
		telemetry.Error("worker.event.decode_failed", fields)
		return c.delete(ctx, msg, "")
	}

	if err := h(ctx, ev); err != nil {
		fields := baseFields(msg, ev.Type)
		fields["error"] = err.Error()
		if errors.Is(err, ErrPoison) {
			telemetry.Error("worker.event.unprocessable", fields)
			return c.delete(ctx, msg, ev.Type)
		}
		telemetry.Error("worker.event.failed", fields)
		return false
	}
	return c.delete(ctx, msg, ev.Type)
}

func (c *Consumer) delete(ctx context.Context, msg sqstypes.Message, t Type) bool {
	receipt := aws.ToString(msg.ReceiptHandle)
	if receipt == "" {
		fields := baseFields(msg, t)
		fields["error"] = "missing receipt handle"
		telemetry.Error("worker.event.delete_failed", fields)
		return false
	}
	if _, err := c.Client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(c.QueueURL),
		ReceiptHandle: aws.String(receipt),
	}); err != nil {
		fields := baseFields(msg, t)
		fields["error"] = err.Error()
		telemetry.Error("worker.event.delete_failed", fields)
		return false
	}
	return true
}

func baseFields(msg sqstypes.Message, t Type) map[string]any {
	fields := map[string]any{
		"sqs_message_id": aws.ToString(msg.MessageId),
		"receive_count":  receiveCount(msg),
	}
	if t != "" {
		fields["type"] = string(t)
	}
	return fields
}

func receiveCount(msg sqstypes.Message) int {
	if msg.Attributes == nil {
		return 0
	}
	parsed, err := strconv.Atoi(msg.Attributes["ApproximateReceiveCount"])
	if err != nil {
		return 0
	}
	return parsed
}
