package aws

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

// maxDelay is the largest per-message delay SQS accepts.
const maxDelay = 15 * time.Minute

// Message is one SQS message. Attributes are sent as String message attributes.
type Message struct {
	Body       string
	Attributes map[string]string
	Delay      time.Duration
}

// Publisher sends messages to a single queue.
type Publisher struct {
	SQS      SQSAPI
	QueueURL string
}

func NewPublisher(sqsClient SQSAPI, queueURL string) *Publisher {
	return &Publisher{SQS: sqsClient, QueueURL: queueURL}
}

// Publish sends msg and returns the SQS message id.
func (p *Publisher) Publish(ctx context.Context, msg Message) (string, error) {
	input := &sqs.SendMessageInput{
		QueueUrl:    &p.QueueURL,
		MessageBody: &msg.Body,
	}
	if msg.Delay > 0 {
		d := msg.Delay
		if d > maxDelay {
			d = maxDelay
		}
		input.DelaySeconds = int32(d / time.Second)
	}
	if len(msg.Attributes) > 0 {
		input.MessageAttributes = make(map[string]sqstypes.MessageAttributeValue, len(msg.Attributes))
		for k, v := range msg.Attributes {
			input.MessageAttributes[k] = sqstypes.MessageAttributeValue{
				DataType:    awsString("String"),
				StringValue: awsString(v),
			}
		}
	}

	out, err := p.SQS.SendMessage(ctx, input)
	if err != nil {
		return "", fmt.Errorf("send message to %s: %w", p.QueueURL, err)
	}
	if out.MessageId == nil {
		return "", nil
	}
	return *out.MessageId, nil
}

// PublishJSON encodes v as the message body.
func (p *Publisher) PublishJSON(ctx context.Context, v any, attributes map[string]string, delay time.Duration) (string, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode message: %w", err)
	}
	return p.Publish(ctx, Message{Body: string(body), Attributes: attributes, Delay: delay})
}

func awsString(s string) *string { return &s }
