package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("messaging")

// Producer 消息生产者
type Producer struct {
	client        *redis.Client
	maxLen        int64
	contactStream Stream
}

// NewProducer 创建消息生产者
func NewProducer(client *redis.Client, maxLen int64, contactStream string) *Producer {
	if maxLen <= 0 {
		maxLen = 100000
	}
	stream := StreamContact
	if contactStream != "" {
		stream = Stream(contactStream)
	}
	return &Producer{
		client:        client,
		maxLen:        maxLen,
		contactStream: stream,
	}
}

// Publish 发布消息到指定流
func (p *Producer) Publish(ctx context.Context, stream Stream, msg *Message) (string, error) {
	ctx, span := tracer.Start(ctx, "producer.Publish",
		trace.WithAttributes(
			attribute.String("stream", string(stream)),
			attribute.String("message.id", msg.ID),
			attribute.String("message.type", msg.Type),
		))
	defer span.End()

	data, err := json.Marshal(msg)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to marshal message: %w", err)
	}

	result, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: string(stream),
		MaxLen: p.maxLen,
		Approx: true,
		Values: map[string]interface{}{
			"type": msg.Type,
			"data": string(data),
		},
	}).Result()

	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to publish message: %w", err)
	}

	span.SetAttributes(attribute.String("stream.message_id", result))
	return result, nil
}

// PublishContactSubmitted 发布联系表单提交事件
func (p *Producer) PublishContactSubmitted(ctx context.Context, event *ContactSubmittedMessage) (string, error) {
	msg, err := NewMessage(event.ContactID, TypeContactSubmitted, event)
	if err != nil {
		return "", err
	}
	if event.RequestID != "" {
		msg.SetMetadata("request_id", event.RequestID)
	}
	return p.Publish(ctx, p.contactStream, msg)
}
