package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const messageType = "photo.notification.requested"

// RabbitMQPublisher publishes with publisher confirms on a short-lived channel.
type RabbitMQPublisher struct {
	client *RabbitMQ
}

func NewRabbitMQPublisher(client *RabbitMQ) *RabbitMQPublisher {
	return &RabbitMQPublisher{client: client}
}

func (p *RabbitMQPublisher) Publish(ctx context.Context, queue string, msg PhotoNotificationMessage) error {
	if p == nil || p.client == nil {
		return fmt.Errorf("publisher is not initialized")
	}
	if queue == "" {
		return fmt.Errorf("queue name is required")
	}
	if err := msg.Validate(); err != nil {
		return fmt.Errorf("invalid photo notification message: %w", err)
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal photo notification message: %w", err)
	}

	ch, err := p.client.channel(ctx)
	if err != nil {
		return err
	}
	defer ch.Close()

	if err := ch.Confirm(false); err != nil {
		return fmt.Errorf("failed to enable publisher confirms: %w", err)
	}

	publishing := amqp.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp.Persistent,
		Timestamp:     time.Now().UTC(),
		MessageId:     msg.RequestID,
		CorrelationId: msg.RequestID,
		Type:          messageType,
		Body:          payload,
	}

	confirmation, err := ch.PublishWithDeferredConfirmWithContext(ctx, "", queue, false, false, publishing)
	if err != nil {
		return fmt.Errorf("failed to publish message to queue %q: %w", queue, err)
	}

	// The intake answers 202 only once the broker has taken the message.
	acked, err := confirmation.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("failed waiting for broker confirm on queue %q: %w", queue, err)
	}
	if !acked {
		return fmt.Errorf("broker rejected message for queue %q", queue)
	}

	return nil
}

func (p *RabbitMQPublisher) Close() error {
	if p == nil || p.client == nil {
		return nil
	}
	return p.client.Close()
}
