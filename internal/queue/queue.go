package queue

import (
	"context"
	"fmt"
)

// Publisher publishes photo notification requests to a queue.
type Publisher interface {
	Publish(ctx context.Context, queue string, msg PhotoNotificationMessage) error
	Close() error
}

// MessageHandler handles a consumed queue message.
type MessageHandler func(ctx context.Context, msg PhotoNotificationMessage) error

// Consumer consumes photo notification requests from a queue.
type Consumer interface {
	Consume(ctx context.Context, queue string, handler MessageHandler) error
	Close() error
}

// PhotoNotificationQueue is the work queue fed by the async intake endpoint.
const PhotoNotificationQueue = "photo.notifications"

var workQueues = []string{PhotoNotificationQueue}

// DLQName returns the dead-letter queue name for a work queue, e.g. dlq.photo.notifications.
func DLQName(queue string) string {
	return fmt.Sprintf("dlq.%s", queue)
}

// WorkQueueNames returns all work queues.
func WorkQueueNames() []string {
	queues := make([]string, len(workQueues))
	copy(queues, workQueues)
	return queues
}

// DLQNames returns all dead-letter queues.
func DLQNames() []string {
	queues := make([]string, 0, len(workQueues))
	for _, name := range workQueues {
		queues = append(queues, DLQName(name))
	}
	return queues
}
