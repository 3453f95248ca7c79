package provider

import (
	"context"

	"github.com/kursadbilgin/photo-dispatch/internal/domain"
)

const (
	NameSendGrid  = "sendgrid"
	NameMessaging = "messaging"
	NameSES       = "ses"
)

// Notifier is the outbound email delivery port.
type Notifier interface {
	Send(ctx context.Context, msg domain.Message) (*SendResponse, error)
	Name() string
}

// SendResponse stores provider call metadata for audit.
type SendResponse struct {
	StatusCode int
	Body       string
	MessageID  string
}
