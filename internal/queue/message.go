package queue

import (
	"fmt"
	"strings"

	"github.com/kursadbilgin/photo-dispatch/internal/domain"
)

// PhotoNotificationMessage is the broker payload for one queued request.
type PhotoNotificationMessage struct {
	RequestID      string   `json:"requestId"`
	Email          string   `json:"email"`
	PhotoSessionID string   `json:"photoSessionId"`
	PhotoURLs      []string `json:"photoUrls,omitempty"`
}

func NewPhotoNotificationMessage(requestID string, req domain.NotificationRequest) PhotoNotificationMessage {
	return PhotoNotificationMessage{
		RequestID:      requestID,
		Email:          req.Email,
		PhotoSessionID: req.SessionID,
		PhotoURLs:      req.PhotoURLs,
	}
}

func (m PhotoNotificationMessage) Validate() error {
	if strings.TrimSpace(m.RequestID) == "" {
		return fmt.Errorf("requestId is required")
	}
	if strings.TrimSpace(m.Email) == "" {
		return fmt.Errorf("email is required")
	}
	if strings.TrimSpace(m.PhotoSessionID) == "" {
		return fmt.Errorf("photoSessionId is required")
	}
	return nil
}

// Request converts the message back into the pipeline input.
func (m PhotoNotificationMessage) Request() domain.NotificationRequest {
	return domain.NotificationRequest{
		Email:     strings.TrimSpace(m.Email),
		SessionID: strings.TrimSpace(m.PhotoSessionID),
		PhotoURLs: m.PhotoURLs,
	}
}
