package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// NotificationRequest asks for the photos of one session to be emailed to one recipient.
type NotificationRequest struct {
	Email     string
	SessionID string
	// PhotoURLs overrides the record store lookup when it holds at least one
	// non-blank url.
	PhotoURLs []string
}

type notificationPayload struct {
	Email          string   `json:"email"`
	PhotoSessionID string   `json:"photoSessionId"`
	PhotoURLs      []string `json:"photoUrls,omitempty"`
}

// ParseNotificationRequest decodes the inbound JSON body. Field presence is
// checked separately by Validate.
func ParseNotificationRequest(payload []byte) (NotificationRequest, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return NotificationRequest{}, fmt.Errorf("%w: missing payload", ErrValidation)
	}

	var p notificationPayload
	if err := json.Unmarshal(trimmed, &p); err != nil {
		return NotificationRequest{}, fmt.Errorf("%w: invalid format", ErrValidation)
	}

	return NotificationRequest{
		Email:     strings.TrimSpace(p.Email),
		SessionID: strings.TrimSpace(p.PhotoSessionID),
		PhotoURLs: p.PhotoURLs,
	}, nil
}

func (r NotificationRequest) Validate() error {
	if strings.TrimSpace(r.Email) == "" || strings.TrimSpace(r.SessionID) == "" {
		return fmt.Errorf("%w: missing required fields: email and photoSessionId", ErrValidation)
	}
	return nil
}

func (r NotificationRequest) HasPhotoOverride() bool {
	return len(DeliverablePhotoURLs(r.PhotoURLs)) > 0
}

func (r NotificationRequest) MarshalJSON() ([]byte, error) {
	return json.Marshal(notificationPayload{
		Email:          r.Email,
		PhotoSessionID: r.SessionID,
		PhotoURLs:      r.PhotoURLs,
	})
}
