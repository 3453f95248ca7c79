package domain

import (
	"fmt"
	"strings"
	"time"
)

// SessionStatus represents the delivery state of a photo session.
type SessionStatus string

const (
	SessionStatusPending   SessionStatus = "pending"
	SessionStatusDelivered SessionStatus = "delivered"
)

func (s SessionStatus) String() string { return string(s) }

func (s SessionStatus) IsValid() bool {
	switch s {
	case SessionStatusPending, SessionStatusDelivered:
		return true
	}
	return false
}

func ParseSessionStatusFromString(s string) (SessionStatus, error) {
	st := SessionStatus(strings.ToLower(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", fmt.Errorf("%w: invalid session status %q", ErrValidation, s)
	}
	return st, nil
}

// PhotoSession is the record store document holding the photos of one session.
// Sessions are created elsewhere; this service only reads them and marks them delivered.
type PhotoSession struct {
	ID          string
	PhotoURLs   []string
	Status      SessionStatus
	UserEmail   string
	DeliveredAt *time.Time
}

// HasPhotos reports whether the session carries anything deliverable.
func (s *PhotoSession) HasPhotos() bool {
	return s != nil && len(DeliverablePhotoURLs(s.PhotoURLs)) > 0
}

// DeliverablePhotoURLs trims every url and drops the blank ones, keeping order.
func DeliverablePhotoURLs(urls []string) []string {
	out := make([]string, 0, len(urls))
	for _, url := range urls {
		if url = strings.TrimSpace(url); url != "" {
			out = append(out, url)
		}
	}
	return out
}

// SessionPatch is the partial update written after a successful send.
type SessionPatch struct {
	Status      SessionStatus
	DeliveredAt time.Time
	UserEmail   string
}

func DeliveredPatch(email string, at time.Time) SessionPatch {
	return SessionPatch{
		Status:      SessionStatusDelivered,
		DeliveredAt: at.UTC(),
		UserEmail:   email,
	}
}

func (p SessionPatch) Validate() error {
	if !p.Status.IsValid() {
		return fmt.Errorf("%w: invalid session status %q", ErrValidation, p.Status)
	}
	if p.Status == SessionStatusDelivered && p.DeliveredAt.IsZero() {
		return fmt.Errorf("%w: deliveredAt is required for delivered sessions", ErrValidation)
	}
	return nil
}
