package domain

import (
	"fmt"
	"strings"
)

// MaxEmailHTMLBytes bounds the rendered body handed to a notifier.
const MaxEmailHTMLBytes = 1 << 20

// Message is a single-recipient HTML email.
type Message struct {
	To      string
	From    string
	Subject string
	HTML    string
}

func (m *Message) Validate() error {
	if strings.TrimSpace(m.To) == "" {
		return fmt.Errorf("%w: recipient is required", ErrValidation)
	}
	if strings.TrimSpace(m.From) == "" {
		return fmt.Errorf("%w: sender is required", ErrConfiguration)
	}
	if strings.TrimSpace(m.Subject) == "" {
		return fmt.Errorf("%w: subject is required", ErrValidation)
	}
	if m.HTML == "" {
		return fmt.Errorf("%w: html body is required", ErrValidation)
	}
	if len(m.HTML) > MaxEmailHTMLBytes {
		return fmt.Errorf("%w: html body exceeds %d bytes (got %d)", ErrValidation, MaxEmailHTMLBytes, len(m.HTML))
	}
	return nil
}
