package domain

import "time"

// AttemptOutcome is the result of a single dispatch attempt.
type AttemptOutcome string

const (
	AttemptSent   AttemptOutcome = "SENT"
	AttemptFailed AttemptOutcome = "FAILED"
)

func (o AttemptOutcome) String() string { return string(o) }

// DeliveryAttempt records one call to a notifier for audit purposes.
type DeliveryAttempt struct {
	ID                string
	CorrelationID     string
	SessionID         string
	Recipient         string
	Provider          string
	PhotoCount        int
	Outcome           AttemptOutcome
	Category          Category
	StatusCode        *int
	ProviderMessageID *string
	Error             *string
	CreatedAt         time.Time
}
