package repository

import (
	"time"

	"github.com/kursadbilgin/photo-dispatch/internal/domain"
)

// DeliveryAttemptModel is the persistence model for delivery_attempts.
type DeliveryAttemptModel struct {
	ID                string                `gorm:"type:uuid;primaryKey"`
	CorrelationID     string                `gorm:"type:varchar(64)"`
	SessionID         string                `gorm:"type:varchar(255);not null"`
	Recipient         string                `gorm:"type:varchar(320);not null"`
	Provider          string                `gorm:"type:varchar(32);not null"`
	PhotoCount        int                   `gorm:"not null"`
	Outcome           domain.AttemptOutcome `gorm:"type:varchar(10);not null"`
	Category          domain.Category       `gorm:"type:varchar(20)"`
	StatusCode        *int                  `gorm:"type:int"`
	ProviderMessageID *string               `gorm:"type:varchar(255)"`
	Error             *string               `gorm:"type:text"`
	CreatedAt         time.Time
}

func (DeliveryAttemptModel) TableName() string {
	return "delivery_attempts"
}

func attemptModelFromDomain(a *domain.DeliveryAttempt) *DeliveryAttemptModel {
	if a == nil {
		return nil
	}

	return &DeliveryAttemptModel{
		ID:                a.ID,
		CorrelationID:     a.CorrelationID,
		SessionID:         a.SessionID,
		Recipient:         a.Recipient,
		Provider:          a.Provider,
		PhotoCount:        a.PhotoCount,
		Outcome:           a.Outcome,
		Category:          a.Category,
		StatusCode:        a.StatusCode,
		ProviderMessageID: a.ProviderMessageID,
		Error:             a.Error,
		CreatedAt:         a.CreatedAt,
	}
}

func attemptModelToDomain(m *DeliveryAttemptModel) *domain.DeliveryAttempt {
	if m == nil {
		return nil
	}

	return &domain.DeliveryAttempt{
		ID:                m.ID,
		CorrelationID:     m.CorrelationID,
		SessionID:         m.SessionID,
		Recipient:         m.Recipient,
		Provider:          m.Provider,
		PhotoCount:        m.PhotoCount,
		Outcome:           m.Outcome,
		Category:          m.Category,
		StatusCode:        m.StatusCode,
		ProviderMessageID: m.ProviderMessageID,
		Error:             m.Error,
		CreatedAt:         m.CreatedAt,
	}
}
