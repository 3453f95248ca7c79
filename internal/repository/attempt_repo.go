package repository

import (
	"context"
	"fmt"

	"github.com/kursadbilgin/photo-dispatch/internal/domain"
	"gorm.io/gorm"
)

const maxAttemptsPerSession = 100

type AttemptRepository interface {
	Create(ctx context.Context, a *domain.DeliveryAttempt) error
	ListBySession(ctx context.Context, sessionID string) ([]domain.DeliveryAttempt, error)
}

type GormAttemptRepo struct {
	db *gorm.DB
}

func NewGormAttemptRepo(db *gorm.DB) (*GormAttemptRepo, error) {
	if db == nil {
		return nil, fmt.Errorf("gorm db is required")
	}
	return &GormAttemptRepo{db: db}, nil
}

func (r *GormAttemptRepo) Create(ctx context.Context, a *domain.DeliveryAttempt) error {
	model := attemptModelFromDomain(a)
	if model == nil {
		return fmt.Errorf("%w: delivery attempt is required", domain.ErrValidation)
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	*a = *attemptModelToDomain(model)
	return nil
}

// ListBySession returns the newest attempts for a session first.
func (r *GormAttemptRepo) ListBySession(ctx context.Context, sessionID string) ([]domain.DeliveryAttempt, error) {
	var models []DeliveryAttemptModel
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at DESC").
		Limit(maxAttemptsPerSession).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	attempts := make([]domain.DeliveryAttempt, 0, len(models))
	for i := range models {
		attempts = append(attempts, *attemptModelToDomain(&models[i]))
	}

	return attempts, nil
}
