// Package recordstore reads and updates photo session documents in the hosted
// document database.
package recordstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/kursadbilgin/photo-dispatch/internal/domain"
)

// Store is the record store port. Documents are addressed by session id; the
// database and collection are fixed when the store is constructed.
type Store interface {
	Get(ctx context.Context, sessionID string) (*domain.PhotoSession, error)
	Update(ctx context.Context, sessionID string, patch domain.SessionPatch) (*domain.PhotoSession, error)
}

// StoreError is a record store failure that is neither a missing document nor
// a permission problem.
type StoreError struct {
	Operation  string
	StatusCode int
	Type       string
	Message    string
	Cause      error
}

func (e *StoreError) Error() string {
	if e == nil {
		return "<nil>"
	}

	parts := []string{"record store " + e.Operation + " failed"}
	if e.StatusCode > 0 {
		parts = append(parts, fmt.Sprintf("status=%d", e.StatusCode))
	}
	if t := strings.TrimSpace(e.Type); t != "" {
		parts = append(parts, t)
	}
	if msg := strings.TrimSpace(e.Message); msg != "" {
		parts = append(parts, msg)
	}
	if e.Cause != nil {
		parts = append(parts, e.Cause.Error())
	}
	return strings.Join(parts, ": ")
}

func (e *StoreError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}
