package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// ProviderError classifies notifier call failures. Permission marks a
// credential or scope rejection, which needs operator action rather than a
// new attempt.
type ProviderError struct {
	Provider   string
	StatusCode int
	Message    string
	Permission bool
	Transient  bool
	Cause      error
}

func (e *ProviderError) Error() string {
	if e == nil {
		return "<nil>"
	}

	parts := make([]string, 0, 4)
	if e.Provider != "" {
		parts = append(parts, e.Provider+" provider error")
	} else {
		parts = append(parts, "provider error")
	}

	if e.StatusCode > 0 {
		parts = append(parts, fmt.Sprintf("status=%d", e.StatusCode))
	}
	if msg := strings.TrimSpace(e.Message); msg != "" {
		parts = append(parts, msg)
	}
	if e.Cause != nil {
		parts = append(parts, e.Cause.Error())
	}

	return strings.Join(parts, ": ")
}

func (e *ProviderError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// IsPermissionDenied reports whether the provider rejected the credential or its scope.
func IsPermissionDenied(err error) bool {
	var providerErr *ProviderError
	if errors.As(err, &providerErr) {
		return providerErr.Permission
	}
	return false
}

// IsTransient reports whether the failure looks temporary. Nothing is
// retried; the flag only feeds logs and metrics.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	var providerErr *ProviderError
	if errors.As(err, &providerErr) {
		return providerErr.Transient
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}

	return false
}

func isPermissionHTTPStatus(statusCode int) bool {
	return statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden
}

func isTransientHTTPStatus(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests || (statusCode >= http.StatusInternalServerError && statusCode <= 599)
}

func providerErrorMessage(statusCode int, detail string) string {
	base := fmt.Sprintf("provider returned status %d", statusCode)
	if detail == "" {
		return base
	}
	return fmt.Sprintf("%s: %s", base, detail)
}
