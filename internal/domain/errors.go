package domain

import (
	"errors"
	"net/http"
)

var (
	ErrValidation    = errors.New("validation error")
	ErrNotFound      = errors.New("not found")
	ErrConfiguration = errors.New("configuration error")
	ErrDelivery      = errors.New("delivery error")
	ErrBookkeeping   = errors.New("bookkeeping error")
)

// Category classifies a pipeline failure for logging, metrics and the HTTP status.
type Category string

const (
	CategoryNone          Category = ""
	CategoryValidation    Category = "VALIDATION"
	CategoryNotFound      Category = "NOT_FOUND"
	CategoryConfiguration Category = "CONFIGURATION"
	CategoryDelivery      Category = "DELIVERY"
	CategoryBookkeeping   Category = "BOOKKEEPING"
	CategoryInternal      Category = "INTERNAL"
)

func (c Category) String() string { return string(c) }

// CategoryOf maps an error chain to its category. Configuration wins over
// the others because a permission failure is usually wrapped inside a
// delivery or bookkeeping error.
func CategoryOf(err error) Category {
	switch {
	case err == nil:
		return CategoryNone
	case errors.Is(err, ErrConfiguration):
		return CategoryConfiguration
	case errors.Is(err, ErrValidation):
		return CategoryValidation
	case errors.Is(err, ErrNotFound):
		return CategoryNotFound
	case errors.Is(err, ErrDelivery):
		return CategoryDelivery
	case errors.Is(err, ErrBookkeeping):
		return CategoryBookkeeping
	default:
		return CategoryInternal
	}
}

func (c Category) HTTPStatus() int {
	switch c {
	case CategoryNone:
		return http.StatusOK
	case CategoryValidation:
		return http.StatusBadRequest
	case CategoryNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
