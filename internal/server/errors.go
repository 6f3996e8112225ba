package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/pagebuilder-site/internal/builder"
	"github.com/jonathan/pagebuilder-site/internal/content"
	"github.com/jonathan/pagebuilder-site/internal/schemas"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrUnauthorized indicates a missing or wrong credential
type ErrUnauthorized struct {
	Reason string
}

func (e *ErrUnauthorized) Error() string {
	return "unauthorized: " + e.Reason
}

// ErrNotConfigured indicates a feature that is disabled in this deployment
type ErrNotConfigured struct {
	Feature string
}

func (e *ErrNotConfigured) Error() string {
	return e.Feature + " is not configured"
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		validationErr   *ErrValidation
		unauthorizedErr *ErrUnauthorized
		notConfigured   *ErrNotConfigured
		lookupErr       *content.ValidationError
		apiErr          *builder.Error
		schemaErr       *schemas.ValidationError
	)
	switch {
	case errors.As(err, &validationErr), errors.As(err, &lookupErr), errors.Is(err, content.ErrUnknownModel):
		return http.StatusBadRequest
	case errors.As(err, &unauthorizedErr):
		return http.StatusUnauthorized
	case errors.As(err, &notConfigured):
		return http.StatusNotFound
	case errors.As(err, &apiErr), errors.As(err, &schemaErr):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
