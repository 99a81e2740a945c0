package util

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError("VALIDATION_FAILED", message, http.StatusBadRequest, details)
}

// NewNotFound signals that a ticket, customer, or user reference does not
// resolve.
func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

// NewInvalidTransition signals a status change that is not permitted from the
// ticket's current state.
func NewInvalidTransition(message string, details map[string]any) error {
	return NewDomainError("INVALID_TRANSITION", message, http.StatusConflict, details)
}

// NewMissingRequiredField signals an absent field the operation requires,
// such as pausing without a pending reason.
func NewMissingRequiredField(field string) error {
	return NewDomainError("MISSING_REQUIRED_FIELD", fmt.Sprintf("%s is required", field),
		http.StatusBadRequest, map[string]any{"field": field})
}

// NewInvalidReference signals a reference to an inactive or otherwise
// unusable record, such as assigning to a deactivated user.
func NewInvalidReference(message string, details map[string]any) error {
	return NewDomainError("INVALID_REFERENCE", message, http.StatusUnprocessableEntity, details)
}

// NewConstraintViolation signals a storage-level uniqueness or foreign-key
// failure.
func NewConstraintViolation(message string, details map[string]any) error {
	return NewDomainError("CONSTRAINT_VIOLATION", message, http.StatusConflict, details)
}

func NewUnauthorized(message string) error {
	return NewDomainError("UNAUTHORIZED", message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError("FORBIDDEN", message, http.StatusForbidden, nil)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError, mapping storage
// errors into the taxonomy.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, pgx.ErrNoRows) {
		if de, ok := NewNotFound("resource", nil).(*DomainError); ok {
			return de
		}
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			if de, ok := NewConstraintViolation("unique constraint violated",
				map[string]any{"constraint": pgErr.ConstraintName}).(*DomainError); ok {
				de.Err = err
				return de
			}
		case "23503":
			if de, ok := NewConstraintViolation("foreign key constraint violated",
				map[string]any{"constraint": pgErr.ConstraintName}).(*DomainError); ok {
				de.Err = err
				return de
			}
		}
	}
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func MapError(err error) error {
	if err == nil {
		return nil
	}
	return ToDomainError(err)
}

// IsUniqueViolation reports whether err is a Postgres unique-constraint
// failure. Ticket number generation retries on this.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
