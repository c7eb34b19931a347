package models

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedHandoff means a driver token could not be decoded
	ErrMalformedHandoff = errors.New("link invalid or expired, request a new link")

	// ErrConfirmationRequired means a destructive action was not confirmed
	ErrConfirmationRequired = errors.New("confirmation required")
)

// ValidationError rejects input before anything is mutated
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// NotFoundError references an unknown product, client or order id
type NotFoundError struct {
	Entity string `json:"entity"`
	ID     string `json:"id"`
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.ID)
}

// TransitionError is an order action that the current status does not allow
type TransitionError struct {
	OrderID string
	From    OrderStatus
	Action  string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s order %s in status %s", e.Action, e.OrderID, e.From)
}

// ConfirmationError carries the prompt that was declined
type ConfirmationError struct {
	Prompt string
}

func (e *ConfirmationError) Error() string {
	return "confirmation required: " + e.Prompt
}

func (e *ConfirmationError) Unwrap() error {
	return ErrConfirmationRequired
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

func IsTransition(err error) bool {
	var te *TransitionError
	return errors.As(err, &te)
}
