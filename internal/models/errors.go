package models

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across services and repositories.
var (
	// ErrNotFound means a referenced appointment or user does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnauthenticated means the request carries no verifiable identity.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrForbidden means the caller's role or status denies the operation.
	ErrForbidden = errors.New("forbidden")

	// ErrAdminExists means the bootstrap slot is already taken.
	ErrAdminExists = errors.New("admin already exists")

	// ErrInvalidInput means a request field failed validation.
	ErrInvalidInput = errors.New("invalid input")
)

// DeliveryError reports a push delivery that reached the provider but failed
// for some or all endpoints. It is distinct from the no-recipients outcome:
// a send was attempted.
type DeliveryError struct {
	Attempted int
	Failed    int
	Err       error
}

func (e *DeliveryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("delivery failed for %d/%d endpoints: %v", e.Failed, e.Attempted, e.Err)
	}
	return fmt.Sprintf("delivery failed for %d/%d endpoints", e.Failed, e.Attempted)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}
