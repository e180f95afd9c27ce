package triage

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPatient is wrapped by every ValidationError
	ErrInvalidPatient = errors.New("invalid patient data")
	// ErrNotFound is wrapped by every NotFoundError
	ErrNotFound = errors.New("patient not found")
)

// Location names the container an operation expected to find a patient in
type Location string

const (
	LocationQueue     Location = "queue"
	LocationTreatment Location = "treatment"
)

// ValidationError reports malformed intake input
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrInvalidPatient, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidPatient
}

// NotFoundError reports an id missing from the expected container
type NotFoundError struct {
	ID       string
	Location Location
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("patient %s not found in %s", e.ID, e.Location)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}
