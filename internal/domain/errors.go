package domain

import "errors"

// Common errors
var (
	ErrNotFound  = errors.New("record not found")
	ErrForbidden = errors.New("access forbidden: you don't own this resource")
	ErrInvalidID = errors.New("invalid identifier")
)

// Plan pipeline errors
var (
	// ErrServiceUnavailable is returned when the generation service cannot be reached
	// or answers with a non-success status.
	ErrServiceUnavailable = errors.New("plan generation service unavailable")
	// ErrMalformedPlan is returned when the generated text is not a valid plan.
	ErrMalformedPlan = errors.New("malformed workout plan")
	// ErrStorage is returned when a read or write against the plan store fails.
	ErrStorage = errors.New("plan storage failure")
)
