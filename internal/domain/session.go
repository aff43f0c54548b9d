package domain

import "errors"

var (
	ErrInvalidWorkout    = errors.New("workout cannot be executed: it needs at least one exercise and every exercise needs at least one set")
	ErrInvalidTransition = errors.New("action not allowed in the current session state")
	ErrNoActiveSession   = errors.New("no active workout session")
)
