package domain

import "errors"

// Sentinel errors used throughout the application.
// Handlers translate these to HTTP status codes via a single mapError function.
var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidRecipient = errors.New("recipient must be a valid email address")
	ErrInvalidContent   = errors.New("subject and html must not be empty")
	ErrInvalidPriority  = errors.New("invalid priority: must be high, medium, or low")
	ErrInvalidDelay     = errors.New("delay must be a non-negative duration")
	ErrInvalidEvent     = errors.New("event name must not be empty")
	ErrUnknownProvider  = errors.New("unknown email provider: must be ses, postmark, or smtp")
)
