package domain

import "errors"

// Sentinel errors shared across services. All of them are recoverable by the
// caller and map to 4xx responses in the delivery layer, except
// ErrStoreUnavailable which maps to 503.
var (
	ErrNotFound         = errors.New("not found")
	ErrValidation       = errors.New("invalid input")
	ErrDuplicateName    = errors.New("name already registered for this event")
	ErrEventClosed      = errors.New("event is closed for registration")
	ErrEventPast        = errors.New("event is in the past")
	ErrForbidden        = errors.New("forbidden")
	ErrStoreUnavailable = errors.New("store unavailable")
)
