package domain

import "errors"

// Sentinel errors shared across layers.
var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrDisposed         = errors.New("wizard has been disposed")
	ErrSubmitInFlight   = errors.New("submission already in progress")
	ErrAttendeeLimit    = errors.New("attendee limit reached for ticket type")
	ErrGalleryFull      = errors.New("gallery is limited to 5 images")
	ErrUnsupportedMedia = errors.New("only image files are accepted")
	ErrFileTooLarge     = errors.New("image exceeds the maximum size")
)
