package domain

import (
	"context"
	"fmt"
)

// SubmissionErrorKind classifies why a submission did not produce an event.
type SubmissionErrorKind int

const (
	// SubmissionValidation means the draft was rejected before any request was sent.
	SubmissionValidation SubmissionErrorKind = iota + 1
	// SubmissionAuth means the remote API rejected the bearer token (HTTP 401).
	SubmissionAuth
	// SubmissionNetwork means the request did not complete.
	SubmissionNetwork
	// SubmissionServer means the remote API answered with a non-success status.
	SubmissionServer
)

func (k SubmissionErrorKind) String() string {
	switch k {
	case SubmissionValidation:
		return "validation"
	case SubmissionAuth:
		return "auth"
	case SubmissionNetwork:
		return "network"
	case SubmissionServer:
		return "server"
	}
	return "unknown"
}

// GenericSubmissionMessage is shown when the server gives no message of its own.
const GenericSubmissionMessage = "Failed to create event. Please try again."

// SubmissionError is the single outcome type for failed submissions. Message is
// suitable for showing to the user as is.
type SubmissionError struct {
	Kind       SubmissionErrorKind
	Message    string
	StatusCode int
	Err        error
}

func (e *SubmissionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s submission error: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s submission error: %s", e.Kind, e.Message)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// EventSubmitter sends a completed draft to the remote event API and returns
// the event as stored by the server.
type EventSubmitter interface {
	Submit(ctx context.Context, draft EventDraft, authToken string) (*EventDraft, error)
}
