package domain

import (
	"context"
	"time"
)

// WizardState is a snapshot of one user's event creation wizard.
// swagger:model WizardState
type WizardState struct {
	Step       int        `json:"step"`
	Draft      EventDraft `json:"draft"`
	Notice     string     `json:"notice,omitempty"`
	Submitting bool       `json:"submitting"`
}

// WizardService drives one event creation wizard per user.
type WizardService interface {
	State(ctx context.Context, user *Principal) (*WizardState, error)
	Apply(ctx context.Context, user *Principal, patch DraftPatch) (*WizardState, error)
	Next(ctx context.Context, user *Principal) (*WizardState, error)
	Back(ctx context.Context, user *Principal) (*WizardState, error)
	AddTicketType(ctx context.Context, user *Principal, ticket TicketTypeDraft) (*WizardState, error)
	RemoveTicketType(ctx context.Context, user *Principal, index int) (*WizardState, error)
	AddAttendee(ctx context.Context, user *Principal, ticketIndex int, attendee Attendee) (*WizardState, error)
	RemoveAttendee(ctx context.Context, user *Principal, ticketIndex, attendeeIndex int) (*WizardState, error)
	SetImage(ctx context.Context, user *Principal, name string, data []byte) (*WizardState, error)
	AddGalleryImage(ctx context.Context, user *Principal, name string, data []byte) (*WizardState, error)
	RemoveGalleryImage(ctx context.Context, user *Principal, index int) (*WizardState, error)
	// Submit sends the draft to the event API. On success the stored draft is
	// cleared and the created event is returned.
	Submit(ctx context.Context, user *Principal) (*EventDraft, error)
	// Abandon discards the user's draft and cancels any submission in flight.
	Abandon(ctx context.Context, user *Principal) error
	// EvictIdle drops in-memory wizards untouched for longer than maxIdle.
	// Their drafts stay in storage. Returns the number evicted.
	EvictIdle(maxIdle time.Duration) int
}
