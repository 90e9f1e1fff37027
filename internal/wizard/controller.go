package wizard

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"ticketwizard/internal/domain"
)

// RestoreNotice is shown when a restored draft had images that could not be kept.
const RestoreNotice = "Your progress was restored. Images are not saved between sessions, please select them again."

// Controller owns one draft and the current step of the wizard. Every change
// to the draft goes through Merge and is saved straight away. A Controller is
// safe for concurrent use.
type Controller struct {
	mu sync.Mutex

	key       string
	store     *DraftStore
	submitter domain.EventSubmitter
	logger    *slog.Logger
	now       func() time.Time

	draft      domain.EventDraft
	step       Step
	submitting bool
	cancel     context.CancelFunc
	disposed   bool
	lastActive time.Time
}

func emptyDraft() domain.EventDraft {
	return domain.EventDraft{Gallery: []*domain.FileHandle{}}
}

// Open mounts a wizard for key. A saved, unexpired draft is merged into the
// empty draft before anything else happens.
func Open(ctx context.Context, key string, store *DraftStore, submitter domain.EventSubmitter, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Controller{
		key:       key,
		store:     store,
		submitter: submitter,
		logger:    logger,
		now:       time.Now,
		draft:     emptyDraft(),
		step:      FirstStep,
	}
	c.lastActive = c.now()
	if saved := store.Load(ctx, key); saved != nil {
		c.draft = Merge(c.draft, domain.PatchFrom(*saved))
		c.draft.ImageMarkers = saved.ImageMarkers
		logger.InfoContext(ctx, "draft restored", "key", key, "image_markers", len(saved.ImageMarkers))
	}
	return c
}

// Draft returns the current draft.
func (c *Controller) Draft() domain.EventDraft {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// Step returns the current step.
func (c *Controller) Step() Step {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.step
}

// LastActive returns when the controller was last used.
func (c *Controller) LastActive() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastActive
}

// State returns a snapshot suitable for the client.
func (c *Controller) State() domain.WizardState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

func (c *Controller) stateLocked() domain.WizardState {
	return domain.WizardState{
		Step:       int(c.step),
		Draft:      c.draft,
		Notice:     c.noticeLocked(),
		Submitting: c.submitting,
	}
}

// noticeLocked reports restored images that have not been selected again.
func (c *Controller) noticeLocked() string {
	for _, m := range c.draft.ImageMarkers {
		switch m.Field {
		case domain.MediaFieldImage:
			if c.draft.Image == nil {
				return RestoreNotice
			}
		case domain.MediaFieldGallery:
			if len(c.draft.Gallery) == 0 {
				return RestoreNotice
			}
		}
	}
	return ""
}

// editableLocked reports whether the draft or step may change. Edits are
// refused while a submission is in flight, since a successful submit resets
// the wizard.
func (c *Controller) editableLocked() error {
	if c.disposed {
		return domain.ErrDisposed
	}
	if c.submitting {
		return domain.ErrSubmitInFlight
	}
	return nil
}

// Apply merges patch into the draft and saves the result. Ticket types in the
// patch get the same server-owned defaults as AddTicketType.
func (c *Controller) Apply(ctx context.Context, patch domain.DraftPatch) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.editableLocked(); err != nil {
		return err
	}
	if patch.TicketType.Set {
		tickets := domain.CloneTicketTypes(patch.TicketType.Value)
		for i := range tickets {
			tickets[i] = ownedTicketType(tickets[i])
		}
		patch.TicketType.Value = tickets
	}
	c.applyLocked(ctx, patch)
	return nil
}

// ownedTicketType resets the fields the client does not control.
func ownedTicketType(t domain.TicketTypeDraft) domain.TicketTypeDraft {
	t.Sold = "0"
	if t.Free {
		t.Price = "0.00"
	}
	return t
}

func (c *Controller) applyLocked(ctx context.Context, patch domain.DraftPatch) {
	c.draft = Merge(c.draft, patch)
	c.lastActive = c.now()
	c.store.Save(ctx, c.key, c.draft)
}

// Next validates the current step and moves forward. On failure the step is
// unchanged and the *ValidationError is returned.
func (c *Controller) Next() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.editableLocked(); err != nil {
		return err
	}
	c.lastActive = c.now()
	if err := Validate(c.step, c.draft); err != nil {
		return err
	}
	if c.step < LastStep {
		c.step++
	}
	return nil
}

// Back moves to the previous step without validating.
func (c *Controller) Back() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.editableLocked(); err != nil {
		return err
	}
	c.lastActive = c.now()
	if c.step > FirstStep {
		c.step--
	}
	return nil
}

// AddTicketType appends t. Sold always starts at zero.
func (c *Controller) AddTicketType(ctx context.Context, t domain.TicketTypeDraft) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.editableLocked(); err != nil {
		return err
	}
	tickets := append(domain.CloneTicketTypes(c.draft.TicketType), ownedTicketType(t.Clone()))
	c.applyLocked(ctx, domain.DraftPatch{TicketType: domain.Some(tickets)})
	return nil
}

// RemoveTicketType drops the ticket type at index.
func (c *Controller) RemoveTicketType(ctx context.Context, index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.editableLocked(); err != nil {
		return err
	}
	if index < 0 || index >= len(c.draft.TicketType) {
		return fmt.Errorf("ticket type %d does not exist: %w", index, domain.ErrInvalidInput)
	}
	tickets := domain.CloneTicketTypes(c.draft.TicketType)
	tickets = append(tickets[:index], tickets[index+1:]...)
	c.applyLocked(ctx, domain.DraftPatch{TicketType: domain.Some(tickets)})
	return nil
}

// AddAttendee registers a on the ticket type at ticketIndex. It fails with
// ErrAttendeeLimit once the ticket's quantity is reached.
func (c *Controller) AddAttendee(ctx context.Context, ticketIndex int, a domain.Attendee) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.editableLocked(); err != nil {
		return err
	}
	if ticketIndex < 0 || ticketIndex >= len(c.draft.TicketType) {
		return fmt.Errorf("ticket type %d does not exist: %w", ticketIndex, domain.ErrInvalidInput)
	}
	ticket := c.draft.TicketType[ticketIndex]
	quantity, err := ParseQuantity(ticket.Quantity)
	if err != nil {
		return fmt.Errorf("ticket %q has no valid quantity: %w", ticket.Name, domain.ErrInvalidInput)
	}
	if len(ticket.Attendees) >= quantity {
		return fmt.Errorf("ticket %q allows %d attendees: %w", ticket.Name, quantity, domain.ErrAttendeeLimit)
	}
	tickets := domain.CloneTicketTypes(c.draft.TicketType)
	tickets[ticketIndex].Attendees = append(tickets[ticketIndex].Attendees, a)
	c.applyLocked(ctx, domain.DraftPatch{TicketType: domain.Some(tickets)})
	return nil
}

// RemoveAttendee drops one attendee from a ticket type.
func (c *Controller) RemoveAttendee(ctx context.Context, ticketIndex, attendeeIndex int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.editableLocked(); err != nil {
		return err
	}
	if ticketIndex < 0 || ticketIndex >= len(c.draft.TicketType) {
		return fmt.Errorf("ticket type %d does not exist: %w", ticketIndex, domain.ErrInvalidInput)
	}
	attendees := c.draft.TicketType[ticketIndex].Attendees
	if attendeeIndex < 0 || attendeeIndex >= len(attendees) {
		return fmt.Errorf("attendee %d does not exist: %w", attendeeIndex, domain.ErrInvalidInput)
	}
	tickets := domain.CloneTicketTypes(c.draft.TicketType)
	t := &tickets[ticketIndex]
	t.Attendees = append(t.Attendees[:attendeeIndex], t.Attendees[attendeeIndex+1:]...)
	c.applyLocked(ctx, domain.DraftPatch{TicketType: domain.Some(tickets)})
	return nil
}

// SetImage replaces the main image. A nil handle removes it.
func (c *Controller) SetImage(ctx context.Context, h *domain.FileHandle) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.editableLocked(); err != nil {
		return err
	}
	c.applyLocked(ctx, domain.DraftPatch{Image: domain.Some(h)})
	return nil
}

// AddGalleryImage appends h to the gallery, which holds at most
// domain.MaxGalleryImages images.
func (c *Controller) AddGalleryImage(ctx context.Context, h *domain.FileHandle) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.editableLocked(); err != nil {
		return err
	}
	if h == nil {
		return fmt.Errorf("no image selected: %w", domain.ErrInvalidInput)
	}
	if len(c.draft.Gallery) >= domain.MaxGalleryImages {
		return domain.ErrGalleryFull
	}
	gallery := append(append([]*domain.FileHandle{}, c.draft.Gallery...), h)
	c.applyLocked(ctx, domain.DraftPatch{Gallery: domain.Some(gallery)})
	return nil
}

// RemoveGalleryImage drops the gallery image at index.
func (c *Controller) RemoveGalleryImage(ctx context.Context, index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.editableLocked(); err != nil {
		return err
	}
	if index < 0 || index >= len(c.draft.Gallery) {
		return fmt.Errorf("gallery image %d does not exist: %w", index, domain.ErrInvalidInput)
	}
	gallery := append([]*domain.FileHandle{}, c.draft.Gallery[:index]...)
	gallery = append(gallery, c.draft.Gallery[index+1:]...)
	c.applyLocked(ctx, domain.DraftPatch{Gallery: domain.Some(gallery)})
	return nil
}

// Submit validates every step and hands the draft to the submitter. Only one
// submission may be in flight. The lock is not held during the network call,
// so Dispose can cancel it; a response arriving after Dispose is discarded.
// On success the stored draft is cleared and the wizard starts over.
func (c *Controller) Submit(ctx context.Context, authToken string) (*domain.EventDraft, error) {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return nil, domain.ErrDisposed
	}
	if c.submitting {
		c.mu.Unlock()
		return nil, domain.ErrSubmitInFlight
	}
	c.lastActive = c.now()
	if c.step != LastStep {
		step := c.step
		c.mu.Unlock()
		return nil, &ValidationError{Step: step, Reason: "Complete every step before submitting"}
	}
	if err := ValidateAll(c.draft); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	draft := c.draft
	submitCtx, cancel := context.WithCancel(ctx)
	c.submitting = true
	c.cancel = cancel
	c.mu.Unlock()

	created, err := c.submitter.Submit(submitCtx, draft, authToken)

	c.mu.Lock()
	defer c.mu.Unlock()
	cancel()
	c.submitting = false
	c.cancel = nil
	if c.disposed {
		return nil, domain.ErrDisposed
	}
	if err != nil {
		return nil, err
	}
	if created == nil {
		created = &draft
	}
	c.store.Clear(ctx, c.key)
	c.draft = emptyDraft()
	c.step = FirstStep
	c.logger.InfoContext(ctx, "event submitted", "key", c.key, "event_id", created.ID, "slug", created.Slug)
	return created, nil
}

// Dispose cancels any submission in flight and makes every later call fail
// with domain.ErrDisposed. The stored draft is kept.
func (c *Controller) Dispose() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disposeLocked()
}

func (c *Controller) disposeLocked() {
	c.disposed = true
	if c.cancel != nil {
		c.cancel()
	}
}

// Abandon clears the stored draft and disposes the controller.
func (c *Controller) Abandon(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store.Clear(ctx, c.key)
	c.disposeLocked()
}
