package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"ticketwizard/internal/domain"
	"ticketwizard/internal/media"
	"ticketwizard/internal/wizard"
)

type wizardService struct {
	mu       sync.Mutex
	sessions map[string]*wizard.Controller

	store         *wizard.DraftStore
	submitter     domain.EventSubmitter
	emailService  domain.EmailService
	logger        *slog.Logger
	submitTimeout time.Duration
	now           func() time.Time
}

// NewWizardService returns a WizardService holding one wizard per user in
// memory, with drafts persisted through store.
func NewWizardService(
	store *wizard.DraftStore,
	submitter domain.EventSubmitter,
	emailService domain.EmailService,
	logger *slog.Logger,
	submitTimeout time.Duration,
) domain.WizardService {
	if logger == nil {
		logger = slog.Default()
	}
	return &wizardService{
		sessions:      make(map[string]*wizard.Controller),
		store:         store,
		submitter:     submitter,
		emailService:  emailService,
		logger:        logger,
		submitTimeout: submitTimeout,
		now:           time.Now,
	}
}

// controller returns the user's wizard, mounting it on first use. The saved
// draft is loaded without holding s.mu; if another request mounted the wizard
// meanwhile, that one is kept.
func (s *wizardService) controller(ctx context.Context, user *domain.Principal) (*wizard.Controller, error) {
	if user == nil || user.UserID == "" {
		return nil, domain.ErrUnauthorized
	}
	s.mu.Lock()
	c, ok := s.sessions[user.UserID]
	s.mu.Unlock()
	if ok {
		return c, nil
	}

	opened := wizard.Open(ctx, domain.DraftStorageKeyFor(user.UserID), s.store, s.submitter, s.logger.With("user_id", user.UserID))

	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.sessions[user.UserID]; ok {
		opened.Dispose()
		return c, nil
	}
	s.sessions[user.UserID] = opened
	return opened, nil
}

// forget drops c from the session table if it is still the user's wizard.
func (s *wizardService) forget(userID string, c *wizard.Controller) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sessions[userID] == c {
		delete(s.sessions, userID)
	}
}

// do runs op against the user's wizard and returns the resulting state. A
// wizard disposed between lookup and op (idle eviction) is dropped and op runs
// once more on a freshly mounted one.
func (s *wizardService) do(ctx context.Context, user *domain.Principal, op func(c *wizard.Controller) error) (*domain.WizardState, error) {
	c, err := s.controller(ctx, user)
	if err != nil {
		return nil, err
	}
	err = op(c)
	if errors.Is(err, domain.ErrDisposed) {
		s.forget(user.UserID, c)
		if c, err = s.controller(ctx, user); err != nil {
			return nil, err
		}
		err = op(c)
	}
	if err != nil {
		return nil, err
	}
	state := c.State()
	return &state, nil
}

func (s *wizardService) State(ctx context.Context, user *domain.Principal) (*domain.WizardState, error) {
	return s.do(ctx, user, func(*wizard.Controller) error { return nil })
}

func (s *wizardService) Apply(ctx context.Context, user *domain.Principal, patch domain.DraftPatch) (*domain.WizardState, error) {
	return s.do(ctx, user, func(c *wizard.Controller) error { return c.Apply(ctx, patch) })
}

func (s *wizardService) Next(ctx context.Context, user *domain.Principal) (*domain.WizardState, error) {
	return s.do(ctx, user, func(c *wizard.Controller) error { return c.Next() })
}

func (s *wizardService) Back(ctx context.Context, user *domain.Principal) (*domain.WizardState, error) {
	return s.do(ctx, user, func(c *wizard.Controller) error { return c.Back() })
}

func (s *wizardService) AddTicketType(ctx context.Context, user *domain.Principal, ticket domain.TicketTypeDraft) (*domain.WizardState, error) {
	return s.do(ctx, user, func(c *wizard.Controller) error { return c.AddTicketType(ctx, ticket) })
}

func (s *wizardService) RemoveTicketType(ctx context.Context, user *domain.Principal, index int) (*domain.WizardState, error) {
	return s.do(ctx, user, func(c *wizard.Controller) error { return c.RemoveTicketType(ctx, index) })
}

func (s *wizardService) AddAttendee(ctx context.Context, user *domain.Principal, ticketIndex int, attendee domain.Attendee) (*domain.WizardState, error) {
	attendee.Name = strings.TrimSpace(attendee.Name)
	attendee.Email = strings.TrimSpace(attendee.Email)
	return s.do(ctx, user, func(c *wizard.Controller) error { return c.AddAttendee(ctx, ticketIndex, attendee) })
}

func (s *wizardService) RemoveAttendee(ctx context.Context, user *domain.Principal, ticketIndex, attendeeIndex int) (*domain.WizardState, error) {
	return s.do(ctx, user, func(c *wizard.Controller) error { return c.RemoveAttendee(ctx, ticketIndex, attendeeIndex) })
}

func (s *wizardService) SetImage(ctx context.Context, user *domain.Principal, name string, data []byte) (*domain.WizardState, error) {
	h, err := media.NewHandle(name, data)
	if err != nil {
		return nil, err
	}
	return s.do(ctx, user, func(c *wizard.Controller) error { return c.SetImage(ctx, h) })
}

func (s *wizardService) AddGalleryImage(ctx context.Context, user *domain.Principal, name string, data []byte) (*domain.WizardState, error) {
	h, err := media.NewHandle(name, data)
	if err != nil {
		return nil, err
	}
	return s.do(ctx, user, func(c *wizard.Controller) error { return c.AddGalleryImage(ctx, h) })
}

func (s *wizardService) RemoveGalleryImage(ctx context.Context, user *domain.Principal, index int) (*domain.WizardState, error) {
	return s.do(ctx, user, func(c *wizard.Controller) error { return c.RemoveGalleryImage(ctx, index) })
}

func (s *wizardService) Submit(ctx context.Context, user *domain.Principal) (*domain.EventDraft, error) {
	c, err := s.controller(ctx, user)
	if err != nil {
		return nil, err
	}
	if s.submitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.submitTimeout)
		defer cancel()
	}
	created, err := c.Submit(ctx, user.Token)
	if err != nil {
		return nil, err
	}
	s.forget(user.UserID, c)
	s.notifyPublished(context.WithoutCancel(ctx), user, created)
	return created, nil
}

// notifyPublished emails the organiser. Failures are logged only: the event
// already exists.
func (s *wizardService) notifyPublished(ctx context.Context, user *domain.Principal, created *domain.EventDraft) {
	if s.emailService == nil || user.Email == "" {
		return
	}
	where := strings.Trim(strings.Join([]string{created.Venue, created.Location}, ", "), ", ")
	if created.IsVirtual {
		where = "Online"
		if created.VirtualEventDetails != nil {
			where = fmt.Sprintf("Online (%s)", created.VirtualEventDetails.Platform)
		}
	}
	hostName := created.HostName
	if hostName == "" {
		hostName = user.Name
	}
	data := &domain.EventPublishedEmailData{
		Email:       user.Email,
		HostName:    hostName,
		Title:       created.Title,
		Date:        created.Date,
		Time:        created.Time,
		Where:       where,
		Slug:        created.Slug,
		TicketTypes: len(created.TicketType),
	}
	if err := s.emailService.SendEventPublished(ctx, data); err != nil {
		s.logger.WarnContext(ctx, "event published email not sent", "user_id", user.UserID, "err", err)
	}
}

func (s *wizardService) Abandon(ctx context.Context, user *domain.Principal) error {
	if user == nil || user.UserID == "" {
		return domain.ErrUnauthorized
	}
	s.mu.Lock()
	c, ok := s.sessions[user.UserID]
	delete(s.sessions, user.UserID)
	s.mu.Unlock()
	if ok {
		c.Abandon(ctx)
		return nil
	}
	s.store.Clear(ctx, domain.DraftStorageKeyFor(user.UserID))
	return nil
}

func (s *wizardService) EvictIdle(maxIdle time.Duration) int {
	cutoff := s.now().Add(-maxIdle)
	s.mu.Lock()
	defer s.mu.Unlock()
	evicted := 0
	for userID, c := range s.sessions {
		if c.State().Submitting || c.LastActive().After(cutoff) {
			continue
		}
		c.Dispose()
		delete(s.sessions, userID)
		evicted++
	}
	return evicted
}
