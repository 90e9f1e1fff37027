package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"ticketwizard/internal/domain"
	"ticketwizard/internal/repository/memory"
	"ticketwizard/internal/wizard"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

// fakeSubmitter implements domain.EventSubmitter for tests.
type fakeSubmitter struct {
	mu       sync.Mutex
	calls    int
	token    string
	deadline bool
	created  *domain.EventDraft
	err      error
}

func (f *fakeSubmitter) Submit(ctx context.Context, d domain.EventDraft, token string) (*domain.EventDraft, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.token = token
	_, f.deadline = ctx.Deadline()
	if f.err != nil {
		return nil, f.err
	}
	if f.created != nil {
		out := *f.created
		out.Title = d.Title
		out.Venue = d.Venue
		out.Location = d.Location
		out.TicketType = d.TicketType
		return &out, nil
	}
	return &d, nil
}

// fakeEmailService implements domain.EmailService for tests.
type fakeEmailService struct {
	mu   sync.Mutex
	sent []*domain.EventPublishedEmailData
	err  error
}

func (f *fakeEmailService) SendEventPublished(_ context.Context, data *domain.EventPublishedEmailData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, data)
	return f.err
}

type wizardFixture struct {
	svc    domain.WizardService
	repo   domain.DraftRepository
	sub    *fakeSubmitter
	emails *fakeEmailService
}

func newWizardFixture() *wizardFixture {
	repo := memory.NewDraftRepository()
	sub := &fakeSubmitter{created: &domain.EventDraft{ID: "evt-1", Slug: "gala"}}
	emails := &fakeEmailService{}
	store := wizard.NewDraftStore(repo, testLogger, 0)
	return &wizardFixture{
		svc:    NewWizardService(store, sub, emails, testLogger, 5*time.Second),
		repo:   repo,
		sub:    sub,
		emails: emails,
	}
}

var (
	alice = &domain.Principal{UserID: "alice", Email: "alice@example.com", Name: "Alice", Token: "tok-a"}
	bob   = &domain.Principal{UserID: "bob", Email: "bob@example.com", Token: "tok-b"}
)

// completeWizard walks user through every step with a valid in-person event.
func completeWizard(t *testing.T, svc domain.WizardService, user *domain.Principal) {
	t.Helper()
	ctx := context.Background()
	_, err := svc.SetImage(ctx, user, "cover.png", pngBytes)
	require.NoError(t, err)
	_, err = svc.Apply(ctx, user, domain.DraftPatch{
		Title:       domain.Some("Gala"),
		Description: domain.Some("A night"),
		Date:        domain.Some("2025-01-01"),
		Time:        domain.Some("19:00"),
		Venue:       domain.Some("Hall A"),
		Location:    domain.Some("Lagos"),
	})
	require.NoError(t, err)
	_, err = svc.AddTicketType(ctx, user, domain.NewTicketType("VIP", "100", "2", false))
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err = svc.Next(ctx, user)
		require.NoError(t, err)
	}
}

func TestWizardService_RequiresUser(t *testing.T) {
	f := newWizardFixture()
	_, err := f.svc.State(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = f.svc.State(context.Background(), &domain.Principal{})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.ErrorIs(t, f.svc.Abandon(context.Background(), nil), domain.ErrUnauthorized)
}

func TestWizardService_UsersAreIsolated(t *testing.T) {
	ctx := context.Background()
	f := newWizardFixture()

	_, err := f.svc.Apply(ctx, alice, domain.DraftPatch{Title: domain.Some("Alice's party")})
	require.NoError(t, err)
	state, err := f.svc.State(ctx, bob)
	require.NoError(t, err)
	assert.Empty(t, state.Draft.Title)

	_, err = f.repo.Get(ctx, domain.DraftStorageKeyFor("alice"))
	assert.NoError(t, err)
	_, err = f.repo.Get(ctx, domain.DraftStorageKeyFor("bob"))
	assert.ErrorIs(t, err, domain.ErrNotFound, "reading state does not save")
}

func TestWizardService_NextReportsFirstFailure(t *testing.T) {
	f := newWizardFixture()
	_, err := f.svc.Next(context.Background(), alice)

	var verr *wizard.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "title", verr.Field)
}

func TestWizardService_Images(t *testing.T) {
	ctx := context.Background()
	f := newWizardFixture()

	state, err := f.svc.SetImage(ctx, alice, "cover.png", pngBytes)
	require.NoError(t, err)
	require.NotNil(t, state.Draft.Image)
	assert.Equal(t, "image/png", state.Draft.Image.ContentType)

	_, err = f.svc.SetImage(ctx, alice, "notes.txt", []byte("plain text"))
	assert.ErrorIs(t, err, domain.ErrUnsupportedMedia)

	for i := 0; i < domain.MaxGalleryImages; i++ {
		_, err = f.svc.AddGalleryImage(ctx, alice, "g.png", pngBytes)
		require.NoError(t, err)
	}
	_, err = f.svc.AddGalleryImage(ctx, alice, "g.png", pngBytes)
	assert.ErrorIs(t, err, domain.ErrGalleryFull)

	state, err = f.svc.RemoveGalleryImage(ctx, alice, 0)
	require.NoError(t, err)
	assert.Len(t, state.Draft.Gallery, domain.MaxGalleryImages-1)
}

func TestWizardService_Attendees(t *testing.T) {
	ctx := context.Background()
	f := newWizardFixture()
	_, err := f.svc.AddTicketType(ctx, alice, domain.NewTicketType("VIP", "100", "2", false))
	require.NoError(t, err)

	_, err = f.svc.AddAttendee(ctx, alice, 0, domain.Attendee{Name: " Ada ", Email: " ada@example.com "})
	require.NoError(t, err)
	state, err := f.svc.AddAttendee(ctx, alice, 0, domain.Attendee{Name: "Bo", Email: "bo@example.com"})
	require.NoError(t, err)
	assert.Equal(t, domain.Attendee{Name: "Ada", Email: "ada@example.com"}, state.Draft.TicketType[0].Attendees[0])

	_, err = f.svc.AddAttendee(ctx, alice, 0, domain.Attendee{Name: "Cy", Email: "cy@example.com"})
	assert.ErrorIs(t, err, domain.ErrAttendeeLimit)

	state, err = f.svc.RemoveAttendee(ctx, alice, 0, 1)
	require.NoError(t, err)
	assert.Len(t, state.Draft.TicketType[0].Attendees, 1)

	state, err = f.svc.RemoveTicketType(ctx, alice, 0)
	require.NoError(t, err)
	assert.Empty(t, state.Draft.TicketType)
}

func TestWizardService_SubmitSuccess(t *testing.T) {
	ctx := context.Background()
	f := newWizardFixture()
	completeWizard(t, f.svc, alice)

	created, err := f.svc.Submit(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, "evt-1", created.ID)
	assert.Equal(t, "tok-a", f.sub.token)
	assert.True(t, f.sub.deadline, "submission runs under a timeout")

	_, err = f.repo.Get(ctx, domain.DraftStorageKeyFor("alice"))
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.Len(t, f.emails.sent, 1)
	sent := f.emails.sent[0]
	assert.Equal(t, "alice@example.com", sent.Email)
	assert.Equal(t, "Alice", sent.HostName, "falls back to the caller's name")
	assert.Equal(t, "Gala", sent.Title)
	assert.Equal(t, "Hall A, Lagos", sent.Where)
	assert.Equal(t, "gala", sent.Slug)
	assert.Equal(t, 1, sent.TicketTypes)

	state, err := f.svc.State(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, 1, state.Step)
	assert.Empty(t, state.Draft.Title)
}

func TestWizardService_SubmitEmailFailureIsNotFatal(t *testing.T) {
	f := newWizardFixture()
	f.emails.err = errors.New("ses down")
	completeWizard(t, f.svc, alice)

	created, err := f.svc.Submit(context.Background(), alice)
	require.NoError(t, err)
	assert.Equal(t, "evt-1", created.ID)
}

func TestWizardService_SubmitFailureKeepsProgress(t *testing.T) {
	ctx := context.Background()
	f := newWizardFixture()
	f.sub.err = &domain.SubmissionError{Kind: domain.SubmissionAuth, Message: "Your session has expired. Please log in again.", StatusCode: 401}
	completeWizard(t, f.svc, alice)

	_, err := f.svc.Submit(ctx, alice)
	var serr *domain.SubmissionError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, domain.SubmissionAuth, serr.Kind)
	assert.Empty(t, f.emails.sent)

	state, err := f.svc.State(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, 4, state.Step)
	assert.Equal(t, "Gala", state.Draft.Title)
}

func TestWizardService_Abandon(t *testing.T) {
	ctx := context.Background()
	f := newWizardFixture()
	_, err := f.svc.Apply(ctx, alice, domain.DraftPatch{Title: domain.Some("Gala")})
	require.NoError(t, err)

	require.NoError(t, f.svc.Abandon(ctx, alice))
	_, err = f.repo.Get(ctx, domain.DraftStorageKeyFor("alice"))
	assert.ErrorIs(t, err, domain.ErrNotFound)

	state, err := f.svc.State(ctx, alice)
	require.NoError(t, err)
	assert.Empty(t, state.Draft.Title, "a fresh wizard is mounted")

	require.NoError(t, f.svc.Abandon(ctx, bob), "abandoning without a wizard is fine")
}

func TestWizardService_EvictIdleRestoresFromStore(t *testing.T) {
	ctx := context.Background()
	f := newWizardFixture()
	svc := f.svc.(*wizardService)
	now := time.Now()
	svc.now = func() time.Time { return now }

	_, err := svc.SetImage(ctx, alice, "cover.png", pngBytes)
	require.NoError(t, err)
	_, err = svc.Apply(ctx, alice, domain.DraftPatch{Title: domain.Some("Gala")})
	require.NoError(t, err)

	assert.Equal(t, 0, svc.EvictIdle(time.Hour), "recently used wizards stay")

	now = now.Add(2 * time.Hour)
	assert.Equal(t, 1, svc.EvictIdle(time.Hour))

	state, err := svc.State(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, "Gala", state.Draft.Title)
	assert.Nil(t, state.Draft.Image)
	assert.Equal(t, wizard.RestoreNotice, state.Notice)
}

// slowRepo blocks reads of slowKey until release is closed.
type slowRepo struct {
	domain.DraftRepository
	slowKey string
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (r *slowRepo) Get(ctx context.Context, key string) ([]byte, error) {
	if key == r.slowKey {
		r.once.Do(func() { close(r.entered) })
		<-r.release
	}
	return r.DraftRepository.Get(ctx, key)
}

func TestWizardService_SlowLoadDoesNotBlockOthers(t *testing.T) {
	ctx := context.Background()
	repo := &slowRepo{
		DraftRepository: memory.NewDraftRepository(),
		slowKey:         domain.DraftStorageKeyFor("alice"),
		entered:         make(chan struct{}),
		release:         make(chan struct{}),
	}
	svc := NewWizardService(wizard.NewDraftStore(repo, testLogger, 0), &fakeSubmitter{}, nil, testLogger, time.Second).(*wizardService)

	mounted := make(chan *wizard.Controller, 2)
	for i := 0; i < 2; i++ {
		go func() {
			c, err := svc.controller(ctx, alice)
			assert.NoError(t, err)
			mounted <- c
		}()
	}
	<-repo.entered

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := svc.Apply(ctx, bob, domain.DraftPatch{Title: domain.Some("Bob's party")})
		assert.NoError(t, err)
		assert.Equal(t, 0, svc.EvictIdle(time.Hour))
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("another user's request waited on a slow storage read")
	}

	close(repo.release)
	first, second := <-mounted, <-mounted
	assert.Same(t, first, second, "concurrent mounts share one wizard")

	state, err := svc.State(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, 1, state.Step)
}

func TestWizardService_RetriesOnDisposedWizard(t *testing.T) {
	ctx := context.Background()
	f := newWizardFixture()
	svc := f.svc.(*wizardService)

	_, err := svc.Apply(ctx, alice, domain.DraftPatch{Title: domain.Some("Gala")})
	require.NoError(t, err)

	// Evicted after the lookup but before the edit ran.
	svc.mu.Lock()
	stale := svc.sessions["alice"]
	svc.mu.Unlock()
	stale.Dispose()

	state, err := svc.Apply(ctx, alice, domain.DraftPatch{Description: domain.Some("A night")})
	require.NoError(t, err)
	assert.Equal(t, "Gala", state.Draft.Title, "draft restored from storage")
	assert.Equal(t, "A night", state.Draft.Description)

	svc.mu.Lock()
	assert.NotSame(t, stale, svc.sessions["alice"])
	svc.mu.Unlock()
}
