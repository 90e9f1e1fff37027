package wizard

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"ticketwizard/internal/domain"
)

// DefaultDraftTTL is how long an unsubmitted draft survives in storage.
const DefaultDraftTTL = 24 * time.Hour

// storedDraft is the persisted document: {"data": ..., "lastUpdated": ...}.
type storedDraft struct {
	Data        domain.EventDraft `json:"data"`
	LastUpdated time.Time         `json:"lastUpdated"`
}

// DraftStore persists the serializable part of a draft in a single slot per
// key. Storage failures are logged and never returned: the draft in memory
// stays valid whatever happens here.
type DraftStore struct {
	repo   domain.DraftRepository
	logger *slog.Logger
	ttl    time.Duration
	now    func() time.Time
}

// NewDraftStore returns a DraftStore over repo. A ttl of zero uses DefaultDraftTTL.
func NewDraftStore(repo domain.DraftRepository, logger *slog.Logger, ttl time.Duration) *DraftStore {
	if ttl <= 0 {
		ttl = DefaultDraftTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DraftStore{repo: repo, logger: logger, ttl: ttl, now: time.Now}
}

// TTL returns the draft lifetime.
func (s *DraftStore) TTL() time.Duration { return s.ttl }

// Save writes d without its binary fields.
func (s *DraftStore) Save(ctx context.Context, key string, d domain.EventDraft) {
	payload, err := json.Marshal(storedDraft{Data: d.Stripped(), LastUpdated: s.now().UTC()})
	if err != nil {
		s.logger.WarnContext(ctx, "draft not saved", "key", key, "err", err)
		return
	}
	if err := s.repo.Put(ctx, key, payload); err != nil {
		s.logger.WarnContext(ctx, "draft not saved", "key", key, "err", err)
	}
}

// Load returns the saved draft for key, or nil when there is none. Expired and
// unreadable entries are deleted and reported as absent.
func (s *DraftStore) Load(ctx context.Context, key string) *domain.EventDraft {
	payload, err := s.repo.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.WarnContext(ctx, "draft not loaded", "key", key, "err", err)
		}
		return nil
	}
	var stored storedDraft
	if err := json.Unmarshal(payload, &stored); err != nil {
		s.logger.WarnContext(ctx, "discarding unreadable draft", "key", key, "err", err)
		s.Clear(ctx, key)
		return nil
	}
	if s.now().Sub(stored.LastUpdated) > s.ttl {
		s.logger.InfoContext(ctx, "discarding expired draft", "key", key, "last_updated", stored.LastUpdated)
		s.Clear(ctx, key)
		return nil
	}
	d := stored.Data
	d.Image = nil
	d.Gallery = nil
	return &d
}

// Clear removes the entry for key.
func (s *DraftStore) Clear(ctx context.Context, key string) {
	if err := s.repo.Delete(ctx, key); err != nil && !errors.Is(err, domain.ErrNotFound) {
		s.logger.WarnContext(ctx, "draft not cleared", "key", key, "err", err)
	}
}
