// Package memory keeps drafts in process memory. Drafts do not survive a restart.
package memory

import (
	"context"
	"sync"

	"ticketwizard/internal/domain"
)

type draftRepository struct {
	mu    sync.RWMutex
	slots map[string][]byte
}

// NewDraftRepository returns an in-memory domain.DraftRepository.
func NewDraftRepository() domain.DraftRepository {
	return &draftRepository{slots: make(map[string][]byte)}
}

func (r *draftRepository) Get(_ context.Context, key string) ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	payload, ok := r.slots[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return append([]byte(nil), payload...), nil
}

func (r *draftRepository) Put(_ context.Context, key string, payload []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.slots[key] = append([]byte(nil), payload...)
	return nil
}

func (r *draftRepository) Delete(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.slots, key)
	return nil
}
