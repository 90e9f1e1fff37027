package domain

import "context"

// DraftStorageKey is the slot under which wizard progress is stored.
const DraftStorageKey = "eventFormProgress"

// DraftStorageKeyFor returns the storage slot of a single user.
func DraftStorageKeyFor(userID string) string {
	if userID == "" {
		return DraftStorageKey
	}
	return DraftStorageKey + ":" + userID
}

// DraftRepository stores serialized wizard progress. Each key holds at most one
// payload; Put overwrites. Get returns ErrNotFound when the key is empty.
type DraftRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, payload []byte) error
	Delete(ctx context.Context, key string) error
}
