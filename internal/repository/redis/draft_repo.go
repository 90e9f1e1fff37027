// Package redis stores drafts in Redis with a key TTL, so abandoned drafts
// disappear without a sweep.
package redis

import (
	"context"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"ticketwizard/internal/domain"
)

type draftRepository struct {
	client *goredis.Client
	prefix string
	ttl    time.Duration
}

// NewDraftRepository returns a domain.DraftRepository backed by client. Keys
// are namespaced with prefix and expire after ttl.
func NewDraftRepository(client *goredis.Client, prefix string, ttl time.Duration) domain.DraftRepository {
	return &draftRepository{client: client, prefix: prefix, ttl: ttl}
}

func (r *draftRepository) redisKey(key string) string {
	if r.prefix == "" {
		return key
	}
	return r.prefix + ":" + key
}

func (r *draftRepository) Get(ctx context.Context, key string) ([]byte, error) {
	payload, err := r.client.Get(ctx, r.redisKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return payload, nil
}

func (r *draftRepository) Put(ctx context.Context, key string, payload []byte) error {
	return r.client.Set(ctx, r.redisKey(key), payload, r.ttl).Err()
}

func (r *draftRepository) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.redisKey(key)).Err()
}
