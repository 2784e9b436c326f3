// Package session assigns a stable session id to each visitor. The id lives
// in redis under a sliding TTL so every captured event within the window
// correlates to the same session.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"storefront-analytics-tracker/shared/cachex"
)

const keyPrefix = "tracker:session:"

type Resolver interface {
	// Resolve returns the session id for the visitor key, minting one when
	// none is live. Resolving extends the TTL.
	Resolve(ctx context.Context, visitorKey string) (string, error)
}

type RedisResolver struct {
	cache *cachex.Client
	ttl   time.Duration
}

func NewRedisResolver(cache *cachex.Client, ttl time.Duration) *RedisResolver {
	return &RedisResolver{cache: cache, ttl: ttl}
}

func (r *RedisResolver) Resolve(ctx context.Context, visitorKey string) (string, error) {
	key := keyPrefix + visitorKey
	id, found, err := r.cache.GetString(ctx, key)
	if err != nil {
		return "", err
	}
	if found {
		if err := r.cache.Touch(ctx, key, r.ttl); err != nil {
			return "", err
		}
		return id, nil
	}
	id = uuid.NewString()
	if err := r.cache.SetString(ctx, key, id, r.ttl); err != nil {
		return "", err
	}
	return id, nil
}

// MemoryResolver backs tests and redis-less development setups.
type MemoryResolver struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	sessions map[string]memorySession
}

type memorySession struct {
	id        string
	expiresAt time.Time
}

func NewMemoryResolver(ttl time.Duration) *MemoryResolver {
	return &MemoryResolver{
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]memorySession),
	}
}

func (r *MemoryResolver) Resolve(ctx context.Context, visitorKey string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	if s, ok := r.sessions[visitorKey]; ok && now.Before(s.expiresAt) {
		s.expiresAt = now.Add(r.ttl)
		r.sessions[visitorKey] = s
		return s.id, nil
	}
	s := memorySession{id: uuid.NewString(), expiresAt: now.Add(r.ttl)}
	r.sessions[visitorKey] = s
	return s.id, nil
}
