// Package services holds the application services that sit between the HTTP
// handlers and persistence. Every mutation runs in the same order: load the
// referenced entities, check ownership, mutate through the entity's methods,
// persist, then invalidate the cache keys that could observe the change.
//
// Cache failures never fail a call; they are logged and the store stays the
// source of truth. A crash between persisting and invalidating leaves stale
// entries for at most one TTL.
package services

import (
	"context"
	"log"
	"time"

	"github.com/monocle-dev/taskhub/internal/cache"
	"github.com/monocle-dev/taskhub/internal/repository"
)

// Notifier is told about every committed change to a project or its tasks.
type Notifier interface {
	ProjectChanged(projectID string)
}

type nopNotifier struct{}

func (nopNotifier) ProjectChanged(string) {}

// Deps are the collaborators shared by the services. Cache and Keys are
// required; TTL defaults to cache.DefaultTTL and Notifier to a no-op.
type Deps struct {
	Projects repository.ProjectRepository
	Tasks    repository.TaskRepository
	Users    repository.UserRepository
	Cache    cache.Cache
	Keys     cache.Keys
	TTL      time.Duration
	Notifier Notifier
}

func (d Deps) withDefaults() Deps {
	if d.TTL <= 0 {
		d.TTL = cache.DefaultTTL
	}
	if d.Notifier == nil {
		d.Notifier = nopNotifier{}
	}
	return d
}

// cacheStore applies the swallow-and-log policy around a cache.Cache.
type cacheStore struct {
	cache cache.Cache
	ttl   time.Duration
}

func (c cacheStore) get(ctx context.Context, key string, dest any) bool {
	found, err := c.cache.Get(ctx, key, dest)
	if err != nil {
		log.Printf("Cache read failed for %s: %v", key, err)
		return false
	}
	return found
}

func (c cacheStore) set(ctx context.Context, key string, value any) {
	if err := c.cache.Set(ctx, key, value, c.ttl); err != nil {
		log.Printf("Cache write failed for %s: %v", key, err)
	}
}

type invalidation struct {
	keys     []string
	patterns []string
}

func (c cacheStore) invalidate(ctx context.Context, inv invalidation) {
	for _, key := range inv.keys {
		if err := c.cache.Delete(ctx, key); err != nil {
			log.Printf("Cache delete failed for %s: %v", key, err)
		}
	}

	for _, pattern := range inv.patterns {
		if _, err := c.cache.DeleteByPattern(ctx, pattern); err != nil {
			log.Printf("Cache pattern delete failed for %s: %v", pattern, err)
		}
	}
}
