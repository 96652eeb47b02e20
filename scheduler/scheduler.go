// Package scheduler delivers the one-shot auto-end action for polls started
// with a duration. Entries are keyed by poll ID and fire-and-forget: the call
// that schedules them never waits, and a firing that fails is logged by its
// handler, not propagated.
package scheduler

import (
	"log"
	"time"

	"classroom-poll-backend/cache"

	"github.com/redis/go-redis/v9"
)

// HandlerFunc processes a due poll ID. It must be idempotent: a timer is not
// cancelled when a poll is ended manually, so late firings happen.
type HandlerFunc func(pollID uint)

// Queue is a delayed delivery queue keyed by poll ID.
type Queue interface {
	// Schedule enqueues pollID to be handed to the handler at fireAt.
	// Scheduling the same poll again replaces the previous entry.
	Schedule(pollID uint, fireAt time.Time) error
	// Start begins delivering due entries to handler.
	Start(handler HandlerFunc)
	// Stop shuts the queue down. Pending entries in the Redis backend
	// survive for the next start; in-memory entries are lost (the expiry
	// sweeper covers those).
	Stop()
}

// NewQueue picks the Redis-backed queue when a client is available and falls
// back to the in-process timer queue otherwise, the same way the MQ layer
// degrades when no broker is reachable.
func NewQueue(client *redis.Client, locks *cache.LockService) Queue {
	if client != nil {
		log.Println("Auto-end scheduler: using Redis delay queue")
		return newRedisQueue(client, locks)
	}
	log.Println("Auto-end scheduler: Redis unavailable, using in-memory timers")
	return newMemoryQueue()
}
