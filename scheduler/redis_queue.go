package scheduler

import (
	"context"
	"log"
	"strconv"
	"time"

	"classroom-poll-backend/cache"

	"github.com/redis/go-redis/v9"
)

const (
	autoEndKey  = "classpoll:autoend"
	drainLock   = "classpoll:autoend:drain"
	pollPeriod  = 250 * time.Millisecond
	lockExpiry  = 5 * time.Second
	drainBudget = 100
)

// redisQueue stores due times in a sorted set scored by unix milliseconds.
// Entries survive restarts, and ZREM acts as the claim: whichever instance
// removes the member fires the handler.
type redisQueue struct {
	client *redis.Client
	locks  *cache.LockService
	done   chan struct{}
}

func newRedisQueue(client *redis.Client, locks *cache.LockService) *redisQueue {
	return &redisQueue{
		client: client,
		locks:  locks,
		done:   make(chan struct{}),
	}
}

func (q *redisQueue) Schedule(pollID uint, fireAt time.Time) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	member := strconv.FormatUint(uint64(pollID), 10)
	return q.client.ZAdd(ctx, autoEndKey, redis.Z{
		Score:  float64(fireAt.UnixMilli()),
		Member: member,
	}).Err()
}

func (q *redisQueue) Start(handler HandlerFunc) {
	go q.run(handler)
}

func (q *redisQueue) Stop() {
	close(q.done)
}

func (q *redisQueue) run(handler HandlerFunc) {
	ticker := time.NewTicker(pollPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-q.done:
			return
		case <-ticker.C:
			q.drain(handler)
		}
	}
}

// drain hands every due entry to the handler. The drain lock keeps a single
// instance scanning at a time; it is best-effort only, the per-member ZREM
// claim is what guarantees single firing.
func (q *redisQueue) drain(handler HandlerFunc) {
	if q.locks != nil {
		mutex, ok := q.locks.TryLock(drainLock, lockExpiry)
		if !ok {
			return
		}
		defer q.locks.Unlock(mutex)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	now := strconv.FormatInt(time.Now().UnixMilli(), 10)
	members, err := q.client.ZRangeByScore(ctx, autoEndKey, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   now,
		Count: drainBudget,
	}).Result()
	if err != nil {
		log.Printf("Auto-end scheduler: scan failed: %v", err)
		return
	}

	for _, member := range members {
		removed, err := q.client.ZRem(ctx, autoEndKey, member).Result()
		if err != nil {
			log.Printf("Auto-end scheduler: claim failed for poll %s: %v", member, err)
			continue
		}
		if removed == 0 {
			// Another instance claimed it first.
			continue
		}

		pollID, err := strconv.ParseUint(member, 10, 64)
		if err != nil {
			log.Printf("Auto-end scheduler: invalid member %q dropped", member)
			continue
		}
		handler(uint(pollID))
	}
}
