package scheduler

import (
	"sync"
	"time"
)

// memoryQueue runs one time.AfterFunc per scheduled poll. Entries do not
// survive a restart; the lifecycle sweeper picks up any poll whose deadline
// passed while no timer was armed.
type memoryQueue struct {
	mu      sync.Mutex
	timers  map[uint]*time.Timer
	handler HandlerFunc
	started bool
	pending []pendingEntry
}

type pendingEntry struct {
	pollID uint
	fireAt time.Time
}

func newMemoryQueue() *memoryQueue {
	return &memoryQueue{timers: make(map[uint]*time.Timer)}
}

func (q *memoryQueue) Schedule(pollID uint, fireAt time.Time) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.started {
		q.pending = append(q.pending, pendingEntry{pollID: pollID, fireAt: fireAt})
		return nil
	}
	q.arm(pollID, fireAt)
	return nil
}

func (q *memoryQueue) Start(handler HandlerFunc) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.handler = handler
	q.started = true
	for _, entry := range q.pending {
		q.arm(entry.pollID, entry.fireAt)
	}
	q.pending = nil
}

func (q *memoryQueue) Stop() {
	q.mu.Lock()
	defer q.mu.Unlock()

	for pollID, timer := range q.timers {
		timer.Stop()
		delete(q.timers, pollID)
	}
	q.started = false
}

// arm replaces any existing timer for the poll. Caller holds q.mu.
func (q *memoryQueue) arm(pollID uint, fireAt time.Time) {
	if existing, ok := q.timers[pollID]; ok {
		existing.Stop()
	}

	delay := time.Until(fireAt)
	if delay < 0 {
		delay = 0
	}
	q.timers[pollID] = time.AfterFunc(delay, func() {
		q.mu.Lock()
		delete(q.timers, pollID)
		handler := q.handler
		q.mu.Unlock()

		if handler != nil {
			handler(pollID)
		}
	})
}
