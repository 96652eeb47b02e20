// Package service implements the poll lifecycle, the vote ledger, the result
// aggregation and the participant directory. The database is the single
// synchronization point: both the one-vote-per-student rule and lifecycle
// transitions are enforced with constrained writes, never with in-process
// locks, so multiple instances can share one store.
package service

import (
	"errors"
	"time"

	"classroom-poll-backend/database"
	"classroom-poll-backend/models"
	"classroom-poll-backend/realtime"

	"gorm.io/gorm"
)

// Broadcaster pushes an event to a named audience. Implemented by the
// realtime hub; delivery is fire-and-forget and must never block the caller.
type Broadcaster interface {
	Broadcast(room string, event realtime.Event)
}

// Scheduler enqueues the deferred auto-end action for a poll.
type Scheduler interface {
	Schedule(pollID uint, fireAt time.Time) error
}

// Service 投票业务服务
type Service struct {
	hub   Broadcaster
	queue Scheduler
}

// New creates the service. The scheduler's firing handler should be wired to
// AutoEndPoll by the caller.
func New(hub Broadcaster, queue Scheduler) *Service {
	return &Service{hub: hub, queue: queue}
}

// broadcastPollEvent delivers one event to the presenter, every student and
// the poll-specific audience.
func (s *Service) broadcastPollEvent(pollID uint, event realtime.Event) {
	s.hub.Broadcast(realtime.RoomTeacher, event)
	s.hub.Broadcast(realtime.RoomStudents, event)
	s.hub.Broadcast(realtime.PollRoom(pollID), event)
}

// orderedOptions keeps option preloads in their stable display order.
func orderedOptions(db *gorm.DB) *gorm.DB {
	return db.Order("display_order ASC")
}

// getPoll loads a poll with its ordered options and creator.
func (s *Service) getPoll(pollID uint) (*models.Poll, error) {
	var poll models.Poll
	err := database.DB.
		Preload("Options", orderedOptions).
		Preload("CreatedBy").
		First(&poll, pollID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPollNotFound
	}
	if err != nil {
		return nil, err
	}
	return &poll, nil
}
