package service

import (
	"errors"
	"log"
	"time"

	"classroom-poll-backend/database"
	"classroom-poll-backend/models"
	"classroom-poll-backend/realtime"

	"gorm.io/gorm"
)

// CreatePollInput carries a validated create request into the core.
type CreatePollInput struct {
	Question    string
	Description string
	TeacherName string
	Options     []OptionInput
}

// OptionInput is one option of a create request. Order defaults to the array
// index when the caller leaves it unset.
type OptionInput struct {
	Text  string
	Order *int
}

// CreatePoll persists a poll with its options in one transaction and
// notifies the presenter audience. It deliberately does not check for an
// already-active poll; that guard lives on the query side in CanStartNewPoll.
func (s *Service) CreatePoll(in CreatePollInput) (*models.Poll, error) {
	if len(in.Options) < 2 {
		return nil, ErrTooFewOptions
	}

	var pollID uint
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		teacher, err := resolveOrCreateUser(tx, in.TeacherName, models.RoleTeacher)
		if err != nil {
			return err
		}

		poll := models.Poll{
			Question:    in.Question,
			Description: in.Description,
			Status:      models.PollStatusActive,
			CreatedByID: teacher.ID,
		}
		if err := tx.Create(&poll).Error; err != nil {
			return err
		}

		options := make([]models.PollOption, len(in.Options))
		seenOrders := make(map[int]bool, len(in.Options))
		for i, opt := range in.Options {
			order := i
			if opt.Order != nil {
				order = *opt.Order
			}
			// Mixing explicit and defaulted orders can collide; reject
			// here instead of surfacing the unique-index error.
			if seenOrders[order] {
				return ErrDuplicateOrder
			}
			seenOrders[order] = true
			options[i] = models.PollOption{
				PollID: poll.ID,
				Text:   opt.Text,
				Order:  order,
			}
		}
		if err := tx.Create(&options).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicateOrder
			}
			return err
		}

		pollID = poll.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	created, err := s.getPoll(pollID)
	if err != nil {
		return nil, err
	}

	s.hub.Broadcast(realtime.RoomTeacher, realtime.PollCreated(created))
	return created, nil
}

// StartPoll marks the poll active, stamps the start time and, when a
// duration is given, stores the scheduled end and arms the auto-end timer.
// It returns without waiting for expiry.
func (s *Service) StartPoll(pollID uint, durationSeconds *int) (*models.Poll, error) {
	if _, err := s.getPoll(pollID); err != nil {
		return nil, err
	}

	now := time.Now()
	var endsAt *time.Time
	if durationSeconds != nil {
		t := now.Add(time.Duration(*durationSeconds) * time.Second)
		endsAt = &t
	}

	err := database.DB.Model(&models.Poll{}).Where("id = ?", pollID).Updates(map[string]interface{}{
		"status":     models.PollStatusActive,
		"started_at": now,
		"ends_at":    endsAt,
	}).Error
	if err != nil {
		return nil, err
	}

	poll, err := s.getPoll(pollID)
	if err != nil {
		return nil, err
	}

	s.broadcastPollEvent(pollID, realtime.PollStarted(poll))

	if endsAt != nil {
		// Fire-and-forget; a scheduling failure is recovered by the
		// expiry sweeper, which also closes the poll for voting via
		// the ends_at check in SubmitVote.
		if err := s.queue.Schedule(pollID, *endsAt); err != nil {
			log.Printf("Failed to schedule auto-end for poll %d: %v", pollID, err)
		}
	}

	return poll, nil
}

// EndPoll completes the poll unconditionally and broadcasts the final
// tallies to all three audiences.
func (s *Service) EndPoll(pollID uint) (*models.Poll, error) {
	if _, err := s.getPoll(pollID); err != nil {
		return nil, err
	}

	err := database.DB.Model(&models.Poll{}).Where("id = ?", pollID).
		Update("status", models.PollStatusCompleted).Error
	if err != nil {
		return nil, err
	}

	poll, err := s.getPoll(pollID)
	if err != nil {
		return nil, err
	}

	results, err := s.LiveResults(pollID)
	if err != nil {
		log.Printf("Failed to compute results for ended poll %d: %v", pollID, err)
		results = nil
	}

	s.broadcastPollEvent(pollID, realtime.PollEnded(poll, results))
	return poll, nil
}

// AutoEndPoll is the deferred auto-end action. Nothing waits on it, so every
// failure is logged and swallowed. The conditional update makes a late
// firing after a manual end a no-op, and the duplicate poll-ended broadcast
// is suppressed in that case.
func (s *Service) AutoEndPoll(pollID uint) {
	res := database.DB.Model(&models.Poll{}).
		Where("id = ? AND status = ?", pollID, models.PollStatusActive).
		Update("status", models.PollStatusCompleted)
	if res.Error != nil {
		log.Printf("Auto-end for poll %d failed: %v", pollID, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		log.Printf("Auto-end for poll %d skipped: already completed", pollID)
		return
	}

	poll, err := s.getPoll(pollID)
	if err != nil {
		log.Printf("Auto-end for poll %d: reload failed: %v", pollID, err)
		return
	}

	results, err := s.LiveResults(pollID)
	if err != nil {
		log.Printf("Auto-end for poll %d: results failed: %v", pollID, err)
		results = nil
	}

	log.Printf("Poll %d auto-ended", pollID)
	s.broadcastPollEvent(pollID, realtime.PollEnded(poll, results))
}

// GetActivePoll returns the currently active poll or nil. Should more than
// one exist the earliest-created wins; the query must not fail on that state.
func (s *Service) GetActivePoll() (*models.Poll, error) {
	var poll models.Poll
	err := database.DB.
		Where("status = ?", models.PollStatusActive).
		Order("created_at ASC").
		Preload("Options", orderedOptions).
		Preload("CreatedBy").
		First(&poll).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &poll, nil
}

// CanStartNewPoll reports whether no poll is active, and which one is if so.
func (s *Service) CanStartNewPoll() (bool, uint, error) {
	active, err := s.GetActivePoll()
	if err != nil {
		return false, 0, err
	}
	if active == nil {
		return true, 0, nil
	}
	return false, active.ID, nil
}

// NextPollForStudent returns the earliest-created active poll the student
// has not voted in, or nil (also for an unknown student).
func (s *Service) NextPollForStudent(studentName string) (*models.Poll, error) {
	student, err := s.FindUser(studentName, models.RoleStudent)
	if err != nil {
		return nil, err
	}
	if student == nil {
		return nil, nil
	}

	voted := database.DB.Model(&models.Vote{}).
		Select("poll_id").
		Where("user_id = ?", student.ID)

	var poll models.Poll
	err = database.DB.
		Where("status = ?", models.PollStatusActive).
		Where("id NOT IN (?)", voted).
		Order("created_at ASC").
		Preload("Options", orderedOptions).
		Preload("CreatedBy").
		First(&poll).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &poll, nil
}

// ListPolls returns every poll with its options, newest first.
func (s *Service) ListPolls() ([]models.Poll, error) {
	var polls []models.Poll
	err := database.DB.
		Preload("Options", orderedOptions).
		Preload("CreatedBy").
		Order("created_at DESC").
		Find(&polls).Error
	if err != nil {
		return nil, err
	}
	return polls, nil
}

// GetPoll returns one poll with options and creator.
func (s *Service) GetPoll(pollID uint) (*models.Poll, error) {
	return s.getPoll(pollID)
}

// SweepExpiredOnce completes every active poll whose scheduled end has
// passed. It backs up the delay queue: lost in-memory timers after a restart
// and failed Schedule calls all land here.
func (s *Service) SweepExpiredOnce() {
	var ids []uint
	err := database.DB.Model(&models.Poll{}).
		Where("status = ? AND ends_at IS NOT NULL AND ends_at < ?", models.PollStatusActive, time.Now()).
		Pluck("id", &ids).Error
	if err != nil {
		log.Printf("Expiry sweep failed: %v", err)
		return
	}
	for _, id := range ids {
		s.AutoEndPoll(id)
	}
}

// RunExpirySweeper runs SweepExpiredOnce on a fixed interval until stop is
// closed.
func (s *Service) RunExpirySweeper(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.SweepExpiredOnce()
		}
	}
}
