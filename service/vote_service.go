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

// SubmitVote records a student's vote. Preconditions are checked in order,
// each with its own error, but the uniqueness guarantee does not come from a
// read: the insert against the (poll_id, user_id) unique index is the race
// boundary, so of N concurrent duplicates exactly one succeeds and the rest
// get ErrAlreadyVoted.
func (s *Service) SubmitVote(pollID, optionID uint, studentName string) (*models.Vote, error) {
	poll, err := s.getPoll(pollID)
	if err != nil {
		return nil, err
	}

	if poll.Status != models.PollStatusActive {
		return nil, ErrPollNotActive
	}

	// A poll whose deadline passed counts as ended even if the auto-end
	// timer has not fired yet.
	if poll.EndsAt != nil && time.Now().After(*poll.EndsAt) {
		return nil, ErrPollEnded
	}

	validOption := false
	for _, opt := range poll.Options {
		if opt.ID == optionID {
			validOption = true
			break
		}
	}
	if !validOption {
		return nil, ErrInvalidOption
	}

	student, err := s.ResolveOrCreateUser(studentName, models.RoleStudent)
	if err != nil {
		return nil, err
	}

	vote := models.Vote{
		PollID:   pollID,
		OptionID: optionID,
		UserID:   student.ID,
	}
	if err := database.DB.Create(&vote).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyVoted
		}
		return nil, err
	}

	if err := database.DB.Preload("User").Preload("Option").First(&vote, vote.ID).Error; err != nil {
		log.Printf("Failed to reload vote %d: %v", vote.ID, err)
	}

	results, err := s.LiveResults(pollID)
	if err != nil {
		log.Printf("Failed to compute results after vote on poll %d: %v", pollID, err)
		return &vote, nil
	}

	s.broadcastPollEvent(pollID, realtime.VoteSubmitted(&vote, results))
	return &vote, nil
}

// HasVotedResult reports a student's standing in one poll.
type HasVotedResult struct {
	HasVoted       bool               `json:"has_voted"`
	SelectedOption *models.PollOption `json:"selected_option,omitempty"`
}

// HasVoted is a pure read; an unknown student simply has not voted.
func (s *Service) HasVoted(pollID uint, studentName string) (*HasVotedResult, error) {
	student, err := s.FindUser(studentName, models.RoleStudent)
	if err != nil {
		return nil, err
	}
	if student == nil {
		return &HasVotedResult{HasVoted: false}, nil
	}

	var vote models.Vote
	err = database.DB.
		Preload("Option").
		Where("poll_id = ? AND user_id = ?", pollID, student.ID).
		First(&vote).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &HasVotedResult{HasVoted: false}, nil
	}
	if err != nil {
		return nil, err
	}

	return &HasVotedResult{HasVoted: true, SelectedOption: vote.Option}, nil
}

// VotesForPoll lists a poll's votes newest first, with voter and chosen
// option attached. This is the audit view; tallying goes through LiveResults.
func (s *Service) VotesForPoll(pollID uint) ([]models.Vote, error) {
	if _, err := s.getPoll(pollID); err != nil {
		return nil, err
	}

	var votes []models.Vote
	err := database.DB.
		Preload("User").
		Preload("Option").
		Where("poll_id = ?", pollID).
		Order("submitted_at DESC, id DESC").
		Find(&votes).Error
	if err != nil {
		return nil, err
	}
	return votes, nil
}
