package service

import (
	"math"

	"classroom-poll-backend/database"
	"classroom-poll-backend/models"
)

// LiveResults tallies a poll from the vote ledger at the instant of the
// read. No caching: votes are the only source of truth and the same call
// with no intervening votes returns identical output. Options come back in
// their stored order, never vote-count order.
func (s *Service) LiveResults(pollID uint) (*models.LiveResults, error) {
	poll, err := s.getPoll(pollID)
	if err != nil {
		return nil, err
	}

	type optionCount struct {
		OptionID uint
		Total    int64
	}
	var counts []optionCount
	err = database.DB.Model(&models.Vote{}).
		Select("option_id, COUNT(*) AS total").
		Where("poll_id = ?", pollID).
		Group("option_id").
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}

	votesByOption := make(map[uint]int64, len(counts))
	var totalVotes int64
	for _, c := range counts {
		votesByOption[c.OptionID] = c.Total
		totalVotes += c.Total
	}

	results := make([]models.OptionResult, len(poll.Options))
	for i, opt := range poll.Options {
		votes := votesByOption[opt.ID]
		percentage := 0
		if totalVotes > 0 {
			percentage = int(math.Round(float64(votes) / float64(totalVotes) * 100))
		}
		results[i] = models.OptionResult{
			ID:         opt.ID,
			Text:       opt.Text,
			Votes:      votes,
			Percentage: percentage,
		}
	}

	return &models.LiveResults{
		Poll: models.PollSummary{
			ID:         poll.ID,
			Question:   poll.Question,
			Status:     poll.Status,
			TotalVotes: totalVotes,
		},
		Results: results,
	}, nil
}
