package service

import (
	"classroom-poll-backend/database"
	"classroom-poll-backend/models"
)

// Participants lists the distinct students who voted in any poll created by
// the named teacher, or in any poll at all when the name is empty. Purely
// derived from the vote ledger; ordered by name.
func (s *Service) Participants(teacherName string) ([]models.User, error) {
	q := database.DB.Model(&models.User{}).
		Select("DISTINCT users.*").
		Joins("JOIN votes ON votes.user_id = users.id").
		Joins("JOIN polls ON polls.id = votes.poll_id").
		Where("users.role = ?", models.RoleStudent).
		Order("users.name ASC")

	if teacherName != "" {
		q = q.Joins("JOIN users teachers ON teachers.id = polls.created_by_id").
			Where("teachers.name = ? AND teachers.role = ?", teacherName, models.RoleTeacher)
	}

	var students []models.User
	if err := q.Find(&students).Error; err != nil {
		return nil, err
	}
	return students, nil
}

// Dashboard is the presenter's aggregated view.
type Dashboard struct {
	Teacher         *models.User  `json:"teacher"`
	Polls           []models.Poll `json:"polls"`
	ActivePolls     []models.Poll `json:"active_polls"`
	CanStartNewPoll bool          `json:"can_start_new_poll"`
}

// GetDashboard returns the teacher's polls, the active polls and whether a
// new one may start. An unknown teacher gets the empty view.
func (s *Service) GetDashboard(teacherName string) (*Dashboard, error) {
	teacher, err := s.FindUser(teacherName, models.RoleTeacher)
	if err != nil {
		return nil, err
	}
	if teacher == nil {
		return &Dashboard{Polls: []models.Poll{}, ActivePolls: []models.Poll{}, CanStartNewPoll: true}, nil
	}

	var polls []models.Poll
	err = database.DB.
		Where("created_by_id = ?", teacher.ID).
		Preload("Options", orderedOptions).
		Order("created_at DESC").
		Find(&polls).Error
	if err != nil {
		return nil, err
	}

	var activePolls []models.Poll
	err = database.DB.
		Where("status = ?", models.PollStatusActive).
		Preload("Options", orderedOptions).
		Preload("CreatedBy").
		Order("created_at ASC").
		Find(&activePolls).Error
	if err != nil {
		return nil, err
	}

	return &Dashboard{
		Teacher:         teacher,
		Polls:           polls,
		ActivePolls:     activePolls,
		CanStartNewPoll: len(activePolls) == 0,
	}, nil
}

// StudentProgress counts how far a student is through the active polls.
type StudentProgress struct {
	TotalPolls        int64 `json:"total_polls"`
	AnsweredPolls     int64 `json:"answered_polls"`
	CurrentPollNumber int64 `json:"current_poll_number"`
}

// GetStudentProgress reports progress over the currently active polls; an
// unknown student sits at zero.
func (s *Service) GetStudentProgress(studentName string) (*StudentProgress, error) {
	student, err := s.FindUser(studentName, models.RoleStudent)
	if err != nil {
		return nil, err
	}
	if student == nil {
		return &StudentProgress{}, nil
	}

	var total int64
	err = database.DB.Model(&models.Poll{}).
		Where("status = ?", models.PollStatusActive).
		Count(&total).Error
	if err != nil {
		return nil, err
	}

	var answered int64
	err = database.DB.Model(&models.Vote{}).
		Joins("JOIN polls ON polls.id = votes.poll_id").
		Where("votes.user_id = ? AND polls.status = ?", student.ID, models.PollStatusActive).
		Count(&answered).Error
	if err != nil {
		return nil, err
	}

	return &StudentProgress{
		TotalPolls:        total,
		AnsweredPolls:     answered,
		CurrentPollNumber: answered + 1,
	}, nil
}
