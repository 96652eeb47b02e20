package handlers

import (
	"net/http"

	"classroom-poll-backend/service"

	"github.com/gin-gonic/gin"
)

// CreatePollInput defines the expected input structure for creating a poll
type CreatePollInput struct {
	Question    string              `json:"question" binding:"required"`
	Description string              `json:"description,omitempty"`
	Options     []CreateOptionInput `json:"options" binding:"required,min=2,dive"`
	TeacherName string              `json:"teacher_name" binding:"required"`
}

// CreateOptionInput defines the structure for options when creating a poll
type CreateOptionInput struct {
	Text  string `json:"text" binding:"required"`
	Order *int   `json:"order,omitempty"`
}

// CreatePoll handles the creation of a new poll
func CreatePoll(c *gin.Context) {
	var input CreatePollInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	options := make([]service.OptionInput, len(input.Options))
	for i, opt := range input.Options {
		options[i] = service.OptionInput{Text: opt.Text, Order: opt.Order}
	}

	poll, err := svc.CreatePoll(service.CreatePollInput{
		Question:    input.Question,
		Description: input.Description,
		TeacherName: input.TeacherName,
		Options:     options,
	})
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, poll)
}

// StartPollInput carries the optional countdown duration in seconds.
type StartPollInput struct {
	Duration *int `json:"duration,omitempty" binding:"omitempty,min=1,max=600"`
}

// StartPoll activates a poll and arms the auto-end timer when a duration is
// given.
func StartPoll(c *gin.Context) {
	pollID, ok := parsePollID(c)
	if !ok {
		return
	}

	var input StartPollInput
	if err := c.ShouldBindJSON(&input); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	poll, err := svc.StartPoll(pollID, input.Duration)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, poll)
}

// EndPoll completes a poll.
func EndPoll(c *gin.Context) {
	pollID, ok := parsePollID(c)
	if !ok {
		return
	}

	poll, err := svc.EndPoll(pollID)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, poll)
}

// GetPolls retrieves a list of all polls
func GetPolls(c *gin.Context) {
	polls, err := svc.ListPolls()
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, polls)
}

// GetPoll handles retrieving a single poll by ID
func GetPoll(c *gin.Context) {
	pollID, ok := parsePollID(c)
	if !ok {
		return
	}

	poll, err := svc.GetPoll(pollID)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, poll)
}

// GetActivePoll returns the currently open poll, or a JSON null when none.
func GetActivePoll(c *gin.Context) {
	poll, err := svc.GetActivePoll()
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, poll)
}

// CanStartNewPoll reports whether the presenter may start another poll.
func CanStartNewPoll(c *gin.Context) {
	canStart, activePollID, err := svc.CanStartNewPoll()
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	resp := gin.H{"can_start": canStart}
	if canStart {
		resp["active_poll_id"] = nil
	} else {
		resp["active_poll_id"] = activePollID
	}
	c.JSON(http.StatusOK, resp)
}

// GetNextPoll returns the next active poll the student has not voted in.
func GetNextPoll(c *gin.Context) {
	studentName := c.Query("student")
	if studentName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "student query parameter is required"})
		return
	}

	poll, err := svc.NextPollForStudent(studentName)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, poll)
}

// GetLiveResults returns the on-demand tally for a poll.
func GetLiveResults(c *gin.Context) {
	pollID, ok := parsePollID(c)
	if !ok {
		return
	}

	results, err := svc.LiveResults(pollID)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}
