package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// VoteInput defines the expected input structure for submitting a vote
type VoteInput struct {
	OptionID    uint   `json:"option_id" binding:"required"`
	StudentName string `json:"student_name" binding:"required"`
}

// SubmitVote handles the submission of a vote on a poll option.
func SubmitVote(c *gin.Context) {
	pollID, ok := parsePollID(c)
	if !ok {
		return
	}

	var input VoteInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	vote, err := svc.SubmitVote(pollID, input.OptionID, input.StudentName)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, vote)
}

// HasVoted reports whether the student already voted in the poll and which
// option they picked.
func HasVoted(c *gin.Context) {
	pollID, ok := parsePollID(c)
	if !ok {
		return
	}

	studentName := c.Query("student")
	if studentName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "student query parameter is required"})
		return
	}

	result, err := svc.HasVoted(pollID, studentName)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetPollVotes lists a poll's votes newest first, voter and option attached.
func GetPollVotes(c *gin.Context) {
	pollID, ok := parsePollID(c)
	if !ok {
		return
	}

	votes, err := svc.VotesForPoll(pollID)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, votes)
}
