package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"classroom-poll-backend/database"
	"classroom-poll-backend/models"
	"classroom-poll-backend/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestSubmitVote(t *testing.T) {
	router, db := SetupTestEnvironment(t)
	ClearTables(db)

	poll := createTestPoll(t, router, "Vote on me?")

	w := performRequest(router, "POST", fmt.Sprintf("/api/polls/%d/vote", poll.ID), gin.H{
		"option_id":    poll.Options[0].ID,
		"student_name": "alice",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	var vote models.Vote
	err := json.Unmarshal(w.Body.Bytes(), &vote)
	assert.NoError(t, err)
	assert.Equal(t, poll.ID, vote.PollID)
	assert.Equal(t, poll.Options[0].ID, vote.OptionID)
	assert.NotNil(t, vote.User)
	assert.Equal(t, "alice", vote.User.Name)
	assert.Equal(t, models.RoleStudent, vote.User.Role)
	assert.NotNil(t, vote.Option)
	assert.Equal(t, "Yes", vote.Option.Text)

	// The single vote shows up as 100% in the results
	w = performRequest(router, "GET", fmt.Sprintf("/api/polls/%d/results", poll.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var results models.LiveResults
	err = json.Unmarshal(w.Body.Bytes(), &results)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), results.Poll.TotalVotes)
	assert.Equal(t, int64(1), results.Results[0].Votes)
	assert.Equal(t, 100, results.Results[0].Percentage)
	assert.Equal(t, int64(0), results.Results[1].Votes)
	assert.Equal(t, 0, results.Results[1].Percentage)
}

func TestSubmitVote_Duplicate(t *testing.T) {
	router, db := SetupTestEnvironment(t)
	ClearTables(db)

	poll := createTestPoll(t, router, "Only once?")

	w := performRequest(router, "POST", fmt.Sprintf("/api/polls/%d/vote", poll.ID), gin.H{
		"option_id":    poll.Options[0].ID,
		"student_name": "bob",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	// Second vote, even for a different option, is rejected
	w = performRequest(router, "POST", fmt.Sprintf("/api/polls/%d/vote", poll.ID), gin.H{
		"option_id":    poll.Options[1].ID,
		"student_name": "bob",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	// The original choice survives
	w = performRequest(router, "GET", fmt.Sprintf("/api/polls/%d/has-voted?student=bob", poll.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var hasVoted service.HasVotedResult
	err := json.Unmarshal(w.Body.Bytes(), &hasVoted)
	assert.NoError(t, err)
	assert.True(t, hasVoted.HasVoted)
	assert.NotNil(t, hasVoted.SelectedOption)
	assert.Equal(t, poll.Options[0].ID, hasVoted.SelectedOption.ID)
}

func TestSubmitVote_ConcurrentDuplicates(t *testing.T) {
	router, db := SetupTestEnvironment(t)
	ClearTables(db)

	poll := createTestPoll(t, router, "Race me?")

	const attempts = 8
	codes := make([]int, attempts)

	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			w := performRequest(router, "POST", fmt.Sprintf("/api/polls/%d/vote", poll.ID), gin.H{
				"option_id":    poll.Options[i%2].ID,
				"student_name": "carol",
			})
			codes[i] = w.Code
		}(i)
	}
	wg.Wait()

	// Exactly one attempt wins, the rest collide on the unique index
	success, conflict := 0, 0
	for _, code := range codes {
		switch code {
		case http.StatusOK:
			success++
		case http.StatusConflict:
			conflict++
		}
	}
	assert.Equal(t, 1, success)
	assert.Equal(t, attempts-1, conflict)

	var count int64
	db.Model(&models.Vote{}).Where("poll_id = ?", poll.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestSubmitVote_CompletedPoll(t *testing.T) {
	router, db := SetupTestEnvironment(t)
	ClearTables(db)

	poll := createTestPoll(t, router, "Closed?")
	performRequest(router, "POST", fmt.Sprintf("/api/polls/%d/end", poll.ID), nil)

	w := performRequest(router, "POST", fmt.Sprintf("/api/polls/%d/vote", poll.ID), gin.H{
		"option_id":    poll.Options[0].ID,
		"student_name": "dave",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestSubmitVote_PastDeadline(t *testing.T) {
	router, db := SetupTestEnvironment(t)
	ClearTables(db)

	poll := createTestPoll(t, router, "Too late?")

	// Force an ends_at in the past while the status is still ACTIVE, as if
	// the auto-end timer had not fired yet
	past := time.Now().Add(-time.Minute)
	err := database.DB.Model(&models.Poll{}).Where("id = ?", poll.ID).
		Update("ends_at", past).Error
	assert.NoError(t, err)

	w := performRequest(router, "POST", fmt.Sprintf("/api/polls/%d/vote", poll.ID), gin.H{
		"option_id":    poll.Options[0].ID,
		"student_name": "erin",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestSubmitVote_InvalidOption(t *testing.T) {
	router, db := SetupTestEnvironment(t)
	ClearTables(db)

	poll := createTestPoll(t, router, "Wrong option?")
	other := createTestPoll(t, router, "Another poll")

	// An option belonging to a different poll does not count
	w := performRequest(router, "POST", fmt.Sprintf("/api/polls/%d/vote", poll.ID), gin.H{
		"option_id":    other.Options[0].ID,
		"student_name": "frank",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = performRequest(router, "POST", fmt.Sprintf("/api/polls/%d/vote", poll.ID), gin.H{
		"option_id":    uint(99999),
		"student_name": "frank",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHasVoted_UnknownStudent(t *testing.T) {
	router, db := SetupTestEnvironment(t)
	ClearTables(db)

	poll := createTestPoll(t, router, "Anyone there?")

	w := performRequest(router, "GET", fmt.Sprintf("/api/polls/%d/has-voted?student=nobody", poll.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var hasVoted service.HasVotedResult
	err := json.Unmarshal(w.Body.Bytes(), &hasVoted)
	assert.NoError(t, err)
	assert.False(t, hasVoted.HasVoted)
	assert.Nil(t, hasVoted.SelectedOption)
}

func TestLiveResults_SplitVote(t *testing.T) {
	router, db := SetupTestEnvironment(t)
	ClearTables(db)

	poll := createTestPoll(t, router, "Fifty fifty?")

	performRequest(router, "POST", fmt.Sprintf("/api/polls/%d/vote", poll.ID), gin.H{
		"option_id": poll.Options[0].ID, "student_name": "gina",
	})
	performRequest(router, "POST", fmt.Sprintf("/api/polls/%d/vote", poll.ID), gin.H{
		"option_id": poll.Options[1].ID, "student_name": "hank",
	})

	w := performRequest(router, "GET", fmt.Sprintf("/api/polls/%d/results", poll.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var results models.LiveResults
	err := json.Unmarshal(w.Body.Bytes(), &results)
	assert.NoError(t, err)
	assert.Equal(t, int64(2), results.Poll.TotalVotes)
	assert.Equal(t, 50, results.Results[0].Percentage)
	assert.Equal(t, 50, results.Results[1].Percentage)
}

func TestGetPollVotes(t *testing.T) {
	router, db := SetupTestEnvironment(t)
	ClearTables(db)

	poll := createTestPoll(t, router, "Who voted?")

	performRequest(router, "POST", fmt.Sprintf("/api/polls/%d/vote", poll.ID), gin.H{
		"option_id": poll.Options[0].ID, "student_name": "ivy",
	})
	performRequest(router, "POST", fmt.Sprintf("/api/polls/%d/vote", poll.ID), gin.H{
		"option_id": poll.Options[1].ID, "student_name": "jack",
	})

	w := performRequest(router, "GET", fmt.Sprintf("/api/polls/%d/votes", poll.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var votes []models.Vote
	err := json.Unmarshal(w.Body.Bytes(), &votes)
	assert.NoError(t, err)
	assert.Len(t, votes, 2)

	// Newest first, voter and option attached
	assert.Equal(t, "jack", votes[0].User.Name)
	assert.Equal(t, "ivy", votes[1].User.Name)
	assert.NotNil(t, votes[0].Option)

	// Unknown poll
	w = performRequest(router, "GET", "/api/polls/9999/votes", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
